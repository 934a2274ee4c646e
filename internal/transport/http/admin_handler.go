package http

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"dispomail/backend/internal/middleware"
	"dispomail/backend/internal/service"
)

// AdminHandler 管理端域名注册表与统计端点。
type AdminHandler struct {
	domains *service.DomainService
	stats   *service.StatsService
	logger  *zap.Logger
}

// NewAdminHandler 创建管理端处理器。
func NewAdminHandler(domains *service.DomainService, stats *service.StatsService, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{domains: domains, stats: stats, logger: logger}
}

type addDomainRequest struct {
	Name string `json:"name" binding:"required"`
}

// AddDomain 注册可分配域名。POST /v1/admin/domains
func (h *AdminHandler) AddDomain(c *gin.Context) {
	var req addDomainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "缺少域名")
		return
	}

	userID, _ := middleware.CurrentUserID(c)
	d, err := h.domains.Add(req.Name, userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	Created(c, d)
}

// ListDomains 列出全部域名（含停用）。GET /v1/admin/domains
func (h *AdminHandler) ListDomains(c *gin.Context) {
	all, err := h.domains.List()
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	Success(c, all)
}

// DeactivateDomain 停用域名。PATCH /v1/admin/domains/:name/deactivate
func (h *AdminHandler) DeactivateDomain(c *gin.Context) {
	if err := h.domains.Deactivate(c.Param("name")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	Success(c, nil)
}

// RemoveDomain 删除域名。DELETE /v1/admin/domains/:name
func (h *AdminHandler) RemoveDomain(c *gin.Context) {
	if err := h.domains.Remove(c.Param("name")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	Success(c, nil)
}

// Stats 系统统计总览。GET /v1/admin/stats
func (h *AdminHandler) Stats(c *gin.Context) {
	overview, err := h.stats.Overview()
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	// 补充最近 7 天的日计数序列
	if counters, err := h.stats.RecentCounters(7); err == nil {
		overview.RecentCounters = counters
	}
	Success(c, overview)
}
