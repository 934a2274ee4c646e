package http

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"dispomail/backend/internal/service"
)

// PublicHandler 无需认证的公开端点。
type PublicHandler struct {
	domains *service.DomainService
	logger  *zap.Logger
}

// NewPublicHandler 创建公开端点处理器。
func NewPublicHandler(domains *service.DomainService, logger *zap.Logger) *PublicHandler {
	return &PublicHandler{domains: domains, logger: logger}
}

// ListDomains 列出可用于地址分配的激活域名。GET /v1/public/domains
func (h *PublicHandler) ListDomains(c *gin.Context) {
	active, err := h.domains.ListActive()
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	names := make([]string, 0, len(active))
	for _, d := range active {
		names = append(names, d.Name)
	}
	Success(c, names)
}
