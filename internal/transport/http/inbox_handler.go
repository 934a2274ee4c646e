package http

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"dispomail/backend/internal/middleware"
	"dispomail/backend/internal/service"
)

// InboxHandler 收件箱 API 端点。
type InboxHandler struct {
	inbox  *service.InboxService
	logger *zap.Logger
}

// NewInboxHandler 创建收件箱处理器。
func NewInboxHandler(inbox *service.InboxService, logger *zap.Logger) *InboxHandler {
	return &InboxHandler{inbox: inbox, logger: logger}
}

// List 列出当前用户的全部邮件。GET /v1/emails
func (h *InboxHandler) List(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)
	emails, err := h.inbox.List(userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	Success(c, emails)
}

// Get 读取单封邮件。GET /v1/emails/:id
func (h *InboxHandler) Get(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)
	email, err := h.inbox.Get(userID, c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	Success(c, email)
}

// MarkRead 标记已读。PATCH /v1/emails/:id/read
func (h *InboxHandler) MarkRead(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)
	if err := h.inbox.MarkRead(userID, c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	Success(c, nil)
}

// Delete 删除邮件。DELETE /v1/emails/:id
func (h *InboxHandler) Delete(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)
	if err := h.inbox.Delete(userID, c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	Success(c, nil)
}
