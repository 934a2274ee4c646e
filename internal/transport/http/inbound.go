package http

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"dispomail/backend/internal/domain"
	"dispomail/backend/internal/service"
)

// InboundHandler 邮件中继 webhook 的接入端点。
type InboundHandler struct {
	ingest *service.IngestService
	logger *zap.Logger
}

// NewInboundHandler 创建入站处理器。
func NewInboundHandler(ingest *service.IngestService, logger *zap.Logger) *InboundHandler {
	return &InboundHandler{ingest: ingest, logger: logger}
}

// Handle 处理一次投递。
//
// 200 入库成功；400 载荷不是合法 JSON 或缺少收件地址；
// 404 收件地址未分配（中继据此停止重试）；500 存储故障（中继会重投）。
func (h *InboundHandler) Handle(c *gin.Context) {
	var msg domain.InboundMessage
	if err := c.ShouldBindJSON(&msg); err != nil {
		BadRequest(c, "非法的投递载荷")
		return
	}
	if msg.To == "" {
		BadRequest(c, "缺少收件地址")
		return
	}

	email, err := h.ingest.Ingest(&msg)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	Success(c, gin.H{"id": email.ID})
}
