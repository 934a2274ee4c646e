package http

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"dispomail/backend/internal/auth"
	"dispomail/backend/internal/middleware"
	"dispomail/backend/internal/service"
)

// AddressHandler 一次性地址的 API 端点。
type AddressHandler struct {
	addresses *service.AddressService
	auth      *auth.Service
	logger    *zap.Logger
}

// NewAddressHandler 创建地址处理器。
func NewAddressHandler(addresses *service.AddressService, authSvc *auth.Service, logger *zap.Logger) *AddressHandler {
	return &AddressHandler{addresses: addresses, auth: authSvc, logger: logger}
}

type allocateRequest struct {
	LocalPart string `json:"localPart"`
	Domain    string `json:"domain"`
}

// Allocate 分配新地址。POST /v1/addresses
func (h *AddressHandler) Allocate(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)

	var req allocateRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		BadRequest(c, "非法的请求体")
		return
	}

	user, err := h.auth.GetUserByID(userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	address, err := h.addresses.Allocate(user, req.LocalPart, req.Domain)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	Created(c, address)
}

// List 列出当前用户的全部地址。GET /v1/addresses
func (h *AddressHandler) List(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)
	Success(c, h.addresses.List(userID))
}

// Release 回收地址。DELETE /v1/addresses/:id
func (h *AddressHandler) Release(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)
	addressID := c.Param("id")

	address, err := h.addresses.Get(addressID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if err := h.auth.AuthorizeOwnership(address.UserID, userID); err != nil {
		respondError(c, h.logger, err)
		return
	}

	if err := h.addresses.Release(addressID); err != nil {
		respondError(c, h.logger, err)
		return
	}
	Success(c, nil)
}
