package http

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"dispomail/backend/internal/auth"
	"dispomail/backend/internal/middleware"
)

// AuthHandler 注册、登录与令牌相关端点。
type AuthHandler struct {
	auth   *auth.Service
	logger *zap.Logger
}

// NewAuthHandler 创建认证处理器。
func NewAuthHandler(authSvc *auth.Service, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{auth: authSvc, logger: logger}
}

type credentialsRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// Register 注册新用户。POST /v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "邮箱和密码不能为空")
		return
	}

	user, err := h.auth.Register(req.Email, req.Password)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	Created(c, user)
}

// Login 登录并签发令牌对。POST /v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "邮箱和密码不能为空")
		return
	}

	user, pair, err := h.auth.Login(req.Email, req.Password)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	Success(c, gin.H{"user": user, "tokens": pair})
}

// Refresh 用刷新令牌换取新令牌对。POST /v1/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "缺少刷新令牌")
		return
	}

	pair, err := h.auth.Refresh(req.RefreshToken)
	if err != nil {
		Unauthorized(c, "刷新令牌无效或已过期")
		return
	}
	Success(c, pair)
}

// Me 返回当前认证用户信息。GET /v1/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)
	user, err := h.auth.GetUserByID(userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	isAdmin, err := h.auth.IsAdministrator(userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	Success(c, gin.H{"user": user, "isAdmin": isAdmin})
}
