package http

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"dispomail/backend/internal/auth"
	"dispomail/backend/internal/domain"
	"dispomail/backend/internal/service"
	"dispomail/backend/internal/storage"
)

// respondError 将业务错误映射为 HTTP 响应。
// 未识别的错误按 500 处理并记录日志。
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	switch {
	case errors.Is(err, storage.ErrQuotaExceeded):
		Forbidden(c, "地址配额已满，请先回收现有地址或升级套餐")
	case errors.Is(err, storage.ErrAddressExists):
		Conflict(c, "地址已被占用")
	case errors.Is(err, storage.ErrAddressNotFound):
		NotFound(c, "地址不存在")
	case errors.Is(err, storage.ErrEmailNotFound):
		NotFound(c, "邮件不存在")
	case errors.Is(err, storage.ErrDomainNotFound):
		NotFound(c, "域名不存在")
	case errors.Is(err, storage.ErrUserNotFound):
		NotFound(c, "用户不存在")
	case errors.Is(err, storage.ErrUserExists):
		Conflict(c, "注册邮箱已被占用")
	case errors.Is(err, service.ErrRecipientNotFound):
		NotFound(c, "收件地址未分配")
	case errors.Is(err, service.ErrDomainNotAllowed):
		BadRequest(c, "域名不可用于地址分配")
	case errors.Is(err, service.ErrNoActiveDomains):
		BadRequest(c, "系统暂无可用域名")
	case errors.Is(err, service.ErrNotOwner),
		errors.Is(err, auth.ErrForbidden):
		Forbidden(c, "无权访问该资源")
	case errors.Is(err, auth.ErrInvalidCredentials):
		Unauthorized(c, "邮箱或密码错误")
	case errors.Is(err, auth.ErrUserDisabled):
		Forbidden(c, "账号已被停用")
	case errors.Is(err, domain.ErrInvalidEmail),
		errors.Is(err, domain.ErrEmailTooLong),
		errors.Is(err, domain.ErrInvalidLocalPart),
		errors.Is(err, domain.ErrLocalPartTooLong),
		errors.Is(err, domain.ErrInvalidDomain),
		errors.Is(err, domain.ErrDomainTooLong),
		errors.Is(err, domain.ErrPasswordTooShort),
		errors.Is(err, domain.ErrPasswordTooLong):
		BadRequest(c, err.Error())
	default:
		logger.Error("请求处理失败",
			zap.String("path", c.Request.URL.Path),
			zap.Error(err))
		InternalError(c)
	}
}
