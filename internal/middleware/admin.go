package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"dispomail/backend/internal/storage"
)

// RequireAdmin 管理员访问控制。必须在 RequireAuth 之后挂载：
// 认证通过后查询管理员名单，不在名单中的用户返回 403。
func RequireAdmin(store storage.AdminRepository, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := CurrentUserID(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code": http.StatusUnauthorized,
				"msg":  "缺少认证令牌",
			})
			return
		}

		isAdmin, err := store.IsAdministrator(userID)
		if err != nil {
			logger.Error("查询管理员名单失败", zap.String("user_id", userID), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"code": http.StatusInternalServerError,
				"msg":  "内部服务错误",
			})
			return
		}
		if !isAdmin {
			logger.Warn("非管理员尝试访问管理接口",
				zap.String("user_id", userID),
				zap.String("path", c.Request.URL.Path))
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"code": http.StatusForbidden,
				"msg":  "需要管理员权限",
			})
			return
		}
		c.Next()
	}
}
