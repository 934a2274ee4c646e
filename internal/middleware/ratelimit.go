package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"dispomail/backend/internal/storage"
)

// InboundRateLimit 入站 webhook 的进程内令牌桶限流。
// 中继投递是单一上游，全局桶即可；超限返回 429 让中继按策略重试。
func InboundRateLimit(perSecond float64, burst int) gin.HandlerFunc {
	limiter := rate.NewLimiter(rate.Limit(perSecond), burst)
	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"code": http.StatusTooManyRequests,
				"msg":  "请求过于频繁，请稍后重试",
			})
			return
		}
		c.Next()
	}
}

// PerUserRateLimit 按用户的固定窗口限流，计数存储在 Store
// （Redis 后端时多副本共享计数）。必须挂在 RequireAuth 之后。
func PerUserRateLimit(store storage.RateLimitRepository, scope string, limit int64, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := CurrentUserID(c)
		if !ok {
			c.Next()
			return
		}

		key := fmt.Sprintf("%s:%s", scope, userID)
		n, err := store.IncrementRateLimit(key, window)
		if err != nil {
			// 限流计数不可用时放行，不把存储故障放大成拒绝服务
			c.Next()
			return
		}
		if n > limit {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"code": http.StatusTooManyRequests,
				"msg":  "请求过于频繁，请稍后重试",
			})
			return
		}
		c.Next()
	}
}
