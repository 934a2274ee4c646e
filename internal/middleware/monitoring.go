package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"dispomail/backend/internal/monitoring"
)

// Metrics 记录 HTTP 请求的 Prometheus 指标。
// 使用路由模板（FullPath）而非原始路径作为标签，避免路径参数打爆基数。
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		monitoring.HTTPRequestStarted()

		c.Next()

		monitoring.HTTPRequestFinished()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		monitoring.RecordHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
