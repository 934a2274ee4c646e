package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"dispomail/backend/internal/auth/jwt"
)

// gin 上下文键
const (
	ContextUserID = "user_id"
	ContextEmail  = "user_email"
	ContextPlan   = "user_plan"
	ContextClaims = "user_claims"
)

// RequireAuth 强制 JWT 认证，未携带有效访问令牌的请求返回 401。
func RequireAuth(tokens *jwt.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code": http.StatusUnauthorized,
				"msg":  "缺少认证令牌",
			})
			return
		}

		claims, err := tokens.ValidateToken(tokenString, jwt.AccessToken)
		if err != nil {
			msg := "认证令牌无效"
			if err == jwt.ErrExpiredToken {
				msg = "认证令牌已过期"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code": http.StatusUnauthorized,
				"msg":  msg,
			})
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextEmail, claims.Email)
		c.Set(ContextPlan, claims.Plan)
		c.Set(ContextClaims, claims)
		c.Next()
	}
}

// OptionalAuth 可选认证：有令牌则解析身份，无令牌放行匿名请求。
func OptionalAuth(tokens *jwt.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString == "" {
			c.Next()
			return
		}
		if claims, err := tokens.ValidateToken(tokenString, jwt.AccessToken); err == nil {
			c.Set(ContextUserID, claims.UserID)
			c.Set(ContextEmail, claims.Email)
			c.Set(ContextPlan, claims.Plan)
			c.Set(ContextClaims, claims)
		}
		c.Next()
	}
}

// extractToken 依次从 Authorization 头和 Cookie 中提取令牌。
func extractToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	if cookie, err := c.Cookie("access_token"); err == nil && cookie != "" {
		return cookie
	}
	return ""
}

// CurrentUserID 从上下文中取出认证用户 ID。
func CurrentUserID(c *gin.Context) (string, bool) {
	id, ok := c.Get(ContextUserID)
	if !ok {
		return "", false
	}
	userID, ok := id.(string)
	return userID, ok && userID != ""
}
