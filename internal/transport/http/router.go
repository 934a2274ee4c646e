package http

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"dispomail/backend/internal/auth"
	"dispomail/backend/internal/auth/jwt"
	"dispomail/backend/internal/config"
	"dispomail/backend/internal/health"
	"dispomail/backend/internal/middleware"
	"dispomail/backend/internal/service"
	"dispomail/backend/internal/storage"
	"dispomail/backend/internal/websocket"
)

// 入站 webhook 请求体上限。附件按契约接受但不持久化，
// 上限给足中继携带附件的空间。
const inboundBodyLimit = 10 << 20 // 10 MiB

// RouterDeps 路由装配所需的全部依赖。
type RouterDeps struct {
	Config  *config.Config
	Logger  *zap.Logger
	Store   storage.Store
	Tokens  *jwt.Manager
	Auth    *auth.Service
	Ingest  *service.IngestService
	Address *service.AddressService
	Inbox   *service.InboxService
	Domains *service.DomainService
	Stats   *service.StatsService
	Hub     *websocket.Hub
	Health  *health.Handler
}

// NewRouter 装配完整的 HTTP 路由。
func NewRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()

	r.Use(middleware.RecoveryHandler(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())

	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(deps.Config.CORS.AllowedOrigins) == 1 && deps.Config.CORS.AllowedOrigins[0] == "*" {
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowCredentials = false
	} else {
		corsConfig.AllowOrigins = deps.Config.CORS.AllowedOrigins
	}
	r.Use(cors.New(corsConfig))

	inboundHandler := NewInboundHandler(deps.Ingest, deps.Logger)
	addressHandler := NewAddressHandler(deps.Address, deps.Auth, deps.Logger)
	inboxHandler := NewInboxHandler(deps.Inbox, deps.Logger)
	authHandler := NewAuthHandler(deps.Auth, deps.Logger)
	adminHandler := NewAdminHandler(deps.Domains, deps.Stats, deps.Logger)
	publicHandler := NewPublicHandler(deps.Domains, deps.Logger)

	// 运维端点
	r.GET("/health/live", gin.WrapF(deps.Health.LiveEndpoint))
	r.GET("/health/ready", gin.WrapF(deps.Health.ReadyEndpoint))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/v1")
	{
		// 邮件中继投递入口：限流 + 请求体限制，不走用户认证
		v1.POST("/inbound",
			middleware.BodySizeLimit(inboundBodyLimit),
			middleware.InboundRateLimit(deps.Config.Inbound.RatePerSecond, deps.Config.Inbound.RateBurst),
			inboundHandler.Handle)

		public := v1.Group("/public")
		{
			public.GET("/domains", publicHandler.ListDomains)
		}

		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
			authGroup.GET("/me", middleware.RequireAuth(deps.Tokens), authHandler.Me)
		}

		addresses := v1.Group("/addresses", middleware.RequireAuth(deps.Tokens))
		{
			addresses.POST("",
				middleware.PerUserRateLimit(deps.Store, "allocate", 30, time.Minute),
				addressHandler.Allocate)
			addresses.GET("", addressHandler.List)
			addresses.DELETE("/:id", addressHandler.Release)
		}

		emails := v1.Group("/emails", middleware.RequireAuth(deps.Tokens))
		{
			emails.GET("", inboxHandler.List)
			emails.GET("/:id", inboxHandler.Get)
			emails.PATCH("/:id/read", inboxHandler.MarkRead)
			emails.DELETE("/:id", inboxHandler.Delete)
		}

		admin := v1.Group("/admin",
			middleware.RequireAuth(deps.Tokens),
			middleware.RequireAdmin(deps.Store, deps.Logger))
		{
			admin.POST("/domains", adminHandler.AddDomain)
			admin.GET("/domains", adminHandler.ListDomains)
			admin.PATCH("/domains/:name/deactivate", adminHandler.DeactivateDomain)
			admin.DELETE("/domains/:name", adminHandler.RemoveDomain)
			admin.GET("/stats", adminHandler.Stats)
		}
	}

	// WebSocket 实时推送：认证后升级连接
	r.GET("/ws", middleware.RequireAuth(deps.Tokens), func(c *gin.Context) {
		userID, _ := middleware.CurrentUserID(c)
		if err := deps.Hub.Serve(c.Writer, c.Request, userID); err != nil {
			deps.Logger.Warn("WebSocket 升级失败", zap.Error(err))
		}
	})

	return r
}
