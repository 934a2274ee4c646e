package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"dispomail/backend/internal/auth"
	"dispomail/backend/internal/auth/jwt"
	"dispomail/backend/internal/config"
	"dispomail/backend/internal/health"
	"dispomail/backend/internal/logger"
	"dispomail/backend/internal/monitoring"
	"dispomail/backend/internal/service"
	"dispomail/backend/internal/storage"
	"dispomail/backend/internal/storage/hybrid"
	"dispomail/backend/internal/storage/memory"
	"dispomail/backend/internal/storage/postgres"
	httptransport "dispomail/backend/internal/transport/http"
	"dispomail/backend/internal/websocket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("配置加载失败: %v", err)
	}

	if cfg.Log.Development {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	zapLogger, err := logger.NewLogger(logger.Config{
		Level:       cfg.Log.Level,
		Development: cfg.Log.Development,
	})
	if err != nil {
		log.Fatalf("日志初始化失败: %v", err)
	}
	defer zapLogger.Sync()

	store, pgClient, err := buildStore(cfg, zapLogger)
	if err != nil {
		zapLogger.Fatal("存储初始化失败", zap.Error(err))
	}
	defer store.Close()

	healthHandler := health.NewHandler(store)
	if pgClient != nil {
		defer pgClient.Close()
		healthHandler.AddTimeoutReadinessCheck("postgres-pool", func() error {
			return pgClient.Ping(context.Background())
		}, 3*time.Second)
	}

	tokens := jwt.NewManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.AccessExpiry, cfg.JWT.RefreshExpiry)
	hub := websocket.NewHub(zapLogger, cfg.CORS.AllowedOrigins)

	authSvc := auth.NewService(store, tokens, zapLogger)
	addressSvc := service.NewAddressService(store, zapLogger)
	domainSvc := service.NewDomainService(store, zapLogger)
	ingestSvc := service.NewIngestService(store, hub, zapLogger)
	inboxSvc := service.NewInboxService(store, zapLogger)
	statsSvc := service.NewStatsService(store, zapLogger)
	sweeper := service.NewSweeper(store, cfg.Mailbox.Retention, cfg.Mailbox.SweepInterval, zapLogger)

	if len(cfg.Mailbox.BootstrapDomains) > 0 {
		if err := domainSvc.Bootstrap(cfg.Mailbox.BootstrapDomains); err != nil {
			zapLogger.Fatal("域名初始化失败", zap.Error(err))
		}
	}

	router := httptransport.NewRouter(httptransport.RouterDeps{
		Config:  cfg,
		Logger:  zapLogger,
		Store:   store,
		Tokens:  tokens,
		Auth:    authSvc,
		Ingest:  ingestSvc,
		Address: addressSvc,
		Inbox:   inboxSvc,
		Domains: domainSvc,
		Stats:   statsSvc,
		Hub:     hub,
		Health:  healthHandler,
	})

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		zapLogger.Info("HTTP 服务启动",
			zap.String("addr", server.Addr),
			zap.Duration("retention", cfg.Mailbox.Retention))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		err := sweeper.Run(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	if pgClient != nil {
		g.Go(func() error {
			ticker := time.NewTicker(15 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-gctx.Done():
					return nil
				case <-ticker.C:
					stats := pgClient.Stats()
					monitoring.UpdateDBPoolStats(int(stats.AcquiredConns()), int(stats.IdleConns()))
				}
			}
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		zapLogger.Info("收到退出信号，开始优雅关闭")

		hub.Shutdown()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		zapLogger.Fatal("服务异常退出", zap.Error(err))
	}
	zapLogger.Info("服务已退出")
}

// buildStore 按配置选择存储后端：
// 未配置数据库用内存存储；配置数据库时用关系库，
// 同时配置 DSN 与 Redis 地址时启用混合存储。
// PostgreSQL 后端额外建一个 pgx 连接池做健康探测与池指标。
func buildStore(cfg *config.Config, zapLogger *zap.Logger) (storage.Store, *postgres.Client, error) {
	if cfg.Database.Type == "" {
		zapLogger.Warn("未配置数据库，使用内存存储（进程重启后数据丢失）")
		return memory.NewStore(), nil, nil
	}

	var (
		store storage.Store
		err   error
	)
	if cfg.Redis.Address != "" {
		store, err = hybrid.NewStore(cfg)
		if err != nil {
			return nil, nil, err
		}
		zapLogger.Info("混合存储已启用",
			zap.String("database", cfg.Database.Type),
			zap.String("redis", cfg.Redis.Address))
	} else {
		switch cfg.Database.Type {
		case "mysql":
			store, err = postgres.NewMySQLStore(cfg.Database.DSN)
		case "postgres", "postgresql":
			store, err = postgres.NewStore(cfg.Database.DSN)
		default:
			return nil, nil, fmt.Errorf("unsupported database type: %s", cfg.Database.Type)
		}
		if err != nil {
			return nil, nil, err
		}
		zapLogger.Info("数据库存储已启用", zap.String("database", cfg.Database.Type))
	}

	var pgClient *postgres.Client
	if cfg.Database.Type == "postgres" || cfg.Database.Type == "postgresql" {
		pgClient, err = postgres.NewClient(&cfg.Database)
		if err != nil {
			store.Close()
			return nil, nil, err
		}
	}
	return store, pgClient, nil
}
