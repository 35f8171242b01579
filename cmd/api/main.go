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

	"github.com/finreach/trial-balance-api/internal/handler"
	"github.com/finreach/trial-balance-api/internal/middleware"
	"github.com/finreach/trial-balance-api/internal/models"
	"github.com/finreach/trial-balance-api/internal/repository"
	"github.com/finreach/trial-balance-api/internal/service"
	"github.com/finreach/trial-balance-api/internal/token"
	"github.com/finreach/trial-balance-api/pkg/cache"
	"github.com/finreach/trial-balance-api/pkg/config"
	"github.com/finreach/trial-balance-api/pkg/database"
	"github.com/finreach/trial-balance-api/pkg/jobs"
	"github.com/finreach/trial-balance-api/pkg/logger"
	corsmiddleware "github.com/finreach/trial-balance-api/pkg/middleware/cors"
	reqidmiddleware "github.com/finreach/trial-balance-api/pkg/middleware/requestid"
	"github.com/finreach/trial-balance-api/pkg/secrets"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The signing secret is a hard dependency: without it no token can be
	// issued or admitted, so resolution failure aborts startup.
	signingSecret, err := secrets.NewResolver(cfg.Secrets).SigningSecret(ctx)
	if err != nil {
		logr.Sugar().Fatalw("failed to resolve signing secret", "error", err)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to database", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, report caching disabled", "error", err)
		redisClient = nil
	}

	userRepo := repository.NewUserRepository(db)
	revocationRepo := repository.NewRevocationRepository(db)
	companyRepo := repository.NewCompanyRepository(db)
	reportRepo := repository.NewReportRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	codec := token.NewCodec(signingSecret)
	issuer := token.NewIssuer(codec, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)
	verifier := token.NewVerifier(codec, revocationRepo)

	metricsSvc := service.NewMetricsService()
	authSvc := service.NewAuthService(userRepo, revocationRepo, issuer, verifier, metricsSvc, nil, logr)
	companySvc := service.NewCompanyService(companyRepo, logr)
	reportSvc := service.NewReportService(reportRepo, companyRepo, cacheRepo, cfg.Reports.CacheTTL, metricsSvc, nil, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	companyHandler := handler.NewCompanyHandler(companySvc)
	reportHandler := handler.NewReportHandler(reportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, db)

	sweeper := jobs.NewSweeper("revoked-tokens", func(ctx context.Context) error {
		removed, err := revocationRepo.DeleteExpired(ctx)
		if err != nil {
			return err
		}
		if removed > 0 {
			logr.Sugar().Infow("pruned expired revocations", "count", removed)
		}
		return nil
	}, jobs.SweeperConfig{Interval: cfg.Ledger.SweepInterval, Logger: logr})
	sweeper.Start(ctx)
	defer sweeper.Stop()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"name": "trial-balance-api",
			"endpoints": []string{
				"POST /auth/login",
				"POST /auth/refresh",
				"POST /auth/logout",
				"GET /auth/me",
				"GET /api/companies",
				"POST /api/trial-balance-store",
				"GET /api/trial-balance-store/export",
				"POST /api/sales-details",
				"GET /health",
				"GET /ready",
				"GET /metrics",
			},
		})
	})
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	auth := r.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", authHandler.Logout)
		auth.GET("/me", middleware.JWT(authSvc, metricsSvc), authHandler.Me)
	}

	api := r.Group(cfg.APIPrefix, middleware.JWT(authSvc, metricsSvc))
	{
		api.GET("/companies", companyHandler.List)
		api.POST("/trial-balance-store", reportHandler.TrialBalance)
		api.GET("/trial-balance-store/export", reportHandler.Export)
		api.POST("/sales-details", reportHandler.SalesDetails)

		admin := api.Group("/admin", middleware.RequireRoles(models.RoleAdmin))
		admin.POST("/revocations/prune", authHandler.PruneRevocations)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("shutdown failed", "error", err)
	}

	if redisClient != nil {
		_ = redisClient.Close()
	}
	logr.Info("server stopped", zap.String("addr", addr))
}
