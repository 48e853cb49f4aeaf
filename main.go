package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"instantanalytics/api/analytics"
	"instantanalytics/api/config"
	"instantanalytics/api/database"
	"instantanalytics/api/handlers"
	"instantanalytics/api/logger"
	"instantanalytics/api/measurement"
	"instantanalytics/api/metrics"
	"instantanalytics/api/middleware"
	"instantanalytics/api/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zlog, err := logger.New(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zlog.Sync()

	if cfg.GinMode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}

	settings, err := cfg.AnalyticsSettings()
	if err != nil {
		zlog.Fatal("invalid analytics settings", zap.String("path", cfg.SettingsPath), zap.Error(err))
	}
	if !settings.TrackingConfigured() {
		zlog.Warn("no Google Analytics tracking id configured; hits will not be built")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- PostgreSQL (CMS users and groups) ---
	dbClient, err := database.NewPostgresDB(ctx, cfg.DatabaseURL, zlog)
	if err != nil {
		zlog.Fatal("failed to initialize PostgreSQL database", zap.Error(err))
	}
	defer dbClient.Close()
	userStore := store.NewUserStore(dbClient.DB)

	// --- Recorders: Prometheus always, ClickHouse ledger when configured ---
	recorders := analytics.Recorders{metrics.NewHitMetrics(prometheus.DefaultRegisterer)}

	var reports handlers.HitReports
	var ledger *store.HitLedger
	if cfg.ClickHouse.Enabled() {
		chClient, err := database.NewClickHouseDB(ctx, database.ClickHouseOptions{
			Addr:     cfg.ClickHouse.Addr(),
			Database: cfg.ClickHouse.DBName,
			Username: cfg.ClickHouse.Username,
			Password: cfg.ClickHouse.Password,
		}, zlog)
		if err != nil {
			zlog.Fatal("failed to initialize ClickHouse database", zap.Error(err))
		}
		defer chClient.Close()
		if err := chClient.EnsureSchema(ctx); err != nil {
			zlog.Fatal("failed to prepare hit ledger", zap.Error(err))
		}

		hitStore := store.NewHitStore(chClient, zlog)
		ledger = store.NewHitLedger(hitStore, 500, 5*time.Second, zlog)
		go ledger.Run(ctx)
		recorders = append(recorders, ledger)
		reports = hitStore
	} else {
		zlog.Info("ClickHouse not configured; hit ledger disabled")
	}

	sender := measurement.NewClient(cfg.CollectURL, &http.Client{Timeout: cfg.SendTimeout})
	svc := analytics.NewService(settings, sender,
		analytics.WithRecorder(recorders),
		analytics.WithLogger(zlog.Named("analytics")),
		analytics.WithActionBase(cfg.ActionBase),
	)

	r := setupRouter(cfg, svc, routeHandlers{
		tracking: handlers.NewTrackingHandlers(svc, zlog),
		commerce: handlers.NewCommerceHandlers(zlog),
		stats:    handlers.NewStatsHandlers(reports, zlog),
		auth:     handlers.NewAuthHandlers(userStore, []byte(cfg.JWTSecret), zlog),
		users:    userStore,
	}, zlog)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		zlog.Info("server starting", zap.String("port", cfg.Port), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("server failed to start", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zlog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Error("server forced to shutdown", zap.Error(err))
	}

	if ledger != nil {
		select {
		case <-ledger.Done():
		case <-shutdownCtx.Done():
			zlog.Warn("hit ledger did not flush before shutdown deadline")
		}
	}

	zlog.Info("server exiting")
}

type routeHandlers struct {
	tracking *handlers.TrackingHandlers
	commerce *handlers.CommerceHandlers
	stats    *handlers.StatsHandlers
	auth     *handlers.AuthHandlers
	users    middleware.UserLoader
}

func setupRouter(cfg *config.Config, svc *analytics.Service, h routeHandlers, zlog *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.RequestLogger(zlog),
		middleware.CORS(cfg.CORSOrigins),
		middleware.Session([]byte(cfg.JWTSecret), h.users, zlog),
	)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	tracked := r.Group("/")
	tracked.Use(middleware.Analytics(svc, cfg.CPTrigger))
	{
		actions := tracked.Group(cfg.ActionRoute())
		actions.GET("/"+analytics.PageViewAction, h.tracking.TrackPageViewURL)
		actions.GET("/"+analytics.EventAction, h.tracking.TrackEventURL)

		tracked.GET("/api/analytics/pageview", h.tracking.PageView)
		tracked.GET("/api/analytics/tracking-urls", h.tracking.TrackingURLs)

		commerce := tracked.Group("/api/commerce")
		commerce.POST("/cart/add", h.commerce.AddToCart)
		commerce.POST("/cart/remove", h.commerce.RemoveFromCart)
		commerce.POST("/checkout", h.commerce.Checkout)
		commerce.POST("/orders/complete", h.commerce.OrderComplete)
		commerce.POST("/products/view", h.commerce.ProductView)
	}

	api := r.Group("/api")
	{
		api.POST("/login", h.auth.Login)
		api.POST("/logout", h.auth.Logout)
		api.GET("/me", middleware.AuthRequired(cfg.APIKey), h.auth.Me)

		stats := api.Group("/stats")
		stats.Use(middleware.AdminRequired(cfg.APIKey))
		stats.GET("/hit-counts", h.stats.GetHitCountsOverTime)
		stats.GET("/top-paths", h.stats.GetTopNPagePaths)
	}

	return r
}
