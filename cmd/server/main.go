package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	couponapp "github.com/invsaas/backend/internal/application/coupon"
	subscriptionapp "github.com/invsaas/backend/internal/application/subscription"
	"github.com/invsaas/backend/internal/domain/subscription"
	"github.com/invsaas/backend/internal/infrastructure/auth"
	"github.com/invsaas/backend/internal/infrastructure/cache"
	"github.com/invsaas/backend/internal/infrastructure/config"
	"github.com/invsaas/backend/internal/infrastructure/event"
	"github.com/invsaas/backend/internal/infrastructure/logger"
	"github.com/invsaas/backend/internal/infrastructure/persistence"
	"github.com/invsaas/backend/internal/infrastructure/storage"
	"github.com/invsaas/backend/internal/infrastructure/telemetry"
	"github.com/invsaas/backend/internal/interfaces/http/handler"
	"github.com/invsaas/backend/internal/interfaces/http/middleware"
	"github.com/invsaas/backend/internal/interfaces/http/router"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// version is overridden at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting invsaas backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	ctx := context.Background()

	// Telemetry providers; both are no-ops when telemetry is disabled
	tracerProvider, err := telemetry.NewTracerProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	defer shutdownWithTimeout(log, "tracer provider", tracerProvider.Shutdown)

	meterProvider, err := telemetry.NewMeterProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	defer shutdownWithTimeout(log, "meter provider", meterProvider.Shutdown)

	couponMetrics, err := telemetry.NewCouponMetrics(meterProvider.Meter(telemetry.MeterName))
	if err != nil {
		log.Fatal("Failed to create coupon metrics", zap.Error(err))
	}

	// Create GORM logger backed by zap
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh),
	)

	db, err := persistence.NewDatabase(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	if err := telemetry.NewDBTracingPlugin(cfg.Telemetry, log).Register(db.DB); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}

	// Initialize repositories
	couponRepo := persistence.NewGormCouponRepository(db.DB)
	usageRepo := persistence.NewGormCouponUsageRepository(db.DB)
	purchaseRepo := persistence.NewGormPurchaseRepository(db.DB)
	txManager := persistence.NewTxManager(db.DB)

	couponCache, redisClient := cache.NewCouponCache(cfg.Redis, cfg.Coupon, log)
	if redisClient != nil {
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Error("Error closing Redis client", zap.Error(err))
			}
		}()
	}

	exportStorage, err := newExportStorage(ctx, &cfg.Storage, log)
	if err != nil {
		log.Fatal("Failed to initialize export storage", zap.Error(err))
	}

	catalog, err := buildCatalog(cfg.Billing)
	if err != nil {
		log.Fatal("Invalid plan catalog", zap.Error(err))
	}

	// Event bus: cache invalidation and redemption metrics run off coupon events
	eventBus := event.NewInMemoryEventBus(log)
	cacheHandler := couponapp.NewCacheInvalidationHandler(couponCache)
	eventBus.Subscribe(cacheHandler, cacheHandler.EventTypes()...)
	metricsHandler := couponapp.NewRedemptionMetricsHandler(couponMetrics)
	eventBus.Subscribe(metricsHandler, metricsHandler.EventTypes()...)
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// Application services
	adminService := couponapp.NewAdminService(couponRepo, usageRepo)
	adminService.SetEventPublisher(eventBus)
	adminService.SetExportStorage(exportStorage, cfg.Storage.ExportPrefix)

	redemptionService := couponapp.NewRedemptionService(couponRepo, usageRepo, txManager)
	redemptionService.SetCache(couponCache)
	redemptionService.SetEventPublisher(eventBus)
	redemptionService.SetCouponMetrics(couponMetrics)

	purchaseService := subscriptionapp.NewPurchaseService(catalog, purchaseRepo, redemptionService)

	// Handlers
	couponAdminHandler := handler.NewCouponAdminHandler(adminService)
	subscriptionHandler := handler.NewSubscriptionHandler(purchaseService)

	systemHandler := handler.NewSystemHandler(cfg.App.Name, version)
	systemHandler.AddCheck("database", handler.PingerFunc(func(context.Context) error {
		return db.Ping()
	}))
	if redisClient != nil {
		systemHandler.AddCheck("redis", handler.PingerFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}))
	}

	// Set Gin mode based on environment
	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup custom validator with json tag names
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("Invalid trusted proxies", zap.Error(err))
	}

	corsConfig := middleware.DefaultCORSConfig()
	if len(cfg.HTTP.CORSAllowOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	}
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}

	// Middleware order: request id first so every later layer can log it
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))
	engine.Use(middleware.SpanAttributes())
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(corsConfig))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Health endpoints outside the versioned API
	engine.GET("/health", systemHandler.Health)
	engine.GET("/ready", systemHandler.Ready)

	jwtService := auth.NewJWTService(cfg.JWT)
	jwtConfig := middleware.DefaultJWTConfig(jwtService)
	jwtConfig.Logger = log
	authn := middleware.JWTAuthMiddlewareWithConfig(jwtConfig)

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(router.CouponAdminRoutes(couponAdminHandler, authn)).
		Register(router.SubscriptionRoutes(subscriptionHandler, authn))
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
		return
	}

	log.Info("Server exited gracefully")
}

// buildCatalog turns the configured plan prices into the purchasable catalog
func buildCatalog(cfg config.BillingConfig) (*subscription.Catalog, error) {
	plans := make([]subscription.Plan, 0, len(cfg.Plans))
	for id, p := range cfg.Plans {
		price, err := decimal.NewFromString(p.Price)
		if err != nil {
			return nil, fmt.Errorf("billing.plans.%s.price: %w", id, err)
		}
		plans = append(plans, subscription.Plan{
			ID:       subscription.PlanID(id),
			Name:     p.Name,
			Price:    price,
			Currency: cfg.Currency,
		})
	}
	return subscription.NewCatalog(plans)
}

// newExportStorage returns S3 storage for usage exports, or the in-memory stub
// outside production
func newExportStorage(ctx context.Context, cfg *config.StorageConfig, log *zap.Logger) (couponapp.ObjectStorageService, error) {
	if cfg.Type != "s3" {
		log.Warn("Using in-memory stub storage for usage exports; download links are not served")
		return storage.NewStubObjectStorage(), nil
	}

	s3Storage, err := storage.NewS3ObjectStorage(cfg,
		storage.WithLogger(log),
		storage.WithPresignExpiration(cfg.PresignExpiration),
	)
	if err != nil {
		return nil, err
	}
	ensureCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := s3Storage.EnsureBucket(ensureCtx); err != nil {
		return nil, err
	}
	return s3Storage, nil
}

func shutdownWithTimeout(log *zap.Logger, name string, shutdown func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		log.Error("Error shutting down "+name, zap.Error(err))
	}
}
