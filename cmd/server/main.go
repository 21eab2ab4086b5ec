package main

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	appinvoicing "github.com/travelagency/backoffice/internal/application/invoicing"
	"github.com/travelagency/backoffice/internal/domain/invoicing"
	"github.com/travelagency/backoffice/internal/domain/pricing"
	"github.com/travelagency/backoffice/internal/infrastructure/cache"
	"github.com/travelagency/backoffice/internal/infrastructure/config"
	"github.com/travelagency/backoffice/internal/infrastructure/directory"
	"github.com/travelagency/backoffice/internal/infrastructure/event"
	"github.com/travelagency/backoffice/internal/infrastructure/logger"
	"github.com/travelagency/backoffice/internal/infrastructure/migration"
	"github.com/travelagency/backoffice/internal/infrastructure/persistence"
	"github.com/travelagency/backoffice/internal/infrastructure/telemetry"
	"github.com/travelagency/backoffice/internal/interfaces/http/handler"
	"github.com/travelagency/backoffice/internal/interfaces/http/middleware"
	"github.com/travelagency/backoffice/internal/interfaces/http/router"
	"github.com/travelagency/backoffice/migrations"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

//	@title			Back-office Invoicing API
//	@version		1.0
//	@description	Invoice sessions, pricing and payment-term calculators for the travel back office

//	@host		localhost:8080
//	@BasePath	/api/v1

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
		Service:    cfg.App.Name,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	// Telemetry
	ctx := context.Background()
	telCfg := telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}
	tp, err := telemetry.NewTracerProvider(ctx, telCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	mp, err := telemetry.NewMeterProvider(ctx, telCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	lp, err := telemetry.NewLoggerProvider(ctx, telCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize logger provider", zap.Error(err))
	}
	log = lp.Bridge(log, zapcore.InfoLevel)
	defer shutdownTelemetry(log, tp, mp, lp)

	log.Info("Starting back-office invoicing service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Database
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected", zap.String("driver", cfg.Database.Driver))

	if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
		Enabled:  cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		DBSystem: persistence.System(&cfg.Database),
	}, log); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}

	if cfg.Database.AutoMigrate {
		if err := migrateSchema(cfg, db, log); err != nil {
			log.Fatal("Failed to migrate database", zap.Error(err))
		}
	}

	// Redis is optional: it backs the shared number counter and the commission cache
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedisClient(cfg.Redis)
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer func() { _ = redisClient.Close() }()
		log.Info("Redis connected", zap.String("host", cfg.Redis.Host))
	}

	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB)
	eventLogRepo := persistence.NewGormEventLogRepository(db.DB)

	allocator, err := newAllocator(cfg, db, redisClient)
	if err != nil {
		log.Fatal("Failed to create number allocator", zap.Error(err))
	}

	deps := appinvoicing.Dependencies{
		Allocator: allocator,
		Invoices:  invoiceRepo,
	}
	if err := wireDirectory(cfg, redisClient, log, &deps); err != nil {
		log.Fatal("Failed to create directory client", zap.Error(err))
	}

	// Every committed invoice lands in the event log
	eventBus := event.NewInMemoryEventBus(log)
	eventLogHandler := event.NewEventLogHandler(eventLogRepo, event.NewEventSerializer())
	eventBus.Subscribe(eventLogHandler, eventLogHandler.EventTypes()...)
	deps.Events = eventBus

	meter := mp.Meter(telemetry.TracerName)
	deps.Metrics, err = telemetry.NewInvoiceMetrics(meter)
	if err != nil {
		log.Fatal("Failed to create invoice metrics", zap.Error(err))
	}

	fallback, err := fallbackCommissions(cfg.Invoicing.FallbackCommissions)
	if err != nil {
		log.Fatal("Invalid fallback commissions", zap.Error(err))
	}

	sessions := appinvoicing.NewSessionStore(cfg.Invoicing.SessionTTL)
	defer func() { _ = sessions.Close() }()

	invoiceService := appinvoicing.NewService(deps, appinvoicing.Config{
		DefaultTaxRate:      cfg.Invoicing.DefaultTaxRate,
		DefaultLanguage:     cfg.Invoicing.DefaultLanguage,
		FallbackCommissions: fallback,
		CategoryLabels:      cfg.Invoicing.CategoryLabels,
		MaxNumberAttempts:   cfg.Invoicing.MaxNumberAttempts,
	}, sessions, log)

	// HTTP
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("Invalid trusted proxies", zap.Error(err))
	}

	httpMetrics, err := middleware.HTTPMetrics(meter)
	if err != nil {
		log.Fatal("Failed to create HTTP metrics", zap.Error(err))
	}
	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowOrigins = cfg.HTTP.CORSAllowOrigins

	engine.Use(
		logger.RequestID(),
		logger.Recovery(log),
		logger.GinMiddleware(log),
		middleware.TracingWithConfig(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     cfg.Telemetry.Enabled,
		}),
		middleware.TracingAttributeInjector(),
		middleware.SpanErrorMarker(),
		httpMetrics,
		middleware.Secure(),
		middleware.CORSWithConfig(corsCfg),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
	)

	engine.GET("/health", healthHandler(db))

	var writeLimit []gin.HandlerFunc
	if cfg.HTTP.RateLimitRPS > 0 {
		limiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRPS, cfg.HTTP.RateLimitBurst)
		defer limiter.Stop()
		writeLimit = append(writeLimit, middleware.RateLimit(limiter))
		log.Info("Session write rate limit enabled",
			zap.Float64("rps", cfg.HTTP.RateLimitRPS),
			zap.Int("burst", cfg.HTTP.RateLimitBurst),
		)
	}

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.RegisterInvoicing(router.InvoicingHandlers{
		Calculator:        handler.NewCalculatorHandler(invoiceService),
		Sessions:          handler.NewInvoiceSessionHandler(invoiceService),
		Invoices:          handler.NewInvoiceHandler(invoiceRepo, eventLogRepo),
		SessionMiddleware: []gin.HandlerFunc{middleware.SessionContext()},
		WriteMiddleware:   writeLimit,
	})
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr), zap.String("base_path", r.BasePath()))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
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

	log.Info("Server exited gracefully", zap.Int("open_sessions", sessions.Size()))
}

// migrateSchema brings the schema up to date. Postgres runs the embedded SQL
// migrations on a dedicated connection; sqlite is created from the models.
func migrateSchema(cfg *config.Config, db *persistence.Database, log *zap.Logger) error {
	if cfg.Database.Driver == "sqlite" {
		log.Info("Creating sqlite schema from models")
		return db.AutoMigrate()
	}

	sqlDB, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("open migration connection: %w", err)
	}
	m, err := migration.New(sqlDB, migrations.FS, log)
	if err != nil {
		_ = sqlDB.Close()
		return err
	}
	defer func() { _ = m.Close() }()
	return m.Up()
}

// newAllocator picks the invoice number allocator. The redis counter is
// seeded from stored invoices so that switching backends never reissues a number.
func newAllocator(cfg *config.Config, db *persistence.Database, client *redis.Client) (invoicing.NumberAllocator, error) {
	format := invoicing.NumberFormat{
		Prefix: cfg.Invoicing.NumberPrefix,
		Width:  cfg.Invoicing.NumberWidth,
		Max:    cfg.Invoicing.NumberMax,
	}
	if format.Max == 0 {
		format.Max = int64(math.Pow10(format.Width)) - 1
	}

	dbAllocator := persistence.NewGormNumberAllocator(db.DB, format)
	switch cfg.Invoicing.AllocatorBackend {
	case "db":
		return dbAllocator, nil
	case "redis":
		if client == nil {
			return nil, fmt.Errorf("allocator backend redis needs redis.enabled")
		}
		return cache.NewRedisNumberAllocator(client, cfg.Redis.KeyPrefix, format,
			cache.WithSequenceSeeder(dbAllocator),
		), nil
	default:
		return nil, fmt.Errorf("unknown allocator backend %q", cfg.Invoicing.AllocatorBackend)
	}
}

// wireDirectory connects the directory service when one is configured.
// Without it sessions run on the configured fallbacks.
func wireDirectory(cfg *config.Config, client *redis.Client, log *zap.Logger, deps *appinvoicing.Dependencies) error {
	if cfg.Directory.BaseURL == "" {
		log.Warn("No directory service configured, using fallback commissions and company defaults")
		return nil
	}
	dir, err := directory.NewClient(cfg.Directory)
	if err != nil {
		return err
	}

	opts := []cache.FactoryOption{cache.WithLogger(log), cache.WithInMemoryFallback(true)}
	if client != nil {
		opts = append(opts, cache.WithRedisClient(client))
	}
	commissions, err := cache.NewCommissionCacheFactory(cfg.Redis, opts...).Wrap(dir, cfg.Directory.CacheTTL)
	if err != nil {
		return err
	}

	deps.Commissions = commissions
	deps.Company = dir
	log.Info("Directory service configured",
		zap.String("base_url", cfg.Directory.BaseURL),
		zap.Duration("cache_ttl", cfg.Directory.CacheTTL),
	)
	return nil
}

func fallbackCommissions(entries []config.CommissionConfig) ([]pricing.CommissionOption, error) {
	options := make([]pricing.CommissionOption, 0, len(entries))
	for _, e := range entries {
		rate, err := decimal.NewFromString(e.Rate)
		if err != nil {
			return nil, fmt.Errorf("commission %q: %w", e.Name, err)
		}
		options = append(options, pricing.CommissionOption{Name: e.Name, Rate: rate, IsActive: e.IsActive()})
	}
	return options, nil
}

func shutdownTelemetry(log *zap.Logger, tp *telemetry.TracerProvider, mp *telemetry.MeterProvider, lp *telemetry.LoggerProvider) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := tp.Shutdown(ctx); err != nil {
		log.Warn("Tracer provider shutdown failed", zap.Error(err))
	}
	if err := mp.Shutdown(ctx); err != nil {
		log.Warn("Meter provider shutdown failed", zap.Error(err))
	}
	if err := lp.Shutdown(ctx); err != nil {
		log.Warn("Logger provider shutdown failed", zap.Error(err))
	}
}

// healthHandler reports whether the database answers, plus pool usage
func healthHandler(db *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		stats, err := db.Check(ctx)
		if err != nil {
			logger.GetGinLogger(c).Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
			"db_pool": gin.H{
				"open":    stats.OpenConnections,
				"in_use":  stats.InUse,
				"idle":    stats.Idle,
				"waiting": stats.WaitCount,
			},
		})
	}
}
