package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/fleetsight/fleetsight/internal/adapter/cache"
	"github.com/fleetsight/fleetsight/internal/adapter/http/fiber/handlers"
	"github.com/fleetsight/fleetsight/internal/adapter/http/fiber/middleware"
	"github.com/fleetsight/fleetsight/internal/adapter/queue"
	"github.com/fleetsight/fleetsight/internal/adapter/storage/postgres"
	"github.com/fleetsight/fleetsight/internal/adapter/vault"
	"github.com/fleetsight/fleetsight/internal/domain"
	"github.com/fleetsight/fleetsight/internal/observability/telemetry"
	"github.com/fleetsight/fleetsight/internal/ports"
	"github.com/fleetsight/fleetsight/internal/render"
	"github.com/fleetsight/fleetsight/internal/service/dispatch"
	"github.com/fleetsight/fleetsight/internal/service/email"
	"github.com/fleetsight/fleetsight/internal/service/health"
	"github.com/fleetsight/fleetsight/internal/service/metrics"
	"github.com/fleetsight/fleetsight/internal/service/ranking"
	"github.com/fleetsight/fleetsight/internal/service/report"
	"github.com/fleetsight/fleetsight/internal/service/trend"
	"github.com/fleetsight/fleetsight/pkg/config"
)

const serviceName = "fleetsight"

func main() {
	// 1. Initialize Logger
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer logger.Sync()

	// 2. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}
	logger = buildLogger(cfg.Logging, logger)
	defer logger.Sync() // the defer above bound the bootstrap logger

	logger.Info("Starting Fleetsight",
		zap.String("service", serviceName),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	// 3. Resolve Secrets from Vault (optional)
	if cfg.Vault.Enabled {
		resolveSecrets(cfg, logger)
	}

	// 4. Initialize OpenTelemetry (Distributed Tracing)
	if cfg.OpenTelemetry.Enabled {
		tracerProvider, err := telemetry.InitTracer(cfg.OpenTelemetry.ServiceName, cfg.OpenTelemetry.Jaeger.Endpoint)
		if err != nil {
			logger.Fatal("Failed to initialize tracer", zap.Error(err))
		}
		defer func() {
			if err := tracerProvider.Shutdown(context.Background()); err != nil {
				logger.Error("Error shutting down tracer provider", zap.Error(err))
			}
		}()
	}

	// 5. Initialize PostgreSQL Connection Pool
	db, err := postgres.NewConnection(cfg.Database.URL, postgres.Options{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		LogQueries:      cfg.Database.LogQueries,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("Failed to get underlying SQL DB", zap.Error(err))
	}
	defer sqlDB.Close()

	if cfg.Database.AutoMigrate {
		if err := postgres.RunMigrations(db); err != nil {
			logger.Fatal("Failed to run migrations", zap.Error(err))
		}
	}

	// 6. Initialize Preview Cache (local or Redis)
	var previewCache ports.Cache
	switch cfg.Cache.Driver {
	case "redis":
		previewCache, err = cache.NewRedisCache(cfg.Redis.URL, logger)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
	default:
		previewCache = cache.NewLocalCache(cfg.Cache.CleanupInterval, logger)
	}
	defer previewCache.Close()

	// 7. Initialize Message Queue (NATS or RabbitMQ)
	messageQueue, err := queue.New(cfg.Queue.Driver, cfg.Queue.URL, logger)
	if err != nil {
		logger.Fatal("Failed to connect to message queue", zap.Error(err))
	}
	defer messageQueue.Close()

	// 8. Initialize Repositories
	periodRepo := postgres.NewPeriodRecordRepository(db, logger)
	archiveRepo := postgres.NewReportArchiveRepository(db, logger)

	// 9. Initialize Services (Business Logic Layer)
	calculator := metrics.NewCalculator(logger)
	ranker := ranking.NewEngine(logger)
	analyzer := trend.NewAnalyzer(domain.DefaultTargets(), logger)
	composer := report.NewComposer(calculator, ranker, analyzer)

	renderer := render.New(cfg.Render, logger)

	emailService, err := email.NewService(&cfg.Email, logger)
	if err != nil {
		logger.Fatal("Failed to initialize email service", zap.Error(err))
	}

	reportService := report.NewService(periodRepo, archiveRepo, composer, renderer, previewCache, messageQueue, cfg.Report, logger)

	// 10. Initialize Health Service
	healthCfg := &health.Config{
		Version: cfg.App.Version,
		DB:      sqlDB,
	}
	if rc, ok := previewCache.(*cache.RedisCache); ok {
		healthCfg.Redis = rc.Client()
	}
	if cc, ok := messageQueue.(health.ConnChecker); ok {
		healthCfg.Queue = cc
	}
	healthService := health.NewService(healthCfg, logger)

	// 11. Start the Dispatch Worker
	worker := dispatch.NewWorker(reportService, emailService, logger)
	if err := worker.Start(messageQueue); err != nil {
		logger.Fatal("Failed to start dispatch worker", zap.Error(err))
	}

	// 12. Initialize Fiber HTTP Server
	app := fiber.New(fiber.Config{
		AppName:               serviceName,
		ServerHeader:          serviceName,
		DisableStartupMessage: true,
		ReadTimeout:           cfg.HTTP.ReadTimeout,
		WriteTimeout:          cfg.HTTP.WriteTimeout,
		IdleTimeout:           cfg.HTTP.IdleTimeout,
		BodyLimit:             cfg.HTTP.BodyLimit,
		ErrorHandler:          middleware.ErrorHandler(logger),
	})

	// Global Middleware
	app.Use(recover.New())
	app.Use(fiberlogger.New())
	if cfg.CORS.Enabled {
		app.Use(middleware.NewCORS(cfg.CORS))
	}
	app.Use(middleware.Metrics())

	// Health Check Endpoints
	healthHandler := health.NewFiberHandler(healthService)
	healthHandler.RegisterRoutes(app)

	// Metrics endpoint for Prometheus
	if cfg.Prometheus.Enabled {
		app.Get(cfg.Prometheus.Path, func(c *fiber.Ctx) error {
			handler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
			handler(c.Context())
			return nil
		})
	}

	// API v1 Routes
	v1 := app.Group("/api/v1")

	reportHandler := handlers.NewReportHandler(reportService, logger)
	v1.Post("/reports/preview", reportHandler.Preview)
	v1.Post("/reports/generate", reportHandler.Generate)
	v1.Post("/reports/dispatch", reportHandler.Dispatch)
	v1.Get("/reports", reportHandler.List)
	v1.Get("/drivers/:name/metrics", reportHandler.DriverMetrics)

	// 13. Start HTTP Server
	go func() {
		logger.Info("Starting HTTP Server", zap.Int("port", cfg.HTTP.Port))
		if err := app.Listen(fmt.Sprintf(":%d", cfg.HTTP.Port)); err != nil {
			logger.Fatal("HTTP Server failed", zap.Error(err))
		}
	}()

	// 14. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited gracefully")
}

// buildLogger applies the configured level and format. The bootstrap
// logger is returned unchanged when the config cannot be applied.
func buildLogger(cfg config.LoggingConfig, fallback *zap.Logger) *zap.Logger {
	zc := zap.NewProductionConfig()
	if cfg.Format == "console" {
		zc = zap.NewDevelopmentConfig()
	}
	if cfg.Level != "" {
		lvl, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return fallback
		}
		zc.Level = zap.NewAtomicLevelAt(lvl)
	}
	logger, err := zc.Build()
	if err != nil {
		return fallback
	}
	return logger
}

// resolveSecrets overrides config values with secrets from Vault.
// Missing secrets fall back to whatever the config file provided.
func resolveSecrets(cfg *config.Config, logger *zap.Logger) {
	secrets, err := vault.NewSecretManager(cfg.Vault.Address, cfg.Vault.Token)
	if err != nil {
		logger.Fatal("Failed to connect to Vault", zap.Error(err))
	}

	if dsn, err := secrets.GetDatabaseURL(); err != nil {
		logger.Warn("Vault database secret unavailable", zap.Error(err))
	} else {
		cfg.Database.URL = dsn
	}

	switch cfg.Email.Provider {
	case "sendgrid":
		if key, err := secrets.GetSendGridAPIKey(); err != nil {
			logger.Warn("Vault SendGrid secret unavailable", zap.Error(err))
		} else {
			cfg.Email.SendGridAPIKey = key
		}
	case "smtp":
		if pw, err := secrets.GetSMTPPassword(); err != nil {
			logger.Warn("Vault SMTP secret unavailable", zap.Error(err))
		} else {
			cfg.Email.SMTPPassword = pw
		}
	}
}
