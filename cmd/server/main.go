// Package main wires the transaction core together and serves its API.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"corebank/internal/config"
	"corebank/internal/handlers"
	"corebank/internal/metrics"
	"corebank/internal/repositories"
	"corebank/internal/repositories/cache"
	"corebank/internal/services/anomaly"
	"corebank/internal/services/audit"
	"corebank/internal/services/fraud"
	"corebank/internal/services/ledger"
	"corebank/internal/services/notification"
	"corebank/internal/services/risk"
	"corebank/internal/services/rules"
	"corebank/internal/services/transaction"
	"corebank/internal/services/velocity"
)

const anomalyMinObservations = 30

func main() {
	config.LoadEnv()

	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	db, err := repositories.OpenDB(cfg.Database.DSN)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("failed to get database handle", zap.Error(err))
	}
	defer sqlDB.Close()

	redisClient := cache.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	defer redisClient.Close()
	redisCache := cache.NewRedisCache(redisClient)

	registry := prometheus.NewRegistry()
	collector := metrics.NewPrometheusCollector(registry)

	var auditor audit.Logger = audit.NoopLogger{}
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaLogger := audit.NewKafkaLogger(cfg.Kafka.Brokers, cfg.Kafka.AuditTopic, logger)
		defer kafkaLogger.Close()
		auditor = kafkaLogger
	}

	accountRepo := repositories.NewAccountRepository(db)
	txRepo := repositories.NewTransactionRepository(db)

	notifier := notification.NewService(logger)

	velocityCache := velocity.NewCache(cfg.Velocity.Window, cfg.Velocity.MaxEntries, cfg.Velocity.SweepInterval)
	defer velocityCache.Close()

	fraudEngine := fraud.NewEngine(cfg.Fraud, velocityCache, anomaly.NewStatScorer(anomalyMinObservations), logger, collector)
	defer fraudEngine.Close()

	riskService := risk.NewService(cfg.Risk, logger)
	rulesEngine := rules.NewEngine(cfg.Limits, cfg.Fees, txRepo, logger)
	ledgerService := ledger.NewService(accountRepo, notifier, logger)

	txService := transaction.NewService(
		txRepo,
		ledgerService,
		rulesEngine,
		fraudEngine,
		notifier,
		auditor,
		logger,
		collector,
	)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			logger.Error("unhandled request error", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
		},
	})
	app.Use(recover.New())
	app.Use(cors.New())

	handlers.SetupRoutes(app,
		handlers.NewTransactionHandler(txService, redisCache, logger),
		handlers.NewRiskHandler(riskService),
		handlers.NewHealthHandler(db, redisCache),
	)

	// Metrics are served on their own listener so the scrape endpoint
	// stays up even when the API is saturated.
	metricsServer := &http.Server{
		Addr:    ":" + cfg.Server.MetricsPort,
		Handler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server stopped", zap.Error(err))
		}
	}()

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := app.Listen(":" + cfg.Server.Port); err != nil {
			logger.Fatal("server stopped", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown failed", zap.Error(err))
	}
}
