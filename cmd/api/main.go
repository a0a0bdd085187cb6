package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/samirrijal/agrosight/internal/adapters/classifier"
	"github.com/samirrijal/agrosight/internal/adapters/http"
	natsadapter "github.com/samirrijal/agrosight/internal/adapters/nats"
	"github.com/samirrijal/agrosight/internal/adapters/postgres"
	"github.com/samirrijal/agrosight/internal/adapters/processor"
	"github.com/samirrijal/agrosight/internal/adapters/temporal"
	"github.com/samirrijal/agrosight/internal/adapters/valkey"
	"github.com/samirrijal/agrosight/internal/core/ports"
	"github.com/samirrijal/agrosight/internal/core/usecases"
	"github.com/samirrijal/agrosight/internal/pkg/config"
	"github.com/samirrijal/agrosight/internal/pkg/logging"
	"github.com/samirrijal/agrosight/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("agrosight-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logging.Setup(logLevel, "json")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Database
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Cache and events are optional: without them analyses are neither cached nor announced.
	var cacheSvc ports.CacheService
	cache, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		slog.Warn("valkey unavailable", "error", err)
	} else {
		defer cache.Close()
		cacheSvc = cache
	}

	var events ports.EventPublisher
	publisher, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable", "error", err)
	} else {
		defer publisher.Close()
		events = publisher
	}

	// Raw NATS connection for the WebSocket analysis feed
	natsConn, err := natsadapter.RawConn(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats ws conn unavailable", "error", err)
	} else {
		defer natsConn.Close()
	}

	// Use cases
	ndviSvc := usecases.NewNDVIService(
		processor.New(cfg.NDVI.ProcessorURL, cfg.NDVI.RequestTimeout),
		postgres.NewAnalysisRepo(db),
		cacheSvc,
		events,
		usecases.NDVIOptions{
			MaxWindowDays: cfg.NDVI.MaxWindowDays,
			PointRadiusM:  cfg.NDVI.PointRadiusM,
			CacheTTL:      cfg.NDVI.CacheTTL,
		},
	)
	priceSvc := usecases.NewPriceService(postgres.NewPriceRepo(db), cacheSvc)
	diseaseSvc := usecases.NewDiseaseService(classifier.New(cfg.Classifier.URL, cfg.Classifier.Timeout))

	deps := &http.Dependencies{
		NDVI:    ndviSvc,
		Prices:  priceSvc,
		Disease: diseaseSvc,
		NATS:    natsConn,
		DB:      db,
		Cache:   cache,
		Session: http.SessionConfig{
			Endpoint: cfg.Client.Endpoint,
			Timeout:  cfg.Client.Timeout,
			Location: cfg.Client.Location(),
		},
	}

	// Background analyses
	tc, err := temporal.Dial(cfg.Temporal.HostPort, cfg.Temporal.Namespace)
	if err != nil {
		slog.Warn("temporal unavailable, analysis jobs disabled", "error", err)
	} else {
		defer tc.Close()
		runner := temporal.NewRunner(tc, cfg.Temporal.TaskQueue)
		deps.Jobs = usecases.NewJobService(ndviSvc, runner)
		deps.Temporal = runner
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    usecases.MaxImageBytes + 1024*1024, // leaf images plus multipart overhead
		AppName:      "AgroSight API",
	})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000, http://localhost:5173",
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	// Give in-flight requests up to 10s to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
