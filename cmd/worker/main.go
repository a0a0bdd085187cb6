package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"go.temporal.io/sdk/worker"

	natsadapter "github.com/samirrijal/agrosight/internal/adapters/nats"
	"github.com/samirrijal/agrosight/internal/adapters/postgres"
	"github.com/samirrijal/agrosight/internal/adapters/processor"
	"github.com/samirrijal/agrosight/internal/adapters/temporal"
	"github.com/samirrijal/agrosight/internal/core/ports"
	"github.com/samirrijal/agrosight/internal/core/usecases"
	"github.com/samirrijal/agrosight/internal/pkg/config"
	"github.com/samirrijal/agrosight/internal/pkg/logging"
	"github.com/samirrijal/agrosight/internal/pkg/telemetry"
	"github.com/samirrijal/agrosight/internal/workflows"
)

func main() {
	cfg, err := config.Load("agrosight-worker")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(os.Getenv("LOG_LEVEL"), "json")

	ctx := context.Background()
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	var events ports.EventPublisher
	publisher, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable, outcomes will not be published", "error", err)
	} else {
		defer publisher.Close()
		events = publisher
	}

	// Jobs bypass the cache: a background analysis always asks the processor.
	ndvi := usecases.NewNDVIService(
		processor.New(cfg.NDVI.ProcessorURL, cfg.NDVI.RequestTimeout),
		postgres.NewAnalysisRepo(db),
		nil,
		events,
		usecases.NDVIOptions{
			MaxWindowDays: cfg.NDVI.MaxWindowDays,
			PointRadiusM:  cfg.NDVI.PointRadiusM,
		},
	)

	c, err := temporal.Dial(cfg.Temporal.HostPort, cfg.Temporal.Namespace)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer c.Close()

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})
	w.RegisterWorkflow(workflows.NDVIAnalysisWorkflow)
	w.RegisterActivity(&workflows.Activities{NDVI: ndvi})

	slog.Info("ndvi worker started", "task_queue", cfg.Temporal.TaskQueue)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}
