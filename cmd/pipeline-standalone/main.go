package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/casalist/media-pipeline/internal/config"
	"github.com/casalist/media-pipeline/internal/dbosruntime"
	"github.com/casalist/media-pipeline/internal/handlers"
	"github.com/casalist/media-pipeline/internal/infra"
	"github.com/casalist/media-pipeline/internal/metrics"
	"github.com/casalist/media-pipeline/internal/orchestration"
	"github.com/casalist/media-pipeline/internal/storage"
	"github.com/casalist/media-pipeline/internal/thumbnail"
	"github.com/casalist/media-pipeline/internal/validate"
)

// Standalone pipeline server for local development: filesystem or in-memory
// storage, direct-invocation HTTP, and an optional DBOS-backed local trigger
// that runs the full validate→derive flow durably.
func main() {
	cfg := config.Load()
	logger := infra.NewLogger(cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var store storage.ObjectStore
	switch cfg.StorageBackend {
	case "memory":
		store = storage.NewMemoryStore()
	default:
		fsStore, err := storage.NewFilesystemStore(cfg.StorageDir)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to initialize filesystem storage")
		}
		store = fsStore
	}
	logger.Info().Str("backend", cfg.StorageBackend).Str("dir", cfg.StorageDir).Msg("storage ready")

	m := metrics.New()

	inspector := validate.NewInspector(store, logger, m)
	validator := validate.NewBatchValidator(inspector, logger, m)
	deriver := thumbnail.NewDeriver(store, store, nil, logger, m)
	batchDeriver := thumbnail.NewBatchDeriver(deriver, logger)

	// With a DBOS database configured, /v1/process enqueues durable batch
	// workflows; without one only the direct endpoints are served.
	var (
		bridge  *orchestration.Bridge
		runtime *dbosruntime.Runtime
	)
	if cfg.DBOSDatabaseURL != "" {
		var err error
		runtime, err = dbosruntime.NewRuntime(ctx, dbosruntime.Config{
			DatabaseURL: cfg.DBOSDatabaseURL,
			AppName:     "pipeline-standalone",
			QueueName:   cfg.DBOSQueueName,
			Concurrency: cfg.DBOSConcurrency,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to initialize dbos runtime")
		}

		trigger := orchestration.NewLocalTrigger(runtime, validator, batchDeriver, logger)
		bridge = orchestration.NewBridge(trigger, logger, m)

		if err := runtime.Launch(); err != nil {
			logger.Fatal().Err(err).Msg("failed to launch dbos runtime")
		}
		defer runtime.Shutdown(10 * time.Second)
		logger.Info().Str("queue", runtime.QueueName()).Int("concurrency", runtime.Concurrency()).Msg("dbos runtime ready")
	}

	srv := handlers.NewServer(validator, batchDeriver, bridge, runtime, m, logger)
	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: srv.Router(),
	}

	go func() {
		logger.Info().Str("addr", cfg.HTTPAddr).Msg("pipeline standalone listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("forced shutdown")
	}
}
