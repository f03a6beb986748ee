package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/casalist/media-pipeline/internal/config"
	"github.com/casalist/media-pipeline/internal/handlers"
	"github.com/casalist/media-pipeline/internal/infra"
	"github.com/casalist/media-pipeline/internal/ingress"
	"github.com/casalist/media-pipeline/internal/metrics"
	"github.com/casalist/media-pipeline/internal/observability"
	"github.com/casalist/media-pipeline/internal/orchestration"
	"github.com/casalist/media-pipeline/internal/storage"
	"github.com/casalist/media-pipeline/internal/thumbnail"
	"github.com/casalist/media-pipeline/internal/validate"
)

// Production worker: S3 object storage, SQS ingress, Step Functions trigger.
func main() {
	cfg := config.Load()
	logger := infra.NewLogger(cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s3Store, err := storage.NewS3Store(ctx, storage.S3Config{
		Endpoint:  cfg.S3Endpoint,
		Region:    cfg.S3Region,
		Bucket:    cfg.S3Bucket,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		PathStyle: cfg.S3PathStyle,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize s3 storage")
	}
	store := storage.WithRetry(s3Store, cfg.RetryAttempts)

	m := metrics.New()

	inspector := validate.NewInspector(store, logger, m)
	validator := validate.NewBatchValidator(inspector, logger, m)
	deriver := thumbnail.NewDeriver(store, store, nil, logger, m)
	batchDeriver := thumbnail.NewBatchDeriver(deriver, logger)

	trigger, err := orchestration.NewSFNTrigger(ctx, cfg.StateMachineArn, cfg.S3Region)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize workflow trigger")
	}
	bridge := orchestration.NewBridge(trigger, logger, m)

	dumper := observability.NewDumper(store, logger)
	processor := ingress.NewProcessor(validator, bridge, dumper, logger)

	consumer, err := ingress.NewSQSConsumer(ctx, cfg.SQSQueueURL, cfg.S3Region, processor, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize sqs consumer")
	}

	go func() {
		if err := consumer.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Error().Err(err).Msg("sqs consumer stopped")
		}
	}()

	// Direct-invocation surface: the downstream workflow calls /v1/derive,
	// operators call /v1/validate. No bridge here, direct calls never signal.
	srv := handlers.NewServer(validator, batchDeriver, nil, nil, m, logger)
	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: srv.Router(),
	}

	go func() {
		logger.Info().Str("addr", cfg.HTTPAddr).Msg("pipeline worker listening")
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
