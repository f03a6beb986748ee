package validate

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/casalist/media-pipeline/internal/metrics"
	"github.com/casalist/media-pipeline/pkg/pipeline"
)

// BatchValidator runs the validation stage: every asset key of a batch is
// inspected in input order and the outcomes are aggregated into a single
// report with per-item partial failure.
type BatchValidator struct {
	inspector *Inspector
	logger    zerolog.Logger
	metrics   *metrics.Metrics
}

// NewBatchValidator creates a new batch validator. metrics may be nil.
func NewBatchValidator(inspector *Inspector, logger zerolog.Logger, m *metrics.Metrics) *BatchValidator {
	return &BatchValidator{inspector: inspector, logger: logger, metrics: m}
}

// Validate inspects every asset of the batch. A structurally invalid payload
// fails fast with pipeline.ErrMalformedBatch and no partial report; a failing
// asset never aborts the loop, it is recorded and the remaining keys continue.
func (v *BatchValidator) Validate(ctx context.Context, payload pipeline.BatchPayload) (pipeline.ValidationReport, error) {
	if payload.BatchID == "" || payload.ListingID == "" || len(payload.Assets) == 0 {
		return pipeline.ValidationReport{}, fmt.Errorf(
			"%w: batchId, listingId and a non-empty assets array are required",
			pipeline.ErrMalformedBatch,
		)
	}

	logger := v.logger.With().
		Str("batch_id", payload.BatchID).
		Str("listing_id", payload.ListingID).
		Logger()
	logger.Info().Int("input_assets_count", len(payload.Assets)).Msg("validation started")

	report := pipeline.ValidationReport{
		BatchID:     payload.BatchID,
		ListingID:   payload.ListingID,
		Traceparent: payload.Traceparent,
		ValidAssets: make([]pipeline.ValidatedAsset, 0, len(payload.Assets)),
	}

	for _, key := range payload.Assets {
		asset, err := v.inspector.Inspect(ctx, key)
		if err != nil {
			logger.Error().Str("key", key).Err(err).Msg("asset validation failed")
			report.Errors = append(report.Errors, pipeline.ValidationError{
				SourceKey: key,
				Error:     err.Error(),
			})
			continue
		}
		report.ValidAssets = append(report.ValidAssets, asset)
		if asset.Kind == pipeline.KindVideo {
			report.HasVideos = true
		}
	}

	report.AssetsValidated = len(report.ValidAssets)
	report.Status = pipeline.StatusValidated
	if len(report.Errors) > 0 {
		report.Status = pipeline.StatusValidationFailed
	}

	if v.metrics != nil {
		v.metrics.BatchesValidated.WithLabelValues(report.Status).Inc()
	}

	logger.Info().
		Str("status", report.Status).
		Int("valid_count", report.AssetsValidated).
		Int("error_count", len(report.Errors)).
		Bool("has_videos", report.HasVideos).
		Msg("validation complete")

	return report, nil
}
