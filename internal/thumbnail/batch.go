package thumbnail

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/casalist/media-pipeline/pkg/pipeline"
)

// BatchDeriver runs the derivation stage over a batch's validated assets.
type BatchDeriver struct {
	deriver *Deriver
	logger  zerolog.Logger
}

// NewBatchDeriver creates a new batch deriver.
func NewBatchDeriver(deriver *Deriver, logger zerolog.Logger) *BatchDeriver {
	return &BatchDeriver{deriver: deriver, logger: logger}
}

// DeriveBatch filters the batch to photo assets and derives thumbnails for
// each in input order. A whole-asset failure is recorded and the remaining
// assets continue; the final status reports that the stage ran, not that every
// item succeeded.
func (b *BatchDeriver) DeriveBatch(ctx context.Context, req pipeline.DerivationRequest) (pipeline.DerivationReport, error) {
	if req.ValidAssets == nil {
		return pipeline.DerivationReport{}, fmt.Errorf(
			"%w: validAssets array is required", pipeline.ErrMalformedBatch,
		)
	}

	logger := b.logger.With().
		Str("batch_id", req.BatchID).
		Str("listing_id", req.ListingID).
		Logger()

	report := pipeline.DerivationReport{
		BatchID:     req.BatchID,
		ListingID:   req.ListingID,
		Traceparent: req.Traceparent,
		Thumbnails:  []pipeline.ThumbnailResult{},
	}

	photos := make([]pipeline.ValidatedAsset, 0, len(req.ValidAssets))
	for _, asset := range req.ValidAssets {
		if asset.Kind == pipeline.KindPhoto {
			photos = append(photos, asset)
		}
	}

	if len(photos) == 0 {
		logger.Info().Msg("no photo assets to process")
		report.Status = pipeline.StatusNoPhotosToProcess
		return report, nil
	}

	logger.Info().Int("photo_count", len(photos)).Msg("derivation started")

	for _, asset := range photos {
		results, warnings, err := b.deriver.Derive(ctx, asset, req.ListingID)
		if err != nil {
			logger.Error().Str("key", asset.SourceKey).Err(err).Msg("asset derivation failed")
			report.Errors = append(report.Errors, pipeline.DerivationError{
				SourceKey: asset.SourceKey,
				Error:     err.Error(),
			})
			continue
		}
		report.Thumbnails = append(report.Thumbnails, results...)
		report.Warnings = append(report.Warnings, warnings...)
	}

	report.Status = pipeline.StatusThumbnailsGenerated
	report.AssetsProcessed = len(photos)
	report.ThumbnailsGenerated = len(report.Thumbnails)

	logger.Info().
		Int("assets_processed", report.AssetsProcessed).
		Int("thumbnails_generated", report.ThumbnailsGenerated).
		Int("error_count", len(report.Errors)).
		Int("warning_count", len(report.Warnings)).
		Msg("derivation complete")

	return report, nil
}
