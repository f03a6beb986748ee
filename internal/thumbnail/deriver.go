package thumbnail

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif" // Register GIF decoder
	"image/jpeg"
	_ "image/png" // Register PNG decoder
	"io"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog"

	"github.com/casalist/media-pipeline/internal/metrics"
	"github.com/casalist/media-pipeline/internal/storage"
	"github.com/casalist/media-pipeline/pkg/pipeline"
)

const jpegQuality = 85

// Deriver produces the configured thumbnail variants for one validated photo
// asset. Callers filter out video assets beforehand.
type Deriver struct {
	reader   storage.Reader
	writer   storage.Writer
	variants []pipeline.VariantSpec
	logger   zerolog.Logger
	metrics  *metrics.Metrics
}

// NewDeriver creates a thumbnail deriver for the given variant set. An empty
// variant set falls back to pipeline.DefaultVariants. metrics may be nil.
func NewDeriver(reader storage.Reader, writer storage.Writer, variants []pipeline.VariantSpec, logger zerolog.Logger, m *metrics.Metrics) *Deriver {
	if len(variants) == 0 {
		variants = pipeline.DefaultVariants
	}
	return &Deriver{reader: reader, writer: writer, variants: variants, logger: logger, metrics: m}
}

// Derive fetches the source bytes, decodes them once, and independently
// resizes, encodes and writes each variant. A read or decode failure aborts
// the whole asset; a single variant's encode/write failure is recorded as a
// warning and the remaining variants continue.
func (d *Deriver) Derive(ctx context.Context, asset pipeline.ValidatedAsset, listingID string) ([]pipeline.ThumbnailResult, []pipeline.VariantWarning, error) {
	data, err := d.download(ctx, asset.SourceKey)
	if err != nil {
		if d.metrics != nil {
			d.metrics.AssetFailures.Inc()
		}
		return nil, nil, err
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		if d.metrics != nil {
			d.metrics.AssetFailures.Inc()
		}
		return nil, nil, fmt.Errorf("failed to decode image %s: %w", asset.SourceKey, err)
	}

	bounds := img.Bounds()
	d.logger.Info().
		Str("key", asset.SourceKey).
		Str("format", format).
		Int("width", bounds.Dx()).
		Int("height", bounds.Dy()).
		Msg("processing photo")

	results := make([]pipeline.ThumbnailResult, 0, len(d.variants))
	var warnings []pipeline.VariantWarning

	for _, variant := range d.variants {
		result, err := d.persistVariant(ctx, asset.SourceKey, listingID, variant, img)
		if err != nil {
			d.logger.Error().
				Str("key", asset.SourceKey).
				Str("variant", variant.Name).
				Err(err).
				Msg("variant failed")
			if d.metrics != nil {
				d.metrics.VariantFailures.Inc()
			}
			warnings = append(warnings, pipeline.VariantWarning{
				SourceKey: asset.SourceKey,
				Variant:   variant.Name,
				Error:     err.Error(),
			})
			continue
		}
		if d.metrics != nil {
			d.metrics.ThumbnailsWritten.Inc()
		}
		results = append(results, result)
	}

	return results, warnings, nil
}

func (d *Deriver) download(ctx context.Context, key string) ([]byte, error) {
	rc, err := d.reader.GetReader(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", key, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return data, nil
}

func (d *Deriver) persistVariant(ctx context.Context, sourceKey, listingID string, variant pipeline.VariantSpec, img image.Image) (pipeline.ThumbnailResult, error) {
	// Contain semantics: fit inside the target box preserving aspect ratio.
	// Fit never enlarges, so images smaller than the box pass through at
	// their intrinsic size.
	resized := imaging.Fit(img, variant.Width, variant.Height, imaging.Lanczos)
	bounds := resized.Bounds()

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return pipeline.ThumbnailResult{}, fmt.Errorf("failed to encode %s variant: %w", variant.Name, err)
	}
	encodedLen := buf.Len()

	key := BuildKey(sourceKey, listingID, variant)
	meta := map[string]string{
		"original-key":   sourceKey,
		"thumbnail-size": variant.Name,
		"listing-id":     listingID,
	}
	if err := d.writer.Put(ctx, key, &buf, "image/jpeg", meta); err != nil {
		return pipeline.ThumbnailResult{}, fmt.Errorf("failed to upload %s variant: %w", variant.Name, err)
	}

	d.logger.Debug().
		Str("original_key", sourceKey).
		Str("target_key", key).
		Str("variant", variant.Name).
		Int("bytes", encodedLen).
		Msg("thumbnail written")

	return pipeline.ThumbnailResult{
		OriginalKey:  sourceKey,
		ThumbnailKey: key,
		Size:         variant.Name,
		Width:        bounds.Dx(),
		Height:       bounds.Dy(),
		Bytes:        encodedLen,
	}, nil
}
