package validate

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/casalist/media-pipeline/internal/metrics"
	"github.com/casalist/media-pipeline/internal/storage"
	"github.com/casalist/media-pipeline/pkg/pipeline"
)

// Inspector confirms a single raw asset is present in object storage and
// classifies it by key structure.
type Inspector struct {
	store   storage.MetadataReader
	logger  zerolog.Logger
	metrics *metrics.Metrics
}

// NewInspector creates a new asset inspector. metrics may be nil.
func NewInspector(store storage.MetadataReader, logger zerolog.Logger, m *metrics.Metrics) *Inspector {
	return &Inspector{store: store, logger: logger, metrics: m}
}

// Inspect performs the read-only metadata lookup for one asset key. Any
// lookup failure (missing object, transient storage error) is returned as a
// single error; classification is purely path-based.
func (i *Inspector) Inspect(ctx context.Context, key string) (pipeline.ValidatedAsset, error) {
	md, err := i.store.GetMetadata(ctx, key)
	if err != nil {
		if i.metrics != nil {
			i.metrics.AssetsInspected.WithLabelValues("error").Inc()
		}
		return pipeline.ValidatedAsset{}, fmt.Errorf("metadata lookup failed for %s: %w", key, err)
	}

	if i.metrics != nil {
		i.metrics.AssetsInspected.WithLabelValues("ok").Inc()
	}

	asset := pipeline.ValidatedAsset{
		RawKey:      key,
		SourceKey:   key,
		Kind:        pipeline.KindForKey(key),
		Size:        md.Size,
		ContentType: md.ContentType,
		ETag:        md.ETag,
	}

	i.logger.Debug().
		Str("key", key).
		Str("asset_type", string(asset.Kind)).
		Int64("size", asset.Size).
		Msg("asset valid")

	return asset, nil
}
