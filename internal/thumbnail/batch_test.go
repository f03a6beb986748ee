package thumbnail

import (
	"bytes"
	"context"
	"io"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casalist/media-pipeline/internal/storage"
	"github.com/casalist/media-pipeline/pkg/pipeline"
)

// countingReader counts GetReader calls on top of an inner store.
type countingReader struct {
	inner storage.Reader
	reads atomic.Int64
}

func (c *countingReader) GetReader(ctx context.Context, key string) (io.ReadCloser, error) {
	c.reads.Add(1)
	return c.inner.GetReader(ctx, key)
}

func videoAsset(key string) pipeline.ValidatedAsset {
	return pipeline.ValidatedAsset{RawKey: key, SourceKey: key, Kind: pipeline.KindVideo}
}

func TestDeriveBatchMalformed(t *testing.T) {
	store := storage.NewMemoryStore()
	b := NewBatchDeriver(NewDeriver(store, store, nil, zerolog.Nop(), nil), zerolog.Nop())

	_, err := b.DeriveBatch(context.Background(), pipeline.DerivationRequest{
		BatchID:   "B1",
		ListingID: "L1",
	})
	assert.ErrorIs(t, err, pipeline.ErrMalformedBatch)
}

func TestDeriveBatchNoPhotos(t *testing.T) {
	store := storage.NewMemoryStore()
	reader := &countingReader{inner: store}
	b := NewBatchDeriver(NewDeriver(reader, store, nil, zerolog.Nop(), nil), zerolog.Nop())

	report, err := b.DeriveBatch(context.Background(), pipeline.DerivationRequest{
		BatchID:   "B1",
		ListingID: "L1",
		ValidAssets: []pipeline.ValidatedAsset{
			videoAsset("L1/raw/video/a.mp4"),
			videoAsset("L1/raw/video/b.mp4"),
		},
	})
	require.NoError(t, err)

	assert.Equal(t, pipeline.StatusNoPhotosToProcess, report.Status)
	assert.Empty(t, report.Thumbnails)
	assert.Zero(t, report.AssetsProcessed)
	assert.Equal(t, int64(0), reader.reads.Load(), "no storage reads for an empty photo filter")
}

func TestDeriveBatchEmptyAssets(t *testing.T) {
	store := storage.NewMemoryStore()
	b := NewBatchDeriver(NewDeriver(store, store, nil, zerolog.Nop(), nil), zerolog.Nop())

	report, err := b.DeriveBatch(context.Background(), pipeline.DerivationRequest{
		BatchID:     "B1",
		ListingID:   "L1",
		ValidAssets: []pipeline.ValidatedAsset{},
	})
	require.NoError(t, err)
	assert.Equal(t, pipeline.StatusNoPhotosToProcess, report.Status)
}

func TestDeriveBatchMixedOutcomes(t *testing.T) {
	store := storage.NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "L1/raw/photo/good.jpg", bytes.NewReader(testJPEG(t, 1600, 1200)), "image/jpeg", nil))
	// bad.jpg is absent: whole-asset read failure.

	b := NewBatchDeriver(NewDeriver(store, store, nil, zerolog.Nop(), nil), zerolog.Nop())
	report, err := b.DeriveBatch(ctx, pipeline.DerivationRequest{
		BatchID:   "B1",
		ListingID: "L1",
		ValidAssets: []pipeline.ValidatedAsset{
			photoAsset("L1/raw/photo/bad.jpg"),
			photoAsset("L1/raw/photo/good.jpg"),
			videoAsset("L1/raw/video/v.mp4"),
		},
	})
	require.NoError(t, err)

	// The stage ran: status does not report per-item failures.
	assert.Equal(t, pipeline.StatusThumbnailsGenerated, report.Status)
	assert.Equal(t, 2, report.AssetsProcessed)
	assert.Equal(t, 3, report.ThumbnailsGenerated)
	assert.Len(t, report.Thumbnails, 3)

	require.Len(t, report.Errors, 1)
	assert.Equal(t, "L1/raw/photo/bad.jpg", report.Errors[0].SourceKey)
}

func TestDeriveBatchVariantWarningSurfaced(t *testing.T) {
	store := storage.NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "L1/raw/photo/a.jpg", bytes.NewReader(testJPEG(t, 1600, 1200)), "image/jpeg", nil))

	writer := &failingWriter{inner: store, marker: "/medium/"}
	b := NewBatchDeriver(NewDeriver(store, writer, nil, zerolog.Nop(), nil), zerolog.Nop())

	report, err := b.DeriveBatch(ctx, pipeline.DerivationRequest{
		BatchID:     "B1",
		ListingID:   "L1",
		ValidAssets: []pipeline.ValidatedAsset{photoAsset("L1/raw/photo/a.jpg")},
	})
	require.NoError(t, err)

	// Variant loss stays below asset granularity: two thumbnails, no
	// asset-level error, one structured warning.
	assert.Equal(t, pipeline.StatusThumbnailsGenerated, report.Status)
	assert.Len(t, report.Thumbnails, 2)
	assert.Empty(t, report.Errors)
	require.Len(t, report.Warnings, 1)
	assert.Equal(t, "medium", report.Warnings[0].Variant)
}
