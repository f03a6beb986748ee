package validate

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casalist/media-pipeline/internal/storage"
	"github.com/casalist/media-pipeline/pkg/pipeline"
)

func newValidator(store storage.MetadataReader) *BatchValidator {
	inspector := NewInspector(store, zerolog.Nop(), nil)
	return NewBatchValidator(inspector, zerolog.Nop(), nil)
}

func TestValidateMalformedBatch(t *testing.T) {
	v := newValidator(storage.NewMemoryStore())

	tests := []struct {
		name    string
		payload pipeline.BatchPayload
	}{
		{"missing batch id", pipeline.BatchPayload{ListingID: "L1", Assets: []string{"a.jpg"}}},
		{"missing listing id", pipeline.BatchPayload{BatchID: "B1", Assets: []string{"a.jpg"}}},
		{"nil assets", pipeline.BatchPayload{BatchID: "B1", ListingID: "L1"}},
		{"empty assets", pipeline.BatchPayload{BatchID: "B1", ListingID: "L1", Assets: []string{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Validate(context.Background(), tt.payload)
			assert.ErrorIs(t, err, pipeline.ErrMalformedBatch)
		})
	}
}

func TestValidatePartialFailure(t *testing.T) {
	store := storage.NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "L1/raw/photo/a.jpg", bytes.NewReader(make([]byte, 200*1024)), "image/jpeg", nil))
	require.NoError(t, store.Put(ctx, "L1/raw/video/b.mp4", strings.NewReader("video-bytes"), "video/mp4", nil))

	v := newValidator(store)
	report, err := v.Validate(ctx, pipeline.BatchPayload{
		BatchID:   "B1",
		ListingID: "L1",
		Assets:    []string{"L1/raw/photo/a.jpg", "L1/raw/video/b.mp4", "missing.jpg"},
	})
	require.NoError(t, err)

	assert.Equal(t, pipeline.StatusValidationFailed, report.Status)
	assert.True(t, report.HasVideos)
	assert.Equal(t, 2, report.AssetsValidated)

	require.Len(t, report.ValidAssets, 2)
	assert.Equal(t, "L1/raw/photo/a.jpg", report.ValidAssets[0].SourceKey)
	assert.Equal(t, pipeline.KindPhoto, report.ValidAssets[0].Kind)
	assert.Equal(t, int64(200*1024), report.ValidAssets[0].Size)
	assert.Equal(t, "L1/raw/video/b.mp4", report.ValidAssets[1].SourceKey)
	assert.Equal(t, pipeline.KindVideo, report.ValidAssets[1].Kind)

	require.Len(t, report.Errors, 1)
	assert.Equal(t, "missing.jpg", report.Errors[0].SourceKey)
	assert.NotEmpty(t, report.Errors[0].Error)
}

func TestValidateCleanBatch(t *testing.T) {
	store := storage.NewMemoryStore()
	ctx := context.Background()

	keys := []string{"L1/raw/photo/a.jpg", "L1/raw/photo/b.jpg", "L1/raw/photo/c.jpg"}
	for _, key := range keys {
		require.NoError(t, store.Put(ctx, key, strings.NewReader("img"), "image/jpeg", nil))
	}

	v := newValidator(store)
	report, err := v.Validate(ctx, pipeline.BatchPayload{
		BatchID:     "B2",
		ListingID:   "L1",
		Assets:      keys,
		Traceparent: "00-abc-def-01",
	})
	require.NoError(t, err)

	assert.Equal(t, pipeline.StatusValidated, report.Status)
	assert.Empty(t, report.Errors)
	assert.False(t, report.HasVideos)
	assert.Equal(t, "00-abc-def-01", report.Traceparent)

	// One outcome per input key, in input order.
	require.Len(t, report.ValidAssets, len(keys))
	for i, key := range keys {
		assert.Equal(t, key, report.ValidAssets[i].SourceKey)
		assert.Equal(t, key, report.ValidAssets[i].RawKey)
	}
}

func TestValidateStatusMatchesErrors(t *testing.T) {
	store := storage.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, "L1/raw/photo/a.jpg", strings.NewReader("img"), "image/jpeg", nil))

	v := newValidator(store)

	clean, err := v.Validate(ctx, pipeline.BatchPayload{
		BatchID: "B1", ListingID: "L1", Assets: []string{"L1/raw/photo/a.jpg"},
	})
	require.NoError(t, err)
	assert.Equal(t, pipeline.StatusValidated, clean.Status)
	assert.Empty(t, clean.Errors)

	failed, err := v.Validate(ctx, pipeline.BatchPayload{
		BatchID: "B1", ListingID: "L1", Assets: []string{"nope.jpg"},
	})
	require.NoError(t, err)
	assert.Equal(t, pipeline.StatusValidationFailed, failed.Status)
	assert.NotEmpty(t, failed.Errors)
}

func TestValidateVideoOnlyFailureDoesNotSetHasVideos(t *testing.T) {
	v := newValidator(storage.NewMemoryStore())

	report, err := v.Validate(context.Background(), pipeline.BatchPayload{
		BatchID: "B1", ListingID: "L1", Assets: []string{"L1/raw/video/b.mp4"},
	})
	require.NoError(t, err)

	// hasVideos is computed over validated assets only.
	assert.False(t, report.HasVideos)
	assert.Equal(t, pipeline.StatusValidationFailed, report.Status)
}
