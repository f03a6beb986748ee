package validate

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casalist/media-pipeline/internal/storage"
	"github.com/casalist/media-pipeline/pkg/pipeline"
)

func TestInspectClassification(t *testing.T) {
	store := storage.NewMemoryStore()
	ctx := context.Background()

	tests := []struct {
		key  string
		kind pipeline.AssetKind
	}{
		{"L1/raw/photo/a.jpg", pipeline.KindPhoto},
		{"L1/raw/video/b.mp4", pipeline.KindVideo},
		// Path structure decides, not the extension.
		{"L1/raw/photo/clip.mp4", pipeline.KindPhoto},
		{"L1/raw/video/frame.jpg", pipeline.KindVideo},
		{"video-of-house.jpg", pipeline.KindPhoto},
	}

	inspector := NewInspector(store, zerolog.Nop(), nil)

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			require.NoError(t, store.Put(ctx, tt.key, strings.NewReader("data"), "application/octet-stream", nil))

			asset, err := inspector.Inspect(ctx, tt.key)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, asset.Kind)
			assert.Equal(t, tt.key, asset.RawKey)
			assert.Equal(t, tt.key, asset.SourceKey)
		})
	}
}

func TestInspectMetadata(t *testing.T) {
	store := storage.NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "L1/raw/photo/a.jpg", strings.NewReader("12345"), "image/jpeg", nil))

	inspector := NewInspector(store, zerolog.Nop(), nil)
	asset, err := inspector.Inspect(ctx, "L1/raw/photo/a.jpg")
	require.NoError(t, err)

	assert.Equal(t, int64(5), asset.Size)
	assert.Equal(t, "image/jpeg", asset.ContentType)
	assert.NotEmpty(t, asset.ETag)
}

func TestInspectMissingObject(t *testing.T) {
	inspector := NewInspector(storage.NewMemoryStore(), zerolog.Nop(), nil)

	_, err := inspector.Inspect(context.Background(), "does-not-exist.jpg")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.Contains(t, err.Error(), "does-not-exist.jpg")
}
