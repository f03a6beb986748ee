package thumbnail

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/casalist/media-pipeline/pkg/pipeline"
)

func TestBuildKey(t *testing.T) {
	small := pipeline.VariantSpec{Name: "small", Width: 320, Height: 240}

	tests := []struct {
		name      string
		sourceKey string
		listingID string
		variant   pipeline.VariantSpec
		want      string
	}{
		{
			name:      "nested raw photo key",
			sourceKey: "L1/raw/photo/vertical/2025-11-27/photo-001.jpg",
			listingID: "L1",
			variant:   small,
			want:      "processed/thumb/L1/small/photo-001_320x240.jpg",
		},
		{
			name:      "medium variant",
			sourceKey: "L1/raw/photo/a.jpeg",
			listingID: "L1",
			variant:   pipeline.VariantSpec{Name: "medium", Width: 640, Height: 480},
			want:      "processed/thumb/L1/medium/a_640x480.jpg",
		},
		{
			name:      "no directory",
			sourceKey: "a.jpg",
			listingID: "7",
			variant:   small,
			want:      "processed/thumb/7/small/a_320x240.jpg",
		},
		{
			name:      "no extension",
			sourceKey: "L1/raw/photo/picture",
			listingID: "L1",
			variant:   small,
			want:      "processed/thumb/L1/small/picture_320x240.jpg",
		},
		{
			name:      "empty source key stays syntactically valid",
			sourceKey: "",
			listingID: "L1",
			variant:   small,
			want:      "processed/thumb/L1/small/_320x240.jpg",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildKey(tt.sourceKey, tt.listingID, tt.variant))
		})
	}
}

func TestBuildKeyDeterministic(t *testing.T) {
	variant := pipeline.DefaultVariants[0]

	first := BuildKey("L1/raw/photo/a.jpg", "L1", variant)
	second := BuildKey("L1/raw/photo/a.jpg", "L1", variant)
	assert.Equal(t, first, second)

	otherListing := BuildKey("L1/raw/photo/a.jpg", "L2", variant)
	assert.NotEqual(t, first, otherListing)
}
