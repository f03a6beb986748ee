package thumbnail

import (
	"fmt"
	"strings"

	"github.com/casalist/media-pipeline/pkg/pipeline"
)

// BuildKey maps a source key, listing id and variant spec to the derivative's
// destination key:
//
//	processed/thumb/{listingId}/{variant}/{filenameWithoutExt}_{w}x{h}.jpg
//
// It is a pure, total function: identical inputs always produce the same key,
// so re-derivation overwrites instead of duplicating. An empty or
// extension-less source key still yields a syntactically valid key.
func BuildKey(sourceKey, listingID string, variant pipeline.VariantSpec) string {
	filename := sourceKey
	if idx := strings.LastIndex(sourceKey, "/"); idx >= 0 {
		filename = sourceKey[idx+1:]
	}
	if idx := strings.LastIndex(filename, "."); idx >= 0 {
		filename = filename[:idx]
	}

	return fmt.Sprintf("processed/thumb/%s/%s/%s_%dx%d.jpg",
		listingID, variant.Name, filename, variant.Width, variant.Height)
}
