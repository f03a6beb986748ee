package pipeline

import "strings"

// AssetKind classifies a raw asset by its storage key.
type AssetKind string

const (
	KindPhoto AssetKind = "PHOTO"
	KindVideo AssetKind = "VIDEO"
)

// KindForKey classifies an asset key by path structure: a literal /video/
// segment means VIDEO, everything else is PHOTO. Extensions are deliberately
// not consulted.
func KindForKey(key string) AssetKind {
	if strings.Contains(key, "/video/") {
		return KindVideo
	}
	return KindPhoto
}

// Batch/report statuses on the wire.
const (
	StatusValidated           = "validated"
	StatusValidationFailed    = "validation_failed"
	StatusNoPhotosToProcess   = "no_photos_to_process"
	StatusThumbnailsGenerated = "thumbnails_generated"
)

// BatchPayload is the validation-stage input: a batch of raw asset keys
// belonging to one listing.
type BatchPayload struct {
	BatchID     string   `json:"batchId"`
	ListingID   string   `json:"listingId"`
	Assets      []string `json:"assets"`
	Traceparent string   `json:"traceparent,omitempty"`
}

// ValidatedAsset is one asset that passed the storage metadata lookup.
type ValidatedAsset struct {
	RawKey      string    `json:"rawKey"`
	SourceKey   string    `json:"sourceKey"`
	Kind        AssetKind `json:"assetType"`
	Size        int64     `json:"size"`
	ContentType string    `json:"contentType"`
	ETag        string    `json:"etag"`
}

// ValidationError records one asset that failed inspection.
type ValidationError struct {
	SourceKey string `json:"sourceKey"`
	Error     string `json:"error"`
}

// ValidationReport is the immutable outcome of validating one batch.
// Status is validation_failed exactly when Errors is non-empty.
type ValidationReport struct {
	Status          string            `json:"status"`
	BatchID         string            `json:"batchId"`
	ListingID       string            `json:"listingId"`
	Traceparent     string            `json:"traceparent,omitempty"`
	AssetsValidated int               `json:"assetsValidated"`
	ValidAssets     []ValidatedAsset  `json:"validAssets"`
	Errors          []ValidationError `json:"errors,omitempty"`
	HasVideos       bool              `json:"hasVideos"`
}

// VariantSpec is one configured thumbnail size.
type VariantSpec struct {
	Name   string `json:"name"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// DefaultVariants is the canonical thumbnail set.
var DefaultVariants = []VariantSpec{
	{Name: "small", Width: 320, Height: 240},
	{Name: "medium", Width: 640, Height: 480},
	{Name: "large", Width: 1280, Height: 960},
}

// ThumbnailResult is one successfully derived variant.
type ThumbnailResult struct {
	OriginalKey  string `json:"originalKey"`
	ThumbnailKey string `json:"thumbnailKey"`
	Size         string `json:"size"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	Bytes        int    `json:"bytes"`
}

// DerivationError records a whole-asset failure (read or decode).
type DerivationError struct {
	SourceKey string `json:"sourceKey"`
	Error     string `json:"error"`
}

// VariantWarning records a single variant that failed to encode or write
// while its siblings continued.
type VariantWarning struct {
	SourceKey string `json:"sourceKey"`
	Variant   string `json:"variant"`
	Error     string `json:"error"`
}

// DerivationRequest is the derivation-stage input.
type DerivationRequest struct {
	BatchID     string           `json:"batchId"`
	ListingID   string           `json:"listingId"`
	ValidAssets []ValidatedAsset `json:"validAssets"`
	Traceparent string           `json:"traceparent,omitempty"`
}

// DerivationReport is the immutable outcome of the derivation stage.
// Status thumbnails_generated means the stage ran over a non-empty photo
// set, not that every asset or variant succeeded; callers inspect Errors,
// Warnings and the thumbnail counts.
type DerivationReport struct {
	Status              string            `json:"status"`
	BatchID             string            `json:"batchId"`
	ListingID           string            `json:"listingId"`
	Traceparent         string            `json:"traceparent,omitempty"`
	AssetsProcessed     int               `json:"assetsProcessed"`
	ThumbnailsGenerated int               `json:"thumbnailsGenerated"`
	Thumbnails          []ThumbnailResult `json:"thumbnails"`
	Errors              []DerivationError `json:"errors,omitempty"`
	Warnings            []VariantWarning  `json:"warnings,omitempty"`
}
