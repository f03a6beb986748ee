package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the pipeline's Prometheus collectors.
type Metrics struct {
	Registry *prometheus.Registry

	AssetsInspected   *prometheus.CounterVec
	BatchesValidated  *prometheus.CounterVec
	ThumbnailsWritten prometheus.Counter
	VariantFailures   prometheus.Counter
	AssetFailures     prometheus.Counter
	TriggerSignals    *prometheus.CounterVec
	StageDuration     *prometheus.HistogramVec
}

// New registers the pipeline collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{Registry: prometheus.NewRegistry()}

	m.AssetsInspected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_assets_inspected_total",
			Help: "Asset metadata lookups by outcome.",
		},
		[]string{"outcome"},
	)

	m.BatchesValidated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_batches_validated_total",
			Help: "Validated batches by report status.",
		},
		[]string{"status"},
	)

	m.ThumbnailsWritten = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pipeline_thumbnails_written_total",
			Help: "Thumbnail variants written to storage.",
		},
	)

	m.VariantFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pipeline_thumbnail_variant_failures_total",
			Help: "Thumbnail variants that failed to encode or write.",
		},
	)

	m.AssetFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pipeline_derivation_asset_failures_total",
			Help: "Photo assets that failed before any variant was produced.",
		},
	)

	m.TriggerSignals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_trigger_signals_total",
			Help: "Downstream workflow trigger decisions.",
		},
		[]string{"decision"},
	)

	m.StageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pipeline_stage_duration_seconds",
			Help:    "Duration of the validate and derive stages.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"stage"},
	)

	m.Registry.MustRegister(
		m.AssetsInspected,
		m.BatchesValidated,
		m.ThumbnailsWritten,
		m.VariantFailures,
		m.AssetFailures,
		m.TriggerSignals,
		m.StageDuration,
	)

	return m
}
