package orchestration

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/casalist/media-pipeline/internal/metrics"
	"github.com/casalist/media-pipeline/pkg/pipeline"
)

// Trigger starts one downstream workflow execution. Implementations are
// single-attempt; a dispatch failure propagates to the caller.
type Trigger interface {
	StartExecution(ctx context.Context, name string, input []byte, traceparent string) (string, error)
}

// Bridge decides whether a validation outcome should signal the downstream
// workflow.
type Bridge struct {
	trigger Trigger
	logger  zerolog.Logger
	metrics *metrics.Metrics
}

// NewBridge creates a new orchestration bridge. metrics may be nil.
func NewBridge(trigger Trigger, logger zerolog.Logger, m *metrics.Metrics) *Bridge {
	return &Bridge{trigger: trigger, logger: logger, metrics: m}
}

// ExecutionName derives a per-attempt unique execution name from the batch
// id, so redeliveries never collide on the downstream side.
func ExecutionName(batchID string) string {
	return fmt.Sprintf("batch-%s-%d-%s", batchID, time.Now().UnixNano(), uuid.NewString()[:8])
}

// MaybeSignal signals the downstream workflow with the original raw payload
// when the batch validated cleanly. It returns whether it signaled; skipping
// is reported to the caller, never silent. A dispatch failure is fatal for
// the enclosing record.
func (b *Bridge) MaybeSignal(ctx context.Context, report pipeline.ValidationReport, rawPayload []byte) (bool, error) {
	logger := b.logger.With().Str("batch_id", report.BatchID).Logger()

	if report.Status != pipeline.StatusValidated {
		logger.Warn().
			Str("status", report.Status).
			Int("error_count", len(report.Errors)).
			Msg("validation failed, skipping workflow execution")
		if b.metrics != nil {
			b.metrics.TriggerSignals.WithLabelValues("skipped").Inc()
		}
		return false, nil
	}

	name := ExecutionName(report.BatchID)
	executionID, err := b.trigger.StartExecution(ctx, name, rawPayload, report.Traceparent)
	if err != nil {
		if b.metrics != nil {
			b.metrics.TriggerSignals.WithLabelValues("failed").Inc()
		}
		return false, fmt.Errorf("%w: %v", pipeline.ErrTriggerDispatch, err)
	}

	if b.metrics != nil {
		b.metrics.TriggerSignals.WithLabelValues("signaled").Inc()
	}
	logger.Info().Str("execution_id", executionID).Msg("started workflow execution")
	return true, nil
}
