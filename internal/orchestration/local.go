package orchestration

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dbos-inc/dbos-transact-golang/dbos"
	"github.com/rs/zerolog"

	"github.com/casalist/media-pipeline/internal/dbosruntime"
	"github.com/casalist/media-pipeline/internal/thumbnail"
	"github.com/casalist/media-pipeline/internal/validate"
	"github.com/casalist/media-pipeline/pkg/pipeline"
)

// BatchOutcome is the result of one locally orchestrated batch run: the
// validation report, and the derivation report when derivation ran.
type BatchOutcome struct {
	Validation pipeline.ValidationReport  `json:"validation"`
	Derivation *pipeline.DerivationReport `json:"derivation,omitempty"`
}

// LocalTrigger implements Trigger on the DBOS runtime: instead of signaling
// an external workflow service it durably runs the validate→derive pipeline
// in-process. Used by standalone deployments without Step Functions.
type LocalTrigger struct {
	runtime   *dbosruntime.Runtime
	validator *validate.BatchValidator
	deriver   *thumbnail.BatchDeriver
	logger    zerolog.Logger
}

// NewLocalTrigger creates the local trigger and registers its workflow
// function with the DBOS runtime. Must be called before the runtime launches.
func NewLocalTrigger(rt *dbosruntime.Runtime, validator *validate.BatchValidator, deriver *thumbnail.BatchDeriver, logger zerolog.Logger) *LocalTrigger {
	t := &LocalTrigger{
		runtime:   rt,
		validator: validator,
		deriver:   deriver,
		logger:    logger,
	}
	dbos.RegisterWorkflow(rt.Context(), t.runBatch)
	return t
}

// StartExecution enqueues a durable batch workflow. The execution name
// becomes the workflow id, keeping retries distinct while each individual
// enqueue stays exactly-once.
func (t *LocalTrigger) StartExecution(ctx context.Context, name string, input []byte, traceparent string) (string, error) {
	var payload pipeline.BatchPayload
	if err := json.Unmarshal(input, &payload); err != nil {
		return "", fmt.Errorf("%w: %v", pipeline.ErrMalformedBatch, err)
	}
	if payload.Traceparent == "" {
		payload.Traceparent = traceparent
	}

	handle, err := dbos.RunWorkflow[pipeline.BatchPayload, *BatchOutcome](
		t.runtime.Context(),
		t.runBatch,
		payload,
		dbos.WithWorkflowID(name),
		dbos.WithQueue(t.runtime.QueueName()),
	)
	if err != nil {
		return "", err
	}

	return handle.GetWorkflowID(), nil
}

// runBatch is the DBOS workflow function mirroring the external state
// machine: re-validate the original payload, then derive thumbnails for the
// validated photo assets.
func (t *LocalTrigger) runBatch(dbosCtx dbos.DBOSContext, payload pipeline.BatchPayload) (*BatchOutcome, error) {
	report, err := t.validator.Validate(dbosCtx, payload)
	if err != nil {
		return nil, err
	}

	outcome := &BatchOutcome{Validation: report}
	if report.Status != pipeline.StatusValidated {
		t.logger.Warn().
			Str("batch_id", report.BatchID).
			Msg("batch no longer validates, skipping derivation")
		return outcome, nil
	}

	derivation, err := t.deriver.DeriveBatch(dbosCtx, pipeline.DerivationRequest{
		BatchID:     report.BatchID,
		ListingID:   report.ListingID,
		ValidAssets: report.ValidAssets,
		Traceparent: report.Traceparent,
	})
	if err != nil {
		return nil, err
	}

	outcome.Derivation = &derivation
	return outcome, nil
}
