package ingress

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/casalist/media-pipeline/internal/observability"
	"github.com/casalist/media-pipeline/internal/orchestration"
	"github.com/casalist/media-pipeline/internal/validate"
	"github.com/casalist/media-pipeline/pkg/pipeline"
)

// Record is one transport record carrying a batch payload body.
type Record struct {
	ID   string
	Body []byte
}

// Processor runs the validation stage for transport records and signals the
// orchestration bridge for clean batches.
type Processor struct {
	validator *validate.BatchValidator
	bridge    *orchestration.Bridge
	dumper    *observability.Dumper
	logger    zerolog.Logger
}

// NewProcessor creates a new record processor. dumper may be nil.
func NewProcessor(validator *validate.BatchValidator, bridge *orchestration.Bridge, dumper *observability.Dumper, logger zerolog.Logger) *Processor {
	return &Processor{validator: validator, bridge: bridge, dumper: dumper, logger: logger}
}

// ParsePayload decodes a record body. Queue producers historically sent the
// assets array either as plain key strings or as {key, type} objects; both
// shapes are accepted here. Anything else is a malformed batch.
func ParsePayload(body []byte) (pipeline.BatchPayload, error) {
	var raw struct {
		BatchID     string          `json:"batchId"`
		ListingID   string          `json:"listingId"`
		Assets      json.RawMessage `json:"assets"`
		Traceparent string          `json:"traceparent"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return pipeline.BatchPayload{}, fmt.Errorf("%w: %v", pipeline.ErrMalformedBatch, err)
	}

	payload := pipeline.BatchPayload{
		BatchID:     raw.BatchID,
		ListingID:   raw.ListingID,
		Traceparent: raw.Traceparent,
	}
	if len(raw.Assets) == 0 {
		return payload, nil
	}

	if err := json.Unmarshal(raw.Assets, &payload.Assets); err != nil {
		// Legacy shape: array of {key, type} objects
		var objs []struct {
			Key string `json:"key"`
		}
		if err2 := json.Unmarshal(raw.Assets, &objs); err2 != nil {
			return pipeline.BatchPayload{}, fmt.Errorf("%w: assets must be an array", pipeline.ErrMalformedBatch)
		}
		for _, o := range objs {
			payload.Assets = append(payload.Assets, o.Key)
		}
	}
	return payload, nil
}

// ProcessRecords handles a transport delivery in order. A validation_failed
// report is a data outcome: the record still counts as processed and the
// trigger is simply not signaled. A structural parse failure or a trigger
// dispatch failure is fatal: the loop stops immediately and the error
// propagates so the transport redelivers the whole delivery. The returned
// reports cover exactly the records processed before any failure.
func (p *Processor) ProcessRecords(ctx context.Context, records []Record) ([]pipeline.ValidationReport, error) {
	reports := make([]pipeline.ValidationReport, 0, len(records))

	for _, record := range records {
		p.logger.Info().Str("message_id", record.ID).Msg("processing record")
		p.dumper.Dump(ctx, "event", record.Body)

		payload, err := ParsePayload(record.Body)
		if err != nil {
			p.logger.Error().Str("message_id", record.ID).Err(err).Msg("failed to parse record body")
			return reports, err
		}

		report, err := p.validator.Validate(ctx, payload)
		if err != nil {
			p.logger.Error().Str("message_id", record.ID).Err(err).Msg("failed to validate record")
			return reports, err
		}

		if _, err := p.bridge.MaybeSignal(ctx, report, record.Body); err != nil {
			p.logger.Error().Str("message_id", record.ID).Err(err).Msg("failed to signal workflow")
			return reports, err
		}

		reports = append(reports, report)
	}

	return reports, nil
}
