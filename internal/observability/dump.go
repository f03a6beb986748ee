package observability

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/casalist/media-pipeline/internal/storage"
)

// Dumper writes raw ingress events to debug/ keys in storage as a
// best-effort diagnostic. A failed dump is logged and never fails the main
// operation. A nil *Dumper is a no-op, so callers wire it unconditionally.
type Dumper struct {
	writer storage.Writer
	logger zerolog.Logger
}

// NewDumper creates a new event dumper.
func NewDumper(writer storage.Writer, logger zerolog.Logger) *Dumper {
	return &Dumper{writer: writer, logger: logger}
}

// Dump persists one raw event under a timestamped debug key.
func (d *Dumper) Dump(ctx context.Context, name string, payload []byte) {
	if d == nil {
		return
	}

	key := fmt.Sprintf("debug/%s-%d.json", name, time.Now().UnixMilli())
	if err := d.writer.Put(ctx, key, bytes.NewReader(payload), "application/json", nil); err != nil {
		d.logger.Warn().Str("key", key).Err(err).Msg("failed to write debug dump")
	}
}
