package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/harvest"
)

// Ensure LoggingSink implements harvest.ModelSink.
var _ harvest.ModelSink = (*LoggingSink)(nil)

// LoggingSink wraps a ModelSink with logging.
type LoggingSink struct {
	next   harvest.ModelSink
	logger *slog.Logger
}

// NewLoggingSink creates a new LoggingSink.
func NewLoggingSink(next harvest.ModelSink, logger *slog.Logger) *LoggingSink {
	return &LoggingSink{next: next, logger: logger}
}

// Store logs the stored record and delegates to the wrapped sink.
func (s *LoggingSink) Store(ctx context.Context, model, field, value string) (rec *harvest.Record, err error) {
	defer func(begin time.Time) {
		var id string
		if rec != nil {
			id = rec.ID
		}
		s.logger.Info("store",
			"model", model,
			"field", field,
			"id", id,
			"bytes", len(value),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.Store(ctx, model, field, value)
}
