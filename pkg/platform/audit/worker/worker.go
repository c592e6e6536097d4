package worker

import (
	"context"
	"log/slog"

	"subvene/pkg/platform/audit"
)

// Sink receives trail events published by the worker.
type Sink interface {
	Publish(ctx context.Context, event audit.Event) error
}

// Worker drains the publisher outbox into a sink. Sink failures are logged
// and dropped; the local store already holds the authoritative copy.
type Worker struct {
	sink   Sink
	inbox  <-chan audit.Event
	logger *slog.Logger
}

func New(sink Sink, inbox <-chan audit.Event, logger *slog.Logger) *Worker {
	return &Worker{sink: sink, inbox: inbox, logger: logger}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.sink.Publish(ctx, event); err != nil {
				w.logger.ErrorContext(ctx, "trail sink publish failed",
					"action", event.Action,
					"subsidy_id", event.SubsidyID,
					"error", err.Error(),
				)
			}
		}
	}
}
