package audit

import (
	"context"
	"log/slog"
)

// Worker consumes audit events from a channel and persists them. It keeps
// background processing decoupled from the hot paths that emit events.
type Worker struct {
	store  Store
	sink   Sink
	inbox  <-chan Event
	logger *slog.Logger
}

// NewWorker wires the inbox to the store and an optional external sink.
// A nil sink keeps events local.
func NewWorker(store Store, sink Sink, inbox <-chan Event, logger *slog.Logger) *Worker {
	return &Worker{store: store, sink: sink, inbox: inbox, logger: logger}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.store.Append(ctx, event); err != nil {
				w.logger.Error("append audit event", "error", err)
			}
			if w.sink == nil {
				continue
			}
			if err := w.sink.Append(ctx, event); err != nil {
				w.logger.Error("sink audit event", "error", err)
			}
		}
	}
}
