package audit

import (
	"log/slog"
	"time"
)

// Publisher hands events to the background worker. Emitting never blocks
// the caller: audit capture must not slow down message delivery, so a
// full inbox drops the event and logs instead.
type Publisher struct {
	inbox  chan Event
	logger *slog.Logger
}

func NewPublisher(buffer int, logger *slog.Logger) *Publisher {
	if buffer <= 0 {
		buffer = 1024
	}
	return &Publisher{
		inbox:  make(chan Event, buffer),
		logger: logger,
	}
}

func (p *Publisher) Emit(base Event) {
	if base.Timestamp.IsZero() {
		base.Timestamp = time.Now()
	}
	select {
	case p.inbox <- base:
	default:
		p.logger.Warn("audit inbox full, dropping event", "action", base.Action)
	}
}

// Inbox is consumed by exactly one Worker.
func (p *Publisher) Inbox() <-chan Event {
	return p.inbox
}
