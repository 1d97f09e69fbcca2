package audit

import (
	"context"
	"log/slog"
	"time"
)

// Publisher hands audit entries to the background worker without ever
// blocking the caller. When the buffer is full the entry is dropped and
// logged locally; losing an audit line is preferable to stalling a payment.
type Publisher struct {
	inbox  chan Entry
	logger *slog.Logger
}

// NewPublisher builds a publisher with the given buffer size. The returned
// channel feeds a Worker.
func NewPublisher(buffer int, logger *slog.Logger) *Publisher {
	if buffer <= 0 {
		buffer = 1024
	}
	return &Publisher{
		inbox:  make(chan Entry, buffer),
		logger: logger,
	}
}

// Inbox exposes the entry stream for the worker.
func (p *Publisher) Inbox() <-chan Entry {
	return p.inbox
}

// Emit enqueues an entry, stamping the time if unset. Fire-and-forget.
func (p *Publisher) Emit(ctx context.Context, entry Entry) {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	select {
	case p.inbox <- entry:
	default:
		if p.logger != nil {
			p.logger.WarnContext(ctx, "audit buffer full, dropping entry",
				"action", string(entry.Action),
				"entity_id", entry.EntityID,
				"actor", entry.Actor,
			)
		}
	}
}
