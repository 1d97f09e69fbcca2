package audit

import (
	"context"
	"log/slog"
	"time"

	"benefits/pkg/platform/retry"
)

// Worker drains the publisher's inbox into the sink. Sink failures are
// retried with bounded backoff and then logged and dropped; they never
// propagate to the operation that emitted the entry.
type Worker struct {
	sink   Sink
	inbox  <-chan Entry
	logger *slog.Logger
	policy retry.Policy
}

func NewWorker(sink Sink, inbox <-chan Entry, logger *slog.Logger) *Worker {
	return &Worker{
		sink:   sink,
		inbox:  inbox,
		logger: logger,
		policy: retry.New(
			retry.WithMaxAttempts(5),
			retry.WithBaseDelay(100*time.Millisecond),
			retry.WithMaxDelay(2*time.Second),
			retry.WithRetryAll(),
		),
	}
}

// Run consumes entries until ctx is cancelled. On shutdown it drains
// whatever is already buffered before returning.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.drain()
			return ctx.Err()
		case entry := <-w.inbox:
			w.append(ctx, entry)
		}
	}
}

func (w *Worker) append(ctx context.Context, entry Entry) {
	err := w.policy.Do(ctx, func(ctx context.Context) error {
		return w.sink.Append(ctx, entry)
	})
	if err != nil && w.logger != nil {
		w.logger.ErrorContext(ctx, "audit append failed after retries, dropping entry",
			"action", string(entry.Action),
			"entity_id", entry.EntityID,
			"error", err,
		)
	}
}

// drain flushes buffered entries with a short deadline detached from the
// cancelled run context.
func (w *Worker) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for {
		select {
		case entry := <-w.inbox:
			w.append(ctx, entry)
		default:
			return
		}
	}
}
