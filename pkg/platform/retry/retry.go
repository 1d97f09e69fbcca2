// Package retry provides bounded exponential backoff for transient storage
// failures. It is applied at the storage-access boundary only; batch and
// workflow logic never retries on its own.
package retry

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"benefits/pkg/platform/sentinel"
)

// Policy describes a bounded exponential backoff schedule.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	// RetryAll retries every error instead of only transient ones. Used by
	// best-effort consumers (the audit worker) where any failure is worth
	// re-attempting before dropping.
	RetryAll bool
}

// DefaultPolicy suits single-row store operations: three attempts spread over
// well under a second so request handlers stay responsive.
var DefaultPolicy = Policy{
	MaxAttempts: 3,
	BaseDelay:   50 * time.Millisecond,
	MaxDelay:    500 * time.Millisecond,
}

// Option customizes a Policy.
type Option func(*Policy)

func WithMaxAttempts(n int) Option {
	return func(p *Policy) { p.MaxAttempts = n }
}

func WithBaseDelay(d time.Duration) Option {
	return func(p *Policy) { p.BaseDelay = d }
}

func WithMaxDelay(d time.Duration) Option {
	return func(p *Policy) { p.MaxDelay = d }
}

func WithRetryAll() Option {
	return func(p *Policy) { p.RetryAll = true }
}

// New builds a Policy from DefaultPolicy plus options.
func New(opts ...Option) Policy {
	p := DefaultPolicy
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

// Do invokes fn until it succeeds, fails permanently, or attempts exhaust.
// Only errors marked transient (sentinel.ErrUnavailable in the chain) are
// retried; all other errors return immediately so duplicate-key and not-found
// facts surface on the first attempt. Context cancellation aborts the wait.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(p.delay(attempt)):
			}
		}
		if err = fn(ctx); err == nil {
			return nil
		}
		if !p.RetryAll && !IsTransient(err) {
			return err
		}
	}
	return err
}

// IsTransient reports whether err should be retried at the storage boundary.
func IsTransient(err error) bool {
	return errors.Is(err, sentinel.ErrUnavailable)
}

// delay computes the backoff before the given attempt (1-based), doubling
// from BaseDelay and capped at MaxDelay, with up to 25% jitter to spread
// concurrent retries.
func (p Policy) delay(attempt int) time.Duration {
	d := p.BaseDelay << (attempt - 1)
	if d > p.MaxDelay || d <= 0 {
		d = p.MaxDelay
	}
	jitter := time.Duration(rand.Int63n(int64(d)/4 + 1))
	return d + jitter
}
