package app

import (
	"context"
	"errors"
	"time"

	"github.com/example/civitas/internal/ctxutil"
	"github.com/example/civitas/internal/ports/secondary"
	"github.com/example/civitas/internal/worlderr"
)

// RetryPolicy bounds the optimistic concurrency retry loop.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// DefaultRetryPolicy matches the production configuration defaults.
var DefaultRetryPolicy = RetryPolicy{MaxAttempts: 5, BaseDelay: 10 * time.Millisecond}

// withRetry re-runs fn while it fails with a stale write, doubling the delay
// between attempts. Any other error is returned at once.
func withRetry(ctx context.Context, p RetryPolicy, op string, fn func() error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	delay := p.BaseDelay

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = fn()
		if err == nil || !errors.Is(err, secondary.ErrStaleWrite) {
			return err
		}
		if attempt == attempts {
			break
		}
		ctxutil.Logger(ctx).Debug("stale write, retrying", "op", op, "attempt", attempt, "delay", delay)
		select {
		case <-ctx.Done():
			return worlderr.Wrap(worlderr.KindConcurrencyConflict, op, ctx.Err(), "interrupted after %d attempts", attempt)
		case <-time.After(delay):
		}
		delay *= 2
	}
	return worlderr.Wrap(worlderr.KindConcurrencyConflict, op, err, "gave up after %d attempts", attempts)
}
