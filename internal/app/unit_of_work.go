package app

import (
	"context"

	"github.com/example/civitas/internal/core/effects"
	"github.com/example/civitas/internal/ctxutil"
	"github.com/example/civitas/internal/ports/secondary"
)

// UnitOfWork runs one read-decide-write closure per transaction. Effects the
// closure returns are recorded in the same transaction and mirrored to the
// publisher once it has committed.
type UnitOfWork struct {
	tx        secondary.Transactor
	executor  EffectExecutor
	publisher secondary.EventPublisher
	retry     RetryPolicy
}

// NewUnitOfWork creates a UnitOfWork. A nil publisher disables mirroring.
func NewUnitOfWork(tx secondary.Transactor, executor EffectExecutor, publisher secondary.EventPublisher, retry RetryPolicy) *UnitOfWork {
	return &UnitOfWork{
		tx:        tx,
		executor:  executor,
		publisher: publisher,
		retry:     retry,
	}
}

// Run executes fn in a transaction, retrying the whole closure on stale writes.
func (u *UnitOfWork) Run(ctx context.Context, op string, fn func(ctx context.Context, s secondary.Store) ([]effects.Effect, error)) error {
	var recorded []*secondary.EventRecord
	err := withRetry(ctx, u.retry, op, func() error {
		recorded = nil
		return u.tx.WithinTx(ctx, func(ctx context.Context, s secondary.Store) error {
			effs, err := fn(ctx, s)
			if err != nil {
				return err
			}
			recorded, err = u.executor.Execute(ctx, s, effs)
			return err
		})
	})
	if err != nil {
		return err
	}
	u.publish(ctx, op, recorded)
	return nil
}

// Read executes a read-only fn in a transaction.
func (u *UnitOfWork) Read(ctx context.Context, fn func(ctx context.Context, s secondary.Store) error) error {
	return u.tx.WithinTx(ctx, fn)
}

func (u *UnitOfWork) publish(ctx context.Context, op string, recorded []*secondary.EventRecord) {
	if u.publisher == nil || len(recorded) == 0 {
		return
	}
	if err := u.publisher.Publish(ctx, recorded); err != nil {
		// The chronicle row is committed; the mirror is best effort.
		ctxutil.Logger(ctx).Warn("failed to publish events", "op", op, "count", len(recorded), "error", err)
	}
}
