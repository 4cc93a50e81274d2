// Package sqlite contains SQLite implementations of repository interfaces.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/civitas/internal/db"
	"github.com/example/civitas/internal/ports/secondary"
)

// Querier is satisfied by both *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store implements secondary.Store over a single querier.
type Store struct {
	q Querier
}

// NewStore creates a store whose repositories run outside any transaction.
func NewStore(q Querier) *Store {
	return &Store{q: q}
}

func (s *Store) Cities() secondary.CityRepository { return NewCityRepository(s.q) }
func (s *Store) Beacons() secondary.BeaconRepository { return NewBeaconRepository(s.q) }
func (s *Store) Buildings() secondary.BuildingRepository { return NewBuildingRepository(s.q) }
func (s *Store) Balances() secondary.BalanceRepository { return NewBalanceRepository(s.q) }
func (s *Store) Cycles() secondary.WorldCycleRepository { return NewWorldCycleRepository(s.q) }
func (s *Store) Events() secondary.EventRepository { return NewEventRepository(s.q) }
func (s *Store) Identities() secondary.AgentIdentityProvider { return NewIdentityProvider(s.q) }
func (s *Store) Reports() secondary.ReportGenerator { return NewReportWriter(s.q) }

// Transactor implements secondary.Transactor with database/sql transactions.
type Transactor struct {
	db *sql.DB
}

// NewTransactor creates a new transactor.
func NewTransactor(database *sql.DB) *Transactor {
	return &Transactor{db: database}
}

// WithinTx runs fn inside a transaction, committing when fn returns nil.
func (t *Transactor) WithinTx(ctx context.Context, fn func(ctx context.Context, s secondary.Store) error) error {
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(ctx, NewStore(tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: db.FormatTime(*t), Valid: true}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func parseNullTime(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	t, err := db.ParseTime(ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Ensure Store implements the interface
var _ secondary.Store = (*Store)(nil)
var _ secondary.Transactor = (*Transactor)(nil)
