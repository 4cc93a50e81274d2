package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/example/civitas/internal/db"
	"github.com/example/civitas/internal/ports/secondary"
	"github.com/example/civitas/internal/worlderr"
)

// WorldCycleRepository implements secondary.WorldCycleRepository with SQLite.
type WorldCycleRepository struct {
	db Querier
}

// NewWorldCycleRepository creates a new SQLite world cycle repository.
func NewWorldCycleRepository(q Querier) *WorldCycleRepository {
	return &WorldCycleRepository{db: q}
}

// GetLatest returns the most recently executed cycle, or nil if none ran yet.
func (r *WorldCycleRepository) GetLatest(ctx context.Context) (*secondary.WorldCycleRecord, error) {
	var c secondary.WorldCycleRecord
	var start, end, executedAt string
	err := r.db.QueryRowContext(ctx,
		"SELECT id, cycle_start, cycle_end, executed_at, status FROM world_cycles ORDER BY executed_at DESC, rowid DESC LIMIT 1",
	).Scan(&c.ID, &start, &end, &executedAt, &c.Status)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest cycle: %w", err)
	}
	if c.CycleStart, err = db.ParseTime(start); err != nil {
		return nil, fmt.Errorf("failed to parse cycle start: %w", err)
	}
	if c.CycleEnd, err = db.ParseTime(end); err != nil {
		return nil, fmt.Errorf("failed to parse cycle end: %w", err)
	}
	if c.ExecutedAt, err = db.ParseTime(executedAt); err != nil {
		return nil, fmt.Errorf("failed to parse cycle execution time: %w", err)
	}
	return &c, nil
}

// Create appends a cycle row, generating its ID if not provided.
func (r *WorldCycleRepository) Create(ctx context.Context, c *secondary.WorldCycleRecord) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO world_cycles (id, cycle_start, cycle_end, executed_at, status) VALUES (?, ?, ?, ?, ?)",
		c.ID, db.FormatTime(c.CycleStart), db.FormatTime(c.CycleEnd), db.FormatTime(c.ExecutedAt), c.Status,
	)
	if err != nil {
		return fmt.Errorf("failed to create cycle: %w", err)
	}
	return nil
}

// UpdateStatus finalises the status of a cycle.
func (r *WorldCycleRepository) UpdateStatus(ctx context.Context, id, status string) error {
	res, err := r.db.ExecContext(ctx, "UPDATE world_cycles SET status = ? WHERE id = ?", status, id)
	if err != nil {
		return fmt.Errorf("failed to update cycle status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update cycle status: %w", err)
	}
	if n == 0 {
		return worlderr.NotFound("update_cycle_status", "cycle %s not found", id)
	}
	return nil
}

// Ensure WorldCycleRepository implements the interface
var _ secondary.WorldCycleRepository = (*WorldCycleRepository)(nil)
