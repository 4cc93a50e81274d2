package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/civitas/internal/db"
	"github.com/example/civitas/internal/ports/secondary"
	"github.com/example/civitas/internal/worlderr"
)

// BalanceRepository implements secondary.BalanceRepository with SQLite.
type BalanceRepository struct {
	db Querier
}

// NewBalanceRepository creates a new SQLite balance repository.
func NewBalanceRepository(q Querier) *BalanceRepository {
	return &BalanceRepository{db: q}
}

// GetByCity retrieves the balance row of a city.
func (r *BalanceRepository) GetByCity(ctx context.Context, cityID string) (*secondary.BalanceRecord, error) {
	var (
		b         secondary.BalanceRecord
		updatedAt string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT city_id, materials, energy, knowledge, influence, version, updated_at
		FROM city_resource_balances WHERE city_id = ?`,
		cityID,
	).Scan(&b.CityID, &b.Materials, &b.Energy, &b.Knowledge, &b.Influence, &b.Version, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, worlderr.NotFound("get_balance", "balance for city %s not found", cityID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get balance: %w", err)
	}
	if b.UpdatedAt, err = db.ParseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("failed to parse balance time: %w", err)
	}
	return &b, nil
}

// Update writes the balance with a version compare-and-set. UpdatedAt is
// stored as given.
func (r *BalanceRepository) Update(ctx context.Context, b *secondary.BalanceRecord) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE city_resource_balances SET materials = ?, energy = ?, knowledge = ?, influence = ?,
			version = version + 1, updated_at = ?
		WHERE city_id = ? AND version = ?`,
		b.Materials, b.Energy, b.Knowledge, b.Influence, db.FormatTime(b.UpdatedAt), b.CityID, b.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update balance: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update balance: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("balance %s: %w", b.CityID, secondary.ErrStaleWrite)
	}
	b.Version++
	return nil
}

// Ensure BalanceRepository implements the interface
var _ secondary.BalanceRepository = (*BalanceRepository)(nil)
