package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/civitas/internal/db"
	"github.com/example/civitas/internal/ports/secondary"
	"github.com/example/civitas/internal/worlderr"
)

// CityRepository implements secondary.CityRepository with SQLite.
type CityRepository struct {
	db Querier
}

// NewCityRepository creates a new SQLite city repository.
func NewCityRepository(q Querier) *CityRepository {
	return &CityRepository{db: q}
}

const citySelect = `SELECT id, name, region, status, governor_id, claimed_at, last_beacon_at,
	beacon_streak_days, contested_at, focus, focus_set_at, version FROM cities`

// GetByID retrieves a city by its ID.
func (r *CityRepository) GetByID(ctx context.Context, id string) (*secondary.CityRecord, error) {
	row := r.db.QueryRowContext(ctx, citySelect+" WHERE id = ?", id)
	record, err := scanCity(row)
	if err == sql.ErrNoRows {
		return nil, worlderr.NotFound("get_city", "city %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get city: %w", err)
	}
	return record, nil
}

// List retrieves cities matching the given filters, ordered by ID.
func (r *CityRepository) List(ctx context.Context, filters secondary.CityFilters) ([]*secondary.CityRecord, error) {
	query := citySelect
	var args []any
	if filters.Status != "" {
		query += " WHERE status = ?"
		args = append(args, filters.Status)
	}
	query += " ORDER BY id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list cities: %w", err)
	}
	defer rows.Close()

	var cities []*secondary.CityRecord
	for rows.Next() {
		c, err := scanCity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan city: %w", err)
		}
		cities = append(cities, c)
	}
	return cities, rows.Err()
}

// Update writes the city with a version compare-and-set.
func (r *CityRepository) Update(ctx context.Context, c *secondary.CityRecord) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE cities SET status = ?, governor_id = ?, claimed_at = ?, last_beacon_at = ?,
			beacon_streak_days = ?, contested_at = ?, focus = ?, focus_set_at = ?,
			version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?`,
		c.Status, nullString(c.GovernorID), nullTime(c.ClaimedAt), nullTime(c.LastBeaconAt),
		c.StreakDays, nullTime(c.ContestedAt), c.Focus, nullTime(c.FocusSetAt),
		db.FormatTime(time.Now()), c.ID, c.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update city: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update city: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("city %s: %w", c.ID, secondary.ErrStaleWrite)
	}
	c.Version++
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCity(s rowScanner) (*secondary.CityRecord, error) {
	var c secondary.CityRecord
	var governor, claimedAt, lastBeaconAt, contestedAt, focusSetAt sql.NullString
	if err := s.Scan(&c.ID, &c.Name, &c.Region, &c.Status, &governor, &claimedAt, &lastBeaconAt,
		&c.StreakDays, &contestedAt, &c.Focus, &focusSetAt, &c.Version); err != nil {
		return nil, err
	}
	c.GovernorID = governor.String

	var err error
	if c.ClaimedAt, err = parseNullTime(claimedAt); err != nil {
		return nil, err
	}
	if c.LastBeaconAt, err = parseNullTime(lastBeaconAt); err != nil {
		return nil, err
	}
	if c.ContestedAt, err = parseNullTime(contestedAt); err != nil {
		return nil, err
	}
	if c.FocusSetAt, err = parseNullTime(focusSetAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// Ensure CityRepository implements the interface
var _ secondary.CityRepository = (*CityRepository)(nil)
