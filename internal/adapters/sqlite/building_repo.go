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

// BuildingRepository implements secondary.BuildingRepository with SQLite.
type BuildingRepository struct {
	db Querier
}

// NewBuildingRepository creates a new SQLite building repository.
func NewBuildingRepository(q Querier) *BuildingRepository {
	return &BuildingRepository{db: q}
}

const buildingSelect = `SELECT id, city_id, type, level, upgrading, upgrade_started_at,
	upgrade_complete_at, updated_at, version FROM city_buildings`

// GetByCityAndType retrieves the building of a type in a city.
func (r *BuildingRepository) GetByCityAndType(ctx context.Context, cityID, buildingType string) (*secondary.BuildingRecord, error) {
	row := r.db.QueryRowContext(ctx, buildingSelect+" WHERE city_id = ? AND type = ?", cityID, buildingType)
	b, err := scanBuilding(row)
	if err == sql.ErrNoRows {
		return nil, worlderr.NotFound("get_building", "building %s not found in city %s", buildingType, cityID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get building: %w", err)
	}
	return b, nil
}

// ListByCity retrieves all buildings of a city.
func (r *BuildingRepository) ListByCity(ctx context.Context, cityID string) ([]*secondary.BuildingRecord, error) {
	return r.list(ctx, buildingSelect+`
		WHERE city_id = ?
		ORDER BY CASE type WHEN 'FOUNDRY' THEN 1 WHEN 'GRID' THEN 2 WHEN 'ACADEMY' THEN 3 ELSE 4 END`,
		cityID)
}

// ListDue retrieves buildings whose upgrade completes at or before now.
func (r *BuildingRepository) ListDue(ctx context.Context, cityID string, now time.Time) ([]*secondary.BuildingRecord, error) {
	return r.list(ctx, buildingSelect+`
		WHERE city_id = ? AND upgrading = 1 AND upgrade_complete_at <= ?
		ORDER BY upgrade_complete_at, id`,
		cityID, db.FormatTime(now))
}

func (r *BuildingRepository) list(ctx context.Context, query string, args ...any) ([]*secondary.BuildingRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list buildings: %w", err)
	}
	defer rows.Close()

	var buildings []*secondary.BuildingRecord
	for rows.Next() {
		b, err := scanBuilding(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan building: %w", err)
		}
		buildings = append(buildings, b)
	}
	return buildings, rows.Err()
}

// Update writes the building with a version compare-and-set. UpdatedAt is
// stored as given.
func (r *BuildingRepository) Update(ctx context.Context, b *secondary.BuildingRecord) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE city_buildings SET level = ?, upgrading = ?, upgrade_started_at = ?,
			upgrade_complete_at = ?, version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?`,
		b.Level, boolToInt(b.Upgrading), nullTime(b.UpgradeStartedAt), nullTime(b.UpgradeCompleteAt),
		db.FormatTime(b.UpdatedAt), b.ID, b.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update building: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update building: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("building %s: %w", b.ID, secondary.ErrStaleWrite)
	}
	b.Version++
	return nil
}

func scanBuilding(s rowScanner) (*secondary.BuildingRecord, error) {
	var b secondary.BuildingRecord
	var upgrading int
	var startedAt, completeAt sql.NullString
	var updatedAt string
	if err := s.Scan(&b.ID, &b.CityID, &b.Type, &b.Level, &upgrading, &startedAt, &completeAt, &updatedAt, &b.Version); err != nil {
		return nil, err
	}
	b.Upgrading = upgrading == 1

	var err error
	if b.UpdatedAt, err = db.ParseTime(updatedAt); err != nil {
		return nil, err
	}
	if b.UpgradeStartedAt, err = parseNullTime(startedAt); err != nil {
		return nil, err
	}
	if b.UpgradeCompleteAt, err = parseNullTime(completeAt); err != nil {
		return nil, err
	}
	return &b, nil
}

// Ensure BuildingRepository implements the interface
var _ secondary.BuildingRepository = (*BuildingRepository)(nil)
