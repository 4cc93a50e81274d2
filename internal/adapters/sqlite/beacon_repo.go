package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/example/civitas/internal/db"
	"github.com/example/civitas/internal/ports/secondary"
)

// BeaconRepository implements secondary.BeaconRepository with SQLite.
type BeaconRepository struct {
	db Querier
}

// NewBeaconRepository creates a new SQLite beacon repository.
func NewBeaconRepository(q Querier) *BeaconRepository {
	return &BeaconRepository{db: q}
}

// Create appends a beacon, generating its ID if not provided.
func (r *BeaconRepository) Create(ctx context.Context, b *secondary.BeaconRecord) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO beacons (id, city_id, agent_id, emitted_at, message, recovered) VALUES (?, ?, ?, ?, ?, ?)",
		b.ID, b.CityID, b.AgentID, db.FormatTime(b.EmittedAt), nullString(b.Message), boolToInt(b.Recovered),
	)
	if err != nil {
		return fmt.Errorf("failed to create beacon: %w", err)
	}
	return nil
}

// ListByCity returns a city's beacons, newest first.
func (r *BeaconRepository) ListByCity(ctx context.Context, cityID string, limit int) ([]*secondary.BeaconRecord, error) {
	query := "SELECT id, city_id, agent_id, emitted_at, message, recovered FROM beacons WHERE city_id = ? ORDER BY emitted_at DESC, id"
	args := []any{cityID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list beacons: %w", err)
	}
	defer rows.Close()

	var beacons []*secondary.BeaconRecord
	for rows.Next() {
		var (
			b         secondary.BeaconRecord
			emittedAt string
			message   sql.NullString
			recovered int
		)
		if err := rows.Scan(&b.ID, &b.CityID, &b.AgentID, &emittedAt, &message, &recovered); err != nil {
			return nil, fmt.Errorf("failed to scan beacon: %w", err)
		}
		if b.EmittedAt, err = db.ParseTime(emittedAt); err != nil {
			return nil, fmt.Errorf("failed to parse beacon time: %w", err)
		}
		b.Message = message.String
		b.Recovered = recovered == 1
		beacons = append(beacons, &b)
	}
	return beacons, rows.Err()
}

// Ensure BeaconRepository implements the interface
var _ secondary.BeaconRepository = (*BeaconRepository)(nil)
