package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/civitas/internal/db"
	"github.com/example/civitas/internal/ports/secondary"
)

// EventRepository implements secondary.EventRepository with SQLite.
type EventRepository struct {
	db Querier
}

// NewEventRepository creates a new SQLite event repository.
func NewEventRepository(q Querier) *EventRepository {
	return &EventRepository{db: q}
}

// Append records an event, generating its ID if not provided.
func (r *EventRepository) Append(ctx context.Context, e *secondary.EventRecord) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	payload := string(e.Payload)
	if payload == "" {
		payload = "{}"
	}
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO world_events (id, type, city_id, agent_id, payload, occurred_at) VALUES (?, ?, ?, ?, ?, ?)",
		e.ID, e.Type, nullString(e.CityID), nullString(e.AgentID), payload, db.FormatTime(e.OccurredAt),
	)
	if err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}

// List retrieves events matching the given filters, oldest first.
func (r *EventRepository) List(ctx context.Context, filters secondary.EventFilters) ([]*secondary.EventRecord, error) {
	var (
		where []string
		args  []any
	)
	if filters.CityID != "" {
		where = append(where, "city_id = ?")
		args = append(args, filters.CityID)
	}
	if filters.Type != "" {
		where = append(where, "type = ?")
		args = append(args, filters.Type)
	}

	query := "SELECT id, type, city_id, agent_id, payload, occurred_at FROM world_events"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY occurred_at, rowid"
	if filters.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filters.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var events []*secondary.EventRecord
	for rows.Next() {
		var (
			e               secondary.EventRecord
			cityID, agentID sql.NullString
			payload         string
			occurredAt      string
		)
		if err := rows.Scan(&e.ID, &e.Type, &cityID, &agentID, &payload, &occurredAt); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		e.CityID = cityID.String
		e.AgentID = agentID.String
		e.Payload = []byte(payload)
		if e.OccurredAt, err = db.ParseTime(occurredAt); err != nil {
			return nil, fmt.Errorf("failed to parse event time: %w", err)
		}
		events = append(events, &e)
	}
	return events, rows.Err()
}

// CountByType counts events of each type occurring in [since, until).
func (r *EventRepository) CountByType(ctx context.Context, since, until time.Time) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT type, COUNT(*) FROM world_events WHERE occurred_at >= ? AND occurred_at < ? GROUP BY type",
		db.FormatTime(since), db.FormatTime(until),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to count events: %w", err)
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var typ string
		var n int
		if err := rows.Scan(&typ, &n); err != nil {
			return nil, fmt.Errorf("failed to scan event count: %w", err)
		}
		counts[typ] = n
	}
	return counts, rows.Err()
}

// Ensure EventRepository implements the interface
var _ secondary.EventRepository = (*EventRepository)(nil)
