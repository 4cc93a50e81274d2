package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// InitialBalance is the starting amount of every resource in a new city.
const InitialBalance = 50

// InitialCities is the bootstrap world.
var InitialCities = []struct {
	ID          string
	Name        string
	Region      string
	Description string
}{
	{"CITY-001", "Aurelia", "Central Plains", "The golden city at the heart of the realm"},
	{"CITY-002", "Portus", "Coastal Reach", "Harbor city where tides mark time"},
	{"CITY-003", "Novum Forum", "Northern Heights", "The new assembly, built on ancient foundations"},
	{"CITY-004", "Zero-One Prima", "Central Plains", "First among equals, the founding settlement"},
	{"CITY-005", "Meridian", "Southern Arc", "City of the midday sun"},
	{"CITY-006", "Castellum", "Western Ridge", "The fortress city, guardian of passes"},
	{"CITY-007", "Veriditas", "Eastern Woods", "Where governance grows like ancient oaks"},
	{"CITY-008", "Nexus", "Central Plains", "The crossroads of all paths"},
	{"CITY-009", "Terminus", "Far Reaches", "The boundary city, edge of the known"},
	{"CITY-010", "Solitude", "Northern Heights", "The contemplative city, apart yet present"},
}

// DemoAgents are registered by SeedFixtures. The last one has no verified identity.
var DemoAgents = []struct {
	ID           string
	Name         string
	TokenID      string
	Verification string
}{
	{"AGENT-001", "Archon-7", "ERC8004-0001", "mock_verified"},
	{"AGENT-002", "Consul Prime", "ERC8004-0002", "mock_verified"},
	{"AGENT-003", "Sentinel Node", "ERC8004-0003", "verified"},
	{"AGENT-004", "Civic Engine", "ERC8004-0004", "mock_verified"},
	{"AGENT-005", "Governor Unit", "ERC8004-0005", "pending"},
}

var buildingTypes = []string{"FOUNDRY", "GRID", "ACADEMY", "FORUM"}

// SeedWorld creates the bootstrap cities, each OPEN with four level-0
// buildings and an empty balance row. It is a no-op when cities exist.
func SeedWorld(ctx context.Context, database *sql.DB, now time.Time) error {
	var count int
	if err := database.QueryRowContext(ctx, "SELECT COUNT(*) FROM cities").Scan(&count); err != nil {
		return fmt.Errorf("seed cities: %w", err)
	}
	if count > 0 {
		return nil
	}

	ts := FormatTime(now)
	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed world: %w", err)
	}
	defer tx.Rollback()

	for _, c := range InitialCities {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO cities (id, name, region, description, status, focus, created_at, updated_at)
			VALUES (?, ?, ?, ?, 'OPEN', 'INFRASTRUCTURE', ?, ?)`,
			c.ID, c.Name, c.Region, c.Description, ts, ts,
		); err != nil {
			return fmt.Errorf("seed cities: %w", err)
		}
		for _, bt := range buildingTypes {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO city_buildings (id, city_id, type, level, upgrading, updated_at) VALUES (?, ?, ?, 0, 0, ?)",
				uuid.NewString(), c.ID, bt, ts,
			); err != nil {
				return fmt.Errorf("seed buildings: %w", err)
			}
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO city_resource_balances (city_id, materials, energy, knowledge, influence, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			c.ID, InitialBalance, InitialBalance, InitialBalance, InitialBalance, ts,
		); err != nil {
			return fmt.Errorf("seed balances: %w", err)
		}
	}

	return tx.Commit()
}

// SeedFixtures registers the demo agents and their identities on top of the
// bootstrap world.
func SeedFixtures(ctx context.Context, database *sql.DB, now time.Time) error {
	if err := SeedWorld(ctx, database, now); err != nil {
		return err
	}

	ts := FormatTime(now)
	for _, a := range DemoAgents {
		if _, err := database.ExecContext(ctx,
			"INSERT OR IGNORE INTO agents (id, display_name, identity_token_id, created_at) VALUES (?, ?, ?, ?)",
			a.ID, a.Name, a.TokenID, ts,
		); err != nil {
			return fmt.Errorf("seed agents: %w", err)
		}
		if _, err := database.ExecContext(ctx,
			`INSERT OR IGNORE INTO identities (token_id, agent_id, verification_status, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?)`,
			a.TokenID, a.ID, a.Verification, ts, ts,
		); err != nil {
			return fmt.Errorf("seed identities: %w", err)
		}
	}
	return nil
}
