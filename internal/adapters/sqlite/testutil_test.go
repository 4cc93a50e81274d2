// Package sqlite_test contains integration tests for SQLite repositories.
//
// # Schema Protection
//
// This file is the SINGLE POINT where the database schema is loaded for tests.
// All test setup functions use db.GetSchemaSQL() to ensure tests run against
// the authoritative schema, preventing drift between test and production.
//
// DO NOT hardcode CREATE TABLE statements in test files. Instead, use
// setupTestDB() and the seed* helpers.
package sqlite_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/example/civitas/internal/db"
)

// setupTestDB creates an in-memory database with the authoritative schema.
// One connection keeps the :memory: database shared across the pool.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	testDB, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	testDB.SetMaxOpenConns(1)

	if _, err := testDB.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("failed to enable foreign keys: %v", err)
	}

	// Use the authoritative schema from schema.go
	if _, err := testDB.Exec(db.GetSchemaSQL()); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	t.Cleanup(func() {
		testDB.Close()
	})

	return testDB
}

var seedTime = time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)

// seedWorld inserts the bootstrap cities, buildings and balances.
func seedWorld(t *testing.T, database *sql.DB) {
	t.Helper()
	if err := db.SeedWorld(context.Background(), database, seedTime); err != nil {
		t.Fatalf("failed to seed world: %v", err)
	}
}

// seedAgent inserts an agent with an identity in the given verification status.
// An empty status inserts the agent without any identity row.
func seedAgent(t *testing.T, database *sql.DB, id, status string) {
	t.Helper()
	ts := db.FormatTime(seedTime)
	if _, err := database.Exec(
		"INSERT INTO agents (id, display_name, identity_token_id, created_at) VALUES (?, ?, ?, ?)",
		id, "Agent "+id, "TOKEN-"+id, ts,
	); err != nil {
		t.Fatalf("failed to seed agent: %v", err)
	}
	if status == "" {
		return
	}
	if _, err := database.Exec(
		"INSERT INTO identities (token_id, agent_id, verification_status, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
		"TOKEN-"+id, id, status, ts, ts,
	); err != nil {
		t.Fatalf("failed to seed identity: %v", err)
	}
}

// seedGovernedCity marks a seeded city as governed by agentID.
func seedGovernedCity(t *testing.T, database *sql.DB, cityID, agentID string, claimedAt time.Time) {
	t.Helper()
	if _, err := database.Exec(
		"UPDATE cities SET status = 'GOVERNED', governor_id = ?, claimed_at = ? WHERE id = ?",
		agentID, db.FormatTime(claimedAt), cityID,
	); err != nil {
		t.Fatalf("failed to seed governed city: %v", err)
	}
}
