package db

// SchemaSQL is the complete schema for the civitas world.
//
// # Schema Drift Protection
//
// This is the SINGLE SOURCE OF TRUTH for the database schema. All tests use
// this schema via GetSchemaSQL(); tests must never carry their own CREATE
// TABLE statements. If repository code references a column that does not
// exist here, tests fail immediately with "no such column".
//
// Timestamps are TEXT in TimeLayout. Mutable world rows (cities,
// city_buildings, city_resource_balances) carry a version column that every
// update compares and bumps.
const SchemaSQL = `
CREATE TABLE IF NOT EXISTS agents (
	id TEXT PRIMARY KEY,
	display_name TEXT NOT NULL,
	identity_token_id TEXT UNIQUE,
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS cities (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL UNIQUE,
	region TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL CHECK(status IN ('OPEN', 'GOVERNED', 'CONTESTED', 'FALLEN')) DEFAULT 'OPEN',
	governor_id TEXT REFERENCES agents(id),
	claimed_at TEXT,
	last_beacon_at TEXT,
	beacon_streak_days INTEGER NOT NULL DEFAULT 0 CHECK(beacon_streak_days >= 0),
	contested_at TEXT,
	focus TEXT NOT NULL CHECK(focus IN ('INFRASTRUCTURE', 'EDUCATION', 'CULTURE', 'DEFENSE')) DEFAULT 'INFRASTRUCTURE',
	focus_set_at TEXT,
	version INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	CHECK ((status IN ('GOVERNED', 'CONTESTED')) = (governor_id IS NOT NULL)),
	CHECK (status <> 'OPEN' OR (beacon_streak_days = 0 AND contested_at IS NULL))
);

CREATE INDEX IF NOT EXISTS idx_cities_status ON cities(status);

CREATE TABLE IF NOT EXISTS identities (
	token_id TEXT PRIMARY KEY,
	agent_id TEXT NOT NULL UNIQUE REFERENCES agents(id) ON DELETE CASCADE,
	verification_status TEXT NOT NULL CHECK(verification_status IN ('pending', 'verified', 'mock_verified', 'rejected')) DEFAULT 'pending',
	first_city_claimed_id TEXT REFERENCES cities(id),
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS beacons (
	id TEXT PRIMARY KEY,
	city_id TEXT NOT NULL REFERENCES cities(id),
	agent_id TEXT NOT NULL REFERENCES agents(id),
	emitted_at TEXT NOT NULL,
	message TEXT,
	recovered INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_beacons_city_emitted ON beacons(city_id, emitted_at);

CREATE TRIGGER IF NOT EXISTS beacons_no_update BEFORE UPDATE ON beacons
BEGIN
	SELECT RAISE(ABORT, 'beacons are append-only');
END;

CREATE TRIGGER IF NOT EXISTS beacons_no_delete BEFORE DELETE ON beacons
BEGIN
	SELECT RAISE(ABORT, 'beacons are append-only');
END;

CREATE TABLE IF NOT EXISTS city_buildings (
	id TEXT PRIMARY KEY,
	city_id TEXT NOT NULL REFERENCES cities(id),
	type TEXT NOT NULL CHECK(type IN ('FOUNDRY', 'GRID', 'ACADEMY', 'FORUM')),
	level INTEGER NOT NULL DEFAULT 0 CHECK(level >= 0),
	upgrading INTEGER NOT NULL DEFAULT 0,
	upgrade_started_at TEXT,
	upgrade_complete_at TEXT,
	version INTEGER NOT NULL DEFAULT 0,
	updated_at TEXT NOT NULL,
	UNIQUE (city_id, type),
	CHECK (upgrading = 1 OR (upgrade_started_at IS NULL AND upgrade_complete_at IS NULL)),
	CHECK (upgrading = 0 OR (upgrade_started_at IS NOT NULL AND upgrade_complete_at IS NOT NULL))
);

CREATE INDEX IF NOT EXISTS idx_city_buildings_due ON city_buildings(city_id, upgrading, upgrade_complete_at);

CREATE TABLE IF NOT EXISTS city_resource_balances (
	city_id TEXT PRIMARY KEY REFERENCES cities(id),
	materials INTEGER NOT NULL DEFAULT 0 CHECK(materials >= 0),
	energy INTEGER NOT NULL DEFAULT 0 CHECK(energy >= 0),
	knowledge INTEGER NOT NULL DEFAULT 0 CHECK(knowledge >= 0),
	influence INTEGER NOT NULL DEFAULT 0 CHECK(influence >= 0),
	version INTEGER NOT NULL DEFAULT 0,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS world_cycles (
	id TEXT PRIMARY KEY,
	cycle_start TEXT NOT NULL,
	cycle_end TEXT NOT NULL,
	executed_at TEXT NOT NULL,
	status TEXT NOT NULL CHECK(status IN ('running', 'completed', 'partial'))
);

CREATE INDEX IF NOT EXISTS idx_world_cycles_executed ON world_cycles(executed_at);

CREATE TABLE IF NOT EXISTS world_events (
	id TEXT PRIMARY KEY,
	type TEXT NOT NULL,
	city_id TEXT,
	agent_id TEXT,
	payload TEXT NOT NULL DEFAULT '{}',
	occurred_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_world_events_occurred ON world_events(occurred_at);
CREATE INDEX IF NOT EXISTS idx_world_events_city ON world_events(city_id, occurred_at);

CREATE TRIGGER IF NOT EXISTS world_events_no_update BEFORE UPDATE ON world_events
BEGIN
	SELECT RAISE(ABORT, 'world events are append-only');
END;

CREATE TRIGGER IF NOT EXISTS world_events_no_delete BEFORE DELETE ON world_events
BEGIN
	SELECT RAISE(ABORT, 'world events are append-only');
END;

CREATE TABLE IF NOT EXISTS world_reports (
	id TEXT PRIMARY KEY,
	kind TEXT NOT NULL CHECK(kind IN ('daily', 'weekly')),
	period_start TEXT NOT NULL,
	period_end TEXT NOT NULL,
	generated_at TEXT NOT NULL,
	metrics TEXT NOT NULL DEFAULT '{}',
	UNIQUE (kind, period_start)
);
`

// GetSchemaSQL returns the authoritative schema SQL for use by tests.
// Tests should use this instead of hardcoding their own schema to prevent drift.
func GetSchemaSQL() string {
	return SchemaSQL
}
