package primary

import (
	"context"
	"time"
)

// GovernanceService defines the primary port for city governance operations.
type GovernanceService interface {
	// ClaimCity assigns an open city to a verified agent.
	ClaimCity(ctx context.Context, req ClaimCityRequest) (*City, error)

	// EmitBeacon records a presence proof from the city's governor.
	EmitBeacon(ctx context.Context, req EmitBeaconRequest) (*Beacon, error)

	// RunOverdueSweep contests every governed city whose last beacon is older
	// than the beacon window.
	RunOverdueSweep(ctx context.Context, now time.Time) (*SweepResult, error)

	// GetCity retrieves a city by ID.
	GetCity(ctx context.Context, cityID string) (*City, error)

	// ListCities lists cities with optional filters.
	ListCities(ctx context.Context, filters CityFilters) ([]*City, error)

	// ListBeacons lists a city's beacons, newest first.
	ListBeacons(ctx context.Context, cityID string, limit int) ([]*Beacon, error)
}

// ClaimCityRequest contains parameters for claiming a city.
type ClaimCityRequest struct {
	CityID  string
	AgentID string
}

// EmitBeaconRequest contains parameters for emitting a beacon.
type EmitBeaconRequest struct {
	CityID  string
	AgentID string
	Message string // Optional
}

// City represents a city at the port boundary.
// Status lifecycle: OPEN → GOVERNED ⇄ CONTESTED (FALLEN reserved)
type City struct {
	ID           string
	Name         string
	Region       string
	Status       string
	GovernorID   string
	ClaimedAt    *time.Time
	LastBeaconAt *time.Time
	StreakDays   int
	ContestedAt  *time.Time
	Focus        string
	FocusSetAt   *time.Time
}

// CityFilters contains filter options for listing cities.
type CityFilters struct {
	Status string
}

// Beacon represents a beacon at the port boundary.
type Beacon struct {
	ID         string
	CityID     string
	AgentID    string
	EmittedAt  time.Time
	Message    string
	Recovered  bool
	StreakDays int // streak after this beacon; only set on emission
}

// SweepResult is the outcome of an overdue sweep.
type SweepResult struct {
	Checked   int
	Contested []string
	Failures  []EntityFailure
}

// EntityFailure records one entity a batch could not process.
type EntityFailure struct {
	ID    string
	Error string
}

// City status values.
const (
	CityStatusOpen      = "OPEN"
	CityStatusGoverned  = "GOVERNED"
	CityStatusContested = "CONTESTED"
	CityStatusFallen    = "FALLEN"
)
