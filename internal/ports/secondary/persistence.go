// Package secondary defines the secondary ports (driven adapters) for the application.
// These are the interfaces through which the application drives external systems.
package secondary

import (
	"context"
	"errors"
	"time"
)

// ErrStaleWrite is returned by Update methods when the row's version no
// longer matches the snapshot the caller read.
var ErrStaleWrite = errors.New("stale write: row version changed")

// Store groups the repositories that share one transaction.
type Store interface {
	Cities() CityRepository
	Beacons() BeaconRepository
	Buildings() BuildingRepository
	Balances() BalanceRepository
	Cycles() WorldCycleRepository
	Events() EventRepository
	Identities() AgentIdentityProvider
	Reports() ReportGenerator
}

// Transactor runs fn inside a single transaction. If fn returns an error the
// transaction is rolled back and the error is returned unchanged.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, s Store) error) error
}

// CityRepository defines the secondary port for city persistence.
type CityRepository interface {
	// GetByID retrieves a city by its ID.
	GetByID(ctx context.Context, id string) (*CityRecord, error)

	// List retrieves cities matching the given filters, ordered by ID.
	List(ctx context.Context, filters CityFilters) ([]*CityRecord, error)

	// Update writes the city if its version still matches city.Version and
	// bumps city.Version on success. Returns ErrStaleWrite otherwise.
	Update(ctx context.Context, city *CityRecord) error
}

// CityRecord represents a city as stored in persistence.
type CityRecord struct {
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
	Version      int64
}

// CityFilters contains filter options for querying cities.
type CityFilters struct {
	Status string
}

// BeaconRepository defines the secondary port for the append-only beacon ledger.
type BeaconRepository interface {
	// Create appends a beacon.
	Create(ctx context.Context, beacon *BeaconRecord) error

	// ListByCity returns a city's beacons, newest first. limit <= 0 means no limit.
	ListByCity(ctx context.Context, cityID string, limit int) ([]*BeaconRecord, error)
}

// BeaconRecord represents a beacon as stored in persistence.
type BeaconRecord struct {
	ID        string
	CityID    string
	AgentID   string
	EmittedAt time.Time
	Message   string
	Recovered bool
}

// BuildingRepository defines the secondary port for building persistence.
type BuildingRepository interface {
	// GetByCityAndType retrieves the building of a type in a city.
	GetByCityAndType(ctx context.Context, cityID, buildingType string) (*BuildingRecord, error)

	// ListByCity retrieves all buildings of a city.
	ListByCity(ctx context.Context, cityID string) ([]*BuildingRecord, error)

	// ListDue retrieves buildings whose upgrade completes at or before now.
	ListDue(ctx context.Context, cityID string, now time.Time) ([]*BuildingRecord, error)

	// Update writes the building with a version compare-and-set.
	Update(ctx context.Context, b *BuildingRecord) error
}

// BuildingRecord represents a building as stored in persistence.
type BuildingRecord struct {
	ID                string
	CityID            string
	Type              string
	Level             int
	Upgrading         bool
	UpgradeStartedAt  *time.Time
	UpgradeCompleteAt *time.Time
	UpdatedAt         time.Time
	Version           int64
}

// BalanceRepository defines the secondary port for city resource balances.
type BalanceRepository interface {
	// GetByCity retrieves the balance row of a city.
	GetByCity(ctx context.Context, cityID string) (*BalanceRecord, error)

	// Update writes the balance with a version compare-and-set.
	Update(ctx context.Context, b *BalanceRecord) error
}

// BalanceRecord represents a resource balance as stored in persistence.
type BalanceRecord struct {
	CityID    string
	Materials int64
	Energy    int64
	Knowledge int64
	Influence int64
	UpdatedAt time.Time
	Version   int64
}

// WorldCycleRepository defines the secondary port for world cycle records.
type WorldCycleRepository interface {
	// GetLatest returns the most recently executed cycle, or nil if none ran yet.
	GetLatest(ctx context.Context) (*WorldCycleRecord, error)

	// Create appends a cycle row.
	Create(ctx context.Context, c *WorldCycleRecord) error

	// UpdateStatus finalises the status of a cycle.
	UpdateStatus(ctx context.Context, id, status string) error
}

// WorldCycleRecord represents a world cycle as stored in persistence.
type WorldCycleRecord struct {
	ID         string
	CycleStart time.Time
	CycleEnd   time.Time
	ExecutedAt time.Time
	Status     string
}

// EventRepository defines the secondary port for the world event chronicle.
type EventRepository interface {
	// Append records an event.
	Append(ctx context.Context, e *EventRecord) error

	// List retrieves events matching the given filters, oldest first.
	List(ctx context.Context, filters EventFilters) ([]*EventRecord, error)

	// CountByType counts events of each type occurring in [since, until).
	CountByType(ctx context.Context, since, until time.Time) (map[string]int, error)
}

// EventRecord represents an event as stored in persistence.
type EventRecord struct {
	ID         string
	Type       string
	CityID     string
	AgentID    string
	Payload    []byte // JSON
	OccurredAt time.Time
}

// EventFilters contains filter options for querying events.
type EventFilters struct {
	CityID string
	Type   string
	Limit  int
}

// AgentIdentityProvider defines the secondary port for agent identity lookup.
type AgentIdentityProvider interface {
	// GetIdentity resolves an agent. Unknown agents yield NotFound.
	GetIdentity(ctx context.Context, agentID string) (*AgentIdentity, error)

	// RecordFirstClaim stores the first city an agent claimed. Later calls
	// leave an existing value untouched.
	RecordFirstClaim(ctx context.Context, agentID, cityID string) error

	// CountAgents returns the number of registered agents.
	CountAgents(ctx context.Context) (int, error)
}

// AgentIdentity represents an agent's identity as provided by the secondary port.
type AgentIdentity struct {
	AgentID             string
	Name                string
	HasVerifiedIdentity bool
	FirstCityClaimedID  string
}

// ReportGenerator defines the secondary port for periodic world reports.
type ReportGenerator interface {
	// Generate gathers metrics for the period and stores a report. A report
	// already stored for the same kind and period is returned with created false.
	Generate(ctx context.Context, req ReportRequest) (report *ReportRecord, created bool, err error)
}

// ReportRequest describes a report to generate.
type ReportRequest struct {
	Kind        string
	PeriodStart time.Time
	PeriodEnd   time.Time
	GeneratedAt time.Time
}

// ReportRecord represents a stored world report.
type ReportRecord struct {
	ID          string
	Kind        string
	PeriodStart time.Time
	PeriodEnd   time.Time
	GeneratedAt time.Time
	Metrics     ReportMetrics
}

// ReportMetrics are the figures a world report summarises.
type ReportMetrics struct {
	CitiesByStatus map[string]int `json:"cities_by_status"`
	EventsByType   map[string]int `json:"events_by_type"`
	AgentCount     int            `json:"agent_count"`
}
