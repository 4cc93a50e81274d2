package primary

import (
	"context"
	"time"
)

// BuildingService defines the primary port for building upgrades.
type BuildingService interface {
	// StartUpgrade debits the upgrade cost and marks the building upgrading.
	StartUpgrade(ctx context.Context, req StartUpgradeRequest) (*StartUpgradeResponse, error)

	// CompleteUpgrades finishes every upgrade in the city that is due at now.
	// Re-running it with no elapsed time is a no-op.
	CompleteUpgrades(ctx context.Context, cityID string, now time.Time) (*CompleteUpgradesResult, error)
}

// StartUpgradeRequest contains parameters for starting an upgrade.
type StartUpgradeRequest struct {
	CityID       string
	BuildingType string
	AgentID      string
	Reason       string // Optional
}

// StartUpgradeResponse contains the result of starting an upgrade.
type StartUpgradeResponse struct {
	BuildingID    string
	Level         int
	NextLevel     int
	CostMaterials int64
	CostEnergy    int64
	StartedAt     time.Time
	CompleteAt    time.Time
}

// CompleteUpgradesResult lists the buildings an upgrade sweep finished.
type CompleteUpgradesResult struct {
	CityID    string
	Completed []*Building
}

// Building represents a building at the port boundary.
type Building struct {
	ID                string
	CityID            string
	Type              string
	Level             int
	Upgrading         bool
	UpgradeStartedAt  *time.Time
	UpgradeCompleteAt *time.Time
}
