package app

import (
	"context"

	"github.com/example/civitas/internal/core/building"
	"github.com/example/civitas/internal/core/city"
	"github.com/example/civitas/internal/ports/primary"
	"github.com/example/civitas/internal/ports/secondary"
	"github.com/example/civitas/internal/worlderr"
)

func cityState(r *secondary.CityRecord) city.State {
	return city.State{
		Status:       city.Status(r.Status),
		GovernorID:   r.GovernorID,
		ClaimedAt:    r.ClaimedAt,
		LastBeaconAt: r.LastBeaconAt,
		StreakDays:   r.StreakDays,
		ContestedAt:  r.ContestedAt,
		Focus:        city.Focus(r.Focus),
		FocusSetAt:   r.FocusSetAt,
	}
}

func applyCityState(r *secondary.CityRecord, s city.State) {
	r.Status = string(s.Status)
	r.GovernorID = s.GovernorID
	r.ClaimedAt = s.ClaimedAt
	r.LastBeaconAt = s.LastBeaconAt
	r.StreakDays = s.StreakDays
	r.ContestedAt = s.ContestedAt
	r.Focus = string(s.Focus)
	r.FocusSetAt = s.FocusSetAt
}

// writeCity stores s into r after checking the governance invariants.
// A state that breaks them is rejected before anything is written.
func writeCity(ctx context.Context, st secondary.Store, r *secondary.CityRecord, s city.State) error {
	if msg := city.CheckInvariants(s); msg != "" {
		return worlderr.InvalidState("write_city", "city %s: %s", r.ID, msg)
	}
	applyCityState(r, s)
	return st.Cities().Update(ctx, r)
}

func recordToCity(r *secondary.CityRecord) *primary.City {
	return &primary.City{
		ID:           r.ID,
		Name:         r.Name,
		Region:       r.Region,
		Status:       r.Status,
		GovernorID:   r.GovernorID,
		ClaimedAt:    r.ClaimedAt,
		LastBeaconAt: r.LastBeaconAt,
		StreakDays:   r.StreakDays,
		ContestedAt:  r.ContestedAt,
		Focus:        r.Focus,
		FocusSetAt:   r.FocusSetAt,
	}
}

func buildingState(r *secondary.BuildingRecord) building.State {
	return building.State{
		Level:      r.Level,
		Upgrading:  r.Upgrading,
		StartedAt:  r.UpgradeStartedAt,
		CompleteAt: r.UpgradeCompleteAt,
	}
}

func applyBuildingState(r *secondary.BuildingRecord, s building.State) {
	r.Level = s.Level
	r.Upgrading = s.Upgrading
	r.UpgradeStartedAt = s.StartedAt
	r.UpgradeCompleteAt = s.CompleteAt
}

func recordToBuilding(r *secondary.BuildingRecord) *primary.Building {
	return &primary.Building{
		ID:                r.ID,
		CityID:            r.CityID,
		Type:              r.Type,
		Level:             r.Level,
		Upgrading:         r.Upgrading,
		UpgradeStartedAt:  r.UpgradeStartedAt,
		UpgradeCompleteAt: r.UpgradeCompleteAt,
	}
}
