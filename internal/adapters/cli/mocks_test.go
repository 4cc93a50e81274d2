package cli

import (
	"context"
	"time"

	"github.com/example/civitas/internal/ports/primary"
)

// mockGovernanceService implements primary.GovernanceService for testing
type mockGovernanceService struct {
	claimFn   func(ctx context.Context, req primary.ClaimCityRequest) (*primary.City, error)
	beaconFn  func(ctx context.Context, req primary.EmitBeaconRequest) (*primary.Beacon, error)
	sweepFn   func(ctx context.Context, now time.Time) (*primary.SweepResult, error)
	cities    []*primary.City
	beacons   []*primary.Beacon
	lastClaim primary.ClaimCityRequest
}

func (m *mockGovernanceService) ClaimCity(ctx context.Context, req primary.ClaimCityRequest) (*primary.City, error) {
	m.lastClaim = req
	if m.claimFn != nil {
		return m.claimFn(ctx, req)
	}
	return &primary.City{ID: req.CityID, Name: "Aurelia", Status: primary.CityStatusGoverned, GovernorID: req.AgentID}, nil
}

func (m *mockGovernanceService) EmitBeacon(ctx context.Context, req primary.EmitBeaconRequest) (*primary.Beacon, error) {
	if m.beaconFn != nil {
		return m.beaconFn(ctx, req)
	}
	return &primary.Beacon{ID: "BEACON-1", CityID: req.CityID, AgentID: req.AgentID, StreakDays: 1}, nil
}

func (m *mockGovernanceService) RunOverdueSweep(ctx context.Context, now time.Time) (*primary.SweepResult, error) {
	if m.sweepFn != nil {
		return m.sweepFn(ctx, now)
	}
	return &primary.SweepResult{}, nil
}

func (m *mockGovernanceService) GetCity(ctx context.Context, cityID string) (*primary.City, error) {
	for _, c := range m.cities {
		if c.ID == cityID {
			return c, nil
		}
	}
	return nil, errNotFound
}

func (m *mockGovernanceService) ListCities(ctx context.Context, filters primary.CityFilters) ([]*primary.City, error) {
	var out []*primary.City
	for _, c := range m.cities {
		if filters.Status == "" || c.Status == filters.Status {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *mockGovernanceService) ListBeacons(ctx context.Context, cityID string, limit int) ([]*primary.Beacon, error) {
	return m.beacons, nil
}

// mockEconomyService implements primary.EconomyService for testing
type mockEconomyService struct {
	view    *primary.CityEconomy
	lastReq primary.SetFocusRequest
	err     error
}

func (m *mockEconomyService) SetFocus(ctx context.Context, req primary.SetFocusRequest) (*primary.SetFocusResponse, error) {
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	return &primary.SetFocusResponse{CityID: req.CityID, OldFocus: "INFRASTRUCTURE", NewFocus: req.Focus, Cost: 50}, nil
}

func (m *mockEconomyService) GetCityEconomy(ctx context.Context, cityID string) (*primary.CityEconomy, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.view, nil
}

// mockBuildingService implements primary.BuildingService for testing
type mockBuildingService struct {
	completed []*primary.Building
	err       error
}

func (m *mockBuildingService) StartUpgrade(ctx context.Context, req primary.StartUpgradeRequest) (*primary.StartUpgradeResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &primary.StartUpgradeResponse{BuildingID: "B-1", Level: 0, NextLevel: 1, CostMaterials: 100, CostEnergy: 40}, nil
}

func (m *mockBuildingService) CompleteUpgrades(ctx context.Context, cityID string, now time.Time) (*primary.CompleteUpgradesResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &primary.CompleteUpgradesResult{CityID: cityID, Completed: m.completed}, nil
}

// mockWorldCycleService implements primary.WorldCycleService for testing
type mockWorldCycleService struct {
	result *primary.CycleResult
	err    error
}

func (m *mockWorldCycleService) RunWorldCycle(ctx context.Context, now time.Time) (*primary.CycleResult, error) {
	return m.result, m.err
}
