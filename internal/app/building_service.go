package app

import (
	"context"
	"errors"
	"time"

	corebuilding "github.com/example/civitas/internal/core/building"
	corecity "github.com/example/civitas/internal/core/city"
	"github.com/example/civitas/internal/core/effects"
	"github.com/example/civitas/internal/ports/primary"
	"github.com/example/civitas/internal/ports/secondary"
	"github.com/example/civitas/internal/worlderr"
)

// BuildingServiceImpl implements the BuildingService interface.
type BuildingServiceImpl struct {
	uow   *UnitOfWork
	clock secondary.Clock
	rules corebuilding.Rules
}

// NewBuildingService creates a new BuildingService with injected dependencies.
func NewBuildingService(uow *UnitOfWork, clock secondary.Clock, rules corebuilding.Rules) *BuildingServiceImpl {
	return &BuildingServiceImpl{
		uow:   uow,
		clock: clock,
		rules: rules,
	}
}

// StartUpgrade debits the upgrade cost and marks the building upgrading.
// The debit and the building update commit together.
func (s *BuildingServiceImpl) StartUpgrade(ctx context.Context, req primary.StartUpgradeRequest) (*primary.StartUpgradeResponse, error) {
	typ, ok := corebuilding.ParseType(req.BuildingType)
	if !ok {
		return nil, worlderr.NotFound("start_upgrade", "unknown building type %q", req.BuildingType)
	}
	now := s.clock.Now()
	var resp *primary.StartUpgradeResponse

	err := s.uow.Run(ctx, "start_upgrade", func(ctx context.Context, st secondary.Store) ([]effects.Effect, error) {
		record, err := st.Cities().GetByID(ctx, req.CityID)
		if err != nil {
			return nil, err
		}
		if err := corecity.IsGovernor(corecity.GovernorContext{
			CityID:     record.ID,
			GovernorID: record.GovernorID,
			AgentID:    req.AgentID,
		}).Error(); err != nil {
			return nil, err
		}

		b, err := st.Buildings().GetByCityAndType(ctx, req.CityID, string(typ))
		if err != nil && !errors.Is(err, worlderr.ErrNotFound) {
			return nil, err
		}
		balance, err := st.Balances().GetByCity(ctx, req.CityID)
		if err != nil {
			return nil, err
		}

		guardCtx := corebuilding.StartUpgradeContext{
			CityID:    req.CityID,
			Type:      typ,
			Materials: balance.Materials,
			Energy:    balance.Energy,
		}
		var plan corebuilding.Plan
		if b != nil {
			plan = corebuilding.PlanUpgrade(s.rules, typ, b.Level, balance.Knowledge, now)
			guardCtx.BuildingExists = true
			guardCtx.Upgrading = b.Upgrading
			guardCtx.Cost = plan.Cost
		}
		if err := corebuilding.CanStartUpgrade(guardCtx).Error(); err != nil {
			return nil, err
		}

		balance.Materials -= plan.Cost.Materials
		balance.Energy -= plan.Cost.Energy
		balance.UpdatedAt = now
		if err := st.Balances().Update(ctx, balance); err != nil {
			return nil, err
		}

		applyBuildingState(b, corebuilding.ApplyStart(buildingState(b), plan))
		b.UpdatedAt = now
		if err := st.Buildings().Update(ctx, b); err != nil {
			return nil, err
		}

		resp = &primary.StartUpgradeResponse{
			BuildingID:    b.ID,
			Level:         plan.Level,
			NextLevel:     plan.NextLevel,
			CostMaterials: plan.Cost.Materials,
			CostEnergy:    plan.Cost.Energy,
			StartedAt:     plan.StartedAt,
			CompleteAt:    plan.CompleteAt,
		}
		return []effects.Effect{
			effects.UpgradeStarted(req.CityID, req.AgentID, string(typ), plan.Level, plan.NextLevel,
				plan.Cost.Materials, plan.Cost.Energy, plan.CompleteAt, req.Reason, now),
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// CompleteUpgrades finishes every upgrade in the city that is due at now.
func (s *BuildingServiceImpl) CompleteUpgrades(ctx context.Context, cityID string, now time.Time) (*primary.CompleteUpgradesResult, error) {
	result := &primary.CompleteUpgradesResult{CityID: cityID}

	err := s.uow.Run(ctx, "complete_upgrades", func(ctx context.Context, st secondary.Store) ([]effects.Effect, error) {
		result.Completed = nil
		if _, err := st.Cities().GetByID(ctx, cityID); err != nil {
			return nil, err
		}
		due, err := st.Buildings().ListDue(ctx, cityID, now)
		if err != nil {
			return nil, err
		}

		var effs []effects.Effect
		for _, b := range due {
			state := buildingState(b)
			if !corebuilding.IsDue(state, now) {
				continue
			}
			applyBuildingState(b, corebuilding.ApplyComplete(state))
			b.UpdatedAt = now
			if err := st.Buildings().Update(ctx, b); err != nil {
				return nil, err
			}
			result.Completed = append(result.Completed, recordToBuilding(b))
			effs = append(effs, effects.UpgradeCompleted(cityID, b.ID, b.Type, b.Level, now))
		}
		return effs, nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Ensure BuildingServiceImpl implements the interface
var _ primary.BuildingService = (*BuildingServiceImpl)(nil)
