package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	corecity "github.com/example/civitas/internal/core/city"
	"github.com/example/civitas/internal/core/effects"
	"github.com/example/civitas/internal/ctxutil"
	"github.com/example/civitas/internal/ports/primary"
	"github.com/example/civitas/internal/ports/secondary"
	"github.com/example/civitas/internal/worlderr"
)

// GovernanceServiceImpl implements the GovernanceService interface.
type GovernanceServiceImpl struct {
	uow          *UnitOfWork
	clock        secondary.Clock
	beaconWindow time.Duration
}

// NewGovernanceService creates a new GovernanceService with injected dependencies.
func NewGovernanceService(uow *UnitOfWork, clock secondary.Clock, beaconWindow time.Duration) *GovernanceServiceImpl {
	return &GovernanceServiceImpl{
		uow:          uow,
		clock:        clock,
		beaconWindow: beaconWindow,
	}
}

// ClaimCity assigns an open city to a verified agent.
func (s *GovernanceServiceImpl) ClaimCity(ctx context.Context, req primary.ClaimCityRequest) (*primary.City, error) {
	now := s.clock.Now()
	var claimed *secondary.CityRecord

	err := s.uow.Run(ctx, "claim_city", func(ctx context.Context, st secondary.Store) ([]effects.Effect, error) {
		record, err := st.Cities().GetByID(ctx, req.CityID)
		if err != nil {
			return nil, err
		}

		guardCtx := corecity.ClaimContext{
			CityID:  record.ID,
			Status:  corecity.Status(record.Status),
			AgentID: req.AgentID,
		}
		// Status is checked before the identity lookup.
		if guardCtx.Status == corecity.StatusOpen {
			verified, err := s.isVerified(ctx, st, req.AgentID)
			if err != nil {
				return nil, err
			}
			guardCtx.HasVerifiedIdentity = verified
		}
		if err := corecity.CanClaim(guardCtx).Error(); err != nil {
			return nil, err
		}

		if err := writeCity(ctx, st, record, corecity.ApplyClaim(cityState(record), req.AgentID, now)); err != nil {
			return nil, err
		}
		if err := st.Identities().RecordFirstClaim(ctx, req.AgentID, record.ID); err != nil {
			return nil, err
		}

		claimed = record
		return []effects.Effect{
			effects.CityClaimed(record.ID, req.AgentID, record.Name, now),
			effects.LogEffect{Level: "info", Message: "city claimed", Fields: map[string]any{"city_id": record.ID, "agent_id": req.AgentID}},
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return recordToCity(claimed), nil
}

func (s *GovernanceServiceImpl) isVerified(ctx context.Context, st secondary.Store, agentID string) (bool, error) {
	identity, err := st.Identities().GetIdentity(ctx, agentID)
	if errors.Is(err, worlderr.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to look up identity: %w", err)
	}
	return identity.HasVerifiedIdentity, nil
}

// EmitBeacon records a presence proof from the city's governor.
func (s *GovernanceServiceImpl) EmitBeacon(ctx context.Context, req primary.EmitBeaconRequest) (*primary.Beacon, error) {
	now := s.clock.Now()
	var result *primary.Beacon

	err := s.uow.Run(ctx, "emit_beacon", func(ctx context.Context, st secondary.Store) ([]effects.Effect, error) {
		record, err := st.Cities().GetByID(ctx, req.CityID)
		if err != nil {
			return nil, err
		}
		if err := corecity.CanEmitBeacon(corecity.BeaconContext{
			CityID:     record.ID,
			Status:     corecity.Status(record.Status),
			GovernorID: record.GovernorID,
			AgentID:    req.AgentID,
		}).Error(); err != nil {
			return nil, err
		}

		outcome := corecity.ApplyBeacon(cityState(record), now, s.beaconWindow)

		beacon := &secondary.BeaconRecord{
			CityID:    record.ID,
			AgentID:   req.AgentID,
			EmittedAt: now,
			Message:   req.Message,
			Recovered: outcome.Recovered,
		}
		if err := st.Beacons().Create(ctx, beacon); err != nil {
			return nil, err
		}

		if err := writeCity(ctx, st, record, outcome.State); err != nil {
			return nil, err
		}

		result = &primary.Beacon{
			ID:         beacon.ID,
			CityID:     beacon.CityID,
			AgentID:    beacon.AgentID,
			EmittedAt:  beacon.EmittedAt,
			Message:    beacon.Message,
			Recovered:  beacon.Recovered,
			StreakDays: outcome.State.StreakDays,
		}
		return []effects.Effect{
			effects.BeaconEmitted(record.ID, req.AgentID, beacon.ID, req.Message, effects.BeaconStreak{
				Recovered:      outcome.Recovered,
				Continued:      outcome.WithinWindow,
				PreviousStreak: outcome.PreviousStreak,
				Streak:         outcome.State.StreakDays,
			}, now),
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// RunOverdueSweep contests every governed city whose beacon window lapsed.
// Each city is contested in its own transaction; failures are recorded and
// the sweep continues. Only failing to list the cities is fatal.
func (s *GovernanceServiceImpl) RunOverdueSweep(ctx context.Context, now time.Time) (*primary.SweepResult, error) {
	var governed []*secondary.CityRecord
	err := s.uow.Read(ctx, func(ctx context.Context, st secondary.Store) error {
		var err error
		governed, err = st.Cities().List(ctx, secondary.CityFilters{Status: string(corecity.StatusGoverned)})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list governed cities: %w", err)
	}

	result := &primary.SweepResult{Checked: len(governed)}
	for _, candidate := range governed {
		if !corecity.IsOverdue(cityState(candidate), now, s.beaconWindow) {
			continue
		}
		contested, err := s.contestCity(ctx, candidate.ID, now)
		if err != nil {
			ctxutil.Logger(ctx).Warn("overdue sweep failed for city", "city_id", candidate.ID, "error", err)
			result.Failures = append(result.Failures, primary.EntityFailure{ID: candidate.ID, Error: err.Error()})
			continue
		}
		if contested {
			result.Contested = append(result.Contested, candidate.ID)
		}
	}
	return result, nil
}

// contestCity re-reads the city in its own transaction so a beacon that
// landed after the list was taken is honoured.
func (s *GovernanceServiceImpl) contestCity(ctx context.Context, cityID string, now time.Time) (bool, error) {
	contested := false
	err := s.uow.Run(ctx, "overdue_sweep", func(ctx context.Context, st secondary.Store) ([]effects.Effect, error) {
		contested = false
		record, err := st.Cities().GetByID(ctx, cityID)
		if err != nil {
			return nil, err
		}
		state := cityState(record)
		if !corecity.IsOverdue(state, now, s.beaconWindow) {
			return nil, nil
		}

		if err := writeCity(ctx, st, record, corecity.ApplyContest(state, now)); err != nil {
			return nil, err
		}
		contested = true
		return []effects.Effect{
			effects.CityContested(record.ID, record.GovernorID, record.Name, state.LastBeaconAt, state.StreakDays, now),
		}, nil
	})
	return contested, err
}

// GetCity retrieves a city by ID.
func (s *GovernanceServiceImpl) GetCity(ctx context.Context, cityID string) (*primary.City, error) {
	var record *secondary.CityRecord
	err := s.uow.Read(ctx, func(ctx context.Context, st secondary.Store) error {
		var err error
		record, err = st.Cities().GetByID(ctx, cityID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return recordToCity(record), nil
}

// ListCities lists cities with optional filters.
func (s *GovernanceServiceImpl) ListCities(ctx context.Context, filters primary.CityFilters) ([]*primary.City, error) {
	var records []*secondary.CityRecord
	err := s.uow.Read(ctx, func(ctx context.Context, st secondary.Store) error {
		var err error
		records, err = st.Cities().List(ctx, secondary.CityFilters{Status: filters.Status})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list cities: %w", err)
	}

	cities := make([]*primary.City, len(records))
	for i, r := range records {
		cities[i] = recordToCity(r)
	}
	return cities, nil
}

// ListBeacons lists a city's beacons, newest first.
func (s *GovernanceServiceImpl) ListBeacons(ctx context.Context, cityID string, limit int) ([]*primary.Beacon, error) {
	var records []*secondary.BeaconRecord
	err := s.uow.Read(ctx, func(ctx context.Context, st secondary.Store) error {
		if _, err := st.Cities().GetByID(ctx, cityID); err != nil {
			return err
		}
		var err error
		records, err = st.Beacons().ListByCity(ctx, cityID, limit)
		return err
	})
	if err != nil {
		return nil, err
	}

	beacons := make([]*primary.Beacon, len(records))
	for i, r := range records {
		beacons[i] = &primary.Beacon{
			ID:        r.ID,
			CityID:    r.CityID,
			AgentID:   r.AgentID,
			EmittedAt: r.EmittedAt,
			Message:   r.Message,
			Recovered: r.Recovered,
		}
	}
	return beacons, nil
}

// Ensure GovernanceServiceImpl implements the interface
var _ primary.GovernanceService = (*GovernanceServiceImpl)(nil)
