package app

import (
	"context"
	"time"

	corebuilding "github.com/example/civitas/internal/core/building"
	corecity "github.com/example/civitas/internal/core/city"
	"github.com/example/civitas/internal/core/economy"
	"github.com/example/civitas/internal/core/effects"
	"github.com/example/civitas/internal/ports/primary"
	"github.com/example/civitas/internal/ports/secondary"
	"github.com/example/civitas/internal/worlderr"
)

// FocusPolicy prices development focus changes.
type FocusPolicy struct {
	Cost     int64
	Cooldown time.Duration
}

// EconomyServiceImpl implements the EconomyService interface.
type EconomyServiceImpl struct {
	uow    *UnitOfWork
	clock  secondary.Clock
	tuning economy.Tuning
	focus  FocusPolicy
}

// NewEconomyService creates a new EconomyService with injected dependencies.
func NewEconomyService(uow *UnitOfWork, clock secondary.Clock, tuning economy.Tuning, focus FocusPolicy) *EconomyServiceImpl {
	return &EconomyServiceImpl{
		uow:    uow,
		clock:  clock,
		tuning: tuning,
		focus:  focus,
	}
}

// SetFocus changes a city's development focus for an influence cost.
// Re-selecting the current focus is charged like any other change.
func (s *EconomyServiceImpl) SetFocus(ctx context.Context, req primary.SetFocusRequest) (*primary.SetFocusResponse, error) {
	focus, ok := corecity.ParseFocus(req.Focus)
	if !ok {
		return nil, worlderr.InvalidState("set_focus", "unknown focus %q", req.Focus)
	}
	now := s.clock.Now()
	var resp *primary.SetFocusResponse

	err := s.uow.Run(ctx, "set_focus", func(ctx context.Context, st secondary.Store) ([]effects.Effect, error) {
		record, err := st.Cities().GetByID(ctx, req.CityID)
		if err != nil {
			return nil, err
		}
		balance, err := st.Balances().GetByCity(ctx, req.CityID)
		if err != nil {
			return nil, err
		}

		if err := corecity.CanSetFocus(corecity.FocusContext{
			CityID:     record.ID,
			GovernorID: record.GovernorID,
			AgentID:    req.AgentID,
			FocusSetAt: record.FocusSetAt,
			Now:        now,
			Cooldown:   s.focus.Cooldown,
			Influence:  balance.Influence,
			Cost:       s.focus.Cost,
		}).Error(); err != nil {
			return nil, err
		}

		balance.Influence -= s.focus.Cost
		balance.UpdatedAt = now
		if err := st.Balances().Update(ctx, balance); err != nil {
			return nil, err
		}

		old := record.Focus
		if err := writeCity(ctx, st, record, corecity.ApplyFocus(cityState(record), focus, now)); err != nil {
			return nil, err
		}

		resp = &primary.SetFocusResponse{
			CityID:     record.ID,
			OldFocus:   old,
			NewFocus:   record.Focus,
			Cost:       s.focus.Cost,
			FocusSetAt: now,
		}
		return []effects.Effect{
			effects.FocusChanged(record.ID, req.AgentID, old, record.Focus, s.focus.Cost, req.Reason, now),
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// GetCityEconomy returns the read-only economy projection of a city.
func (s *EconomyServiceImpl) GetCityEconomy(ctx context.Context, cityID string) (*primary.CityEconomy, error) {
	var (
		record    *secondary.CityRecord
		balance   *secondary.BalanceRecord
		buildings []*secondary.BuildingRecord
	)
	err := s.uow.Read(ctx, func(ctx context.Context, st secondary.Store) error {
		var err error
		if record, err = st.Cities().GetByID(ctx, cityID); err != nil {
			return err
		}
		if balance, err = st.Balances().GetByCity(ctx, cityID); err != nil {
			return err
		}
		buildings, err = st.Buildings().ListByCity(ctx, cityID)
		return err
	})
	if err != nil {
		return nil, err
	}

	view := &primary.CityEconomy{
		CityID: record.ID,
		Balances: primary.Balances{
			Materials: balance.Materials,
			Energy:    balance.Energy,
			Knowledge: balance.Knowledge,
			Influence: balance.Influence,
		},
		Focus:            record.Focus,
		FocusSetAt:       record.FocusSetAt,
		FocusAvailableAt: corecity.FocusAvailableAt(cityState(record), s.clock.Now(), s.focus.Cooldown),
	}
	levels := economy.Levels{}
	for _, b := range buildings {
		levels[corebuilding.Type(b.Type)] = b.Level
		view.Buildings = append(view.Buildings, recordToBuilding(b))
	}
	view.StorageCap = s.tuning.StorageCap(levels[corebuilding.TypeFoundry])
	return view, nil
}

// Tick runs one economy tick for a city in its own transaction.
func (s *EconomyServiceImpl) Tick(ctx context.Context, cityID string, now time.Time) (economy.TickReport, error) {
	var report economy.TickReport
	err := s.uow.Run(ctx, "economy_tick", func(ctx context.Context, st secondary.Store) ([]effects.Effect, error) {
		record, err := st.Cities().GetByID(ctx, cityID)
		if err != nil {
			return nil, err
		}
		buildings, err := st.Buildings().ListByCity(ctx, cityID)
		if err != nil {
			return nil, err
		}
		balance, err := st.Balances().GetByCity(ctx, cityID)
		if err != nil {
			return nil, err
		}

		levels := economy.Levels{}
		for _, b := range buildings {
			levels[corebuilding.Type(b.Type)] = b.Level
		}
		focus := corecity.Focus(record.Focus)
		if focus == "" {
			focus = corecity.DefaultFocus
		}

		var next economy.Balance
		next, report = economy.Tick(s.tuning, levels, focus, economy.Balance{
			Materials: balance.Materials,
			Energy:    balance.Energy,
			Knowledge: balance.Knowledge,
			Influence: balance.Influence,
		})

		balance.Materials = next.Materials
		balance.Energy = next.Energy
		balance.Knowledge = next.Knowledge
		balance.Influence = next.Influence
		balance.UpdatedAt = now
		if err := st.Balances().Update(ctx, balance); err != nil {
			return nil, err
		}
		return []effects.Effect{effects.LogEffect{
			Level:   "debug",
			Message: "economy tick",
			Fields: map[string]any{
				"city_id":    cityID,
				"efficiency": report.Efficiency,
				"discarded":  report.Discarded.Materials + report.Discarded.Energy,
			},
		}}, nil
	})
	return report, err
}

// Ensure EconomyServiceImpl implements the interface
var _ primary.EconomyService = (*EconomyServiceImpl)(nil)
