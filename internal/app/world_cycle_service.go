package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/example/civitas/internal/core/cycle"
	"github.com/example/civitas/internal/core/economy"
	"github.com/example/civitas/internal/core/effects"
	"github.com/example/civitas/internal/ctxutil"
	"github.com/example/civitas/internal/ports/primary"
	"github.com/example/civitas/internal/ports/secondary"
)

// CityTicker runs the economy step of a cycle for one city.
type CityTicker interface {
	Tick(ctx context.Context, cityID string, now time.Time) (economy.TickReport, error)
}

// CycleOptions tune the world cycle orchestrator.
type CycleOptions struct {
	Interval    time.Duration
	CityTimeout time.Duration
	Parallelism int
}

// WorldCycleServiceImpl implements the WorldCycleService interface.
type WorldCycleServiceImpl struct {
	uow        *UnitOfWork
	governance primary.GovernanceService
	buildings  primary.BuildingService
	ticker     CityTicker
	opts       CycleOptions
}

// NewWorldCycleService creates a new WorldCycleService with injected dependencies.
func NewWorldCycleService(
	uow *UnitOfWork,
	governance primary.GovernanceService,
	buildings primary.BuildingService,
	ticker CityTicker,
	opts CycleOptions,
) *WorldCycleServiceImpl {
	if opts.Parallelism < 1 {
		opts.Parallelism = 1
	}
	return &WorldCycleServiceImpl{
		uow:        uow,
		governance: governance,
		buildings:  buildings,
		ticker:     ticker,
		opts:       opts,
	}
}

// RunWorldCycle runs one world tick if the minimum interval has elapsed.
//
// Steps: gate and record the cycle, tick and complete upgrades per city,
// sweep overdue beacons, generate due reports, finalise the cycle status.
// A failing city or report is recorded in the result and does not stop the cycle.
func (s *WorldCycleServiceImpl) RunWorldCycle(ctx context.Context, now time.Time) (*primary.CycleResult, error) {
	result, err := s.open(ctx, now)
	if err != nil {
		return nil, err
	}
	if result.Skipped {
		ctxutil.Logger(ctx).Info("world cycle skipped", "remaining", result.Remaining, "next_allowed_at", result.NextAt)
		return result, nil
	}

	ctx = ctxutil.WithLogAttrs(ctx, "cycle_id", result.CycleID)
	log := ctxutil.Logger(ctx)
	log.Info("world cycle started", "cycle_start", result.CycleStart, "cycle_end", result.CycleEnd)

	cities, err := s.governance.ListCities(ctx, primary.CityFilters{})
	if err != nil {
		s.finish(ctx, result.CycleID, cycle.StatusPartial)
		return nil, fmt.Errorf("failed to list cities for cycle: %w", err)
	}

	result.Cities = s.tickCities(ctx, cities, now)

	sweep, err := s.governance.RunOverdueSweep(ctx, now)
	if err != nil {
		log.Warn("overdue sweep failed", "error", err)
		result.SweepError = err.Error()
	}
	result.Sweep = sweep

	for _, kind := range cycle.DueReports(now) {
		result.Reports = append(result.Reports, s.generateReport(ctx, kind, now))
	}

	result.Status = cycle.FinalStatus(result.Failed())
	s.finish(ctx, result.CycleID, result.Status)
	log.Info("world cycle finished", "status", result.Status, "cities", len(result.Cities), "failures", result.Failed())
	return result, nil
}

// open checks the gate and inserts the running cycle row in one transaction
// so concurrent triggers cannot both pass.
func (s *WorldCycleServiceImpl) open(ctx context.Context, now time.Time) (*primary.CycleResult, error) {
	result := &primary.CycleResult{}
	err := s.uow.Run(ctx, "run_world_cycle", func(ctx context.Context, st secondary.Store) ([]effects.Effect, error) {
		*result = primary.CycleResult{}
		latest, err := st.Cycles().GetLatest(ctx)
		if err != nil {
			return nil, err
		}

		var last *time.Time
		if latest != nil {
			last = &latest.ExecutedAt
		}
		gate := cycle.CanRun(last, now, s.opts.Interval)
		if !gate.Allowed {
			result.Skipped = true
			result.Remaining = gate.Remaining
			next := gate.NextAllowedAt
			result.NextAt = &next
			result.Reason = gate.Reason
			return nil, nil
		}

		start, end := cycle.Span(last, now, s.opts.Interval)
		rec := &secondary.WorldCycleRecord{
			CycleStart: start,
			CycleEnd:   end,
			ExecutedAt: now,
			Status:     cycle.StatusRunning,
		}
		if err := st.Cycles().Create(ctx, rec); err != nil {
			return nil, err
		}
		result.CycleID = rec.ID
		result.Status = rec.Status
		result.CycleStart = start
		result.CycleEnd = end
		return nil, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open world cycle: %w", err)
	}
	return result, nil
}

func (s *WorldCycleServiceImpl) tickCities(ctx context.Context, cities []*primary.City, now time.Time) []*primary.CityTickResult {
	results := make([]*primary.CityTickResult, len(cities))

	var g errgroup.Group
	g.SetLimit(s.opts.Parallelism)
	for i, c := range cities {
		g.Go(func() error {
			results[i] = s.tickCity(ctx, c.ID, now)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// tickCity runs the economy tick and then the upgrade-completion sweep for
// one city under the per-city timeout.
func (s *WorldCycleServiceImpl) tickCity(ctx context.Context, cityID string, now time.Time) *primary.CityTickResult {
	ctx = ctxutil.WithLogAttrs(ctx, "city_id", cityID)
	if s.opts.CityTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.CityTimeout)
		defer cancel()
	}

	res := &primary.CityTickResult{CityID: cityID}
	report, err := s.ticker.Tick(ctx, cityID, now)
	if err == nil {
		res.Ticked = true
		res.Efficiency = report.Efficiency
		var done *primary.CompleteUpgradesResult
		done, err = s.buildings.CompleteUpgrades(ctx, cityID, now)
		if err == nil {
			res.UpgradesCompleted = len(done.Completed)
		}
	}
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("city step exceeded %s: %w", s.opts.CityTimeout, err)
		}
		ctxutil.Logger(ctx).Warn("city step failed", "error", err)
		res.Error = err.Error()
	}
	return res
}

func (s *WorldCycleServiceImpl) generateReport(ctx context.Context, kind cycle.ReportKind, now time.Time) *primary.ReportResult {
	res := &primary.ReportResult{Kind: string(kind)}
	period := cycle.ReportPeriod(kind, now)

	err := s.uow.Run(ctx, "generate_report", func(ctx context.Context, st secondary.Store) ([]effects.Effect, error) {
		report, created, err := st.Reports().Generate(ctx, secondary.ReportRequest{
			Kind:        string(kind),
			PeriodStart: period.Start,
			PeriodEnd:   period.End,
			GeneratedAt: now,
		})
		if err != nil {
			return nil, err
		}
		res.ReportID = report.ID
		if !created {
			return nil, nil
		}
		return []effects.Effect{
			effects.ReportGenerated(report.ID, report.Kind, report.PeriodStart, report.PeriodEnd, now),
		}, nil
	})
	if err != nil {
		ctxutil.Logger(ctx).Warn("report generation failed", "kind", kind, "error", err)
		res.Error = err.Error()
	}
	return res
}

func (s *WorldCycleServiceImpl) finish(ctx context.Context, cycleID, status string) {
	err := s.uow.Run(ctx, "finish_world_cycle", func(ctx context.Context, st secondary.Store) ([]effects.Effect, error) {
		return nil, st.Cycles().UpdateStatus(ctx, cycleID, status)
	})
	if err != nil {
		ctxutil.Logger(ctx).Error("failed to finalise cycle status", "status", status, "error", err)
	}
}

// Ensure WorldCycleServiceImpl implements the interface
var _ primary.WorldCycleService = (*WorldCycleServiceImpl)(nil)
