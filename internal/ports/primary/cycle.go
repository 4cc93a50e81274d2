package primary

import (
	"context"
	"time"
)

// WorldCycleService defines the primary port for the world cycle orchestrator.
type WorldCycleService interface {
	// RunWorldCycle runs one world tick if the minimum interval has elapsed.
	RunWorldCycle(ctx context.Context, now time.Time) (*CycleResult, error)
}

// CycleResult aggregates the per-step outcomes of a world cycle.
type CycleResult struct {
	CycleID    string
	Skipped    bool
	Remaining  time.Duration // wait until the next cycle is allowed when Skipped
	NextAt     *time.Time    // earliest time the next cycle may run when Skipped
	Reason     string
	Status     string
	CycleStart time.Time
	CycleEnd   time.Time
	Cities     []*CityTickResult
	Sweep      *SweepResult
	SweepError string
	Reports    []*ReportResult
}

// CityTickResult is the outcome of the per-city step of a cycle.
type CityTickResult struct {
	CityID            string
	Ticked            bool
	Efficiency        float64
	UpgradesCompleted int
	Error             string
}

// ReportResult is the outcome of one report trigger.
type ReportResult struct {
	Kind     string
	ReportID string
	Error    string
}

// Failed counts the steps of the cycle that failed.
func (r *CycleResult) Failed() int {
	n := 0
	for _, c := range r.Cities {
		if c.Error != "" {
			n++
		}
	}
	if r.SweepError != "" {
		n++
	}
	if r.Sweep != nil {
		n += len(r.Sweep.Failures)
	}
	for _, rep := range r.Reports {
		if rep.Error != "" {
			n++
		}
	}
	return n
}
