// Package cycle contains the pure gating and calendar rules of the world cycle.
package cycle

import (
	"fmt"
	"time"
)

// Status values for a world cycle row.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusPartial   = "partial"
)

// GateResult is the outcome of checking whether a cycle may run now.
type GateResult struct {
	Allowed       bool
	Remaining     time.Duration
	NextAllowedAt time.Time
	Reason        string
}

// CanRun evaluates the minimum inter-tick spacing.
// A world with no prior cycle may always run.
func CanRun(lastExecutedAt *time.Time, now time.Time, interval time.Duration) GateResult {
	if lastExecutedAt == nil {
		return GateResult{Allowed: true}
	}
	elapsed := now.Sub(*lastExecutedAt)
	if elapsed < interval {
		next := lastExecutedAt.Add(interval)
		return GateResult{
			Allowed:       false,
			Remaining:     interval - elapsed,
			NextAllowedAt: next,
			Reason:        fmt.Sprintf("last cycle ran at %s; next cycle allowed at %s", lastExecutedAt.UTC().Format(time.RFC3339), next.UTC().Format(time.RFC3339)),
		}
	}
	return GateResult{Allowed: true}
}

// Span returns the [start, end] window covered by a cycle executed at now.
func Span(lastExecutedAt *time.Time, now time.Time, interval time.Duration) (start, end time.Time) {
	if lastExecutedAt == nil {
		return now.Add(-interval), now
	}
	return *lastExecutedAt, now
}

// FinalStatus is completed when every step succeeded, partial otherwise.
func FinalStatus(failures int) string {
	if failures > 0 {
		return StatusPartial
	}
	return StatusCompleted
}
