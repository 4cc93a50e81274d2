package building

import (
	"fmt"
	"time"

	"github.com/example/civitas/internal/worlderr"
)

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Kind    worlderr.Kind
	Reason  string
}

// Error converts the guard result to a typed error if not allowed.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	return &worlderr.Error{Kind: r.Kind, Message: r.Reason}
}

// State is the upgrade-relevant slice of a building row.
type State struct {
	Level      int
	Upgrading  bool
	StartedAt  *time.Time
	CompleteAt *time.Time
}

// StartUpgradeContext provides context for upgrade start guards.
type StartUpgradeContext struct {
	CityID         string
	Type           Type
	BuildingExists bool
	Upgrading      bool
	Materials      int64
	Energy         int64
	Cost           Cost
}

// CanStartUpgrade evaluates whether a building upgrade can begin.
// Rules:
// - Building must exist
// - Building must not already be upgrading
// - City must afford the cost
func CanStartUpgrade(ctx StartUpgradeContext) GuardResult {
	if !ctx.BuildingExists {
		return GuardResult{
			Allowed: false,
			Kind:    worlderr.KindNotFound,
			Reason:  fmt.Sprintf("building %s not found in city %s", ctx.Type, ctx.CityID),
		}
	}
	if ctx.Upgrading {
		return GuardResult{
			Allowed: false,
			Kind:    worlderr.KindAlreadyInProgress,
			Reason:  fmt.Sprintf("building %s in city %s is already upgrading", ctx.Type, ctx.CityID),
		}
	}
	if ctx.Materials < ctx.Cost.Materials || ctx.Energy < ctx.Cost.Energy {
		return GuardResult{
			Allowed: false,
			Kind:    worlderr.KindInsufficientResources,
			Reason: fmt.Sprintf("insufficient resources: needed %d materials, %d energy (have %d, %d)",
				ctx.Cost.Materials, ctx.Cost.Energy, ctx.Materials, ctx.Energy),
		}
	}
	return GuardResult{Allowed: true}
}

// ApplyStart marks a building as upgrading per plan.
func ApplyStart(s State, p Plan) State {
	started, done := p.StartedAt, p.CompleteAt
	s.Upgrading = true
	s.StartedAt = &started
	s.CompleteAt = &done
	return s
}

// IsDue reports whether an in-flight upgrade has reached its completion time.
func IsDue(s State, now time.Time) bool {
	return s.Upgrading && s.CompleteAt != nil && !s.CompleteAt.After(now)
}

// ApplyComplete finishes an upgrade. Idle buildings are returned unchanged.
func ApplyComplete(s State) State {
	if !s.Upgrading {
		return s
	}
	s.Level++
	s.Upgrading = false
	s.StartedAt = nil
	s.CompleteAt = nil
	return s
}
