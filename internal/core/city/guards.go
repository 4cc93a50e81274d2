package city

import (
	"fmt"
	"time"

	"github.com/example/civitas/internal/worlderr"
)

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Kind    worlderr.Kind // populated when not allowed
	Reason  string        // human-readable reason (populated when not allowed)
}

// Error returns the guard result as a typed error if not allowed, nil otherwise.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	return &worlderr.Error{Kind: r.Kind, Message: r.Reason}
}

func allowed() GuardResult { return GuardResult{Allowed: true} }

func denied(kind worlderr.Kind, format string, args ...any) GuardResult {
	return GuardResult{Allowed: false, Kind: kind, Reason: fmt.Sprintf(format, args...)}
}

// ClaimContext provides the context needed to evaluate a claim.
type ClaimContext struct {
	CityID              string
	Status              Status
	AgentID             string
	HasVerifiedIdentity bool
}

// CanClaim evaluates whether an agent can claim a city.
// Rules:
// - City must be OPEN
// - Agent must hold a verified identity
func CanClaim(ctx ClaimContext) GuardResult {
	if ctx.Status != StatusOpen {
		return denied(worlderr.KindInvalidState, "city %s is not open for claiming (status: %s)", ctx.CityID, ctx.Status)
	}
	if !ctx.HasVerifiedIdentity {
		return denied(worlderr.KindForbidden, "agent %s does not hold a verified identity", ctx.AgentID)
	}
	return allowed()
}

// BeaconContext provides the context needed to evaluate a beacon emission.
type BeaconContext struct {
	CityID     string
	Status     Status
	GovernorID string
	AgentID    string
}

// CanEmitBeacon evaluates whether an agent can emit a beacon for a city.
// Rules:
// - Only the current governor may emit
// - City must be GOVERNED or CONTESTED
func CanEmitBeacon(ctx BeaconContext) GuardResult {
	if ctx.GovernorID == "" || ctx.AgentID != ctx.GovernorID {
		return denied(worlderr.KindForbidden, "only the current governor can emit a beacon for city %s", ctx.CityID)
	}
	if !ctx.Status.HasGovernor() {
		return denied(worlderr.KindInvalidState, "cannot emit beacon for city %s in status %s", ctx.CityID, ctx.Status)
	}
	return allowed()
}

// FocusContext provides the context needed to evaluate a focus change.
type FocusContext struct {
	CityID     string
	GovernorID string
	AgentID    string
	FocusSetAt *time.Time
	Now        time.Time
	Cooldown   time.Duration
	Influence  int64
	Cost       int64
}

// CanSetFocus evaluates whether an agent can change a city's development focus.
// Rules:
// - Only the current governor may change focus
// - The previous change must be at least Cooldown old
// - The city must hold at least Cost influence
func CanSetFocus(ctx FocusContext) GuardResult {
	if ctx.GovernorID == "" || ctx.AgentID != ctx.GovernorID {
		return denied(worlderr.KindForbidden, "only the current governor can change the focus of city %s", ctx.CityID)
	}
	if ctx.FocusSetAt != nil {
		if elapsed := ctx.Now.Sub(*ctx.FocusSetAt); elapsed < ctx.Cooldown {
			return denied(worlderr.KindOnCooldown, "focus of city %s changed %s ago, cooldown is %s", ctx.CityID, elapsed.Round(time.Second), ctx.Cooldown)
		}
	}
	if ctx.Influence < ctx.Cost {
		return denied(worlderr.KindInsufficientResources, "focus change needs %d influence, city %s has %d", ctx.Cost, ctx.CityID, ctx.Influence)
	}
	return allowed()
}

// GovernorContext provides the context for governor-only actions.
type GovernorContext struct {
	CityID     string
	GovernorID string
	AgentID    string
}

// IsGovernor evaluates whether the agent governs the city.
func IsGovernor(ctx GovernorContext) GuardResult {
	if ctx.GovernorID == "" || ctx.AgentID != ctx.GovernorID {
		return denied(worlderr.KindForbidden, "agent %s is not the governor of city %s", ctx.AgentID, ctx.CityID)
	}
	return allowed()
}
