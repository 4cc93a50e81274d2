// Package city contains the pure business logic for city governance.
// This is part of the Functional Core - no I/O, only pure functions.
package city

import "time"

// Status represents the governance status of a city.
type Status string

const (
	StatusOpen      Status = "OPEN"
	StatusGoverned  Status = "GOVERNED"
	StatusContested Status = "CONTESTED"
	// StatusFallen is reserved. No transition in this version enters it.
	StatusFallen Status = "FALLEN"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusOpen, StatusGoverned, StatusContested, StatusFallen:
		return true
	}
	return false
}

// HasGovernor reports whether a city in this status must carry a governor.
func (s Status) HasGovernor() bool {
	return s == StatusGoverned || s == StatusContested
}

// Focus is a city's development bias.
type Focus string

const (
	FocusInfrastructure Focus = "INFRASTRUCTURE"
	FocusEducation      Focus = "EDUCATION"
	FocusCulture        Focus = "CULTURE"
	FocusDefense        Focus = "DEFENSE"
)

// DefaultFocus is the focus a city starts with.
const DefaultFocus = FocusInfrastructure

// AllFocuses lists every focus in display order.
var AllFocuses = []Focus{FocusInfrastructure, FocusEducation, FocusCulture, FocusDefense}

// ParseFocus converts a string into a Focus.
func ParseFocus(s string) (Focus, bool) {
	for _, f := range AllFocuses {
		if string(f) == s {
			return f, true
		}
	}
	return "", false
}

// State is the governance-relevant slice of a city row.
type State struct {
	Status       Status
	GovernorID   string // empty means null
	ClaimedAt    *time.Time
	LastBeaconAt *time.Time
	StreakDays   int
	ContestedAt  *time.Time
	Focus        Focus
	FocusSetAt   *time.Time
}

// ApplyClaim returns the state after agentID claims an open city.
func ApplyClaim(s State, agentID string, now time.Time) State {
	s.Status = StatusGoverned
	s.GovernorID = agentID
	s.ClaimedAt = &now
	s.StreakDays = 0
	s.ContestedAt = nil
	return s
}

// BeaconOutcome captures the result of applying a beacon to a city.
type BeaconOutcome struct {
	State          State
	Recovered      bool // city was CONTESTED when the beacon arrived
	WithinWindow   bool
	PreviousStreak int
}

// NextStreak computes the streak after a beacon at now.
// A beacon continues the streak only if the previous one is strictly younger than window.
func NextStreak(lastBeaconAt *time.Time, streak int, now time.Time, window time.Duration) (int, bool) {
	if lastBeaconAt != nil && now.Sub(*lastBeaconAt) < window {
		return streak + 1, true
	}
	return 1, false
}

// ApplyBeacon returns the outcome of the governor emitting a beacon at now.
func ApplyBeacon(s State, now time.Time, window time.Duration) BeaconOutcome {
	out := BeaconOutcome{
		Recovered:      s.Status == StatusContested,
		PreviousStreak: s.StreakDays,
	}
	streak, within := NextStreak(s.LastBeaconAt, s.StreakDays, now, window)
	out.WithinWindow = within

	s.Status = StatusGoverned
	s.LastBeaconAt = &now
	s.StreakDays = streak
	s.ContestedAt = nil
	out.State = s
	return out
}

// BeaconReference is the instant the beacon window is measured from:
// the last beacon, or the claim time for a city that has never beaconed.
func BeaconReference(s State) *time.Time {
	if s.LastBeaconAt != nil {
		return s.LastBeaconAt
	}
	return s.ClaimedAt
}

// IsOverdue reports whether a GOVERNED city has let its beacon window lapse.
func IsOverdue(s State, now time.Time, window time.Duration) bool {
	if s.Status != StatusGoverned {
		return false
	}
	ref := BeaconReference(s)
	if ref == nil {
		return false
	}
	return now.Sub(*ref) > window
}

// ApplyContest returns the state of an overdue city pushed into CONTESTED.
func ApplyContest(s State, now time.Time) State {
	s.Status = StatusContested
	s.ContestedAt = &now
	s.StreakDays = 0
	return s
}

// ApplyFocus returns the state after a focus change at now.
func ApplyFocus(s State, focus Focus, now time.Time) State {
	s.Focus = focus
	s.FocusSetAt = &now
	return s
}

// FocusAvailableAt returns when the focus may next be changed, or nil if it may change now.
func FocusAvailableAt(s State, now time.Time, cooldown time.Duration) *time.Time {
	if s.FocusSetAt == nil {
		return nil
	}
	at := s.FocusSetAt.Add(cooldown)
	if !now.Before(at) {
		return nil
	}
	return &at
}

// CheckInvariants reports the first broken governance invariant, or "" if none.
func CheckInvariants(s State) string {
	if s.Status.HasGovernor() && s.GovernorID == "" {
		return "status " + string(s.Status) + " requires a governor"
	}
	if !s.Status.HasGovernor() && s.GovernorID != "" {
		return "status " + string(s.Status) + " must not carry a governor"
	}
	if s.Status == StatusOpen && (s.StreakDays != 0 || s.ContestedAt != nil) {
		return "open city must have zero streak and no contested_at"
	}
	if s.StreakDays < 0 {
		return "negative beacon streak"
	}
	return ""
}
