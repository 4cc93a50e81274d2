// Package effects defines world events as data.
// Core transitions describe what happened; the app layer records the effects
// inside the owning transaction and mirrors them after commit.
package effects

import "time"

// Effect is the base interface for all effects.
type Effect interface {
	// EffectType returns a string identifier for the effect type.
	EffectType() string
}

// EventType names a world event.
type EventType string

const (
	EventCityClaimed              EventType = "CITY_CLAIMED"
	EventBeaconEmitted            EventType = "BEACON_EMITTED"
	EventCityContested            EventType = "CITY_CONTESTED"
	EventCityRecovered            EventType = "CITY_RECOVERED"
	EventBuildingUpgradeStarted   EventType = "BUILDING_UPGRADE_STARTED"
	EventBuildingUpgradeCompleted EventType = "BUILDING_UPGRADE_COMPLETED"
	EventDevelopmentFocusChanged  EventType = "DEVELOPMENT_FOCUS_CHANGED"
	EventReportGenerated          EventType = "REPORT_GENERATED"

	// Reserved: no operation emits these yet.
	EventCityFell        EventType = "CITY_FELL"
	EventCityTransferred EventType = "CITY_TRANSFERRED"
	EventAgentRegistered EventType = "AGENT_REGISTERED"
)

// EventEffect records one accepted mutation in the world chronicle.
type EventEffect struct {
	Type       EventType
	CityID     string
	AgentID    string
	Payload    map[string]any
	OccurredAt time.Time
}

func (e EventEffect) EffectType() string { return "event" }

// LogEffect represents a logging operation.
type LogEffect struct {
	Level   string
	Message string
	Fields  map[string]any
}

func (e LogEffect) EffectType() string { return "log" }

// CompositeEffect holds multiple effects to be executed in sequence.
type CompositeEffect struct {
	Effects []Effect
}

func (e CompositeEffect) EffectType() string { return "composite" }

// NoEffect represents an operation that produces no side effects.
type NoEffect struct{}

func (e NoEffect) EffectType() string { return "none" }
