// Package building contains the pure business logic for building upgrades.
// This is part of the Functional Core - no I/O, only pure functions.
package building

import (
	"math"
	"time"
)

// Type identifies one of the four buildings every city owns.
type Type string

const (
	TypeFoundry Type = "FOUNDRY"
	TypeGrid    Type = "GRID"
	TypeAcademy Type = "ACADEMY"
	TypeForum   Type = "FORUM"
)

// AllTypes lists every building type in display order.
var AllTypes = []Type{TypeFoundry, TypeGrid, TypeAcademy, TypeForum}

// ParseType converts a string into a building Type.
func ParseType(s string) (Type, bool) {
	for _, t := range AllTypes {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

// Cost is the resource price of one upgrade.
type Cost struct {
	Materials int64 `json:"materials"`
	Energy    int64 `json:"energy"`
}

// Rules holds the tunable upgrade constants.
type Rules struct {
	MaterialsPerLevel int64
	EnergyPerLevel    int64
	BaseHours         map[Type]float64
	// Knowledge shortens builds by knowledge/KnowledgeDivisor, capped at MaxKnowledgeReduction.
	KnowledgeDivisor      float64
	MaxKnowledgeReduction float64
}

// DefaultRules returns the production upgrade constants.
func DefaultRules() Rules {
	return Rules{
		MaterialsPerLevel: 100,
		EnergyPerLevel:    40,
		BaseHours: map[Type]float64{
			TypeFoundry: 6,
			TypeGrid:    8,
			TypeAcademy: 10,
			TypeForum:   12,
		},
		KnowledgeDivisor:      1000,
		MaxKnowledgeReduction: 0.5,
	}
}

// UpgradeCost returns the price of reaching nextLevel.
func (r Rules) UpgradeCost(nextLevel int) Cost {
	return Cost{
		Materials: r.MaterialsPerLevel * int64(nextLevel),
		Energy:    r.EnergyPerLevel * int64(nextLevel),
	}
}

// KnowledgeReduction returns the fraction of build time saved by the given knowledge.
func (r Rules) KnowledgeReduction(knowledge int64) float64 {
	if r.KnowledgeDivisor <= 0 || knowledge <= 0 {
		return 0
	}
	return math.Min(float64(knowledge)/r.KnowledgeDivisor, r.MaxKnowledgeReduction)
}

// UpgradeDuration returns how long reaching nextLevel takes.
func (r Rules) UpgradeDuration(t Type, nextLevel int, knowledge int64) time.Duration {
	hours := r.BaseHours[t] * float64(nextLevel) * (1 - r.KnowledgeReduction(knowledge))
	return time.Duration(hours * float64(time.Hour))
}

// Plan is the computed outcome of starting an upgrade.
type Plan struct {
	Type       Type
	Level      int
	NextLevel  int
	Cost       Cost
	Duration   time.Duration
	StartedAt  time.Time
	CompleteAt time.Time
}

// PlanUpgrade computes cost and completion time for upgrading a building at level.
func PlanUpgrade(r Rules, t Type, level int, knowledge int64, now time.Time) Plan {
	next := level + 1
	d := r.UpgradeDuration(t, next, knowledge)
	return Plan{
		Type:       t,
		Level:      level,
		NextLevel:  next,
		Cost:       r.UpgradeCost(next),
		Duration:   d,
		StartedAt:  now,
		CompleteAt: now.Add(d),
	}
}
