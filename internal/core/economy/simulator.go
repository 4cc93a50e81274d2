package economy

import (
	"math"

	"github.com/example/civitas/internal/core/building"
	"github.com/example/civitas/internal/core/city"
)

// Balance is a city's resource stock.
type Balance struct {
	Materials int64 `json:"materials"`
	Energy    int64 `json:"energy"`
	Knowledge int64 `json:"knowledge"`
	Influence int64 `json:"influence"`
}

// Levels maps each building type to its current level. Missing types count as level 0.
type Levels map[building.Type]int

// TickReport describes how a tick arrived at the new balance.
type TickReport struct {
	EnergyRequired  float64
	EnergyGenerated float64
	EnergyAvailable float64
	Efficiency      float64
	StorageCap      int64
	Produced        Balance // change before the storage cap; energy is net of upkeep
	Discarded       Balance // overflow lost to the storage cap
}

// Throttle computes the production efficiency and leftover stored energy.
// When upkeep exceeds what is available, consumers run at available/required
// and the store is drained.
func Throttle(required, generated, stored float64) (efficiency, newStored float64) {
	available := generated + stored
	if required > 0 && available < required {
		return available / required, 0
	}
	return 1, available - required
}

// Tick runs one world tick for a single city.
func Tick(t Tuning, levels Levels, focus city.Focus, old Balance) (Balance, TickReport) {
	raw := map[Resource]float64{}
	var required float64
	for _, bt := range building.AllTypes {
		out := t.Buildings[bt]
		lvl := float64(levels[bt])
		raw[out.Resource] += float64(out.Output) * lvl
		required += float64(out.EnergyCost) * lvl
	}

	generated := raw[ResourceEnergy] * t.Multiplier(focus, ResourceEnergy)
	efficiency, stored := Throttle(required, generated, float64(old.Energy))

	materials := math.Floor(raw[ResourceMaterials] * efficiency * t.Multiplier(focus, ResourceMaterials))
	knowledge := math.Floor(raw[ResourceKnowledge] * efficiency * t.Multiplier(focus, ResourceKnowledge))
	influence := math.Floor(raw[ResourceInfluence] * efficiency * t.Multiplier(focus, ResourceInfluence))

	limit := t.StorageCap(levels[building.TypeFoundry])

	report := TickReport{
		EnergyRequired:  required,
		EnergyGenerated: generated,
		EnergyAvailable: generated + float64(old.Energy),
		Efficiency:      efficiency,
		StorageCap:      limit,
		Produced: Balance{
			Materials: int64(materials),
			Energy:    int64(math.Floor(stored)) - old.Energy,
			Knowledge: int64(knowledge),
			Influence: int64(influence),
		},
	}

	uncappedMaterials := old.Materials + int64(materials)
	uncappedEnergy := int64(math.Floor(stored))

	next := Balance{
		Materials: capAt(uncappedMaterials, limit),
		Energy:    capAt(uncappedEnergy, limit),
		Knowledge: old.Knowledge + int64(knowledge),
		Influence: old.Influence + int64(influence),
	}
	report.Discarded = Balance{
		Materials: uncappedMaterials - next.Materials,
		Energy:    uncappedEnergy - next.Energy,
	}
	return next, report
}

func capAt(v, limit int64) int64 {
	if v > limit {
		return limit
	}
	if v < 0 {
		return 0
	}
	return v
}
