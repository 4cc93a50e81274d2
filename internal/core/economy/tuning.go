// Package economy contains the pure Resource Economy Simulator.
// A tick is a deterministic function of building levels, focus and the
// current balance; it performs no I/O.
package economy

import (
	"fmt"

	"github.com/example/civitas/internal/core/building"
	"github.com/example/civitas/internal/core/city"
)

// Resource names one of the four city resources.
type Resource string

const (
	ResourceMaterials Resource = "materials"
	ResourceEnergy    Resource = "energy"
	ResourceKnowledge Resource = "knowledge"
	ResourceInfluence Resource = "influence"
)

// AllResources lists every resource.
var AllResources = []Resource{ResourceMaterials, ResourceEnergy, ResourceKnowledge, ResourceInfluence}

// ParseResource resolves a resource name.
func ParseResource(s string) (Resource, bool) {
	for _, r := range AllResources {
		if string(r) == s {
			return r, true
		}
	}
	return "", false
}

// BuildingOutput describes what one level of a building produces and consumes.
type BuildingOutput struct {
	Resource   Resource
	Output     int64 // units of Resource per level per tick
	EnergyCost int64 // energy upkeep per level per tick
}

// Tuning holds every tunable constant of the simulator.
type Tuning struct {
	Buildings              map[building.Type]BuildingOutput
	FocusModifiers         map[city.Focus]map[Resource]float64
	StorageBase            int64
	StoragePerFoundryLevel int64
}

// DefaultTuning returns the production economy constants.
func DefaultTuning() Tuning {
	return Tuning{
		Buildings: map[building.Type]BuildingOutput{
			building.TypeFoundry: {Resource: ResourceMaterials, Output: 10, EnergyCost: 2},
			building.TypeGrid:    {Resource: ResourceEnergy, Output: 12, EnergyCost: 0},
			building.TypeAcademy: {Resource: ResourceKnowledge, Output: 6, EnergyCost: 2},
			building.TypeForum:   {Resource: ResourceInfluence, Output: 4, EnergyCost: 1},
		},
		FocusModifiers: map[city.Focus]map[Resource]float64{
			city.FocusInfrastructure: {ResourceMaterials: 0.50, ResourceInfluence: -0.10},
			city.FocusEducation:      {ResourceKnowledge: 0.50, ResourceMaterials: -0.10},
			city.FocusCulture:        {ResourceInfluence: 0.50, ResourceEnergy: -0.10},
			city.FocusDefense:        {ResourceMaterials: 0.25, ResourceEnergy: 0.25, ResourceInfluence: -0.25},
		},
		StorageBase:            500,
		StoragePerFoundryLevel: 250,
	}
}

// Validate rejects tuning tables the simulator cannot run with.
func (t Tuning) Validate() error {
	for _, bt := range building.AllTypes {
		out, ok := t.Buildings[bt]
		if !ok {
			return fmt.Errorf("economy tuning: missing building %s", bt)
		}
		if out.Output < 0 || out.EnergyCost < 0 {
			return fmt.Errorf("economy tuning: building %s has negative output or upkeep", bt)
		}
	}
	for focus, mods := range t.FocusModifiers {
		for res, m := range mods {
			if 1+m < 0 {
				return fmt.Errorf("economy tuning: focus %s modifier for %s below -100%%", focus, res)
			}
		}
	}
	if t.StorageBase < 0 || t.StoragePerFoundryLevel < 0 {
		return fmt.Errorf("economy tuning: negative storage capacity")
	}
	return nil
}

// Multiplier returns the focus multiplier applied to resource r.
// Bonuses for one resource compose additively.
func (t Tuning) Multiplier(focus city.Focus, r Resource) float64 {
	return 1 + t.FocusModifiers[focus][r]
}

// StorageCap returns the materials/energy cap for the given foundry level.
func (t Tuning) StorageCap(foundryLevel int) int64 {
	return t.StorageBase + t.StoragePerFoundryLevel*int64(foundryLevel)
}
