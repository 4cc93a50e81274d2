package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"

	"github.com/example/civitas/internal/ports/primary"
)

// EconomyAdapter translates focus, economy and building commands to service calls.
type EconomyAdapter struct {
	economy   primary.EconomyService
	buildings primary.BuildingService
	out       io.Writer
}

// NewEconomyAdapter creates a new EconomyAdapter with the given services.
func NewEconomyAdapter(economy primary.EconomyService, buildings primary.BuildingService, out io.Writer) *EconomyAdapter {
	return &EconomyAdapter{
		economy:   economy,
		buildings: buildings,
		out:       out,
	}
}

// Show prints the economy projection of a city.
func (a *EconomyAdapter) Show(ctx context.Context, cityID string) error {
	view, err := a.economy.GetCityEconomy(ctx, cityID)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "\nEconomy of %s\n", view.CityID)
	fmt.Fprintf(a.out, "Materials: %d / %d\n", view.Balances.Materials, view.StorageCap)
	fmt.Fprintf(a.out, "Energy:    %d / %d\n", view.Balances.Energy, view.StorageCap)
	fmt.Fprintf(a.out, "Knowledge: %d\n", view.Balances.Knowledge)
	fmt.Fprintf(a.out, "Influence: %d\n", view.Balances.Influence)
	if view.FocusAvailableAt != nil {
		fmt.Fprintf(a.out, "Focus:     %s (locked until %s)\n", view.Focus, formatTime(view.FocusAvailableAt))
	} else {
		fmt.Fprintf(a.out, "Focus:     %s\n", view.Focus)
	}
	fmt.Fprintln(a.out)

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "BUILDING\tLEVEL\tUPGRADE")
	for _, b := range view.Buildings {
		upgrade := "-"
		if b.Upgrading {
			upgrade = color.New(color.FgCyan).Sprintf("→ %d at %s", b.Level+1, formatTime(b.UpgradeCompleteAt))
		}
		fmt.Fprintf(w, "%s\t%d\t%s\n", b.Type, b.Level, upgrade)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintln(a.out)
	return nil
}

// SetFocus changes a city's development focus.
func (a *EconomyAdapter) SetFocus(ctx context.Context, cityID, focus, agentID, reason string) error {
	resp, err := a.economy.SetFocus(ctx, primary.SetFocusRequest{
		CityID:  cityID,
		Focus:   focus,
		AgentID: agentID,
		Reason:  reason,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "✓ %s focus %s → %s (cost %d influence)\n", resp.CityID, resp.OldFocus, resp.NewFocus, resp.Cost)
	return nil
}

// StartUpgrade queues a building upgrade.
func (a *EconomyAdapter) StartUpgrade(ctx context.Context, cityID, buildingType, agentID, reason string) error {
	resp, err := a.buildings.StartUpgrade(ctx, primary.StartUpgradeRequest{
		CityID:       cityID,
		BuildingType: buildingType,
		AgentID:      agentID,
		Reason:       reason,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "✓ %s %s upgrading to level %d (cost %d materials, %d energy)\n",
		cityID, buildingType, resp.NextLevel, resp.CostMaterials, resp.CostEnergy)
	fmt.Fprintf(a.out, "  Completes at %s\n", formatTime(&resp.CompleteAt))
	return nil
}

// CompleteUpgrades finishes the due upgrades of a city.
func (a *EconomyAdapter) CompleteUpgrades(ctx context.Context, cityID string, now time.Time) error {
	result, err := a.buildings.CompleteUpgrades(ctx, cityID, now)
	if err != nil {
		return err
	}
	if len(result.Completed) == 0 {
		fmt.Fprintf(a.out, "No upgrades due in %s\n", cityID)
		return nil
	}
	for _, b := range result.Completed {
		fmt.Fprintf(a.out, "✓ %s %s reached level %d\n", cityID, b.Type, b.Level)
	}
	return nil
}
