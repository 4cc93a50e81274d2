package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/example/civitas/internal/ports/primary"
)

// CityAdapter is a thin adapter that translates CLI operations to GovernanceService calls.
type CityAdapter struct {
	service primary.GovernanceService
	out     io.Writer
}

// NewCityAdapter creates a new CityAdapter with the given service.
func NewCityAdapter(service primary.GovernanceService, out io.Writer) *CityAdapter {
	return &CityAdapter{
		service: service,
		out:     out,
	}
}

// List lists cities with an optional status filter.
func (a *CityAdapter) List(ctx context.Context, status string) error {
	cities, err := a.service.ListCities(ctx, primary.CityFilters{Status: status})
	if err != nil {
		return err
	}
	if len(cities) == 0 {
		fmt.Fprintln(a.out, "No cities found")
		return nil
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tREGION\tSTATUS\tGOVERNOR\tSTREAK\tFOCUS")
	for _, c := range cities {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
			c.ID, c.Name, c.Region, colorStatus(c.Status), orDash(c.GovernorID), c.StreakDays, c.Focus)
	}
	return w.Flush()
}

// Show displays details for a single city.
func (a *CityAdapter) Show(ctx context.Context, cityID string) error {
	c, err := a.service.GetCity(ctx, cityID)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "\nCity:        %s (%s)\n", c.ID, c.Name)
	fmt.Fprintf(a.out, "Region:      %s\n", c.Region)
	fmt.Fprintf(a.out, "Status:      %s\n", colorStatus(c.Status))
	fmt.Fprintf(a.out, "Governor:    %s\n", orDash(c.GovernorID))
	fmt.Fprintf(a.out, "Claimed:     %s\n", formatTime(c.ClaimedAt))
	fmt.Fprintf(a.out, "Last beacon: %s\n", formatTime(c.LastBeaconAt))
	fmt.Fprintf(a.out, "Streak:      %d days\n", c.StreakDays)
	if c.ContestedAt != nil {
		fmt.Fprintf(a.out, "Contested:   %s\n", formatTime(c.ContestedAt))
	}
	fmt.Fprintf(a.out, "Focus:       %s (set %s)\n", c.Focus, formatTime(c.FocusSetAt))
	fmt.Fprintln(a.out)
	return nil
}

// Claim claims a city for an agent.
func (a *CityAdapter) Claim(ctx context.Context, cityID, agentID string) error {
	c, err := a.service.ClaimCity(ctx, primary.ClaimCityRequest{CityID: cityID, AgentID: agentID})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "✓ %s now governs %s (%s)\n", c.GovernorID, c.ID, c.Name)
	return nil
}

// Beacon emits a beacon for a city.
func (a *CityAdapter) Beacon(ctx context.Context, cityID, agentID, message string) error {
	b, err := a.service.EmitBeacon(ctx, primary.EmitBeaconRequest{CityID: cityID, AgentID: agentID, Message: message})
	if err != nil {
		return err
	}
	if b.Recovered {
		fmt.Fprintf(a.out, "✓ Beacon %s emitted, %s recovered (streak %d)\n", b.ID, b.CityID, b.StreakDays)
		return nil
	}
	fmt.Fprintf(a.out, "✓ Beacon %s emitted for %s (streak %d)\n", b.ID, b.CityID, b.StreakDays)
	return nil
}

// Beacons lists a city's beacon ledger, newest first.
func (a *CityAdapter) Beacons(ctx context.Context, cityID string, limit int) error {
	beacons, err := a.service.ListBeacons(ctx, cityID, limit)
	if err != nil {
		return err
	}
	if len(beacons) == 0 {
		fmt.Fprintf(a.out, "No beacons recorded for %s\n", cityID)
		return nil
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "EMITTED\tAGENT\tRECOVERED\tMESSAGE")
	for _, b := range beacons {
		recovered := ""
		if b.Recovered {
			recovered = color.New(color.FgYellow).Sprint("yes")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", formatTime(&b.EmittedAt), b.AgentID, recovered, b.Message)
	}
	return w.Flush()
}
