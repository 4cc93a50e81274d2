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

// CycleAdapter translates operator triggers to the world cycle and overdue sweep.
type CycleAdapter struct {
	cycles     primary.WorldCycleService
	governance primary.GovernanceService
	out        io.Writer
}

// NewCycleAdapter creates a new CycleAdapter with the given services.
func NewCycleAdapter(cycles primary.WorldCycleService, governance primary.GovernanceService, out io.Writer) *CycleAdapter {
	return &CycleAdapter{
		cycles:     cycles,
		governance: governance,
		out:        out,
	}
}

// Run runs one world cycle at now and prints the per-step outcome.
func (a *CycleAdapter) Run(ctx context.Context, now time.Time) (*primary.CycleResult, error) {
	result, err := a.cycles.RunWorldCycle(ctx, now)
	if err != nil {
		return nil, err
	}
	if result.Skipped {
		fmt.Fprintf(a.out, "Cycle skipped until %s (wait %s)\n", formatTime(result.NextAt), result.Remaining.Round(time.Second))
		return result, nil
	}

	fmt.Fprintf(a.out, "\nCycle %s [%s → %s]\n", result.CycleID, formatTime(&result.CycleStart), formatTime(&result.CycleEnd))

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CITY\tEFFICIENCY\tUPGRADES\tRESULT")
	for _, c := range result.Cities {
		outcome := color.New(color.FgGreen).Sprint("ok")
		if c.Error != "" {
			outcome = color.New(color.FgRed).Sprint(c.Error)
		}
		fmt.Fprintf(w, "%s\t%.0f%%\t%d\t%s\n", c.CityID, c.Efficiency*100, c.UpgradesCompleted, outcome)
	}
	if err := w.Flush(); err != nil {
		return nil, err
	}

	if result.SweepError != "" {
		fmt.Fprintf(a.out, "Overdue sweep: %s\n", color.New(color.FgRed).Sprint(result.SweepError))
	} else if result.Sweep != nil {
		a.printSweep(result.Sweep)
	}
	for _, r := range result.Reports {
		if r.Error != "" {
			fmt.Fprintf(a.out, "Report %s: %s\n", r.Kind, color.New(color.FgRed).Sprint(r.Error))
			continue
		}
		fmt.Fprintf(a.out, "Report %s: %s\n", r.Kind, r.ReportID)
	}

	status := color.New(color.FgGreen).Sprint(result.Status)
	if result.Failed() > 0 {
		status = color.New(color.FgYellow).Sprintf("%s (%d failures)", result.Status, result.Failed())
	}
	fmt.Fprintf(a.out, "Status: %s\n\n", status)
	return result, nil
}

// Sweep runs the overdue-beacon sweep on its own.
func (a *CycleAdapter) Sweep(ctx context.Context, now time.Time) error {
	result, err := a.governance.RunOverdueSweep(ctx, now)
	if err != nil {
		return err
	}
	a.printSweep(result)
	return nil
}

func (a *CycleAdapter) printSweep(s *primary.SweepResult) {
	fmt.Fprintf(a.out, "Overdue sweep: checked %d governed cities, contested %d\n", s.Checked, len(s.Contested))
	for _, id := range s.Contested {
		fmt.Fprintf(a.out, "  %s %s\n", color.New(color.FgYellow).Sprint("CONTESTED"), id)
	}
	for _, f := range s.Failures {
		fmt.Fprintf(a.out, "  %s %s: %s\n", color.New(color.FgRed).Sprint("FAILED"), f.ID, f.Error)
	}
}
