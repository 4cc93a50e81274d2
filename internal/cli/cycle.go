package cli

import (
	"github.com/spf13/cobra"

	"github.com/example/civitas/internal/wire"
)

// CycleCmd returns the cycle command
func CycleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cycle",
		Short: "Run the world cycle",
		Long: `Advance the world: tick every city's economy, complete due upgrades,
contest overdue cities and generate due reports.`,
	}

	cmd.AddCommand(cycleRunCmd())
	cmd.AddCommand(cycleSweepCmd())

	return cmd
}

func cycleRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one world cycle if it is due",
		Long: `Run one world cycle. The cycle is skipped when the previous one ran less
than the configured interval ago.

Examples:
  civitas cycle run
  civitas cycle run --now 2026-05-04T00:00:00Z`,
		RunE: func(cmd *cobra.Command, args []string) error {
			now, err := resolveNow(cmd)
			if err != nil {
				return err
			}
			_, err = wire.CycleAdapter().Run(cmd.Context(), now)
			return err
		},
	}

	addNowFlag(cmd)
	return cmd
}

func cycleSweepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Contest governed cities with overdue beacons",
		RunE: func(cmd *cobra.Command, args []string) error {
			now, err := resolveNow(cmd)
			if err != nil {
				return err
			}
			return wire.CycleAdapter().Sweep(cmd.Context(), now)
		},
	}

	addNowFlag(cmd)
	return cmd
}
