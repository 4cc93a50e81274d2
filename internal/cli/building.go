package cli

import (
	"github.com/spf13/cobra"

	"github.com/example/civitas/internal/wire"
)

// BuildingCmd returns the building command
func BuildingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "building",
		Short: "Upgrade city buildings",
	}

	cmd.AddCommand(buildingUpgradeCmd())
	cmd.AddCommand(buildingCompleteCmd())

	return cmd
}

func buildingUpgradeCmd() *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "upgrade [city-id] [type]",
		Short: "Start a building upgrade",
		Long: `Debit the upgrade cost and start upgrading a building to its next level.

Types: FOUNDRY, GRID, ACADEMY, FORUM

Examples:
  civitas building upgrade CITY-001 FOUNDRY --agent AGENT-001`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			agentID, err := resolveAgent(cmd)
			if err != nil {
				return err
			}
			return wire.EconomyAdapter().StartUpgrade(cmd.Context(), args[0], args[1], agentID, reason)
		},
	}

	addAgentFlag(cmd)
	cmd.Flags().StringVar(&reason, "reason", "", "Optional reason recorded with the upgrade")
	return cmd
}

func buildingCompleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "complete [city-id]",
		Short: "Finish the due upgrades of a city",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			now, err := resolveNow(cmd)
			if err != nil {
				return err
			}
			return wire.EconomyAdapter().CompleteUpgrades(cmd.Context(), args[0], now)
		},
	}

	addNowFlag(cmd)
	return cmd
}
