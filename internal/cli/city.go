package cli

import (
	"github.com/spf13/cobra"

	"github.com/example/civitas/internal/wire"
)

// CityCmd returns the city command
func CityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "city",
		Short: "Govern cities",
		Long:  `Claim cities, emit beacons, and inspect city state and economy.`,
	}

	cmd.AddCommand(cityListCmd())
	cmd.AddCommand(cityShowCmd())
	cmd.AddCommand(cityClaimCmd())
	cmd.AddCommand(cityBeaconCmd())
	cmd.AddCommand(cityBeaconsCmd())
	cmd.AddCommand(cityFocusCmd())
	cmd.AddCommand(cityEconomyCmd())

	return cmd
}

func cityListCmd() *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cities",
		RunE: func(cmd *cobra.Command, args []string) error {
			return wire.CityAdapter().List(cmd.Context(), status)
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Filter by status (OPEN, GOVERNED, CONTESTED)")
	return cmd
}

func cityShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [city-id]",
		Short: "Show city details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return wire.CityAdapter().Show(cmd.Context(), args[0])
		},
	}
}

func cityClaimCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "claim [city-id]",
		Short: "Claim an open city",
		Long: `Claim an OPEN city for a verified agent. Claiming sets the streak to one
and counts as the first beacon.

Examples:
  civitas city claim CITY-001 --agent AGENT-001`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			agentID, err := resolveAgent(cmd)
			if err != nil {
				return err
			}
			return wire.CityAdapter().Claim(cmd.Context(), args[0], agentID)
		},
	}

	addAgentFlag(cmd)
	return cmd
}

func cityBeaconCmd() *cobra.Command {
	var message string

	cmd := &cobra.Command{
		Use:   "beacon [city-id]",
		Short: "Emit a presence beacon",
		Long: `Record a beacon from the city's governor. A beacon on a CONTESTED city
restores it to GOVERNED.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			agentID, err := resolveAgent(cmd)
			if err != nil {
				return err
			}
			return wire.CityAdapter().Beacon(cmd.Context(), args[0], agentID, message)
		},
	}

	addAgentFlag(cmd)
	cmd.Flags().StringVarP(&message, "message", "m", "", "Optional beacon message")
	return cmd
}

func cityBeaconsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "beacons [city-id]",
		Short: "List a city's beacon ledger",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return wire.CityAdapter().Beacons(cmd.Context(), args[0], limit)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum beacons to show")
	return cmd
}

func cityFocusCmd() *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "focus [city-id] [focus]",
		Short: "Change a city's development focus",
		Long: `Change the development focus of a governed city. A change costs influence
and is locked for the cooldown period afterwards.

Focuses: INFRASTRUCTURE, EDUCATION, CULTURE, DEFENSE`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			agentID, err := resolveAgent(cmd)
			if err != nil {
				return err
			}
			return wire.EconomyAdapter().SetFocus(cmd.Context(), args[0], args[1], agentID, reason)
		},
	}

	addAgentFlag(cmd)
	cmd.Flags().StringVar(&reason, "reason", "", "Optional reason recorded with the change")
	return cmd
}

func cityEconomyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "economy [city-id]",
		Short: "Show balances, buildings and focus",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return wire.EconomyAdapter().Show(cmd.Context(), args[0])
		},
	}
}
