package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/civitas/internal/cli"
	"github.com/example/civitas/internal/version"
	"github.com/example/civitas/internal/wire"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "civitas",
		Short:   "civitas - persistent city-governance world engine",
		Version: version.String(),
		Long: `civitas runs a persistent world of cities governed by verified agents.
Governors keep their cities with daily beacons, steer them with a development
focus and grow them through building upgrades; the world cycle advances every
city's economy.`,
		SilenceUsage: true,
	}

	// Add subcommands
	rootCmd.AddCommand(cli.InitCmd())
	rootCmd.AddCommand(cli.CityCmd())
	rootCmd.AddCommand(cli.BuildingCmd())
	rootCmd.AddCommand(cli.CycleCmd())

	ctx := cli.WithAgentFromEnv(context.Background())
	err := rootCmd.ExecuteContext(ctx)
	wire.Close()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
