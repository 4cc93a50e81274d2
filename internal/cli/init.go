package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/civitas/internal/db"
	"github.com/example/civitas/internal/wire"
)

// InitCmd returns the init command
func InitCmd() *cobra.Command {
	var seed bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the civitas world",
		Long: `Create the civitas database, apply the schema and seed the bootstrap cities.

Examples:
  civitas init
  civitas init --seed   # also register the demo agents`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := wire.Config()
			database := wire.Database()
			now := time.Now().UTC()

			fmt.Printf("Initializing civitas world at %s (%s)\n", cfg.Store.Path, cfg.Store.Driver)

			if err := db.SeedWorld(cmd.Context(), database, now); err != nil {
				return fmt.Errorf("failed to seed world: %w", err)
			}
			fmt.Println("✓ Cities and buildings ready")

			if seed {
				if err := db.SeedFixtures(cmd.Context(), database, now); err != nil {
					return fmt.Errorf("failed to seed fixtures: %w", err)
				}
				fmt.Println("✓ Demo agents registered")
			}

			fmt.Println()
			fmt.Println("Next steps:")
			fmt.Println("  civitas city list")
			fmt.Println("  civitas city claim CITY-001 --agent AGENT-001")
			return nil
		},
	}

	cmd.Flags().BoolVar(&seed, "seed", false, "Register demo agents and identities")
	return cmd
}
