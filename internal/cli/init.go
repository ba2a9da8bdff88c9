package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/example/focusarea/internal/config"
	"github.com/example/focusarea/internal/db"
	"github.com/example/focusarea/internal/wire"
)

// InitCmd returns the init command
func InitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the fa database and project config",
		Long: `Initialize the fa database with the required schema and write
.fa/config.json in the current directory if it does not exist yet.

Examples:
  fa init
  fa init --seed    # also create a few development packages`,
		RunE: func(cmd *cobra.Command, args []string) error {
			seed, _ := cmd.Flags().GetBool("seed")

			cwd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}

			cfg, err := wire.LoadConfig()
			if err != nil {
				return err
			}

			configPath := filepath.Join(cwd, config.DirName, config.FileName)
			if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
				defaults := config.Default("")
				defaults.DBPath = cfg.DBPath
				if err := config.SaveConfig(cwd, &defaults); err != nil {
					return err
				}
				fmt.Printf("✓ Config written to %s\n", configPath)
			}

			fmt.Printf("Initializing fa database at %s\n", cfg.DBPath)
			database, err := db.Open(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("failed to initialize schema: %w", err)
			}
			defer database.Close()
			fmt.Println("✓ Database initialized successfully")

			if seed {
				ids, err := db.SeedFixtures(database)
				if err != nil {
					return err
				}
				fmt.Printf("✓ Seeded %d package(s)\n", len(ids))
			}

			fmt.Println()
			fmt.Println("Next steps:")
			fmt.Println("  fa package add \"My package\"")
			fmt.Println("  fa focus create 1 \"Risks\" --file records.yaml")
			return nil
		},
	}
	cmd.Flags().Bool("seed", false, "Create development packages")
	return cmd
}
