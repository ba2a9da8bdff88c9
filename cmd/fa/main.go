package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/focusarea/internal/cli"
	"github.com/example/focusarea/internal/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "fa",
		Short:   "fa - versioned focus areas with revision reconciliation",
		Version: version.String(),
		Long: `fa keeps an append-only version history of focus areas: grids of
records inside a package that users edit and an AI service revises.
Every change is a new version; nothing is overwritten.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cli.AddGlobalFlags(rootCmd)

	// Add subcommands
	rootCmd.AddCommand(cli.InitCmd())
	rootCmd.AddCommand(cli.PackageCmd())
	rootCmd.AddCommand(cli.FocusCmd())
	rootCmd.AddCommand(cli.ServeCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, cli.FormatError(err))
		os.Exit(cli.ExitCode(err))
	}
}
