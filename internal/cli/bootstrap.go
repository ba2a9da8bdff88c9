// Package cli provides CLI commands for the fa application.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	cliadapter "github.com/example/focusarea/internal/adapters/cli"
	"github.com/example/focusarea/internal/ctxutil"
	"github.com/example/focusarea/internal/wire"
)

// globalFlags stores the persistent flags for the current CLI invocation.
var globalFlags struct {
	configPath string
	dbPath     string
	actor      string
	output     string
	logLevel   string
}

// AddGlobalFlags registers the persistent flags on root and configures the
// wire container from them before any subcommand runs.
func AddGlobalFlags(root *cobra.Command) {
	flags := root.PersistentFlags()
	flags.StringVar(&globalFlags.configPath, "config", "", "config file (default .fa/config.json)")
	flags.StringVar(&globalFlags.dbPath, "db", "", "database path (overrides db_path)")
	flags.StringVar(&globalFlags.actor, "actor", "", "name recorded as the author of new versions")
	flags.StringVarP(&globalFlags.output, "output", "o", "text", "output format: text, json or yaml")
	flags.StringVar(&globalFlags.logLevel, "log-level", "", "log level: debug, info, warn or error")

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if _, err := cliadapter.ParseFormat(globalFlags.output); err != nil {
			return err
		}
		wire.Configure(wire.Options{
			ConfigPath: globalFlags.configPath,
			DBPath:     globalFlags.dbPath,
			LogLevel:   globalFlags.logLevel,
			Actor:      globalFlags.actor,
		})
		return nil
	}
	root.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		return wire.Shutdown()
	}
}

// outputFormat returns the validated --output value.
func outputFormat() cliadapter.Format {
	format, _ := cliadapter.ParseFormat(globalFlags.output)
	return format
}

// NewContext creates a context carrying the configured actor.
// CLI commands should use this instead of context.Background() directly.
func NewContext() context.Context {
	ctx := context.Background()
	c, err := wire.Get()
	if err != nil || c.Config.Actor == "" {
		return ctx
	}
	return ctxutil.WithActorID(ctx, c.Config.Actor)
}
