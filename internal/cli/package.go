package cli

import (
	"github.com/spf13/cobra"

	"github.com/example/focusarea/internal/wire"
)

// PackageCmd returns the package command
func PackageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "package",
		Short: "Manage packages (parents of focus areas)",
	}
	cmd.AddCommand(packageAddCmd())
	cmd.AddCommand(packageListCmd())
	cmd.AddCommand(packageShowCmd())
	cmd.AddCommand(packageRemoveCmd())
	return cmd
}

func packageAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add [name]",
		Short: "Create a new package",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			adapter, err := wire.PackageAdapter(outputFormat())
			if err != nil {
				return err
			}
			return adapter.Add(NewContext(), args[0])
		},
	}
}

func packageListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List packages",
		RunE: func(cmd *cobra.Command, args []string) error {
			adapter, err := wire.PackageAdapter(outputFormat())
			if err != nil {
				return err
			}
			return adapter.List(NewContext())
		},
	}
}

func packageShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [package-id]",
		Short: "Show a package and its focus areas",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "package")
			if err != nil {
				return err
			}
			adapter, err := wire.PackageAdapter(outputFormat())
			if err != nil {
				return err
			}
			return adapter.Show(NewContext(), id)
		},
	}
}

func packageRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove [package-id]",
		Short: "Soft-delete a package",
		Long:  "Soft-delete a package. Focus areas cannot be created under a deleted package.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "package")
			if err != nil {
				return err
			}
			adapter, err := wire.PackageAdapter(outputFormat())
			if err != nil {
				return err
			}
			return adapter.Remove(NewContext(), id)
		},
	}
}
