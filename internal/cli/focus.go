package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	cliadapter "github.com/example/focusarea/internal/adapters/cli"
	"github.com/example/focusarea/internal/ports/primary"
	"github.com/example/focusarea/internal/wire"
)

// FocusCmd returns the focus command
func FocusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "focus",
		Short: "Manage versioned focus areas",
		Long: `Create, edit, revise and inspect focus areas.

Every change appends a new immutable version. Mutations take the version id
they were based on (--base or base_version_id in the batch file) and fail
with a version conflict if someone else committed first.

Batch files are YAML or JSON: either a list of records or
  base_version_id: 12
  summary: tidy scores
  records:
    - id: 31          # existing record, replaced
      properties: {title: Churn, score: 1.5}
    - id: new         # new record
      properties: {title: Pricing}
Records left out of an edit batch are carried forward unchanged.`,
	}
	cmd.AddCommand(focusCreateCmd())
	cmd.AddCommand(focusShowCmd())
	cmd.AddCommand(focusEditCmd())
	cmd.AddCommand(focusRemoveCmd())
	cmd.AddCommand(focusReviseCmd())
	cmd.AddCommand(focusProposeCmd())
	cmd.AddCommand(focusRecoverCmd())
	cmd.AddCommand(focusHistoryCmd())
	cmd.AddCommand(focusVersionsCmd())
	cmd.AddCommand(focusVerifyCmd())
	cmd.AddCommand(focusExportCmd())
	return cmd
}

// readBatchFile reads a batch from path, or from stdin when path is "-".
func readBatchFile(path string) (*cliadapter.BatchFile, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open batch file: %w", err)
		}
		defer f.Close()
		r = f
	}
	return cliadapter.ReadBatch(r)
}

// resolveBase picks the base version: the --base flag wins over the file.
func resolveBase(cmd *cobra.Command, batch *cliadapter.BatchFile) (int64, error) {
	base, _ := cmd.Flags().GetInt64("base")
	if base == 0 && batch != nil {
		base = batch.BaseVersionID
	}
	if base <= 0 {
		return 0, fmt.Errorf("base version required: pass --base or set base_version_id in the batch file")
	}
	return base, nil
}

// resolveSummary picks the summary: the --summary flag wins over the file.
func resolveSummary(cmd *cobra.Command, batch *cliadapter.BatchFile) string {
	summary, _ := cmd.Flags().GetString("summary")
	if summary == "" && batch != nil {
		summary = batch.Summary
	}
	return summary
}

func focusAdapter() (*cliadapter.FocusAreaAdapter, error) {
	return wire.FocusAreaAdapter(outputFormat())
}

func focusCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create [package-id] [name]",
		Short: "Create a focus area (version 0)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			packageID, err := parseID(args[0], "package")
			if err != nil {
				return err
			}
			req := primary.CreateFocusAreaRequest{PackageID: packageID, Name: args[1]}
			req.SourceRef, _ = cmd.Flags().GetString("source-ref")

			var batch *cliadapter.BatchFile
			if path, _ := cmd.Flags().GetString("file"); path != "" {
				if batch, err = readBatchFile(path); err != nil {
					return err
				}
				req.Records = batch.Records
			}
			req.Summary = resolveSummary(cmd, batch)

			adapter, err := focusAdapter()
			if err != nil {
				return err
			}
			return adapter.Create(NewContext(), req)
		},
	}
	cmd.Flags().StringP("file", "f", "", "YAML or JSON file with the initial records (- for stdin)")
	cmd.Flags().StringP("summary", "s", "", "Version summary")
	cmd.Flags().String("source-ref", "", "Provenance recorded on the initial records")
	return cmd
}

func focusShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show [focus-area-id]",
		Short: "Show the current version of a focus area",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "focus area")
			if err != nil {
				return err
			}
			includeDeleted, _ := cmd.Flags().GetBool("include-deleted")

			adapter, err := focusAdapter()
			if err != nil {
				return err
			}
			return adapter.Show(NewContext(), id, includeDeleted)
		},
	}
	cmd.Flags().Bool("include-deleted", false, "Include records flagged deleted")
	return cmd
}

func focusEditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit [focus-area-id]",
		Short: "Apply an edit batch as a new version",
		Long: `Apply an edit batch as a new version.

Records that reference an existing id replace it; records with id "new" (or
no id) are appended; records not mentioned are carried forward. Set
deleted: true on a record to flag it deleted.

Examples:
  fa focus export 7 > risks.yaml && $EDITOR risks.yaml && fa focus edit 7 -f risks.yaml
  fa focus edit 7 --base 41 --delete-all`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "focus area")
			if err != nil {
				return err
			}
			deleteAll, _ := cmd.Flags().GetBool("delete-all")
			path, _ := cmd.Flags().GetString("file")
			if path == "" && !deleteAll {
				return fmt.Errorf("--file is required unless --delete-all is set")
			}

			var batch *cliadapter.BatchFile
			if path != "" {
				if batch, err = readBatchFile(path); err != nil {
					return err
				}
			}
			base, err := resolveBase(cmd, batch)
			if err != nil {
				return err
			}

			req := primary.ApplyBatchRequest{
				FocusAreaID:   id,
				BaseVersionID: base,
				Summary:       resolveSummary(cmd, batch),
				DeleteAll:     deleteAll,
			}
			if batch != nil {
				req.Records = batch.Records
			}

			adapter, err := focusAdapter()
			if err != nil {
				return err
			}
			return adapter.Apply(NewContext(), req)
		},
	}
	cmd.Flags().StringP("file", "f", "", "YAML or JSON batch file (- for stdin)")
	cmd.Flags().Int64("base", 0, "Base version id (overrides the batch file)")
	cmd.Flags().StringP("summary", "s", "", "Version summary")
	cmd.Flags().Bool("delete-all", false, "Remove the focus area instead of applying records")
	return cmd
}

func focusRemoveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove [focus-area-id]",
		Short: "Soft-delete a focus area as a new version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "focus area")
			if err != nil {
				return err
			}
			base, err := resolveBase(cmd, nil)
			if err != nil {
				return err
			}

			adapter, err := focusAdapter()
			if err != nil {
				return err
			}
			return adapter.Remove(NewContext(), primary.RemoveFocusAreaRequest{
				FocusAreaID:   id,
				BaseVersionID: base,
				Summary:       resolveSummary(cmd, nil),
			})
		},
	}
	cmd.Flags().Int64("base", 0, "Base version id")
	cmd.Flags().StringP("summary", "s", "", "Version summary")
	return cmd
}

func focusReviseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "revise [focus-area-id] [instructions...]",
		Short: "Ask the AI revision service for a new version",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "focus area")
			if err != nil {
				return err
			}
			base, err := resolveBase(cmd, nil)
			if err != nil {
				return err
			}

			adapter, err := focusAdapter()
			if err != nil {
				return err
			}
			return adapter.Revise(NewContext(), primary.AIRevisionRequest{
				FocusAreaID:   id,
				BaseVersionID: base,
				Instructions:  strings.Join(args[1:], " "),
			})
		},
	}
	cmd.Flags().Int64("base", 0, "Base version id")
	return cmd
}

func focusProposeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "propose [focus-area-id]",
		Short: "Apply an AI-merged batch produced elsewhere",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "focus area")
			if err != nil {
				return err
			}
			path, _ := cmd.Flags().GetString("file")
			batch, err := readBatchFile(path)
			if err != nil {
				return err
			}
			base, err := resolveBase(cmd, batch)
			if err != nil {
				return err
			}
			sourceRef, _ := cmd.Flags().GetString("source-ref")

			adapter, err := focusAdapter()
			if err != nil {
				return err
			}
			return adapter.Propose(NewContext(), primary.ProposalRequest{
				FocusAreaID:   id,
				BaseVersionID: base,
				Summary:       resolveSummary(cmd, batch),
				SourceRef:     sourceRef,
				Records:       batch.Records,
			})
		},
	}
	cmd.Flags().StringP("file", "f", "", "YAML or JSON batch file (- for stdin)")
	cmd.Flags().Int64("base", 0, "Base version id (overrides the batch file)")
	cmd.Flags().StringP("summary", "s", "", "Version summary")
	cmd.Flags().String("source-ref", "", "Provenance recorded on appended records")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func focusRecoverCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recover [focus-area-id] [version-number]",
		Short: "Make a copy of a past version the current version",
		Long: `Make a copy of a past version the current version.

The recovered content is appended as a new version; history is never
rewritten. Recovering a removed focus area reactivates it. --base is
optional and, when given, must match the current version.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "focus area")
			if err != nil {
				return err
			}
			number, err := parseVersionNumber(args[1])
			if err != nil {
				return err
			}
			base, _ := cmd.Flags().GetInt64("base")

			adapter, err := focusAdapter()
			if err != nil {
				return err
			}
			return adapter.Recover(NewContext(), primary.RecoverRequest{
				FocusAreaID:   id,
				VersionNumber: number,
				BaseVersionID: base,
				Summary:       resolveSummary(cmd, nil),
			})
		},
	}
	cmd.Flags().Int64("base", 0, "Base version id (optional)")
	cmd.Flags().StringP("summary", "s", "", "Version summary")
	return cmd
}

func focusHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history [focus-area-id]",
		Short: "List the versions of a focus area, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "focus area")
			if err != nil {
				return err
			}
			adapter, err := focusAdapter()
			if err != nil {
				return err
			}
			return adapter.History(NewContext(), id)
		},
	}
}

func focusVersionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "versions [focus-area-id] [version-number]",
		Short: "Show the records of one past version",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "focus area")
			if err != nil {
				return err
			}
			number, err := parseVersionNumber(args[1])
			if err != nil {
				return err
			}
			includeDeleted, _ := cmd.Flags().GetBool("include-deleted")

			adapter, err := focusAdapter()
			if err != nil {
				return err
			}
			return adapter.Version(NewContext(), id, number, includeDeleted)
		},
	}
	cmd.Flags().Bool("include-deleted", false, "Include records flagged deleted")
	return cmd
}

func focusVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify [focus-area-id]",
		Short: "Recompute version checksums and check numbering",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "focus area")
			if err != nil {
				return err
			}
			adapter, err := focusAdapter()
			if err != nil {
				return err
			}
			return adapter.Verify(NewContext(), id)
		},
	}
}

func focusExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export [focus-area-id]",
		Short: "Write the current version as an editable batch file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "focus area")
			if err != nil {
				return err
			}
			includeDeleted, _ := cmd.Flags().GetBool("include-deleted")

			adapter, err := focusAdapter()
			if err != nil {
				return err
			}
			return adapter.Export(NewContext(), id, includeDeleted)
		},
	}
	cmd.Flags().Bool("include-deleted", false, "Include records flagged deleted")
	return cmd
}
