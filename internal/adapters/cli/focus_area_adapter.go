package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/example/focusarea/internal/core/revision"
	"github.com/example/focusarea/internal/ports/primary"
)

// FocusAreaAdapter is a thin adapter that translates CLI operations to
// FocusAreaService and HistoryService calls.
type FocusAreaAdapter struct {
	service primary.FocusAreaService
	history primary.HistoryService
	out     io.Writer
	format  Format
}

// NewFocusAreaAdapter creates a new FocusAreaAdapter.
func NewFocusAreaAdapter(service primary.FocusAreaService, history primary.HistoryService, out io.Writer, format Format) *FocusAreaAdapter {
	return &FocusAreaAdapter{service: service, history: history, out: out, format: format}
}

// Create creates a focus area with an optional initial batch.
func (a *FocusAreaAdapter) Create(ctx context.Context, req primary.CreateFocusAreaRequest) error {
	resp, err := a.service.CreateFocusArea(ctx, req)
	if err != nil {
		return err
	}
	if a.format != FormatText {
		return writeStructured(a.out, a.format, resp)
	}
	fmt.Fprintf(a.out, "%s Created focus area %s with %d record(s) (version %s)\n",
		checkMark(), idString(resp.FocusAreaID), resp.Stats.Added, idString(resp.VersionID))
	return nil
}

// Show displays the current version of a focus area.
func (a *FocusAreaAdapter) Show(ctx context.Context, focusAreaID int64, includeDeleted bool) error {
	view, err := a.service.GetCurrent(ctx, focusAreaID, includeDeleted)
	if err != nil {
		return err
	}
	if a.format != FormatText {
		return writeStructured(a.out, a.format, view)
	}

	fa := view.FocusArea
	fmt.Fprintf(a.out, "\nFocus area: %s\n", idString(fa.ID))
	fmt.Fprintf(a.out, "Name:       %s\n", fa.Name)
	fmt.Fprintf(a.out, "Package:    %d\n", fa.PackageID)
	if fa.Deleted {
		fmt.Fprintf(a.out, "Status:     %s\n", deletedMark())
	} else {
		fmt.Fprintf(a.out, "Status:     active\n")
	}
	fmt.Fprintf(a.out, "Version:    %d (id %d, %s)\n", view.Version.VersionNumber, view.Version.VersionID, view.Version.Summary)
	fmt.Fprintf(a.out, "Created:    %s\n", fa.CreatedAt)
	a.writeRecords(view.Records)
	return nil
}

// Apply runs an edit batch and reports the new version.
func (a *FocusAreaAdapter) Apply(ctx context.Context, req primary.ApplyBatchRequest) error {
	resp, err := a.service.ApplyBatch(ctx, req)
	if err != nil {
		return err
	}
	return a.writeMutation("Applied batch to", resp)
}

// Remove soft-deletes a focus area.
func (a *FocusAreaAdapter) Remove(ctx context.Context, req primary.RemoveFocusAreaRequest) error {
	resp, err := a.service.RemoveFocusArea(ctx, req)
	if err != nil {
		return err
	}
	return a.writeMutation("Removed", resp)
}

// Revise asks the AI service for a revision.
func (a *FocusAreaAdapter) Revise(ctx context.Context, req primary.AIRevisionRequest) error {
	resp, err := a.service.ApplyAIRevision(ctx, req)
	if err != nil {
		return err
	}
	return a.writeMutation("AI revised", resp)
}

// Propose applies a batch merged by the AI service elsewhere.
func (a *FocusAreaAdapter) Propose(ctx context.Context, req primary.ProposalRequest) error {
	resp, err := a.service.ApplyRevisionProposal(ctx, req)
	if err != nil {
		return err
	}
	return a.writeMutation("Applied proposal to", resp)
}

// Recover copies a past version forward.
func (a *FocusAreaAdapter) Recover(ctx context.Context, req primary.RecoverRequest) error {
	resp, err := a.service.RecoverVersion(ctx, req)
	if err != nil {
		return err
	}
	return a.writeMutation(fmt.Sprintf("Recovered version %d of", req.VersionNumber), resp)
}

// History lists the versions of a focus area, newest first.
func (a *FocusAreaAdapter) History(ctx context.Context, focusAreaID int64) error {
	entries, err := a.history.ListHistory(ctx, focusAreaID)
	if err != nil {
		return err
	}
	if a.format != FormatText {
		return writeStructured(a.out, a.format, entries)
	}

	fmt.Fprintf(a.out, "\n%-5s %-8s %-12s %-21s %-14s %s\n", "VER", "ID", "OPERATION", "CREATED", "+/~/=/x", "SUMMARY")
	fmt.Fprintln(a.out, "────────────────────────────────────────────────────────────────────────────────")
	for _, e := range entries {
		stats := fmt.Sprintf("%d/%d/%d/%d", e.Stats.Added, e.Stats.Updated, e.Stats.Carried, e.Stats.Deleted)
		marker := ""
		if e.Current {
			marker = currentMark()
		}
		fmt.Fprintf(a.out, "%-5d %-8d %-12s %-21s %-14s %s%s\n",
			e.VersionNumber, e.VersionID, e.Operation, e.CreatedAt, stats, e.Summary, marker)
	}
	fmt.Fprintln(a.out)
	return nil
}

// Version displays one past version.
func (a *FocusAreaAdapter) Version(ctx context.Context, focusAreaID int64, number int, includeDeleted bool) error {
	view, err := a.history.GetVersionRecords(ctx, focusAreaID, number, includeDeleted)
	if err != nil {
		return err
	}
	if a.format != FormatText {
		return writeStructured(a.out, a.format, view)
	}

	v := view.Version
	fmt.Fprintf(a.out, "\nFocus area %s, version %d (id %d)\n", idString(view.FocusAreaID), v.VersionNumber, v.VersionID)
	fmt.Fprintf(a.out, "Operation: %s\n", v.Operation)
	fmt.Fprintf(a.out, "Summary:   %s\n", v.Summary)
	if v.CreatedBy != "" {
		fmt.Fprintf(a.out, "By:        %s\n", v.CreatedBy)
	}
	fmt.Fprintf(a.out, "Created:   %s\n", v.CreatedAt)
	a.writeRecords(view.Records)
	return nil
}

// Verify checks a focus area's history and reports problems. It returns an
// error when verification fails so the command exits non-zero.
func (a *FocusAreaAdapter) Verify(ctx context.Context, focusAreaID int64) error {
	report, err := a.history.VerifyHistory(ctx, focusAreaID)
	if err != nil {
		return err
	}
	if a.format != FormatText {
		if err := writeStructured(a.out, a.format, report); err != nil {
			return err
		}
	} else {
		a.writeReport(report)
	}
	if !report.OK {
		return fmt.Errorf("focus area %d failed verification", focusAreaID)
	}
	return nil
}

func (a *FocusAreaAdapter) writeReport(report *primary.VerifyReport) {
	if report.OK {
		fmt.Fprintf(a.out, "%s Focus area %d: %d version(s) verified\n", checkMark(), report.FocusAreaID, report.Versions)
	} else {
		fmt.Fprintf(a.out, "%s Focus area %d: history verification failed\n",
			color.New(color.FgRed).Sprint("✗"), report.FocusAreaID)
	}
	for _, m := range report.Mismatches {
		fmt.Fprintf(a.out, "  version %d: checksum %s, records hash to %s\n", m.VersionNumber, short(m.Stored), short(m.Computed))
	}
	for _, g := range report.Gaps {
		fmt.Fprintf(a.out, "  version %d is missing\n", g)
	}
	if !report.CurrentIsLatest {
		fmt.Fprintln(a.out, "  current version is not the newest version")
	}
	if len(report.Unchecked) > 0 {
		fmt.Fprintf(a.out, "  %s no checksum recorded for version(s) %v\n",
			color.New(color.FgYellow).Sprint("!"), report.Unchecked)
	}
}

// exportRecord is one record in the editable batch written by Export.
type exportRecord struct {
	ID         int64               `json:"id"`
	Deleted    bool                `json:"deleted"`
	Properties revision.Properties `json:"properties"`
}

type exportFile struct {
	BaseVersionID int64          `json:"base_version_id"`
	Summary       string         `json:"summary"`
	Records       []exportRecord `json:"records"`
}

// Export writes the current version as a batch file that `focus edit --file`
// accepts after editing. Structured formats only; text falls back to YAML.
func (a *FocusAreaAdapter) Export(ctx context.Context, focusAreaID int64, includeDeleted bool) error {
	view, err := a.service.GetCurrent(ctx, focusAreaID, includeDeleted)
	if err != nil {
		return err
	}
	file := exportFile{
		BaseVersionID: view.Version.VersionID,
		Summary:       "",
		Records:       make([]exportRecord, 0, len(view.Records)),
	}
	for _, r := range view.Records {
		file.Records = append(file.Records, exportRecord{ID: r.ID, Deleted: r.Deleted, Properties: r.Properties})
	}

	format := a.format
	if format == FormatText {
		format = FormatYAML
	}
	return writeStructured(a.out, format, file)
}

func (a *FocusAreaAdapter) writeMutation(verb string, resp *primary.MutationResponse) error {
	if a.format != FormatText {
		return writeStructured(a.out, a.format, resp)
	}
	s := resp.Stats
	fmt.Fprintf(a.out, "%s %s focus area %s: version %d (id %d), %d added, %d updated, %d carried, %d deleted\n",
		checkMark(), verb, idString(resp.FocusAreaID), resp.VersionNumber, resp.VersionID,
		s.Added, s.Updated, s.Carried, s.Deleted)
	return nil
}

func (a *FocusAreaAdapter) writeRecords(records []revision.Record) {
	if len(records) == 0 {
		fmt.Fprintln(a.out, "\nNo records")
		fmt.Fprintln(a.out)
		return
	}
	fmt.Fprintf(a.out, "\n%-5s %-8s %-8s %s\n", "GRID", "ID", "STATE", "PROPERTIES")
	fmt.Fprintln(a.out, "────────────────────────────────────────────────────────────────")
	for _, r := range records {
		state := "live"
		if r.Deleted {
			state = deletedMark()
		}
		fmt.Fprintf(a.out, "%-5d %-8d %-8s %s\n", r.GridIndex, r.ID, state, compactProperties(r.Properties))
	}
	fmt.Fprintln(a.out)
}

func compactProperties(p revision.Properties) string {
	data, err := json.Marshal(p)
	if err != nil {
		return "<unprintable>"
	}
	s := string(data)
	if len(s) > 100 {
		s = s[:97] + "..."
	}
	return s
}

func short(checksum string) string {
	if len(checksum) > 12 {
		return checksum[:12]
	}
	return strings.TrimSpace(checksum)
}
