package primary

import (
	"context"

	"github.com/example/focusarea/internal/core/revision"
)

// HistoryService defines the primary port for reading version history.
type HistoryService interface {
	// ListHistory lists every version of a focus area, newest first.
	ListHistory(ctx context.Context, focusAreaID int64) ([]*HistoryEntry, error)

	// GetVersionRecords returns one version and its records.
	GetVersionRecords(ctx context.Context, focusAreaID int64, versionNumber int, includeDeleted bool) (*VersionView, error)

	// VerifyHistory recomputes stored checksums and checks version numbering.
	VerifyHistory(ctx context.Context, focusAreaID int64) (*VerifyReport, error)
}

// HistoryEntry describes one version.
type HistoryEntry struct {
	VersionID     int64          `json:"version_id" yaml:"version_id"`
	VersionNumber int            `json:"version_number" yaml:"version_number"`
	CreatedAt     string         `json:"created_at" yaml:"created_at"`
	Summary       string         `json:"summary" yaml:"summary"`
	Operation     string         `json:"operation" yaml:"operation"`
	CreatedBy     string         `json:"created_by,omitempty" yaml:"created_by,omitempty"`
	Checksum      string         `json:"checksum" yaml:"checksum"`
	Stats         revision.Stats `json:"stats" yaml:"stats"`
	Current       bool           `json:"current" yaml:"current"`
}

// VersionView is one version with its records.
type VersionView struct {
	FocusAreaID int64             `json:"focus_area_id" yaml:"focus_area_id"`
	Version     HistoryEntry      `json:"version" yaml:"version"`
	Records     []revision.Record `json:"records" yaml:"records"`
}

// VerifyReport is the result of VerifyHistory. Unchecked lists versions
// written before checksums were recorded.
type VerifyReport struct {
	FocusAreaID     int64         `json:"focus_area_id" yaml:"focus_area_id"`
	Versions        int           `json:"versions" yaml:"versions"`
	OK              bool          `json:"ok" yaml:"ok"`
	CurrentIsLatest bool          `json:"current_is_latest" yaml:"current_is_latest"`
	Unchecked       []int         `json:"unchecked,omitempty" yaml:"unchecked,omitempty"`
	Mismatches      []VerifyIssue `json:"mismatches,omitempty" yaml:"mismatches,omitempty"`
	Gaps            []int         `json:"gaps,omitempty" yaml:"gaps,omitempty"`
}

// VerifyIssue names a version whose stored checksum no longer matches its
// records.
type VerifyIssue struct {
	VersionNumber int    `json:"version_number" yaml:"version_number"`
	Stored        string `json:"stored" yaml:"stored"`
	Computed      string `json:"computed" yaml:"computed"`
}
