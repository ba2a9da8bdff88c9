package app

import (
	"context"
	"slices"

	"go.uber.org/zap"

	"github.com/example/focusarea/internal/apperr"
	"github.com/example/focusarea/internal/core/revision"
	"github.com/example/focusarea/internal/ports/primary"
	"github.com/example/focusarea/internal/ports/secondary"
)

// HistoryServiceImpl implements the HistoryService interface.
type HistoryServiceImpl struct {
	store  secondary.VersionStore
	logger *zap.Logger
}

// NewHistoryService creates a new HistoryService with injected dependencies.
func NewHistoryService(store secondary.VersionStore, logger *zap.Logger) *HistoryServiceImpl {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HistoryServiceImpl{store: store, logger: logger}
}

// ListHistory lists every version of a focus area, newest first.
func (s *HistoryServiceImpl) ListHistory(ctx context.Context, focusAreaID int64) ([]*primary.HistoryEntry, error) {
	fa, err := s.store.GetFocusArea(ctx, focusAreaID)
	if err != nil {
		return nil, err
	}
	versions, err := s.store.ListVersions(ctx, focusAreaID)
	if err != nil {
		return nil, err
	}

	entries := make([]*primary.HistoryEntry, 0, len(versions))
	for _, v := range versions {
		entry := toHistoryEntry(v, fa.CurrentVersionID)
		entries = append(entries, &entry)
	}
	return entries, nil
}

// GetVersionRecords returns one version of a focus area and its records.
func (s *HistoryServiceImpl) GetVersionRecords(ctx context.Context, focusAreaID int64, versionNumber int, includeDeleted bool) (*primary.VersionView, error) {
	if versionNumber < 0 {
		return nil, apperr.InvalidInput("version number must be non-negative, got %d", versionNumber)
	}
	fa, err := s.store.GetFocusArea(ctx, focusAreaID)
	if err != nil {
		return nil, err
	}
	version, err := s.store.GetVersionByNumber(ctx, focusAreaID, versionNumber)
	if err != nil {
		return nil, err
	}
	records, err := s.store.ListRecords(ctx, version.ID, includeDeleted)
	if err != nil {
		return nil, err
	}

	return &primary.VersionView{
		FocusAreaID: fa.ID,
		Version:     toHistoryEntry(version, fa.CurrentVersionID),
		Records:     records,
	}, nil
}

// VerifyHistory recomputes every version's checksum from its stored records
// and checks that version numbers run 0..n without gaps and that the current
// pointer names the newest version.
func (s *HistoryServiceImpl) VerifyHistory(ctx context.Context, focusAreaID int64) (*primary.VerifyReport, error) {
	fa, err := s.store.GetFocusArea(ctx, focusAreaID)
	if err != nil {
		return nil, err
	}
	versions, err := s.store.ListVersions(ctx, focusAreaID)
	if err != nil {
		return nil, err
	}
	slices.SortFunc(versions, func(a, b *secondary.VersionRecord) int {
		return a.VersionNumber - b.VersionNumber
	})

	report := &primary.VerifyReport{FocusAreaID: focusAreaID, Versions: len(versions)}

	expected := 0
	for _, v := range versions {
		for ; expected < v.VersionNumber; expected++ {
			report.Gaps = append(report.Gaps, expected)
		}
		expected = v.VersionNumber + 1

		if v.Checksum == "" {
			report.Unchecked = append(report.Unchecked, v.VersionNumber)
			continue
		}
		records, err := s.store.ListRecords(ctx, v.ID, true)
		if err != nil {
			return nil, err
		}
		computed, err := revision.Checksum(records)
		if err != nil {
			return nil, apperr.StorageFailure("failed to checksum records", err)
		}
		if computed != v.Checksum {
			report.Mismatches = append(report.Mismatches, primary.VerifyIssue{
				VersionNumber: v.VersionNumber,
				Stored:        v.Checksum,
				Computed:      computed,
			})
		}
	}

	if n := len(versions); n > 0 {
		report.CurrentIsLatest = versions[n-1].ID == fa.CurrentVersionID
	}
	report.OK = report.CurrentIsLatest && len(report.Mismatches) == 0 && len(report.Gaps) == 0

	if !report.OK {
		s.logger.Warn("focus area history failed verification",
			zap.Int64("focus_area_id", focusAreaID),
			zap.Int("mismatches", len(report.Mismatches)),
			zap.Ints("gaps", report.Gaps),
			zap.Bool("current_is_latest", report.CurrentIsLatest),
		)
	}
	return report, nil
}

// Ensure HistoryServiceImpl implements the interface
var _ primary.HistoryService = (*HistoryServiceImpl)(nil)
