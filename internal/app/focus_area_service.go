package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/example/focusarea/internal/apperr"
	"github.com/example/focusarea/internal/core/focusarea"
	"github.com/example/focusarea/internal/core/revision"
	"github.com/example/focusarea/internal/ctxutil"
	"github.com/example/focusarea/internal/observability"
	"github.com/example/focusarea/internal/ports/primary"
	"github.com/example/focusarea/internal/ports/secondary"
)

// FocusAreaServiceImpl implements the FocusAreaService interface.
type FocusAreaServiceImpl struct {
	store     secondary.VersionStore
	packages  secondary.PackageLookup
	generator secondary.RevisionGenerator
	logger    *zap.Logger
	metrics   *observability.Collector
	reconcile revision.Options
}

// NewFocusAreaService creates a new FocusAreaService with injected dependencies.
// generator may be nil, in which case AI revisions fail with an External error.
func NewFocusAreaService(
	store secondary.VersionStore,
	packages secondary.PackageLookup,
	generator secondary.RevisionGenerator,
	logger *zap.Logger,
	metrics *observability.Collector,
	reconcile revision.Options,
) *FocusAreaServiceImpl {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FocusAreaServiceImpl{
		store:     store,
		packages:  packages,
		generator: generator,
		logger:    logger,
		metrics:   metrics,
		reconcile: reconcile,
	}
}

// CreateFocusArea creates a focus area with its initial version 0.
func (s *FocusAreaServiceImpl) CreateFocusArea(ctx context.Context, req primary.CreateFocusAreaRequest) (*primary.MutationResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	guardCtx := focusarea.CreateContext{PackageID: req.PackageID, Name: req.Name}
	pkg, err := s.packages.GetPackage(ctx, req.PackageID)
	switch {
	case err == nil:
		guardCtx.PackageExists = true
		guardCtx.PackageDeleted = pkg.Deleted
	case !errors.Is(err, apperr.ErrNotFound):
		return nil, err
	}
	if result := focusarea.CanCreate(guardCtx); !result.Allowed {
		return nil, result.Error()
	}

	reconciled, err := revision.Initial(req.Records, req.SourceRef)
	if err != nil {
		return nil, err
	}
	checksum, err := revision.Checksum(reconciled.Records)
	if err != nil {
		return nil, apperr.StorageFailure("failed to checksum records", err)
	}

	summary := req.Summary
	if summary == "" {
		summary = focusarea.DefaultSummary(focusarea.OperationCreate, 0, 0)
	}

	fa, version, err := s.store.CreateFocusArea(ctx, secondary.CreateFocusAreaParams{
		PackageID: req.PackageID,
		Name:      strings.TrimSpace(req.Name),
		Summary:   summary,
		CreatedBy: ctxutil.ActorFromContext(ctx),
		Checksum:  checksum,
		Records:   reconciled.Records,
		Stats:     reconciled.Stats,
	})
	if err != nil {
		return nil, err
	}

	s.metrics.VersionCommitted(string(focusarea.OperationCreate), reconciled.Stats)
	s.logger.Info("focus area created",
		zap.Int64("focus_area_id", fa.ID),
		zap.Int64("package_id", fa.PackageID),
		zap.Int64("version_id", version.ID),
		zap.Int("records", len(reconciled.Records)),
		zap.String("actor", version.CreatedBy),
		zap.String("request_id", ctxutil.RequestIDFromContext(ctx)),
	)

	return &primary.MutationResponse{
		FocusAreaID:   fa.ID,
		VersionID:     version.ID,
		VersionNumber: version.VersionNumber,
		Stats:         reconciled.Stats,
	}, nil
}

// GetCurrent returns the current version of a focus area and its records.
func (s *FocusAreaServiceImpl) GetCurrent(ctx context.Context, focusAreaID int64, includeDeleted bool) (*primary.CurrentView, error) {
	fa, err := s.store.GetFocusArea(ctx, focusAreaID)
	if err != nil {
		return nil, err
	}
	version, err := s.store.GetCurrentVersion(ctx, focusAreaID)
	if err != nil {
		return nil, err
	}
	records, err := s.store.ListRecords(ctx, version.ID, includeDeleted)
	if err != nil {
		return nil, err
	}

	return &primary.CurrentView{
		FocusArea: toFocusArea(fa),
		Version:   toHistoryEntry(version, fa.CurrentVersionID),
		Records:   records,
	}, nil
}

// ListFocusAreas lists the focus areas of a package.
func (s *FocusAreaServiceImpl) ListFocusAreas(ctx context.Context, packageID int64) ([]*primary.FocusArea, error) {
	if _, err := s.packages.GetPackage(ctx, packageID); err != nil {
		return nil, err
	}
	records, err := s.store.ListFocusAreas(ctx, packageID)
	if err != nil {
		return nil, err
	}

	list := make([]*primary.FocusArea, 0, len(records))
	for _, r := range records {
		fa := toFocusArea(r)
		list = append(list, &fa)
	}
	return list, nil
}

// ApplyBatch reconciles a user edit batch against the base version.
func (s *FocusAreaServiceImpl) ApplyBatch(ctx context.Context, req primary.ApplyBatchRequest) (*primary.MutationResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if req.DeleteAll {
		return s.RemoveFocusArea(ctx, primary.RemoveFocusAreaRequest{
			FocusAreaID:   req.FocusAreaID,
			BaseVersionID: req.BaseVersionID,
			Summary:       req.Summary,
		})
	}

	base, err := s.loadBase(ctx, req.FocusAreaID, req.BaseVersionID, focusarea.OperationEdit)
	if err != nil {
		return nil, err
	}

	reconciled, err := revision.Reconcile(base.records, req.Records, s.reconcile)
	if err != nil {
		return nil, err
	}

	summary := req.Summary
	if summary == "" {
		summary = focusarea.DefaultSummary(focusarea.OperationEdit, len(req.Records), 0)
	}
	return s.commit(ctx, focusarea.OperationEdit, base, summary, reconciled, nil)
}

// RemoveFocusArea soft-deletes a focus area: the new version carries every
// record with deleted set and the focus area is flagged deleted.
func (s *FocusAreaServiceImpl) RemoveFocusArea(ctx context.Context, req primary.RemoveFocusAreaRequest) (*primary.MutationResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	base, err := s.loadBase(ctx, req.FocusAreaID, req.BaseVersionID, focusarea.OperationRemove)
	if err != nil {
		return nil, err
	}

	summary := req.Summary
	if summary == "" {
		summary = focusarea.DefaultSummary(focusarea.OperationRemove, 0, 0)
	}
	deleted := true
	return s.commit(ctx, focusarea.OperationRemove, base, summary, revision.ForceDeleted(base.records), &deleted)
}

// ApplyAIRevision asks the AI service for a revised batch and reconciles it
// exactly like a user edit.
func (s *FocusAreaServiceImpl) ApplyAIRevision(ctx context.Context, req primary.AIRevisionRequest) (*primary.MutationResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if s.generator == nil {
		return nil, apperr.External("AI revision service is not configured", nil)
	}

	base, err := s.loadBase(ctx, req.FocusAreaID, req.BaseVersionID, focusarea.OperationAI)
	if err != nil {
		return nil, err
	}

	live := make([]revision.Record, 0, len(base.records))
	for _, r := range base.records {
		if !r.Deleted {
			live = append(live, r)
		}
	}

	start := time.Now()
	proposal, err := s.generator.Propose(ctx, secondary.RevisionPrompt{
		FocusAreaID:   base.focusArea.ID,
		FocusAreaName: base.focusArea.Name,
		VersionNumber: base.version.VersionNumber,
		Instructions:  req.Instructions,
		Records:       live,
	})
	s.metrics.ObserveAIRevision(time.Since(start), err)
	if err != nil {
		var appErr *apperr.Error
		if !errors.As(err, &appErr) {
			err = apperr.External("AI revision failed", err)
		}
		s.logger.Warn("AI revision failed",
			zap.Int64("focus_area_id", req.FocusAreaID),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return nil, err
	}

	opts := s.reconcile
	if proposal.RequestID != "" {
		opts.SourceRef = "ai:" + proposal.RequestID
	}
	reconciled, err := revision.Reconcile(base.records, proposal.Records, opts)
	if err != nil {
		return nil, err
	}

	summary := proposal.Summary
	if summary == "" {
		summary = focusarea.DefaultSummary(focusarea.OperationAI, 0, 0)
	}
	return s.commit(ctx, focusarea.OperationAI, base, summary, reconciled, nil)
}

// ApplyRevisionProposal applies a batch that was merged by the AI service
// outside this engine (feedback workflow).
func (s *FocusAreaServiceImpl) ApplyRevisionProposal(ctx context.Context, req primary.ProposalRequest) (*primary.MutationResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	base, err := s.loadBase(ctx, req.FocusAreaID, req.BaseVersionID, focusarea.OperationAI)
	if err != nil {
		return nil, err
	}

	opts := s.reconcile
	opts.SourceRef = req.SourceRef
	reconciled, err := revision.Reconcile(base.records, req.Records, opts)
	if err != nil {
		return nil, err
	}

	summary := req.Summary
	if summary == "" {
		summary = focusarea.DefaultSummary(focusarea.OperationAI, 0, 0)
	}
	return s.commit(ctx, focusarea.OperationAI, base, summary, reconciled, nil)
}

// RecoverVersion copies a past version forward as the new current version.
// It works on active and deleted focus areas alike and leaves the focus area
// active.
func (s *FocusAreaServiceImpl) RecoverVersion(ctx context.Context, req primary.RecoverRequest) (*primary.MutationResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	fa, err := s.store.GetFocusArea(ctx, req.FocusAreaID)
	if err != nil {
		return nil, err
	}

	target, err := s.store.GetVersionByNumber(ctx, req.FocusAreaID, req.VersionNumber)
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}
	if result := focusarea.CanRecover(focusarea.RecoverContext{
		FocusAreaID:   req.FocusAreaID,
		VersionNumber: req.VersionNumber,
		TargetExists:  target != nil,
	}); !result.Allowed {
		return nil, result.Error()
	}

	current, err := s.store.GetCurrentVersion(ctx, req.FocusAreaID)
	if err != nil {
		return nil, err
	}
	baseID := current.ID
	if req.BaseVersionID != 0 {
		if err := s.checkBase(fa, current, req.BaseVersionID, focusarea.OperationRecover); err != nil {
			return nil, err
		}
		baseID = req.BaseVersionID
	}

	targetRecords, err := s.store.ListRecords(ctx, target.ID, true)
	if err != nil {
		return nil, err
	}

	summary := req.Summary
	if summary == "" {
		summary = focusarea.DefaultSummary(focusarea.OperationRecover, 0, req.VersionNumber)
	}
	active := false
	base := &baseState{focusArea: fa, version: current, baseVersionID: baseID}
	return s.commit(ctx, focusarea.OperationRecover, base, summary, revision.CopyWholesale(targetRecords), &active)
}

// baseState is what a mutation read before reconciling.
type baseState struct {
	focusArea     *secondary.FocusAreaRecord
	version       *secondary.VersionRecord
	baseVersionID int64
	records       []revision.Record
}

// loadBase loads the focus area, runs the active-only guard and the early
// base-version check, and reads the base version's full record set.
func (s *FocusAreaServiceImpl) loadBase(ctx context.Context, focusAreaID, baseVersionID int64, op focusarea.Operation) (*baseState, error) {
	fa, err := s.store.GetFocusArea(ctx, focusAreaID)
	if err != nil {
		return nil, err
	}
	if result := focusarea.CanMutate(focusarea.MutateContext{
		FocusAreaID: fa.ID,
		Deleted:     fa.Deleted,
		Operation:   op,
	}); !result.Allowed {
		return nil, result.Error()
	}

	current, err := s.store.GetCurrentVersion(ctx, focusAreaID)
	if err != nil {
		return nil, err
	}
	if err := s.checkBase(fa, current, baseVersionID, op); err != nil {
		return nil, err
	}

	records, err := s.store.ListRecords(ctx, current.ID, true)
	if err != nil {
		return nil, err
	}
	return &baseState{focusArea: fa, version: current, baseVersionID: baseVersionID, records: records}, nil
}

func (s *FocusAreaServiceImpl) checkBase(fa *secondary.FocusAreaRecord, current *secondary.VersionRecord, baseVersionID int64, op focusarea.Operation) error {
	err := focusarea.CheckBaseVersion(focusarea.BaseVersionContext{
		FocusAreaID:          fa.ID,
		BaseVersionID:        baseVersionID,
		CurrentVersionID:     current.ID,
		CurrentVersionNumber: current.VersionNumber,
	})
	if errors.Is(err, apperr.ErrVersionConflict) {
		s.conflict(op, err)
	}
	return err
}

func (s *FocusAreaServiceImpl) conflict(op focusarea.Operation, err error) {
	s.metrics.VersionConflict(string(op))
	var c *apperr.ConflictError
	if errors.As(err, &c) {
		s.logger.Info("stale base version rejected",
			zap.Int64("focus_area_id", c.FocusAreaID),
			zap.String("operation", string(op)),
			zap.Int64("base_version_id", c.BaseVersionID),
			zap.Int64("current_version_id", c.CurrentVersionID),
		)
	}
}

// commit writes the reconciled set as a new version on top of base.
func (s *FocusAreaServiceImpl) commit(ctx context.Context, op focusarea.Operation, base *baseState, summary string, reconciled revision.Result, setDeleted *bool) (*primary.MutationResponse, error) {
	checksum, err := revision.Checksum(reconciled.Records)
	if err != nil {
		return nil, apperr.StorageFailure("failed to checksum records", err)
	}

	version, err := s.store.CommitVersion(ctx, secondary.CommitParams{
		FocusAreaID:   base.focusArea.ID,
		BaseVersionID: base.baseVersionID,
		Summary:       summary,
		Operation:     string(op),
		CreatedBy:     ctxutil.ActorFromContext(ctx),
		Checksum:      checksum,
		Records:       reconciled.Records,
		Stats:         reconciled.Stats,
		SetDeleted:    setDeleted,
	})
	if errors.Is(err, apperr.ErrVersionConflict) {
		s.conflict(op, err)
		return nil, err
	}
	if err != nil {
		s.logger.Error("version commit failed",
			zap.Int64("focus_area_id", base.focusArea.ID),
			zap.String("operation", string(op)),
			zap.Error(err),
		)
		return nil, err
	}

	s.metrics.VersionCommitted(string(op), reconciled.Stats)
	s.logger.Info("version committed",
		zap.Int64("focus_area_id", base.focusArea.ID),
		zap.String("operation", string(op)),
		zap.Int64("version_id", version.ID),
		zap.Int("version_number", version.VersionNumber),
		zap.Int("added", reconciled.Stats.Added),
		zap.Int("updated", reconciled.Stats.Updated),
		zap.Int("carried", reconciled.Stats.Carried),
		zap.Int("deleted", reconciled.Stats.Deleted),
		zap.String("actor", version.CreatedBy),
		zap.String("request_id", ctxutil.RequestIDFromContext(ctx)),
	)

	return &primary.MutationResponse{
		FocusAreaID:   base.focusArea.ID,
		VersionID:     version.ID,
		VersionNumber: version.VersionNumber,
		Stats:         reconciled.Stats,
	}, nil
}

func toFocusArea(r *secondary.FocusAreaRecord) primary.FocusArea {
	return primary.FocusArea{
		ID:                   r.ID,
		PackageID:            r.PackageID,
		Name:                 r.Name,
		Deleted:              r.Deleted,
		CurrentVersionID:     r.CurrentVersionID,
		CurrentVersionNumber: r.CurrentVersionNumber,
		CreatedAt:            r.CreatedAt,
	}
}

func toHistoryEntry(v *secondary.VersionRecord, currentVersionID int64) primary.HistoryEntry {
	return primary.HistoryEntry{
		VersionID:     v.ID,
		VersionNumber: v.VersionNumber,
		CreatedAt:     v.CreatedAt,
		Summary:       v.Summary,
		Operation:     v.Operation,
		CreatedBy:     v.CreatedBy,
		Checksum:      v.Checksum,
		Stats:         v.Stats,
		Current:       v.ID == currentVersionID,
	}
}

// Ensure FocusAreaServiceImpl implements the interface
var _ primary.FocusAreaService = (*FocusAreaServiceImpl)(nil)
