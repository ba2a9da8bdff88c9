package primary

import (
	"context"

	"github.com/example/focusarea/internal/core/revision"
)

// FocusAreaService defines the primary port for focus-area revision operations.
// Every mutation appends exactly one version or fails without writing.
type FocusAreaService interface {
	// CreateFocusArea creates a focus area with its initial version 0.
	CreateFocusArea(ctx context.Context, req CreateFocusAreaRequest) (*MutationResponse, error)

	// GetCurrent returns the current version of a focus area and its records.
	GetCurrent(ctx context.Context, focusAreaID int64, includeDeleted bool) (*CurrentView, error)

	// ListFocusAreas lists the focus areas of a package.
	ListFocusAreas(ctx context.Context, packageID int64) ([]*FocusArea, error)

	// ApplyBatch reconciles a user edit batch against the base version.
	ApplyBatch(ctx context.Context, req ApplyBatchRequest) (*MutationResponse, error)

	// RemoveFocusArea soft-deletes a focus area by appending a version in
	// which every record is flagged deleted.
	RemoveFocusArea(ctx context.Context, req RemoveFocusAreaRequest) (*MutationResponse, error)

	// ApplyAIRevision asks the AI service for a revised batch and applies it.
	ApplyAIRevision(ctx context.Context, req AIRevisionRequest) (*MutationResponse, error)

	// ApplyRevisionProposal applies a batch that already went through AI
	// merging elsewhere (feedback workflow).
	ApplyRevisionProposal(ctx context.Context, req ProposalRequest) (*MutationResponse, error)

	// RecoverVersion makes a copy of a past version the new current version.
	RecoverVersion(ctx context.Context, req RecoverRequest) (*MutationResponse, error)
}

// CreateFocusAreaRequest contains parameters for creating a focus area.
type CreateFocusAreaRequest struct {
	PackageID int64                     `validate:"required,gt=0"`
	Name      string                    `validate:"required,max=200"`
	Summary   string                    `validate:"max=500"`
	SourceRef string                    `validate:"max=200"`
	Records   []revision.IncomingRecord `validate:"-"`
}

// ApplyBatchRequest contains parameters for an edit/delete batch.
// DeleteAll routes the request to RemoveFocusArea.
type ApplyBatchRequest struct {
	FocusAreaID   int64                     `validate:"required,gt=0"`
	BaseVersionID int64                     `validate:"required,gt=0"`
	Summary       string                    `validate:"max=500"`
	Records       []revision.IncomingRecord `validate:"-"`
	DeleteAll     bool
}

// RemoveFocusAreaRequest contains parameters for removing a focus area.
type RemoveFocusAreaRequest struct {
	FocusAreaID   int64  `validate:"required,gt=0"`
	BaseVersionID int64  `validate:"required,gt=0"`
	Summary       string `validate:"max=500"`
}

// AIRevisionRequest contains parameters for an AI revision.
type AIRevisionRequest struct {
	FocusAreaID   int64  `validate:"required,gt=0"`
	BaseVersionID int64  `validate:"required,gt=0"`
	Instructions  string `validate:"required,max=4000"`
}

// ProposalRequest contains a post-merge AI batch.
type ProposalRequest struct {
	FocusAreaID   int64                     `validate:"required,gt=0"`
	BaseVersionID int64                     `validate:"required,gt=0"`
	Summary       string                    `validate:"max=500"`
	SourceRef     string                    `validate:"max=200"`
	Records       []revision.IncomingRecord `validate:"-"`
}

// RecoverRequest contains parameters for recovering a past version.
// BaseVersionID is optional; zero means the live current version.
type RecoverRequest struct {
	FocusAreaID   int64  `validate:"required,gt=0"`
	VersionNumber int    `validate:"gte=0"`
	BaseVersionID int64  `validate:"gte=0"`
	Summary       string `validate:"max=500"`
}

// MutationResponse is returned by every successful mutation.
type MutationResponse struct {
	FocusAreaID   int64          `json:"focus_area_id" yaml:"focus_area_id"`
	VersionID     int64          `json:"version_id" yaml:"version_id"`
	VersionNumber int            `json:"version_number" yaml:"version_number"`
	Stats         revision.Stats `json:"stats" yaml:"stats"`
}

// FocusArea is the public representation of a focus area.
type FocusArea struct {
	ID                   int64  `json:"id" yaml:"id"`
	PackageID            int64  `json:"package_id" yaml:"package_id"`
	Name                 string `json:"name" yaml:"name"`
	Deleted              bool   `json:"deleted" yaml:"deleted"`
	CurrentVersionID     int64  `json:"current_version_id" yaml:"current_version_id"`
	CurrentVersionNumber int    `json:"current_version_number" yaml:"current_version_number"`
	CreatedAt            string `json:"created_at" yaml:"created_at"`
}

// CurrentView is a focus area with its current version's records.
type CurrentView struct {
	FocusArea FocusArea         `json:"focus_area" yaml:"focus_area"`
	Version   HistoryEntry      `json:"version" yaml:"version"`
	Records   []revision.Record `json:"records" yaml:"records"`
}
