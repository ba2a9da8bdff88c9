// Package secondary defines the secondary ports (driven adapters) for the application.
// These are the interfaces through which the application drives external systems.
package secondary

import (
	"context"

	"github.com/example/focusarea/internal/core/revision"
)

// VersionStore defines the secondary port for focus-area version persistence.
//
// Versions and records are append-only. The only mutation of existing rows is
// the focus area's current-version pointer and deleted flag, and both move
// only through CommitVersion's compare-and-swap.
type VersionStore interface {
	// CreateFocusArea persists a focus area together with its version 0.
	CreateFocusArea(ctx context.Context, params CreateFocusAreaParams) (*FocusAreaRecord, *VersionRecord, error)

	// CommitVersion appends a version and advances the current pointer from
	// params.BaseVersionID to it. A stale base yields *apperr.ConflictError
	// and writes nothing.
	CommitVersion(ctx context.Context, params CommitParams) (*VersionRecord, error)

	// GetFocusArea retrieves a focus area by its ID.
	GetFocusArea(ctx context.Context, id int64) (*FocusAreaRecord, error)

	// ListFocusAreas retrieves the focus areas of a package.
	ListFocusAreas(ctx context.Context, packageID int64) ([]*FocusAreaRecord, error)

	// GetCurrentVersion retrieves the version the focus area's pointer names.
	GetCurrentVersion(ctx context.Context, focusAreaID int64) (*VersionRecord, error)

	// GetVersion retrieves a version by its ID.
	GetVersion(ctx context.Context, versionID int64) (*VersionRecord, error)

	// GetVersionByNumber retrieves a version by its per-focus-area number.
	GetVersionByNumber(ctx context.Context, focusAreaID int64, number int) (*VersionRecord, error)

	// ListVersions retrieves every version of a focus area, newest first.
	ListVersions(ctx context.Context, focusAreaID int64) ([]*VersionRecord, error)

	// ListRecords retrieves the records of a version in display order.
	ListRecords(ctx context.Context, versionID int64, includeDeleted bool) ([]revision.Record, error)
}

// FocusAreaRecord represents a focus area as stored in persistence.
type FocusAreaRecord struct {
	ID                   int64
	PackageID            int64
	Name                 string
	Deleted              bool
	CurrentVersionID     int64
	CurrentVersionNumber int
	CreatedAt            string
}

// VersionRecord represents a version as stored in persistence.
type VersionRecord struct {
	ID            int64
	FocusAreaID   int64
	VersionNumber int
	Summary       string
	Operation     string
	CreatedBy     string
	Checksum      string
	Stats         revision.Stats
	CreatedAt     string
}

// CreateFocusAreaParams contains the data written for a new focus area.
type CreateFocusAreaParams struct {
	PackageID int64
	Name      string
	Summary   string
	CreatedBy string
	Checksum  string
	Records   []revision.Record
	Stats     revision.Stats
}

// CommitParams contains the data written for a new version.
type CommitParams struct {
	FocusAreaID   int64
	BaseVersionID int64
	Summary       string
	Operation     string
	CreatedBy     string
	Checksum      string
	Records       []revision.Record
	Stats         revision.Stats
	// SetDeleted, when non-nil, is stored as the focus area's deleted flag
	// in the same statement that advances the pointer.
	SetDeleted *bool
}

// PackageLookup defines the read-only view of parent packages the version
// engine needs.
type PackageLookup interface {
	// GetPackage retrieves a package by its ID.
	GetPackage(ctx context.Context, id int64) (*PackageRecord, error)
}

// PackageRepository defines the secondary port for package persistence.
type PackageRepository interface {
	PackageLookup

	// Create persists a new package.
	Create(ctx context.Context, name string) (*PackageRecord, error)

	// List retrieves all packages.
	List(ctx context.Context) ([]*PackageRecord, error)

	// SoftDelete flags a package as deleted.
	SoftDelete(ctx context.Context, id int64) error
}

// PackageRecord represents a package as stored in persistence.
type PackageRecord struct {
	ID        int64
	Name      string
	Deleted   bool
	CreatedAt string
}
