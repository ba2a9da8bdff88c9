package primary

import "context"

// PackageService defines the primary port for parent-package operations.
// Packages belong to the surrounding product; this service exists so the
// engine can be run and exercised on its own.
type PackageService interface {
	// CreatePackage creates a new package.
	CreatePackage(ctx context.Context, req CreatePackageRequest) (*Package, error)

	// GetPackage retrieves a package by ID.
	GetPackage(ctx context.Context, id int64) (*Package, error)

	// ListPackages lists all packages.
	ListPackages(ctx context.Context) ([]*Package, error)

	// DeletePackage soft-deletes a package.
	DeletePackage(ctx context.Context, id int64) error
}

// CreatePackageRequest contains parameters for creating a package.
type CreatePackageRequest struct {
	Name string `validate:"required,max=200"`
}

// Package is the public representation of a package.
type Package struct {
	ID        int64  `json:"id" yaml:"id"`
	Name      string `json:"name" yaml:"name"`
	Deleted   bool   `json:"deleted" yaml:"deleted"`
	CreatedAt string `json:"created_at" yaml:"created_at"`
}
