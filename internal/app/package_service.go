package app

import (
	"context"
	"strings"

	"github.com/example/focusarea/internal/ports/primary"
	"github.com/example/focusarea/internal/ports/secondary"
)

// PackageServiceImpl implements the PackageService interface.
type PackageServiceImpl struct {
	repo secondary.PackageRepository
}

// NewPackageService creates a new PackageService with injected dependencies.
func NewPackageService(repo secondary.PackageRepository) *PackageServiceImpl {
	return &PackageServiceImpl{repo: repo}
}

// CreatePackage creates a new package.
func (s *PackageServiceImpl) CreatePackage(ctx context.Context, req primary.CreatePackageRequest) (*primary.Package, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	record, err := s.repo.Create(ctx, req.Name)
	if err != nil {
		return nil, err
	}
	return toPackage(record), nil
}

// GetPackage retrieves a package by ID.
func (s *PackageServiceImpl) GetPackage(ctx context.Context, id int64) (*primary.Package, error) {
	record, err := s.repo.GetPackage(ctx, id)
	if err != nil {
		return nil, err
	}
	return toPackage(record), nil
}

// ListPackages lists all packages.
func (s *PackageServiceImpl) ListPackages(ctx context.Context) ([]*primary.Package, error) {
	records, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	list := make([]*primary.Package, 0, len(records))
	for _, r := range records {
		list = append(list, toPackage(r))
	}
	return list, nil
}

// DeletePackage soft-deletes a package. Its focus areas are untouched;
// new focus areas can no longer be created under it.
func (s *PackageServiceImpl) DeletePackage(ctx context.Context, id int64) error {
	return s.repo.SoftDelete(ctx, id)
}

func toPackage(r *secondary.PackageRecord) *primary.Package {
	return &primary.Package{
		ID:        r.ID,
		Name:      r.Name,
		Deleted:   r.Deleted,
		CreatedAt: r.CreatedAt,
	}
}

// Ensure PackageServiceImpl implements the interface
var _ primary.PackageService = (*PackageServiceImpl)(nil)
