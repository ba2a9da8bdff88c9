package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/example/focusarea/internal/ports/primary"
)

// PackageAdapter is a thin adapter that translates CLI operations to
// PackageService calls.
type PackageAdapter struct {
	service    primary.PackageService
	focusAreas primary.FocusAreaService
	out        io.Writer
	format     Format
}

// NewPackageAdapter creates a new PackageAdapter.
func NewPackageAdapter(service primary.PackageService, focusAreas primary.FocusAreaService, out io.Writer, format Format) *PackageAdapter {
	return &PackageAdapter{service: service, focusAreas: focusAreas, out: out, format: format}
}

// Add creates a new package.
func (a *PackageAdapter) Add(ctx context.Context, name string) error {
	pkg, err := a.service.CreatePackage(ctx, primary.CreatePackageRequest{Name: name})
	if err != nil {
		return err
	}
	if a.format != FormatText {
		return writeStructured(a.out, a.format, pkg)
	}
	fmt.Fprintf(a.out, "%s Created package %s: %s\n", checkMark(), idString(pkg.ID), pkg.Name)
	return nil
}

// List lists all packages.
func (a *PackageAdapter) List(ctx context.Context) error {
	packages, err := a.service.ListPackages(ctx)
	if err != nil {
		return fmt.Errorf("failed to list packages: %w", err)
	}
	if a.format != FormatText {
		return writeStructured(a.out, a.format, packages)
	}

	if len(packages) == 0 {
		fmt.Fprintln(a.out, "No packages found")
		return nil
	}

	fmt.Fprintf(a.out, "\n%-8s %-10s %s\n", "ID", "STATUS", "NAME")
	fmt.Fprintln(a.out, "────────────────────────────────────────────────────────────────")
	for _, p := range packages {
		status := "active"
		if p.Deleted {
			status = deletedMark()
		}
		fmt.Fprintf(a.out, "%-8d %-10s %s\n", p.ID, status, p.Name)
	}
	fmt.Fprintln(a.out)
	return nil
}

// Show displays a package and its focus areas.
func (a *PackageAdapter) Show(ctx context.Context, id int64) error {
	pkg, err := a.service.GetPackage(ctx, id)
	if err != nil {
		return err
	}
	focusAreas, err := a.focusAreas.ListFocusAreas(ctx, id)
	if err != nil {
		return err
	}
	if a.format != FormatText {
		return writeStructured(a.out, a.format, map[string]any{
			"package":     pkg,
			"focus_areas": focusAreas,
		})
	}

	fmt.Fprintf(a.out, "\nPackage: %s\n", idString(pkg.ID))
	fmt.Fprintf(a.out, "Name:    %s\n", pkg.Name)
	if pkg.Deleted {
		fmt.Fprintf(a.out, "Status:  %s\n", deletedMark())
	}
	fmt.Fprintf(a.out, "Created: %s\n", pkg.CreatedAt)
	fmt.Fprintln(a.out)

	if len(focusAreas) > 0 {
		fmt.Fprintln(a.out, "Focus areas:")
		for _, fa := range focusAreas {
			state := ""
			if fa.Deleted {
				state = " [" + deletedMark() + "]"
			}
			fmt.Fprintf(a.out, "  - %d: %s (version %d)%s\n", fa.ID, fa.Name, fa.CurrentVersionNumber, state)
		}
		fmt.Fprintln(a.out)
	}
	return nil
}

// Remove soft-deletes a package.
func (a *PackageAdapter) Remove(ctx context.Context, id int64) error {
	if err := a.service.DeletePackage(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s Package %d removed\n", checkMark(), id)
	return nil
}
