package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/example/focusarea/internal/apperr"
	"github.com/example/focusarea/internal/ports/primary"
)

// mockPackageService implements primary.PackageService for testing
type mockPackageService struct {
	packages  []*primary.Package
	err       error
	lastName  string
	deletedID int64
}

func (m *mockPackageService) CreatePackage(ctx context.Context, req primary.CreatePackageRequest) (*primary.Package, error) {
	m.lastName = req.Name
	if m.err != nil {
		return nil, m.err
	}
	return &primary.Package{ID: 3, Name: req.Name}, nil
}

func (m *mockPackageService) GetPackage(ctx context.Context, id int64) (*primary.Package, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, p := range m.packages {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, apperr.NotFound("package %d not found", id)
}

func (m *mockPackageService) ListPackages(ctx context.Context) ([]*primary.Package, error) {
	return m.packages, m.err
}

func (m *mockPackageService) DeletePackage(ctx context.Context, id int64) error {
	m.deletedID = id
	return m.err
}

func TestPackageAdapter_Add(t *testing.T) {
	svc := &mockPackageService{}
	var buf bytes.Buffer
	adapter := NewPackageAdapter(svc, &mockFocusAreaService{}, &buf, FormatText)

	if err := adapter.Add(context.Background(), "Market entry"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if svc.lastName != "Market entry" {
		t.Errorf("expected name 'Market entry', got '%s'", svc.lastName)
	}
	if !strings.Contains(buf.String(), "Created package 3: Market entry") {
		t.Errorf("expected creation message, got '%s'", buf.String())
	}
}

func TestPackageAdapter_List(t *testing.T) {
	t.Run("with results", func(t *testing.T) {
		svc := &mockPackageService{packages: []*primary.Package{
			{ID: 1, Name: "Alpha"},
			{ID: 2, Name: "Beta", Deleted: true},
		}}
		var buf bytes.Buffer
		adapter := NewPackageAdapter(svc, &mockFocusAreaService{}, &buf, FormatText)

		if err := adapter.List(context.Background()); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		output := buf.String()
		if !strings.Contains(output, "Alpha") || !strings.Contains(output, "Beta") {
			t.Errorf("expected both packages, got '%s'", output)
		}
	})

	t.Run("empty", func(t *testing.T) {
		var buf bytes.Buffer
		adapter := NewPackageAdapter(&mockPackageService{}, &mockFocusAreaService{}, &buf, FormatText)

		if err := adapter.List(context.Background()); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(buf.String(), "No packages found") {
			t.Errorf("expected 'No packages found', got '%s'", buf.String())
		}
	})

	t.Run("service error", func(t *testing.T) {
		var buf bytes.Buffer
		adapter := NewPackageAdapter(&mockPackageService{err: errors.New("disk gone")}, &mockFocusAreaService{}, &buf, FormatText)

		err := adapter.List(context.Background())
		if err == nil || !strings.Contains(err.Error(), "failed to list packages") {
			t.Errorf("expected wrapped error, got %v", err)
		}
	})
}

func TestPackageAdapter_Show(t *testing.T) {
	svc := &mockPackageService{packages: []*primary.Package{{ID: 1, Name: "Alpha"}}}
	focusAreas := &mockFocusAreaService{
		listFn: func(ctx context.Context, packageID int64) ([]*primary.FocusArea, error) {
			return []*primary.FocusArea{
				{ID: 7, PackageID: packageID, Name: "Risks", CurrentVersionNumber: 4},
				{ID: 8, PackageID: packageID, Name: "Costs", Deleted: true},
			}, nil
		},
	}
	var buf bytes.Buffer
	adapter := NewPackageAdapter(svc, focusAreas, &buf, FormatText)

	if err := adapter.Show(context.Background(), 1); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	output := buf.String()
	if !strings.Contains(output, "7: Risks (version 4)") {
		t.Errorf("expected focus area line, got '%s'", output)
	}
	if !strings.Contains(output, "8: Costs (version 0) [deleted]") {
		t.Errorf("expected deleted focus area line, got '%s'", output)
	}
}

func TestPackageAdapter_Show_NotFound(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewPackageAdapter(&mockPackageService{}, &mockFocusAreaService{}, &buf, FormatText)

	err := adapter.Show(context.Background(), 42)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestPackageAdapter_Remove(t *testing.T) {
	svc := &mockPackageService{}
	var buf bytes.Buffer
	adapter := NewPackageAdapter(svc, &mockFocusAreaService{}, &buf, FormatText)

	if err := adapter.Remove(context.Background(), 5); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if svc.deletedID != 5 {
		t.Errorf("expected package 5 to be deleted, got %d", svc.deletedID)
	}
	if !strings.Contains(buf.String(), "Package 5 removed") {
		t.Errorf("expected removal message, got '%s'", buf.String())
	}
}
