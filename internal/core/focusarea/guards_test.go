package focusarea

import (
	"errors"
	"strings"
	"testing"

	"github.com/example/focusarea/internal/apperr"
)

func TestCanCreate(t *testing.T) {
	tests := []struct {
		name        string
		ctx         CreateContext
		wantAllowed bool
		wantReason  string
	}{
		{
			name:        "can create with name under live package",
			ctx:         CreateContext{PackageID: 1, PackageExists: true, Name: "Market sizing"},
			wantAllowed: true,
		},
		{
			name:       "cannot create with empty name",
			ctx:        CreateContext{PackageID: 1, PackageExists: true, Name: "   "},
			wantReason: "focus area name is required",
		},
		{
			name:       "cannot create with overlong name",
			ctx:        CreateContext{PackageID: 1, PackageExists: true, Name: strings.Repeat("x", MaxNameLength+1)},
			wantReason: "focus area name must be at most 200 characters",
		},
		{
			name:       "cannot create under missing package",
			ctx:        CreateContext{PackageID: 9, Name: "Risks"},
			wantReason: "package 9 not found",
		},
		{
			name:       "cannot create under deleted package",
			ctx:        CreateContext{PackageID: 4, PackageExists: true, PackageDeleted: true, Name: "Risks"},
			wantReason: "package 4 is deleted",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CanCreate(tt.ctx)
			if result.Allowed != tt.wantAllowed {
				t.Errorf("Allowed = %v, want %v", result.Allowed, tt.wantAllowed)
			}
			if !tt.wantAllowed {
				if result.Reason != tt.wantReason {
					t.Errorf("Reason = %q, want %q", result.Reason, tt.wantReason)
				}
				if !errors.Is(result.Error(), apperr.ErrInvalidInput) {
					t.Errorf("Error() = %v, want invalid input", result.Error())
				}
			}
		})
	}
}

func TestCanMutate(t *testing.T) {
	if r := CanMutate(MutateContext{FocusAreaID: 3, Operation: OperationEdit}); !r.Allowed {
		t.Errorf("active focus area should allow edit, got %q", r.Reason)
	}

	r := CanMutate(MutateContext{FocusAreaID: 3, Deleted: true, Operation: OperationAI})
	if r.Allowed {
		t.Fatal("deleted focus area should not allow AI revision")
	}
	want := "cannot apply ai_revision to deleted focus area 3. Recover a version first"
	if r.Reason != want {
		t.Errorf("Reason = %q, want %q", r.Reason, want)
	}
}

func TestCanRecover(t *testing.T) {
	tests := []struct {
		name        string
		ctx         RecoverContext
		wantAllowed bool
		wantErr     error
	}{
		{"existing version", RecoverContext{FocusAreaID: 1, VersionNumber: 2, TargetExists: true}, true, nil},
		{"version zero", RecoverContext{FocusAreaID: 1, VersionNumber: 0, TargetExists: true}, true, nil},
		{"negative number", RecoverContext{FocusAreaID: 1, VersionNumber: -1}, false, apperr.ErrInvalidInput},
		{"missing version", RecoverContext{FocusAreaID: 1, VersionNumber: 8}, false, apperr.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CanRecover(tt.ctx)
			if result.Allowed != tt.wantAllowed {
				t.Fatalf("Allowed = %v, want %v", result.Allowed, tt.wantAllowed)
			}
			if tt.wantErr != nil && !errors.Is(result.Error(), tt.wantErr) {
				t.Errorf("Error() = %v, want %v", result.Error(), tt.wantErr)
			}
		})
	}
}

func TestCheckBaseVersion(t *testing.T) {
	if err := CheckBaseVersion(BaseVersionContext{FocusAreaID: 1, BaseVersionID: 5, CurrentVersionID: 5}); err != nil {
		t.Errorf("matching base should pass, got %v", err)
	}

	err := CheckBaseVersion(BaseVersionContext{FocusAreaID: 1, BaseVersionID: 4, CurrentVersionID: 5, CurrentVersionNumber: 3})
	var conflict *apperr.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if conflict.CurrentVersionID != 5 || conflict.CurrentVersionNumber != 3 {
		t.Errorf("conflict carries %d/%d, want 5/3", conflict.CurrentVersionID, conflict.CurrentVersionNumber)
	}

	if err := CheckBaseVersion(BaseVersionContext{FocusAreaID: 1, CurrentVersionID: 5}); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("missing base should be invalid input, got %v", err)
	}
}

func TestDefaultSummary(t *testing.T) {
	tests := []struct {
		op   Operation
		want string
	}{
		{OperationCreate, "initial version"},
		{OperationEdit, "edited 2 record(s)"},
		{OperationRemove, "focus area removed"},
		{OperationAI, "AI revision"},
		{OperationRecover, "recovered version 1"},
	}
	for _, tt := range tests {
		if got := DefaultSummary(tt.op, 2, 1); got != tt.want {
			t.Errorf("DefaultSummary(%s) = %q, want %q", tt.op, got, tt.want)
		}
	}
}
