// Package focusarea contains the pure business rules for focus-area
// mutations. Guards are pure functions that evaluate preconditions without
// side effects.
package focusarea

import (
	"fmt"
	"strings"

	"github.com/example/focusarea/internal/apperr"
)

// Operation names the kind of mutation that produced a version.
type Operation string

const (
	OperationCreate  Operation = "create"
	OperationEdit    Operation = "edit"
	OperationRemove  Operation = "remove"
	OperationAI      Operation = "ai_revision"
	OperationRecover Operation = "recover"
)

// MaxNameLength bounds focus-area names.
const MaxNameLength = 200

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Reason  string
	Kind    apperr.Kind
}

// Error converts the guard result to an error if not allowed.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	if r.Kind == apperr.KindNotFound {
		return apperr.NotFound("%s", r.Reason)
	}
	return apperr.InvalidInput("%s", r.Reason)
}

func deny(kind apperr.Kind, format string, args ...any) GuardResult {
	return GuardResult{Allowed: false, Kind: kind, Reason: fmt.Sprintf(format, args...)}
}

// CreateContext provides context for focus-area creation guards.
type CreateContext struct {
	PackageID      int64
	PackageExists  bool
	PackageDeleted bool
	Name           string
}

// CanCreate evaluates whether a focus area can be created.
// Rules:
// - Name must be non-empty and at most MaxNameLength characters
// - Parent package must exist and not be soft-deleted
func CanCreate(ctx CreateContext) GuardResult {
	name := strings.TrimSpace(ctx.Name)
	if name == "" {
		return deny(apperr.KindInvalidInput, "focus area name is required")
	}
	if len([]rune(name)) > MaxNameLength {
		return deny(apperr.KindInvalidInput, "focus area name must be at most %d characters", MaxNameLength)
	}
	if !ctx.PackageExists {
		return deny(apperr.KindInvalidInput, "package %d not found", ctx.PackageID)
	}
	if ctx.PackageDeleted {
		return deny(apperr.KindInvalidInput, "package %d is deleted", ctx.PackageID)
	}
	return GuardResult{Allowed: true}
}

// MutateContext provides context for edit, remove and AI revision guards.
type MutateContext struct {
	FocusAreaID int64
	Deleted     bool
	Operation   Operation
}

// CanMutate evaluates whether an active-only operation may run.
// Rules:
// - Focus area must be active (recover is the only way back from deleted)
func CanMutate(ctx MutateContext) GuardResult {
	if ctx.Deleted {
		return deny(apperr.KindInvalidInput,
			"cannot apply %s to deleted focus area %d. Recover a version first", ctx.Operation, ctx.FocusAreaID)
	}
	return GuardResult{Allowed: true}
}

// RecoverContext provides context for recovery guards.
type RecoverContext struct {
	FocusAreaID   int64
	VersionNumber int
	TargetExists  bool
}

// CanRecover evaluates whether a past version can be recovered.
// Rules:
// - Version number must be non-negative
// - Target version must exist under this focus area
//
// Recovery is allowed from both active and deleted focus areas.
func CanRecover(ctx RecoverContext) GuardResult {
	if ctx.VersionNumber < 0 {
		return deny(apperr.KindInvalidInput, "version number must be non-negative, got %d", ctx.VersionNumber)
	}
	if !ctx.TargetExists {
		return deny(apperr.KindNotFound, "version %d of focus area %d not found", ctx.VersionNumber, ctx.FocusAreaID)
	}
	return GuardResult{Allowed: true}
}
