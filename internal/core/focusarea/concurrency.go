package focusarea

import (
	"fmt"

	"github.com/example/focusarea/internal/apperr"
)

// BaseVersionContext pairs the version a caller last observed with the live
// current-version pointer.
type BaseVersionContext struct {
	FocusAreaID          int64
	BaseVersionID        int64
	CurrentVersionID     int64
	CurrentVersionNumber int
}

// CheckBaseVersion fails with a *apperr.ConflictError when the caller's base
// version is not the live one. This is the early check; the store repeats it
// inside the commit transaction, which is the check that counts.
func CheckBaseVersion(ctx BaseVersionContext) error {
	if ctx.BaseVersionID <= 0 {
		return apperr.InvalidInput("base version id is required")
	}
	if ctx.BaseVersionID != ctx.CurrentVersionID {
		return &apperr.ConflictError{
			FocusAreaID:          ctx.FocusAreaID,
			BaseVersionID:        ctx.BaseVersionID,
			CurrentVersionID:     ctx.CurrentVersionID,
			CurrentVersionNumber: ctx.CurrentVersionNumber,
		}
	}
	return nil
}

// DefaultSummary returns the summary recorded when the caller supplies none.
func DefaultSummary(op Operation, edited, recoveredNumber int) string {
	switch op {
	case OperationCreate:
		return "initial version"
	case OperationRemove:
		return "focus area removed"
	case OperationAI:
		return "AI revision"
	case OperationRecover:
		return fmt.Sprintf("recovered version %d", recoveredNumber)
	default:
		return fmt.Sprintf("edited %d record(s)", edited)
	}
}
