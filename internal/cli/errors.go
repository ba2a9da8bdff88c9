package cli

import (
	"errors"
	"fmt"

	"github.com/example/focusarea/internal/apperr"
)

// Exit codes by error kind. Scripts branch on 4 to re-read and retry.
const (
	exitFailure  = 1
	exitInvalid  = 2
	exitNotFound = 3
	exitConflict = 4
	exitExternal = 5
)

// ExitCode maps an error to the process exit code.
func ExitCode(err error) int {
	switch {
	case errors.Is(err, apperr.ErrInvalidInput):
		return exitInvalid
	case errors.Is(err, apperr.ErrNotFound):
		return exitNotFound
	case errors.Is(err, apperr.ErrVersionConflict):
		return exitConflict
	case errors.Is(err, apperr.ErrExternal):
		return exitExternal
	}
	return exitFailure
}

// FormatError renders err for stderr, with a retry hint on conflicts.
func FormatError(err error) string {
	var conflict *apperr.ConflictError
	if errors.As(err, &conflict) {
		return fmt.Sprintf("Error: %v\nRe-read with `fa focus show %d` and retry with --base %d",
			err, conflict.FocusAreaID, conflict.CurrentVersionID)
	}
	return fmt.Sprintf("Error: %v", err)
}
