// Package apperr defines the failure taxonomy shared by every layer:
// invalid input, not found, version conflict, storage failure and
// upstream (external service) failure.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for callers that need to branch on it.
type Kind string

const (
	KindInvalidInput    Kind = "INVALID_INPUT"
	KindNotFound        Kind = "NOT_FOUND"
	KindVersionConflict Kind = "VERSION_CONFLICT"
	KindStorageFailure  Kind = "STORAGE_FAILURE"
	KindExternal        Kind = "EXTERNAL"
)

// Sentinels for errors.Is. An *Error matches the sentinel of its Kind.
var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrNotFound        = errors.New("not found")
	ErrVersionConflict = errors.New("version conflict")
	ErrStorageFailure  = errors.New("storage failure")
	ErrExternal        = errors.New("external service failure")
)

// Error is the application error type.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
	Details map[string]any
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is the sentinel for this error's kind.
func (e *Error) Is(target error) bool {
	return target == sentinel(e.Kind)
}

// WithDetails attaches structured details and returns the receiver.
func (e *Error) WithDetails(details map[string]any) *Error {
	e.Details = details
	return e
}

func sentinel(k Kind) error {
	switch k {
	case KindInvalidInput:
		return ErrInvalidInput
	case KindNotFound:
		return ErrNotFound
	case KindVersionConflict:
		return ErrVersionConflict
	case KindStorageFailure:
		return ErrStorageFailure
	case KindExternal:
		return ErrExternal
	}
	return nil
}

// InvalidInput creates an invalid input error.
func InvalidInput(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidInput, Message: fmt.Sprintf(format, args...)}
}

// NotFound creates a not found error for the named resource.
func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// StorageFailure wraps an infrastructure error.
func StorageFailure(op string, cause error) *Error {
	return &Error{Kind: KindStorageFailure, Message: op, Cause: cause}
}

// External wraps a failure of an external collaborator.
func External(op string, cause error) *Error {
	return &Error{Kind: KindExternal, Message: op, Cause: cause}
}

// ConflictError reports that a caller's base version is no longer the live one.
// It carries the live pointer so the caller can re-read and retry.
type ConflictError struct {
	FocusAreaID          int64
	BaseVersionID        int64
	CurrentVersionID     int64
	CurrentVersionNumber int
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("version conflict on focus area %d: base version %d is stale, current is %d (number %d)",
		e.FocusAreaID, e.BaseVersionID, e.CurrentVersionID, e.CurrentVersionNumber)
}

// Is matches ErrVersionConflict.
func (e *ConflictError) Is(target error) bool {
	return target == ErrVersionConflict
}

// KindOf returns the Kind of err, or KindStorageFailure for unclassified errors.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var conflict *ConflictError
	if errors.As(err, &conflict) {
		return KindVersionConflict
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindStorageFailure
}

// HTTPStatus maps an error to the status a transport layer should return.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindVersionConflict:
		return http.StatusConflict
	case KindExternal:
		return http.StatusBadGateway
	case "":
		return http.StatusOK
	default:
		return http.StatusInternalServerError
	}
}
