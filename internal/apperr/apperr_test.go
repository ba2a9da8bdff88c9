package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, ""},
		{"invalid input", InvalidInput("name is required"), KindInvalidInput},
		{"wrapped not found", fmt.Errorf("load: %w", NotFound("focus area %d not found", 3)), KindNotFound},
		{"conflict", &ConflictError{FocusAreaID: 1, BaseVersionID: 2, CurrentVersionID: 3}, KindVersionConflict},
		{"wrapped conflict", fmt.Errorf("commit: %w", &ConflictError{}), KindVersionConflict},
		{"external", External("ai revision", errors.New("timeout")), KindExternal},
		{"plain error", errors.New("disk full"), KindStorageFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestErrorsIs(t *testing.T) {
	err := fmt.Errorf("apply batch: %w", InvalidInput("bad"))
	if !errors.Is(err, ErrInvalidInput) {
		t.Error("expected errors.Is(err, ErrInvalidInput)")
	}
	if errors.Is(err, ErrNotFound) {
		t.Error("invalid input must not match ErrNotFound")
	}

	conflict := fmt.Errorf("commit: %w", &ConflictError{FocusAreaID: 7})
	if !errors.Is(conflict, ErrVersionConflict) {
		t.Error("expected conflict to match ErrVersionConflict")
	}

	cause := errors.New("database is locked")
	storage := StorageFailure("commit version", cause)
	if !errors.Is(storage, ErrStorageFailure) || !errors.Is(storage, cause) {
		t.Error("storage failure should match its sentinel and its cause")
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{InvalidInput("x"), http.StatusBadRequest},
		{NotFound("x"), http.StatusNotFound},
		{&ConflictError{}, http.StatusConflict},
		{External("x", nil), http.StatusBadGateway},
		{StorageFailure("x", nil), http.StatusInternalServerError},
		{errors.New("x"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := HTTPStatus(tt.err); got != tt.want {
			t.Errorf("HTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
