package cli

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	cliadapter "github.com/example/focusarea/internal/adapters/cli"
	"github.com/example/focusarea/internal/apperr"
)

func TestParseID(t *testing.T) {
	tests := []struct {
		arg     string
		want    int64
		wantErr bool
	}{
		{"7", 7, false},
		{" 12 ", 12, false},
		{"0", 0, true},
		{"-3", 0, true},
		{"FA-7", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			got, err := parseID(tt.arg, "focus area")
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseID(%q) error = %v, wantErr %v", tt.arg, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parseID(%q) = %d, want %d", tt.arg, got, tt.want)
			}
		})
	}
}

func TestParseVersionNumber(t *testing.T) {
	if n, err := parseVersionNumber("0"); err != nil || n != 0 {
		t.Errorf("expected version 0, got %d (%v)", n, err)
	}
	if _, err := parseVersionNumber("-1"); err == nil {
		t.Error("expected error for negative version")
	}
}

func TestResolveBase(t *testing.T) {
	newCmd := func() *cobra.Command {
		cmd := &cobra.Command{}
		cmd.Flags().Int64("base", 0, "")
		return cmd
	}

	cmd := newCmd()
	if _, err := resolveBase(cmd, nil); err == nil {
		t.Error("expected error without base")
	}

	base, err := resolveBase(cmd, &cliadapter.BatchFile{BaseVersionID: 9})
	if err != nil || base != 9 {
		t.Errorf("expected base from file, got %d (%v)", base, err)
	}

	cmd = newCmd()
	_ = cmd.Flags().Set("base", "11")
	base, err = resolveBase(cmd, &cliadapter.BatchFile{BaseVersionID: 9})
	if err != nil || base != 11 {
		t.Errorf("expected --base to win, got %d (%v)", base, err)
	}
}

func TestExitCode(t *testing.T) {
	conflict := &apperr.ConflictError{FocusAreaID: 3, BaseVersionID: 5, CurrentVersionID: 6}
	tests := []struct {
		err  error
		want int
	}{
		{apperr.InvalidInput("bad"), exitInvalid},
		{apperr.NotFound("gone"), exitNotFound},
		{fmt.Errorf("wrapped: %w", conflict), exitConflict},
		{apperr.External("AI revision request failed", errors.New("502")), exitExternal},
		{errors.New("plain"), exitFailure},
	}
	for _, tt := range tests {
		if got := ExitCode(tt.err); got != tt.want {
			t.Errorf("ExitCode(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}

	if msg := FormatError(conflict); !strings.Contains(msg, "--base 6") {
		t.Errorf("expected retry hint, got %q", msg)
	}
}
