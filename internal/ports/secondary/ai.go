package secondary

import (
	"context"

	"github.com/example/focusarea/internal/core/revision"
)

// RevisionGenerator defines the secondary port for the AI revision service.
// The generator is opaque: it receives the live records and instructions and
// returns a batch in the same shape a user edit would submit.
type RevisionGenerator interface {
	// Propose asks the service for a revised record batch.
	Propose(ctx context.Context, prompt RevisionPrompt) (*RevisionProposal, error)
}

// RevisionPrompt is the input to an AI revision.
type RevisionPrompt struct {
	FocusAreaID   int64
	FocusAreaName string
	VersionNumber int
	Instructions  string
	Records       []revision.Record
}

// RevisionProposal is the AI service's answer.
type RevisionProposal struct {
	Summary   string
	Records   []revision.IncomingRecord
	Model     string
	RequestID string
}
