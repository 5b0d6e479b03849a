package store

import (
	"context"
	"time"
)

// Store is the run journal: one row per invocation plus one row per
// attempted remote mutation. Journal failures never fail a run; callers
// log and continue.
type Store interface {
	CreateRun(ctx context.Context, run Run) error
	FinishRun(ctx context.Context, runID string, outcome Outcome) error
	GetRun(ctx context.Context, runID string) (Run, error)
	ListRuns(ctx context.Context, limit int) ([]Run, error)

	SaveMutations(ctx context.Context, runID string, mutations []MutationRecord) error

	Close() error
}

// Run modes.
const (
	ModeReview = "review"
	ModeCheck  = "check"
)

// Run is a single invocation's journal row. CreateRun writes the identity
// fields; FinishRun fills in the outcome.
type Run struct {
	RunID      string
	Timestamp  time.Time
	Mode       string
	Repository string
	// PullNumber is zero in check mode.
	PullNumber int
	HeadSHA    string
	ConfigHash string

	Outcome Outcome
}

// Outcome closes out a run: what the tools found and what the publisher did.
type Outcome struct {
	Verdict   string
	Submitted bool

	TidyFindings   int
	FormatFindings int

	// Per-category counts of mutations that succeeded.
	Comments  int
	Dismissed int
	Resolved  int
	Minimized int
	Deleted   int
}

// Mutation kinds, matching the gateway operation names.
const (
	MutationSubmit   = "submit_review"
	MutationDismiss  = "dismiss_review"
	MutationResolve  = "resolve_thread"
	MutationMinimize = "minimize_comment"
	MutationDelete   = "delete_comment"
)

// MutationRecord journals one attempted remote mutation. Skipped calls are
// not recorded; only calls actually issued are.
type MutationRecord struct {
	Kind string
	// Target is the review id, thread node id, or comment node id.
	Target string
	OK     bool
	// Error holds the failure text when OK is false.
	Error string
}
