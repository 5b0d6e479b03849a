package domain

import "time"

const (
	PullStateOpen   = "open"
	PullStateClosed = "closed"
)

// Review states as reported by the reviews listing.
const (
	ReviewStateApproved         = "APPROVED"
	ReviewStateChangesRequested = "CHANGES_REQUESTED"
	ReviewStateCommented        = "COMMENTED"
	ReviewStateDismissed        = "DISMISSED"
	ReviewStatePending          = "PENDING"
)

// PullRequest is the metadata the run needs before touching anything.
type PullRequest struct {
	Number  int
	State   string
	Draft   bool
	HeadSHA string
}

// Reviewable reports whether the pull request may receive feedback.
// Closed and draft pull requests get none.
func (p PullRequest) Reviewable() bool {
	return p.State == PullStateOpen && !p.Draft
}

// ExistingReview is a previously submitted review on the pull request.
type ExistingReview struct {
	ID     int64
	Body   string
	State  string
	Author string
}

// Ours reports whether the review was posted by a prior run, recognized by
// the review marker. Login comparison is not reliable across token setups.
func (r ExistingReview) Ours() bool {
	return hasMarker(r.Body, ReviewMarker)
}

// ExistingReviewComment is a line comment currently visible on the pull
// request. Fetched fresh each run and never mutated locally; all mutation
// goes through the gateway.
type ExistingReviewComment struct {
	// ID is the REST database id, kept for logs and the journal.
	ID int64
	// NodeID addresses the comment in mutation calls.
	NodeID string
	// ThreadID addresses the enclosing thread; empty when unknown.
	ThreadID string

	Path      string
	Line      int
	Body      string
	Author    string
	CreatedAt time.Time

	Resolved bool
	// Outdated marks comments whose anchor no longer exists in the
	// current diff.
	Outdated bool
}

// Tool recovers which tool authored the comment from its body marker.
// ok is false for comments without a marker, which are not ours.
func (c ExistingReviewComment) Tool() (Tool, bool) {
	return CommentTool(c.Body)
}
