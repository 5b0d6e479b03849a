package domain

// PublishPlan is the full set of remote mutations one run performs. Computed
// once from the draft and the fetched remote state; executed in a fixed
// order: dismiss, submit, then resolve/minimize/delete.
type PublishPlan struct {
	// Review to submit; nil when the composer signaled skip.
	Review *ReviewDraft

	DismissReviews   []int64
	ResolveThreads   []string
	MinimizeComments []string
	DeleteComments   []string
}

// MutationCount is the number of remote mutations the plan will attempt.
func (p PublishPlan) MutationCount() int {
	n := len(p.DismissReviews) + len(p.ResolveThreads) + len(p.MinimizeComments) + len(p.DeleteComments)
	if p.Review != nil {
		n++
	}
	return n
}

// Empty reports whether executing the plan would touch nothing.
func (p PublishPlan) Empty() bool {
	return p.MutationCount() == 0
}
