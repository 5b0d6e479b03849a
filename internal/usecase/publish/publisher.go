// Package publish executes a run's remote mutation plan against a pull
// request: dismiss stale reviews, submit the new review, then resolve,
// minimize, or delete stale comments, in that order.
package publish

import (
	"context"
	"fmt"

	"github.com/lintgate/lintgate/internal/adapter/transport"
	"github.com/lintgate/lintgate/internal/domain"
	"github.com/lintgate/lintgate/internal/store"
)

// Gateway is the remote pull-request surface. The production implementation
// lives in adapter/github; tests use scripted mocks.
//
// Mutation methods are idempotent: not-found on dismiss, resolve, minimize,
// or delete means the remote side already converged and is success.
type Gateway interface {
	FetchPullRequest(ctx context.Context) (domain.PullRequest, error)
	FetchDiff(ctx context.Context) (string, error)
	ListReviews(ctx context.Context) ([]domain.ExistingReview, error)
	ListReviewComments(ctx context.Context) ([]domain.ExistingReviewComment, error)
	SubmitReview(ctx context.Context, draft domain.ReviewDraft) (int64, error)
	DismissReview(ctx context.Context, reviewID int64, message string) error
	ResolveThread(ctx context.Context, threadID string) error
	MinimizeComment(ctx context.Context, commentID string) error
	DeleteComment(ctx context.Context, commentID string) error
}

// Logger provides structured logging for the publish use case.
type Logger interface {
	// LogWarning logs a warning message with structured fields.
	LogWarning(ctx context.Context, message string, fields map[string]interface{})

	// LogInfo logs an informational message with structured fields.
	LogInfo(ctx context.Context, message string, fields map[string]interface{})
}

// State names the steps of one publish pass. Execution always moves
// forward; the terminal state on a completed pass is StateDone, and on a
// cancelled pass the step where execution stopped.
type State string

const (
	StateFetch   State = "FETCH_STATE"
	StateDismiss State = "DISMISS_STALE_REVIEWS"
	StateSubmit  State = "SUBMIT_REVIEW"
	StateResolve State = "RESOLVE_OR_DELETE_COMMENTS"
	StateDone    State = "DONE"
)

// dismissMessage accompanies every dismissal of a previous run's review.
const dismissMessage = "Superseded by a newer review"

// Publisher executes publish plans through a Gateway. Remote failures are
// soft: each is logged and journaled, and the pass continues, so one bad
// mutation never strands the rest of the plan.
type Publisher struct {
	gateway Gateway
	logger  Logger
}

// NewPublisher creates a Publisher. A nil logger disables logging.
func NewPublisher(gateway Gateway, logger Logger) *Publisher {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Publisher{
		gateway: gateway,
		logger:  logger,
	}
}

// Request carries one run's publish inputs.
type Request struct {
	// PullRequest is the remote state fetched at the start of the run.
	// Closed and draft pull requests receive no mutations at all.
	PullRequest domain.PullRequest

	// Plan is the reconciled mutation set.
	Plan domain.PublishPlan

	// HasToken gates the submit step. Without a token the review is
	// skipped with a log line; the rest of the run still happens, so
	// annotations and summaries work on forks and unauthenticated setups.
	HasToken bool
}

// Result reports what one publish pass did.
type Result struct {
	// State is where execution ended: StateDone on a completed pass.
	State State

	// Submitted reports whether a review was created this run.
	Submitted bool

	// ReviewID is the created review's id when Submitted is true.
	ReviewID int64

	// Mutations holds one record per remote call actually issued, in
	// execution order. Skipped calls do not appear.
	Mutations []store.MutationRecord
}

// Succeeded counts successful mutations of one kind.
func (r *Result) Succeeded(kind string) int {
	n := 0
	for _, m := range r.Mutations {
		if m.Kind == kind && m.OK {
			n++
		}
	}
	return n
}

// Execute runs the plan: dismiss stale reviews, submit the new review, then
// resolve, minimize, or delete stale comments. Per-item remote failures are
// logged and recorded but do not stop the pass. The only returned error is
// context cancellation, checked between mutations; everything already done
// by then stands.
func (p *Publisher) Execute(ctx context.Context, req Request) (*Result, error) {
	result := &Result{State: StateFetch}

	if !req.PullRequest.Reviewable() {
		p.logger.LogInfo(ctx, "pull request is not reviewable, skipping publish", map[string]interface{}{
			"pull_number": req.PullRequest.Number,
			"state":       req.PullRequest.State,
			"draft":       req.PullRequest.Draft,
		})
		result.State = StateDone
		return result, nil
	}

	result.State = StateDismiss
	if err := p.dismissStaleReviews(ctx, req.Plan.DismissReviews, result); err != nil {
		return result, err
	}

	result.State = StateSubmit
	if err := p.submitReview(ctx, req, result); err != nil {
		return result, err
	}

	result.State = StateResolve
	if err := p.retireStaleComments(ctx, req.Plan, result); err != nil {
		return result, err
	}

	result.State = StateDone
	return result, nil
}

// dismissStaleReviews dismisses each listed review. A review that is
// already gone counts as dismissed.
func (p *Publisher) dismissStaleReviews(ctx context.Context, reviewIDs []int64, result *Result) error {
	for _, id := range reviewIDs {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := p.gateway.DismissReview(ctx, id, dismissMessage)
		if err != nil && transport.IsNotFound(err) {
			err = nil
		}
		result.Mutations = append(result.Mutations, record(store.MutationDismiss, fmt.Sprintf("%d", id), err))
		if err != nil {
			p.logger.LogWarning(ctx, "failed to dismiss stale review", map[string]interface{}{
				"review_id": id,
				"error":     err.Error(),
			})
		}
	}
	return nil
}

// submitReview creates the new review, unless the plan carries none or no
// token is available. Authentication failures are soft: the run continues
// so local outputs still get written.
func (p *Publisher) submitReview(ctx context.Context, req Request, result *Result) error {
	if req.Plan.Review == nil {
		p.logger.LogInfo(ctx, "no review to submit", map[string]interface{}{
			"pull_number": req.PullRequest.Number,
		})
		return nil
	}
	if !req.HasToken {
		p.logger.LogWarning(ctx, "no GitHub token available, skipping review submission", map[string]interface{}{
			"pull_number": req.PullRequest.Number,
		})
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	draft := *req.Plan.Review
	id, err := p.gateway.SubmitReview(ctx, draft)
	result.Mutations = append(result.Mutations, record(store.MutationSubmit, fmt.Sprintf("pr-%d", req.PullRequest.Number), err))
	if err != nil {
		if transport.IsAuthentication(err) {
			p.logger.LogWarning(ctx, "not permitted to submit review", map[string]interface{}{
				"pull_number": req.PullRequest.Number,
				"error":       err.Error(),
			})
			return nil
		}
		p.logger.LogWarning(ctx, "failed to submit review", map[string]interface{}{
			"pull_number": req.PullRequest.Number,
			"error":       err.Error(),
		})
		return nil
	}

	result.Submitted = true
	result.ReviewID = id
	p.logger.LogInfo(ctx, "submitted review", map[string]interface{}{
		"review_id": id,
		"event":     string(draft.Event),
		"comments":  len(draft.Comments),
	})
	return nil
}

// retireStaleComments executes the resolve, minimize, and delete sets.
func (p *Publisher) retireStaleComments(ctx context.Context, plan domain.PublishPlan, result *Result) error {
	steps := []struct {
		kind    string
		targets []string
		call    func(context.Context, string) error
	}{
		{store.MutationResolve, plan.ResolveThreads, p.gateway.ResolveThread},
		{store.MutationMinimize, plan.MinimizeComments, p.gateway.MinimizeComment},
		{store.MutationDelete, plan.DeleteComments, p.gateway.DeleteComment},
	}

	for _, step := range steps {
		for _, target := range step.targets {
			if err := ctx.Err(); err != nil {
				return err
			}

			err := step.call(ctx, target)
			if err != nil && transport.IsNotFound(err) {
				err = nil
			}
			result.Mutations = append(result.Mutations, record(step.kind, target, err))
			if err != nil {
				p.logger.LogWarning(ctx, "failed to retire stale comment", map[string]interface{}{
					"kind":   step.kind,
					"target": target,
					"error":  err.Error(),
				})
			}
		}
	}
	return nil
}

func record(kind, target string, err error) store.MutationRecord {
	rec := store.MutationRecord{Kind: kind, Target: target, OK: err == nil}
	if err != nil {
		rec.Error = err.Error()
	}
	return rec
}

type noopLogger struct{}

func (noopLogger) LogWarning(context.Context, string, map[string]interface{}) {}
func (noopLogger) LogInfo(context.Context, string, map[string]interface{})    {}
