package publish_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lintgate/lintgate/internal/adapter/transport"
	"github.com/lintgate/lintgate/internal/domain"
	"github.com/lintgate/lintgate/internal/store"
	"github.com/lintgate/lintgate/internal/usecase/publish"
)

// MockGateway is a scripted Gateway. It records every call in order; a
// mutex protects shared state.
type MockGateway struct {
	mu    sync.Mutex
	Calls []string

	SubmitReviewFunc    func(ctx context.Context, draft domain.ReviewDraft) (int64, error)
	DismissReviewFunc   func(ctx context.Context, reviewID int64, message string) error
	ResolveThreadFunc   func(ctx context.Context, threadID string) error
	MinimizeCommentFunc func(ctx context.Context, commentID string) error
	DeleteCommentFunc   func(ctx context.Context, commentID string) error

	LastDraft    *domain.ReviewDraft
	DismissedIDs []int64
}

func (m *MockGateway) recordCall(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, name)
}

func (m *MockGateway) FetchPullRequest(ctx context.Context) (domain.PullRequest, error) {
	m.recordCall("fetch_pull_request")
	return domain.PullRequest{Number: 1, State: domain.PullStateOpen}, nil
}

func (m *MockGateway) FetchDiff(ctx context.Context) (string, error) {
	m.recordCall("fetch_diff")
	return "", nil
}

func (m *MockGateway) ListReviews(ctx context.Context) ([]domain.ExistingReview, error) {
	m.recordCall("list_reviews")
	return nil, nil
}

func (m *MockGateway) ListReviewComments(ctx context.Context) ([]domain.ExistingReviewComment, error) {
	m.recordCall("list_review_comments")
	return nil, nil
}

func (m *MockGateway) SubmitReview(ctx context.Context, draft domain.ReviewDraft) (int64, error) {
	m.recordCall("submit_review")
	m.mu.Lock()
	m.LastDraft = &draft
	m.mu.Unlock()
	if m.SubmitReviewFunc != nil {
		return m.SubmitReviewFunc(ctx, draft)
	}
	return 1, nil
}

func (m *MockGateway) DismissReview(ctx context.Context, reviewID int64, message string) error {
	m.recordCall("dismiss_review")
	m.mu.Lock()
	m.DismissedIDs = append(m.DismissedIDs, reviewID)
	m.mu.Unlock()
	if m.DismissReviewFunc != nil {
		return m.DismissReviewFunc(ctx, reviewID, message)
	}
	return nil
}

func (m *MockGateway) ResolveThread(ctx context.Context, threadID string) error {
	m.recordCall("resolve_thread")
	if m.ResolveThreadFunc != nil {
		return m.ResolveThreadFunc(ctx, threadID)
	}
	return nil
}

func (m *MockGateway) MinimizeComment(ctx context.Context, commentID string) error {
	m.recordCall("minimize_comment")
	if m.MinimizeCommentFunc != nil {
		return m.MinimizeCommentFunc(ctx, commentID)
	}
	return nil
}

func (m *MockGateway) DeleteComment(ctx context.Context, commentID string) error {
	m.recordCall("delete_comment")
	if m.DeleteCommentFunc != nil {
		return m.DeleteCommentFunc(ctx, commentID)
	}
	return nil
}

func openPull() domain.PullRequest {
	return domain.PullRequest{Number: 42, State: domain.PullStateOpen, HeadSHA: "abc123"}
}

func draftWith(event domain.ReviewEvent) *domain.ReviewDraft {
	return &domain.ReviewDraft{
		Summary: domain.ReviewMarker + "\n\nOnly issues observed.",
		Event:   event,
		Comments: []domain.DraftComment{
			{Path: "src/a.cpp", Line: 10, Tool: domain.ToolClangTidy, Body: "tidy says"},
		},
	}
}

func TestExecute_FullPlanOrdering(t *testing.T) {
	gateway := &MockGateway{}
	publisher := publish.NewPublisher(gateway, nil)

	result, err := publisher.Execute(context.Background(), publish.Request{
		PullRequest: openPull(),
		HasToken:    true,
		Plan: domain.PublishPlan{
			Review:           draftWith(domain.EventRequestChanges),
			DismissReviews:   []int64{11, 12},
			ResolveThreads:   []string{"RT_1"},
			MinimizeComments: []string{"C_1"},
			DeleteComments:   []string{"C_2"},
		},
	})

	require.NoError(t, err)
	assert.Equal(t, publish.StateDone, result.State)
	assert.True(t, result.Submitted)
	assert.Equal(t, int64(1), result.ReviewID)

	// Dismiss before submit, submit before comment retirement.
	assert.Equal(t, []string{
		"dismiss_review",
		"dismiss_review",
		"submit_review",
		"resolve_thread",
		"minimize_comment",
		"delete_comment",
	}, gateway.Calls)
	assert.Equal(t, []int64{11, 12}, gateway.DismissedIDs)

	require.Len(t, result.Mutations, 6)
	assert.Equal(t, 2, result.Succeeded(store.MutationDismiss))
	assert.Equal(t, 1, result.Succeeded(store.MutationSubmit))
	assert.Equal(t, 1, result.Succeeded(store.MutationResolve))
	assert.Equal(t, 1, result.Succeeded(store.MutationMinimize))
	assert.Equal(t, 1, result.Succeeded(store.MutationDelete))
}

func TestExecute_DraftPullRequestDoesNothing(t *testing.T) {
	gateway := &MockGateway{}
	publisher := publish.NewPublisher(gateway, nil)

	result, err := publisher.Execute(context.Background(), publish.Request{
		PullRequest: domain.PullRequest{Number: 42, State: domain.PullStateOpen, Draft: true},
		HasToken:    true,
		Plan: domain.PublishPlan{
			Review:         draftWith(domain.EventRequestChanges),
			DismissReviews: []int64{11},
			DeleteComments: []string{"C_1"},
		},
	})

	require.NoError(t, err)
	assert.Equal(t, publish.StateDone, result.State)
	assert.False(t, result.Submitted)
	assert.Empty(t, result.Mutations)
	assert.Empty(t, gateway.Calls)
}

func TestExecute_ClosedPullRequestDoesNothing(t *testing.T) {
	gateway := &MockGateway{}
	publisher := publish.NewPublisher(gateway, nil)

	result, err := publisher.Execute(context.Background(), publish.Request{
		PullRequest: domain.PullRequest{Number: 42, State: domain.PullStateClosed},
		HasToken:    true,
		Plan:        domain.PublishPlan{Review: draftWith(domain.EventApprove)},
	})

	require.NoError(t, err)
	assert.Empty(t, result.Mutations)
	assert.Empty(t, gateway.Calls)
}

func TestExecute_MissingTokenSkipsSubmitOnly(t *testing.T) {
	gateway := &MockGateway{}
	publisher := publish.NewPublisher(gateway, nil)

	result, err := publisher.Execute(context.Background(), publish.Request{
		PullRequest: openPull(),
		HasToken:    false,
		Plan: domain.PublishPlan{
			Review:         draftWith(domain.EventRequestChanges),
			DismissReviews: []int64{11},
			ResolveThreads: []string{"RT_1"},
		},
	})

	require.NoError(t, err)
	assert.False(t, result.Submitted)
	assert.NotContains(t, gateway.Calls, "submit_review")
	assert.Contains(t, gateway.Calls, "dismiss_review")
	assert.Contains(t, gateway.Calls, "resolve_thread")
	assert.Equal(t, 0, result.Succeeded(store.MutationSubmit))
}

func TestExecute_NilReviewSkipsSubmit(t *testing.T) {
	gateway := &MockGateway{}
	publisher := publish.NewPublisher(gateway, nil)

	result, err := publisher.Execute(context.Background(), publish.Request{
		PullRequest: openPull(),
		HasToken:    true,
		Plan: domain.PublishPlan{
			DeleteComments: []string{"C_1", "C_2"},
		},
	})

	require.NoError(t, err)
	assert.False(t, result.Submitted)
	assert.Equal(t, []string{"delete_comment", "delete_comment"}, gateway.Calls)
}

func TestExecute_AuthenticationFailureIsSoft(t *testing.T) {
	gateway := &MockGateway{
		SubmitReviewFunc: func(ctx context.Context, draft domain.ReviewDraft) (int64, error) {
			return 0, &transport.Error{
				Type:       transport.ErrTypeAuthentication,
				Message:    "bad credentials",
				StatusCode: 401,
			}
		},
	}
	publisher := publish.NewPublisher(gateway, nil)

	result, err := publisher.Execute(context.Background(), publish.Request{
		PullRequest: openPull(),
		HasToken:    true,
		Plan: domain.PublishPlan{
			Review:         draftWith(domain.EventRequestChanges),
			ResolveThreads: []string{"RT_1"},
		},
	})

	require.NoError(t, err, "auth failures must not abort the run")
	assert.False(t, result.Submitted)
	assert.Equal(t, publish.StateDone, result.State)
	// The failed attempt is journaled and the pass continues.
	assert.Equal(t, 0, result.Succeeded(store.MutationSubmit))
	assert.Contains(t, gateway.Calls, "resolve_thread")
}

func TestExecute_PerItemFailuresContinue(t *testing.T) {
	gateway := &MockGateway{
		DismissReviewFunc: func(ctx context.Context, reviewID int64, message string) error {
			if reviewID == 11 {
				return &transport.Error{
					Type:       transport.ErrTypeServiceUnavailable,
					Message:    "upstream hiccup",
					StatusCode: 502,
					Retryable:  true,
				}
			}
			return nil
		},
	}
	publisher := publish.NewPublisher(gateway, nil)

	result, err := publisher.Execute(context.Background(), publish.Request{
		PullRequest: openPull(),
		HasToken:    true,
		Plan: domain.PublishPlan{
			Review:         draftWith(domain.EventRequestChanges),
			DismissReviews: []int64{11, 12},
		},
	})

	require.NoError(t, err)
	assert.True(t, result.Submitted)
	assert.Equal(t, []int64{11, 12}, gateway.DismissedIDs, "failure on one dismissal must not skip the next")
	assert.Equal(t, 1, result.Succeeded(store.MutationDismiss))

	require.Len(t, result.Mutations, 3)
	assert.False(t, result.Mutations[0].OK)
	assert.Contains(t, result.Mutations[0].Error, "upstream hiccup")
	assert.True(t, result.Mutations[1].OK)
}

func TestExecute_NotFoundMutationsAreSuccess(t *testing.T) {
	notFound := &transport.Error{
		Type:       transport.ErrTypeNotFound,
		Message:    "gone",
		StatusCode: 404,
	}
	gateway := &MockGateway{
		DismissReviewFunc: func(ctx context.Context, reviewID int64, message string) error { return notFound },
		ResolveThreadFunc: func(ctx context.Context, threadID string) error { return notFound },
		DeleteCommentFunc: func(ctx context.Context, commentID string) error { return notFound },
	}
	publisher := publish.NewPublisher(gateway, nil)

	result, err := publisher.Execute(context.Background(), publish.Request{
		PullRequest: openPull(),
		HasToken:    true,
		Plan: domain.PublishPlan{
			DismissReviews: []int64{11},
			ResolveThreads: []string{"RT_1"},
			DeleteComments: []string{"C_1"},
		},
	})

	require.NoError(t, err)
	assert.Equal(t, 1, result.Succeeded(store.MutationDismiss))
	assert.Equal(t, 1, result.Succeeded(store.MutationResolve))
	assert.Equal(t, 1, result.Succeeded(store.MutationDelete))
	for _, m := range result.Mutations {
		assert.True(t, m.OK, "already-gone targets count as converged")
		assert.Empty(t, m.Error)
	}
}

func TestExecute_CancellationStopsBetweenMutations(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	gateway := &MockGateway{
		DismissReviewFunc: func(ctx context.Context, reviewID int64, message string) error {
			cancel()
			return nil
		},
	}
	publisher := publish.NewPublisher(gateway, nil)

	result, err := publisher.Execute(ctx, publish.Request{
		PullRequest: openPull(),
		HasToken:    true,
		Plan: domain.PublishPlan{
			Review:         draftWith(domain.EventRequestChanges),
			DismissReviews: []int64{11, 12},
		},
	})

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, publish.StateDismiss, result.State, "terminal state reports where execution stopped")
	assert.Equal(t, []int64{11}, gateway.DismissedIDs)
	assert.False(t, result.Submitted)
}

func TestExecute_SubmittedDraftReachesGatewayIntact(t *testing.T) {
	gateway := &MockGateway{
		SubmitReviewFunc: func(ctx context.Context, draft domain.ReviewDraft) (int64, error) {
			return 777, nil
		},
	}
	publisher := publish.NewPublisher(gateway, nil)

	draft := draftWith(domain.EventComment)
	result, err := publisher.Execute(context.Background(), publish.Request{
		PullRequest: openPull(),
		HasToken:    true,
		Plan:        domain.PublishPlan{Review: draft},
	})

	require.NoError(t, err)
	assert.Equal(t, int64(777), result.ReviewID)
	require.NotNil(t, gateway.LastDraft)
	assert.Equal(t, domain.EventComment, gateway.LastDraft.Event)
	assert.Equal(t, draft.Summary, gateway.LastDraft.Summary)
	require.Len(t, gateway.LastDraft.Comments, 1)
	assert.Equal(t, "src/a.cpp", gateway.LastDraft.Comments[0].Path)
}
