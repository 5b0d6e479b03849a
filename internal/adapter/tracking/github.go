package tracking

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lintgate/lintgate/internal/adapter/github"
	"github.com/lintgate/lintgate/internal/adapter/transport"
	"github.com/lintgate/lintgate/internal/usecase/review"
)

// CommentAPI is the slice of the GitHub client the store needs.
type CommentAPI interface {
	ListIssueComments(ctx context.Context, owner, repo string, number int) ([]github.IssueComment, error)
	CreateIssueComment(ctx context.Context, owner, repo string, number int, body string) (github.IssueComment, error)
	UpdateIssueComment(ctx context.Context, owner, repo string, commentID int64, body string) (github.IssueComment, error)
	DeleteIssueComment(ctx context.Context, owner, repo string, commentID int64) error
}

// GitHubStore keeps at most one marked conversation comment on a pull
// request.
type GitHubStore struct {
	api    CommentAPI
	owner  string
	repo   string
	number int
	now    func() time.Time
}

// Ensure GitHubStore implements the orchestrator's thread port.
var _ review.ThreadStore = (*GitHubStore)(nil)

// NewGitHubStore creates a store bound to one pull request.
func NewGitHubStore(api CommentAPI, owner, repo string, number int) *GitHubStore {
	return &GitHubStore{
		api:    api,
		owner:  owner,
		repo:   repo,
		number: number,
		now:    time.Now,
	}
}

// Upsert replaces the sticky comment's body, creating the comment when no
// previous run left one.
func (s *GitHubStore) Upsert(ctx context.Context, update review.ThreadUpdate) error {
	meta := Metadata{
		Version:      1,
		Repository:   s.owner + "/" + s.repo,
		PullNumber:   s.number,
		RunID:        update.RunID,
		HeadSHA:      update.HeadSHA,
		TidyFindings: update.TidyFindings,
		FormatRanges: update.FormatRanges,
		UpdatedAt:    s.now().UTC(),
	}
	rendered, err := RenderComment(meta, update.Body)
	if err != nil {
		// Degrade to a marker-only comment: the marker is what later runs
		// key on, the metadata block is advisory.
		rendered = threadMarker + "\n" + strings.TrimRight(update.Body, "\n") + "\n"
	}

	existing, err := s.find(ctx)
	if err != nil {
		return err
	}

	if existing != nil {
		if _, err := s.api.UpdateIssueComment(ctx, s.owner, s.repo, existing.ID, rendered); err != nil {
			return fmt.Errorf("failed to update thread comment: %w", err)
		}
		return nil
	}

	if _, err := s.api.CreateIssueComment(ctx, s.owner, s.repo, s.number, rendered); err != nil {
		return fmt.Errorf("failed to create thread comment: %w", err)
	}
	return nil
}

// Remove deletes the sticky comment. A pull request without one, or a
// comment already deleted by a concurrent run, counts as success.
func (s *GitHubStore) Remove(ctx context.Context) error {
	existing, err := s.find(ctx)
	if err != nil {
		return err
	}
	if existing == nil {
		return nil
	}

	if err := s.api.DeleteIssueComment(ctx, s.owner, s.repo, existing.ID); err != nil {
		if transport.IsNotFound(err) {
			return nil
		}
		return fmt.Errorf("failed to delete thread comment: %w", err)
	}
	return nil
}

// find returns the marked comment, or nil when none exists. The client
// lists most recently updated first, so when duplicates ever appear the
// newest one wins.
func (s *GitHubStore) find(ctx context.Context) (*github.IssueComment, error) {
	comments, err := s.api.ListIssueComments(ctx, s.owner, s.repo, s.number)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	for i := range comments {
		if IsThreadComment(comments[i].Body) {
			return &comments[i], nil
		}
	}
	return nil, nil
}
