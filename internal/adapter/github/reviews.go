package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/lintgate/lintgate/internal/domain"
)

// ListReviews fetches all reviews on a pull request, following Link-header
// pagination with a page cap and loop protection.
func (c *Client) ListReviews(ctx context.Context, owner, repo string, number int) ([]domain.ExistingReview, error) {
	if err := validateRef(owner, repo, number); err != nil {
		return nil, err
	}

	var reviews []domain.ExistingReview
	visitedURLs := make(map[string]bool) // Prevent infinite pagination loops
	pageCount := 0

	nextURL := fmt.Sprintf("%s/repos/%s/%s/pulls/%d/reviews?page=1&per_page=100",
		c.baseURL, url.PathEscape(owner), url.PathEscape(repo), number)

	for nextURL != "" {
		if pageCount >= maxPaginationPages {
			return nil, fmt.Errorf("pagination limit exceeded (%d pages)", maxPaginationPages)
		}
		if visitedURLs[nextURL] {
			return nil, fmt.Errorf("pagination loop detected: URL already visited")
		}
		visitedURLs[nextURL] = true
		pageCount++

		body, next, err := c.do(ctx, "list_reviews", "GET", nextURL, nil, "")
		if err != nil {
			return nil, err
		}

		var batch []ReviewResponse
		if err := json.Unmarshal(body, &batch); err != nil {
			return nil, fmt.Errorf("failed to parse reviews: %w", err)
		}
		for _, r := range batch {
			reviews = append(reviews, domain.ExistingReview{
				ID:     r.ID,
				Body:   r.Body,
				State:  r.State,
				Author: r.User.Login,
			})
		}

		// Validate next URL before following (SSRF protection)
		if next != "" && !c.isValidPaginationURL(next) {
			return nil, fmt.Errorf("unsafe pagination URL in Link header: host mismatch")
		}
		nextURL = next
	}

	return reviews, nil
}

// SubmitReview posts the assembled review. The wire payload carries the
// summary body, the verdict event, and any line comments; GitHub attaches
// them to the head revision in one atomic call.
func (c *Client) SubmitReview(ctx context.Context, owner, repo string, number int, draft domain.ReviewDraft) (int64, error) {
	if err := validateRef(owner, repo, number); err != nil {
		return 0, err
	}

	reqBody := CreateReviewRequest{
		Body:  draft.Summary,
		Event: string(draft.Event),
	}
	for _, comment := range draft.Comments {
		reqBody.Comments = append(reqBody.Comments, ReviewCommentRequest{
			Path: comment.Path,
			Line: comment.Line,
			Body: comment.Body,
		})
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal review: %w", err)
	}

	apiURL := fmt.Sprintf("%s/repos/%s/%s/pulls/%d/reviews",
		c.baseURL, url.PathEscape(owner), url.PathEscape(repo), number)

	body, _, err := c.do(ctx, "submit_review", "POST", apiURL, jsonData, "")
	if err != nil {
		return 0, err
	}

	var resp ReviewResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, fmt.Errorf("failed to parse review response: %w", err)
	}

	return resp.ID, nil
}

// DismissReview dismisses a previously submitted review with the given message.
func (c *Client) DismissReview(ctx context.Context, owner, repo string, number int, reviewID int64, message string) error {
	if err := validateRef(owner, repo, number); err != nil {
		return err
	}
	if reviewID <= 0 {
		return fmt.Errorf("invalid review ID: %d", reviewID)
	}

	reqBody := DismissReviewRequest{Message: message}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	apiURL := fmt.Sprintf("%s/repos/%s/%s/pulls/%d/reviews/%d/dismissals",
		c.baseURL, url.PathEscape(owner), url.PathEscape(repo), number, reviewID)

	_, _, err = c.do(ctx, "dismiss_review", "PUT", apiURL, jsonData, "")
	return err
}
