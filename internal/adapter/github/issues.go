package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
)

// ListIssueComments fetches the conversation comments on a pull request,
// most recently updated first, following Link-header pagination with a
// page cap and loop protection.
func (c *Client) ListIssueComments(ctx context.Context, owner, repo string, number int) ([]IssueComment, error) {
	if err := validateRef(owner, repo, number); err != nil {
		return nil, err
	}

	var comments []IssueComment
	visitedURLs := make(map[string]bool) // Prevent infinite pagination loops
	pageCount := 0

	nextURL := fmt.Sprintf("%s/repos/%s/%s/issues/%d/comments?per_page=100&sort=updated&direction=desc",
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

		body, next, err := c.do(ctx, "list_issue_comments", "GET", nextURL, nil, "")
		if err != nil {
			return nil, err
		}

		var batch []IssueComment
		if err := json.Unmarshal(body, &batch); err != nil {
			return nil, fmt.Errorf("failed to parse issue comments: %w", err)
		}
		comments = append(comments, batch...)

		// Validate next URL before following (SSRF protection)
		if next != "" && !c.isValidPaginationURL(next) {
			return nil, fmt.Errorf("unsafe pagination URL in Link header: host mismatch")
		}
		nextURL = next
	}

	return comments, nil
}

// CreateIssueComment posts a new conversation comment on a pull request.
func (c *Client) CreateIssueComment(ctx context.Context, owner, repo string, number int, body string) (IssueComment, error) {
	if err := validateRef(owner, repo, number); err != nil {
		return IssueComment{}, err
	}

	jsonData, err := json.Marshal(IssueCommentRequest{Body: body})
	if err != nil {
		return IssueComment{}, fmt.Errorf("failed to marshal comment: %w", err)
	}

	apiURL := fmt.Sprintf("%s/repos/%s/%s/issues/%d/comments",
		c.baseURL, url.PathEscape(owner), url.PathEscape(repo), number)

	respBody, _, err := c.do(ctx, "create_issue_comment", "POST", apiURL, jsonData, "")
	if err != nil {
		return IssueComment{}, err
	}

	var comment IssueComment
	if err := json.Unmarshal(respBody, &comment); err != nil {
		return IssueComment{}, fmt.Errorf("failed to parse comment response: %w", err)
	}

	return comment, nil
}

// UpdateIssueComment replaces the body of an existing conversation comment.
func (c *Client) UpdateIssueComment(ctx context.Context, owner, repo string, commentID int64, body string) (IssueComment, error) {
	if err := validateCommentRef(owner, repo, commentID); err != nil {
		return IssueComment{}, err
	}

	jsonData, err := json.Marshal(IssueCommentRequest{Body: body})
	if err != nil {
		return IssueComment{}, fmt.Errorf("failed to marshal comment: %w", err)
	}

	apiURL := fmt.Sprintf("%s/repos/%s/%s/issues/comments/%d",
		c.baseURL, url.PathEscape(owner), url.PathEscape(repo), commentID)

	respBody, _, err := c.do(ctx, "update_issue_comment", "PATCH", apiURL, jsonData, "")
	if err != nil {
		return IssueComment{}, err
	}

	var comment IssueComment
	if err := json.Unmarshal(respBody, &comment); err != nil {
		return IssueComment{}, fmt.Errorf("failed to parse comment response: %w", err)
	}

	return comment, nil
}

// DeleteIssueComment removes a conversation comment. GitHub answers 204
// on success.
func (c *Client) DeleteIssueComment(ctx context.Context, owner, repo string, commentID int64) error {
	if err := validateCommentRef(owner, repo, commentID); err != nil {
		return err
	}

	apiURL := fmt.Sprintf("%s/repos/%s/%s/issues/comments/%d",
		c.baseURL, url.PathEscape(owner), url.PathEscape(repo), commentID)

	_, _, err := c.do(ctx, "delete_issue_comment", "DELETE", apiURL, nil, "")
	return err
}

// validateCommentRef validates the coordinates used to address a single
// conversation comment.
func validateCommentRef(owner, repo string, commentID int64) error {
	if err := validatePathSegment(owner, "owner"); err != nil {
		return err
	}
	if err := validatePathSegment(repo, "repo"); err != nil {
		return err
	}
	if commentID <= 0 {
		return fmt.Errorf("invalid comment ID: %d", commentID)
	}
	return nil
}
