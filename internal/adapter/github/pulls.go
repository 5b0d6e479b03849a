package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/lintgate/lintgate/internal/domain"
)

// FetchPullRequest retrieves pull request metadata. State and draft status
// decide whether the run publishes anything at all.
func (c *Client) FetchPullRequest(ctx context.Context, owner, repo string, number int) (domain.PullRequest, error) {
	if err := validateRef(owner, repo, number); err != nil {
		return domain.PullRequest{}, err
	}

	apiURL := fmt.Sprintf("%s/repos/%s/%s/pulls/%d",
		c.baseURL, url.PathEscape(owner), url.PathEscape(repo), number)

	body, _, err := c.do(ctx, "fetch_pull_request", "GET", apiURL, nil, "")
	if err != nil {
		return domain.PullRequest{}, err
	}

	var resp PullResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.PullRequest{}, fmt.Errorf("failed to parse pull request: %w", err)
	}

	return domain.PullRequest{
		Number:  resp.Number,
		State:   resp.State,
		Draft:   resp.Draft,
		HeadSHA: resp.Head.SHA,
	}, nil
}

// FetchDiff retrieves the unified diff for the pull request. The same
// endpoint serves JSON metadata and the raw diff; the media type selects
// which.
func (c *Client) FetchDiff(ctx context.Context, owner, repo string, number int) (string, error) {
	if err := validateRef(owner, repo, number); err != nil {
		return "", err
	}

	apiURL := fmt.Sprintf("%s/repos/%s/%s/pulls/%d",
		c.baseURL, url.PathEscape(owner), url.PathEscape(repo), number)

	body, _, err := c.do(ctx, "fetch_diff", "GET", apiURL, nil, "application/vnd.github.diff")
	if err != nil {
		return "", err
	}

	return string(body), nil
}
