package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/lintgate/lintgate/internal/adapter/transport"
	"github.com/lintgate/lintgate/internal/domain"
)

// reviewThreadsQuery pages through review threads with their comments.
// GraphQL is the only surface that exposes thread resolution state alongside
// the node ids the mutations need, so one query covers both.
const reviewThreadsQuery = `query($owner: String!, $repo: String!, $number: Int!, $cursor: String) {
  repository(owner: $owner, name: $repo) {
    pullRequest(number: $number) {
      reviewThreads(first: 100, after: $cursor) {
        pageInfo {
          hasNextPage
          endCursor
        }
        nodes {
          id
          isResolved
          isOutdated
          comments(first: 50) {
            nodes {
              id
              databaseId
              path
              line
              originalLine
              body
              createdAt
              author {
                login
              }
            }
          }
        }
      }
    }
  }
}`

const resolveThreadMutation = `mutation($threadId: ID!) {
  resolveReviewThread(input: {threadId: $threadId}) {
    thread {
      isResolved
    }
  }
}`

const minimizeCommentMutation = `mutation($id: ID!) {
  minimizeComment(input: {subjectId: $id, classifier: OUTDATED}) {
    minimizedComment {
      isMinimized
    }
  }
}`

const deleteCommentMutation = `mutation($id: ID!) {
  deletePullRequestReviewComment(input: {id: $id}) {
    pullRequestReviewComment {
      id
    }
  }
}`

// graphQLRequest is the wire format for POST /graphql.
type graphQLRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables,omitempty"`
}

// graphQLError is one entry of the in-band errors array.
type graphQLError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// graphQLResponse is the envelope of every GraphQL response.
type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors"`
}

// reviewThreadsResponse decodes the data payload of reviewThreadsQuery.
type reviewThreadsResponse struct {
	Repository struct {
		PullRequest struct {
			ReviewThreads struct {
				PageInfo struct {
					HasNextPage bool   `json:"hasNextPage"`
					EndCursor   string `json:"endCursor"`
				} `json:"pageInfo"`
				Nodes []struct {
					ID         string `json:"id"`
					IsResolved bool   `json:"isResolved"`
					IsOutdated bool   `json:"isOutdated"`
					Comments   struct {
						Nodes []struct {
							ID           string `json:"id"`
							DatabaseID   int64  `json:"databaseId"`
							Path         string `json:"path"`
							Line         int    `json:"line"`
							OriginalLine int    `json:"originalLine"`
							Body         string `json:"body"`
							CreatedAt    string `json:"createdAt"`
							Author       struct {
								Login string `json:"login"`
							} `json:"author"`
						} `json:"nodes"`
					} `json:"comments"`
				} `json:"nodes"`
			} `json:"reviewThreads"`
		} `json:"pullRequest"`
	} `json:"repository"`
}

// doGraphQL posts a GraphQL request and returns the raw data payload.
// GraphQL transports application errors in-band on HTTP 200, so the errors
// array is mapped here on top of the HTTP status mapping.
func (c *Client) doGraphQL(ctx context.Context, operation, query string, variables map[string]interface{}) (json.RawMessage, error) {
	payload := graphQLRequest{Query: query, Variables: variables}
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal GraphQL request: %w", err)
	}

	body, _, err := c.do(ctx, operation, "POST", c.graphQLURL, jsonData, "")
	if err != nil {
		return nil, err
	}

	var resp graphQLResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse GraphQL response: %w", err)
	}

	if len(resp.Errors) > 0 {
		return nil, mapGraphQLErrors(operation, resp.Errors)
	}

	return resp.Data, nil
}

// mapGraphQLErrors converts the in-band errors array to a typed error.
// Not-found node errors are distinguished so idempotent mutations can treat
// them as success.
func mapGraphQLErrors(operation string, errs []graphQLError) *transport.Error {
	messages := make([]string, 0, len(errs))
	notFound := false
	for _, e := range errs {
		messages = append(messages, e.Message)
		if e.Type == "NOT_FOUND" || strings.Contains(e.Message, "Could not resolve") {
			notFound = true
		}
	}

	errType := transport.ErrTypeInvalidRequest
	if notFound {
		errType = transport.ErrTypeNotFound
	}

	return &transport.Error{
		Type:      errType,
		Message:   strings.Join(messages, "; "),
		Retryable: false,
		Operation: operation,
	}
}

// ListReviewComments fetches every review comment on the pull request along
// with the state of its enclosing thread, following cursor pagination with
// the same page cap as the REST listings.
func (c *Client) ListReviewComments(ctx context.Context, owner, repo string, number int) ([]domain.ExistingReviewComment, error) {
	if err := validateRef(owner, repo, number); err != nil {
		return nil, err
	}

	var comments []domain.ExistingReviewComment
	var cursor string

	for page := 0; ; page++ {
		if page >= maxPaginationPages {
			return nil, fmt.Errorf("pagination limit exceeded (%d pages)", maxPaginationPages)
		}

		variables := map[string]interface{}{
			"owner":  owner,
			"repo":   repo,
			"number": number,
		}
		if cursor != "" {
			variables["cursor"] = cursor
		}

		data, err := c.doGraphQL(ctx, "list_review_comments", reviewThreadsQuery, variables)
		if err != nil {
			return nil, err
		}

		var resp reviewThreadsResponse
		if err := json.Unmarshal(data, &resp); err != nil {
			return nil, fmt.Errorf("failed to parse review threads: %w", err)
		}

		threads := resp.Repository.PullRequest.ReviewThreads
		for _, thread := range threads.Nodes {
			for _, node := range thread.Comments.Nodes {
				line := node.Line
				if line == 0 {
					// Outdated comments lose their current line; the
					// original anchor still identifies them.
					line = node.OriginalLine
				}
				createdAt, _ := time.Parse(time.RFC3339, node.CreatedAt)
				comments = append(comments, domain.ExistingReviewComment{
					ID:        node.DatabaseID,
					NodeID:    node.ID,
					ThreadID:  thread.ID,
					Path:      node.Path,
					Line:      line,
					Body:      node.Body,
					Author:    node.Author.Login,
					CreatedAt: createdAt,
					Resolved:  thread.IsResolved,
					Outdated:  thread.IsOutdated,
				})
			}
		}

		if !threads.PageInfo.HasNextPage {
			break
		}
		cursor = threads.PageInfo.EndCursor
	}

	return comments, nil
}

// ResolveThread marks a review thread as resolved. Resolving a thread that
// no longer exists is success.
func (c *Client) ResolveThread(ctx context.Context, threadID string) error {
	if threadID == "" {
		return fmt.Errorf("thread ID must not be empty")
	}

	_, err := c.doGraphQL(ctx, "resolve_thread", resolveThreadMutation, map[string]interface{}{
		"threadId": threadID,
	})
	if transport.IsNotFound(err) {
		return nil
	}
	return err
}

// MinimizeComment hides a review comment as outdated. Minimizing a comment
// that no longer exists is success.
func (c *Client) MinimizeComment(ctx context.Context, commentNodeID string) error {
	if commentNodeID == "" {
		return fmt.Errorf("comment node ID must not be empty")
	}

	_, err := c.doGraphQL(ctx, "minimize_comment", minimizeCommentMutation, map[string]interface{}{
		"id": commentNodeID,
	})
	if transport.IsNotFound(err) {
		return nil
	}
	return err
}

// DeleteComment removes a review comment. Node IDs go through the GraphQL
// mutation; a bare numeric ID is a REST database ID from a comment listed
// without its node ID, and is deleted through the REST endpoint instead.
// Deleting a comment that no longer exists is success.
func (c *Client) DeleteComment(ctx context.Context, owner, repo, commentID string) error {
	if commentID == "" {
		return fmt.Errorf("comment ID must not be empty")
	}
	if restID, ok := numericCommentID(commentID); ok {
		return c.deleteCommentREST(ctx, owner, repo, restID)
	}

	_, err := c.doGraphQL(ctx, "delete_comment", deleteCommentMutation, map[string]interface{}{
		"id": commentID,
	})
	if transport.IsNotFound(err) {
		return nil
	}
	return err
}

func (c *Client) deleteCommentREST(ctx context.Context, owner, repo string, commentID int64) error {
	if err := validatePathSegment(owner, "owner"); err != nil {
		return err
	}
	if err := validatePathSegment(repo, "repo"); err != nil {
		return err
	}

	apiURL := fmt.Sprintf("%s/repos/%s/%s/pulls/comments/%d",
		c.baseURL, url.PathEscape(owner), url.PathEscape(repo), commentID)

	_, _, err := c.do(ctx, "delete_comment", "DELETE", apiURL, nil, "")
	if transport.IsNotFound(err) {
		return nil
	}
	return err
}

func numericCommentID(id string) (int64, bool) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
