package github_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lintgate/lintgate/internal/adapter/github"
	"github.com/lintgate/lintgate/internal/adapter/transport"
	"github.com/lintgate/lintgate/internal/domain"
)

func TestListReviews_SinglePage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/owner/repo/pulls/27/reviews", r.URL.Path)
		assert.Equal(t, "100", r.URL.Query().Get("per_page"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"id": 1, "body": "<!-- lintgate-review -->\nfound problems", "state": "CHANGES_REQUESTED", "user": {"login": "github-actions[bot]"}},
			{"id": 2, "body": "human review", "state": "APPROVED", "user": {"login": "octocat"}}
		]`))
	}))
	defer server.Close()

	client := github.NewClient("test-token")
	client.SetBaseURL(server.URL)

	reviews, err := client.ListReviews(context.Background(), "owner", "repo", 27)

	require.NoError(t, err)
	require.Len(t, reviews, 2)
	assert.Equal(t, int64(1), reviews[0].ID)
	assert.True(t, reviews[0].Ours())
	assert.Equal(t, domain.ReviewStateChangesRequested, reviews[0].State)
	assert.Equal(t, "octocat", reviews[1].Author)
	assert.False(t, reviews[1].Ours())
}

func TestListReviews_FollowsLinkHeader(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("page") == "2" {
			_, _ = w.Write([]byte(`[{"id": 2, "body": "", "state": "COMMENTED", "user": {"login": "b"}}]`))
			return
		}
		w.Header().Set("Link", fmt.Sprintf(`<%s/repos/owner/repo/pulls/27/reviews?page=2&per_page=100>; rel="next"`, server.URL))
		_, _ = w.Write([]byte(`[{"id": 1, "body": "", "state": "COMMENTED", "user": {"login": "a"}}]`))
	}))
	defer server.Close()

	client := github.NewClient("test-token")
	client.SetBaseURL(server.URL)

	reviews, err := client.ListReviews(context.Background(), "owner", "repo", 27)

	require.NoError(t, err)
	require.Len(t, reviews, 2)
	assert.Equal(t, int64(1), reviews[0].ID)
	assert.Equal(t, int64(2), reviews[1].ID)
}

func TestListReviews_RejectsForeignPaginationHost(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Link", `<http://internal.example:8080/steal>; rel="next"`)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := github.NewClient("test-token")
	client.SetBaseURL(server.URL)

	_, err := client.ListReviews(context.Background(), "owner", "repo", 27)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsafe pagination URL")
}

func TestListReviews_DetectsPaginationLoop(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Always point back at page 1 so the client would loop forever.
		w.Header().Set("Link", fmt.Sprintf(`<%s/repos/owner/repo/pulls/27/reviews?page=1&per_page=100>; rel="next"`, server.URL))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := github.NewClient("test-token")
	client.SetBaseURL(server.URL)

	_, err := client.ListReviews(context.Background(), "owner", "repo", 27)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "pagination loop detected")
}

func TestListReviews_EnforcesPageLimit(t *testing.T) {
	var server *httptest.Server
	page := 0
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page++
		w.Header().Set("Link", fmt.Sprintf(`<%s/repos/owner/repo/pulls/27/reviews?page=%d&per_page=100>; rel="next"`, server.URL, page+1))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := github.NewClient("test-token")
	client.SetBaseURL(server.URL)

	_, err := client.ListReviews(context.Background(), "owner", "repo", 27)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "pagination limit exceeded")
}

func TestSubmitReview_WirePayload(t *testing.T) {
	var rawPayload map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "/repos/owner/repo/pulls/27/reviews", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		require.NoError(t, json.NewDecoder(r.Body).Decode(&rawPayload))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": 456, "state": "CHANGES_REQUESTED"}`))
	}))
	defer server.Close()

	client := github.NewClient("test-token")
	client.SetBaseURL(server.URL)

	draft := domain.ReviewDraft{
		Summary: "summary text",
		Event:   domain.EventRequestChanges,
		Comments: []domain.DraftComment{
			{Path: "src/demo.cpp", Line: 8, Tool: domain.ToolClangFormat, Body: "please reformat"},
			{Path: "src/demo.hpp", Line: 11, Tool: domain.ToolClangTidy, Body: "narrowing conversion"},
		},
	}

	id, err := client.SubmitReview(context.Background(), "owner", "repo", 27, draft)

	require.NoError(t, err)
	assert.Equal(t, int64(456), id)

	// The payload shape is an external contract: body, event, and comments
	// of {path, line, body} only.
	assert.Equal(t, "summary text", rawPayload["body"])
	assert.Equal(t, "REQUEST_CHANGES", rawPayload["event"])
	assert.NotContains(t, rawPayload, "commit_id")

	comments, ok := rawPayload["comments"].([]interface{})
	require.True(t, ok)
	require.Len(t, comments, 2)

	first, ok := comments[0].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "src/demo.cpp", first["path"])
	assert.Equal(t, float64(8), first["line"])
	assert.Equal(t, "please reformat", first["body"])
	assert.Len(t, first, 3, "comment objects must carry exactly path, line, body")
}

func TestSubmitReview_OmitsEmptyComments(t *testing.T) {
	var rawPayload map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&rawPayload))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": 1, "state": "APPROVED"}`))
	}))
	defer server.Close()

	client := github.NewClient("test-token")
	client.SetBaseURL(server.URL)

	draft := domain.ReviewDraft{Summary: "no problems found", Event: domain.EventApprove}

	_, err := client.SubmitReview(context.Background(), "owner", "repo", 27, draft)

	require.NoError(t, err)
	assert.NotContains(t, rawPayload, "comments")
}

func TestSubmitReview_AuthenticationFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message": "Bad credentials"}`))
	}))
	defer server.Close()

	client := github.NewClient("bad-token")
	client.SetBaseURL(server.URL)
	client.SetInitialBackoff(time.Millisecond)

	_, err := client.SubmitReview(context.Background(), "owner", "repo", 27, domain.ReviewDraft{
		Summary: "body",
		Event:   domain.EventComment,
	})

	require.Error(t, err)
	assert.True(t, transport.IsAuthentication(err))
}

func TestDismissReview(t *testing.T) {
	var gotBody github.DismissReviewRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "PUT", r.Method)
		assert.Equal(t, "/repos/owner/repo/pulls/27/reviews/99/dismissals", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": 99, "state": "DISMISSED"}`))
	}))
	defer server.Close()

	client := github.NewClient("test-token")
	client.SetBaseURL(server.URL)

	err := client.DismissReview(context.Background(), "owner", "repo", 27, 99, "outdated suggestions")

	require.NoError(t, err)
	assert.Equal(t, "outdated suggestions", gotBody.Message)
}

func TestDismissReview_RejectsInvalidID(t *testing.T) {
	client := github.NewClient("test-token")

	err := client.DismissReview(context.Background(), "owner", "repo", 27, 0, "msg")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid review ID")
}
