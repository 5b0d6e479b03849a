package domain_test

import (
	"testing"

	"github.com/lintgate/lintgate/internal/domain"
)

func TestCommentToolRoundTrip(t *testing.T) {
	for _, tool := range []domain.Tool{domain.ToolClangFormat, domain.ToolClangTidy} {
		body := domain.ToolMarker(tool) + "\n### " + string(tool) + "\n\nsome advice\n"
		got, ok := domain.CommentTool(body)
		if !ok {
			t.Fatalf("marker for %s not recognized", tool)
		}
		if got != tool {
			t.Errorf("CommentTool = %s, want %s", got, tool)
		}
	}
}

func TestCommentToolRejectsForeignBodies(t *testing.T) {
	bodies := []string{
		"",
		"nit: rename this variable",
		"<!-- some-other-bot: clang-tidy -->",
		"<!-- lintgate: cppcheck -->",
		"<!-- lintgate: clang-tidy",
	}
	for _, body := range bodies {
		if _, ok := domain.CommentTool(body); ok {
			t.Errorf("body %q should not parse as a tool comment", body)
		}
	}
}

func TestSameBodyNormalizesEndings(t *testing.T) {
	a := "line one\r\nline two\r\n"
	b := "line one\nline two"
	if !domain.SameBody(a, b) {
		t.Error("CRLF and trailing whitespace should not count as drift")
	}
	if domain.SameBody("advice A", "advice B") {
		t.Error("different content must not compare equal")
	}
}

func TestExistingReviewOurs(t *testing.T) {
	ours := domain.ExistingReview{Body: domain.ReviewMarker + "\n## Review\n"}
	theirs := domain.ExistingReview{Body: "LGTM", Author: "alice"}

	if !ours.Ours() {
		t.Error("review with marker should be recognized as ours")
	}
	if theirs.Ours() {
		t.Error("human review must not be recognized as ours")
	}
}

func TestPullRequestReviewable(t *testing.T) {
	cases := []struct {
		name string
		pr   domain.PullRequest
		want bool
	}{
		{"open", domain.PullRequest{State: domain.PullStateOpen}, true},
		{"draft", domain.PullRequest{State: domain.PullStateOpen, Draft: true}, false},
		{"closed", domain.PullRequest{State: domain.PullStateClosed}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.pr.Reviewable(); got != tc.want {
				t.Errorf("Reviewable() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestPublishPlanMutationCount(t *testing.T) {
	plan := domain.PublishPlan{
		Review:           &domain.ReviewDraft{Event: domain.EventComment},
		DismissReviews:   []int64{1, 2},
		ResolveThreads:   []string{"T_1"},
		MinimizeComments: []string{"C_1"},
		DeleteComments:   []string{"C_2", "C_3"},
	}
	if got := plan.MutationCount(); got != 7 {
		t.Errorf("MutationCount() = %d, want 7", got)
	}
	if plan.Empty() {
		t.Error("plan with mutations should not be empty")
	}
	if !(domain.PublishPlan{}).Empty() {
		t.Error("zero plan should be empty")
	}
}
