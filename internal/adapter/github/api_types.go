package github

// GitHub Pull Request Reviews API types.
// See: https://docs.github.com/en/rest/pulls/reviews#create-a-review-for-a-pull-request

// CreateReviewRequest is the request body for POST /repos/{owner}/{repo}/pulls/{pull_number}/reviews.
type CreateReviewRequest struct {
	// Body is the review summary comment.
	Body string `json:"body"`

	// Event is the review action: APPROVE, REQUEST_CHANGES, or COMMENT.
	Event string `json:"event"`

	// Comments are the inline review comments on specific diff lines.
	Comments []ReviewCommentRequest `json:"comments,omitempty"`
}

// ReviewCommentRequest is an inline comment anchored to a file line.
type ReviewCommentRequest struct {
	// Path is the relative path of the file to comment on.
	Path string `json:"path"`

	// Line is the file line in the head revision. GitHub rejects the whole
	// review if any comment's line is not part of the diff.
	Line int `json:"line"`

	// Body is the comment text (supports GitHub-flavored Markdown).
	Body string `json:"body"`
}

// ReviewResponse describes a review in list and create responses.
type ReviewResponse struct {
	ID          int64  `json:"id"`
	NodeID      string `json:"node_id"`
	User        User   `json:"user"`
	Body        string `json:"body"`
	State       string `json:"state"` // PENDING, APPROVED, CHANGES_REQUESTED, COMMENTED, DISMISSED
	HTMLURL     string `json:"html_url"`
	SubmittedAt string `json:"submitted_at"`
}

// PullResponse is the response from GET /repos/{owner}/{repo}/pulls/{pull_number}.
type PullResponse struct {
	Number int    `json:"number"`
	State  string `json:"state"` // "open" or "closed"
	Draft  bool   `json:"draft"`
	Head   struct {
		SHA string `json:"sha"`
	} `json:"head"`
}

// User represents a GitHub user in the response.
type User struct {
	Login string `json:"login"`
	ID    int64  `json:"id"`
	Type  string `json:"type"` // "User" or "Bot"
}

// DismissReviewRequest is the request body for PUT .../reviews/{review_id}/dismissals.
type DismissReviewRequest struct {
	Message string `json:"message"`
}

// IssueComment describes a conversation comment in list and create
// responses. Conversation comments live on the issues endpoint even for
// pull requests; inline review comments are a different resource.
type IssueComment struct {
	ID      int64  `json:"id"`
	NodeID  string `json:"node_id"`
	User    User   `json:"user"`
	Body    string `json:"body"`
	HTMLURL string `json:"html_url"`
}

// IssueCommentRequest is the request body for creating or editing a
// conversation comment.
type IssueCommentRequest struct {
	Body string `json:"body"`
}

// GitHubErrorResponse represents an error response from the GitHub API.
type GitHubErrorResponse struct {
	Message          string `json:"message"`
	DocumentationURL string `json:"documentation_url"`
	Errors           []struct {
		Resource string `json:"resource"`
		Field    string `json:"field"`
		Code     string `json:"code"`
		Message  string `json:"message"`
	} `json:"errors,omitempty"`
}
