package domain

import "strings"

// ReviewEvent is the verdict submitted with a review. The values are part of
// the wire contract.
type ReviewEvent string

const (
	EventApprove        ReviewEvent = "APPROVE"
	EventRequestChanges ReviewEvent = "REQUEST_CHANGES"
	EventComment        ReviewEvent = "COMMENT"
)

// ReviewMarker opens every review body a run submits. Dismissal detection
// and the thread-comment store key off it.
const ReviewMarker = "<!-- lintgate-review -->"

const (
	toolMarkerPrefix = "<!-- lintgate: "
	toolMarkerSuffix = " -->"
)

// ToolMarker returns the per-comment marker identifying the authoring tool.
func ToolMarker(tool Tool) string {
	return toolMarkerPrefix + string(tool) + toolMarkerSuffix
}

// CommentTool extracts the authoring tool from a comment body marker.
func CommentTool(body string) (Tool, bool) {
	i := strings.Index(body, toolMarkerPrefix)
	if i < 0 {
		return "", false
	}
	rest := body[i+len(toolMarkerPrefix):]
	j := strings.Index(rest, toolMarkerSuffix)
	if j < 0 {
		return "", false
	}
	switch tool := Tool(rest[:j]); tool {
	case ToolClangFormat, ToolClangTidy:
		return tool, true
	default:
		return "", false
	}
}

func hasMarker(body, marker string) bool {
	return strings.Contains(body, marker)
}

// CommentKey identifies a line comment for reconciliation purposes.
type CommentKey struct {
	Path string
	Line int
	Tool Tool
}

// DraftComment is one line comment a run wants on the pull request.
type DraftComment struct {
	Path string
	Line int
	Tool Tool
	Body string
}

// Key returns the comment's reconciliation key.
func (c DraftComment) Key() CommentKey {
	return CommentKey{Path: c.Path, Line: c.Line, Tool: c.Tool}
}

// ReviewDraft is the review a run intends to submit: summary body, line
// comments, and verdict.
type ReviewDraft struct {
	Summary  string
	Comments []DraftComment
	Event    ReviewEvent
}

// NormalizeBody canonicalizes a comment body for equality checks. The remote
// side normalizes line endings and trailing whitespace, so byte equality on
// raw bodies would report spurious drift.
func NormalizeBody(body string) string {
	body = strings.ReplaceAll(body, "\r\n", "\n")
	return strings.TrimSpace(body)
}

// SameBody reports whether two comment bodies are equivalent after
// normalization.
func SameBody(a, b string) bool {
	return NormalizeBody(a) == NormalizeBody(b)
}
