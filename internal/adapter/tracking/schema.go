// Package tracking maintains the sticky conversation comment that mirrors
// the latest run's verdict on the pull request. The comment carries a
// hidden marker so later runs find and replace it instead of stacking a
// new comment per push.
package tracking

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const (
	// threadMarker identifies the sticky comment among arbitrary
	// conversation comments. HTML comments render as nothing in the
	// GitHub UI.
	threadMarker = "<!-- lintgate-thread -->"

	// metadataStart and metadataEnd delimit the embedded metadata block.
	// The payload is base64 encoded so summary Markdown can never collide
	// with the HTML comment terminator.
	metadataStart = "<!-- lintgate-metadata-b64"
	metadataEnd   = "-->"

	// maxMetadataSize caps the encoded metadata block. GitHub rejects
	// comment bodies over 65536 characters.
	maxMetadataSize = 64 * 1024
)

// Metadata records which pull request the sticky comment belongs to,
// which run last rewrote it, and the finding counts that run reported.
type Metadata struct {
	Version      int       `json:"version"`
	Repository   string    `json:"repository"`
	PullNumber   int       `json:"pull_number"`
	RunID        string    `json:"run_id,omitempty"`
	HeadSHA      string    `json:"head_sha,omitempty"`
	TidyFindings int       `json:"tidy_findings"`
	FormatRanges int       `json:"format_ranges"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// RenderComment assembles the full comment body: the marker, the visible
// summary, then the hidden metadata block.
func RenderComment(meta Metadata, body string) (string, error) {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal thread metadata: %w", err)
	}

	encoded := base64.StdEncoding.EncodeToString(data)
	if len(encoded) > maxMetadataSize {
		return "", fmt.Errorf("thread metadata too large: %d bytes (max %d)", len(encoded), maxMetadataSize)
	}

	var sb strings.Builder
	sb.WriteString(threadMarker)
	sb.WriteString("\n")
	sb.WriteString(strings.TrimRight(body, "\n"))
	sb.WriteString("\n\n")
	sb.WriteString(metadataStart)
	sb.WriteString("\n")
	sb.WriteString(encoded)
	sb.WriteString("\n")
	sb.WriteString(metadataEnd)
	sb.WriteString("\n")
	return sb.String(), nil
}

// IsThreadComment reports whether a comment body carries the sticky marker.
func IsThreadComment(body string) bool {
	return strings.Contains(body, threadMarker)
}

// ParseMetadata extracts and decodes the metadata block from a comment
// body previously produced by RenderComment.
func ParseMetadata(body string) (Metadata, error) {
	startIdx := strings.Index(body, metadataStart)
	if startIdx == -1 {
		return Metadata{}, fmt.Errorf("thread metadata start marker not found")
	}

	remaining := body[startIdx+len(metadataStart):]
	endIdx := strings.Index(remaining, metadataEnd)
	if endIdx == -1 {
		return Metadata{}, fmt.Errorf("thread metadata end marker not found")
	}

	content := strings.TrimSpace(remaining[:endIdx])
	if content == "" {
		return Metadata{}, fmt.Errorf("empty thread metadata")
	}

	// Check size before decoding to bound the allocation
	if len(content) > maxMetadataSize {
		return Metadata{}, fmt.Errorf("thread metadata too large: %d bytes (max %d)", len(content), maxMetadataSize)
	}

	// Strict decoding rejects malformed padding
	decoded, err := base64.StdEncoding.Strict().DecodeString(content)
	if err != nil {
		return Metadata{}, fmt.Errorf("failed to decode thread metadata: %w", err)
	}

	var meta Metadata
	if err := json.Unmarshal(decoded, &meta); err != nil {
		return Metadata{}, fmt.Errorf("failed to parse thread metadata: %w", err)
	}
	return meta, nil
}
