// Package payload persists the composed review request as JSON so a run's
// would-be submission can be inspected offline.
package payload

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lintgate/lintgate/internal/domain"
	"github.com/lintgate/lintgate/internal/usecase/review"
)

// reviewPayload mirrors the review submission wire shape.
type reviewPayload struct {
	Body     string           `json:"body"`
	Event    string           `json:"event"`
	Comments []commentPayload `json:"comments"`
}

type commentPayload struct {
	Path string `json:"path"`
	Line int    `json:"line"`
	Body string `json:"body"`
}

// Writer implements the review.PayloadWriter interface.
type Writer struct{}

var _ review.PayloadWriter = (*Writer)(nil)

// NewWriter creates a payload writer.
func NewWriter() *Writer {
	return &Writer{}
}

// WritePayload serializes the draft to path, creating parent directories as
// needed.
func (w *Writer) WritePayload(path string, draft *domain.ReviewDraft) error {
	payload := reviewPayload{
		Body:     draft.Summary,
		Event:    string(draft.Event),
		Comments: make([]commentPayload, 0, len(draft.Comments)),
	}
	for _, c := range draft.Comments {
		payload.Comments = append(payload.Comments, commentPayload{
			Path: c.Path,
			Line: c.Line,
			Body: c.Body,
		})
	}

	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create payload directory: %w", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create payload file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(payload); err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	return nil
}
