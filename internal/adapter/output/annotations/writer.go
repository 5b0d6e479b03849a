// Package annotations emits GitHub workflow commands, one per finding, so
// findings surface inline in the pull request's checks view.
package annotations

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/lintgate/lintgate/internal/domain"
	"github.com/lintgate/lintgate/internal/usecase/review"
)

// Writer prints ::notice and ::warning commands for the workflow runner.
type Writer struct {
	out io.Writer
}

var _ review.AnnotationWriter = (*Writer)(nil)

// NewWriter writes to out, or stdout when out is nil. The runner only picks
// commands up from the step's standard output.
func NewWriter(out io.Writer) *Writer {
	if out == nil {
		out = os.Stdout
	}
	return &Writer{out: out}
}

// WriteAnnotations emits one command per tidy diagnostic and one per file
// with format advice.
func (w *Writer) WriteAnnotations(files []domain.ChangedFile) error {
	for _, f := range files {
		if f.Format != nil && len(f.Format.Ranges) > 0 {
			if err := w.formatAnnotation(f); err != nil {
				return err
			}
		}
		for _, d := range f.Tidy {
			if err := w.tidyAnnotation(f.Path, d); err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *Writer) formatAnnotation(f domain.ChangedFile) error {
	lines := make([]string, 0, len(f.Format.Ranges))
	for _, r := range f.Format.Ranges {
		if r.SingleLine() {
			lines = append(lines, strconv.Itoa(r.Start))
		} else {
			lines = append(lines, fmt.Sprintf("%d-%d", r.Start, r.End))
		}
	}
	_, err := fmt.Fprintf(w.out,
		"::notice file=%s,line=%d,title=Run clang-format on %s::File %s does not conform to the configured style guide. (lines %s)\n",
		escapeProperty(f.Path), f.Format.Ranges[0].Start, escapeProperty(f.Path),
		escapeMessage(f.Path), escapeMessage(strings.Join(lines, ", ")))
	return err
}

func (w *Writer) tidyAnnotation(path string, d domain.TidyDiagnostic) error {
	level := "warning"
	switch d.Severity {
	case domain.SeverityError:
		level = "error"
	case domain.SeverityNote:
		level = "notice"
	}
	title := fmt.Sprintf("%s:%d:%d", path, d.Line, d.Column)
	if d.Check != "" {
		title += fmt.Sprintf(" [%s]", d.Check)
	}
	_, err := fmt.Fprintf(w.out, "::%s file=%s,line=%d,title=%s::%s\n",
		level, escapeProperty(path), d.Line, escapeProperty(title), escapeMessage(d.Message))
	return err
}

// escapeMessage encodes the characters the runner treats as command
// delimiters in message data.
func escapeMessage(s string) string {
	s = strings.ReplaceAll(s, "%", "%25")
	s = strings.ReplaceAll(s, "\r", "%0D")
	s = strings.ReplaceAll(s, "\n", "%0A")
	return s
}

// escapeProperty additionally encodes the property separators.
func escapeProperty(s string) string {
	s = escapeMessage(s)
	s = strings.ReplaceAll(s, ":", "%3A")
	s = strings.ReplaceAll(s, ",", "%2C")
	return s
}
