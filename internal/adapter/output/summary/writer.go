// Package summary appends the run's findings to the workflow step summary.
package summary

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/lintgate/lintgate/internal/domain"
	"github.com/lintgate/lintgate/internal/usecase/review"
)

// Writer appends Markdown to the file GITHUB_STEP_SUMMARY points at. An
// empty path makes the writer a no-op, so callers can wire it
// unconditionally.
type Writer struct {
	path string
}

var _ review.SummaryWriter = (*Writer)(nil)

// NewWriter writes to the given summary file path.
func NewWriter(path string) *Writer {
	return &Writer{path: path}
}

// WriteSummary appends one report section for this run. Appending matters:
// other steps in the same job share the file.
func (w *Writer) WriteSummary(totals domain.AdviceTotals, files []domain.ChangedFile) error {
	if w.path == "" {
		return nil
	}

	file, err := os.OpenFile(w.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open step summary: %w", err)
	}
	defer file.Close()

	if _, err := file.WriteString(buildContent(totals, files)); err != nil {
		return fmt.Errorf("write step summary: %w", err)
	}
	return nil
}

func buildContent(totals domain.AdviceTotals, files []domain.ChangedFile) string {
	var builder strings.Builder
	builder.WriteString("# Clang Tools Review\n\n")

	if totals.Empty() {
		builder.WriteString("No problems need attention.\n")
		return builder.String()
	}

	caser := cases.Title(language.English)

	if totals.FormatRanges > 0 {
		builder.WriteString(fmt.Sprintf("## %s\n\n", caser.String(string(domain.ToolClangFormat))))
		builder.WriteString(fmt.Sprintf("%d file(s) not formatted, %d range(s) total.\n\n",
			totals.FormatFiles, totals.FormatRanges))
		for _, f := range files {
			if f.Format == nil || len(f.Format.Ranges) == 0 {
				continue
			}
			builder.WriteString(fmt.Sprintf("- `%s`: %s\n", f.Path, rangeList(f.Format.Ranges)))
		}
		builder.WriteString("\n")
	}

	if totals.TidyFindings > 0 {
		builder.WriteString(fmt.Sprintf("## %s\n\n", caser.String(string(domain.ToolClangTidy))))
		builder.WriteString(fmt.Sprintf("%d diagnostic(s) in %d file(s).\n\n",
			totals.TidyFindings, totals.TidyFiles))
		for _, f := range files {
			for _, d := range f.Tidy {
				builder.WriteString(fmt.Sprintf("- `%s:%d` %s: %s", f.Path, d.Line, d.Severity, d.Message))
				if d.Check != "" {
					builder.WriteString(fmt.Sprintf(" [%s]", d.Check))
				}
				builder.WriteString("\n")
			}
		}
	}

	return builder.String()
}

func rangeList(ranges []domain.FormatRange) string {
	parts := make([]string, 0, len(ranges))
	for _, r := range ranges {
		if r.SingleLine() {
			parts = append(parts, fmt.Sprintf("line %d", r.Start))
		} else {
			parts = append(parts, fmt.Sprintf("lines %d-%d", r.Start, r.End))
		}
	}
	return strings.Join(parts, ", ")
}
