package review

import (
	"fmt"
	"strings"

	"github.com/lintgate/lintgate/internal/domain"
)

// ComposeOptions are the flags that shape the review.
type ComposeOptions struct {
	// SummaryOnly omits line comments; the summary carries per-file counts
	// instead.
	SummaryOnly bool

	// NoLGTM suppresses the approving review on a clean result. With
	// advice present it changes nothing.
	NoLGTM bool

	// Passive downgrades the verdict to COMMENT regardless of advice.
	Passive bool
}

// Compose builds the review one run submits: summary body, verdict, and the
// line comments the matcher cleared for creation. A nil return means no
// review should be submitted at all (clean result under NoLGTM).
//
// The verdict follows the advice: REQUEST_CHANGES when findings remain,
// APPROVE when none do, COMMENT whenever passive mode is on.
func Compose(files []domain.ChangedFile, candidates CandidateSet, create []domain.DraftComment, opts ComposeOptions) *domain.ReviewDraft {
	totals := domain.Totals(files)

	if totals.Empty() {
		if opts.NoLGTM {
			return nil
		}
		return &domain.ReviewDraft{
			Summary: domain.ReviewMarker + "\n\n## lintgate review\n\nScanned sources are clean: no problems found.\n",
			Event:   verdict(totals, opts),
		}
	}

	draft := &domain.ReviewDraft{
		Summary: composeSummary(files, candidates, totals, opts),
		Event:   verdict(totals, opts),
	}
	if !opts.SummaryOnly {
		draft.Comments = create
	}
	return draft
}

func verdict(totals domain.AdviceTotals, opts ComposeOptions) domain.ReviewEvent {
	if opts.Passive {
		return domain.EventComment
	}
	if totals.Empty() {
		return domain.EventApprove
	}
	return domain.EventRequestChanges
}

func composeSummary(files []domain.ChangedFile, candidates CandidateSet, totals domain.AdviceTotals, opts ComposeOptions) string {
	var b strings.Builder
	b.WriteString(domain.ReviewMarker)
	b.WriteString("\n\n## lintgate review\n")

	if totals.FormatRanges > 0 {
		b.WriteString("\n### clang-format\n\n")
		fmt.Fprintf(&b, "%d file(s) would be reformatted (%d range(s)).\n", totals.FormatFiles, totals.FormatRanges)
		writeFitLine(&b, domain.ToolClangFormat, candidates.Fit)
		if opts.SummaryOnly {
			writeFileCounts(&b, files, domain.ToolClangFormat)
		}
	}

	if totals.TidyFindings > 0 {
		b.WriteString("\n### clang-tidy\n\n")
		fmt.Fprintf(&b, "%d diagnostic(s) in %d file(s).\n", totals.TidyFindings, totals.TidyFiles)
		writeFitLine(&b, domain.ToolClangTidy, candidates.Fit)
		if opts.SummaryOnly {
			writeFileCounts(&b, files, domain.ToolClangTidy)
		}
	}

	return b.String()
}

// writeFitLine reports concerns that could not anchor to the diff. Silent
// when everything fit, so the common case stays short.
func writeFitLine(b *strings.Builder, tool domain.Tool, fit map[domain.Tool]FitCount) {
	c, ok := fit[tool]
	if !ok || c.AllFit() {
		return
	}
	fmt.Fprintf(b, "Only %d of %d %s concerns fit within this pull request's diff.\n", c.Fit, c.Total, tool)
}

func writeFileCounts(b *strings.Builder, files []domain.ChangedFile, tool domain.Tool) {
	b.WriteString("\n")
	for _, f := range files {
		switch tool {
		case domain.ToolClangFormat:
			if f.Format != nil && len(f.Format.Ranges) > 0 {
				fmt.Fprintf(b, "- `%s`: %d range(s)\n", f.Path, len(f.Format.Ranges))
			}
		case domain.ToolClangTidy:
			if len(f.Tidy) > 0 {
				fmt.Fprintf(b, "- `%s`: %d diagnostic(s)\n", f.Path, len(f.Tidy))
			}
		}
	}
}
