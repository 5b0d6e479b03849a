package review

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lintgate/lintgate/internal/domain"
)

// FitCount tracks, for one tool, how many of its concerns could anchor to a
// line of the pull request's diff.
type FitCount struct {
	Fit   int
	Total int
}

// AllFit reports whether every concern found an anchor.
func (c FitCount) AllFit() bool {
	return c.Fit == c.Total
}

// CandidateSet is the line-comment material one run wants on the pull
// request. Comments are merged per (path, line, tool) and sorted, so the
// set is deterministic for a given advice input.
type CandidateSet struct {
	Comments []domain.DraftComment
	Fit      map[domain.Tool]FitCount
}

// BuildCandidates turns per-file advice into tool-tagged draft comments.
// Review comments can only attach to lines present in the diff; advice
// outside it is counted as unfit and left to the summary and annotations.
// Multiple findings on the same line by the same tool merge into one
// comment, keeping the (path, line, tool) key unique.
func BuildCandidates(files []domain.ChangedFile) CandidateSet {
	set := CandidateSet{Fit: make(map[domain.Tool]FitCount)}
	pieces := make(map[domain.CommentKey][]string)

	for _, f := range files {
		if f.Format != nil {
			for _, r := range f.Format.Ranges {
				set.count(domain.ToolClangFormat, f.InDiff(r.Start))
				if !f.InDiff(r.Start) {
					continue
				}
				key := domain.CommentKey{Path: f.Path, Line: r.Start, Tool: domain.ToolClangFormat}
				pieces[key] = append(pieces[key], formatPiece(r))
			}
		}

		for _, d := range f.Tidy {
			set.count(domain.ToolClangTidy, f.InDiff(d.Line))
			if !f.InDiff(d.Line) {
				continue
			}
			key := domain.CommentKey{Path: f.Path, Line: d.Line, Tool: domain.ToolClangTidy}
			pieces[key] = append(pieces[key], tidyPiece(d))
		}
	}

	keys := make([]domain.CommentKey, 0, len(pieces))
	for key := range pieces {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Path != keys[j].Path {
			return keys[i].Path < keys[j].Path
		}
		if keys[i].Line != keys[j].Line {
			return keys[i].Line < keys[j].Line
		}
		return keys[i].Tool < keys[j].Tool
	})

	for _, key := range keys {
		set.Comments = append(set.Comments, domain.DraftComment{
			Path: key.Path,
			Line: key.Line,
			Tool: key.Tool,
			Body: domain.ToolMarker(key.Tool) + "\n" + strings.Join(pieces[key], "\n\n"),
		})
	}
	return set
}

func (s *CandidateSet) count(tool domain.Tool, fit bool) {
	c := s.Fit[tool]
	c.Total++
	if fit {
		c.Fit++
	}
	s.Fit[tool] = c
}

// formatPiece renders one clang-format range. Single-line ranges become
// committable suggestion blocks; longer runs show the formatted text in a
// plain fence, since a review suggestion cannot span lines here.
func formatPiece(r domain.FormatRange) string {
	if r.SingleLine() {
		return fmt.Sprintf("**clang-format** would reformat this line:\n\n```suggestion\n%s\n```", r.Replacement)
	}
	return fmt.Sprintf("**clang-format** would reformat lines %d-%d:\n\n```cpp\n%s\n```", r.Start, r.End, r.Replacement)
}

func tidyPiece(d domain.TidyDiagnostic) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**clang-tidy** %s: [%s]\n> %s", d.Severity, d.Check, d.Message)
	if d.Fix != "" {
		fmt.Fprintf(&b, "\n\n```suggestion\n%s\n```", d.Fix)
	}
	return b.String()
}
