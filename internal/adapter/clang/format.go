package clang

import (
	"context"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/lintgate/lintgate/internal/domain"
)

// replacementsDoc is clang-format's --output-replacements-xml document.
type replacementsDoc struct {
	XMLName      xml.Name         `xml:"replacements"`
	Incomplete   string           `xml:"incomplete_format,attr"`
	Replacements []replacementDoc `xml:"replacement"`
}

type replacementDoc struct {
	Offset int    `xml:"offset,attr"`
	Length int    `xml:"length,attr"`
	Text   string `xml:",chardata"`
}

// formatFile runs clang-format in replacements mode and converts the byte
// replacements into line-ranged advice. A nil return with nil error means
// the file is already formatted.
func formatFile(ctx context.Context, runner Runner, binary, style, root, path string) (*domain.FormatAdvice, error) {
	src, err := os.ReadFile(filepath.Join(root, path))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	args := []string{"--output-replacements-xml"}
	if style != "" {
		args = append(args, "--style="+style)
	}
	args = append(args, path)

	result, err := runner.Run(ctx, root, binary, args...)
	if err != nil {
		return nil, err
	}
	if result.ExitCode != 0 {
		return nil, fmt.Errorf("%s exited %d on %s: %s",
			binary, result.ExitCode, path, strings.TrimSpace(string(result.Stderr)))
	}

	replacements, err := parseReplacements(result.Stdout)
	if err != nil {
		return nil, fmt.Errorf("parsing %s replacements for %s: %w", binary, path, err)
	}
	if len(replacements) == 0 {
		return nil, nil
	}

	formatted := applyReplacements(src, replacements)
	ranges := alignRanges(string(src), string(formatted))
	if len(ranges) == 0 {
		return nil, nil
	}
	return &domain.FormatAdvice{Ranges: ranges}, nil
}

func parseReplacements(out []byte) ([]replacementDoc, error) {
	if len(strings.TrimSpace(string(out))) == 0 {
		return nil, nil
	}
	var doc replacementsDoc
	if err := xml.Unmarshal(out, &doc); err != nil {
		return nil, err
	}
	return doc.Replacements, nil
}

// applyReplacements produces the formatted file content. Replacements are
// byte-offset edits against the original content and never overlap.
func applyReplacements(src []byte, replacements []replacementDoc) []byte {
	sorted := make([]replacementDoc, len(replacements))
	copy(sorted, replacements)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Offset < sorted[j].Offset })

	var out []byte
	last := 0
	for _, r := range sorted {
		if r.Offset < last || r.Offset > len(src) {
			continue
		}
		out = append(out, src[last:r.Offset]...)
		out = append(out, r.Text...)
		last = r.Offset + r.Length
		if last > len(src) {
			last = len(src)
		}
	}
	out = append(out, src[last:]...)
	return out
}

// alignRanges diffs the original against the formatted content line by line
// and emits one range per contiguous changed run, in original-file line
// numbers. The replacement text is what clang-format wants those lines to
// become.
func alignRanges(original, formatted string) []domain.FormatRange {
	dmp := diffmatchpatch.New()
	a, b, lineIndex := dmp.DiffLinesToChars(original, formatted)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lineIndex)

	origLines := strings.SplitAfter(original, "\n")
	if n := len(origLines); n > 0 && origLines[n-1] == "" {
		origLines = origLines[:n-1]
	}

	var ranges []domain.FormatRange
	line := 1
	i := 0
	for i < len(diffs) {
		if diffs[i].Type == diffmatchpatch.DiffEqual {
			line += countLines(diffs[i].Text)
			i++
			continue
		}

		groupStart := line
		deleted := 0
		var inserted strings.Builder
		for i < len(diffs) && diffs[i].Type != diffmatchpatch.DiffEqual {
			switch diffs[i].Type {
			case diffmatchpatch.DiffDelete:
				n := countLines(diffs[i].Text)
				deleted += n
				line += n
			case diffmatchpatch.DiffInsert:
				inserted.WriteString(diffs[i].Text)
			}
			i++
		}

		start, end := groupStart, groupStart+deleted-1
		text := inserted.String()
		if deleted == 0 {
			// A pure insertion has no original line to replace. Widen to a
			// neighboring line so the advice stays a line replacement.
			switch {
			case i < len(diffs) && diffs[i].Text != "":
				next, rest := splitFirstLine(diffs[i].Text)
				start, end = line, line
				text += next
				diffs[i].Text = rest
				line++
			case line > 1:
				start, end = line-1, line-1
				text = origLines[line-2] + text
			default:
				continue
			}
		}
		ranges = append(ranges, domain.FormatRange{
			Start:       start,
			End:         end,
			Replacement: strings.TrimSuffix(text, "\n"),
		})
	}
	return ranges
}

func countLines(text string) int {
	if text == "" {
		return 0
	}
	n := strings.Count(text, "\n")
	if !strings.HasSuffix(text, "\n") {
		n++
	}
	return n
}

func splitFirstLine(text string) (first, rest string) {
	if text == "" {
		return "", ""
	}
	if i := strings.Index(text, "\n"); i >= 0 {
		return text[:i+1], text[i+1:]
	}
	return text, ""
}
