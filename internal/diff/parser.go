package diff

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/lintgate/lintgate/internal/domain"
)

// ParseError reports a malformed hunk header. Line filtering cannot be
// trusted past one, so callers abort the run.
type ParseError struct {
	LineNo int
	Line   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("diff line %d: %s: %q", e.LineNo, e.Reason, e.Line)
}

// hunkHeaderPattern matches "@@ -old[,count] +new[,count] @@ ...".
var hunkHeaderPattern = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@`)

// fileState accumulates one "diff --git" section while scanning.
type fileState struct {
	path    string
	patch   []string
	chunks  []domain.DiffChunk
	added   []int
	rename  bool
	deleted bool
	binary  bool
}

// Parse splits raw unified-diff text into one ChangedFile per touched path
// accepted by the filter. Renamed, deleted, and binary files are excluded.
func Parse(raw string, filter Filter) ([]domain.ChangedFile, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	var (
		files   []domain.ChangedFile
		current *fileState
		newLine int
	)

	flush := func() {
		if current == nil {
			return
		}
		if !current.rename && !current.deleted && !current.binary && filter.Accepts(current.path) {
			files = append(files, domain.ChangedFile{
				Path:   current.path,
				Patch:  strings.Join(current.patch, "\n"),
				Chunks: current.chunks,
				Added:  current.added,
			})
		}
		current = nil
	}

	for i, line := range strings.Split(raw, "\n") {
		lineNo := i + 1

		if strings.HasPrefix(line, "diff --git ") {
			flush()
			current = &fileState{path: newFilePath(line)}
			current.patch = append(current.patch, line)
			continue
		}
		if current == nil {
			// Preamble before the first file section is ignored.
			continue
		}
		current.patch = append(current.patch, line)

		switch {
		case strings.HasPrefix(line, "rename from "), strings.HasPrefix(line, "rename to "):
			current.rename = true
			continue
		case strings.HasPrefix(line, "deleted file mode "):
			current.deleted = true
			continue
		case strings.HasPrefix(line, "Binary files "), strings.HasPrefix(line, "GIT binary patch"):
			current.binary = true
			continue
		case strings.HasPrefix(line, "+++ "):
			if strings.TrimSpace(strings.TrimPrefix(line, "+++ ")) == "/dev/null" {
				current.deleted = true
			}
			continue
		case strings.HasPrefix(line, "--- "),
			strings.HasPrefix(line, "index "),
			strings.HasPrefix(line, "similarity index "),
			strings.HasPrefix(line, "new file mode "),
			strings.HasPrefix(line, "old mode "),
			strings.HasPrefix(line, "new mode "):
			continue
		}

		if strings.HasPrefix(line, "@@") {
			m := hunkHeaderPattern.FindStringSubmatch(line)
			if m == nil {
				return nil, &ParseError{LineNo: lineNo, Line: line, Reason: "malformed hunk header"}
			}
			oldLines := atoiDefault(m[2], 1)
			newStart, _ := strconv.Atoi(m[3])
			newLines := atoiDefault(m[4], 1)

			kind := domain.ChangeModified
			if oldLines == 0 {
				kind = domain.ChangeAdded
			}
			current.chunks = append(current.chunks, domain.DiffChunk{
				Start: newStart,
				Lines: newLines,
				Kind:  kind,
			})
			newLine = newStart
			continue
		}

		if len(current.chunks) == 0 {
			continue
		}

		// Hunk body. Unknown prefixes are treated as context, matching
		// what git tolerates.
		switch {
		case strings.HasPrefix(line, "+"):
			current.added = append(current.added, newLine)
			newLine++
		case strings.HasPrefix(line, "-"), strings.HasPrefix(line, "\\"):
			// Deletions and end-of-file markers have no new-side line.
		default:
			newLine++
		}
	}
	flush()

	return files, nil
}

// newFilePath extracts the post-change path from a "diff --git a/X b/Y" line.
func newFilePath(line string) string {
	rest := strings.TrimPrefix(line, "diff --git ")
	if i := strings.Index(rest, " b/"); i >= 0 {
		return unquotePath(rest[i+3:])
	}
	// Quoted paths with spaces: take the last space-separated field.
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return ""
	}
	return unquotePath(strings.TrimPrefix(fields[len(fields)-1], "b/"))
}

func unquotePath(p string) string {
	p = strings.TrimSpace(p)
	if strings.HasPrefix(p, `"`) {
		if unquoted, err := strconv.Unquote(p); err == nil {
			return strings.TrimPrefix(unquoted, "b/")
		}
	}
	return p
}

func atoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, _ := strconv.Atoi(s)
	return n
}
