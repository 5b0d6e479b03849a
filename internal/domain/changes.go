package domain

import "sort"

// ChangeKind classifies how a diff chunk altered its line range.
type ChangeKind string

const (
	ChangeAdded    ChangeKind = "added"
	ChangeModified ChangeKind = "modified"
)

// LineFilter selects which lines advice may be surfaced on.
type LineFilter int

const (
	// LinesAll surfaces advice on any line of a changed file.
	LinesAll LineFilter = 0
	// LinesAdded restricts advice to lines added by the change.
	LinesAdded LineFilter = 1
	// LinesDiff restricts advice to lines covered by a diff chunk.
	LinesDiff LineFilter = 2
)

// DiffChunk is one hunk's range in new-file numbering.
type DiffChunk struct {
	Start int
	Lines int
	Kind  ChangeKind
}

// End returns the last line covered by the chunk.
func (c DiffChunk) End() int {
	if c.Lines <= 0 {
		return c.Start
	}
	return c.Start + c.Lines - 1
}

// Contains reports whether line falls inside the chunk.
func (c DiffChunk) Contains(line int) bool {
	return line >= c.Start && line <= c.End()
}

// ChangedFile is one touched file with its diff context and any advice the
// tools attached. Built once per run; not mutated afterwards.
type ChangedFile struct {
	Path   string
	Patch  string
	Chunks []DiffChunk
	// Added lists the individual added line numbers, sorted ascending.
	// Chunk granularity cannot express this, and the added-lines filter
	// mode needs it.
	Added []int

	Format *FormatAdvice
	Tidy   []TidyDiagnostic
}

// InDiff reports whether line is covered by any diff chunk.
func (f ChangedFile) InDiff(line int) bool {
	for _, c := range f.Chunks {
		if c.Contains(line) {
			return true
		}
	}
	return false
}

// IsAdded reports whether line was added by this change.
func (f ChangedFile) IsAdded(line int) bool {
	i := sort.SearchInts(f.Added, line)
	return i < len(f.Added) && f.Added[i] == line
}

// InScope reports whether line passes the given filter mode.
func (f ChangedFile) InScope(line int, filter LineFilter) bool {
	switch filter {
	case LinesAdded:
		return f.IsAdded(line)
	case LinesDiff:
		return f.InDiff(line)
	default:
		return true
	}
}

// HasAdvice reports whether any tool attached advice to the file.
func (f ChangedFile) HasAdvice() bool {
	return (f.Format != nil && len(f.Format.Ranges) > 0) || len(f.Tidy) > 0
}
