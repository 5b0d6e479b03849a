package domain

// Tool identifies which analysis tool produced a piece of advice. The values
// appear verbatim in review bodies and annotations.
type Tool string

const (
	ToolClangFormat Tool = "clang-format"
	ToolClangTidy   Tool = "clang-tidy"
)

// Severity grades a tidy diagnostic.
type Severity string

const (
	SeverityNote    Severity = "note"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// FormatRange is a run of consecutive lines whose content differs from the
// clang-format output, with the formatted replacement attached.
type FormatRange struct {
	Start       int
	End         int
	Replacement string
}

// SingleLine reports whether the range covers exactly one line, which is the
// only shape a review suggestion block can replace.
func (r FormatRange) SingleLine() bool {
	return r.Start == r.End
}

// FormatAdvice holds the clang-format findings for one file.
// Ranges are sorted ascending and non-overlapping.
type FormatAdvice struct {
	Ranges []FormatRange
}

// TidyDiagnostic is one clang-tidy finding.
type TidyDiagnostic struct {
	Path     string
	Line     int
	Column   int
	Severity Severity
	Check    string
	Message  string
	// Fix carries the replacement text for single-line fixes exported by
	// clang-tidy; empty when no usable fix exists.
	Fix string
}

// AdviceTotals aggregates finding counts across files.
type AdviceTotals struct {
	FormatFiles  int
	FormatRanges int
	TidyFiles    int
	TidyFindings int
}

// Totals counts advice across the given files.
func Totals(files []ChangedFile) AdviceTotals {
	var t AdviceTotals
	for _, f := range files {
		if f.Format != nil && len(f.Format.Ranges) > 0 {
			t.FormatFiles++
			t.FormatRanges += len(f.Format.Ranges)
		}
		if len(f.Tidy) > 0 {
			t.TidyFiles++
			t.TidyFindings += len(f.Tidy)
		}
	}
	return t
}

// Empty reports whether no findings remain.
func (t AdviceTotals) Empty() bool {
	return t.FormatRanges == 0 && t.TidyFindings == 0
}
