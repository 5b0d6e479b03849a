package review

import (
	"strings"
	"testing"

	"github.com/lintgate/lintgate/internal/domain"
)

func TestBuildCandidates_EveryCommentCarriesItsToolMarker(t *testing.T) {
	files := []domain.ChangedFile{
		fileWithFormat("src/a.cpp", domain.FormatRange{Start: 3, End: 3, Replacement: "int x = 1;"}),
		fileWithTidy("src/b.cpp", domain.TidyDiagnostic{
			Path: "src/b.cpp", Line: 7, Severity: domain.SeverityWarning,
			Check: "modernize-use-nullptr", Message: "use nullptr",
		}),
	}

	set := BuildCandidates(files)

	if len(set.Comments) != 2 {
		t.Fatalf("expected 2 comments, got %d", len(set.Comments))
	}
	for _, c := range set.Comments {
		if !strings.HasPrefix(c.Body, domain.ToolMarker(c.Tool)) {
			t.Errorf("comment at %s:%d missing marker for %s:\n%s", c.Path, c.Line, c.Tool, c.Body)
		}
		if got, ok := domain.CommentTool(c.Body); !ok || got != c.Tool {
			t.Errorf("marker round-trip failed for %s:%d, got %q ok=%v", c.Path, c.Line, got, ok)
		}
	}
}

func TestBuildCandidates_SameLineFindingsMergeIntoOneComment(t *testing.T) {
	files := []domain.ChangedFile{
		fileWithTidy("src/a.cpp",
			domain.TidyDiagnostic{Path: "src/a.cpp", Line: 5, Severity: domain.SeverityWarning, Check: "check-one", Message: "first problem"},
			domain.TidyDiagnostic{Path: "src/a.cpp", Line: 5, Severity: domain.SeverityError, Check: "check-two", Message: "second problem"},
		),
	}

	set := BuildCandidates(files)

	if len(set.Comments) != 1 {
		t.Fatalf("expected both diagnostics merged into one comment, got %d", len(set.Comments))
	}
	body := set.Comments[0].Body
	if !strings.Contains(body, "first problem") || !strings.Contains(body, "second problem") {
		t.Errorf("merged body missing a diagnostic:\n%s", body)
	}
	if strings.Count(body, domain.ToolMarker(domain.ToolClangTidy)) != 1 {
		t.Errorf("merged body must carry exactly one marker:\n%s", body)
	}
}

func TestBuildCandidates_DeterministicOrder(t *testing.T) {
	af := fileWithTidy("src/a.cpp",
		domain.TidyDiagnostic{Path: "src/a.cpp", Line: 9, Severity: domain.SeverityWarning, Check: "c", Message: "later line"},
		domain.TidyDiagnostic{Path: "src/a.cpp", Line: 2, Severity: domain.SeverityWarning, Check: "c", Message: "earlier line"},
	)
	af.Format = &domain.FormatAdvice{Ranges: []domain.FormatRange{{Start: 9, End: 9, Replacement: "x"}}}
	files := []domain.ChangedFile{af, fileWithTidy("src/b.cpp",
		domain.TidyDiagnostic{Path: "src/b.cpp", Line: 1, Severity: domain.SeverityWarning, Check: "c", Message: "other file"},
	)}

	set := BuildCandidates(files)

	want := []struct {
		path string
		line int
		tool domain.Tool
	}{
		{"src/a.cpp", 2, domain.ToolClangTidy},
		{"src/a.cpp", 9, domain.ToolClangFormat},
		{"src/a.cpp", 9, domain.ToolClangTidy},
		{"src/b.cpp", 1, domain.ToolClangTidy},
	}
	if len(set.Comments) != len(want) {
		t.Fatalf("expected %d comments, got %d", len(want), len(set.Comments))
	}
	for i, w := range want {
		c := set.Comments[i]
		if c.Path != w.path || c.Line != w.line || c.Tool != w.tool {
			t.Errorf("comment %d: expected %s:%d %s, got %s:%d %s",
				i, w.path, w.line, w.tool, c.Path, c.Line, c.Tool)
		}
	}
}

func TestBuildCandidates_SingleLineFormatBecomesSuggestion(t *testing.T) {
	files := []domain.ChangedFile{
		fileWithFormat("src/a.cpp", domain.FormatRange{Start: 3, End: 3, Replacement: "int x = 1;"}),
	}

	set := BuildCandidates(files)

	body := set.Comments[0].Body
	if !strings.Contains(body, "```suggestion\nint x = 1;\n```") {
		t.Errorf("expected a committable suggestion block:\n%s", body)
	}
}

func TestBuildCandidates_MultiLineFormatShowsPlainFence(t *testing.T) {
	files := []domain.ChangedFile{
		fileWithFormat("src/a.cpp", domain.FormatRange{Start: 3, End: 6, Replacement: "void f() {\n  g();\n}"}),
	}

	set := BuildCandidates(files)

	body := set.Comments[0].Body
	if strings.Contains(body, "```suggestion") {
		t.Errorf("multi-line ranges cannot be suggestions:\n%s", body)
	}
	if !strings.Contains(body, "lines 3-6") {
		t.Errorf("expected the range bounds called out:\n%s", body)
	}
}

func TestBuildCandidates_TidyFixBecomesSuggestion(t *testing.T) {
	files := []domain.ChangedFile{
		fileWithTidy("src/a.cpp", domain.TidyDiagnostic{
			Path: "src/a.cpp", Line: 5, Severity: domain.SeverityWarning,
			Check: "modernize-use-nullptr", Message: "use nullptr",
			Fix: "int *p = nullptr;",
		}),
	}

	set := BuildCandidates(files)

	body := set.Comments[0].Body
	if !strings.Contains(body, "[modernize-use-nullptr]") {
		t.Errorf("expected the check name in brackets:\n%s", body)
	}
	if !strings.Contains(body, "```suggestion\nint *p = nullptr;\n```") {
		t.Errorf("expected the fix as a suggestion:\n%s", body)
	}
}

func TestBuildCandidates_OutOfDiffAdviceCountsAsUnfit(t *testing.T) {
	f := fileWithTidy("src/a.cpp",
		domain.TidyDiagnostic{Path: "src/a.cpp", Line: 5, Severity: domain.SeverityWarning, Check: "c", Message: "in diff"},
		domain.TidyDiagnostic{Path: "src/a.cpp", Line: 300, Severity: domain.SeverityWarning, Check: "c", Message: "out of diff"},
	)
	f.Format = &domain.FormatAdvice{Ranges: []domain.FormatRange{{Start: 250, End: 251, Replacement: "x"}}}
	files := []domain.ChangedFile{f}

	set := BuildCandidates(files)

	if len(set.Comments) != 1 {
		t.Fatalf("only in-diff advice becomes a comment, got %d", len(set.Comments))
	}
	if set.Comments[0].Line != 5 {
		t.Errorf("expected the in-diff comment at line 5, got %d", set.Comments[0].Line)
	}
	if got := set.Fit[domain.ToolClangTidy]; got.Fit != 1 || got.Total != 2 {
		t.Errorf("tidy fit = %d/%d, expected 1/2", got.Fit, got.Total)
	}
	if got := set.Fit[domain.ToolClangFormat]; got.Fit != 0 || got.Total != 1 {
		t.Errorf("format fit = %d/%d, expected 0/1", got.Fit, got.Total)
	}
}
