package clang

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/lintgate/lintgate/internal/domain"
)

// tidyLine matches one diagnostic line of clang-tidy's stdout. The trailing
// check name in brackets is absent on plain compiler diagnostics.
var tidyLine = regexp.MustCompile(`^(.+?):(\d+):(\d+): (note|warning|error): (.*?)(?: \[([^\]]+)\])?$`)

// tidyFixesFile mirrors the YAML document written by --export-fixes.
type tidyFixesFile struct {
	Diagnostics []tidyFixDiagnostic `yaml:"Diagnostics"`
}

type tidyFixDiagnostic struct {
	Name    string         `yaml:"DiagnosticName"`
	Message tidyFixMessage `yaml:"DiagnosticMessage"`
}

type tidyFixMessage struct {
	Message      string           `yaml:"Message"`
	FilePath     string           `yaml:"FilePath"`
	FileOffset   int              `yaml:"FileOffset"`
	Replacements []tidyFixReplace `yaml:"Replacements"`
}

type tidyFixReplace struct {
	FilePath string `yaml:"FilePath"`
	Offset   int    `yaml:"Offset"`
	Length   int    `yaml:"Length"`
	Text     string `yaml:"ReplacementText"`
}

// tidyFile runs clang-tidy on one file and parses its diagnostics. Exported
// fixes are folded back in as single-line replacement text where possible.
// Exit code 1 means findings, not failure.
func tidyFile(ctx context.Context, runner Runner, binary, checks, buildDir, root, path string, extra []string) ([]domain.TidyDiagnostic, error) {
	fixes, err := os.CreateTemp("", "lintgate-fixes-*.yaml")
	if err != nil {
		return nil, fmt.Errorf("creating fixes file: %w", err)
	}
	fixesPath := fixes.Name()
	fixes.Close()
	defer os.Remove(fixesPath)

	args := []string{"--quiet", "--export-fixes=" + fixesPath}
	if checks != "" {
		args = append(args, "--checks="+checks)
	}
	if buildDir != "" {
		args = append(args, "-p", buildDir)
	}
	args = append(args, extra...)
	args = append(args, path)

	result, err := runner.Run(ctx, root, binary, args...)
	if err != nil {
		return nil, err
	}
	if result.ExitCode > 1 {
		return nil, fmt.Errorf("%s exited %d on %s: %s",
			binary, result.ExitCode, path, strings.TrimSpace(string(result.Stderr)))
	}

	diags := parseTidyOutput(result.Stdout, root, path)
	if len(diags) == 0 {
		return nil, nil
	}
	attachFixes(diags, fixesPath, root, path)
	return diags, nil
}

// parseTidyOutput keeps warnings and errors reported against the analyzed
// file itself. Notes and diagnostics in other files (headers pulled in by the
// translation unit) are dropped.
func parseTidyOutput(out []byte, root, path string) []domain.TidyDiagnostic {
	var diags []domain.TidyDiagnostic
	sc := bufio.NewScanner(bytes.NewReader(out))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		m := tidyLine.FindStringSubmatch(sc.Text())
		if m == nil {
			continue
		}
		severity := domain.Severity(m[4])
		if severity == domain.SeverityNote {
			continue
		}
		if !samePath(root, path, m[1]) {
			continue
		}
		line, _ := strconv.Atoi(m[2])
		col, _ := strconv.Atoi(m[3])
		diags = append(diags, domain.TidyDiagnostic{
			Path:     path,
			Line:     line,
			Column:   col,
			Severity: severity,
			Check:    m[6],
			Message:  m[5],
		})
	}
	return diags
}

// samePath reports whether a path printed by the tool refers to the analyzed
// file. Tools print paths as given or absolute depending on the compilation
// database.
func samePath(root, path, reported string) bool {
	want := filepath.Clean(filepath.Join(root, path))
	got := filepath.Clean(reported)
	if !filepath.IsAbs(got) {
		got = filepath.Clean(filepath.Join(root, got))
	}
	if got == want {
		return true
	}
	abs, err := filepath.Abs(want)
	return err == nil && got == abs
}

// attachFixes reads the exported fixes file and copies single-line
// replacement text onto matching diagnostics. Fixes that span lines or touch
// other files are left off; parse trouble just means no fix text.
func attachFixes(diags []domain.TidyDiagnostic, fixesPath, root, path string) {
	raw, err := os.ReadFile(fixesPath)
	if err != nil || len(bytes.TrimSpace(raw)) == 0 {
		return
	}
	var file tidyFixesFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return
	}
	src, err := os.ReadFile(filepath.Join(root, path))
	if err != nil {
		return
	}
	starts := lineStarts(src)

	for _, fix := range file.Diagnostics {
		if !samePath(root, path, fix.Message.FilePath) {
			continue
		}
		fixed, line, ok := applyLineFix(src, starts, fix.Message.Replacements, root, path)
		if !ok {
			continue
		}
		for i := range diags {
			if diags[i].Check == fix.Name && diags[i].Line == line && diags[i].Fix == "" {
				diags[i].Fix = fixed
				break
			}
		}
	}
}

// applyLineFix applies a diagnostic's replacements when they all land on one
// line of the analyzed file, returning the fixed line text and its number.
func applyLineFix(src []byte, starts []int, reps []tidyFixReplace, root, path string) (string, int, bool) {
	if len(reps) == 0 {
		return "", 0, false
	}
	line := 0
	for _, r := range reps {
		if !samePath(root, path, r.FilePath) || strings.Contains(r.Text, "\n") {
			return "", 0, false
		}
		l := offsetToLine(starts, r.Offset)
		if r.Length > 0 && offsetToLine(starts, r.Offset+r.Length-1) != l {
			return "", 0, false
		}
		if line == 0 {
			line = l
		} else if l != line {
			return "", 0, false
		}
	}

	lineStart := starts[line-1]
	lineEnd := len(src)
	if line < len(starts) {
		lineEnd = starts[line]
	}
	text := strings.TrimRight(string(src[lineStart:lineEnd]), "\r\n")

	sorted := make([]tidyFixReplace, len(reps))
	copy(sorted, reps)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Offset > sorted[j].Offset })
	for _, r := range sorted {
		a := r.Offset - lineStart
		b := a + r.Length
		if a < 0 || b > len(text) {
			return "", 0, false
		}
		text = text[:a] + r.Text + text[b:]
	}
	return text, line, true
}

func lineStarts(src []byte) []int {
	starts := []int{0}
	for i, b := range src {
		if b == '\n' && i+1 < len(src) {
			starts = append(starts, i+1)
		}
	}
	return starts
}

// offsetToLine maps a byte offset to its 1-based line number.
func offsetToLine(starts []int, off int) int {
	return sort.Search(len(starts), func(i int) bool { return starts[i] > off })
}
