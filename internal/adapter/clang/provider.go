// Package clang runs the clang-format and clang-tidy binaries against
// changed files and converts their output into per-file advice.
package clang

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/lintgate/lintgate/internal/diff"
	"github.com/lintgate/lintgate/internal/domain"
	"github.com/lintgate/lintgate/internal/usecase/review"
)

// Options selects the tools and their invocation flags.
type Options struct {
	// FormatBinary and TidyBinary name the executables, resolved through
	// PATH when not absolute.
	FormatBinary string
	TidyBinary   string

	// Style is clang-format's --style value. Empty disables clang-format.
	Style string

	// Checks is clang-tidy's --checks value. "-*" disables clang-tidy;
	// empty defers to the project's .clang-tidy file.
	Checks string

	// BuildDir points at a compilation database for clang-tidy.
	BuildDir string

	// ExtraArgs are appended as compiler arguments for clang-tidy, one
	// --extra-arg per entry.
	ExtraArgs []string

	// Root is the directory file paths are relative to.
	Root string

	// Jobs caps how many files are analyzed concurrently. Zero or less
	// means one per available CPU.
	Jobs int

	// IgnoreFormat and IgnoreTidy exclude paths from one tool without
	// excluding them from the run.
	IgnoreFormat []string
	IgnoreTidy   []string
}

func (o Options) formatEnabled() bool { return o.Style != "" }
func (o Options) tidyEnabled() bool   { return o.Checks != "-*" }

// Provider analyzes files with both tools, a worker per file up to Jobs.
type Provider struct {
	opts        Options
	runner      Runner
	formatScope diff.Filter
	tidyScope   diff.Filter
	extraArgs   []string
}

var _ review.AdviceProvider = (*Provider)(nil)

// NewProvider fills in option defaults. A nil runner gets ExecRunner.
func NewProvider(opts Options, runner Runner) *Provider {
	if opts.FormatBinary == "" {
		opts.FormatBinary = "clang-format"
	}
	if opts.TidyBinary == "" {
		opts.TidyBinary = "clang-tidy"
	}
	if opts.Root == "" {
		opts.Root = "."
	}
	if opts.Jobs <= 0 {
		opts.Jobs = runtime.GOMAXPROCS(0)
	}
	if runner == nil {
		runner = ExecRunner{}
	}

	extra := make([]string, 0, len(opts.ExtraArgs))
	for _, arg := range opts.ExtraArgs {
		extra = append(extra, "--extra-arg="+arg)
	}

	return &Provider{
		opts:        opts,
		runner:      runner,
		formatScope: diff.Filter{Ignore: opts.IgnoreFormat},
		tidyScope:   diff.Filter{Ignore: opts.IgnoreTidy},
		extraArgs:   extra,
	}
}

// Analyze runs the enabled tools over every file and returns copies with
// advice attached. The input slice is not modified.
func (p *Provider) Analyze(ctx context.Context, files []domain.ChangedFile) ([]domain.ChangedFile, error) {
	if len(files) == 0 {
		return []domain.ChangedFile{}, nil
	}

	out := make([]domain.ChangedFile, len(files))
	errs := make([]error, len(files))

	sem := make(chan struct{}, p.opts.Jobs)
	var wg sync.WaitGroup

	for i, file := range files {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		wg.Add(1)
		go func(idx int, f domain.ChangedFile) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			if ctx.Err() != nil {
				errs[idx] = ctx.Err()
				return
			}

			out[idx], errs[idx] = p.analyzeFile(ctx, f)
		}(i, file)
	}

	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("analyzing %s: %w", files[i].Path, err)
		}
	}
	return out, nil
}

func (p *Provider) analyzeFile(ctx context.Context, file domain.ChangedFile) (domain.ChangedFile, error) {
	if p.opts.formatEnabled() && p.formatScope.Accepts(file.Path) {
		advice, err := formatFile(ctx, p.runner, p.opts.FormatBinary, p.opts.Style, p.opts.Root, file.Path)
		if err != nil {
			return file, err
		}
		file.Format = advice
	}
	if p.opts.tidyEnabled() && p.tidyScope.Accepts(file.Path) {
		diags, err := tidyFile(ctx, p.runner, p.opts.TidyBinary, p.opts.Checks, p.opts.BuildDir, p.opts.Root, file.Path, p.extraArgs)
		if err != nil {
			return file, err
		}
		file.Tidy = diags
	}
	return file, nil
}
