// Package cli assembles the lintgate command tree. Commands translate
// flags into run settings and hand them to injected executors; adapter
// construction happens in the composition root, not here.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/lintgate/lintgate/internal/domain"
	"github.com/lintgate/lintgate/internal/store"
	"github.com/lintgate/lintgate/internal/usecase/review"
)

// ErrVersionRequested signals that the user asked for version information
// and no command should run.
var ErrVersionRequested = errors.New("version requested")

// ErrFindingsReported signals that a local check found problems. The
// findings were already printed; callers translate this into a nonzero
// exit without another error message.
var ErrFindingsReported = errors.New("findings reported")

// PullReviewer runs the pull request pipeline for resolved settings.
type PullReviewer interface {
	Review(ctx context.Context, settings ReviewSettings) (review.Result, error)
}

// LocalChecker analyzes local changes without touching GitHub.
type LocalChecker interface {
	Check(ctx context.Context, settings CheckSettings) (review.CheckResult, error)
}

// HistoryBrowser reads the run journal.
type HistoryBrowser interface {
	RecentRuns(ctx context.Context, limit int) ([]store.Run, error)
	RunDetail(ctx context.Context, runID string) (store.Run, []store.MutationRecord, error)
}

// ReviewSettings is the flag-over-config resolution for one review run.
type ReviewSettings struct {
	Repository string
	PullNumber int

	TidyReview           bool
	FormatReview         bool
	LinesChangedOnly     int
	PassiveReviews       bool
	NoLGTM               bool
	SummaryOnly          bool
	DeleteReviewComments bool
	ThreadComments       bool
	DryRun               bool

	Style      string
	TidyChecks string
	Jobs       int
	Extensions []string

	LogLevel  string
	LogFormat string
}

// CheckSettings is the flag-over-config resolution for one local run.
type CheckSettings struct {
	Base     string
	Head     string
	Worktree bool

	LogLevel  string
	LogFormat string
}

// Defaults seeds flag defaults from the loaded configuration, so a bare
// `lintgate review` behaves exactly as the file and environment say.
type Defaults struct {
	Repository           string
	PullNumber           int
	TidyReview           bool
	FormatReview         bool
	LinesChangedOnly     int
	PassiveReviews       bool
	NoLGTM               bool
	SummaryOnly          bool
	DeleteReviewComments bool
	ThreadComments       string
	Style                string
	TidyChecks           string
	Jobs                 int
	Extensions           []string
	LogLevel             string
	LogFormat            string
}

// Arguments holds the writers commands print to. Nil writers fall back
// to the process streams.
type Arguments struct {
	OutWriter io.Writer
	ErrWriter io.Writer
}

// Dependencies carries everything the command tree needs injected.
type Dependencies struct {
	Reviewer PullReviewer
	Checker  LocalChecker
	History  HistoryBrowser

	Defaults Defaults
	Args     Arguments
	Version  string
}

// rootOptions holds persistent flag values shared by every subcommand.
type rootOptions struct {
	logLevel  string
	logFormat string
}

// NewRootCommand builds the lintgate command tree.
func NewRootCommand(deps Dependencies) *cobra.Command {
	var versionRequested bool
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "lintgate",
		Short: "Reconcile clang-tidy and clang-format findings with pull request reviews",
		Long: `lintgate runs clang-tidy and clang-format against the files a pull
request changed and reconciles the findings with the review comments
already on the pull request: new findings become comments, fixed ones
are resolved, and stale bot reviews are dismissed. A local check mode
produces annotations, a summary, and SARIF without touching GitHub.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	out := deps.Args.OutWriter
	if out == nil {
		out = os.Stdout
	}
	errOut := deps.Args.ErrWriter
	if errOut == nil {
		errOut = os.Stderr
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)

	rootCmd.PersistentFlags().BoolVarP(&versionRequested, "version", "v", false, "Print the version and exit")
	// The config flag is consumed before the command tree is built; it is
	// registered here so parsing accepts it and help documents it.
	rootCmd.PersistentFlags().String("config", "", "Path to the configuration file")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", deps.Defaults.LogLevel, "Log level: debug, info, warn, or error")
	rootCmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", deps.Defaults.LogFormat, "Log format: human or json")

	versionHandler := func(cmd *cobra.Command, _ []string) error {
		if versionRequested {
			fmt.Fprintf(cmd.OutOrStdout(), "lintgate %s\n", deps.Version)
			return ErrVersionRequested
		}
		return nil
	}
	rootCmd.PersistentPreRunE = versionHandler
	rootCmd.PreRunE = versionHandler

	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		if err := versionHandler(cmd, args); err != nil {
			return err
		}
		return cmd.Help()
	}

	rootCmd.AddCommand(newReviewCommand(deps, opts))
	rootCmd.AddCommand(newCheckCommand(deps, opts))
	rootCmd.AddCommand(newHistoryCommand(deps))

	return rootCmd
}

func newReviewCommand(deps Dependencies, root *rootOptions) *cobra.Command {
	var (
		repository           string
		pullNumber           int
		tidyReview           bool
		formatReview         bool
		linesChangedOnly     int
		passiveReviews       bool
		noLGTM               bool
		summaryOnly          bool
		deleteReviewComments bool
		threadComments       string
		style                string
		tidyChecks           string
		jobs                 int
		extensions           []string
		dryRun               bool
	)

	cmd := &cobra.Command{
		Use:   "review",
		Short: "Analyze a pull request and reconcile its review comments",
		Long: `Review fetches the pull request diff, runs the configured tools against
the changed files, and publishes one reconciled review: new findings
become line comments, comments for fixed findings are resolved or
minimized, and superseded lintgate reviews are dismissed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if repository == "" {
				return errors.New("no repository: pass --repo or set GITHUB_REPOSITORY")
			}
			if pullNumber <= 0 {
				return errors.New("no pull request: pass --pr or run from a pull_request event")
			}

			settings := ReviewSettings{
				Repository:           repository,
				PullNumber:           pullNumber,
				TidyReview:           tidyReview,
				FormatReview:         formatReview,
				LinesChangedOnly:     resolveLinesChangedOnly(cmd, linesChangedOnly, deps.Defaults.LinesChangedOnly),
				PassiveReviews:       passiveReviews,
				NoLGTM:               noLGTM,
				SummaryOnly:          summaryOnly,
				DeleteReviewComments: deleteReviewComments,
				ThreadComments:       resolveThreadComments(cmd, threadComments, deps.Defaults.ThreadComments) == "true",
				DryRun:               dryRun,
				Style:                style,
				TidyChecks:           tidyChecks,
				Jobs:                 resolveJobs(cmd, jobs, deps.Defaults.Jobs),
				Extensions:           extensions,
				LogLevel:             root.logLevel,
				LogFormat:            root.logFormat,
			}

			result, err := deps.Reviewer.Review(cmd.Context(), settings)
			if err != nil {
				return fmt.Errorf("review failed: %w", err)
			}
			printReviewResult(cmd.OutOrStdout(), result, dryRun)
			return nil
		},
	}

	cmd.Flags().StringVar(&repository, "repo", deps.Defaults.Repository, "Repository slug (owner/repo)")
	cmd.Flags().IntVar(&pullNumber, "pr", deps.Defaults.PullNumber, "Pull request number")
	cmd.Flags().BoolVar(&tidyReview, "tidy-review", deps.Defaults.TidyReview, "Turn clang-tidy findings into review comments")
	cmd.Flags().BoolVar(&formatReview, "format-review", deps.Defaults.FormatReview, "Turn clang-format findings into review comments")
	cmd.Flags().IntVar(&linesChangedOnly, "lines-changed-only", deps.Defaults.LinesChangedOnly, "Restrict findings to the diff: 0 all lines, 1 added lines only, 2 diff lines")
	cmd.Flags().BoolVar(&passiveReviews, "passive", deps.Defaults.PassiveReviews, "Submit COMMENT reviews instead of approving or requesting changes")
	cmd.Flags().BoolVar(&noLGTM, "no-lgtm", deps.Defaults.NoLGTM, "Skip the approving review when everything is clean")
	cmd.Flags().BoolVar(&summaryOnly, "summary-only", deps.Defaults.SummaryOnly, "Fold all findings into the review body and post no line comments")
	cmd.Flags().BoolVar(&deleteReviewComments, "delete-review-comments", deps.Defaults.DeleteReviewComments, "Delete outdated comments instead of minimizing them")
	cmd.Flags().StringVar(&threadComments, "thread-comments", deps.Defaults.ThreadComments, "Maintain a sticky conversation comment: true or false")
	cmd.Flags().StringVar(&style, "style", deps.Defaults.Style, "clang-format style; empty disables format analysis")
	cmd.Flags().StringVar(&tidyChecks, "tidy-checks", deps.Defaults.TidyChecks, "clang-tidy checks glob; -* disables tidy analysis")
	cmd.Flags().IntVar(&jobs, "jobs", deps.Defaults.Jobs, "Parallel analysis workers; 0 means one per CPU")
	cmd.Flags().StringSliceVar(&extensions, "extensions", deps.Defaults.Extensions, "File extensions to analyze")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Compute and print the publish plan without mutating GitHub")

	return cmd
}

func newCheckCommand(deps Dependencies, root *rootOptions) *cobra.Command {
	var (
		base     string
		head     string
		worktree bool
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Analyze local changes without touching GitHub",
		Long: `Check diffs two local revisions (or the working tree), runs the
configured tools against the changed files, and writes annotations, the
step summary, and SARIF. Nothing is published and no token is needed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings := CheckSettings{
				Base:      base,
				Head:      head,
				Worktree:  worktree,
				LogLevel:  root.logLevel,
				LogFormat: root.logFormat,
			}

			result, err := deps.Checker.Check(cmd.Context(), settings)
			if err != nil {
				return fmt.Errorf("check failed: %w", err)
			}
			printCheckResult(cmd.OutOrStdout(), result, review.IsOutputTerminal())
			if result.Verdict == review.VerdictFindings {
				return ErrFindingsReported
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&base, "base", "main", "Base revision to diff against")
	cmd.Flags().StringVar(&head, "head", "HEAD", "Head revision to analyze")
	cmd.Flags().BoolVar(&worktree, "worktree", false, "Diff the working tree against base instead of head")

	return cmd
}

func newHistoryCommand(deps Dependencies) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "List recent runs from the journal",
		Long: `History lists recent runs recorded in the local journal. Pass a run id
to see one run in full, including every remote mutation it attempted.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				run, mutations, err := deps.History.RunDetail(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("loading run %s: %w", args[0], err)
				}
				printRunDetail(cmd.OutOrStdout(), run, mutations)
				return nil
			}

			runs, err := deps.History.RecentRuns(cmd.Context(), resolveLimit(cmd, limit, 20))
			if err != nil {
				return fmt.Errorf("listing runs: %w", err)
			}
			printRuns(cmd.OutOrStdout(), runs)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to list")

	return cmd
}

// resolveLinesChangedOnly validates the flag and falls back to the
// configured default when the value is out of range.
func resolveLinesChangedOnly(cmd *cobra.Command, cliValue, configDefault int) int {
	if !cmd.Flags().Changed("lines-changed-only") {
		return configDefault
	}
	if cliValue < 0 || cliValue > 2 {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: lines-changed-only must be 0, 1, or 2; using %d\n", configDefault)
		return configDefault
	}
	return cliValue
}

// resolveThreadComments validates the flag and falls back to the
// configured default when the value is not true or false.
func resolveThreadComments(cmd *cobra.Command, cliValue, configDefault string) string {
	if !cmd.Flags().Changed("thread-comments") {
		return configDefault
	}
	switch strings.ToLower(cliValue) {
	case "true", "false":
		return strings.ToLower(cliValue)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "warning: thread-comments must be true or false; using %q\n", configDefault)
	return configDefault
}

// resolveJobs rejects negative worker counts.
func resolveJobs(cmd *cobra.Command, cliValue, configDefault int) int {
	if !cmd.Flags().Changed("jobs") {
		return configDefault
	}
	if cliValue < 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: jobs cannot be negative; using %d\n", configDefault)
		return configDefault
	}
	return cliValue
}

// resolveLimit rejects non-positive listing limits.
func resolveLimit(cmd *cobra.Command, cliValue, fallback int) int {
	if cliValue <= 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: limit must be positive; using %d\n", fallback)
		return fallback
	}
	return cliValue
}

func printReviewResult(w io.Writer, result review.Result, dryRun bool) {
	fmt.Fprintf(w, "verdict: %s (%d clang-tidy findings, %d clang-format ranges)\n",
		result.Verdict, result.Totals.TidyFindings, result.Totals.FormatRanges)

	if dryRun {
		printPlan(w, result.Plan)
		return
	}

	if result.Submitted {
		fmt.Fprintf(w, "submitted %s review %d with %d line comments\n",
			result.Verdict, result.ReviewID, result.Outcome.Comments)
	} else {
		fmt.Fprintln(w, "no review submitted")
	}
	if n := result.Outcome.Dismissed; n > 0 {
		fmt.Fprintf(w, "dismissed %d stale reviews\n", n)
	}
	if n := result.Outcome.Resolved; n > 0 {
		fmt.Fprintf(w, "resolved %d threads\n", n)
	}
	if n := result.Outcome.Minimized; n > 0 {
		fmt.Fprintf(w, "minimized %d outdated comments\n", n)
	}
	if n := result.Outcome.Deleted; n > 0 {
		fmt.Fprintf(w, "deleted %d outdated comments\n", n)
	}
	if result.RunID != "" {
		fmt.Fprintf(w, "run recorded as %s\n", result.RunID)
	}
}

func printPlan(w io.Writer, plan domain.PublishPlan) {
	if plan.MutationCount() == 0 {
		fmt.Fprintln(w, "dry run: nothing to publish")
		return
	}
	fmt.Fprintf(w, "dry run: %d pending mutations\n", plan.MutationCount())
	if plan.Review != nil {
		fmt.Fprintf(w, "  submit a %s review with %d line comments\n",
			plan.Review.Event, len(plan.Review.Comments))
	}
	for _, id := range plan.DismissReviews {
		fmt.Fprintf(w, "  dismiss review %d\n", id)
	}
	for _, id := range plan.ResolveThreads {
		fmt.Fprintf(w, "  resolve thread %s\n", id)
	}
	for _, id := range plan.MinimizeComments {
		fmt.Fprintf(w, "  minimize comment %s\n", id)
	}
	for _, id := range plan.DeleteComments {
		fmt.Fprintf(w, "  delete comment %s\n", id)
	}
}

func printCheckResult(w io.Writer, result review.CheckResult, listFindings bool) {
	fmt.Fprintf(w, "verdict: %s (%d clang-tidy findings, %d clang-format ranges)\n",
		result.Verdict, result.Totals.TidyFindings, result.Totals.FormatRanges)

	if listFindings {
		for _, file := range result.Files {
			if len(file.Tidy) == 0 && (file.Format == nil || len(file.Format.Ranges) == 0) {
				continue
			}
			fmt.Fprintln(w, file.Path)
			for _, d := range file.Tidy {
				fmt.Fprintf(w, "  %d:%d %s [%s]\n", d.Line, d.Column, d.Message, d.Check)
			}
			if file.Format != nil {
				for _, r := range file.Format.Ranges {
					if r.Start == r.End {
						fmt.Fprintf(w, "  %d formatting does not match the configured style\n", r.Start)
					} else {
						fmt.Fprintf(w, "  %d-%d formatting does not match the configured style\n", r.Start, r.End)
					}
				}
			}
		}
	}

	if result.RunID != "" {
		fmt.Fprintf(w, "run recorded as %s\n", result.RunID)
	}
}

func printRuns(w io.Writer, runs []store.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "no recorded runs")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tWHEN\tMODE\tTARGET\tVERDICT\tFINDINGS\tMUTATIONS")
	for _, run := range runs {
		target := run.Repository
		if run.PullNumber > 0 {
			target = fmt.Sprintf("%s#%d", run.Repository, run.PullNumber)
		}
		findings := run.Outcome.TidyFindings + run.Outcome.FormatFindings
		mutations := run.Outcome.Comments + run.Outcome.Dismissed +
			run.Outcome.Resolved + run.Outcome.Minimized + run.Outcome.Deleted
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%d\n",
			run.RunID,
			run.Timestamp.Local().Format("2006-01-02 15:04"),
			run.Mode,
			target,
			run.Outcome.Verdict,
			findings,
			mutations,
		)
	}
	tw.Flush()
}

func printRunDetail(w io.Writer, run store.Run, mutations []store.MutationRecord) {
	fmt.Fprintf(w, "run %s\n", run.RunID)
	fmt.Fprintf(w, "  started     %s\n", run.Timestamp.Local().Format(time.RFC1123))
	fmt.Fprintf(w, "  mode        %s\n", run.Mode)
	if run.Repository != "" {
		target := run.Repository
		if run.PullNumber > 0 {
			target = fmt.Sprintf("%s#%d", run.Repository, run.PullNumber)
		}
		fmt.Fprintf(w, "  target      %s\n", target)
	}
	if run.HeadSHA != "" {
		fmt.Fprintf(w, "  head        %s\n", run.HeadSHA)
	}
	fmt.Fprintf(w, "  verdict     %s\n", run.Outcome.Verdict)
	fmt.Fprintf(w, "  findings    %d clang-tidy, %d clang-format\n",
		run.Outcome.TidyFindings, run.Outcome.FormatFindings)

	if len(mutations) == 0 {
		fmt.Fprintln(w, "  no recorded mutations")
		return
	}
	fmt.Fprintln(w, "  mutations")
	for _, m := range mutations {
		status := "ok"
		if !m.OK {
			status = "failed: " + m.Error
		}
		fmt.Fprintf(w, "    %-18s %-28s %s\n", m.Kind, m.Target, status)
	}
}
