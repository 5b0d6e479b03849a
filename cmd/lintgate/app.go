package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lintgate/lintgate/internal/adapter/cli"
	"github.com/lintgate/lintgate/internal/adapter/clang"
	"github.com/lintgate/lintgate/internal/adapter/git"
	"github.com/lintgate/lintgate/internal/adapter/github"
	"github.com/lintgate/lintgate/internal/adapter/observability"
	"github.com/lintgate/lintgate/internal/adapter/output/annotations"
	"github.com/lintgate/lintgate/internal/adapter/output/payload"
	"github.com/lintgate/lintgate/internal/adapter/output/sarif"
	"github.com/lintgate/lintgate/internal/adapter/output/summary"
	"github.com/lintgate/lintgate/internal/adapter/store/sqlite"
	"github.com/lintgate/lintgate/internal/adapter/tracking"
	"github.com/lintgate/lintgate/internal/adapter/transport"
	"github.com/lintgate/lintgate/internal/config"
	"github.com/lintgate/lintgate/internal/diff"
	"github.com/lintgate/lintgate/internal/domain"
	"github.com/lintgate/lintgate/internal/store"
	"github.com/lintgate/lintgate/internal/usecase/publish"
	"github.com/lintgate/lintgate/internal/usecase/review"
)

// app binds the loaded configuration to the command executors. Adapters
// are constructed per invocation so flag overlays can reach construction
// time settings like the clang-format style.
type app struct {
	cfg     config.Config
	version string
}

var (
	_ cli.PullReviewer   = (*app)(nil)
	_ cli.LocalChecker   = (*app)(nil)
	_ cli.HistoryBrowser = (*app)(nil)
)

func newApp(cfg config.Config, version string) *app {
	return &app{cfg: cfg, version: version}
}

func (a *app) Review(ctx context.Context, settings cli.ReviewSettings) (review.Result, error) {
	owner, repo, err := splitRepository(settings.Repository)
	if err != nil {
		return review.Result{}, err
	}

	logger := newLogger(settings.LogLevel, settings.LogFormat)
	obsLogger := observability.NewLogger(logger)
	metrics := transport.NewDefaultMetrics()

	client := a.buildClient(logger, metrics)
	gateway := &prGateway{client: client, owner: owner, repo: repo, number: settings.PullNumber}

	deps := review.Deps{
		Remote:    gateway,
		Publisher: publish.NewPublisher(gateway, obsLogger),
		Provider:  clang.NewProvider(a.toolOptions(settings.Style, settings.TidyChecks, settings.Jobs), clang.ExecRunner{}),
		Summary:   summary.NewWriter(a.cfg.Output.StepSummary),
		SARIF:     sarif.NewWriter(a.version),
		Payload:   payload.NewWriter(),
		Logger:    obsLogger,
	}
	if a.cfg.Output.Annotations {
		deps.Annotations = annotations.NewWriter(os.Stdout)
	}
	if a.cfg.GitHub.Token != "" {
		deps.Threads = tracking.NewGitHubStore(client, owner, repo, settings.PullNumber)
	}
	if journal := a.openJournal(ctx, obsLogger); journal != nil {
		defer journal.Close()
		deps.Journal = journal
	}

	req := review.Request{
		Repository:     settings.Repository,
		PullNumber:     settings.PullNumber,
		FileFilter:     a.fileFilter(settings.Extensions),
		LineFilter:     domain.LineFilter(settings.LinesChangedOnly),
		TidyReview:     settings.TidyReview,
		FormatReview:   settings.FormatReview,
		SummaryOnly:    settings.SummaryOnly,
		NoLGTM:         settings.NoLGTM,
		Passive:        settings.PassiveReviews,
		DeleteStale:    settings.DeleteReviewComments,
		ThreadComments: settings.ThreadComments,
		HasToken:       a.cfg.GitHub.Token != "",
		DryRun:         settings.DryRun,
		SARIFPath:      a.cfg.Output.SARIF,
		PayloadPath:    a.cfg.Output.Payload,
		ConfigHash:     a.configHash(settings),
	}

	result, err := review.NewOrchestrator(deps).ReviewPull(ctx, req)
	logAPIStats(ctx, obsLogger, metrics)
	return result, err
}

func (a *app) Check(ctx context.Context, settings cli.CheckSettings) (review.CheckResult, error) {
	logger := newLogger(settings.LogLevel, settings.LogFormat)
	obsLogger := observability.NewLogger(logger)

	deps := review.Deps{
		Local:    git.NewDiffer("."),
		Provider: clang.NewProvider(a.toolOptions(a.cfg.Tools.Style, a.cfg.Tools.TidyChecks, a.cfg.Tools.Jobs), clang.ExecRunner{}),
		Summary:  summary.NewWriter(a.cfg.Output.StepSummary),
		SARIF:    sarif.NewWriter(a.version),
		Logger:   obsLogger,
	}
	if a.cfg.Output.Annotations {
		deps.Annotations = annotations.NewWriter(os.Stdout)
	}
	if journal := a.openJournal(ctx, obsLogger); journal != nil {
		defer journal.Close()
		deps.Journal = journal
	}

	req := review.CheckRequest{
		Repository: a.cfg.GitHub.Repository,
		Base:       settings.Base,
		Head:       settings.Head,
		Worktree:   settings.Worktree,
		FileFilter: a.fileFilter(a.cfg.Files.Extensions),
		LineFilter: domain.LineFilter(a.cfg.Review.LinesChangedOnly),
		SARIFPath:  a.cfg.Output.SARIF,
		ConfigHash: a.configHash(settings),
	}

	return review.NewOrchestrator(deps).CheckLocal(ctx, req)
}

func (a *app) RecentRuns(ctx context.Context, limit int) ([]store.Run, error) {
	journal, err := a.requireJournal()
	if err != nil {
		return nil, err
	}
	defer journal.Close()
	return journal.ListRuns(ctx, limit)
}

func (a *app) RunDetail(ctx context.Context, runID string) (store.Run, []store.MutationRecord, error) {
	journal, err := a.requireJournal()
	if err != nil {
		return store.Run{}, nil, err
	}
	defer journal.Close()

	run, err := journal.GetRun(ctx, runID)
	if err != nil {
		return store.Run{}, nil, err
	}
	mutations, err := journal.ListMutations(ctx, runID)
	if err != nil {
		return store.Run{}, nil, err
	}
	return run, mutations, nil
}

func (a *app) buildClient(logger transport.Logger, metrics transport.Metrics) *github.Client {
	client := github.NewClient(a.cfg.GitHub.Token)
	if a.cfg.GitHub.APIURL != "" {
		client.SetBaseURL(a.cfg.GitHub.APIURL)
	}
	// Enterprise REST lives under /api/v3 but GraphQL under /api/graphql;
	// the runtime variable is authoritative when present.
	if u := os.Getenv("GITHUB_GRAPHQL_URL"); u != "" {
		client.SetGraphQLURL(u)
	}
	if d, err := time.ParseDuration(a.cfg.HTTP.Timeout); err == nil && d > 0 {
		client.SetTimeout(d)
	}
	if a.cfg.HTTP.MaxRetries >= 0 {
		client.SetMaxRetries(a.cfg.HTTP.MaxRetries)
	}
	if d, err := time.ParseDuration(a.cfg.HTTP.InitialBackoff); err == nil && d > 0 {
		client.SetInitialBackoff(d)
	}
	if d, err := time.ParseDuration(a.cfg.HTTP.MaxBackoff); err == nil && d > 0 {
		client.SetMaxBackoff(d)
	}
	if a.cfg.HTTP.BackoffMultiplier > 1 {
		client.SetBackoffMultiplier(a.cfg.HTTP.BackoffMultiplier)
	}
	client.SetLogger(logger)
	client.SetMetrics(metrics)
	return client
}

func (a *app) toolOptions(style, checks string, jobs int) clang.Options {
	return clang.Options{
		FormatBinary: a.cfg.Tools.FormatBinary,
		TidyBinary:   a.cfg.Tools.TidyBinary,
		Style:        style,
		Checks:       checks,
		BuildDir:     a.cfg.Tools.BuildDir,
		ExtraArgs:    a.cfg.Tools.ExtraArgs,
		Root:         ".",
		Jobs:         jobs,
		IgnoreFormat: a.cfg.Files.IgnoreFormat,
		IgnoreTidy:   a.cfg.Files.IgnoreTidy,
	}
}

func (a *app) fileFilter(extensions []string) diff.Filter {
	if len(extensions) == 0 {
		extensions = diff.DefaultExtensions
	}
	return diff.Filter{Extensions: extensions, Ignore: a.cfg.Files.Ignore}
}

// openJournal returns the run journal or nil when it is disabled or
// cannot be opened. Journal problems never fail a run.
func (a *app) openJournal(ctx context.Context, logger review.Logger) *sqlite.Store {
	if !a.cfg.Store.Enabled || a.cfg.Store.Path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(a.cfg.Store.Path), 0o755); err != nil {
		logger.LogWarning(ctx, "run journal directory unavailable", map[string]interface{}{
			"path":  a.cfg.Store.Path,
			"error": err.Error(),
		})
		return nil
	}
	journal, err := sqlite.NewStore(a.cfg.Store.Path)
	if err != nil {
		logger.LogWarning(ctx, "run journal unavailable", map[string]interface{}{
			"path":  a.cfg.Store.Path,
			"error": err.Error(),
		})
		return nil
	}
	return journal
}

func (a *app) requireJournal() (*sqlite.Store, error) {
	if !a.cfg.Store.Enabled || a.cfg.Store.Path == "" {
		return nil, errors.New("the run journal is disabled; set store.enabled to record runs")
	}
	return sqlite.NewStore(a.cfg.Store.Path)
}

// configHash fingerprints the effective run configuration, token
// excluded so rotation does not read as a config change.
func (a *app) configHash(settings interface{}) string {
	sanitized := a.cfg
	sanitized.GitHub.Token = ""
	hash, err := store.CalculateConfigHash(struct {
		Config   config.Config
		Settings interface{}
	}{sanitized, settings})
	if err != nil {
		return ""
	}
	return hash
}

func newLogger(level, format string) *transport.DefaultLogger {
	return transport.NewDefaultLogger(transport.ParseLogLevel(level), transport.ParseLogFormat(format))
}

func logAPIStats(ctx context.Context, logger review.Logger, metrics *transport.DefaultMetrics) {
	stats := metrics.GetStats()
	if stats.TotalCalls == 0 {
		return
	}
	logger.LogInfo(ctx, "api calls", map[string]interface{}{
		"calls":    stats.TotalCalls,
		"errors":   stats.ErrorCount,
		"duration": stats.TotalDuration.String(),
	})
}

func splitRepository(slug string) (string, string, error) {
	owner, repo, ok := strings.Cut(slug, "/")
	if !ok || owner == "" || repo == "" {
		return "", "", fmt.Errorf("repository must look like owner/repo, got %q", slug)
	}
	return owner, repo, nil
}

// prGateway binds the GitHub client to one pull request so the use case
// ports stay free of addressing.
type prGateway struct {
	client *github.Client
	owner  string
	repo   string
	number int
}

var (
	_ review.RemoteState = (*prGateway)(nil)
	_ publish.Gateway    = (*prGateway)(nil)
)

func (g *prGateway) FetchPullRequest(ctx context.Context) (domain.PullRequest, error) {
	return g.client.FetchPullRequest(ctx, g.owner, g.repo, g.number)
}

func (g *prGateway) FetchDiff(ctx context.Context) (string, error) {
	return g.client.FetchDiff(ctx, g.owner, g.repo, g.number)
}

func (g *prGateway) ListReviews(ctx context.Context) ([]domain.ExistingReview, error) {
	return g.client.ListReviews(ctx, g.owner, g.repo, g.number)
}

func (g *prGateway) ListReviewComments(ctx context.Context) ([]domain.ExistingReviewComment, error) {
	return g.client.ListReviewComments(ctx, g.owner, g.repo, g.number)
}

func (g *prGateway) SubmitReview(ctx context.Context, draft domain.ReviewDraft) (int64, error) {
	return g.client.SubmitReview(ctx, g.owner, g.repo, g.number, draft)
}

func (g *prGateway) DismissReview(ctx context.Context, reviewID int64, message string) error {
	return g.client.DismissReview(ctx, g.owner, g.repo, g.number, reviewID, message)
}

func (g *prGateway) ResolveThread(ctx context.Context, threadID string) error {
	return g.client.ResolveThread(ctx, threadID)
}

func (g *prGateway) MinimizeComment(ctx context.Context, commentID string) error {
	return g.client.MinimizeComment(ctx, commentID)
}

func (g *prGateway) DeleteComment(ctx context.Context, commentID string) error {
	return g.client.DeleteComment(ctx, g.owner, g.repo, commentID)
}
