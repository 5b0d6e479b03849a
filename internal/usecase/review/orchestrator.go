// Package review drives a lintgate run end to end: fetch the pull
// request and its diff, run the clang tools over the changed files,
// reconcile the resulting advice against the comments already on the
// pull request, and hand the mutation plan to the publisher.
//
// The orchestrator owns sequencing and bookkeeping only. Tool
// execution, remote access, and output rendering live behind the port
// interfaces declared here so the use case stays testable without a
// network or a toolchain.
package review

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/lintgate/lintgate/internal/diff"
	"github.com/lintgate/lintgate/internal/domain"
	"github.com/lintgate/lintgate/internal/store"
	"github.com/lintgate/lintgate/internal/usecase/publish"
)

// RemoteState reads pull request state from the code host. All four
// reads happen before any mutation is planned.
type RemoteState interface {
	FetchPullRequest(ctx context.Context) (domain.PullRequest, error)
	FetchDiff(ctx context.Context) (string, error)
	ListReviews(ctx context.Context) ([]domain.ExistingReview, error)
	ListReviewComments(ctx context.Context) ([]domain.ExistingReviewComment, error)
}

// Publisher executes a mutation plan against the code host.
type Publisher interface {
	Execute(ctx context.Context, req publish.Request) (*publish.Result, error)
}

// AdviceProvider runs the analysis tools over the changed files and
// returns the same files annotated with format and tidy advice.
type AdviceProvider interface {
	Analyze(ctx context.Context, files []domain.ChangedFile) ([]domain.ChangedFile, error)
}

// LocalDiffer produces a unified diff between two local revisions.
// When worktree is set the head side is the working tree instead of a
// committed revision.
type LocalDiffer interface {
	Diff(ctx context.Context, base, head string, worktree bool) (string, error)
}

// AnnotationWriter emits one workflow annotation per finding.
type AnnotationWriter interface {
	WriteAnnotations(files []domain.ChangedFile) error
}

// SummaryWriter renders the run summary for the workflow step.
type SummaryWriter interface {
	WriteSummary(totals domain.AdviceTotals, files []domain.ChangedFile) error
}

// SARIFWriter serializes the run's findings as a SARIF log.
type SARIFWriter interface {
	WriteSARIF(path string, files []domain.ChangedFile) error
}

// PayloadWriter persists the review request payload for inspection.
type PayloadWriter interface {
	WritePayload(path string, draft *domain.ReviewDraft) error
}

// ThreadUpdate is the material the sticky conversation comment
// mirrors: the visible summary plus the run identity embedded in the
// comment's metadata block.
type ThreadUpdate struct {
	Body         string
	RunID        string
	HeadSHA      string
	TidyFindings int
	FormatRanges int
}

// ThreadStore maintains the sticky conversation comment on the pull
// request. Upsert replaces the previous run's comment; Remove deletes
// it when a clean run should leave no trace.
type ThreadStore interface {
	Upsert(ctx context.Context, update ThreadUpdate) error
	Remove(ctx context.Context) error
}

// Deps carries the orchestrator's collaborators. Remote, Publisher,
// and Provider are required for pull request runs; Local and Provider
// for local check runs. Everything else is optional and disabled when
// nil.
type Deps struct {
	Remote      RemoteState
	Publisher   Publisher
	Provider    AdviceProvider
	Local       LocalDiffer
	Annotations AnnotationWriter
	Summary     SummaryWriter
	SARIF       SARIFWriter
	Payload     PayloadWriter
	Threads     ThreadStore
	Journal     store.Store
	Logger      Logger
}

// Request describes one pull request run.
type Request struct {
	Repository string
	PullNumber int

	FileFilter diff.Filter
	LineFilter domain.LineFilter

	// TidyReview and FormatReview choose which tool's findings become
	// review comments. A deselected tool still feeds annotations, the
	// step summary, SARIF, and the journal. With both deselected the run
	// publishes nothing and leaves existing comments alone.
	TidyReview   bool
	FormatReview bool

	SummaryOnly    bool
	NoLGTM         bool
	Passive        bool
	DeleteStale    bool
	ThreadComments bool

	// HasToken reports whether a write-capable token is configured.
	// Without one the run still analyzes and reports, but submits
	// nothing.
	HasToken bool

	// DryRun plans every mutation and executes none.
	DryRun bool

	SARIFPath   string
	PayloadPath string

	ConfigHash string
}

// CheckRequest describes one local run, with no code host involved.
type CheckRequest struct {
	Repository string
	Base       string
	Head       string
	Worktree   bool

	FileFilter diff.Filter
	LineFilter domain.LineFilter

	SARIFPath  string
	ConfigHash string
}

// Result reports what a pull request run found and did.
type Result struct {
	RunID     string
	Totals    domain.AdviceTotals
	Plan      domain.PublishPlan
	Submitted bool
	ReviewID  int64
	Verdict   string
	Outcome   store.Outcome
}

// CheckResult reports what a local run found.
type CheckResult struct {
	RunID   string
	Totals  domain.AdviceTotals
	Files   []domain.ChangedFile
	Verdict string
}

// Verdict values recorded in the run journal alongside the review
// events APPROVE, REQUEST_CHANGES, and COMMENT.
const (
	VerdictSkipped  = "SKIPPED"
	VerdictClean    = "CLEAN"
	VerdictFindings = "FINDINGS"
)

// Orchestrator coordinates a full lintgate run.
type Orchestrator struct {
	deps Deps
}

// NewOrchestrator creates an orchestrator with the given dependencies.
func NewOrchestrator(deps Deps) *Orchestrator {
	return &Orchestrator{deps: deps}
}

func (o *Orchestrator) validateReviewDeps() error {
	if o.deps.Remote == nil {
		return errors.New("remote state port is required")
	}
	if o.deps.Publisher == nil {
		return errors.New("publisher is required")
	}
	if o.deps.Provider == nil {
		return errors.New("advice provider is required")
	}
	return nil
}

func (o *Orchestrator) validateCheckDeps() error {
	if o.deps.Local == nil {
		return errors.New("local differ is required")
	}
	if o.deps.Provider == nil {
		return errors.New("advice provider is required")
	}
	return nil
}

func validateRequest(req Request) error {
	if strings.TrimSpace(req.Repository) == "" {
		return errors.New("repository is required")
	}
	if req.PullNumber <= 0 {
		return errors.New("pull request number is required")
	}
	return nil
}

func validateCheckRequest(req CheckRequest) error {
	if strings.TrimSpace(req.Base) == "" {
		return errors.New("base revision is required")
	}
	return nil
}

// ReviewPull runs the full pull request pipeline. Remote reads and
// diff parsing are fatal; journal, output, and thread comment failures
// are logged and skipped so a flaky side channel cannot waste a
// completed analysis. The only error surfaced from the publishing
// phase is context cancellation.
func (o *Orchestrator) ReviewPull(ctx context.Context, req Request) (Result, error) {
	if err := o.validateReviewDeps(); err != nil {
		return Result{}, err
	}
	if err := validateRequest(req); err != nil {
		return Result{}, err
	}

	pr, err := o.deps.Remote.FetchPullRequest(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("fetching pull request: %w", err)
	}

	runID := o.beginRun(ctx, store.Run{
		Mode:       store.ModeReview,
		Repository: req.Repository,
		PullNumber: req.PullNumber,
		HeadSHA:    pr.HeadSHA,
		ConfigHash: req.ConfigHash,
	}, fmt.Sprintf("pr-%d", req.PullNumber))

	raw, err := o.deps.Remote.FetchDiff(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("fetching diff: %w", err)
	}
	files, err := diff.Parse(raw, req.FileFilter)
	if err != nil {
		return Result{}, fmt.Errorf("parsing diff: %w", err)
	}

	files, err = o.deps.Provider.Analyze(ctx, files)
	if err != nil {
		return Result{}, fmt.Errorf("running analysis: %w", err)
	}
	files = ApplyLineFilter(files, req.LineFilter)
	totals := domain.Totals(files)

	// Outputs and the journal always carry both tools; the review path
	// sees only the tools selected for review.
	reviewed := adviceForReview(files, req.TidyReview, req.FormatReview)
	candidates := BuildCandidates(reviewed)

	var match MatchResult
	var draft *domain.ReviewDraft
	var dismiss []int64
	if req.TidyReview || req.FormatReview {
		existing, err := o.deps.Remote.ListReviewComments(ctx)
		if err != nil {
			return Result{}, fmt.Errorf("listing review comments: %w", err)
		}
		reviews, err := o.deps.Remote.ListReviews(ctx)
		if err != nil {
			return Result{}, fmt.Errorf("listing reviews: %w", err)
		}

		// Summary-only runs keep every finding in the summary body, so
		// any line comment still standing from an earlier run is stale.
		wanted := candidates.Comments
		if req.SummaryOnly {
			wanted = nil
		}
		match = Reconcile(wanted, existing, reviewed, req.DeleteStale)

		draft = Compose(reviewed, candidates, match.Create, ComposeOptions{
			SummaryOnly: req.SummaryOnly,
			NoLGTM:      req.NoLGTM,
			Passive:     req.Passive,
		})
		dismiss = StaleReviews(reviews)
	}
	plan := domain.PublishPlan{
		Review:           draft,
		DismissReviews:   dismiss,
		ResolveThreads:   match.Resolve,
		MinimizeComments: match.Minimize,
		DeleteComments:   match.Delete,
	}

	pub := &publish.Result{State: publish.StateDone}
	if req.DryRun {
		o.logInfo(ctx, "dry run, skipping remote mutations", map[string]interface{}{
			"plannedMutations": plan.MutationCount(),
			"newComments":      len(match.Create),
			"standingComments": match.Standing,
		})
	} else {
		pub, err = o.deps.Publisher.Execute(ctx, publish.Request{
			PullRequest: pr,
			Plan:        plan,
			HasToken:    req.HasToken,
		})
		if err != nil {
			return Result{}, err
		}
		o.saveMutations(ctx, runID, pub.Mutations)
	}

	o.writeOutputs(ctx, files, totals, req.SARIFPath)
	if o.deps.Payload != nil && req.PayloadPath != "" && draft != nil {
		if err := o.deps.Payload.WritePayload(req.PayloadPath, draft); err != nil {
			o.logWarning(ctx, "failed to write review payload", map[string]interface{}{
				"path":  req.PayloadPath,
				"error": err.Error(),
			})
		}
	}
	if req.ThreadComments && !req.DryRun {
		o.syncThreadComment(ctx, runID, pr, totals, draft)
	}

	outcome := store.Outcome{
		Verdict:        verdictOf(draft),
		Submitted:      pub.Submitted,
		TidyFindings:   totals.TidyFindings,
		FormatFindings: totals.FormatRanges,
		Comments:       len(match.Create),
		Dismissed:      pub.Succeeded(store.MutationDismiss),
		Resolved:       pub.Succeeded(store.MutationResolve),
		Minimized:      pub.Succeeded(store.MutationMinimize),
		Deleted:        pub.Succeeded(store.MutationDelete),
	}
	o.finishRun(ctx, runID, outcome)

	return Result{
		RunID:     runID,
		Totals:    totals,
		Plan:      plan,
		Submitted: pub.Submitted,
		ReviewID:  pub.ReviewID,
		Verdict:   outcome.Verdict,
		Outcome:   outcome,
	}, nil
}

// CheckLocal runs the tools over a local diff and writes outputs. No
// code host access, no mutations.
func (o *Orchestrator) CheckLocal(ctx context.Context, req CheckRequest) (CheckResult, error) {
	if err := o.validateCheckDeps(); err != nil {
		return CheckResult{}, err
	}
	if err := validateCheckRequest(req); err != nil {
		return CheckResult{}, err
	}

	runID := o.beginRun(ctx, store.Run{
		Mode:       store.ModeCheck,
		Repository: req.Repository,
		HeadSHA:    req.Head,
		ConfigHash: req.ConfigHash,
	}, req.Head)

	raw, err := o.deps.Local.Diff(ctx, req.Base, req.Head, req.Worktree)
	if err != nil {
		return CheckResult{}, fmt.Errorf("computing local diff: %w", err)
	}
	files, err := diff.Parse(raw, req.FileFilter)
	if err != nil {
		return CheckResult{}, fmt.Errorf("parsing diff: %w", err)
	}

	files, err = o.deps.Provider.Analyze(ctx, files)
	if err != nil {
		return CheckResult{}, fmt.Errorf("running analysis: %w", err)
	}
	files = ApplyLineFilter(files, req.LineFilter)
	totals := domain.Totals(files)

	o.writeOutputs(ctx, files, totals, req.SARIFPath)

	verdict := VerdictClean
	if !totals.Empty() {
		verdict = VerdictFindings
	}
	o.finishRun(ctx, runID, store.Outcome{
		Verdict:        verdict,
		TidyFindings:   totals.TidyFindings,
		FormatFindings: totals.FormatRanges,
	})

	return CheckResult{
		RunID:   runID,
		Totals:  totals,
		Files:   files,
		Verdict: verdict,
	}, nil
}

// syncThreadComment mirrors the run summary into the sticky
// conversation comment. A clean run under no-LGTM removes the comment
// instead of posting "no problems found".
func (o *Orchestrator) syncThreadComment(ctx context.Context, runID string, pr domain.PullRequest, totals domain.AdviceTotals, draft *domain.ReviewDraft) {
	if o.deps.Threads == nil {
		return
	}
	if draft == nil {
		if err := o.deps.Threads.Remove(ctx); err != nil {
			o.logWarning(ctx, "failed to remove thread comment", map[string]interface{}{
				"error": err.Error(),
			})
		}
		return
	}
	update := ThreadUpdate{
		Body:         draft.Summary,
		RunID:        runID,
		HeadSHA:      pr.HeadSHA,
		TidyFindings: totals.TidyFindings,
		FormatRanges: totals.FormatRanges,
	}
	if err := o.deps.Threads.Upsert(ctx, update); err != nil {
		o.logWarning(ctx, "failed to update thread comment", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func (o *Orchestrator) writeOutputs(ctx context.Context, files []domain.ChangedFile, totals domain.AdviceTotals, sarifPath string) {
	if o.deps.Annotations != nil {
		if err := o.deps.Annotations.WriteAnnotations(files); err != nil {
			o.logWarning(ctx, "failed to write annotations", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}
	if o.deps.Summary != nil {
		if err := o.deps.Summary.WriteSummary(totals, files); err != nil {
			o.logWarning(ctx, "failed to write step summary", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}
	if o.deps.SARIF != nil && sarifPath != "" {
		if err := o.deps.SARIF.WriteSARIF(sarifPath, files); err != nil {
			o.logWarning(ctx, "failed to write SARIF log", map[string]interface{}{
				"path":  sarifPath,
				"error": err.Error(),
			})
		}
	}
}

// beginRun records the run start in the journal. Journal failures
// never break a run: an unrecorded run is better than no run.
func (o *Orchestrator) beginRun(ctx context.Context, run store.Run, subject string) string {
	if o.deps.Journal == nil {
		return ""
	}
	run.RunID = store.GenerateRunID(time.Now().UTC(), run.Repository, subject)
	run.Timestamp = time.Now().UTC()
	if err := o.deps.Journal.CreateRun(ctx, run); err != nil {
		o.logWarning(ctx, "failed to create run record", map[string]interface{}{
			"runID": run.RunID,
			"error": err.Error(),
		})
		return ""
	}
	return run.RunID
}

func (o *Orchestrator) saveMutations(ctx context.Context, runID string, records []store.MutationRecord) {
	if o.deps.Journal == nil || runID == "" || len(records) == 0 {
		return
	}
	if err := o.deps.Journal.SaveMutations(ctx, runID, records); err != nil {
		o.logWarning(ctx, "failed to save mutation records", map[string]interface{}{
			"runID": runID,
			"error": err.Error(),
		})
	}
}

func (o *Orchestrator) finishRun(ctx context.Context, runID string, outcome store.Outcome) {
	if o.deps.Journal == nil || runID == "" {
		return
	}
	if err := o.deps.Journal.FinishRun(ctx, runID, outcome); err != nil {
		o.logWarning(ctx, "failed to finish run record", map[string]interface{}{
			"runID": runID,
			"error": err.Error(),
		})
	}
}

func verdictOf(draft *domain.ReviewDraft) string {
	if draft == nil {
		return VerdictSkipped
	}
	return string(draft.Event)
}

func (o *Orchestrator) logWarning(ctx context.Context, msg string, fields map[string]interface{}) {
	if o.deps.Logger != nil {
		o.deps.Logger.LogWarning(ctx, msg, fields)
		return
	}
	log.Printf("warning: %s: %v\n", msg, fields)
}

func (o *Orchestrator) logInfo(ctx context.Context, msg string, fields map[string]interface{}) {
	if o.deps.Logger != nil {
		o.deps.Logger.LogInfo(ctx, msg, fields)
		return
	}
	log.Printf("%s: %v\n", msg, fields)
}
