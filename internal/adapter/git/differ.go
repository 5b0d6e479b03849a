// Package git produces unified diff text from a local repository.
package git

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	goGit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/lintgate/lintgate/internal/usecase/review"
)

// Differ diffs two revisions with go-git, or a revision against the working
// tree by shelling out to the git binary.
type Differ struct {
	root string
}

var _ review.LocalDiffer = (*Differ)(nil)

// NewDiffer constructs a differ for the repository at or above root.
func NewDiffer(root string) *Differ {
	return &Differ{root: root}
}

// Diff returns the unified diff between base and head. With worktree set,
// head is ignored and the diff runs from base to the working tree,
// uncommitted changes included. An empty head means HEAD.
func (d *Differ) Diff(ctx context.Context, base, head string, worktree bool) (string, error) {
	repo, err := goGit.PlainOpenWithOptions(d.root, &goGit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", fmt.Errorf("open repo: %w", err)
	}

	baseCommit, err := resolveCommit(repo, base)
	if err != nil {
		return "", fmt.Errorf("resolve base ref: %w", err)
	}

	if worktree {
		return runGitCommand(ctx, d.root, "diff", "--no-color", "--no-ext-diff", baseCommit.Hash.String())
	}

	if head == "" {
		head = "HEAD"
	}
	headCommit, err := resolveCommit(repo, head)
	if err != nil {
		return "", fmt.Errorf("resolve head ref: %w", err)
	}

	patch, err := baseCommit.PatchContext(ctx, headCommit)
	if err != nil {
		return "", fmt.Errorf("compute patch: %w", err)
	}

	var buf bytes.Buffer
	if err := patch.Encode(&buf); err != nil {
		return "", fmt.Errorf("encode patch: %w", err)
	}
	return buf.String(), nil
}

// resolveCommit tries the ref as given, then as a local branch, then as an
// origin-tracking branch.
func resolveCommit(repo *goGit.Repository, ref string) (*object.Commit, error) {
	candidates := []string{
		ref,
		fmt.Sprintf("refs/heads/%s", ref),
		fmt.Sprintf("refs/remotes/origin/%s", ref),
	}

	var lastErr error
	for _, candidate := range candidates {
		hash, err := repo.ResolveRevision(plumbing.Revision(candidate))
		if err != nil {
			lastErr = err
			continue
		}
		return repo.CommitObject(*hash)
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, fmt.Errorf("unable to resolve ref %s", ref)
}

func runGitCommand(ctx context.Context, repoDir string, args ...string) (string, error) {
	fullArgs := append([]string{"-C", repoDir}, args...)
	cmd := exec.CommandContext(ctx, "git", fullArgs...)
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("git %v: %w", args, ctx.Err())
		}
		if stderr.Len() > 0 {
			err = fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
		}
		return "", fmt.Errorf("git %v: %w", args, err)
	}
	return stdout.String(), nil
}
