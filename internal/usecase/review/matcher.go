package review

import (
	"sort"
	"strconv"

	"github.com/lintgate/lintgate/internal/domain"
)

// MatchResult categorizes the outcome of reconciling candidate comments
// against the comments already on the pull request. Each slice feeds one
// part of the publish plan.
type MatchResult struct {
	// Create contains candidates with no standing equivalent on the pull
	// request. These become the new review's line comments.
	Create []domain.DraftComment

	// Standing counts candidates already covered by an identical remote
	// comment. Nothing is posted for them; the remote comment stays.
	Standing int

	// Resolve lists thread node ids of stale unresolved threads.
	Resolve []string

	// Minimize lists comment node ids to collapse when the thread cannot
	// be resolved (unknown thread, or already resolved but still shown).
	Minimize []string

	// Delete lists comments to remove outright: body drift replacements,
	// everything stale when deletion is configured, and comments with no
	// node id (REST database id in decimal).
	Delete []string
}

// Reconcile compares the candidates a run wants to post against the
// comments already present, so repeated runs on the same pull request
// produce no duplicate or stale noise.
//
// The function:
//  1. Considers only comments carrying a tool marker. Human comments and
//     other bots' comments are never touched.
//  2. Collapses duplicate comments at one (path, line, tool) key: the most
//     recently created one is canonical, the rest are stale.
//  3. Keeps remote comments whose body still matches their candidate, drops
//     the candidate instead.
//  4. Replaces comments whose body drifted: old one deleted, candidate
//     posted fresh. Remote review comments cannot be edited in place.
//  5. Retires comments whose anchor left the diff, no matter what the
//     candidates say.
//
// Stale comments are retired by resolving their thread when possible,
// minimizing as a fallback, or deleting when deleteStale is set or no node
// id is known. Input slices are not mutated.
func Reconcile(candidates []domain.DraftComment, existing []domain.ExistingReviewComment, files []domain.ChangedFile, deleteStale bool) MatchResult {
	byPath := make(map[string]domain.ChangedFile, len(files))
	for _, f := range files {
		byPath[f.Path] = f
	}

	groups := make(map[domain.CommentKey][]domain.ExistingReviewComment)
	for _, c := range existing {
		tool, ok := c.Tool()
		if !ok {
			continue
		}
		key := domain.CommentKey{Path: c.Path, Line: c.Line, Tool: tool}
		groups[key] = append(groups[key], c)
	}

	var stale []domain.ExistingReviewComment
	canonical := make(map[domain.CommentKey]domain.ExistingReviewComment, len(groups))
	for key, group := range groups {
		sort.Slice(group, func(i, j int) bool {
			if !group[i].CreatedAt.Equal(group[j].CreatedAt) {
				return group[i].CreatedAt.After(group[j].CreatedAt)
			}
			return group[i].ID > group[j].ID
		})
		canonical[key] = group[0]
		stale = append(stale, group[1:]...)
	}

	var result MatchResult
	matched := make(map[domain.CommentKey]bool)

	for _, cand := range candidates {
		cur, ok := canonical[cand.Key()]
		if !ok {
			result.Create = append(result.Create, cand)
			continue
		}
		matched[cand.Key()] = true

		if anchorLeftDiff(cur, byPath) {
			stale = append(stale, cur)
			result.Create = append(result.Create, cand)
			continue
		}
		if domain.SameBody(cur.Body, cand.Body) {
			result.Standing++
			continue
		}

		result.Delete = append(result.Delete, mutationTarget(cur))
		result.Create = append(result.Create, cand)
	}

	for key, cur := range canonical {
		if !matched[key] {
			stale = append(stale, cur)
		}
	}

	sort.Slice(stale, func(i, j int) bool {
		if stale[i].Path != stale[j].Path {
			return stale[i].Path < stale[j].Path
		}
		if stale[i].Line != stale[j].Line {
			return stale[i].Line < stale[j].Line
		}
		return stale[i].ID < stale[j].ID
	})

	seen := make(map[string]bool)
	for _, c := range stale {
		switch {
		case deleteStale || c.NodeID == "":
			appendTarget(&result.Delete, seen, "delete", mutationTarget(c))
		case !c.Resolved && c.ThreadID != "":
			// two comments can share a thread; resolve it once
			appendTarget(&result.Resolve, seen, "resolve", c.ThreadID)
		default:
			appendTarget(&result.Minimize, seen, "minimize", c.NodeID)
		}
	}

	return result
}

// StaleReviews picks previous runs' reviews a new submission should
// dismiss. Recognition is by the review marker, not the author login:
// action tokens post under varying identities, the marker does not.
// Pending reviews cannot be dismissed and dismissed ones already are.
func StaleReviews(reviews []domain.ExistingReview) []int64 {
	var ids []int64
	for _, r := range reviews {
		if !r.Ours() {
			continue
		}
		if r.State == domain.ReviewStateDismissed || r.State == domain.ReviewStatePending {
			continue
		}
		ids = append(ids, r.ID)
	}
	return ids
}

// anchorLeftDiff reports whether the comment's line is gone from the
// current diff. Such comments are stale even when their advice would be
// repeated: the new diff cannot carry a comment there.
func anchorLeftDiff(c domain.ExistingReviewComment, byPath map[string]domain.ChangedFile) bool {
	if c.Outdated {
		return true
	}
	f, ok := byPath[c.Path]
	if !ok {
		return true
	}
	return !f.InDiff(c.Line)
}

// mutationTarget addresses a comment for mutation calls: the GraphQL node
// id when known, else the REST database id in decimal.
func mutationTarget(c domain.ExistingReviewComment) string {
	if c.NodeID != "" {
		return c.NodeID
	}
	return strconv.FormatInt(c.ID, 10)
}

func appendTarget(targets *[]string, seen map[string]bool, set, target string) {
	key := set + ":" + target
	if seen[key] {
		return
	}
	seen[key] = true
	*targets = append(*targets, target)
}
