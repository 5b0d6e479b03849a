package review

import "github.com/lintgate/lintgate/internal/domain"

// ApplyLineFilter drops advice outside the configured line scope. Suppressed
// findings never surface anywhere: not in the review, not in annotations,
// not in the summary. Input files are not mutated.
func ApplyLineFilter(files []domain.ChangedFile, filter domain.LineFilter) []domain.ChangedFile {
	if filter == domain.LinesAll {
		return files
	}

	filtered := make([]domain.ChangedFile, 0, len(files))
	for _, f := range files {
		out := f
		out.Format = filterFormat(f, filter)
		out.Tidy = filterTidy(f, filter)
		filtered = append(filtered, out)
	}
	return filtered
}

// filterFormat keeps ranges that touch at least one in-scope line. Ranges
// come from whole-file formatting, so a run may extend past the edit that
// caused it; dropping it entirely would hide the finding.
func filterFormat(f domain.ChangedFile, filter domain.LineFilter) *domain.FormatAdvice {
	if f.Format == nil {
		return nil
	}

	var kept []domain.FormatRange
	for _, r := range f.Format.Ranges {
		for line := r.Start; line <= r.End; line++ {
			if f.InScope(line, filter) {
				kept = append(kept, r)
				break
			}
		}
	}
	if len(kept) == 0 {
		return nil
	}
	return &domain.FormatAdvice{Ranges: kept}
}

func filterTidy(f domain.ChangedFile, filter domain.LineFilter) []domain.TidyDiagnostic {
	var kept []domain.TidyDiagnostic
	for _, d := range f.Tidy {
		if f.InScope(d.Line, filter) {
			kept = append(kept, d)
		}
	}
	return kept
}

// adviceForReview strips advice from tools deselected for review. Unlike
// the line filter this hides nothing from annotations or the summary;
// only the review draft and its reconciliation are narrowed.
func adviceForReview(files []domain.ChangedFile, tidy, format bool) []domain.ChangedFile {
	if tidy && format {
		return files
	}
	out := make([]domain.ChangedFile, len(files))
	for i, f := range files {
		if !tidy {
			f.Tidy = nil
		}
		if !format {
			f.Format = nil
		}
		out[i] = f
	}
	return out
}
