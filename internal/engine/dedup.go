package engine

import (
	"slices"
	"strings"

	"github.com/redactyl/promptscan/internal/types"
)

// Deduplicate resolves overlapping candidates. Candidates are walked in
// canonical order (start asc, end desc, detector, type); each is compared with
// the first accepted issue it overlaps and replaces it only with strictly
// higher confidence, moving to the end of the accepted list. Ties keep the
// earlier-accepted issue.
//
// Every accepted issue starts at or before the candidate, so at most one of
// them can overlap it and the output never contains overlapping spans.
func Deduplicate(cands []types.Issue) []types.Issue {
	sorted := slices.Clone(cands)
	slices.SortStableFunc(sorted, canonical)

	var kept []types.Issue
	for _, c := range sorted {
		hit := slices.IndexFunc(kept, func(k types.Issue) bool { return k.Span.Overlaps(c.Span) })
		switch {
		case hit < 0:
			kept = append(kept, c)
		case c.Confidence > kept[hit].Confidence:
			kept = slices.Delete(kept, hit, hit+1)
			kept = append(kept, c)
		}
	}
	return kept
}

func canonical(a, b types.Issue) int {
	if a.Span.Start != b.Span.Start {
		return a.Span.Start - b.Span.Start
	}
	if a.Span.End != b.Span.End {
		return b.Span.End - a.Span.End
	}
	if c := strings.Compare(a.Detector, b.Detector); c != 0 {
		return c
	}
	return strings.Compare(a.Type, b.Type)
}
