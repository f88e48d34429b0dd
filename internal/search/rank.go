package search

import (
	"sort"

	"peervod/pkg/types"
)

// Rank orders survivors by health ratio then seed count, then keeps at most
// one representative per quality tier until limit rows are collected. When
// the tier walk selects nothing the plain top-of-sort rows are returned so a
// degenerate input still yields an answer.
func Rank(rows []types.Candidate, limit int) []types.Candidate {
	if limit <= 0 {
		limit = 20
	}
	sorted := make([]types.Candidate, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Ratio != sorted[j].Ratio {
			return sorted[i].Ratio > sorted[j].Ratio
		}
		return sorted[i].Seeds > sorted[j].Seeds
	})

	seen := make(map[string]bool)
	selected := make([]types.Candidate, 0, limit)
	for _, r := range sorted {
		q := r.Quality
		if q == "" {
			q = types.QualityUnknown
		}
		if !seen[q] {
			seen[q] = true
			selected = append(selected, r)
		}
		if len(selected) >= limit {
			break
		}
	}

	if len(selected) == 0 {
		if len(sorted) > limit {
			return sorted[:limit]
		}
		return sorted
	}
	return selected
}
