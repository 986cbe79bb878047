package model

import "strings"

// FilterOptions narrows a ranking list. Nil bounds and an empty query match everything;
// TopN <= 0 means no truncation. Bounds are inclusive.
type FilterOptions struct {
	MinDuration *int
	MaxDuration *int
	SearchQuery string
	TopN        int
}

// FilterRankings keeps entries that satisfy every option, in their original order.
// Rank numbers are left untouched.
func FilterRankings(rankings []RankingEntry, opts FilterOptions) []RankingEntry {
	query := strings.ToLower(strings.TrimSpace(opts.SearchQuery))

	out := make([]RankingEntry, 0, len(rankings))
	for _, r := range rankings {
		if opts.MinDuration != nil && r.TotalDuration < *opts.MinDuration {
			continue
		}
		if opts.MaxDuration != nil && r.TotalDuration > *opts.MaxDuration {
			continue
		}
		if query != "" && !matchesQuery(r, query) {
			continue
		}
		out = append(out, r)
		if opts.TopN > 0 && len(out) >= opts.TopN {
			break
		}
	}
	return out
}

func matchesQuery(r RankingEntry, query string) bool {
	return strings.Contains(strings.ToLower(r.FullName), query) ||
		strings.Contains(strings.ToLower(r.FirstName), query) ||
		strings.Contains(strings.ToLower(r.LastName), query) ||
		strings.Contains(strings.ToLower(r.Email), query)
}

// FilterForPublicView drops entries above maxDisplayable minutes and renumbers the
// remainder from 1. maxDisplayable <= 0 disables the ceiling but still renumbers.
func FilterForPublicView(rankings []RankingEntry, maxDisplayable int) []RankingEntry {
	var opts FilterOptions
	if maxDisplayable > 0 {
		opts.MaxDuration = &maxDisplayable
	}
	return Rerank(FilterRankings(rankings, opts))
}
