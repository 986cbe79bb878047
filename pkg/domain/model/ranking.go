package model

import (
	"sort"
	"strings"
)

// DefaultMaxRank is the number of ranked attendees kept per day when not configured
const DefaultMaxRank = 100

// Rank orders attendees by total duration descending and returns at most maxRank
// display-ready entries with dense ranks starting at 1. Equal durations are ordered
// by full name (case-insensitive) and then identity key, so the output does not
// depend on the row order of the source file. maxRank <= 0 means DefaultMaxRank.
func Rank(aggregated []*AggregatedAttendee, maxRank int) []RankingEntry {
	if maxRank <= 0 {
		maxRank = DefaultMaxRank
	}

	sorted := make([]*AggregatedAttendee, len(aggregated))
	copy(sorted, aggregated)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.TotalDuration != b.TotalDuration {
			return a.TotalDuration > b.TotalDuration
		}
		an := strings.ToLower(joinName(a.Identifier.FirstName, a.Identifier.LastName))
		bn := strings.ToLower(joinName(b.Identifier.FirstName, b.Identifier.LastName))
		if an != bn {
			return an < bn
		}
		return a.Key < b.Key
	})

	if len(sorted) > maxRank {
		sorted = sorted[:maxRank]
	}

	rankings := make([]RankingEntry, 0, len(sorted))
	for i, a := range sorted {
		rankings = append(rankings, RankingEntry{
			Rank:                   i + 1,
			FullName:               TitleCase(joinName(a.Identifier.FirstName, a.Identifier.LastName)),
			FirstName:              TitleCase(a.Identifier.FirstName),
			LastName:               TitleCase(a.Identifier.LastName),
			Email:                  a.Identifier.Email,
			TotalDuration:          a.TotalDuration,
			TotalDurationFormatted: FormatDuration(a.TotalDuration),
			SessionCount:           a.SessionCount(),
		})
	}
	return rankings
}

// Rerank renumbers entries from 1 in their current order. The input is not modified.
func Rerank(rankings []RankingEntry) []RankingEntry {
	out := make([]RankingEntry, len(rankings))
	for i, r := range rankings {
		r.Rank = i + 1
		out[i] = r
	}
	return out
}
