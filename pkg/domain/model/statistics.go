package model

import (
	"math"
	"sort"
)

// Statistics summarizes the durations of a ranking list
type Statistics struct {
	TotalParticipants int `json:"totalParticipants"`
	TotalDuration     int `json:"totalDuration"`
	AverageDuration   int `json:"averageDuration"`
	MedianDuration    int `json:"medianDuration"`
	TopDuration       int `json:"topDuration"`
}

// CalculateStatistics computes descriptive statistics of the list. The median is the
// element at index n/2 of the ascending durations. An empty list yields all zeros.
func CalculateStatistics(rankings []RankingEntry) Statistics {
	n := len(rankings)
	if n == 0 {
		return Statistics{}
	}

	durations := make([]int, n)
	total := 0
	for i, r := range rankings {
		durations[i] = r.TotalDuration
		total += r.TotalDuration
	}
	sort.Ints(durations)

	return Statistics{
		TotalParticipants: n,
		TotalDuration:     total,
		AverageDuration:   int(math.Round(float64(total) / float64(n))),
		MedianDuration:    durations[n/2],
		TopDuration:       durations[n-1],
	}
}
