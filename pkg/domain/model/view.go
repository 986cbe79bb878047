package model

import "time"

// RankingView is the part of a stored DailyRanking a particular caller may see
type RankingView struct {
	Date               string             `json:"date"`
	Rankings           []RankingEntry     `json:"rankings"`
	TotalParticipants  int                `json:"totalParticipants"`
	ComputedAt         time.Time          `json:"computedAt"`
	AttendanceRecordID AttendanceRecordID `json:"attendanceRecordId,omitempty"`
	Statistics         Statistics         `json:"statistics"`
}

// BuildView derives the view of a stored ranking.
//
// Privileged callers get the stored list narrowed by opts with ranks kept, and the
// stored participant count. Everyone else gets the public list: entries above
// maxDisplayable are dropped and the rest renumbered before opts apply, and the
// participant count and statistics describe exactly the returned entries.
func BuildView(r *DailyRanking, privileged bool, maxDisplayable int, opts FilterOptions) RankingView {
	view := RankingView{
		Date:       DateKey(r.Date),
		ComputedAt: r.ComputedAt,
	}

	if privileged {
		view.Rankings = FilterRankings(r.Rankings, opts)
		view.TotalParticipants = r.TotalParticipants
		view.AttendanceRecordID = r.AttendanceRecordID
	} else {
		view.Rankings = FilterRankings(FilterForPublicView(r.Rankings, maxDisplayable), opts)
		view.TotalParticipants = len(view.Rankings)
	}

	view.Statistics = CalculateStatistics(view.Rankings)
	return view
}
