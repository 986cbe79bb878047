package usecase

import (
	"time"

	"github.com/secmon-lab/studyhall/pkg/domain/model"
	"github.com/secmon-lab/studyhall/pkg/domain/model/config"
)

// ComputeRanking runs aggregation and ranking over the entries of one day.
// TotalParticipants counts every aggregated attendee, including those cut by MaxTopRanks.
func ComputeRanking(date time.Time, entries []model.AttendanceEntry, cfg *config.RankingConfig, computedAt time.Time) *model.DailyRanking {
	aggregated := model.Aggregate(entries, cfg.ExcludedNames)
	return &model.DailyRanking{
		Date:              model.TruncateDay(date),
		Rankings:          model.Rank(aggregated, cfg.MaxTopRanks),
		TotalParticipants: len(aggregated),
		ComputedAt:        computedAt.UTC(),
	}
}
