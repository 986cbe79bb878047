package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/studyhall/pkg/domain/interfaces"
	"github.com/secmon-lab/studyhall/pkg/domain/model"
	"github.com/secmon-lab/studyhall/pkg/domain/model/config"
)

// maxRangeDays bounds ListRange so a single request cannot scan the whole history
const maxRangeDays = 366

// RankingUseCase serves stored rankings. Every read derives the view from the
// viewer in the context, so public callers never see unfiltered data.
type RankingUseCase struct {
	repo interfaces.Repository
	cfg  *config.RankingConfig
}

func NewRankingUseCase(repo interfaces.Repository, cfg *config.RankingConfig) *RankingUseCase {
	return &RankingUseCase{
		repo: repo,
		cfg:  cfg,
	}
}

// DayQuery narrows a day view. Limit <= 0 selects the configured default.
type DayQuery struct {
	Search      string
	Limit       int
	MinDuration *int
	MaxDuration *int
}

func (q DayQuery) filterOptions(defaultLimit int) model.FilterOptions {
	limit := q.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	return model.FilterOptions{
		MinDuration: q.MinDuration,
		MaxDuration: q.MaxDuration,
		SearchQuery: q.Search,
		TopN:        limit,
	}
}

func (uc *RankingUseCase) get(ctx context.Context, date time.Time) (*model.DailyRanking, error) {
	if date.IsZero() {
		return nil, goerr.Wrap(ErrDateRequired, "ranking lookup needs a date")
	}

	ranking, err := uc.repo.DailyRanking().GetByDate(ctx, date)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, goerr.Wrap(ErrNoData, "no ranking", goerr.V(DateKey, model.DateKey(date)))
		}
		return nil, goerr.Wrap(err, "failed to get ranking", goerr.V(DateKey, model.DateKey(date)))
	}
	return ranking, nil
}

func (uc *RankingUseCase) view(ctx context.Context, ranking *model.DailyRanking, opts model.FilterOptions) model.RankingView {
	viewer := model.ViewerFromContext(ctx)
	return model.BuildView(ranking, viewer.Privileged, uc.cfg.MaxDisplayableDuration, opts)
}

// GetDay returns the caller's view of the ranking of the date
func (uc *RankingUseCase) GetDay(ctx context.Context, date time.Time, q DayQuery) (*model.RankingView, error) {
	ranking, err := uc.get(ctx, date)
	if err != nil {
		return nil, err
	}
	view := uc.view(ctx, ranking, q.filterOptions(uc.cfg.DefaultLimit))
	return &view, nil
}

// Statistics returns statistics of the caller's whole view of the date
func (uc *RankingUseCase) Statistics(ctx context.Context, date time.Time) (*model.Statistics, error) {
	ranking, err := uc.get(ctx, date)
	if err != nil {
		return nil, err
	}
	view := uc.view(ctx, ranking, model.FilterOptions{})
	return &view.Statistics, nil
}

// DaySummary is one row of the ranking history
type DaySummary struct {
	Date              string    `json:"date"`
	TotalParticipants int       `json:"totalParticipants"`
	TopDuration       int       `json:"topDuration"`
	ComputedAt        time.Time `json:"computedAt"`
}

// ListDays returns a page of day summaries, newest first, counted the way the caller sees them
func (uc *RankingUseCase) ListDays(ctx context.Context, page, limit int) ([]DaySummary, int, error) {
	offset, size := pageWindow(page, limit, uc.cfg.DefaultLimit)
	rankings, total, err := uc.repo.DailyRanking().List(ctx, offset, size)
	if err != nil {
		return nil, 0, goerr.Wrap(err, "failed to list rankings")
	}

	summaries := make([]DaySummary, 0, len(rankings))
	for _, r := range rankings {
		v := uc.view(ctx, r, model.FilterOptions{})
		summaries = append(summaries, DaySummary{
			Date:              v.Date,
			TotalParticipants: v.TotalParticipants,
			TopDuration:       v.Statistics.TopDuration,
			ComputedAt:        v.ComputedAt,
		})
	}
	return summaries, total, nil
}

// ListRange returns the caller's views of every stored day with from <= date <= to
func (uc *RankingUseCase) ListRange(ctx context.Context, from, to time.Time) ([]model.RankingView, error) {
	if from.IsZero() || to.IsZero() {
		return nil, goerr.Wrap(ErrDateRequired, "range needs both ends")
	}
	from, to = model.TruncateDay(from), model.TruncateDay(to)
	if to.Before(from) {
		return nil, goerr.Wrap(ErrInvalidInput, "range ends before it starts",
			goerr.V("from", model.DateKey(from)),
			goerr.V("to", model.DateKey(to)),
		)
	}
	if to.Sub(from) > maxRangeDays*24*time.Hour {
		return nil, goerr.Wrap(ErrInvalidInput, "range is too long",
			goerr.V("from", model.DateKey(from)),
			goerr.V("to", model.DateKey(to)),
			goerr.V("max_days", maxRangeDays),
		)
	}

	rankings, err := uc.repo.DailyRanking().ListInRange(ctx, from, to)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list rankings in range")
	}

	views := make([]model.RankingView, 0, len(rankings))
	for _, r := range rankings {
		views = append(views, uc.view(ctx, r, model.FilterOptions{TopN: uc.cfg.DefaultLimit}))
	}
	return views, nil
}
