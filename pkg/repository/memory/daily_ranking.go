package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/studyhall/pkg/domain/model"
)

type dailyRankingRepository struct {
	mu       sync.RWMutex
	rankings map[string]*model.DailyRanking
}

func newDailyRankingRepository() *dailyRankingRepository {
	return &dailyRankingRepository{
		rankings: make(map[string]*model.DailyRanking),
	}
}

func copyRanking(r *model.DailyRanking) *model.DailyRanking {
	copied := *r
	copied.Rankings = model.CopyRankings(r.Rankings)
	return &copied
}

func (r *dailyRankingRepository) Put(ctx context.Context, ranking *model.DailyRanking) (*model.DailyRanking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := copyRanking(ranking)
	stored.Date = model.TruncateDay(ranking.Date)
	if stored.ComputedAt.IsZero() {
		stored.ComputedAt = time.Now().UTC()
	}

	r.rankings[model.DateKey(stored.Date)] = stored
	return copyRanking(stored), nil
}

func (r *dailyRankingRepository) GetByDate(ctx context.Context, date time.Time) (*model.DailyRanking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ranking, ok := r.rankings[model.DateKey(date)]
	if !ok {
		return nil, goerr.Wrap(ErrNotFound, "daily ranking not found", goerr.V("date", model.DateKey(date)))
	}
	return copyRanking(ranking), nil
}

func (r *dailyRankingRepository) ListInRange(ctx context.Context, from, to time.Time) ([]*model.DailyRanking, error) {
	from, to = model.TruncateDay(from), model.TruncateDay(to)

	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*model.DailyRanking
	for _, ranking := range r.rankings {
		if ranking.Date.Before(from) || ranking.Date.After(to) {
			continue
		}
		result = append(result, copyRanking(ranking))
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Date.Before(result[j].Date)
	})
	return result, nil
}

func (r *dailyRankingRepository) List(ctx context.Context, offset, limit int) ([]*model.DailyRanking, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]*model.DailyRanking, 0, len(r.rankings))
	for _, ranking := range r.rankings {
		all = append(all, ranking)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].Date.After(all[j].Date)
	})

	page := paginate(all, offset, limit)
	result := make([]*model.DailyRanking, 0, len(page))
	for _, ranking := range page {
		result = append(result, copyRanking(ranking))
	}
	return result, len(all), nil
}

func (r *dailyRankingRepository) DeleteByDate(ctx context.Context, date time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := model.DateKey(date)
	if _, ok := r.rankings[key]; !ok {
		return goerr.Wrap(ErrNotFound, "daily ranking not found", goerr.V("date", key))
	}
	delete(r.rankings, key)
	return nil
}
