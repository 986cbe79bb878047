package interfaces

import (
	"context"
	"time"

	"github.com/secmon-lab/studyhall/pkg/domain/model"
)

// AttendanceRecordRepository persists raw uploads, at most one per date
type AttendanceRecordRepository interface {
	// Put creates or replaces the record of record.Date. An existing record keeps its ID
	// and CreatedAt.
	Put(ctx context.Context, record *model.AttendanceRecord) (*model.AttendanceRecord, error)

	// GetByDate retrieves the record of the date
	GetByDate(ctx context.Context, date time.Time) (*model.AttendanceRecord, error)

	// List returns records sorted by date descending, skipping offset and returning at
	// most limit, together with the total number of matching records
	List(ctx context.Context, offset, limit int, opts ...ListRecordOption) ([]*model.AttendanceRecord, int, error)

	// DeleteByDate removes the record of the date
	DeleteByDate(ctx context.Context, date time.Time) error
}

// DailyRankingRepository persists computed rankings, one per date
type DailyRankingRepository interface {
	// Put creates or replaces the ranking of ranking.Date
	Put(ctx context.Context, ranking *model.DailyRanking) (*model.DailyRanking, error)

	// GetByDate retrieves the ranking of the date
	GetByDate(ctx context.Context, date time.Time) (*model.DailyRanking, error)

	// ListInRange returns rankings with from <= date <= to, sorted by date ascending
	ListInRange(ctx context.Context, from, to time.Time) ([]*model.DailyRanking, error)

	// List returns rankings sorted by date descending with the total count
	List(ctx context.Context, offset, limit int) ([]*model.DailyRanking, int, error)

	// DeleteByDate removes the ranking of the date
	DeleteByDate(ctx context.Context, date time.Time) error
}
