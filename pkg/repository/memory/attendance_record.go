package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/studyhall/pkg/domain/interfaces"
	"github.com/secmon-lab/studyhall/pkg/domain/model"
)

type attendanceRecordRepository struct {
	mu      sync.RWMutex
	records map[string]*model.AttendanceRecord
}

func newAttendanceRecordRepository() *attendanceRecordRepository {
	return &attendanceRecordRepository{
		records: make(map[string]*model.AttendanceRecord),
	}
}

func copyRecord(r *model.AttendanceRecord) *model.AttendanceRecord {
	copied := *r
	copied.Entries = model.CopyEntries(r.Entries)
	return &copied
}

func (r *attendanceRecordRepository) Put(ctx context.Context, record *model.AttendanceRecord) (*model.AttendanceRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := model.DateKey(record.Date)
	now := time.Now().UTC()

	stored := copyRecord(record)
	stored.Date = model.TruncateDay(record.Date)
	stored.UpdatedAt = now
	if existing, ok := r.records[key]; ok {
		stored.ID = existing.ID
		stored.CreatedAt = existing.CreatedAt
	} else {
		if stored.ID == "" {
			stored.ID = model.NewAttendanceRecordID()
		}
		stored.CreatedAt = now
	}

	r.records[key] = stored
	return copyRecord(stored), nil
}

func (r *attendanceRecordRepository) GetByDate(ctx context.Context, date time.Time) (*model.AttendanceRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, ok := r.records[model.DateKey(date)]
	if !ok {
		return nil, goerr.Wrap(ErrNotFound, "attendance record not found", goerr.V("date", model.DateKey(date)))
	}
	return copyRecord(record), nil
}

func (r *attendanceRecordRepository) List(ctx context.Context, offset, limit int, opts ...interfaces.ListRecordOption) ([]*model.AttendanceRecord, int, error) {
	cfg := interfaces.BuildListRecordConfig(opts...)

	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]*model.AttendanceRecord, 0, len(r.records))
	for _, record := range r.records {
		if s := cfg.Status(); s != nil && record.Status != *s {
			continue
		}
		matched = append(matched, record)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].Date.After(matched[j].Date)
	})

	page := paginate(matched, offset, limit)
	result := make([]*model.AttendanceRecord, 0, len(page))
	for _, record := range page {
		result = append(result, copyRecord(record))
	}
	return result, len(matched), nil
}

func (r *attendanceRecordRepository) DeleteByDate(ctx context.Context, date time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := model.DateKey(date)
	if _, ok := r.records[key]; !ok {
		return goerr.Wrap(ErrNotFound, "attendance record not found", goerr.V("date", key))
	}
	delete(r.records, key)
	return nil
}

// paginate returns the window [offset, offset+limit) of items. A non-positive limit
// means no upper bound.
func paginate[T any](items []T, offset, limit int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return nil
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}
