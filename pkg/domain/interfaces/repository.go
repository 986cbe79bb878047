package interfaces

import "errors"

// ErrNotFound is returned by every repository backend when nothing is stored under the key
var ErrNotFound = errors.New("not found")

// Repository defines the interface for data persistence.
// Both collections are keyed by calendar date.
type Repository interface {
	AttendanceRecord() AttendanceRecordRepository
	DailyRanking() DailyRankingRepository

	Close() error
}
