package memory

import (
	"github.com/secmon-lab/studyhall/pkg/domain/interfaces"
)

// Repository is an alias for Memory to match the pattern
type Repository = Memory

type Memory struct {
	record  *attendanceRecordRepository
	ranking *dailyRankingRepository
}

var _ interfaces.Repository = &Memory{}

func New() *Memory {
	return &Memory{
		record:  newAttendanceRecordRepository(),
		ranking: newDailyRankingRepository(),
	}
}

func (m *Memory) AttendanceRecord() interfaces.AttendanceRecordRepository {
	return m.record
}

func (m *Memory) DailyRanking() interfaces.DailyRankingRepository {
	return m.ranking
}

func (m *Memory) Close() error {
	return nil
}
