package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/secmon-lab/studyhall/pkg/domain/types"
)

// AttendanceRecordID is a UUID-based identifier for AttendanceRecord
type AttendanceRecordID string

// NewAttendanceRecordID generates a new UUID v4 AttendanceRecordID
func NewAttendanceRecordID() AttendanceRecordID {
	return AttendanceRecordID(uuid.New().String())
}

// AttendanceEntry is one join/exit session found in a meeting export.
// LastName is empty (never absent) when the export has no last name.
type AttendanceEntry struct {
	FirstName  string
	LastName   string
	Email      string
	Duration   int
	TimeJoined time.Time
	TimeExited time.Time
}

// FullName returns first and last name joined by a space, trimmed
func (e AttendanceEntry) FullName() string {
	return joinName(e.FirstName, e.LastName)
}

// Session is a single contiguous interval of an attendee
type Session struct {
	Duration   int
	TimeJoined time.Time
	TimeExited time.Time
}

// Identifier holds the name and email taken from the first entry of an identity
type Identifier struct {
	FirstName string
	LastName  string
	Email     string
}

// AggregatedAttendee is the per-identity total for one day
type AggregatedAttendee struct {
	Key           string
	Identifier    Identifier
	TotalDuration int
	Sessions      []Session
}

// SessionCount returns the number of sessions accumulated under the identity
func (a *AggregatedAttendee) SessionCount() int {
	return len(a.Sessions)
}

// RankingEntry is a display-ready ranked attendee
type RankingEntry struct {
	Rank                   int    `json:"rank"`
	FullName               string `json:"fullName"`
	FirstName              string `json:"firstName"`
	LastName               string `json:"lastName"`
	Email                  string `json:"email,omitempty"`
	TotalDuration          int    `json:"totalDuration"`
	TotalDurationFormatted string `json:"totalDurationFormatted"`
	SessionCount           int    `json:"sessionCount"`
}

// DailyRanking is the persisted ranking of a single calendar date
type DailyRanking struct {
	Date               time.Time
	Rankings           []RankingEntry
	TotalParticipants  int
	ComputedAt         time.Time
	AttendanceRecordID AttendanceRecordID
}

// AttendanceRecord is the persisted raw upload of a single calendar date
type AttendanceRecord struct {
	ID           AttendanceRecordID
	Date         time.Time
	Entries      []AttendanceEntry
	FileName     string
	FileType     types.FileType
	SourceURI    string
	Status       types.RecordStatus
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CopyEntries returns a copy of the entries slice so callers cannot mutate stored data
func CopyEntries(entries []AttendanceEntry) []AttendanceEntry {
	if entries == nil {
		return nil
	}
	copied := make([]AttendanceEntry, len(entries))
	copy(copied, entries)
	return copied
}

// CopyRankings returns a copy of the rankings slice
func CopyRankings(rankings []RankingEntry) []RankingEntry {
	if rankings == nil {
		return nil
	}
	copied := make([]RankingEntry, len(rankings))
	copy(copied, rankings)
	return copied
}
