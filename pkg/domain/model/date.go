package model

import (
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
)

// DateLayout is the wire and storage-key format of a ranking date
const DateLayout = "2006-01-02"

// ErrInvalidDate is returned when a date string cannot be parsed
var ErrInvalidDate = goerr.New("invalid date")

// TruncateDay returns midnight UTC of the calendar day t falls on in its own location
func TruncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateKey returns the natural key of the day, e.g. "2024-03-01"
func DateKey(t time.Time) string {
	return TruncateDay(t).Format(DateLayout)
}

// ParseDate parses "YYYY-MM-DD" (an RFC3339 timestamp is also accepted) into a day
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, goerr.Wrap(ErrInvalidDate, "date is empty")
	}

	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return TruncateDay(t), nil
	}

	return time.Time{}, goerr.Wrap(ErrInvalidDate, "date must be YYYY-MM-DD", goerr.V("date", s))
}
