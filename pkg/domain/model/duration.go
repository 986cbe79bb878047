package model

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	hourPattern   = regexp.MustCompile(`(?i)(\d+)\s*hr`)
	minutePattern = regexp.MustCompile(`(?i)(\d+)\s*min`)
	secondPattern = regexp.MustCompile(`(?i)(\d+)\s*sec`)

	clockPattern = regexp.MustCompile(`^(\d{1,2}):(\d{2})(?::(\d{2}))?(?:\s*([AaPp][Mm]))?$`)
)

// ParseDuration converts text such as "1 hr 15 min" or "45 sec" into whole minutes.
// Units may appear in any order and missing units count as zero. Seconds are rounded
// to the nearest minute. Text without any unit yields 0.
func ParseDuration(text string) int {
	hours := firstNumber(hourPattern, text)
	minutes := firstNumber(minutePattern, text)
	seconds := firstNumber(secondPattern, text)

	return hours*60 + minutes + int(math.Round(float64(seconds)/60))
}

func firstNumber(re *regexp.Regexp, text string) int {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}

// FormatDuration renders minutes as "H hr M min", or "M min" when under an hour
func FormatDuration(minutes int) string {
	if minutes < 0 {
		minutes = 0
	}
	hours := minutes / 60
	rest := minutes % 60
	if hours > 0 {
		return fmt.Sprintf("%d hr %d min", hours, rest)
	}
	return fmt.Sprintf("%d min", rest)
}

// ParseClockTime parses "H:MM" or "H:MM AM/PM", with optional seconds, as a time on the day of now.
// Malformed input returns now so one bad cell cannot abort an import.
func ParseClockTime(text string, now time.Time) time.Time {
	t, ok := parseClock(text, now)
	if !ok {
		return now
	}
	return t
}

// parseClock is the strict form of ParseClockTime
func parseClock(text string, now time.Time) (time.Time, bool) {
	m := clockPattern.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return time.Time{}, false
	}

	hour, err := strconv.Atoi(m[1])
	if err != nil {
		return time.Time{}, false
	}
	minute, err := strconv.Atoi(m[2])
	if err != nil || minute > 59 {
		return time.Time{}, false
	}
	second := 0
	if m[3] != "" {
		second, err = strconv.Atoi(m[3])
		if err != nil || second > 59 {
			return time.Time{}, false
		}
	}

	switch strings.ToUpper(m[4]) {
	case "AM":
		if hour < 1 || hour > 12 {
			return time.Time{}, false
		}
		if hour == 12 {
			hour = 0
		}
	case "PM":
		if hour < 1 || hour > 12 {
			return time.Time{}, false
		}
		if hour != 12 {
			hour += 12
		}
	default:
		if hour > 23 {
			return time.Time{}, false
		}
	}

	y, mo, d := now.Date()
	return time.Date(y, mo, d, hour, minute, second, 0, now.Location()), true
}

// timestampLayouts are full date-time layouts seen in spreadsheet exports
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"1/2/2006 3:04:05 PM",
	"1/2/2006 3:04 PM",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"1/2/06 3:04:05 PM",
	"1/2/06 3:04 PM",
	"1/2/06 15:04:05",
	"1/2/06 15:04",
	"01-02-06 15:04",
	"Jan 2, 2006 3:04 PM",
}

// ParseTimestamp parses a spreadsheet time cell. Both full timestamps and bare clock
// times (interpreted on the day of now) are accepted. ok is false when nothing matches.
func ParseTimestamp(text string, now time.Time) (time.Time, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}, false
	}

	if t, ok := parseClock(text, now); ok {
		return t, true
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, text, now.Location()); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
