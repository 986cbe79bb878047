package model

import "strings"

const (
	emailKeyPrefix = "email:"
	nameKeyPrefix  = "name:"
)

// IdentityKey derives the grouping key of an entry. A non-blank email wins, then
// first+last name, then first name alone. All parts are lower-cased.
func IdentityKey(e AttendanceEntry) string {
	if email := strings.TrimSpace(e.Email); email != "" {
		return emailKeyPrefix + strings.ToLower(email)
	}

	first := strings.ToLower(strings.TrimSpace(e.FirstName))
	if last := strings.TrimSpace(e.LastName); last != "" {
		return nameKeyPrefix + first + "_" + strings.ToLower(last)
	}
	return nameKeyPrefix + first
}

// IsExcluded reports whether the full name contains any excluded name, ignoring case
func IsExcluded(fullName string, excludeNames []string) bool {
	lower := strings.ToLower(fullName)
	for _, name := range excludeNames {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		if strings.Contains(lower, name) {
			return true
		}
	}
	return false
}

// Aggregate groups entries into per-identity totals. Entries whose full name matches
// an excluded name are dropped entirely. The identifier of a group comes from the
// first entry seen for its key; groups are returned in first-seen order.
func Aggregate(entries []AttendanceEntry, excludeNames []string) []*AggregatedAttendee {
	index := make(map[string]*AggregatedAttendee)
	var result []*AggregatedAttendee

	for _, e := range entries {
		if IsExcluded(e.FullName(), excludeNames) {
			continue
		}

		key := IdentityKey(e)
		attendee, ok := index[key]
		if !ok {
			attendee = &AggregatedAttendee{
				Key: key,
				Identifier: Identifier{
					FirstName: strings.TrimSpace(e.FirstName),
					LastName:  strings.TrimSpace(e.LastName),
					Email:     strings.ToLower(strings.TrimSpace(e.Email)),
				},
			}
			index[key] = attendee
			result = append(result, attendee)
		}

		attendee.TotalDuration += e.Duration
		attendee.Sessions = append(attendee.Sessions, Session{
			Duration:   e.Duration,
			TimeJoined: e.TimeJoined,
			TimeExited: e.TimeExited,
		})
	}

	return result
}
