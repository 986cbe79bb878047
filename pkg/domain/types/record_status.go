package types

import "fmt"

// RecordStatus represents the processing state of an uploaded attendance file
type RecordStatus string

const (
	RecordStatusPending   RecordStatus = "pending"
	RecordStatusProcessed RecordStatus = "processed"
	RecordStatusFailed    RecordStatus = "failed"
)

// AllRecordStatuses returns all valid record statuses
func AllRecordStatuses() []RecordStatus {
	return []RecordStatus{
		RecordStatusPending,
		RecordStatusProcessed,
		RecordStatusFailed,
	}
}

// IsValid checks if the record status is valid
func (s RecordStatus) IsValid() bool {
	switch s {
	case RecordStatusPending,
		RecordStatusProcessed,
		RecordStatusFailed:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further processing will happen for the record
func (s RecordStatus) IsTerminal() bool {
	return s == RecordStatusProcessed || s == RecordStatusFailed
}

// String returns the string representation of the record status
func (s RecordStatus) String() string {
	return string(s)
}

// ParseRecordStatus parses a string into a RecordStatus
func ParseRecordStatus(s string) (RecordStatus, error) {
	status := RecordStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid record status: %s", s)
	}
	return status, nil
}
