package usecase

import (
	"errors"

	"github.com/secmon-lab/studyhall/pkg/service/extract"
)

// Sentinel errors for use case layer
var (
	// Upload errors
	ErrUnsupportedFile = extract.ErrUnsupportedFile
	ErrParseFailed     = extract.ErrParseFailed
	ErrNoValidEntries  = errors.New("no valid entries found")

	// Not found errors
	ErrNoData = errors.New("no data for date")

	// Input errors
	ErrDateRequired = errors.New("date is required")
	ErrInvalidInput = errors.New("invalid input")

	// Access control errors
	ErrAuthRequired  = errors.New("authentication required")
	ErrAdminRequired = errors.New("admin privileges required")
)

// Context keys for error values
const (
	DateKey     = "date"
	RecordIDKey = "record_id"
	FileNameKey = "file_name"
)
