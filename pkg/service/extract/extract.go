package extract

import (
	"bytes"
	"context"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/studyhall/pkg/domain/model"
	"github.com/secmon-lab/studyhall/pkg/domain/types"
	"github.com/secmon-lab/studyhall/pkg/utils/logging"
)

var (
	// ErrUnsupportedFile is returned when the bytes are neither a PDF nor a spreadsheet
	ErrUnsupportedFile = goerr.New("unsupported file type")

	// ErrParseFailed is returned when the file structure itself cannot be read
	ErrParseFailed = goerr.New("failed to parse attendance file")
)

var (
	pdfMagic = []byte("%PDF")
	zipMagic = []byte("PK\x03\x04")
)

// DetectFileType sniffs the magic bytes of data, falling back to the MIME type
// reported by the client. ok is false when neither identifies a supported format.
func DetectFileType(data []byte, mimeHint string) (types.FileType, bool) {
	switch {
	case bytes.HasPrefix(data, pdfMagic):
		return types.FileTypePDF, true
	case bytes.HasPrefix(data, zipMagic):
		return types.FileTypeXLSX, true
	}

	mime := strings.ToLower(strings.TrimSpace(mimeHint))
	if i := strings.Index(mime, ";"); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}
	switch mime {
	case types.FileTypePDF.ContentType(), "application/x-pdf":
		return types.FileTypePDF, true
	case types.FileTypeXLSX.ContentType():
		return types.FileTypeXLSX, true
	}
	return "", false
}

// Extract reads attendance entries from a file of the given type. Clock-only times in
// the file are placed on the day of ref. Malformed rows are dropped, not reported.
func Extract(ctx context.Context, data []byte, fileType types.FileType, ref time.Time) ([]model.AttendanceEntry, error) {
	var (
		entries []model.AttendanceEntry
		err     error
	)

	switch fileType {
	case types.FileTypeXLSX:
		entries, err = Spreadsheet(ctx, data, ref)
	case types.FileTypePDF:
		entries, err = PDF(ctx, data, ref)
	default:
		return nil, goerr.Wrap(ErrUnsupportedFile, "cannot extract", goerr.V("file_type", fileType))
	}
	if err != nil {
		return nil, err
	}

	logging.From(ctx).Debug("extracted attendance entries",
		"file_type", fileType,
		"entries", len(entries),
	)
	return entries, nil
}
