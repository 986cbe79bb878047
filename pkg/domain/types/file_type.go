package types

import "fmt"

// FileType is the container format of an attendance export
type FileType string

const (
	FileTypePDF  FileType = "pdf"
	FileTypeXLSX FileType = "xlsx"
)

// IsValid checks if the file type is supported
func (t FileType) IsValid() bool {
	switch t {
	case FileTypePDF, FileTypeXLSX:
		return true
	default:
		return false
	}
}

// ContentType returns the MIME type used when the file is archived or served
func (t FileType) ContentType() string {
	switch t {
	case FileTypePDF:
		return "application/pdf"
	case FileTypeXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/octet-stream"
	}
}

func (t FileType) String() string {
	return string(t)
}

// ParseFileType parses a string into a FileType
func ParseFileType(s string) (FileType, error) {
	ft := FileType(s)
	if !ft.IsValid() {
		return "", fmt.Errorf("unsupported file type: %s", s)
	}
	return ft, nil
}
