package interfaces

import (
	"context"
	"time"
)

// FileArchive keeps the raw bytes of uploaded exports
type FileArchive interface {
	// Save stores data and returns a URI that identifies the stored object
	Save(ctx context.Context, date time.Time, fileName, contentType string, data []byte) (string, error)
}
