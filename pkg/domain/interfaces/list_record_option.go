package interfaces

import "github.com/secmon-lab/studyhall/pkg/domain/types"

// ListRecordOption is a functional option for filtering attendance records in List
type ListRecordOption func(*listRecordConfig)

type listRecordConfig struct {
	status *types.RecordStatus
}

// WithStatus filters attendance records by processing status
func WithStatus(status types.RecordStatus) ListRecordOption {
	return func(c *listRecordConfig) {
		c.status = &status
	}
}

// BuildListRecordConfig builds a listRecordConfig from options
func BuildListRecordConfig(opts ...ListRecordOption) *listRecordConfig {
	cfg := &listRecordConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Status returns the status filter value, or nil if not set
func (c *listRecordConfig) Status() *types.RecordStatus {
	return c.status
}
