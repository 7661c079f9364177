package ranking

import "errors"

// Sentinel kinds for ranking errors.
var (
	ErrInvalidRecordBatch = errors.New("invalid record batch")
	ErrNoLocation         = errors.New("ranking location not configured")
)
