package awards

import "errors"

// Sentinel kinds for award errors.
var (
	ErrInvalidPolicy = errors.New("invalid trophy policy")
)
