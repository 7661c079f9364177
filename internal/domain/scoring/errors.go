package scoring

import "errors"

// Sentinel kinds for scoring errors.
var (
	ErrNotAShare      = errors.New("message is not a shared result")
	ErrInvalidAbility = errors.New("ability must be in 0..10")
)
