package repository

import "errors"

// Sentinel kinds for storage errors.
var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidRecord    = errors.New("invalid game record")
	ErrInvalidGrant     = errors.New("invalid award grant")
	ErrInvalidCharacter = errors.New("invalid character")
	ErrEmptyRunID       = errors.New("award run id is required")
)
