package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrNotStarted   = errors.New("service not started")
	ErrBackpressure = errors.New("ingestion queue is full")
	ErrPeriodClosed = errors.New("period already closed")
	ErrUnknownChat  = errors.New("unknown chat")
	ErrNoLocation   = errors.New("service location not configured")
)
