package model

import (
	"errors"
	"fmt"
	"strings"
)

// Period selects the time window a ranking is computed over.
type Period string

// Supported ranking windows.
const (
	PeriodAll   Period = "all"
	PeriodMonth Period = "month"
	PeriodDay   Period = "day"
)

// ErrUnknownPeriod is returned for unsupported window names.
var ErrUnknownPeriod = errors.New("unknown period")

// ParsePeriod parses a window name; empty defaults to month.
func ParsePeriod(s string) (Period, error) {
	switch Period(strings.ToLower(strings.TrimSpace(s))) {
	case "", PeriodMonth:
		return PeriodMonth, nil
	case PeriodDay:
		return PeriodDay, nil
	case PeriodAll:
		return PeriodAll, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPeriod, s)
	}
}
