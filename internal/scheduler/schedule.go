package scheduler

import (
	"fmt"
	"time"

	"github.com/mooot/league/pkg/timeutil"
)

// Schedule defines when a job should run.
type Schedule interface {
	// Next returns the first run time strictly after t.
	Next(t time.Time) time.Time

	String() string
}

// Daily fires every day at Hour:00 UTC.
type Daily struct {
	Hour int
}

func (d Daily) Next(t time.Time) time.Time {
	t = t.UTC()
	next := time.Date(t.Year(), t.Month(), t.Day(), d.Hour, 0, 0, 0, time.UTC)
	if !next.After(t) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

func (d Daily) String() string { return fmt.Sprintf("daily at %02d:00 UTC", d.Hour) }

// LastDayOfMonth fires at Hour:00 UTC on the last day of each month of the
// league calendar in Location.
type LastDayOfMonth struct {
	Hour     int
	Location *time.Location
}

func (l LastDayOfMonth) Next(t time.Time) time.Time {
	loc := l.Location
	if loc == nil {
		loc = time.UTC
	}
	next := Daily{Hour: l.Hour}.Next(t)
	for !timeutil.IsLastDayOfMonth(next, loc) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

func (l LastDayOfMonth) String() string {
	return fmt.Sprintf("last day of month at %02d:00 UTC", l.Hour)
}
