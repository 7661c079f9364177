// Package timeutil holds calendar helpers evaluated in a civil timezone.
package timeutil

import "time"

// MonthWindow returns [first day of the month, first day of next month) of
// now, both at local midnight in loc.
func MonthWindow(now time.Time, loc *time.Location) (from, to time.Time) {
	local := now.In(loc)
	from = time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc)
	return from, from.AddDate(0, 1, 0)
}

// DayWindow returns [local midnight, next local midnight) of now. The window
// is 23 or 25 hours long on DST transition days.
func DayWindow(now time.Time, loc *time.Location) (from, to time.Time) {
	local := now.In(loc)
	from = time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return from, from.AddDate(0, 0, 1)
}

// PeriodCode is the league period of now: the month number, 1..12.
func PeriodCode(now time.Time, loc *time.Location) int {
	return int(now.In(loc).Month())
}

// LastDayOfMonth returns the number of days in the month of now.
func LastDayOfMonth(now time.Time, loc *time.Location) int {
	local := now.In(loc)
	return time.Date(local.Year(), local.Month()+1, 0, 0, 0, 0, 0, loc).Day()
}

// IsLastDayOfMonth reports whether now falls on the last day of its month.
func IsLastDayOfMonth(now time.Time, loc *time.Location) bool {
	return now.In(loc).Day() == LastDayOfMonth(now, loc)
}

// DaysRemainingInMonth counts the days left after today.
func DaysRemainingInMonth(now time.Time, loc *time.Location) int {
	return LastDayOfMonth(now, loc) - now.In(loc).Day()
}
