package scheduler

import (
	"context"
	"time"
)

// Job names.
const (
	JobAdvise     = "advise"
	JobClose      = "close"
	JobCharacters = "characters"
)

// League is what the scheduled jobs drive.
type League interface {
	SendAdvise(ctx context.Context, now time.Time) error
	CloseMonthAll(ctx context.Context, now time.Time) error
	PlayCharacters(ctx context.Context, now time.Time) error
}

// Hours sets the UTC hour of each job.
type Hours struct {
	Advise     int
	Close      int
	Characters int
}

// RegisterLeague registers the three league jobs on s.
func RegisterLeague(s *Scheduler, league League, hours Hours, loc *time.Location) error {
	jobs := []struct {
		job      Job
		schedule Schedule
	}{
		{JobFunc{JobName: JobAdvise, Fn: league.SendAdvise}, LastDayOfMonth{Hour: hours.Advise, Location: loc}},
		{JobFunc{JobName: JobClose, Fn: league.CloseMonthAll}, LastDayOfMonth{Hour: hours.Close, Location: loc}},
		{JobFunc{JobName: JobCharacters, Fn: league.PlayCharacters}, Daily{Hour: hours.Characters}},
	}
	for _, j := range jobs {
		if err := s.Register(j.job, j.schedule); err != nil {
			return err
		}
	}
	return nil
}
