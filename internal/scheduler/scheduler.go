// Package scheduler runs the league's periodic jobs: the end-of-league
// advise, the month close and the daily character plays.
package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/mooot/league/pkg/logger"
	"github.com/mooot/league/pkg/metrics"
)

const defaultTick = time.Minute

// Job is a unit of scheduled work. now is the instant the job was due.
type Job interface {
	Name() string
	Run(ctx context.Context, now time.Time) error
}

// JobFunc adapts a function to Job.
type JobFunc struct {
	JobName string
	Fn      func(ctx context.Context, now time.Time) error
}

func (j JobFunc) Name() string { return j.JobName }

func (j JobFunc) Run(ctx context.Context, now time.Time) error { return j.Fn(ctx, now) }

type scheduledJob struct {
	job      Job
	schedule Schedule
	nextRun  time.Time
	runs     int64
	failures int64
}

// Scheduler checks its jobs on every tick and runs those that are due.
type Scheduler struct {
	mu   sync.Mutex
	jobs map[string]*scheduledJob

	tick   time.Duration
	now    func() time.Time
	logger logger.Logger
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithTick sets how often due jobs are checked.
func WithTick(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.tick = d
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates an empty Scheduler.
func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		jobs:   make(map[string]*scheduledJob),
		tick:   defaultTick,
		now:    time.Now,
		logger: logger.Get().Named("scheduler"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register adds job to run on schedule.
func (s *Scheduler) Register(job Job, schedule Schedule) error {
	if job == nil {
		return ErrNilJob
	}
	if schedule == nil {
		return ErrNilSchedule
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	name := job.Name()
	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("%w: %s", ErrJobAlreadyExists, name)
	}
	sj := &scheduledJob{job: job, schedule: schedule, nextRun: schedule.Next(s.now())}
	s.jobs[name] = sj
	s.logger.Info(context.Background(), "job registered",
		logger.String("job", name),
		logger.String("schedule", schedule.String()),
		logger.Time("next_run", sj.nextRun),
	)
	return nil
}

// NextRuns reports when each job runs next.
func (s *Scheduler) NextRuns() map[string]time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]time.Time, len(s.jobs))
	for name, sj := range s.jobs {
		out[name] = sj.nextRun
	}
	return out
}

// Run checks for due jobs every tick until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	s.logger.Info(ctx, "scheduler started", logger.Duration("tick", s.tick))
	for {
		select {
		case <-ctx.Done():
			s.logger.Info(ctx, "scheduler stopped")
			return
		case <-ticker.C:
			s.RunDue(ctx)
		}
	}
}

// RunDue runs every job whose next run is not after now, in name order,
// and returns their names. A job runs at most once per call and is then
// rescheduled strictly after now, so a missed slot is not replayed twice.
func (s *Scheduler) RunDue(ctx context.Context) []string {
	now := s.now()

	s.mu.Lock()
	var due []*scheduledJob
	for _, sj := range s.jobs {
		if !sj.nextRun.After(now) {
			due = append(due, sj)
			sj.nextRun = sj.schedule.Next(now)
		}
	}
	s.mu.Unlock()

	sort.Slice(due, func(i, j int) bool { return due[i].job.Name() < due[j].job.Name() })
	names := make([]string, 0, len(due))
	for _, sj := range due {
		names = append(names, sj.job.Name())
		s.execute(ctx, sj, now)
	}
	return names
}

func (s *Scheduler) execute(ctx context.Context, sj *scheduledJob, now time.Time) {
	name := sj.job.Name()
	start := time.Now()
	err := sj.job.Run(ctx, now)
	metrics.RecordSchedulerRun(name)

	s.mu.Lock()
	sj.runs++
	if err != nil {
		sj.failures++
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Error(ctx, "job failed", logger.String("job", name), logger.Error(err))
		return
	}
	s.logger.Info(ctx, "job completed", logger.String("job", name), logger.Duration("took", time.Since(start)))
}
