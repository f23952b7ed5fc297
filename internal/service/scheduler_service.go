package service

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// SchedulerService wraps cron-based jobs.
type SchedulerService struct {
	cron *cron.Cron
}

func NewSchedulerService(loc *time.Location, logger cron.Logger) *SchedulerService {
	if logger == nil {
		logger = cron.DiscardLogger
	}
	return &SchedulerService{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithSeconds(),
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
	}
}

func (s *SchedulerService) Start() {
	s.cron.Start()
}

// Stop halts the scheduler and waits for running jobs to finish.
func (s *SchedulerService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// ScheduleInterval registers a job that first fires after initialDelay and
// then every interval. A run that is still going when the next is due is
// skipped rather than overlapped.
func (s *SchedulerService) ScheduleInterval(interval, initialDelay time.Duration, job func()) (cron.EntryID, error) {
	if interval <= 0 {
		return 0, fmt.Errorf("interval must be positive")
	}
	if initialDelay < 0 {
		return 0, fmt.Errorf("initial delay must not be negative")
	}
	sched := &delayedSchedule{
		first: time.Now().Add(initialDelay),
		every: cron.Every(interval),
	}
	return s.cron.Schedule(sched, cron.FuncJob(job)), nil
}

// delayedSchedule fires once at first, then follows every.
type delayedSchedule struct {
	first time.Time
	every cron.ConstantDelaySchedule
	fired bool
}

func (d *delayedSchedule) Next(t time.Time) time.Time {
	if !d.fired {
		d.fired = true
		if d.first.After(t) {
			return d.first
		}
		return t
	}
	return d.every.Next(t)
}
