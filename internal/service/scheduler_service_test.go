package service

import (
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDelayedScheduleFirstThenEvery(t *testing.T) {
	start := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	sched := &delayedSchedule{
		first: start.Add(5 * time.Second),
		every: cron.Every(10 * time.Second),
	}

	assert.Equal(t, start.Add(5*time.Second), sched.Next(start))
	assert.Equal(t, start.Add(15*time.Second), sched.Next(start.Add(5*time.Second)))
	assert.Equal(t, start.Add(25*time.Second), sched.Next(start.Add(15*time.Second)))
}

func TestDelayedSchedulePastFirstFiresNow(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	sched := &delayedSchedule{first: now.Add(-time.Minute), every: cron.Every(time.Minute)}
	assert.Equal(t, now, sched.Next(now))
}

func TestScheduleIntervalValidation(t *testing.T) {
	s := NewSchedulerService(time.UTC, nil)

	_, err := s.ScheduleInterval(0, 0, func() {})
	assert.Error(t, err)

	_, err = s.ScheduleInterval(time.Second, -time.Second, func() {})
	assert.Error(t, err)
}

func TestScheduleIntervalRunsAfterInitialDelay(t *testing.T) {
	s := NewSchedulerService(time.UTC, nil)
	fired := make(chan struct{}, 1)

	_, err := s.ScheduleInterval(time.Hour, 0, func() {
		select {
		case fired <- struct{}{}:
		default:
		}
	})
	require.NoError(t, err)

	s.Start()
	defer s.Stop()

	select {
	case <-fired:
	case <-time.After(3 * time.Second):
		t.Fatal("job did not fire after initial delay")
	}
}
