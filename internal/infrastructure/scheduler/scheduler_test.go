package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingJob struct {
	name string
	runs atomic.Int64
	err  error
}

func (j *countingJob) Name() string        { return j.name }
func (j *countingJob) Description() string { return "test job" }

func (j *countingJob) Run(ctx context.Context) error {
	j.runs.Add(1)
	return j.err
}

func TestRegister_Validation(t *testing.T) {
	s := NewScheduler(DefaultSchedulerConfig())

	assert.ErrorIs(t, s.Register(nil, NewIntervalSchedule(time.Second)), ErrNilJob)
	assert.ErrorIs(t, s.Register(&countingJob{name: "a"}, nil), ErrNilSchedule)

	require.NoError(t, s.Register(&countingJob{name: "a"}, NewIntervalSchedule(time.Second)))
	assert.ErrorIs(t, s.Register(&countingJob{name: "a"}, NewIntervalSchedule(time.Second)), ErrJobAlreadyExists)
}

func TestScheduler_RunsDueJobs(t *testing.T) {
	s := NewScheduler(DefaultSchedulerConfig())
	job := &countingJob{name: "rebuild_leaderboard"}
	require.NoError(t, s.Register(job, NewIntervalSchedule(10*time.Millisecond)))

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	assert.Eventually(t, func() bool {
		return job.runs.Load() >= 2
	}, 2*time.Second, 5*time.Millisecond)
}

func TestScheduler_StartStopLifecycle(t *testing.T) {
	s := NewScheduler(DefaultSchedulerConfig())

	assert.ErrorIs(t, s.Stop(), ErrSchedulerNotRunning)

	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsRunning())
	assert.ErrorIs(t, s.Start(context.Background()), ErrSchedulerAlreadyRunning)

	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())
}

func TestScheduler_StopWaitsForJobs(t *testing.T) {
	s := NewScheduler(DefaultSchedulerConfig())

	var finished atomic.Int64
	slow := &funcJob{name: "slow", fn: func(ctx context.Context) error {
		time.Sleep(50 * time.Millisecond)
		finished.Add(1)
		return nil
	}}
	require.NoError(t, s.Register(slow, NewIntervalSchedule(time.Millisecond)))
	require.NoError(t, s.Start(context.Background()))

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, s.Stop())

	assert.Positive(t, finished.Load(), "Stop returned before the running job finished")
}

type funcJob struct {
	name string
	fn   func(ctx context.Context) error
}

func (j *funcJob) Name() string                  { return j.name }
func (j *funcJob) Description() string           { return "test job" }
func (j *funcJob) Run(ctx context.Context) error { return j.fn(ctx) }

func TestIntervalSchedule_Next(t *testing.T) {
	sch := NewIntervalSchedule(5 * time.Minute)
	now := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, now.Add(5*time.Minute), sch.Next(now))
}
