// Package scheduler runs the hub's background jobs: leaderboard
// rebuilds, stale-creature detection, the nightly ledger audit and the
// hourly stats snapshot. Jobs register once at startup with either an
// IntervalSchedule or a CronExpression; stat decay is not a job, it is
// computed lazily on read.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Job is one unit of background work.
type Job interface {
	// Name returns the unique name of the job.
	Name() string

	// Run executes the job. The context is cancelled when the
	// scheduler is stopping.
	Run(ctx context.Context) error

	// Description returns a human-readable description of the job.
	Description() string
}

// Schedule decides when a job runs.
type Schedule interface {
	// Next returns the first run time strictly after t.
	Next(t time.Time) time.Time

	// String returns a human-readable representation of the schedule.
	String() string
}

var (
	ErrNilJob                  = fmt.Errorf("job cannot be nil")
	ErrNilSchedule             = fmt.Errorf("schedule cannot be nil")
	ErrJobAlreadyExists        = fmt.Errorf("job already exists")
	ErrSchedulerAlreadyRunning = fmt.Errorf("scheduler is already running")
	ErrSchedulerNotRunning     = fmt.Errorf("scheduler is not running")
)

// SchedulerConfig contains configuration for the Scheduler.
type SchedulerConfig struct {
	Logger *slog.Logger

	// Timezone for schedule calculations. Cron jobs fire on this
	// clock, so it should be the hub timezone, not UTC.
	Timezone *time.Location
}

// DefaultSchedulerConfig returns sensible defaults.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Logger:   slog.Default(),
		Timezone: time.UTC,
	}
}

// Scheduler fires registered jobs when their schedules come due. Each
// run happens in its own goroutine so a slow snapshot cannot delay the
// leaderboard rebuild.
type Scheduler struct {
	logger   *slog.Logger
	timezone *time.Location

	mu      sync.Mutex
	jobs    map[string]*scheduledJob
	running bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

type scheduledJob struct {
	job      Job
	schedule Schedule
	nextRun  time.Time
	lastRun  time.Time
	failures int64
}

// NewScheduler creates a stopped scheduler.
func NewScheduler(config SchedulerConfig) *Scheduler {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Timezone == nil {
		config.Timezone = time.UTC
	}
	return &Scheduler{
		logger:   config.Logger,
		timezone: config.Timezone,
		jobs:     make(map[string]*scheduledJob),
	}
}

// Register adds a job. Names must be unique.
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

	sj := &scheduledJob{
		job:      job,
		schedule: schedule,
		nextRun:  schedule.Next(time.Now().In(s.timezone)),
	}
	s.jobs[name] = sj

	s.logger.Info("job registered",
		"job", name,
		"description", job.Description(),
		"next_run", sj.nextRun.Format(time.RFC3339),
	)
	return nil
}

// Start launches the scheduling loop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return ErrSchedulerAlreadyRunning
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.running = true

	s.logger.Info("scheduler started", "jobs_count", len(s.jobs))

	s.wg.Add(1)
	go s.loop()
	return nil
}

// Stop cancels the loop and waits for in-flight jobs to finish.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return ErrSchedulerNotRunning
	}
	s.running = false
	s.cancel()
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info("scheduler stopped")
	return nil
}

// IsRunning reports whether the loop is active.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// loop sleeps until the earliest due time instead of polling on a
// tick, then dispatches everything that came due.
func (s *Scheduler) loop() {
	defer s.wg.Done()

	for {
		wait := s.untilNextDue()
		timer := time.NewTimer(wait)
		select {
		case <-s.ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			s.dispatchDue()
		}
	}
}

// untilNextDue returns how long to sleep before a job is due. With no
// jobs registered it re-checks once a minute.
func (s *Scheduler) untilNextDue() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	var earliest time.Time
	for _, sj := range s.jobs {
		if earliest.IsZero() || sj.nextRun.Before(earliest) {
			earliest = sj.nextRun
		}
	}
	if earliest.IsZero() {
		return time.Minute
	}
	wait := time.Until(earliest)
	if wait < 0 {
		wait = 0
	}
	return wait
}

// dispatchDue runs every job whose nextRun has passed and advances it.
func (s *Scheduler) dispatchDue() {
	now := time.Now().In(s.timezone)

	s.mu.Lock()
	var due []*scheduledJob
	for _, sj := range s.jobs {
		if !sj.nextRun.After(now) {
			sj.lastRun = now
			sj.nextRun = sj.schedule.Next(now)
			due = append(due, sj)
		}
	}
	s.mu.Unlock()

	for _, sj := range due {
		s.wg.Add(1)
		go s.runJob(sj)
	}
}

func (s *Scheduler) runJob(sj *scheduledJob) {
	defer s.wg.Done()

	name := sj.job.Name()
	start := time.Now()
	s.logger.Info("job started", "job", name)

	err := sj.job.Run(s.ctx)
	duration := time.Since(start)

	if err != nil {
		s.mu.Lock()
		sj.failures++
		s.mu.Unlock()
		s.logger.Error("job failed",
			"job", name,
			"duration", duration.String(),
			"error", err,
		)
		return
	}
	s.logger.Info("job completed",
		"job", name,
		"duration", duration.String(),
	)
}
