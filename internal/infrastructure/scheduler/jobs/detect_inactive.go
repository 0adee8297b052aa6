package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/regen-hub/regenmon-hub/internal/domain/creature"
	"github.com/regen-hub/regenmon-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// DETECT INACTIVE JOB
// ══════════════════════════════════════════════════════════════════════════════

// DetectInactiveJob finds creatures whose last sync is older than the
// threshold and flags them inactive. Flagged creatures reject interactions
// but keep their leaderboard position; the emitted event drives the owner
// reminder.
type DetectInactiveJob struct {
	creatureRepo   creature.Repository
	eventPublisher shared.EventPublisher
	logger         *slog.Logger

	config DetectInactiveConfig

	lastRunStats atomic.Value // *DetectInactiveStats
}

// DetectInactiveConfig contains configuration for the inactivity detector.
type DetectInactiveConfig struct {
	// StaleThreshold is how long without a sync counts as inactive.
	StaleThreshold time.Duration

	// Timeout is the maximum duration for one run.
	Timeout time.Duration
}

// DefaultDetectInactiveConfig returns sensible defaults.
func DefaultDetectInactiveConfig() DetectInactiveConfig {
	return DetectInactiveConfig{
		StaleThreshold: 72 * time.Hour,
		Timeout:        time.Minute,
	}
}

// DetectInactiveStats contains statistics from a detector run.
type DetectInactiveStats struct {
	StartedAt   time.Time
	CompletedAt time.Time
	Duration    time.Duration
	StaleFound  int
	Flagged     int
	Errors      []error
}

// NewDetectInactiveJob creates a new inactivity detector job.
func NewDetectInactiveJob(
	creatureRepo creature.Repository,
	eventPublisher shared.EventPublisher,
	logger *slog.Logger,
	config DetectInactiveConfig,
) *DetectInactiveJob {
	if logger == nil {
		logger = slog.Default()
	}
	if config.StaleThreshold <= 0 {
		config.StaleThreshold = DefaultDetectInactiveConfig().StaleThreshold
	}

	return &DetectInactiveJob{
		creatureRepo:   creatureRepo,
		eventPublisher: eventPublisher,
		logger:         logger,
		config:         config,
	}
}

// Name returns the job name.
func (j *DetectInactiveJob) Name() string {
	return "detect_inactive"
}

// Description returns a human-readable description.
func (j *DetectInactiveJob) Description() string {
	return "Flags creatures without a recent sync as inactive and emits reminder events"
}

// Run executes the detector.
func (j *DetectInactiveJob) Run(ctx context.Context) error {
	startedAt := time.Now()
	stats := &DetectInactiveStats{
		StartedAt: startedAt,
		Errors:    make([]error, 0),
	}

	j.logger.Info("starting detect_inactive job", "threshold", j.config.StaleThreshold)

	if j.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.config.Timeout)
		defer cancel()
	}

	stale, err := j.creatureRepo.FindStale(ctx, j.config.StaleThreshold)
	if err != nil {
		return fmt.Errorf("failed to find stale creatures: %w", err)
	}
	stats.StaleFound = len(stale)

	for _, c := range stale {
		if err := j.flag(ctx, c); err != nil {
			stats.Errors = append(stats.Errors, err)
			j.logger.Error("failed to flag creature inactive",
				"creature_id", c.ID,
				"error", err,
			)
			continue
		}
		stats.Flagged++
	}

	stats.CompletedAt = time.Now()
	stats.Duration = stats.CompletedAt.Sub(startedAt)
	j.lastRunStats.Store(stats)

	j.logger.Info("detect_inactive completed",
		"stale", stats.StaleFound,
		"flagged", stats.Flagged,
		"duration", stats.Duration,
		"errors", len(stats.Errors),
	)

	return nil
}

// LastStats returns the stats of the most recent run, or nil.
func (j *DetectInactiveJob) LastStats() *DetectInactiveStats {
	stats, _ := j.lastRunStats.Load().(*DetectInactiveStats)
	return stats
}

// flag marks one creature inactive and emits the event.
func (j *DetectInactiveJob) flag(ctx context.Context, c *creature.Creature) error {
	c.MarkInactive()

	if err := j.creatureRepo.Update(ctx, c); err != nil {
		return fmt.Errorf("update %s: %w", c.ID, err)
	}

	if j.eventPublisher != nil {
		_ = j.eventPublisher.Publish(shared.NewCreatureInactiveEvent(
			c.ID, c.DaysSinceLastSync(), c.LastSyncAt,
		))
	}

	return nil
}
