// Package jobs contains implementations of scheduled jobs for Regenmon Hub.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/regen-hub/regenmon-hub/internal/domain/creature"
	"github.com/regen-hub/regenmon-hub/internal/domain/leaderboard"
	"github.com/regen-hub/regenmon-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REBUILD LEADERBOARD JOB
// ══════════════════════════════════════════════════════════════════════════════

// RebuildLeaderboardJob rebuilds the materialized ranking from creature rows.
// Dead creatures stay ranked (flagged, not removed); rank changes are computed
// against the previous build and land in the entries themselves.
type RebuildLeaderboardJob struct {
	creatureRepo     creature.Repository
	leaderboardRepo  leaderboard.Repository
	leaderboardCache leaderboard.Cache
	eventPublisher   shared.EventPublisher
	logger           *slog.Logger

	config RebuildLeaderboardConfig

	lastRebuildStats atomic.Value // *RebuildStats
}

// RebuildLeaderboardConfig contains configuration for the rebuild job.
type RebuildLeaderboardConfig struct {
	// BatchSize is how many creatures are loaded per page.
	BatchSize int

	// Timeout is the maximum duration for one rebuild run.
	Timeout time.Duration
}

// DefaultRebuildLeaderboardConfig returns sensible defaults.
func DefaultRebuildLeaderboardConfig() RebuildLeaderboardConfig {
	return RebuildLeaderboardConfig{
		BatchSize: 500,
		Timeout:   2 * time.Minute,
	}
}

// RebuildStats contains statistics from a rebuild run.
type RebuildStats struct {
	StartedAt        time.Time
	CompletedAt      time.Time
	Duration         time.Duration
	TotalCreatures   int
	RankChangesFound int
	NewEntries       int
	Errors           []error
}

// NewRebuildLeaderboardJob creates a new rebuild leaderboard job.
func NewRebuildLeaderboardJob(
	creatureRepo creature.Repository,
	leaderboardRepo leaderboard.Repository,
	leaderboardCache leaderboard.Cache,
	eventPublisher shared.EventPublisher,
	logger *slog.Logger,
	config RebuildLeaderboardConfig,
) *RebuildLeaderboardJob {
	if logger == nil {
		logger = slog.Default()
	}

	return &RebuildLeaderboardJob{
		creatureRepo:     creatureRepo,
		leaderboardRepo:  leaderboardRepo,
		leaderboardCache: leaderboardCache,
		eventPublisher:   eventPublisher,
		logger:           logger,
		config:           config,
	}
}

// Name returns the job name.
func (j *RebuildLeaderboardJob) Name() string {
	return "rebuild_leaderboard"
}

// Description returns a human-readable description.
func (j *RebuildLeaderboardJob) Description() string {
	return "Rebuilds the materialized leaderboard from creature rows and records rank changes"
}

// Run executes the rebuild job.
func (j *RebuildLeaderboardJob) Run(ctx context.Context) error {
	startedAt := time.Now()
	stats := &RebuildStats{
		StartedAt: startedAt,
		Errors:    make([]error, 0),
	}

	j.logger.Info("starting rebuild_leaderboard job")

	if j.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.config.Timeout)
		defer cancel()
	}

	creatures, err := j.loadAllCreatures(ctx)
	if err != nil {
		return fmt.Errorf("failed to load creatures: %w", err)
	}

	stats.TotalCreatures = len(creatures)
	if stats.TotalCreatures == 0 {
		j.finish(stats)
		return nil
	}

	previous, err := j.leaderboardRepo.GetRankMap(ctx)
	if err != nil {
		// without the previous map every entry just reports no movement
		stats.Errors = append(stats.Errors, err)
		j.logger.Warn("previous rank map unavailable", "error", err)
		previous = map[string]leaderboard.Rank{}
	}

	ranking := leaderboard.NewRanking()
	for _, c := range creatures {
		entry, err := leaderboard.NewEntry(
			c.ID, c.Name, c.Stage.Int(), c.TotalPoints, c.Balance, c.RegisteredAt,
		)
		if err != nil {
			stats.Errors = append(stats.Errors, fmt.Errorf("entry for %s: %w", c.ID, err))
			continue
		}
		entry.IsAlive = !c.IsDead()

		if err := ranking.Add(entry); err != nil {
			stats.Errors = append(stats.Errors, fmt.Errorf("add %s: %w", c.ID, err))
		}
	}

	ranking.Sort()
	ranking.ApplyPrevious(previous)

	for _, entry := range ranking.All() {
		if _, ok := previous[entry.CreatureID]; !ok {
			stats.NewEntries++
		} else if entry.RankChange != 0 {
			stats.RankChangesFound++
		}
	}

	if err := j.leaderboardRepo.SaveRanking(ctx, ranking); err != nil {
		return fmt.Errorf("failed to save ranking: %w", err)
	}

	if err := j.leaderboardCache.InvalidateAll(ctx); err != nil {
		stats.Errors = append(stats.Errors, err)
		j.logger.Warn("leaderboard cache invalidation failed", "error", err)
	}

	if j.eventPublisher != nil {
		if err := j.eventPublisher.Publish(shared.NewLeaderboardUpdatedEvent(ranking.Count())); err != nil {
			stats.Errors = append(stats.Errors, err)
		}
	}

	j.finish(stats)
	j.logger.Info("rebuild_leaderboard completed",
		"creatures", stats.TotalCreatures,
		"rank_changes", stats.RankChangesFound,
		"new_entries", stats.NewEntries,
		"duration", stats.Duration,
		"errors", len(stats.Errors),
	)

	return nil
}

// LastStats returns the stats of the most recent run, or nil.
func (j *RebuildLeaderboardJob) LastStats() *RebuildStats {
	stats, _ := j.lastRebuildStats.Load().(*RebuildStats)
	return stats
}

// loadAllCreatures pages through the whole population, inactive included.
func (j *RebuildLeaderboardJob) loadAllCreatures(ctx context.Context) ([]*creature.Creature, error) {
	batchSize := j.config.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultRebuildLeaderboardConfig().BatchSize
	}

	var all []*creature.Creature
	for offset := 0; ; offset += batchSize {
		opts := creature.DefaultListOptions().
			WithOffset(offset).
			WithLimit(batchSize).
			WithInactive()

		batch, err := j.creatureRepo.GetAll(ctx, opts)
		if err != nil {
			return nil, err
		}

		all = append(all, batch...)
		if len(batch) < batchSize {
			return all, nil
		}
	}
}

func (j *RebuildLeaderboardJob) finish(stats *RebuildStats) {
	stats.CompletedAt = time.Now()
	stats.Duration = stats.CompletedAt.Sub(stats.StartedAt)
	j.lastRebuildStats.Store(stats)
}
