package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/regen-hub/regenmon-hub/internal/domain/creature"
	"github.com/regen-hub/regenmon-hub/internal/domain/leaderboard"
	"github.com/regen-hub/regenmon-hub/internal/domain/ledger"
	"github.com/regen-hub/regenmon-hub/internal/domain/training"
)

// ══════════════════════════════════════════════════════════════════════════════
// SNAPSHOT HUB STATS JOB
// ══════════════════════════════════════════════════════════════════════════════

// SnapshotHubStatsJob takes a point-in-time reading of the whole hub and
// appends it to the stats history. The admin dashboard reads the latest
// snapshot instead of aggregating live tables.
type SnapshotHubStatsJob struct {
	creatureRepo creature.Repository
	ledgerRepo   ledger.Repository
	trainingRepo training.Repository
	statsRepo    leaderboard.StatsRepository
	logger       *slog.Logger

	config SnapshotHubStatsConfig

	lastSnapshotStats atomic.Value // *SnapshotStats
}

// SnapshotHubStatsConfig contains configuration for the stats snapshot.
type SnapshotHubStatsConfig struct {
	// BatchSize is how many creatures are loaded per page.
	BatchSize int

	// RetentionDays is how long old snapshots are kept.
	RetentionDays int

	// Timeout is the maximum duration for one run.
	Timeout time.Duration
}

// DefaultSnapshotHubStatsConfig returns sensible defaults.
func DefaultSnapshotHubStatsConfig() SnapshotHubStatsConfig {
	return SnapshotHubStatsConfig{
		BatchSize:     500,
		RetentionDays: 90,
		Timeout:       2 * time.Minute,
	}
}

// SnapshotStats contains statistics from a snapshot run.
type SnapshotStats struct {
	StartedAt   time.Time
	CompletedAt time.Time
	Duration    time.Duration
	Snapshot    *leaderboard.HubStats
	Pruned      int
	Errors      []error
}

// NewSnapshotHubStatsJob creates a new hub stats snapshot job.
func NewSnapshotHubStatsJob(
	creatureRepo creature.Repository,
	ledgerRepo ledger.Repository,
	trainingRepo training.Repository,
	statsRepo leaderboard.StatsRepository,
	logger *slog.Logger,
	config SnapshotHubStatsConfig,
) *SnapshotHubStatsJob {
	if logger == nil {
		logger = slog.Default()
	}

	return &SnapshotHubStatsJob{
		creatureRepo: creatureRepo,
		ledgerRepo:   ledgerRepo,
		trainingRepo: trainingRepo,
		statsRepo:    statsRepo,
		logger:       logger,
		config:       config,
	}
}

// Name returns the job name.
func (j *SnapshotHubStatsJob) Name() string {
	return "snapshot_hub_stats"
}

// Description returns a human-readable description.
func (j *SnapshotHubStatsJob) Description() string {
	return "Takes a point-in-time hub stats snapshot for the admin dashboard"
}

// Run executes the snapshot.
func (j *SnapshotHubStatsJob) Run(ctx context.Context) error {
	startedAt := time.Now()
	stats := &SnapshotStats{
		StartedAt: startedAt,
		Errors:    make([]error, 0),
	}

	j.logger.Info("starting snapshot_hub_stats job")

	if j.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.config.Timeout)
		defer cancel()
	}

	now := time.Now().UTC()
	snapshot := &leaderboard.HubStats{
		ID:      uuid.NewString(),
		TakenAt: now,
		ByStage: make(map[int]int),
	}

	if err := j.aggregateCreatures(ctx, snapshot); err != nil {
		return fmt.Errorf("failed to aggregate creatures: %w", err)
	}

	j.aggregateEconomy(ctx, snapshot, now, stats)
	j.aggregateTraining(ctx, snapshot, now, stats)

	if err := j.statsRepo.SaveStats(ctx, snapshot); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	stats.Snapshot = snapshot

	if j.config.RetentionDays > 0 {
		cutoff := now.AddDate(0, 0, -j.config.RetentionDays)
		pruned, err := j.statsRepo.DeleteOldStats(ctx, cutoff)
		if err != nil {
			stats.Errors = append(stats.Errors, err)
			j.logger.Warn("failed to prune old snapshots", "error", err)
		}
		stats.Pruned = pruned
	}

	stats.CompletedAt = time.Now()
	stats.Duration = stats.CompletedAt.Sub(startedAt)
	j.lastSnapshotStats.Store(stats)

	j.logger.Info("snapshot_hub_stats completed",
		"snapshot", snapshot.String(),
		"pruned", stats.Pruned,
		"duration", stats.Duration,
		"errors", len(stats.Errors),
	)

	return nil
}

// LastStats returns the stats of the most recent run, or nil.
func (j *SnapshotHubStatsJob) LastStats() *SnapshotStats {
	stats, _ := j.lastSnapshotStats.Load().(*SnapshotStats)
	return stats
}

// aggregateCreatures fills the population counters by paging the whole
// creature table, inactive included.
func (j *SnapshotHubStatsJob) aggregateCreatures(ctx context.Context, snapshot *leaderboard.HubStats) error {
	batchSize := j.config.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultSnapshotHubStatsConfig().BatchSize
	}

	for offset := 0; ; offset += batchSize {
		opts := creature.DefaultListOptions().
			WithOffset(offset).
			WithLimit(batchSize).
			WithInactive()

		batch, err := j.creatureRepo.GetAll(ctx, opts)
		if err != nil {
			return err
		}

		for _, c := range batch {
			snapshot.TotalCreatures++
			snapshot.TotalPoints += c.TotalPoints
			snapshot.TokensInCirculation += c.Balance
			snapshot.ByStage[c.Stage.Int()]++

			if c.IsDead() {
				snapshot.DeadCreatures++
			} else {
				snapshot.AliveCreatures++
			}
			if c.IsActive {
				snapshot.ActiveCreatures++
			}
		}

		if len(batch) < batchSize {
			return nil
		}
	}
}

// aggregateEconomy fills the 24h ledger turnover. Failures here degrade the
// snapshot instead of aborting it.
func (j *SnapshotHubStatsJob) aggregateEconomy(ctx context.Context, snapshot *leaderboard.HubStats, now time.Time, stats *SnapshotStats) {
	from := now.Add(-24 * time.Hour)

	totals, err := j.ledgerRepo.TotalsByType(ctx, from, now)
	if err != nil {
		stats.Errors = append(stats.Errors, err)
		j.logger.Warn("ledger totals unavailable", "error", err)
	} else {
		for _, sum := range totals {
			if sum > 0 {
				snapshot.TokensEarned24h += sum
			} else {
				snapshot.TokensSpent24h -= sum
			}
		}
	}

	count, err := j.ledgerRepo.CountInWindow(ctx, from, now)
	if err != nil {
		stats.Errors = append(stats.Errors, err)
		j.logger.Warn("ledger count unavailable", "error", err)
		return
	}
	snapshot.Transactions24h = count
}

// aggregateTraining fills the 24h training counter.
func (j *SnapshotHubStatsJob) aggregateTraining(ctx context.Context, snapshot *leaderboard.HubStats, now time.Time, stats *SnapshotStats) {
	count, err := j.trainingRepo.CountSessions(ctx, now.Add(-24*time.Hour))
	if err != nil {
		stats.Errors = append(stats.Errors, err)
		j.logger.Warn("training count unavailable", "error", err)
		return
	}
	snapshot.Trainings24h = count
}
