package leaderboard

import (
	"context"
	"fmt"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// HUB STATS SNAPSHOT
// Aggregated hub-wide numbers, written periodically and served to the admin
// dashboard. Entries are never recomputed from history: each snapshot is a
// point-in-time reading.
// ══════════════════════════════════════════════════════════════════════════════

// HubStats is one point-in-time aggregate of the whole hub.
type HubStats struct {
	// ID - unique snapshot identifier.
	ID string

	// TakenAt - when the reading was taken.
	TakenAt time.Time

	// TotalCreatures - registered creatures, active and inactive.
	TotalCreatures int

	// AliveCreatures / DeadCreatures split the population by life state.
	AliveCreatures int
	DeadCreatures  int

	// ActiveCreatures - creatures not flagged inactive.
	ActiveCreatures int

	// ByStage - creature count per evolution stage (1..3).
	ByStage map[int]int

	// TotalPoints - summed lifetime points.
	TotalPoints int

	// TokensInCirculation - summed balances.
	TokensInCirculation int64

	// TokensEarned24h / TokensSpent24h - ledger turnover of the last day.
	// Spent is reported as a positive number.
	TokensEarned24h int64
	TokensSpent24h  int64

	// Transactions24h - ledger rows written in the last day.
	Transactions24h int

	// Trainings24h - training sessions in the last day.
	Trainings24h int
}

// AverageTokens returns the mean balance across alive creatures.
func (s *HubStats) AverageTokens() int64 {
	if s.AliveCreatures == 0 {
		return 0
	}
	return s.TokensInCirculation / int64(s.AliveCreatures)
}

// DeathRate returns the dead share of the population, 0..1.
func (s *HubStats) DeathRate() float64 {
	if s.TotalCreatures == 0 {
		return 0
	}
	return float64(s.DeadCreatures) / float64(s.TotalCreatures)
}

// StageCount returns the creature count of one stage.
func (s *HubStats) StageCount(stage int) int {
	if s.ByStage == nil {
		return 0
	}
	return s.ByStage[stage]
}

// String returns a string representation for logging.
func (s *HubStats) String() string {
	return fmt.Sprintf(
		"HubStats{Creatures: %d, Alive: %d, Dead: %d, Points: %d, Tokens: %d, At: %s}",
		s.TotalCreatures, s.AliveCreatures, s.DeadCreatures,
		s.TotalPoints, s.TokensInCirculation,
		s.TakenAt.Format(time.RFC3339),
	)
}

// ══════════════════════════════════════════════════════════════════════════════
// STATS REPOSITORY INTERFACE
// ══════════════════════════════════════════════════════════════════════════════

// StatsRepository stores and serves hub stats snapshots.
type StatsRepository interface {
	// SaveStats appends a snapshot.
	SaveStats(ctx context.Context, stats *HubStats) error

	// GetLatestStats returns the most recent snapshot.
	// Returns nil without error when no snapshot exists yet.
	GetLatestStats(ctx context.Context) (*HubStats, error)

	// GetStatsHistory returns snapshots in a window, oldest first.
	GetStatsHistory(ctx context.Context, from, to time.Time) ([]*HubStats, error)

	// DeleteOldStats removes snapshots older than the cutoff. Returns the
	// number of deleted rows.
	DeleteOldStats(ctx context.Context, olderThan time.Time) (int, error)
}
