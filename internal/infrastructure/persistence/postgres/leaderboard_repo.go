package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/regen-hub/regenmon-hub/internal/domain/leaderboard"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD REPOSITORY IMPLEMENTATION
// The ranking is materialized: the rebuild job replaces the whole table in
// one transaction, reads only ever see a complete ranking.
// ══════════════════════════════════════════════════════════════════════════════

const entryColumns = `creature_id, rank, name, stage, total_points, balance,
	   registered_at, is_alive, rank_change, updated_at`

// LeaderboardRepository implements leaderboard.Repository for PostgreSQL.
type LeaderboardRepository struct {
	conn *Connection
}

// NewLeaderboardRepository creates a new LeaderboardRepository.
func NewLeaderboardRepository(conn *Connection) *LeaderboardRepository {
	return &LeaderboardRepository{conn: conn}
}

// ─────────────────────────────────────────────────────────────────────────────
// Rebuild
// ─────────────────────────────────────────────────────────────────────────────

// SaveRanking replaces the materialized ranking with a fresh build.
func (r *LeaderboardRepository) SaveRanking(ctx context.Context, ranking *leaderboard.Ranking) error {
	return r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, "DELETE FROM leaderboard_entries"); err != nil {
			return fmt.Errorf("failed to clear leaderboard: %w", err)
		}

		query := `
			INSERT INTO leaderboard_entries (
				creature_id, rank, name, stage, total_points, balance,
				registered_at, is_alive, rank_change, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`

		for _, entry := range ranking.All() {
			_, err := tx.Exec(ctx, query,
				entry.CreatureID,
				int(entry.Rank),
				entry.Name,
				entry.Stage,
				entry.TotalPoints,
				entry.Balance,
				entry.RegisteredAt,
				entry.IsAlive,
				int(entry.RankChange),
				entry.UpdatedAt,
			)
			if err != nil {
				return fmt.Errorf("failed to insert leaderboard entry: %w", err)
			}
		}

		return nil
	})
}

// GetRankMap returns creatureID -> rank of the current materialized ranking.
func (r *LeaderboardRepository) GetRankMap(ctx context.Context) (map[string]leaderboard.Rank, error) {
	rows, err := r.conn.Query(ctx, "SELECT creature_id, rank FROM leaderboard_entries")
	if err != nil {
		return nil, fmt.Errorf("failed to query rank map: %w", err)
	}
	defer rows.Close()

	ranks := make(map[string]leaderboard.Rank)
	for rows.Next() {
		var creatureID string
		var rank int
		if err := rows.Scan(&creatureID, &rank); err != nil {
			return nil, fmt.Errorf("failed to scan rank row: %w", err)
		}
		ranks[creatureID] = leaderboard.Rank(rank)
	}

	return ranks, rows.Err()
}

// ─────────────────────────────────────────────────────────────────────────────
// Ranking queries
// ─────────────────────────────────────────────────────────────────────────────

// GetCreatureRank returns the current entry of a creature. Returns nil
// without error when the creature is not ranked yet.
func (r *LeaderboardRepository) GetCreatureRank(ctx context.Context, creatureID string) (*leaderboard.Entry, error) {
	query := fmt.Sprintf("SELECT %s FROM leaderboard_entries WHERE creature_id = $1", entryColumns)

	entry, err := scanEntry(r.conn.QueryRow(ctx, query, creatureID))
	if err != nil {
		if IsNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return entry, nil
}

// GetTop returns the first limit entries.
func (r *LeaderboardRepository) GetTop(ctx context.Context, limit int) ([]*leaderboard.Entry, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM leaderboard_entries ORDER BY rank ASC LIMIT $1",
		entryColumns,
	)

	rows, err := r.conn.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top entries: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// GetPage returns one page of the ranking. page is 1-based.
func (r *LeaderboardRepository) GetPage(ctx context.Context, page, pageSize int) ([]*leaderboard.Entry, error) {
	if page < 1 {
		page = 1
	}

	query := fmt.Sprintf(
		"SELECT %s FROM leaderboard_entries ORDER BY rank ASC LIMIT $1 OFFSET $2",
		entryColumns,
	)

	rows, err := r.conn.Query(ctx, query, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard page: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// GetNeighbors returns the entries around a creature (±rangeSize), the
// creature included.
func (r *LeaderboardRepository) GetNeighbors(ctx context.Context, creatureID string, rangeSize int) ([]*leaderboard.Entry, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM leaderboard_entries
		WHERE rank BETWEEN
			(SELECT rank - $2 FROM leaderboard_entries WHERE creature_id = $1) AND
			(SELECT rank + $2 FROM leaderboard_entries WHERE creature_id = $1)
		ORDER BY rank ASC
	`, entryColumns)

	rows, err := r.conn.Query(ctx, query, creatureID, rangeSize)
	if err != nil {
		return nil, fmt.Errorf("failed to query neighbors: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// GetTotalCount returns the number of ranked creatures.
func (r *LeaderboardRepository) GetTotalCount(ctx context.Context) (int, error) {
	var count int
	err := r.conn.QueryRow(ctx, "SELECT COUNT(*) FROM leaderboard_entries").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count leaderboard entries: %w", err)
	}
	return count, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// STATS REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// StatsRepository implements leaderboard.StatsRepository for PostgreSQL.
type StatsRepository struct {
	conn *Connection
}

// NewStatsRepository creates a new StatsRepository.
func NewStatsRepository(conn *Connection) *StatsRepository {
	return &StatsRepository{conn: conn}
}

// SaveStats appends a snapshot.
func (r *StatsRepository) SaveStats(ctx context.Context, stats *leaderboard.HubStats) error {
	byStageJSON, err := json.Marshal(stageMapToJSON(stats.ByStage))
	if err != nil {
		return fmt.Errorf("failed to marshal stage counts: %w", err)
	}

	query := `
		INSERT INTO hub_stats (
			id, taken_at, total_creatures, alive_creatures, dead_creatures,
			active_creatures, by_stage, total_points, tokens_in_circulation,
			tokens_earned_24h, tokens_spent_24h, transactions_24h, trainings_24h
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err = r.conn.Exec(ctx, query,
		stats.ID,
		stats.TakenAt,
		stats.TotalCreatures,
		stats.AliveCreatures,
		stats.DeadCreatures,
		stats.ActiveCreatures,
		byStageJSON,
		stats.TotalPoints,
		stats.TokensInCirculation,
		stats.TokensEarned24h,
		stats.TokensSpent24h,
		stats.Transactions24h,
		stats.Trainings24h,
	)
	if err != nil {
		return fmt.Errorf("failed to save hub stats: %w", err)
	}

	return nil
}

// GetLatestStats returns the most recent snapshot. Returns nil without error
// when no snapshot exists yet.
func (r *StatsRepository) GetLatestStats(ctx context.Context) (*leaderboard.HubStats, error) {
	query := statsSelect + " ORDER BY taken_at DESC LIMIT 1"

	stats, err := scanHubStats(r.conn.QueryRow(ctx, query))
	if err != nil {
		if IsNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return stats, nil
}

// GetStatsHistory returns snapshots in a window, oldest first.
func (r *StatsRepository) GetStatsHistory(ctx context.Context, from, to time.Time) ([]*leaderboard.HubStats, error) {
	query := statsSelect + " WHERE taken_at >= $1 AND taken_at <= $2 ORDER BY taken_at ASC"

	rows, err := r.conn.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query stats history: %w", err)
	}
	defer rows.Close()

	var history []*leaderboard.HubStats
	for rows.Next() {
		stats, err := scanHubStatsFromRows(rows)
		if err != nil {
			return nil, err
		}
		history = append(history, stats)
	}

	return history, rows.Err()
}

// DeleteOldStats removes snapshots older than the cutoff.
func (r *StatsRepository) DeleteOldStats(ctx context.Context, olderThan time.Time) (int, error) {
	result, err := r.conn.Exec(ctx, "DELETE FROM hub_stats WHERE taken_at < $1", olderThan)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old stats: %w", err)
	}
	return int(result.RowsAffected()), nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPER METHODS
// ══════════════════════════════════════════════════════════════════════════════

const statsSelect = `
	SELECT id, taken_at, total_creatures, alive_creatures, dead_creatures,
		   active_creatures, by_stage, total_points, tokens_in_circulation,
		   tokens_earned_24h, tokens_spent_24h, transactions_24h, trainings_24h
	FROM hub_stats
`

// scanEntry scans a single leaderboard entry from a row.
func scanEntry(row pgx.Row) (*leaderboard.Entry, error) {
	var e leaderboard.Entry
	var rank, rankChange int

	err := row.Scan(
		&e.CreatureID,
		&rank,
		&e.Name,
		&e.Stage,
		&e.TotalPoints,
		&e.Balance,
		&e.RegisteredAt,
		&e.IsAlive,
		&rankChange,
		&e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	e.Rank = leaderboard.Rank(rank)
	e.RankChange = leaderboard.RankChange(rankChange)
	return &e, nil
}

// scanEntries scans multiple leaderboard entries from rows.
func scanEntries(rows pgx.Rows) ([]*leaderboard.Entry, error) {
	var entries []*leaderboard.Entry

	for rows.Next() {
		var e leaderboard.Entry
		var rank, rankChange int

		err := rows.Scan(
			&e.CreatureID,
			&rank,
			&e.Name,
			&e.Stage,
			&e.TotalPoints,
			&e.Balance,
			&e.RegisteredAt,
			&e.IsAlive,
			&rankChange,
			&e.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard entry: %w", err)
		}

		e.Rank = leaderboard.Rank(rank)
		e.RankChange = leaderboard.RankChange(rankChange)
		entries = append(entries, &e)
	}

	return entries, rows.Err()
}

// scanHubStats scans a stats snapshot from a row.
func scanHubStats(row pgx.Row) (*leaderboard.HubStats, error) {
	var s leaderboard.HubStats
	var byStageJSON []byte

	err := row.Scan(
		&s.ID,
		&s.TakenAt,
		&s.TotalCreatures,
		&s.AliveCreatures,
		&s.DeadCreatures,
		&s.ActiveCreatures,
		&byStageJSON,
		&s.TotalPoints,
		&s.TokensInCirculation,
		&s.TokensEarned24h,
		&s.TokensSpent24h,
		&s.Transactions24h,
		&s.Trainings24h,
	)
	if err != nil {
		return nil, err
	}

	s.ByStage = jsonToStageMap(byStageJSON)
	return &s, nil
}

// scanHubStatsFromRows scans a stats snapshot from rows.
func scanHubStatsFromRows(rows pgx.Rows) (*leaderboard.HubStats, error) {
	var s leaderboard.HubStats
	var byStageJSON []byte

	err := rows.Scan(
		&s.ID,
		&s.TakenAt,
		&s.TotalCreatures,
		&s.AliveCreatures,
		&s.DeadCreatures,
		&s.ActiveCreatures,
		&byStageJSON,
		&s.TotalPoints,
		&s.TokensInCirculation,
		&s.TokensEarned24h,
		&s.TokensSpent24h,
		&s.Transactions24h,
		&s.Trainings24h,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan hub stats: %w", err)
	}

	s.ByStage = jsonToStageMap(byStageJSON)
	return &s, nil
}

// stageMapToJSON converts the int-keyed stage map to string keys for JSONB.
func stageMapToJSON(byStage map[int]int) map[string]int {
	out := make(map[string]int, len(byStage))
	for stage, count := range byStage {
		out[strconv.Itoa(stage)] = count
	}
	return out
}

// jsonToStageMap converts JSONB stage counts back to int keys.
func jsonToStageMap(data []byte) map[int]int {
	out := make(map[int]int)
	if len(data) == 0 {
		return out
	}

	var m map[string]int
	if err := json.Unmarshal(data, &m); err != nil {
		return out
	}

	for key, count := range m {
		if stage, err := strconv.Atoi(key); err == nil {
			out[stage] = count
		}
	}
	return out
}
