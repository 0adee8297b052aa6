package query

import (
	"context"
	"errors"
	"time"

	"github.com/regen-hub/regenmon-hub/internal/domain/leaderboard"
	"github.com/regen-hub/regenmon-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET HUB STATS QUERY (admin dashboard)
// Serves the latest stats snapshot taken by the scheduler, plus an optional
// history window for the dashboard charts.
// ══════════════════════════════════════════════════════════════════════════════

// GetHubStatsQuery contains the dashboard parameters.
type GetHubStatsQuery struct {
	// HistoryDays - how many days of snapshot history to include (0 = only
	// the latest, max 90).
	HistoryDays int
}

// Validate normalizes the parameters.
func (q *GetHubStatsQuery) Validate() error {
	if q.HistoryDays < 0 {
		return errors.New("history_days cannot be negative")
	}
	if q.HistoryDays > 90 {
		q.HistoryDays = 90
	}
	return nil
}

// HubStatsDTO is one stats snapshot.
type HubStatsDTO struct {
	// TakenAt - when the snapshot was taken.
	TakenAt time.Time `json:"taken_at"`

	// Population counters.
	TotalCreatures  int `json:"total_creatures"`
	AliveCreatures  int `json:"alive_creatures"`
	DeadCreatures   int `json:"dead_creatures"`
	ActiveCreatures int `json:"active_creatures"`

	// ByStage - creatures per evolution stage.
	ByStage map[int]int `json:"by_stage"`

	// Economy counters.
	TotalPoints         int   `json:"total_points"`
	TokensInCirculation int64 `json:"tokens_in_circulation"`
	TokensEarned24h     int64 `json:"tokens_earned_24h"`
	TokensSpent24h      int64 `json:"tokens_spent_24h"`
	Transactions24h     int   `json:"transactions_24h"`
	Trainings24h        int   `json:"trainings_24h"`

	// Derived figures.
	AverageTokens int64   `json:"average_tokens"`
	DeathRate     float64 `json:"death_rate"`
}

// GetHubStatsResult contains the dashboard payload.
type GetHubStatsResult struct {
	// Latest - the freshest snapshot. Nil when no snapshot was ever taken.
	Latest *HubStatsDTO `json:"latest"`

	// History - older snapshots, oldest first. Feeds the charts.
	History []HubStatsDTO `json:"history,omitempty"`
}

// GetHubStatsHandler handles the GetHubStatsQuery.
type GetHubStatsHandler struct {
	statsRepo leaderboard.StatsRepository
}

// NewGetHubStatsHandler creates a new GetHubStatsHandler.
func NewGetHubStatsHandler(statsRepo leaderboard.StatsRepository) *GetHubStatsHandler {
	return &GetHubStatsHandler{statsRepo: statsRepo}
}

// Handle executes the query.
func (h *GetHubStatsHandler) Handle(ctx context.Context, query GetHubStatsQuery) (*GetHubStatsResult, error) {
	if err := query.Validate(); err != nil {
		return nil, shared.NewDomainError("query", "GetHubStats", shared.ErrValidation, err.Error())
	}

	latest, err := h.statsRepo.GetLatestStats(ctx)
	if err != nil {
		return nil, shared.WrapError("query", "GetHubStats", shared.ErrServiceUnavailable, "read latest stats", err)
	}

	result := &GetHubStatsResult{}
	if latest != nil {
		dto := toHubStatsDTO(latest)
		result.Latest = &dto
	}

	if query.HistoryDays > 0 {
		now := time.Now().UTC()
		history, err := h.statsRepo.GetStatsHistory(ctx, now.AddDate(0, 0, -query.HistoryDays), now)
		if err != nil {
			return nil, shared.WrapError("query", "GetHubStats", shared.ErrServiceUnavailable, "read stats history", err)
		}
		result.History = make([]HubStatsDTO, len(history))
		for i, s := range history {
			result.History[i] = toHubStatsDTO(s)
		}
	}

	return result, nil
}

// toHubStatsDTO converts a snapshot to the response row.
func toHubStatsDTO(s *leaderboard.HubStats) HubStatsDTO {
	return HubStatsDTO{
		TakenAt:             s.TakenAt,
		TotalCreatures:      s.TotalCreatures,
		AliveCreatures:      s.AliveCreatures,
		DeadCreatures:       s.DeadCreatures,
		ActiveCreatures:     s.ActiveCreatures,
		ByStage:             s.ByStage,
		TotalPoints:         s.TotalPoints,
		TokensInCirculation: s.TokensInCirculation,
		TokensEarned24h:     s.TokensEarned24h,
		TokensSpent24h:      s.TokensSpent24h,
		Transactions24h:     s.Transactions24h,
		Trainings24h:        s.Trainings24h,
		AverageTokens:       s.AverageTokens(),
		DeathRate:           s.DeathRate(),
	}
}
