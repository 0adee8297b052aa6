package query

import (
	"context"
	"errors"
	"time"

	"github.com/regen-hub/regenmon-hub/internal/domain/leaderboard"
	"github.com/regen-hub/regenmon-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET CREATURE RANK QUERY
// Returns one creature's leaderboard position with its neighborhood: the
// entries just above and below, so the owner sees who to chase.
// ══════════════════════════════════════════════════════════════════════════════

// cachedRankTTL bounds how stale a served rank may be.
const cachedRankTTL = 30 * time.Second

// GetCreatureRankQuery contains the lookup parameters.
type GetCreatureRankQuery struct {
	// CreatureID - whose rank.
	CreatureID string

	// RangeSize - neighbors on each side (default 2, max 10).
	RangeSize int
}

// Validate normalizes the parameters.
func (q *GetCreatureRankQuery) Validate() error {
	if q.CreatureID == "" {
		return errors.New("creature_id is required")
	}
	if q.RangeSize < 0 {
		return errors.New("range_size cannot be negative")
	}
	if q.RangeSize == 0 {
		q.RangeSize = 2
	}
	if q.RangeSize > 10 {
		q.RangeSize = 10
	}
	return nil
}

// GetCreatureRankResult contains the rank view.
type GetCreatureRankResult struct {
	// Entry - the creature's own row.
	Entry LeaderboardEntryDTO `json:"entry"`

	// Neighbors - the window around the creature, rank ascending, the
	// creature itself included.
	Neighbors []LeaderboardEntryDTO `json:"neighbors"`

	// TotalCount - ranked creatures hub-wide.
	TotalCount int `json:"total_count"`

	// Percentile - share of ranked creatures at or below this one, 0..100.
	Percentile float64 `json:"percentile"`
}

// GetCreatureRankHandler handles the GetCreatureRankQuery.
type GetCreatureRankHandler struct {
	leaderboardRepo  leaderboard.Repository
	leaderboardCache leaderboard.Cache
}

// NewGetCreatureRankHandler creates a new GetCreatureRankHandler.
func NewGetCreatureRankHandler(
	leaderboardRepo leaderboard.Repository,
	leaderboardCache leaderboard.Cache,
) *GetCreatureRankHandler {
	return &GetCreatureRankHandler{
		leaderboardRepo:  leaderboardRepo,
		leaderboardCache: leaderboardCache,
	}
}

// Handle executes the query.
func (h *GetCreatureRankHandler) Handle(ctx context.Context, query GetCreatureRankQuery) (*GetCreatureRankResult, error) {
	if err := query.Validate(); err != nil {
		return nil, shared.NewDomainError("query", "GetCreatureRank", shared.ErrValidation, err.Error())
	}

	entry, err := h.ownEntry(ctx, query.CreatureID)
	if err != nil {
		return nil, shared.WrapError("query", "GetCreatureRank", shared.ErrServiceUnavailable, "read rank", err)
	}
	if entry == nil {
		return nil, shared.NewDomainError("query", "GetCreatureRank", shared.ErrNotFound, "creature is not ranked yet")
	}

	neighbors, err := h.leaderboardRepo.GetNeighbors(ctx, query.CreatureID, query.RangeSize)
	if err != nil {
		neighbors = []*leaderboard.Entry{entry}
	}

	total, err := h.leaderboardRepo.GetTotalCount(ctx)
	if err != nil || total == 0 {
		total = len(neighbors)
	}

	result := &GetCreatureRankResult{
		Entry:      toLeaderboardDTO(entry),
		Neighbors:  make([]LeaderboardEntryDTO, len(neighbors)),
		TotalCount: total,
	}
	for i, e := range neighbors {
		result.Neighbors[i] = toLeaderboardDTO(e)
	}
	if total > 0 {
		result.Percentile = float64(total-int(entry.Rank)+1) / float64(total) * 100
	}

	return result, nil
}

// ownEntry reads the creature's row through the cache, refilling on a miss.
func (h *GetCreatureRankHandler) ownEntry(ctx context.Context, creatureID string) (*leaderboard.Entry, error) {
	if h.leaderboardCache != nil {
		if cached, err := h.leaderboardCache.GetCachedRank(ctx, creatureID); err == nil && cached != nil {
			return cached, nil
		}
	}

	entry, err := h.leaderboardRepo.GetCreatureRank(ctx, creatureID)
	if err != nil || entry == nil {
		return entry, err
	}

	if h.leaderboardCache != nil {
		_ = h.leaderboardCache.SetCachedRank(ctx, entry, cachedRankTTL)
	}
	return entry, nil
}
