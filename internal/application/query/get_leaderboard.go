package query

import (
	"context"
	"errors"
	"time"

	"github.com/regen-hub/regenmon-hub/internal/domain/leaderboard"
	"github.com/regen-hub/regenmon-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET LEADERBOARD QUERY
// Returns one page of the materialized ranking. The hot path is the cached
// top-N; everything else falls through to the read model.
// ══════════════════════════════════════════════════════════════════════════════

// cachedTopTTL bounds how stale a served top page may be.
const cachedTopTTL = 30 * time.Second

// GetLeaderboardQuery contains the paging parameters.
type GetLeaderboardQuery struct {
	// Page - 1-based page number (default 1).
	Page int

	// PageSize - rows per page (default 20, max 100).
	PageSize int

	// AroundCreatureID, when set, returns the window around one creature
	// instead of a page.
	AroundCreatureID string

	// RangeSize - neighbors on each side for the around view (default 2).
	RangeSize int
}

// Validate normalizes the paging parameters.
func (q *GetLeaderboardQuery) Validate() error {
	if q.Page < 0 || q.PageSize < 0 {
		return errors.New("page and page_size cannot be negative")
	}
	if q.Page == 0 {
		q.Page = 1
	}
	if q.PageSize == 0 {
		q.PageSize = 20
	}
	if q.PageSize > 100 {
		q.PageSize = 100
	}
	if q.RangeSize <= 0 {
		q.RangeSize = 2
	}
	return nil
}

// LeaderboardEntryDTO is one row of the leaderboard response.
type LeaderboardEntryDTO struct {
	// Rank - 1-based position.
	Rank int `json:"rank"`

	// CreatureID / Name - who.
	CreatureID string `json:"creature_id"`
	Name       string `json:"name"`

	// Stage - evolution stage.
	Stage int `json:"stage"`

	// TotalPoints / Balance - the sort keys.
	TotalPoints int   `json:"total_points"`
	Balance     int64 `json:"balance"`

	// IsAlive - dead creatures stay ranked but are flagged.
	IsAlive bool `json:"is_alive"`

	// RankChange - movement since the previous rebuild (+ up, - down).
	RankChange int `json:"rank_change"`

	// RankDirection - "up", "down", "stable", "new".
	RankDirection string `json:"rank_direction"`
}

// GetLeaderboardResult contains one page of the ranking.
type GetLeaderboardResult struct {
	// Entries - the page rows, rank ascending.
	Entries []LeaderboardEntryDTO `json:"entries"`

	// TotalCount - ranked creatures hub-wide.
	TotalCount int `json:"total_count"`

	// Page / PageSize - the served page.
	Page     int `json:"page"`
	PageSize int `json:"page_size"`

	// HasMore - whether another page follows.
	HasMore bool `json:"has_more"`

	// GeneratedAt - when the page was built.
	GeneratedAt time.Time `json:"generated_at"`
}

// GetLeaderboardHandler handles the GetLeaderboardQuery.
type GetLeaderboardHandler struct {
	leaderboardRepo  leaderboard.Repository
	leaderboardCache leaderboard.Cache
}

// NewGetLeaderboardHandler creates a new GetLeaderboardHandler.
func NewGetLeaderboardHandler(
	leaderboardRepo leaderboard.Repository,
	leaderboardCache leaderboard.Cache,
) *GetLeaderboardHandler {
	return &GetLeaderboardHandler{
		leaderboardRepo:  leaderboardRepo,
		leaderboardCache: leaderboardCache,
	}
}

// Handle executes the query.
func (h *GetLeaderboardHandler) Handle(ctx context.Context, query GetLeaderboardQuery) (*GetLeaderboardResult, error) {
	if err := query.Validate(); err != nil {
		return nil, shared.NewDomainError("query", "GetLeaderboard", shared.ErrValidation, err.Error())
	}

	var (
		entries []*leaderboard.Entry
		err     error
	)

	switch {
	case query.AroundCreatureID != "":
		entries, err = h.leaderboardRepo.GetNeighbors(ctx, query.AroundCreatureID, query.RangeSize)
	case query.Page == 1:
		entries, err = h.topPage(ctx, query.PageSize)
	default:
		entries, err = h.leaderboardRepo.GetPage(ctx, query.Page, query.PageSize)
	}
	if err != nil {
		return nil, shared.WrapError("query", "GetLeaderboard", shared.ErrServiceUnavailable, "read ranking", err)
	}

	total, err := h.leaderboardRepo.GetTotalCount(ctx)
	if err != nil {
		total = len(entries)
	}

	dtos := make([]LeaderboardEntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = toLeaderboardDTO(e)
	}

	return &GetLeaderboardResult{
		Entries:     dtos,
		TotalCount:  total,
		Page:        query.Page,
		PageSize:    query.PageSize,
		HasMore:     (query.Page-1)*query.PageSize+len(entries) < total,
		GeneratedAt: time.Now().UTC(),
	}, nil
}

// topPage serves the first page through the cache, refilling it on a miss.
func (h *GetLeaderboardHandler) topPage(ctx context.Context, limit int) ([]*leaderboard.Entry, error) {
	if h.leaderboardCache != nil {
		if cached, err := h.leaderboardCache.GetCachedTop(ctx, limit); err == nil && len(cached) > 0 {
			return cached, nil
		}
	}

	entries, err := h.leaderboardRepo.GetTop(ctx, limit)
	if err != nil {
		return nil, err
	}

	if h.leaderboardCache != nil && len(entries) > 0 {
		_ = h.leaderboardCache.SetCachedTop(ctx, entries, cachedTopTTL)
	}
	return entries, nil
}

// toLeaderboardDTO converts a ranking entry to the response row.
func toLeaderboardDTO(e *leaderboard.Entry) LeaderboardEntryDTO {
	return LeaderboardEntryDTO{
		Rank:          int(e.Rank),
		CreatureID:    e.CreatureID,
		Name:          e.Name,
		Stage:         e.Stage,
		TotalPoints:   e.TotalPoints,
		Balance:       e.Balance,
		IsAlive:       e.IsAlive,
		RankChange:    int(e.RankChange),
		RankDirection: string(e.Direction()),
	}
}
