package redis

import (
	"context"
	"errors"
	"time"

	"github.com/regen-hub/regenmon-hub/internal/domain/leaderboard"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD CACHE IMPLEMENTATION
// The top page and per-creature rank rows are the hottest reads of the hub.
// The whole cache is dropped after every rebuild and after every evolution.
// ══════════════════════════════════════════════════════════════════════════════

// LeaderboardCache implements leaderboard.Cache over Redis.
type LeaderboardCache struct {
	cache *Cache
}

// NewLeaderboardCache creates a new LeaderboardCache.
func NewLeaderboardCache(cache *Cache) *LeaderboardCache {
	return &LeaderboardCache{cache: cache}
}

// cachedEntry is the serialized cache image of one leaderboard row.
type cachedEntry struct {
	Rank         int       `json:"rank"`
	CreatureID   string    `json:"creature_id"`
	Name         string    `json:"name"`
	Stage        int       `json:"stage"`
	TotalPoints  int       `json:"total_points"`
	Balance      int64     `json:"balance"`
	RegisteredAt time.Time `json:"registered_at"`
	IsAlive      bool      `json:"is_alive"`
	RankChange   int       `json:"rank_change"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// GetCachedTop returns the cached top-N. Returns nil when the cache is cold
// or holds fewer rows than requested.
func (c *LeaderboardCache) GetCachedTop(ctx context.Context, limit int) ([]*leaderboard.Entry, error) {
	var cached []cachedEntry
	err := c.cache.Get(ctx, LeaderboardTopKey(), &cached)
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, nil
		}
		return nil, err
	}

	if len(cached) < limit {
		return nil, nil
	}

	entries := make([]*leaderboard.Entry, limit)
	for i := 0; i < limit; i++ {
		entries[i] = fromCachedEntry(cached[i])
	}
	return entries, nil
}

// SetCachedTop stores the top-N with a TTL.
func (c *LeaderboardCache) SetCachedTop(ctx context.Context, entries []*leaderboard.Entry, ttl time.Duration) error {
	cached := make([]cachedEntry, len(entries))
	for i, e := range entries {
		cached[i] = toCachedEntry(e)
	}
	return c.cache.Set(ctx, LeaderboardTopKey(), cached, ttl)
}

// GetCachedRank returns the cached entry of one creature. Returns nil on a
// miss.
func (c *LeaderboardCache) GetCachedRank(ctx context.Context, creatureID string) (*leaderboard.Entry, error) {
	var cached cachedEntry
	err := c.cache.Get(ctx, LeaderboardRankKey(creatureID), &cached)
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, nil
		}
		return nil, err
	}

	return fromCachedEntry(cached), nil
}

// SetCachedRank stores the entry of one creature.
func (c *LeaderboardCache) SetCachedRank(ctx context.Context, entry *leaderboard.Entry, ttl time.Duration) error {
	if entry == nil {
		return ErrCacheNilValue
	}
	return c.cache.Set(ctx, LeaderboardRankKey(entry.CreatureID), toCachedEntry(entry), ttl)
}

// InvalidateAll drops the whole leaderboard cache.
func (c *LeaderboardCache) InvalidateAll(ctx context.Context) error {
	return c.cache.DeleteByPattern(ctx, PrefixLeaderboard+"*")
}

// toCachedEntry flattens the entry for JSON storage.
func toCachedEntry(e *leaderboard.Entry) cachedEntry {
	return cachedEntry{
		Rank:         int(e.Rank),
		CreatureID:   e.CreatureID,
		Name:         e.Name,
		Stage:        e.Stage,
		TotalPoints:  e.TotalPoints,
		Balance:      e.Balance,
		RegisteredAt: e.RegisteredAt,
		IsAlive:      e.IsAlive,
		RankChange:   int(e.RankChange),
		UpdatedAt:    e.UpdatedAt,
	}
}

// fromCachedEntry rebuilds the entry from its cache image.
func fromCachedEntry(cached cachedEntry) *leaderboard.Entry {
	return &leaderboard.Entry{
		Rank:         leaderboard.Rank(cached.Rank),
		CreatureID:   cached.CreatureID,
		Name:         cached.Name,
		Stage:        cached.Stage,
		TotalPoints:  cached.TotalPoints,
		Balance:      cached.Balance,
		RegisteredAt: cached.RegisteredAt,
		IsAlive:      cached.IsAlive,
		RankChange:   leaderboard.RankChange(cached.RankChange),
		UpdatedAt:    cached.UpdatedAt,
	}
}
