package redis

import (
	"context"
	"errors"
	"time"

	"github.com/regen-hub/regenmon-hub/internal/domain/creature"
)

// ══════════════════════════════════════════════════════════════════════════════
// CREATURE CACHE IMPLEMENTATION
// Hot creature reads. The cache stores a flat JSON image of the entity; the
// TTL is short because stats decay continuously.
// ══════════════════════════════════════════════════════════════════════════════

// CreatureCache implements creature.Cache over Redis.
type CreatureCache struct {
	cache *Cache
}

// NewCreatureCache creates a new CreatureCache.
func NewCreatureCache(cache *Cache) *CreatureCache {
	return &CreatureCache{cache: cache}
}

// cachedCreature is the serialized cache image of a creature.
type cachedCreature struct {
	ID             string     `json:"id"`
	OwnerID        string     `json:"owner_id"`
	Name           string     `json:"name"`
	AppURL         string     `json:"app_url"`
	Happiness      int        `json:"happiness"`
	Energy         int        `json:"energy"`
	Hunger         int        `json:"hunger"`
	Stage          int        `json:"stage"`
	TotalPoints    int        `json:"total_points"`
	Balance        int64      `json:"balance"`
	TrainingCount  int        `json:"training_count"`
	IsActive       bool       `json:"is_active"`
	DiedAt         *time.Time `json:"died_at,omitempty"`
	StatsUpdatedAt time.Time  `json:"stats_updated_at"`
	LastSyncAt     time.Time  `json:"last_sync_at"`
	RegisteredAt   time.Time  `json:"registered_at"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Get fetches a creature from the cache. Returns nil on a miss.
func (c *CreatureCache) Get(ctx context.Context, creatureID string) (*creature.Creature, error) {
	var cached cachedCreature
	err := c.cache.Get(ctx, CreatureKey(creatureID), &cached)
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, nil
		}
		return nil, err
	}

	return fromCachedCreature(cached), nil
}

// Set stores a creature in the cache.
func (c *CreatureCache) Set(ctx context.Context, cr *creature.Creature, ttl time.Duration) error {
	if cr == nil {
		return ErrCacheNilValue
	}
	return c.cache.Set(ctx, CreatureKey(cr.ID), toCachedCreature(cr), ttl)
}

// Delete removes a creature from the cache.
func (c *CreatureCache) Delete(ctx context.Context, creatureID string) error {
	return c.cache.Delete(ctx, CreatureKey(creatureID))
}

// Invalidate drops every cache entry of a creature.
func (c *CreatureCache) Invalidate(ctx context.Context, creatureID string) error {
	return c.cache.Delete(ctx,
		CreatureKey(creatureID),
		LeaderboardRankKey(creatureID),
	)
}

// toCachedCreature flattens the entity for JSON storage.
func toCachedCreature(cr *creature.Creature) cachedCreature {
	return cachedCreature{
		ID:             cr.ID,
		OwnerID:        cr.OwnerID,
		Name:           cr.Name,
		AppURL:         cr.AppURL,
		Happiness:      cr.Stats.Happiness,
		Energy:         cr.Stats.Energy,
		Hunger:         cr.Stats.Hunger,
		Stage:          cr.Stage.Int(),
		TotalPoints:    cr.TotalPoints,
		Balance:        cr.Balance,
		TrainingCount:  cr.TrainingCount,
		IsActive:       cr.IsActive,
		DiedAt:         cr.DiedAt,
		StatsUpdatedAt: cr.StatsUpdatedAt,
		LastSyncAt:     cr.LastSyncAt,
		RegisteredAt:   cr.RegisteredAt,
		CreatedAt:      cr.CreatedAt,
		UpdatedAt:      cr.UpdatedAt,
	}
}

// fromCachedCreature rebuilds the entity from its cache image.
func fromCachedCreature(cached cachedCreature) *creature.Creature {
	return &creature.Creature{
		ID:      cached.ID,
		OwnerID: cached.OwnerID,
		Name:    cached.Name,
		AppURL:  cached.AppURL,
		Stats: creature.Stats{
			Happiness: cached.Happiness,
			Energy:    cached.Energy,
			Hunger:    cached.Hunger,
		},
		Stage:          creature.Stage(cached.Stage),
		TotalPoints:    cached.TotalPoints,
		Balance:        cached.Balance,
		TrainingCount:  cached.TrainingCount,
		IsActive:       cached.IsActive,
		DiedAt:         cached.DiedAt,
		StatsUpdatedAt: cached.StatsUpdatedAt,
		LastSyncAt:     cached.LastSyncAt,
		RegisteredAt:   cached.RegisteredAt,
		CreatedAt:      cached.CreatedAt,
		UpdatedAt:      cached.UpdatedAt,
	}
}
