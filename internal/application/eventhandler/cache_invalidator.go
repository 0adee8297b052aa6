package eventhandler

import (
	"context"
	"log/slog"

	"github.com/regen-hub/regenmon-hub/internal/domain/creature"
	"github.com/regen-hub/regenmon-hub/internal/domain/leaderboard"
	"github.com/regen-hub/regenmon-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CACHE INVALIDATOR
// Keeps Redis honest. Every event that mutates a creature drops its cached
// detail; events that move ranking inputs (points, stage, life state) also
// drop the leaderboard cache.
// ══════════════════════════════════════════════════════════════════════════════

// CacheInvalidator drops stale cache entries on domain events.
type CacheInvalidator struct {
	creatureCache    creature.Cache
	leaderboardCache leaderboard.Cache
	logger           *slog.Logger
}

// NewCacheInvalidator creates a new CacheInvalidator.
func NewCacheInvalidator(
	creatureCache creature.Cache,
	leaderboardCache leaderboard.Cache,
	logger *slog.Logger,
) *CacheInvalidator {
	if logger == nil {
		logger = slog.Default()
	}

	return &CacheInvalidator{
		creatureCache:    creatureCache,
		leaderboardCache: leaderboardCache,
		logger:           logger.With("handler", "cache_invalidator"),
	}
}

// EventTypes lists the events this handler subscribes to.
func (h *CacheInvalidator) EventTypes() []shared.EventType {
	return []shared.EventType{
		shared.EventCreatureFed,
		shared.EventCreatureTrained,
		shared.EventCreatureEvolved,
		shared.EventCreatureDied,
		shared.EventCreatureRevived,
		shared.EventCreatureInactive,
		shared.EventTokensAwarded,
		shared.EventTokensSpent,
		shared.EventTokensGifted,
		shared.EventTokensAdjusted,
		shared.EventSyncCompleted,
	}
}

// Handle implements shared.EventHandler.
func (h *CacheInvalidator) Handle(event shared.Event) error {
	ctx := context.Background()

	for _, id := range affectedCreatureIDs(event) {
		if err := h.creatureCache.Invalidate(ctx, id); err != nil {
			h.logger.Warn("creature cache invalidation failed",
				"creature_id", id,
				"error", err,
			)
		}
	}

	if movesRanking(event.EventType()) {
		if err := h.leaderboardCache.InvalidateAll(ctx); err != nil {
			h.logger.Warn("leaderboard cache invalidation failed", "error", err)
		}
	}

	return nil
}

// affectedCreatureIDs lists the creatures whose cached detail went stale.
func affectedCreatureIDs(event shared.Event) []string {
	switch e := event.(type) {
	case shared.TokensGiftedEvent:
		return []string{e.FromCreatureID, e.ToCreatureID}
	case shared.CreatureFedEvent:
		if e.FeederID != e.CreatureID {
			return []string{e.CreatureID, e.FeederID}
		}
		return []string{e.CreatureID}
	default:
		return []string{event.AggregateID()}
	}
}

// movesRanking reports whether the event changes a leaderboard input.
func movesRanking(t shared.EventType) bool {
	switch t {
	case shared.EventCreatureTrained,
		shared.EventCreatureEvolved,
		shared.EventCreatureDied,
		shared.EventCreatureRevived,
		shared.EventTokensAwarded,
		shared.EventTokensGifted,
		shared.EventTokensAdjusted,
		shared.EventSyncCompleted:
		return true
	default:
		return false
	}
}
