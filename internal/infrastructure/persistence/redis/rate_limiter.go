package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ══════════════════════════════════════════════════════════════════════════════
// TRAINING RATE LIMITER
// Sliding window over a sorted set: one member per training attempt, scored
// by timestamp. Counting ignores members older than the window.
//
// The limiter fails open by contract: callers treat an error from Allow as
// permission, so a Redis outage degrades to unlimited training instead of
// blocking the hub.
// ══════════════════════════════════════════════════════════════════════════════

// DefaultTrainingLimit caps trainings per creature per window.
const DefaultTrainingLimit = 10

// TrainingLimiter implements command.TrainingLimiter with a Redis sliding
// window.
type TrainingLimiter struct {
	cache  *Cache
	limit  int
	window time.Duration
}

// NewTrainingLimiter creates a limiter with the given per-window cap.
func NewTrainingLimiter(cache *Cache, limit int, window time.Duration) *TrainingLimiter {
	if limit <= 0 {
		limit = DefaultTrainingLimit
	}
	if window <= 0 {
		window = TTLRateLimitWindow
	}
	return &TrainingLimiter{cache: cache, limit: limit, window: window}
}

// Allow reports whether the creature may train now. A positive answer
// records the attempt.
func (l *TrainingLimiter) Allow(ctx context.Context, creatureID string) (bool, error) {
	key := RateLimitKey(creatureID, "train")
	now := time.Now().UTC()
	cutoff := now.Add(-l.window)

	client := l.cache.Client()

	// drop attempts that slid out of the window
	if err := client.ZRemRangeByScore(ctx, key, "0", fmt.Sprintf("%d", cutoff.UnixNano())).Err(); err != nil {
		return false, err
	}

	count, err := client.ZCard(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if count >= int64(l.limit) {
		return false, nil
	}

	pipe := client.TxPipeline()
	pipe.ZAdd(ctx, key, redis.Z{
		Score:  float64(now.UnixNano()),
		Member: fmt.Sprintf("%d", now.UnixNano()),
	})
	pipe.Expire(ctx, key, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}

	return true, nil
}

// Remaining returns how many attempts are left in the current window.
func (l *TrainingLimiter) Remaining(ctx context.Context, creatureID string) (int, error) {
	key := RateLimitKey(creatureID, "train")
	cutoff := time.Now().UTC().Add(-l.window)

	client := l.cache.Client()

	if err := client.ZRemRangeByScore(ctx, key, "0", fmt.Sprintf("%d", cutoff.UnixNano())).Err(); err != nil {
		return 0, err
	}

	count, err := client.ZCard(ctx, key).Result()
	if err != nil {
		return 0, err
	}

	remaining := l.limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}
