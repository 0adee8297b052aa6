package social

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// ANTI-ABUSE POLICY
// Per-pair cooldowns and per-actor daily caps on social interactions.
// The policy only reads the activity stream; enforcement happens in the
// command layer before any state changes.
// ══════════════════════════════════════════════════════════════════════════════

// ErrCooldownActive - the same pair interacted too recently.
var ErrCooldownActive = errors.New("interaction cooldown is active")

// ErrDailyCapReached - the actor hit the daily limit for this kind.
var ErrDailyCapReached = errors.New("daily interaction limit reached")

// Limit describes the constraints of one interaction kind.
type Limit struct {
	// PairCooldown is the minimum gap between two interactions of this
	// kind by the same actor on the same target. Zero disables it.
	PairCooldown time.Duration

	// DailyCap is the maximum number of interactions of this kind an
	// actor may perform per rolling 24 hours. Zero disables it.
	DailyCap int
}

// Limits maps interaction kinds to their constraints.
type Limits map[InteractionKind]Limit

// DefaultLimits returns the hub defaults. Visits are unrestricted.
func DefaultLimits() Limits {
	return Limits{
		InteractionFeed:    {PairCooldown: 10 * time.Minute, DailyCap: 50},
		InteractionGift:    {PairCooldown: time.Minute, DailyCap: 20},
		InteractionMessage: {PairCooldown: 0, DailyCap: 100},
	}
}

// Policy checks interactions against the configured limits.
type Policy struct {
	limits       Limits
	interactions InteractionRepository
}

// NewPolicy creates a policy over an activity stream.
func NewPolicy(limits Limits, interactions InteractionRepository) *Policy {
	if limits == nil {
		limits = DefaultLimits()
	}
	return &Policy{limits: limits, interactions: interactions}
}

// Check returns nil when the actor may perform the interaction now.
// Unknown kinds pass: the policy restricts, it does not enumerate.
func (p *Policy) Check(ctx context.Context, actor, target CreatureID, kind InteractionKind, now time.Time) error {
	limit, ok := p.limits[kind]
	if !ok {
		return nil
	}

	if limit.PairCooldown > 0 {
		last, err := p.interactions.LastBetween(ctx, actor, target, kind)
		if err != nil {
			return fmt.Errorf("check cooldown: %w", err)
		}
		if last != nil && now.Sub(last.OccurredAt) < limit.PairCooldown {
			return ErrCooldownActive
		}
	}

	if limit.DailyCap > 0 {
		count, err := p.interactions.CountSince(ctx, actor, kind, now.Add(-24*time.Hour))
		if err != nil {
			return fmt.Errorf("check daily cap: %w", err)
		}
		if count >= limit.DailyCap {
			return ErrDailyCapReached
		}
	}

	return nil
}
