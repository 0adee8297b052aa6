// Package creature contains the Regenmon domain model.
//
// This is the core of the "Regenmon Hub" business logic. The package defines:
//
//   - Entities: Creature, Snapshot
//   - Value Objects: Stats, Stage, Effect
//   - The decay engine: ApplyDecay, RatesFor
//   - Interaction rules: FeedEffect, ChatEffect, TrainingEffect
//   - Evolution rules: StageForPoints, CheckEvolution
//   - Repository interfaces: Repository, SnapshotRepository, Cache
//
// # Architectural principles
//
// The package follows Clean Architecture and DDD:
//
//  1. Zero external dependencies - standard library only
//  2. Dependency Inversion - interfaces here, implementations in infrastructure
//  3. Rich Domain Model - the life-cycle rules live on the entities
//
// # The life-cycle
//
// A creature has three needs stats (happiness, energy, hunger-as-satiety),
// each bounded to [0,100]. Nothing ticks in the background: stats decay
// lazily, and every read or interaction first catches the creature up to
// the current moment:
//
//	result := ApplyDecay(c, time.Now())
//	if result.Died {
//	    // all three stats hit zero simultaneously - the creature is frozen
//	}
//
// Interactions apply fixed effect vectors:
//
//	if err := c.CanInteract(); err == nil {
//	    c.ApplyEffect(FeedEffect)
//	}
//
// Training converts an AI score into stat effects, lifetime points, and
// $FRUTA tokens:
//
//	effect := TrainingEffect(score)
//	points := TrainingPoints(score)
//	tokens := TokenReward(points, DefaultRewardRate)
//
// Evolution is monotonic and idempotent; the one-time stage bonus is the
// caller's concern (it goes through the ledger):
//
//	if res := CheckEvolution(c); res.Evolved {
//	    // award EvolutionBonus exactly once
//	}
//
// # Death and revival
//
// The one and only death condition is all three stats at zero after a
// decay catch-up. Dead creatures are frozen - they never decay again and
// reject every interaction except Revive, which resets the stats to
// {50,50,50} for a fixed token cost.
package creature
