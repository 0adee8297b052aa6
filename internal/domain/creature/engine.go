package creature

import (
	"math"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// ECONOMY CONSTANTS
// Default tuning values. The config layer can override the reward rate;
// the costs are fixed game rules.
// ══════════════════════════════════════════════════════════════════════════════

const (
	// FeedCost is the $FRUTA price of one feeding.
	FeedCost int64 = 10

	// ReviveCost is the $FRUTA price of bringing a dead creature back.
	ReviveCost int64 = 20

	// EvolutionBonus is the one-time $FRUTA grant per stage advance.
	EvolutionBonus int64 = 100

	// DefaultRewardRate converts points into tokens: tokens = floor(points * rate).
	DefaultRewardRate = 0.5
)

// Evolution thresholds in lifetime points.
const (
	// JuvenileThreshold promotes stage 1 -> 2.
	JuvenileThreshold = 500

	// AscendedThreshold promotes to the final stage 3.
	AscendedThreshold = 1500
)

// ══════════════════════════════════════════════════════════════════════════════
// INTERACTION EFFECTS
// Fixed vectors applied to the stats. Each component clamps independently.
// ══════════════════════════════════════════════════════════════════════════════

// Effect is a delta vector applied to a creature's stats.
type Effect struct {
	Happiness int
	Energy    int
	Hunger    int
}

// FeedEffect is applied when a creature gets fed.
var FeedEffect = Effect{Happiness: 5, Energy: 10, Hunger: 30}

// ChatEffect is applied on every chat exchange regardless of the reply:
// talking cheers the creature up but wears it out a little.
var ChatEffect = Effect{Happiness: 3, Energy: -3, Hunger: -2}

// TrainingEffect returns the stat effect for a scored training submission.
// Good sessions energize the mood but exhaust the body; bad sessions
// are simply demoralizing.
func TrainingEffect(score int) Effect {
	switch {
	case score >= 80:
		return Effect{Happiness: 15, Energy: -20, Hunger: -15}
	case score >= 60:
		return Effect{Happiness: 8, Energy: -15, Hunger: -12}
	case score >= 40:
		return Effect{Happiness: 3, Energy: -12, Hunger: -10}
	default:
		return Effect{Happiness: -10, Energy: -15, Hunger: -10}
	}
}

// TrainingPoints returns the lifetime points earned for a scored submission.
func TrainingPoints(score int) int {
	if score < 0 {
		return 0
	}
	return score
}

// TokenReward converts earned points into $FRUTA.
func TokenReward(points int, rewardRate float64) int64 {
	if points <= 0 {
		return 0
	}
	return int64(math.Floor(float64(points) * rewardRate))
}

// ══════════════════════════════════════════════════════════════════════════════
// DECAY ENGINE
// Stats decay lazily: nothing ticks in the background, every read and
// every interaction first catches the creature up to the current moment.
// ══════════════════════════════════════════════════════════════════════════════

// Per-minute base decay rates.
const (
	happinessDecayPerMin = -2.0
	energyDecayPerMin    = -1.0
	hungerDecayPerMin    = -2.0
)

// Modifier thresholds.
const (
	lowStatThreshold       = 30 // hunger/energy below this accelerate sadness
	highHappinessThreshold = 70 // happiness above this slows energy drain
)

// DecayRates holds the effective per-minute rates for one decay window.
type DecayRates struct {
	Happiness float64
	Energy    float64
	Hunger    float64
}

// RatesFor computes the effective decay rates from a pre-decay snapshot.
// The modifiers are decided once per window, not re-evaluated mid-window:
//   - starving (hunger < 30) makes happiness fall 1/min faster
//   - exhausted (energy < 30) makes happiness fall 1/min faster (stacks)
//   - content (happiness > 70) halves the energy drain
func RatesFor(s Stats) DecayRates {
	r := DecayRates{
		Happiness: happinessDecayPerMin,
		Energy:    energyDecayPerMin,
		Hunger:    hungerDecayPerMin,
	}

	if s.Hunger < lowStatThreshold {
		r.Happiness -= 1.0
	}
	if s.Energy < lowStatThreshold {
		r.Happiness -= 1.0
	}
	if s.Happiness > highHappinessThreshold {
		r.Energy /= 2
	}

	return r
}

// DecayResult reports what a decay catch-up did.
type DecayResult struct {
	// ElapsedMinutes is the window length that was applied.
	ElapsedMinutes float64

	// Changed is true when any stat moved.
	Changed bool

	// Died is true when this catch-up depleted all stats.
	Died bool
}

// ApplyDecay catches the creature's stats up to now. Dead creatures are
// frozen and never decay; revival is the only way back. Clock skew
// (now before the anchor) is a no-op.
func ApplyDecay(c *Creature, now time.Time) DecayResult {
	if c.IsDead() {
		return DecayResult{}
	}

	elapsed := now.Sub(c.StatsUpdatedAt).Minutes()
	if elapsed <= 0 {
		return DecayResult{}
	}

	rates := RatesFor(c.Stats)
	old := c.Stats

	decayed := Stats{
		Happiness: decayStat(old.Happiness, rates.Happiness, elapsed),
		Energy:    decayStat(old.Energy, rates.Energy, elapsed),
		Hunger:    decayStat(old.Hunger, rates.Hunger, elapsed),
	}

	c.Stats = decayed
	c.StatsUpdatedAt = now.UTC()
	c.UpdatedAt = now.UTC()

	result := DecayResult{
		ElapsedMinutes: elapsed,
		Changed:        decayed != old,
	}

	if decayed.IsDepleted() {
		c.markDead(now)
		result.Died = true
	}

	return result
}

// decayStat applies one rate over the elapsed window: clamp first, round
// to the nearest integer after.
func decayStat(old int, ratePerMin, elapsedMinutes float64) int {
	v := float64(old) + ratePerMin*elapsedMinutes
	if v < MinStat {
		v = MinStat
	}
	if v > MaxStat {
		v = MaxStat
	}
	return int(math.Round(v))
}

// ══════════════════════════════════════════════════════════════════════════════
// EVOLUTION
// ══════════════════════════════════════════════════════════════════════════════

// StageForPoints returns the stage a lifetime points total qualifies for.
func StageForPoints(points int) Stage {
	switch {
	case points >= AscendedThreshold:
		return StageAscended
	case points >= JuvenileThreshold:
		return StageJuvenile
	default:
		return StageHatchling
	}
}

// EvolutionResult reports the outcome of an evolution check.
type EvolutionResult struct {
	Evolved  bool
	OldStage Stage
	NewStage Stage
}

// CheckEvolution advances the creature's stage if its points qualify for a
// higher one. Stages never regress and re-checking after an evolution is a
// no-op, so the per-stage bonus can never be granted twice.
func CheckEvolution(c *Creature) EvolutionResult {
	target := StageForPoints(c.TotalPoints)
	result := EvolutionResult{OldStage: c.Stage, NewStage: c.Stage}

	if target <= c.Stage {
		return result
	}

	c.Stage = target
	c.UpdatedAt = time.Now().UTC()
	result.Evolved = true
	result.NewStage = target
	return result
}
