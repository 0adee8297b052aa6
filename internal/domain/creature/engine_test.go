package creature

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCreature(t *testing.T) *Creature {
	t.Helper()
	c, err := NewCreature(NewCreatureParams{
		ID:      "7ed99bd0-87b2-4dbb-a97b-596c3f29c49b",
		OwnerID: "privy:owner-1",
		Name:    "Frutabyte",
		AppURL:  "https://frutabyte.vercel.app",
	})
	require.NoError(t, err)
	return c
}

func TestApplyDecay_BaseRates(t *testing.T) {
	c := newTestCreature(t)
	now := time.Now().UTC()
	c.Stats = Stats{Happiness: 60, Energy: 60, Hunger: 60}
	c.StatsUpdatedAt = now.Add(-10 * time.Minute)

	result := ApplyDecay(c, now)

	assert.True(t, result.Changed)
	assert.InDelta(t, 10.0, result.ElapsedMinutes, 0.01)
	// happiness -2/min, energy -1/min, hunger -2/min
	assert.Equal(t, Stats{Happiness: 40, Energy: 50, Hunger: 40}, c.Stats)
	assert.False(t, c.IsDead())
}

func TestApplyDecay_StarvingAndExhaustedPenaltiesStack(t *testing.T) {
	c := newTestCreature(t)
	now := time.Now().UTC()
	// hunger < 30 and energy < 30: happiness falls at -4/min
	c.Stats = Stats{Happiness: 50, Energy: 20, Hunger: 20}
	c.StatsUpdatedAt = now.Add(-5 * time.Minute)

	ApplyDecay(c, now)

	assert.Equal(t, 30, c.Stats.Happiness)
	assert.Equal(t, 15, c.Stats.Energy)
	assert.Equal(t, 10, c.Stats.Hunger)
}

func TestApplyDecay_ContentmentSlowsEnergyDrain(t *testing.T) {
	c := newTestCreature(t)
	now := time.Now().UTC()
	// happiness > 70 halves the energy rate for the whole window
	c.Stats = Stats{Happiness: 90, Energy: 90, Hunger: 90}
	c.StatsUpdatedAt = now.Add(-10 * time.Minute)

	ApplyDecay(c, now)

	assert.Equal(t, Stats{Happiness: 70, Energy: 85, Hunger: 70}, c.Stats)
}

func TestApplyDecay_SixtyMinutesUntouched(t *testing.T) {
	// Creature left alone for an hour: happiness and hunger bottom out,
	// energy survives, so the creature stays alive.
	c := newTestCreature(t)
	now := time.Now().UTC()
	c.Stats = Stats{Happiness: 80, Energy: 70, Hunger: 80}
	c.StatsUpdatedAt = now.Add(-60 * time.Minute)

	result := ApplyDecay(c, now)

	assert.Equal(t, 0, c.Stats.Happiness)
	assert.Equal(t, 0, c.Stats.Hunger)
	// happiness was 80 at the snapshot, so energy decayed at -0.5/min
	assert.Equal(t, 40, c.Stats.Energy)
	assert.True(t, c.Stats.IsValid())
	assert.False(t, result.Died)
	assert.False(t, c.IsDead())
}

func TestApplyDecay_SplitWindowMatchesSingleShot(t *testing.T) {
	// Decaying 4 then 6 minutes equals decaying 10 minutes in one shot,
	// as long as the anchor advances correctly.
	base := Stats{Happiness: 90, Energy: 90, Hunger: 90}
	start := time.Now().UTC().Add(-10 * time.Minute)

	single := newTestCreature(t)
	single.Stats = base
	single.StatsUpdatedAt = start
	ApplyDecay(single, start.Add(10*time.Minute))

	split := newTestCreature(t)
	split.Stats = base
	split.StatsUpdatedAt = start
	ApplyDecay(split, start.Add(4*time.Minute))
	ApplyDecay(split, start.Add(10*time.Minute))

	assert.Equal(t, single.Stats, split.Stats)
}

func TestApplyDecay_DeathOnlyWhenAllThreeDepleted(t *testing.T) {
	c := newTestCreature(t)
	now := time.Now().UTC()
	c.Stats = Stats{Happiness: 10, Energy: 10, Hunger: 10}
	c.StatsUpdatedAt = now.Add(-30 * time.Minute)

	result := ApplyDecay(c, now)

	assert.Equal(t, Stats{}, c.Stats)
	assert.True(t, result.Died)
	assert.True(t, c.IsDead())
	require.NotNil(t, c.DiedAt)
}

func TestApplyDecay_DeadCreatureIsFrozen(t *testing.T) {
	c := newTestCreature(t)
	now := time.Now().UTC()
	c.Stats = Stats{Happiness: 1, Energy: 1, Hunger: 1}
	c.StatsUpdatedAt = now.Add(-60 * time.Minute)

	first := ApplyDecay(c, now)
	require.True(t, first.Died)
	diedAt := *c.DiedAt

	second := ApplyDecay(c, now.Add(24*time.Hour))

	assert.False(t, second.Changed)
	assert.False(t, second.Died)
	assert.Equal(t, diedAt, *c.DiedAt)
	assert.Equal(t, Stats{}, c.Stats)
}

func TestApplyDecay_ClockSkewIsNoOp(t *testing.T) {
	c := newTestCreature(t)
	now := time.Now().UTC()
	c.Stats = Stats{Happiness: 60, Energy: 60, Hunger: 60}
	c.StatsUpdatedAt = now

	result := ApplyDecay(c, now.Add(-5*time.Minute))

	assert.False(t, result.Changed)
	assert.Equal(t, Stats{Happiness: 60, Energy: 60, Hunger: 60}, c.Stats)
}

func TestApplyDecay_FractionalMinutesRound(t *testing.T) {
	c := newTestCreature(t)
	now := time.Now().UTC()
	c.Stats = Stats{Happiness: 60, Energy: 60, Hunger: 60}
	c.StatsUpdatedAt = now.Add(-90 * time.Second)

	ApplyDecay(c, now)

	// 1.5 minutes: happiness 60-3=57, energy 60-1.5=58.5 rounds to 59, hunger 57
	assert.Equal(t, Stats{Happiness: 57, Energy: 59, Hunger: 57}, c.Stats)
}

func TestInteractionEffects(t *testing.T) {
	tests := []struct {
		name   string
		start  Stats
		effect Effect
		want   Stats
	}{
		{
			name:   "feed boosts hunger, energy and mood",
			start:  Stats{Happiness: 50, Energy: 50, Hunger: 50},
			effect: FeedEffect,
			want:   Stats{Happiness: 55, Energy: 60, Hunger: 80},
		},
		{
			name:   "feed clamps at the ceiling",
			start:  Stats{Happiness: 98, Energy: 95, Hunger: 90},
			effect: FeedEffect,
			want:   Stats{Happiness: 100, Energy: 100, Hunger: 100},
		},
		{
			name:   "chat cheers up but tires out",
			start:  Stats{Happiness: 50, Energy: 50, Hunger: 50},
			effect: ChatEffect,
			want:   Stats{Happiness: 53, Energy: 47, Hunger: 48},
		},
		{
			name:   "chat clamps at the floor",
			start:  Stats{Happiness: 50, Energy: 2, Hunger: 1},
			effect: ChatEffect,
			want:   Stats{Happiness: 53, Energy: 0, Hunger: 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.start.Apply(tt.effect))
		})
	}
}

func TestTrainingEffect_Tiers(t *testing.T) {
	tests := []struct {
		score int
		want  Effect
	}{
		{score: 100, want: Effect{Happiness: 15, Energy: -20, Hunger: -15}},
		{score: 80, want: Effect{Happiness: 15, Energy: -20, Hunger: -15}},
		{score: 79, want: Effect{Happiness: 8, Energy: -15, Hunger: -12}},
		{score: 60, want: Effect{Happiness: 8, Energy: -15, Hunger: -12}},
		{score: 59, want: Effect{Happiness: 3, Energy: -12, Hunger: -10}},
		{score: 40, want: Effect{Happiness: 3, Energy: -12, Hunger: -10}},
		{score: 39, want: Effect{Happiness: -10, Energy: -15, Hunger: -10}},
		{score: 0, want: Effect{Happiness: -10, Energy: -15, Hunger: -10}},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, TrainingEffect(tt.score), "score %d", tt.score)
	}
}

func TestTokenReward(t *testing.T) {
	assert.Equal(t, int64(42), TokenReward(85, DefaultRewardRate))
	assert.Equal(t, int64(40), TokenReward(80, DefaultRewardRate))
	assert.Equal(t, int64(125), TokenReward(250, DefaultRewardRate))
	assert.Equal(t, int64(0), TokenReward(0, DefaultRewardRate))
	assert.Equal(t, int64(0), TokenReward(-10, DefaultRewardRate))
}

func TestStageForPoints(t *testing.T) {
	assert.Equal(t, StageHatchling, StageForPoints(0))
	assert.Equal(t, StageHatchling, StageForPoints(499))
	assert.Equal(t, StageJuvenile, StageForPoints(500))
	assert.Equal(t, StageJuvenile, StageForPoints(1499))
	assert.Equal(t, StageAscended, StageForPoints(1500))
	assert.Equal(t, StageAscended, StageForPoints(999999))
}

func TestCheckEvolution_AdvancesOnce(t *testing.T) {
	c := newTestCreature(t)
	c.TotalPoints = 650

	first := CheckEvolution(c)
	assert.True(t, first.Evolved)
	assert.Equal(t, StageHatchling, first.OldStage)
	assert.Equal(t, StageJuvenile, first.NewStage)
	assert.Equal(t, StageJuvenile, c.Stage)

	// Re-checking the same points never re-triggers the transition.
	second := CheckEvolution(c)
	assert.False(t, second.Evolved)
	assert.Equal(t, StageJuvenile, c.Stage)
}

func TestCheckEvolution_SkipsStraightToFinalStage(t *testing.T) {
	c := newTestCreature(t)
	c.TotalPoints = 2000

	result := CheckEvolution(c)

	assert.True(t, result.Evolved)
	assert.Equal(t, StageAscended, result.NewStage)
	assert.True(t, c.Stage.IsFinal())
}

func TestCheckEvolution_NeverRegresses(t *testing.T) {
	c := newTestCreature(t)
	c.Stage = StageAscended
	c.TotalPoints = 100 // inconsistent on purpose

	result := CheckEvolution(c)

	assert.False(t, result.Evolved)
	assert.Equal(t, StageAscended, c.Stage)
}
