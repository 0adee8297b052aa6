package command

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/regen-hub/regenmon-hub/internal/domain/creature"
	"github.com/regen-hub/regenmon-hub/internal/domain/ledger"
	"github.com/regen-hub/regenmon-hub/internal/domain/shared"
)

func TestTrainCreature_HighScore(t *testing.T) {
	c := testCreature("mon-a", 0, 0)
	c.Stats = creature.Stats{Happiness: 50, Energy: 60, Hunger: 50}
	store := newMemStore(c)
	pub := &fakePublisher{}
	h := NewTrainCreatureHandler(&fakeUOWFactory{store: store},
		&fakeEvaluator{score: 85, feedback: "sharp work"}, &fakeLimiter{allowed: true}, pub, 0)

	res, err := h.Handle(context.Background(), TrainCreatureCommand{CreatureID: "mon-a", Prompt: "teach me recursion"})
	require.NoError(t, err)

	assert.Equal(t, 85, res.Score)
	assert.False(t, res.Fallback)
	assert.Equal(t, 85, res.PointsEarned)
	assert.Equal(t, int64(42), res.TokensEarned) // floor(85 * 0.5)
	assert.Equal(t, creature.Stats{Happiness: 65, Energy: 40, Hunger: 35}, res.Stats)

	require.Len(t, store.transactions, 1)
	assert.Equal(t, ledger.TypeReward, store.transactions[0].Type)
	assert.Equal(t, "training", store.transactions[0].Metadata.Source)
	assert.Equal(t, 85, store.transactions[0].Metadata.Score)

	require.Len(t, store.sessions, 1)
	session := store.sessions[0]
	assert.Equal(t, 85, session.Score)
	assert.Equal(t, "sharp work", session.Feedback)
	assert.Equal(t, 85, session.PointsEarned)
	assert.Equal(t, int64(42), session.TokensEarned)

	assert.Equal(t, 1, store.creatures["mon-a"].TrainingCount)
	assert.True(t, pub.has(shared.EventCreatureTrained))
}

func TestTrainCreature_LowScorePunishes(t *testing.T) {
	c := testCreature("mon-a", 0, 0)
	c.Stats = creature.Stats{Happiness: 50, Energy: 50, Hunger: 50}
	store := newMemStore(c)
	h := NewTrainCreatureHandler(&fakeUOWFactory{store: store},
		&fakeEvaluator{score: 20}, &fakeLimiter{allowed: true}, &fakePublisher{}, 0)

	res, err := h.Handle(context.Background(), TrainCreatureCommand{CreatureID: "mon-a", Prompt: "idk"})
	require.NoError(t, err)

	assert.Equal(t, creature.Stats{Happiness: 40, Energy: 35, Hunger: 40}, res.Stats)
	// even a bad session earns its score in points
	assert.Equal(t, 20, res.PointsEarned)
	assert.Equal(t, int64(10), res.TokensEarned)
}

func TestTrainCreature_EvaluatorDownUsesFallback(t *testing.T) {
	store := newMemStore(testCreature("mon-a", 0, 0))
	h := NewTrainCreatureHandler(&fakeUOWFactory{store: store},
		&fakeEvaluator{err: errors.New("upstream timeout")}, &fakeLimiter{allowed: true}, &fakePublisher{}, 0)

	res, err := h.Handle(context.Background(), TrainCreatureCommand{CreatureID: "mon-a", Prompt: "hello"})
	require.NoError(t, err)

	assert.True(t, res.Fallback)
	assert.Equal(t, FallbackScore, res.Score)
	assert.Equal(t, FallbackScore, res.PointsEarned)
	require.Len(t, store.sessions, 1)
	assert.True(t, store.sessions[0].Fallback)
}

func TestTrainCreature_LimiterRejects(t *testing.T) {
	store := newMemStore(testCreature("mon-a", 0, 0))
	h := NewTrainCreatureHandler(&fakeUOWFactory{store: store},
		&fakeEvaluator{score: 90}, &fakeLimiter{allowed: false}, &fakePublisher{}, 0)

	_, err := h.Handle(context.Background(), TrainCreatureCommand{CreatureID: "mon-a", Prompt: "hello"})
	require.Error(t, err)
	assert.True(t, shared.IsRateLimited(err))
	assert.Empty(t, store.sessions)
}

func TestTrainCreature_LimiterFailsOpen(t *testing.T) {
	// an unreachable limiter must not block training
	store := newMemStore(testCreature("mon-a", 0, 0))
	h := NewTrainCreatureHandler(&fakeUOWFactory{store: store},
		&fakeEvaluator{score: 70}, &fakeLimiter{allowed: false, err: errors.New("redis down")}, &fakePublisher{}, 0)

	res, err := h.Handle(context.Background(), TrainCreatureCommand{CreatureID: "mon-a", Prompt: "hello"})
	require.NoError(t, err)
	assert.Equal(t, 70, res.Score)
}

func TestTrainCreature_DeadCreatureRejected(t *testing.T) {
	store := newMemStore(deadCreature("mon-a", 100))
	h := NewTrainCreatureHandler(&fakeUOWFactory{store: store},
		&fakeEvaluator{score: 90}, &fakeLimiter{allowed: true}, &fakePublisher{}, 0)

	_, err := h.Handle(context.Background(), TrainCreatureCommand{CreatureID: "mon-a", Prompt: "hello"})
	require.Error(t, err)
	assert.True(t, shared.IsInactiveOrDead(err))
}

func TestTrainCreature_ClampsWildScores(t *testing.T) {
	store := newMemStore(testCreature("mon-a", 0, 0))
	h := NewTrainCreatureHandler(&fakeUOWFactory{store: store},
		&fakeEvaluator{score: 400}, &fakeLimiter{allowed: true}, &fakePublisher{}, 0)

	res, err := h.Handle(context.Background(), TrainCreatureCommand{CreatureID: "mon-a", Prompt: "hello"})
	require.NoError(t, err)
	assert.Equal(t, 100, res.Score)
}
