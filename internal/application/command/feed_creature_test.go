package command

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/regen-hub/regenmon-hub/internal/domain/creature"
	"github.com/regen-hub/regenmon-hub/internal/domain/ledger"
	"github.com/regen-hub/regenmon-hub/internal/domain/shared"
	"github.com/regen-hub/regenmon-hub/internal/domain/social"
)

func TestFeedCreature_SelfFeed(t *testing.T) {
	c := testCreature("mon-a", 100, 0)
	c.Stats = creature.Stats{Happiness: 50, Energy: 50, Hunger: 40}
	store := newMemStore(c)
	pub := &fakePublisher{}
	h := NewFeedCreatureHandler(&fakeUOWFactory{store: store}, nil, pub)

	res, err := h.Handle(context.Background(), FeedCreatureCommand{CreatureID: "mon-a"})
	require.NoError(t, err)

	assert.Equal(t, creature.Stats{Happiness: 55, Energy: 60, Hunger: 70}, res.Stats)
	assert.Equal(t, int64(90), res.PayerBalance)
	assert.Equal(t, int64(90), store.creatures["mon-a"].Balance)

	require.Len(t, store.transactions, 1)
	tx := store.transactions[0]
	assert.Equal(t, ledger.TypeFeed, tx.Type)
	assert.Equal(t, int64(-10), tx.Amount)
	assert.Equal(t, int64(100), tx.BalanceBefore)
	assert.Equal(t, int64(90), tx.BalanceAfter)

	assert.Equal(t, 1, store.commits)
	assert.True(t, pub.has(shared.EventCreatureFed))
	assert.True(t, pub.has(shared.EventTokensSpent))
}

func TestFeedCreature_InsufficientBalanceRejectsEverything(t *testing.T) {
	c := testCreature("mon-a", 5, 0)
	before := c.Stats
	store := newMemStore(c)
	pub := &fakePublisher{}
	h := NewFeedCreatureHandler(&fakeUOWFactory{store: store}, nil, pub)

	_, err := h.Handle(context.Background(), FeedCreatureCommand{CreatureID: "mon-a"})
	require.Error(t, err)
	assert.True(t, shared.IsInsufficientBalance(err))

	// nothing moved: no ledger row, no commit, stats untouched, events silent
	assert.Empty(t, store.transactions)
	assert.Equal(t, 0, store.commits)
	assert.Equal(t, before, store.creatures["mon-a"].Stats)
	assert.Equal(t, int64(5), store.creatures["mon-a"].Balance)
	assert.Empty(t, pub.events)
}

func TestFeedCreature_Assisted(t *testing.T) {
	target := testCreature("mon-a", 0, 0)
	target.Stats = creature.Stats{Happiness: 40, Energy: 40, Hunger: 20}
	payer := testCreature("mon-b", 50, 0)
	store := newMemStore(target, payer)
	pub := &fakePublisher{}
	h := NewFeedCreatureHandler(&fakeUOWFactory{store: store}, nil, pub)

	res, err := h.Handle(context.Background(), FeedCreatureCommand{CreatureID: "mon-a", FeederID: "mon-b"})
	require.NoError(t, err)

	// the payer's ledger carries the debit, the target gets the meal
	assert.Equal(t, creature.Stats{Happiness: 45, Energy: 50, Hunger: 50}, res.Stats)
	assert.Equal(t, int64(40), store.creatures["mon-b"].Balance)
	assert.Equal(t, int64(0), store.creatures["mon-a"].Balance)

	// both sides get a ledger row: the debit on the payer, a
	// zero-amount marker on the fed creature
	require.Len(t, store.transactions, 2)
	tx := store.transactions[0]
	assert.Equal(t, "mon-b", tx.CreatureID)
	assert.Equal(t, int64(-10), tx.Amount)
	assert.Equal(t, "mon-a", tx.Metadata.CounterpartID)

	counter := store.transactions[1]
	assert.Equal(t, "mon-a", counter.CreatureID)
	assert.Equal(t, ledger.TypeFeed, counter.Type)
	assert.Zero(t, counter.Amount)
	assert.Equal(t, int64(0), counter.BalanceBefore)
	assert.Equal(t, int64(0), counter.BalanceAfter)
	assert.Equal(t, "mon-b", counter.Metadata.CounterpartID)

	require.Len(t, store.interactions, 1)
	assert.Equal(t, social.InteractionFeed, store.interactions[0].Kind)
	assert.Equal(t, social.CreatureID("mon-b"), store.interactions[0].ActorID)
	assert.Equal(t, social.CreatureID("mon-a"), store.interactions[0].TargetID)
}

func TestFeedCreature_AssistedRespectsPolicy(t *testing.T) {
	target := testCreature("mon-a", 0, 0)
	payer := testCreature("mon-b", 50, 0)
	store := newMemStore(target, payer)

	// a feed between the pair a minute ago is inside the cooldown
	prior, err := social.NewInteraction("prior", social.InteractionFeed, "mon-b", "mon-a", 0)
	require.NoError(t, err)
	store.interactions = append(store.interactions, prior)

	policy := social.NewPolicy(nil, &fakeInteractionRepo{store: store})
	h := NewFeedCreatureHandler(&fakeUOWFactory{store: store}, policy, &fakePublisher{})

	_, err = h.Handle(context.Background(), FeedCreatureCommand{CreatureID: "mon-a", FeederID: "mon-b"})
	require.Error(t, err)
	assert.True(t, shared.IsRateLimited(err))
	assert.Empty(t, store.transactions)
}

func TestFeedCreature_DecayPersistFailureStaysQuiet(t *testing.T) {
	// the creature decays to death during the feed, and persisting that
	// decay fails: the caller still sees the rejection, but no death
	// event goes out for a creature that is alive in storage
	c := testCreature("mon-a", 100, 0)
	c.Stats = creature.Stats{Happiness: 1, Energy: 1, Hunger: 1}
	c.StatsUpdatedAt = time.Now().UTC().Add(-7 * 24 * time.Hour)

	store := newMemStore(c)
	store.updateErr = errors.New("connection reset")
	pub := &fakePublisher{}
	h := NewFeedCreatureHandler(&fakeUOWFactory{store: store}, nil, pub)

	_, err := h.Handle(context.Background(), FeedCreatureCommand{CreatureID: "mon-a"})
	require.Error(t, err)

	assert.Equal(t, 0, store.commits)
	assert.Empty(t, pub.events)
}

func TestFeedCreature_DeadCreatureRejected(t *testing.T) {
	c := deadCreature("mon-a", 100)
	store := newMemStore(c)
	h := NewFeedCreatureHandler(&fakeUOWFactory{store: store}, nil, &fakePublisher{})

	_, err := h.Handle(context.Background(), FeedCreatureCommand{CreatureID: "mon-a"})
	require.Error(t, err)
	assert.True(t, shared.IsInactiveOrDead(err))
	assert.Empty(t, store.transactions)
}

func TestFeedCreature_UnknownCreature(t *testing.T) {
	store := newMemStore()
	h := NewFeedCreatureHandler(&fakeUOWFactory{store: store}, nil, &fakePublisher{})

	_, err := h.Handle(context.Background(), FeedCreatureCommand{CreatureID: "ghost"})
	require.Error(t, err)
	assert.True(t, shared.IsNotFound(err))
}
