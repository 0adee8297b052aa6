package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/regen-hub/regenmon-hub/internal/domain/creature"
	"github.com/regen-hub/regenmon-hub/internal/domain/ledger"
	"github.com/regen-hub/regenmon-hub/internal/domain/shared"
)

func TestReviveCreature_Success(t *testing.T) {
	c := deadCreature("mon-a", 20)
	c.TotalPoints = 700
	c.Stage = creature.StageJuvenile
	store := newMemStore(c)
	pub := &fakePublisher{}
	h := NewReviveCreatureHandler(&fakeUOWFactory{store: store}, pub)

	res, err := h.Handle(context.Background(), ReviveCreatureCommand{CreatureID: "mon-a"})
	require.NoError(t, err)

	assert.Equal(t, creature.DefaultStats(), res.Stats)
	assert.Equal(t, int64(0), res.NewBalance)

	got := store.creatures["mon-a"]
	assert.False(t, got.IsDead())
	// death costs nothing but the stats: points and stage survive
	assert.Equal(t, 700, got.TotalPoints)
	assert.Equal(t, creature.StageJuvenile, got.Stage)

	require.Len(t, store.transactions, 1)
	assert.Equal(t, ledger.TypeRevive, store.transactions[0].Type)
	assert.Equal(t, int64(-20), store.transactions[0].Amount)

	assert.True(t, pub.has(shared.EventCreatureRevived))
	assert.True(t, pub.has(shared.EventTokensSpent))
}

func TestReviveCreature_CannotAfford(t *testing.T) {
	c := deadCreature("mon-a", 10)
	store := newMemStore(c)
	h := NewReviveCreatureHandler(&fakeUOWFactory{store: store}, &fakePublisher{})

	_, err := h.Handle(context.Background(), ReviveCreatureCommand{CreatureID: "mon-a"})
	require.Error(t, err)
	assert.True(t, shared.IsInsufficientBalance(err))

	// still dead, still broke, nothing written
	assert.True(t, store.creatures["mon-a"].IsDead())
	assert.Equal(t, int64(10), store.creatures["mon-a"].Balance)
	assert.Empty(t, store.transactions)
	assert.Equal(t, 0, store.commits)
}

func TestReviveCreature_LivingCreatureRejected(t *testing.T) {
	store := newMemStore(testCreature("mon-a", 100, 0))
	h := NewReviveCreatureHandler(&fakeUOWFactory{store: store}, &fakePublisher{})

	_, err := h.Handle(context.Background(), ReviveCreatureCommand{CreatureID: "mon-a"})
	require.Error(t, err)
	assert.True(t, shared.IsValidation(err))
	assert.Empty(t, store.transactions)
}

func TestReviveCreature_UnknownCreature(t *testing.T) {
	store := newMemStore()
	h := NewReviveCreatureHandler(&fakeUOWFactory{store: store}, &fakePublisher{})

	_, err := h.Handle(context.Background(), ReviveCreatureCommand{CreatureID: "ghost"})
	require.Error(t, err)
	assert.True(t, shared.IsNotFound(err))
}
