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

func TestSyncCreature_PointsDeltaAndEvolution(t *testing.T) {
	// server knows 400 points, the app reports 650: the delta of 250 is
	// rewarded and crossing the 500 threshold pays the stage bonus on top
	c := testCreature("mon-a", 0, 400)
	store := newMemStore(c)
	pub := &fakePublisher{}
	h := NewSyncCreatureHandler(&fakeUOWFactory{store: store}, pub, 0)

	res, err := h.Handle(context.Background(), SyncCreatureCommand{CreatureID: "mon-a", ClientPoints: 650})
	require.NoError(t, err)

	assert.Equal(t, 250, res.PointsGained)
	assert.Equal(t, int64(125), res.TokensEarned)
	assert.Equal(t, 650, res.TotalPoints)
	assert.Equal(t, int64(225), res.NewBalance) // 125 reward + 100 stage bonus

	require.NotNil(t, res.Evolution)
	assert.Equal(t, creature.StageJuvenile, res.Evolution.NewStage)
	assert.Equal(t, creature.StageJuvenile, store.creatures["mon-a"].Stage)

	require.Len(t, store.transactions, 2)
	assert.Equal(t, ledger.TypeReward, store.transactions[0].Type)
	assert.Equal(t, int64(125), store.transactions[0].Amount)
	assert.Equal(t, ledger.TypeEvolution, store.transactions[1].Type)
	assert.Equal(t, int64(100), store.transactions[1].Amount)
	assert.Equal(t, 2, store.transactions[1].Metadata.Stage)

	require.Len(t, store.snapshots, 1)
	assert.Equal(t, int64(225), store.snapshots[0].Balance)
	assert.Equal(t, 650, store.snapshots[0].TotalPoints)

	assert.True(t, pub.has(shared.EventTokensAwarded))
	assert.True(t, pub.has(shared.EventCreatureEvolved))
	assert.True(t, pub.has(shared.EventSyncCompleted))
}

func TestSyncCreature_ClientBehindServer(t *testing.T) {
	// a stale client can never roll lifetime points back
	c := testCreature("mon-a", 40, 500)
	store := newMemStore(c)
	h := NewSyncCreatureHandler(&fakeUOWFactory{store: store}, &fakePublisher{}, 0)

	res, err := h.Handle(context.Background(), SyncCreatureCommand{CreatureID: "mon-a", ClientPoints: 300})
	require.NoError(t, err)

	assert.Equal(t, 0, res.PointsGained)
	assert.Equal(t, int64(0), res.TokensEarned)
	assert.Equal(t, 500, res.TotalPoints)
	assert.Equal(t, int64(40), res.NewBalance)
	assert.Empty(t, store.transactions)
	// the sync itself still lands: snapshot written, timestamp advanced
	assert.Len(t, store.snapshots, 1)
}

func TestSyncCreature_DeadCreatureStillSyncs(t *testing.T) {
	c := deadCreature("mon-a", 10)
	c.TotalPoints = 100
	store := newMemStore(c)
	h := NewSyncCreatureHandler(&fakeUOWFactory{store: store}, &fakePublisher{}, 0)

	res, err := h.Handle(context.Background(), SyncCreatureCommand{CreatureID: "mon-a", ClientPoints: 150})
	require.NoError(t, err)

	assert.Equal(t, 50, res.PointsGained)
	assert.Equal(t, int64(25), res.TokensEarned)
	assert.True(t, store.creatures["mon-a"].IsDead())
}

func TestSyncCreature_RejectsNegativePoints(t *testing.T) {
	store := newMemStore(testCreature("mon-a", 0, 0))
	h := NewSyncCreatureHandler(&fakeUOWFactory{store: store}, &fakePublisher{}, 0)

	_, err := h.Handle(context.Background(), SyncCreatureCommand{CreatureID: "mon-a", ClientPoints: -1})
	require.Error(t, err)
	assert.True(t, shared.IsValidation(err))
}

func TestSyncCreature_SkippingAStagePaysOneBonus(t *testing.T) {
	// a huge delta that jumps 1 -> 3 pays a single bonus for the advance
	c := testCreature("mon-a", 0, 0)
	store := newMemStore(c)
	h := NewSyncCreatureHandler(&fakeUOWFactory{store: store}, &fakePublisher{}, 0)

	res, err := h.Handle(context.Background(), SyncCreatureCommand{CreatureID: "mon-a", ClientPoints: 2000})
	require.NoError(t, err)

	require.NotNil(t, res.Evolution)
	assert.Equal(t, creature.StageAscended, res.Evolution.NewStage)

	var bonuses int
	for _, tx := range store.transactions {
		if tx.Type == ledger.TypeEvolution {
			bonuses++
		}
	}
	assert.Equal(t, 1, bonuses)
	assert.Equal(t, int64(1100), res.NewBalance) // floor(2000*0.5) + 100
}
