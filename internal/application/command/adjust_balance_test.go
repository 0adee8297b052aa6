package command

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/regen-hub/regenmon-hub/internal/domain/ledger"
	"github.com/regen-hub/regenmon-hub/internal/domain/shared"
)

func TestAdjustBalance_Credit(t *testing.T) {
	store := newMemStore(testCreature("mon-a", 50, 0))
	pub := &fakePublisher{}
	h := NewAdjustBalanceHandler(&fakeUOWFactory{store: store}, pub)

	res, err := h.Handle(context.Background(), AdjustBalanceCommand{
		CreatureID: "mon-a",
		Amount:     25,
		Reason:     "compensation for sync outage",
		ActorID:    "admin-1",
	})
	require.NoError(t, err)

	assert.Equal(t, int64(75), res.NewBalance)
	require.Len(t, store.transactions, 1)
	tx := store.transactions[0]
	assert.Equal(t, ledger.TypeAdminAdjustment, tx.Type)
	assert.Equal(t, "admin-1", tx.Metadata.ActorID)
	assert.Equal(t, "compensation for sync outage", tx.Reason)

	assert.True(t, pub.has(shared.EventTokensAdjusted))
}

func TestAdjustBalance_DebitCannotGoNegative(t *testing.T) {
	store := newMemStore(testCreature("mon-a", 50, 0))
	h := NewAdjustBalanceHandler(&fakeUOWFactory{store: store}, &fakePublisher{})

	_, err := h.Handle(context.Background(), AdjustBalanceCommand{
		CreatureID: "mon-a",
		Amount:     -60,
		Reason:     "clawback",
		ActorID:    "admin-1",
	})
	require.Error(t, err)
	assert.True(t, shared.IsInsufficientBalance(err))
	assert.Equal(t, int64(50), store.creatures["mon-a"].Balance)
	assert.Empty(t, store.transactions)
}

func TestAdjustBalance_Validation(t *testing.T) {
	store := newMemStore(testCreature("mon-a", 50, 0))
	h := NewAdjustBalanceHandler(&fakeUOWFactory{store: store}, &fakePublisher{})

	cases := []struct {
		name string
		cmd  AdjustBalanceCommand
	}{
		{"zero amount", AdjustBalanceCommand{CreatureID: "mon-a", Amount: 0, Reason: "r", ActorID: "admin-1"}},
		{"missing actor", AdjustBalanceCommand{CreatureID: "mon-a", Amount: 5, Reason: "r"}},
		{"missing reason", AdjustBalanceCommand{CreatureID: "mon-a", Amount: 5, Reason: "   ", ActorID: "admin-1"}},
		{"reason too long", AdjustBalanceCommand{CreatureID: "mon-a", Amount: 5, Reason: strings.Repeat("x", 501), ActorID: "admin-1"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := h.Handle(context.Background(), tc.cmd)
			require.Error(t, err)
		})
	}
	assert.Empty(t, store.transactions)
}

func TestAdjustBalance_WorksOnDeadCreature(t *testing.T) {
	store := newMemStore(deadCreature("mon-a", 0))
	h := NewAdjustBalanceHandler(&fakeUOWFactory{store: store}, &fakePublisher{})

	res, err := h.Handle(context.Background(), AdjustBalanceCommand{
		CreatureID: "mon-a",
		Amount:     20,
		Reason:     "revival fund",
		ActorID:    "admin-1",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(20), res.NewBalance)
}
