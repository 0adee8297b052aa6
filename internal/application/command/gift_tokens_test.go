package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/regen-hub/regenmon-hub/internal/domain/ledger"
	"github.com/regen-hub/regenmon-hub/internal/domain/shared"
	"github.com/regen-hub/regenmon-hub/internal/domain/social"
)

func TestGiftTokens_Transfer(t *testing.T) {
	sender := testCreature("mon-x", 100, 0)
	receiver := testCreature("mon-y", 5, 0)
	store := newMemStore(sender, receiver)
	pub := &fakePublisher{}
	h := NewGiftTokensHandler(&fakeUOWFactory{store: store}, nil, pub)

	res, err := h.Handle(context.Background(), GiftTokensCommand{
		FromCreatureID: "mon-x",
		ToCreatureID:   "mon-y",
		Amount:         30,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(70), res.SenderBalance)
	assert.Equal(t, int64(35), res.ReceiverBalance)
	assert.Equal(t, int64(70), store.creatures["mon-x"].Balance)
	assert.Equal(t, int64(35), store.creatures["mon-y"].Balance)

	require.Len(t, store.transactions, 2)
	debit, credit := store.transactions[0], store.transactions[1]

	assert.Equal(t, ledger.TypeGift, debit.Type)
	assert.Equal(t, int64(-30), debit.Amount)
	assert.Equal(t, "mon-x", debit.CreatureID)
	assert.Equal(t, "mon-y", debit.Metadata.CounterpartID)
	assert.Equal(t, ledger.DirectionSent, debit.Metadata.Direction)

	assert.Equal(t, ledger.TypeGift, credit.Type)
	assert.Equal(t, int64(30), credit.Amount)
	assert.Equal(t, "mon-y", credit.CreatureID)
	assert.Equal(t, "mon-x", credit.Metadata.CounterpartID)
	assert.Equal(t, ledger.DirectionReceived, credit.Metadata.Direction)

	require.Len(t, store.interactions, 1)
	assert.Equal(t, social.InteractionGift, store.interactions[0].Kind)
	assert.Equal(t, int64(30), store.interactions[0].Amount)

	assert.True(t, pub.has(shared.EventTokensGifted))
}

func TestGiftTokens_InsufficientBalanceRejectsBothSides(t *testing.T) {
	sender := testCreature("mon-x", 20, 0)
	receiver := testCreature("mon-y", 5, 0)
	store := newMemStore(sender, receiver)
	pub := &fakePublisher{}
	h := NewGiftTokensHandler(&fakeUOWFactory{store: store}, nil, pub)

	_, err := h.Handle(context.Background(), GiftTokensCommand{
		FromCreatureID: "mon-x",
		ToCreatureID:   "mon-y",
		Amount:         30,
	})
	require.Error(t, err)
	assert.True(t, shared.IsInsufficientBalance(err))

	// neither ledger moved
	assert.Empty(t, store.transactions)
	assert.Equal(t, 0, store.commits)
	assert.Equal(t, int64(20), store.creatures["mon-x"].Balance)
	assert.Equal(t, int64(5), store.creatures["mon-y"].Balance)
	assert.Empty(t, pub.events)
}

func TestGiftTokens_RejectsSelfGift(t *testing.T) {
	store := newMemStore(testCreature("mon-x", 100, 0))
	h := NewGiftTokensHandler(&fakeUOWFactory{store: store}, nil, &fakePublisher{})

	_, err := h.Handle(context.Background(), GiftTokensCommand{
		FromCreatureID: "mon-x",
		ToCreatureID:   "mon-x",
		Amount:         10,
	})
	require.Error(t, err)
	assert.True(t, shared.IsValidation(err))
}

func TestGiftTokens_RejectsNonPositiveAmount(t *testing.T) {
	store := newMemStore(testCreature("mon-x", 100, 0), testCreature("mon-y", 0, 0))
	h := NewGiftTokensHandler(&fakeUOWFactory{store: store}, nil, &fakePublisher{})

	for _, amount := range []int64{0, -5} {
		_, err := h.Handle(context.Background(), GiftTokensCommand{
			FromCreatureID: "mon-x",
			ToCreatureID:   "mon-y",
			Amount:         amount,
		})
		require.Error(t, err)
		assert.True(t, shared.IsValidation(err))
	}
}

func TestGiftTokens_DeadReceiverRejected(t *testing.T) {
	sender := testCreature("mon-x", 100, 0)
	receiver := deadCreature("mon-y", 0)
	store := newMemStore(sender, receiver)
	h := NewGiftTokensHandler(&fakeUOWFactory{store: store}, nil, &fakePublisher{})

	_, err := h.Handle(context.Background(), GiftTokensCommand{
		FromCreatureID: "mon-x",
		ToCreatureID:   "mon-y",
		Amount:         10,
	})
	require.Error(t, err)
	assert.True(t, shared.IsInactiveOrDead(err))
	assert.Empty(t, store.transactions)
}
