package command

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/regen-hub/regenmon-hub/internal/domain/creature"
)

func TestChatWithCreature_Replies(t *testing.T) {
	c := testCreature("mon-a", 0, 0)
	c.Stats = creature.Stats{Happiness: 50, Energy: 50, Hunger: 50}
	store := newMemStore(c)
	h := NewChatWithCreatureHandler(&fakeUOWFactory{store: store},
		&fakeCompanion{reply: "*happy chirp* I love mangoes!"}, &fakePublisher{})

	res, err := h.Handle(context.Background(), ChatWithCreatureCommand{CreatureID: "mon-a", Prompt: "what's your favorite fruit?"})
	require.NoError(t, err)

	assert.Equal(t, "*happy chirp* I love mangoes!", res.Reply)
	assert.False(t, res.Fallback)
	assert.Equal(t, creature.Stats{Happiness: 53, Energy: 47, Hunger: 48}, res.Stats)

	// chat is free: nothing on the ledger, no points
	assert.Empty(t, store.transactions)
	assert.Equal(t, 0, store.creatures["mon-a"].TotalPoints)

	require.Len(t, store.exchanges, 1)
	assert.Equal(t, res.ExchangeID, store.exchanges[0].ID)
}

func TestChatWithCreature_FallbackWhenAIDown(t *testing.T) {
	store := newMemStore(testCreature("mon-a", 0, 0))
	h := NewChatWithCreatureHandler(&fakeUOWFactory{store: store},
		&fakeCompanion{err: errors.New("model overloaded")}, &fakePublisher{})

	res, err := h.Handle(context.Background(), ChatWithCreatureCommand{CreatureID: "mon-a", Prompt: "hello?"})
	require.NoError(t, err)

	assert.True(t, res.Fallback)
	assert.Equal(t, FallbackReply, res.Reply)
	// the exchange is stored like any other, the stat vector still applies
	require.Len(t, store.exchanges, 1)
	assert.True(t, store.exchanges[0].Fallback)
}

func TestChatWithCreature_DeadCreatureRejected(t *testing.T) {
	store := newMemStore(deadCreature("mon-a", 0))
	h := NewChatWithCreatureHandler(&fakeUOWFactory{store: store},
		&fakeCompanion{reply: "hi"}, &fakePublisher{})

	_, err := h.Handle(context.Background(), ChatWithCreatureCommand{CreatureID: "mon-a", Prompt: "hello?"})
	require.Error(t, err)
	assert.Empty(t, store.exchanges)
}
