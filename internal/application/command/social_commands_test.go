package command

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/regen-hub/regenmon-hub/internal/domain/shared"
	"github.com/regen-hub/regenmon-hub/internal/domain/social"
)

func TestSendMessage_Delivers(t *testing.T) {
	store := newMemStore(testCreature("mon-a", 0, 0), testCreature("mon-b", 0, 0))
	pub := &fakePublisher{}
	h := NewSendMessageHandler(&fakeUOWFactory{store: store}, nil, pub)

	res, err := h.Handle(context.Background(), SendMessageCommand{
		FromCreatureID: "mon-a",
		ToCreatureID:   "mon-b",
		Body:           "  your regenmon looks great today  ",
	})
	require.NoError(t, err)

	require.Len(t, store.messages, 1)
	msg := store.messages[0]
	assert.Equal(t, res.MessageID, msg.ID)
	assert.Equal(t, social.MessageBody("your regenmon looks great today"), msg.Body)
	assert.False(t, msg.IsRead())

	require.Len(t, store.interactions, 1)
	assert.Equal(t, social.InteractionMessage, store.interactions[0].Kind)
	assert.True(t, pub.has(shared.EventMessageSent))
}

func TestSendMessage_DeadRecipientStillReceives(t *testing.T) {
	// mail waits in the inbox for a revival
	store := newMemStore(testCreature("mon-a", 0, 0), deadCreature("mon-b", 0))
	h := NewSendMessageHandler(&fakeUOWFactory{store: store}, nil, &fakePublisher{})

	_, err := h.Handle(context.Background(), SendMessageCommand{
		FromCreatureID: "mon-a",
		ToCreatureID:   "mon-b",
		Body:           "get well soon",
	})
	require.NoError(t, err)
	assert.Len(t, store.messages, 1)
}

func TestSendMessage_DeadSenderRejected(t *testing.T) {
	store := newMemStore(deadCreature("mon-a", 0), testCreature("mon-b", 0, 0))
	h := NewSendMessageHandler(&fakeUOWFactory{store: store}, nil, &fakePublisher{})

	_, err := h.Handle(context.Background(), SendMessageCommand{
		FromCreatureID: "mon-a",
		ToCreatureID:   "mon-b",
		Body:           "boo",
	})
	require.Error(t, err)
	assert.True(t, shared.IsInactiveOrDead(err))
	assert.Empty(t, store.messages)
}

func TestSendMessage_Validation(t *testing.T) {
	store := newMemStore(testCreature("mon-a", 0, 0), testCreature("mon-b", 0, 0))
	h := NewSendMessageHandler(&fakeUOWFactory{store: store}, nil, &fakePublisher{})

	cases := []struct {
		name string
		cmd  SendMessageCommand
	}{
		{"self message", SendMessageCommand{FromCreatureID: "mon-a", ToCreatureID: "mon-a", Body: "hi"}},
		{"empty body", SendMessageCommand{FromCreatureID: "mon-a", ToCreatureID: "mon-b", Body: "   "}},
		{"too long", SendMessageCommand{FromCreatureID: "mon-a", ToCreatureID: "mon-b", Body: strings.Repeat("a", 281)}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := h.Handle(context.Background(), tc.cmd)
			require.Error(t, err)
			assert.True(t, shared.IsValidation(err))
		})
	}
	assert.Empty(t, store.messages)
}

func TestVisitCreature_Records(t *testing.T) {
	store := newMemStore(testCreature("mon-a", 0, 0), testCreature("mon-b", 0, 0))
	h := NewVisitCreatureHandler(&fakeUOWFactory{store: store})

	res, err := h.Handle(context.Background(), VisitCreatureCommand{VisitorID: "mon-a", HostID: "mon-b"})
	require.NoError(t, err)

	require.Len(t, store.visits, 1)
	assert.Equal(t, res.VisitID, store.visits[0].ID)
	assert.Equal(t, social.CreatureID("mon-a"), store.visits[0].VisitorID)
	assert.Equal(t, social.CreatureID("mon-b"), store.visits[0].HostID)

	require.Len(t, store.interactions, 1)
	assert.Equal(t, social.InteractionVisit, store.interactions[0].Kind)
}

func TestVisitCreature_DeadHostStillVisitable(t *testing.T) {
	store := newMemStore(testCreature("mon-a", 0, 0), deadCreature("mon-b", 0))
	h := NewVisitCreatureHandler(&fakeUOWFactory{store: store})

	_, err := h.Handle(context.Background(), VisitCreatureCommand{VisitorID: "mon-a", HostID: "mon-b"})
	require.NoError(t, err)
	assert.Len(t, store.visits, 1)
}

func TestVisitCreature_RejectsSelfVisit(t *testing.T) {
	store := newMemStore(testCreature("mon-a", 0, 0))
	h := NewVisitCreatureHandler(&fakeUOWFactory{store: store})

	_, err := h.Handle(context.Background(), VisitCreatureCommand{VisitorID: "mon-a", HostID: "mon-a"})
	require.Error(t, err)
	assert.True(t, shared.IsValidation(err))
	assert.Empty(t, store.visits)
}
