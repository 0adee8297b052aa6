package notification

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/regen-hub/regenmon-hub/internal/domain/shared"
)

func newTestTrigger() *Trigger {
	n := 0
	return NewTrigger(func() string {
		n++
		return "n-1"
	})
}

func TestTrigger_Evolved(t *testing.T) {
	trigger := newTestTrigger()
	event := shared.NewCreatureEvolvedEvent("cr-1", 1, 2, 650, 100)

	n, err := trigger.FromEvent(event, "owner-1", "Frutabyte")
	require.NoError(t, err)
	require.NotNil(t, n)

	assert.Equal(t, TypeEvolved, n.Type)
	assert.Equal(t, RecipientID("owner-1"), n.RecipientID)
	assert.Equal(t, "cr-1", n.CreatureID)
	assert.Contains(t, n.Title, "stage 2")
	assert.False(t, n.IsRead())
}

func TestTrigger_GiftTargetsReceiver(t *testing.T) {
	trigger := newTestTrigger()
	event := shared.NewTokensGiftedEvent("cr-sender", "cr-receiver", 30)

	n, err := trigger.FromEvent(event, "owner-recv", "Pomelo")
	require.NoError(t, err)
	require.NotNil(t, n)

	assert.Equal(t, TypeGiftReceived, n.Type)
	assert.Equal(t, "cr-receiver", n.CreatureID)
}

func TestTrigger_SelfFeedIsSilent(t *testing.T) {
	trigger := newTestTrigger()
	event := shared.NewCreatureFedEvent("cr-1", "cr-1", 10)

	n, err := trigger.FromEvent(event, "owner-1", "Frutabyte")
	require.NoError(t, err)
	assert.Nil(t, n)
}

func TestTrigger_AssistedFeedNotifies(t *testing.T) {
	trigger := newTestTrigger()
	event := shared.NewCreatureFedEvent("cr-1", "cr-2", 10)

	n, err := trigger.FromEvent(event, "owner-1", "Frutabyte")
	require.NoError(t, err)
	require.NotNil(t, n)
	assert.Equal(t, TypeFedByOther, n.Type)
}

func TestTrigger_UnmappedEventIsSilent(t *testing.T) {
	trigger := newTestTrigger()
	event := shared.NewTokensSpentEvent("cr-1", 10, 90, "feed")

	n, err := trigger.FromEvent(event, "owner-1", "Frutabyte")
	require.NoError(t, err)
	assert.Nil(t, n)
}

func TestShouldRemind(t *testing.T) {
	now := time.Now().UTC()

	assert.True(t, ShouldRemind(time.Time{}, now))
	assert.False(t, ShouldRemind(now.Add(-time.Hour), now))
	assert.True(t, ShouldRemind(now.Add(-25*time.Hour), now))
}

func TestNotification_MarkReadKeepsFirstTimestamp(t *testing.T) {
	n, err := New("n-1", "owner-1", "cr-1", TypeWelcome, "hi", "body")
	require.NoError(t, err)

	first := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	n.MarkRead(first)
	n.MarkRead(first.Add(time.Hour))

	assert.Equal(t, first, *n.ReadAt)
}
