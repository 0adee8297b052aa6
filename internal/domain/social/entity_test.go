package social

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMessage(t *testing.T) {
	msg, err := NewMessage("m-1", "cr-a", "cr-b", "  hey, nice regenmon!  ")
	require.NoError(t, err)

	assert.Equal(t, MessageBody("hey, nice regenmon!"), msg.Body)
	assert.False(t, msg.IsRead())
}

func TestNewMessage_Validation(t *testing.T) {
	_, err := NewMessage("m-1", "cr-a", "cr-a", "hello")
	assert.ErrorIs(t, err, ErrSelfInteraction)

	_, err = NewMessage("m-1", "cr-a", "cr-b", "   ")
	assert.ErrorIs(t, err, ErrEmptyMessage)

	_, err = NewMessage("m-1", "cr-a", "cr-b", MessageBody(strings.Repeat("x", 281)))
	assert.ErrorIs(t, err, ErrMessageTooLong)

	_, err = NewMessage("", "cr-a", "cr-b", "hello")
	assert.ErrorIs(t, err, ErrInvalidParticipant)
}

func TestMessage_MarkRead(t *testing.T) {
	msg, err := NewMessage("m-1", "cr-a", "cr-b", "hello")
	require.NoError(t, err)

	// only the recipient may read
	assert.ErrorIs(t, msg.MarkRead("cr-a", time.Now()), ErrNotRecipient)

	first := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, msg.MarkRead("cr-b", first))
	require.True(t, msg.IsRead())

	// idempotent: the original timestamp survives
	require.NoError(t, msg.MarkRead("cr-b", first.Add(time.Hour)))
	assert.Equal(t, first, *msg.ReadAt)
}

func TestNewVisit_RejectsSelf(t *testing.T) {
	_, err := NewVisit("v-1", "cr-a", "cr-a")
	assert.ErrorIs(t, err, ErrSelfInteraction)
}

// fakeInteractions is an in-memory InteractionRepository for policy tests.
type fakeInteractions struct {
	last  *Interaction
	count int
}

func (f *fakeInteractions) Save(context.Context, *Interaction) error { return nil }

func (f *fakeInteractions) GetActivity(context.Context, CreatureID, ListOptions) ([]*Interaction, error) {
	return nil, nil
}

func (f *fakeInteractions) CountSince(context.Context, CreatureID, InteractionKind, time.Time) (int, error) {
	return f.count, nil
}

func (f *fakeInteractions) LastBetween(context.Context, CreatureID, CreatureID, InteractionKind) (*Interaction, error) {
	return f.last, nil
}

func TestPolicy_PairCooldown(t *testing.T) {
	now := time.Now().UTC()
	repo := &fakeInteractions{
		last: &Interaction{Kind: InteractionFeed, OccurredAt: now.Add(-2 * time.Minute)},
	}
	policy := NewPolicy(nil, repo)

	err := policy.Check(context.Background(), "cr-a", "cr-b", InteractionFeed, now)
	assert.ErrorIs(t, err, ErrCooldownActive)

	// cooldown elapsed
	repo.last.OccurredAt = now.Add(-11 * time.Minute)
	assert.NoError(t, policy.Check(context.Background(), "cr-a", "cr-b", InteractionFeed, now))
}

func TestPolicy_DailyCap(t *testing.T) {
	now := time.Now().UTC()
	repo := &fakeInteractions{count: 100}
	policy := NewPolicy(nil, repo)

	err := policy.Check(context.Background(), "cr-a", "cr-b", InteractionMessage, now)
	assert.ErrorIs(t, err, ErrDailyCapReached)

	repo.count = 99
	assert.NoError(t, policy.Check(context.Background(), "cr-a", "cr-b", InteractionMessage, now))
}

func TestPolicy_UnrestrictedKindPasses(t *testing.T) {
	policy := NewPolicy(nil, &fakeInteractions{count: 100000})
	assert.NoError(t, policy.Check(context.Background(), "cr-a", "cr-b", InteractionVisit, time.Now()))
}
