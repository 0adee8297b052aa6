package eventhandler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/regen-hub/regenmon-hub/config"
	"github.com/regen-hub/regenmon-hub/internal/domain/creature"
	"github.com/regen-hub/regenmon-hub/internal/domain/notification"
	"github.com/regen-hub/regenmon-hub/internal/domain/shared"
)

func newProducer(creatures map[string]*creature.Creature) (*NotificationProducer, *fakeNotificationRepo) {
	repo := &fakeNotificationRepo{}
	trigger := notification.NewTrigger(func() string { return "notif-1" })
	producer := NewNotificationProducer(&fakeCreatureReader{creatures: creatures}, repo, nil, trigger, nil, nil)
	return producer, repo
}

// fakeGate disables the named features for every owner.
type fakeGate struct {
	disabled map[string]bool
}

func (g *fakeGate) IsEnabledForOwner(feature, ownerID string) bool {
	return !g.disabled[feature]
}

func TestNotificationProducer_GiftNotifiesReceiver(t *testing.T) {
	producer, repo := newProducer(map[string]*creature.Creature{
		"c2": {ID: "c2", OwnerID: "owner-2", Name: "Papaya"},
	})

	err := producer.Handle(shared.NewTokensGiftedEvent("c1", "c2", 30))
	require.NoError(t, err)

	require.Len(t, repo.saved, 1)
	assert.Equal(t, notification.RecipientID("owner-2"), repo.saved[0].RecipientID)
	assert.Equal(t, notification.TypeGiftReceived, repo.saved[0].Type)
}

func TestNotificationProducer_SelfFeedNotifiesNobody(t *testing.T) {
	producer, repo := newProducer(map[string]*creature.Creature{
		"c1": {ID: "c1", OwnerID: "owner-1", Name: "Mango"},
	})

	err := producer.Handle(shared.NewCreatureFedEvent("c1", "c1", 10))
	require.NoError(t, err)
	assert.Empty(t, repo.saved)
}

func TestNotificationProducer_FedByOtherNotifiesOwner(t *testing.T) {
	producer, repo := newProducer(map[string]*creature.Creature{
		"c1": {ID: "c1", OwnerID: "owner-1", Name: "Mango"},
	})

	err := producer.Handle(shared.NewCreatureFedEvent("c1", "c9", 10))
	require.NoError(t, err)

	require.Len(t, repo.saved, 1)
	assert.Equal(t, notification.TypeFedByOther, repo.saved[0].Type)
}

func TestNotificationProducer_RemindersThrottled(t *testing.T) {
	producer, repo := newProducer(map[string]*creature.Creature{
		"c1": {ID: "c1", OwnerID: "owner-1", Name: "Mango"},
	})

	event := shared.NewCreatureInactiveEvent("c1", 4, time.Now().Add(-4*24*time.Hour))

	require.NoError(t, producer.Handle(event))
	require.NoError(t, producer.Handle(event))

	assert.Len(t, repo.saved, 1, "second reminder within the interval must be dropped")
}

func TestNotificationProducer_DisabledCategoryIsSuppressed(t *testing.T) {
	repo := &fakeNotificationRepo{}
	trigger := notification.NewTrigger(func() string { return "notif-1" })
	creatures := map[string]*creature.Creature{
		"c2": {ID: "c2", OwnerID: "owner-2", Name: "Papaya"},
	}
	gate := &fakeGate{disabled: map[string]bool{config.FeatureNotifySocial: true}}
	producer := NewNotificationProducer(&fakeCreatureReader{creatures: creatures}, repo, nil, trigger, gate, nil)

	require.NoError(t, producer.Handle(shared.NewTokensGiftedEvent("c1", "c2", 30)))
	assert.Empty(t, repo.saved, "social notifications are flagged off for this owner")

	// Ungated categories still go through.
	require.NoError(t, producer.Handle(shared.NewCreatureRegisteredEvent("c2", "Papaya", "", "owner-2")))
	assert.Len(t, repo.saved, 1)
}

func TestNotificationProducer_TrainedEventIsSilent(t *testing.T) {
	producer, repo := newProducer(map[string]*creature.Creature{
		"c1": {ID: "c1", OwnerID: "owner-1", Name: "Mango"},
	})

	err := producer.Handle(shared.NewCreatureTrainedEvent("c1", 85, 85, 42, false))
	require.NoError(t, err)
	assert.Empty(t, repo.saved)
}

// ──────────────────────────────────────────────────────────────────────────────
// Fakes
// ──────────────────────────────────────────────────────────────────────────────

type fakeCreatureReader struct {
	creatures map[string]*creature.Creature
}

func (f *fakeCreatureReader) GetByID(_ context.Context, id string) (*creature.Creature, error) {
	c, ok := f.creatures[id]
	if !ok {
		return nil, creature.ErrNotFound
	}
	return c, nil
}

type fakeNotificationRepo struct {
	saved []*notification.Notification
}

func (f *fakeNotificationRepo) Save(_ context.Context, n *notification.Notification) error {
	f.saved = append(f.saved, n)
	return nil
}

func (f *fakeNotificationRepo) GetByID(_ context.Context, _ notification.NotificationID) (*notification.Notification, error) {
	return nil, notification.ErrNotFound
}

func (f *fakeNotificationRepo) GetFeed(_ context.Context, _ notification.RecipientID, _ bool, _ int) ([]*notification.Notification, error) {
	return f.saved, nil
}

func (f *fakeNotificationRepo) CountUnread(_ context.Context, _ notification.RecipientID) (int, error) {
	return len(f.saved), nil
}

func (f *fakeNotificationRepo) MarkRead(_ context.Context, _ notification.NotificationID, _ time.Time) error {
	return nil
}

func (f *fakeNotificationRepo) MarkAllRead(_ context.Context, _ notification.RecipientID, _ time.Time) (int, error) {
	return 0, nil
}

func (f *fakeNotificationRepo) DeleteOld(_ context.Context, _ time.Time) (int, error) {
	return 0, nil
}
