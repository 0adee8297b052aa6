// Package eventhandler contains the reactive side of the hub: handlers
// subscribed to domain events that produce side effects such as writing
// notifications or dropping stale caches. Handlers are best-effort by
// design - a failed side effect never rolls back the command that caused
// the event.
package eventhandler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/regen-hub/regenmon-hub/config"
	"github.com/regen-hub/regenmon-hub/internal/domain/creature"
	"github.com/regen-hub/regenmon-hub/internal/domain/notification"
	"github.com/regen-hub/regenmon-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// NOTIFICATION PRODUCER
// Turns domain events into feed rows. The recipient is the owner of the
// affected creature; for gifts and messages that is the receiving side,
// not the aggregate that emitted the event.
// ══════════════════════════════════════════════════════════════════════════════

// CreatureReader is the read access the producer needs to resolve the
// owner and display name of a creature.
type CreatureReader interface {
	GetByID(ctx context.Context, id string) (*creature.Creature, error)
}

// FeatureGate decides whether a notification category is enabled for
// an owner. Satisfied by config.FeatureFlags.
type FeatureGate interface {
	IsEnabledForOwner(feature, ownerID string) bool
}

// NotificationProducer writes notifications for domain events.
type NotificationProducer struct {
	creatures     CreatureReader
	notifications notification.Repository
	deliverer     notification.Deliverer
	trigger       *notification.Trigger
	gate          FeatureGate
	logger        *slog.Logger
	now           func() time.Time

	// last inactivity reminder per creature, throttled in-process
	mu            sync.Mutex
	lastReminders map[string]time.Time
}

// NewNotificationProducer creates a new NotificationProducer. The deliverer
// may be nil; the persistent feed alone is the baseline. A nil gate
// means every category is on.
func NewNotificationProducer(
	creatures CreatureReader,
	notifications notification.Repository,
	deliverer notification.Deliverer,
	trigger *notification.Trigger,
	gate FeatureGate,
	logger *slog.Logger,
) *NotificationProducer {
	if logger == nil {
		logger = slog.Default()
	}

	return &NotificationProducer{
		creatures:     creatures,
		notifications: notifications,
		deliverer:     deliverer,
		trigger:       trigger,
		gate:          gate,
		logger:        logger.With("handler", "notification_producer"),
		now:           func() time.Time { return time.Now().UTC() },
		lastReminders: make(map[string]time.Time),
	}
}

// EventTypes lists the events this handler subscribes to.
func (h *NotificationProducer) EventTypes() []shared.EventType {
	return []shared.EventType{
		shared.EventCreatureRegistered,
		shared.EventCreatureEvolved,
		shared.EventCreatureDied,
		shared.EventCreatureRevived,
		shared.EventCreatureFed,
		shared.EventCreatureInactive,
		shared.EventTokensGifted,
		shared.EventTokensAdjusted,
		shared.EventMessageSent,
	}
}

// Handle implements shared.EventHandler.
func (h *NotificationProducer) Handle(event shared.Event) error {
	ctx := context.Background()

	creatureID := recipientCreatureID(event)
	if creatureID == "" {
		return nil
	}

	if inactive, ok := event.(shared.CreatureInactiveEvent); ok {
		if !h.allowReminder(inactive.CreatureID) {
			h.logger.Debug("inactivity reminder throttled", "creature_id", inactive.CreatureID)
			return nil
		}
	}

	c, err := h.creatures.GetByID(ctx, creatureID)
	if err != nil {
		return fmt.Errorf("notification_producer: get creature %s: %w", creatureID, err)
	}

	if feat := notifyFeature(event.EventType()); feat != "" && h.gate != nil &&
		!h.gate.IsEnabledForOwner(feat, c.OwnerID) {
		h.logger.Debug("notification suppressed by feature flag",
			"feature", feat,
			"event_type", event.EventType(),
		)
		return nil
	}

	n, err := h.trigger.FromEvent(event, c.OwnerID, c.Name)
	if err != nil {
		return fmt.Errorf("notification_producer: render: %w", err)
	}
	if n == nil {
		return nil
	}

	if err := h.notifications.Save(ctx, n); err != nil {
		return fmt.Errorf("notification_producer: save: %w", err)
	}

	if h.deliverer != nil {
		if err := h.deliverer.Deliver(ctx, n); err != nil {
			h.logger.Warn("out-of-band delivery failed",
				"notification_id", n.ID,
				"type", n.Type,
				"error", err,
			)
		}
	}

	h.logger.Debug("notification produced",
		"notification_id", n.ID,
		"type", n.Type,
		"recipient", n.RecipientID,
	)

	return nil
}

// allowReminder throttles inactivity reminders per creature.
func (h *NotificationProducer) allowReminder(creatureID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := h.now()
	if !notification.ShouldRemind(h.lastReminders[creatureID], now) {
		return false
	}
	h.lastReminders[creatureID] = now
	return true
}

// notifyFeature maps an event type to the flag gating its category.
// Empty means the category is not gated: welcome messages and admin
// balance adjustments always go through.
func notifyFeature(eventType shared.EventType) string {
	switch eventType {
	case shared.EventCreatureEvolved:
		return config.FeatureNotifyEvolution
	case shared.EventCreatureDied, shared.EventCreatureRevived:
		return config.FeatureNotifyDeath
	case shared.EventCreatureInactive:
		return config.FeatureNotifyLowStats
	case shared.EventCreatureFed, shared.EventTokensGifted, shared.EventMessageSent:
		return config.FeatureNotifySocial
	default:
		return ""
	}
}

// recipientCreatureID resolves which creature's owner is notified. Empty
// means the event notifies nobody.
func recipientCreatureID(event shared.Event) string {
	switch e := event.(type) {
	case shared.TokensGiftedEvent:
		return e.ToCreatureID
	case shared.MessageSentEvent:
		return e.ToCreatureID
	case shared.CreatureRegisteredEvent,
		shared.CreatureEvolvedEvent,
		shared.CreatureDiedEvent,
		shared.CreatureRevivedEvent,
		shared.CreatureFedEvent,
		shared.CreatureInactiveEvent,
		shared.TokensAdjustedEvent:
		return event.AggregateID()
	default:
		return ""
	}
}
