package notification

import (
	"fmt"
	"time"

	"github.com/regen-hub/regenmon-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// EVENT TRIGGERS
// Maps domain events to rendered notifications. The event handlers call
// FromEvent and persist whatever comes back; events without a notification
// rule return nil.
// ══════════════════════════════════════════════════════════════════════════════

// IDGenerator produces notification IDs. Wired to uuid in infrastructure.
type IDGenerator func() string

// Trigger renders notifications from domain events.
type Trigger struct {
	newID IDGenerator
}

// NewTrigger creates a trigger with the given ID source.
func NewTrigger(newID IDGenerator) *Trigger {
	return &Trigger{newID: newID}
}

// FromEvent builds the notification for an event, or nil when the event
// does not notify anyone. The recipient is the owner of the aggregate
// creature; lookups from creature to owner happen in the handler.
func (t *Trigger) FromEvent(event shared.Event, ownerID string, creatureName string) (*Notification, error) {
	var (
		typ   Type
		title string
		body  string
	)

	creatureID := event.AggregateID()

	switch e := event.(type) {
	case shared.CreatureRegisteredEvent:
		typ = TypeWelcome
		title = fmt.Sprintf("%s hatched!", creatureName)
		body = "Your regenmon is alive. Keep it fed and train it daily."

	case shared.CreatureEvolvedEvent:
		typ = TypeEvolved
		title = fmt.Sprintf("%s evolved to stage %d", creatureName, e.NewStage)
		body = fmt.Sprintf("Lifetime points: %d. A %d token bonus was added to the balance.", e.TotalPoints, e.Bonus)

	case shared.CreatureDiedEvent:
		typ = TypeDied
		title = fmt.Sprintf("%s has died", creatureName)
		body = "All three stats hit zero. Revive it for 20 $FRUTA."

	case shared.CreatureRevivedEvent:
		typ = TypeRevived
		title = fmt.Sprintf("%s is back", creatureName)
		body = "Stats were reset to 50/50/50. Take better care this time."

	case shared.TokensGiftedEvent:
		// the receiving side is the one notified
		creatureID = e.ToCreatureID
		typ = TypeGiftReceived
		title = fmt.Sprintf("%s received a gift", creatureName)
		body = fmt.Sprintf("Another creature sent %d $FRUTA.", e.Amount)

	case shared.CreatureFedEvent:
		if e.FeederID == e.CreatureID {
			return nil, nil
		}
		typ = TypeFedByOther
		title = fmt.Sprintf("Someone fed %s", creatureName)
		body = "A friendly player paid for a meal."

	case shared.MessageSentEvent:
		creatureID = e.ToCreatureID
		typ = TypeMessageReceived
		title = fmt.Sprintf("New message for %s", creatureName)
		body = "Open the inbox to read it."

	case shared.CreatureInactiveEvent:
		typ = TypeInactivityReminder
		title = fmt.Sprintf("%s misses you", creatureName)
		body = fmt.Sprintf("No sync for %d days. The stats keep decaying.", e.DaysInactive)

	case shared.TokensAdjustedEvent:
		typ = TypeBalanceAdjusted
		title = "Balance adjusted"
		body = fmt.Sprintf("An operator changed the balance by %+d: %s", e.Amount, e.Reason)

	default:
		return nil, nil
	}

	return New(NotificationID(t.newID()), RecipientID(ownerID), creatureID, typ, title, body)
}

// ══════════════════════════════════════════════════════════════════════════════
// THROTTLING
// Reminder-category notifications are throttled so a stale creature does
// not spam its owner every detector run.
// ══════════════════════════════════════════════════════════════════════════════

// ReminderInterval is the minimum gap between two inactivity reminders for
// the same creature.
const ReminderInterval = 24 * time.Hour

// ShouldRemind reports whether a new reminder may be sent given the time
// of the previous one. A zero lastSent always allows.
func ShouldRemind(lastSent time.Time, now time.Time) bool {
	if lastSent.IsZero() {
		return true
	}
	return now.Sub(lastSent) >= ReminderInterval
}
