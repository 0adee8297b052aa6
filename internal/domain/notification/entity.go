// Package notification contains the owner notification domain model.
// Notifications tell an owner what happened to their creature while they
// were away: evolutions, death, gifts, messages, inactivity.
package notification

import (
	"errors"
	"fmt"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// NotificationID uniquely identifies a notification.
type NotificationID string

// IsValid checks that the ID is non-empty.
func (id NotificationID) IsValid() bool {
	return len(id) > 0
}

// String returns the string representation.
func (id NotificationID) String() string {
	return string(id)
}

// RecipientID identifies the owner receiving the notification.
type RecipientID string

// IsValid checks that the recipient is non-empty.
func (id RecipientID) IsValid() bool {
	return len(id) > 0
}

// String returns the string representation.
func (id RecipientID) String() string {
	return string(id)
}

// ══════════════════════════════════════════════════════════════════════════════
// NOTIFICATION TYPE
// ══════════════════════════════════════════════════════════════════════════════

// Type classifies a notification.
type Type string

const (
	// TypeWelcome - a new creature was registered.
	TypeWelcome Type = "welcome"

	// TypeEvolved - the creature reached a new stage.
	TypeEvolved Type = "evolved"

	// TypeDied - the creature's stats hit zero.
	TypeDied Type = "died"

	// TypeRevived - the creature was brought back.
	TypeRevived Type = "revived"

	// TypeGiftReceived - another creature sent tokens.
	TypeGiftReceived Type = "gift_received"

	// TypeFedByOther - another player fed the creature.
	TypeFedByOther Type = "fed_by_other"

	// TypeMessageReceived - a direct message arrived.
	TypeMessageReceived Type = "message_received"

	// TypeInactivityReminder - the creature has not synced for days.
	TypeInactivityReminder Type = "inactivity_reminder"

	// TypeBalanceAdjusted - an operator corrected the balance.
	TypeBalanceAdjusted Type = "balance_adjusted"
)

// IsValid checks the notification type.
func (t Type) IsValid() bool {
	switch t {
	case TypeWelcome, TypeEvolved, TypeDied, TypeRevived,
		TypeGiftReceived, TypeFedByOther, TypeMessageReceived,
		TypeInactivityReminder, TypeBalanceAdjusted:
		return true
	default:
		return false
	}
}

// Category groups notifications for preference filtering.
func (t Type) Category() Category {
	switch t {
	case TypeGiftReceived, TypeFedByOther, TypeMessageReceived:
		return CategorySocial
	case TypeEvolved, TypeDied, TypeRevived:
		return CategoryLifecycle
	case TypeInactivityReminder:
		return CategoryReminder
	default:
		return CategorySystem
	}
}

// Category groups notification types.
type Category string

const (
	CategorySocial    Category = "social"
	CategoryLifecycle Category = "lifecycle"
	CategoryReminder  Category = "reminder"
	CategorySystem    Category = "system"
)

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrInvalidNotification - required fields are missing.
	ErrInvalidNotification = errors.New("notification: missing required fields")

	// ErrInvalidType - unknown notification type.
	ErrInvalidType = errors.New("notification: invalid type")

	// ErrNotFound - the notification does not exist.
	ErrNotFound = errors.New("notification: not found")
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: NOTIFICATION
// ══════════════════════════════════════════════════════════════════════════════

// Notification is one row of an owner's notification feed.
type Notification struct {
	// ID - unique identifier.
	ID NotificationID

	// RecipientID - the owner this notification belongs to.
	RecipientID RecipientID

	// CreatureID - the creature the notification is about.
	CreatureID string

	// Type - what happened.
	Type Type

	// Title / Body - rendered text shown in the feed.
	Title string
	Body  string

	// ReadAt - when the owner opened it, nil while unread.
	ReadAt *time.Time

	// CreatedAt - when the notification was produced.
	CreatedAt time.Time
}

// New builds a validated notification.
func New(id NotificationID, recipient RecipientID, creatureID string, typ Type, title, body string) (*Notification, error) {
	if !id.IsValid() || !recipient.IsValid() || creatureID == "" || title == "" {
		return nil, ErrInvalidNotification
	}
	if !typ.IsValid() {
		return nil, ErrInvalidType
	}

	return &Notification{
		ID:          id,
		RecipientID: recipient,
		CreatureID:  creatureID,
		Type:        typ,
		Title:       title,
		Body:        body,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// IsRead reports whether the owner has opened the notification.
func (n *Notification) IsRead() bool {
	return n.ReadAt != nil
}

// MarkRead records the read time, keeping the first timestamp.
func (n *Notification) MarkRead(at time.Time) {
	if n.ReadAt == nil {
		t := at.UTC()
		n.ReadAt = &t
	}
}

// String returns a string representation for logging.
func (n *Notification) String() string {
	return fmt.Sprintf("Notification{ID: %s, Type: %s, Recipient: %s, Read: %t}",
		n.ID, n.Type, n.RecipientID, n.IsRead())
}
