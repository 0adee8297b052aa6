// Package social contains the domain model for interactions between
// creatures: direct messages, page visits, assisted feeds and gifts.
package social

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// CreatureID identifies a creature (UUID in string form).
type CreatureID string

// IsValid checks that the ID is non-empty.
func (c CreatureID) IsValid() bool {
	return len(c) > 0
}

// String returns the string representation.
func (c CreatureID) String() string {
	return string(c)
}

// MessageBody is the text of a direct message.
type MessageBody string

// MaxMessageLength bounds a message body in runes.
const MaxMessageLength = 280

// Validate checks the body bounds.
func (b MessageBody) Validate() error {
	trimmed := strings.TrimSpace(string(b))
	if trimmed == "" {
		return ErrEmptyMessage
	}
	if utf8.RuneCountInString(trimmed) > MaxMessageLength {
		return ErrMessageTooLong
	}
	return nil
}

// Normalized returns the body with surrounding whitespace removed.
func (b MessageBody) Normalized() MessageBody {
	return MessageBody(strings.TrimSpace(string(b)))
}

// ══════════════════════════════════════════════════════════════════════════════
// ENUMS
// ══════════════════════════════════════════════════════════════════════════════

// InteractionKind classifies what one creature did to another.
type InteractionKind string

const (
	// InteractionFeed - fed another creature, paying from own balance.
	InteractionFeed InteractionKind = "feed"

	// InteractionGift - transferred tokens.
	InteractionGift InteractionKind = "gift"

	// InteractionMessage - sent a direct message.
	InteractionMessage InteractionKind = "message"

	// InteractionVisit - viewed another creature's page.
	InteractionVisit InteractionKind = "visit"
)

// IsValid checks the kind.
func (k InteractionKind) IsValid() bool {
	switch k {
	case InteractionFeed, InteractionGift, InteractionMessage, InteractionVisit:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (k InteractionKind) String() string {
	return string(k)
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrEmptyMessage - the message body is blank.
	ErrEmptyMessage = errors.New("message body cannot be empty")

	// ErrMessageTooLong - the message body exceeds the limit.
	ErrMessageTooLong = errors.New("message body exceeds 280 characters")

	// ErrSelfInteraction - a creature cannot message or feed itself.
	ErrSelfInteraction = errors.New("cannot interact with own creature")

	// ErrInvalidParticipant - sender or recipient is missing.
	ErrInvalidParticipant = errors.New("invalid interaction participant")

	// ErrMessageNotFound - the message does not exist.
	ErrMessageNotFound = errors.New("message not found")

	// ErrNotRecipient - only the recipient may mark a message read.
	ErrNotRecipient = errors.New("only the recipient can modify a message")
)

// ══════════════════════════════════════════════════════════════════════════════
// MESSAGE
// ══════════════════════════════════════════════════════════════════════════════

// Message is one direct message between two creatures.
type Message struct {
	// ID - unique message identifier.
	ID string

	// FromID / ToID - sender and recipient creatures.
	FromID CreatureID
	ToID   CreatureID

	// Body - the message text, trimmed.
	Body MessageBody

	// ReadAt - when the recipient read the message, nil while unread.
	ReadAt *time.Time

	// SentAt - when the message was sent.
	SentAt time.Time
}

// NewMessage builds a validated message.
func NewMessage(id string, from, to CreatureID, body MessageBody) (*Message, error) {
	if id == "" || !from.IsValid() || !to.IsValid() {
		return nil, ErrInvalidParticipant
	}
	if from == to {
		return nil, ErrSelfInteraction
	}
	if err := body.Validate(); err != nil {
		return nil, err
	}

	return &Message{
		ID:     id,
		FromID: from,
		ToID:   to,
		Body:   body.Normalized(),
		SentAt: time.Now().UTC(),
	}, nil
}

// IsRead reports whether the recipient has read the message.
func (m *Message) IsRead() bool {
	return m.ReadAt != nil
}

// MarkRead records the read time. Idempotent: a second call keeps the
// original timestamp.
func (m *Message) MarkRead(by CreatureID, at time.Time) error {
	if by != m.ToID {
		return ErrNotRecipient
	}
	if m.ReadAt == nil {
		t := at.UTC()
		m.ReadAt = &t
	}
	return nil
}

// String returns a string representation for logging.
func (m *Message) String() string {
	return fmt.Sprintf("Message{ID: %s, From: %s, To: %s, Read: %t}", m.ID, m.FromID, m.ToID, m.IsRead())
}

// ══════════════════════════════════════════════════════════════════════════════
// VISIT
// ══════════════════════════════════════════════════════════════════════════════

// Visit records one creature viewing another's page. Visits feed the
// activity stream and the hub's social stats; they never change stats or
// balances.
type Visit struct {
	// ID - unique visit identifier.
	ID string

	// VisitorID / HostID - who visited whom.
	VisitorID CreatureID
	HostID    CreatureID

	// VisitedAt - when the visit happened.
	VisitedAt time.Time
}

// NewVisit builds a validated visit record.
func NewVisit(id string, visitor, host CreatureID) (*Visit, error) {
	if id == "" || !visitor.IsValid() || !host.IsValid() {
		return nil, ErrInvalidParticipant
	}
	if visitor == host {
		return nil, ErrSelfInteraction
	}

	return &Visit{
		ID:        id,
		VisitorID: visitor,
		HostID:    host,
		VisitedAt: time.Now().UTC(),
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// INTERACTION (activity stream row)
// ══════════════════════════════════════════════════════════════════════════════

// Interaction is one row of a creature's activity stream. It is a
// projection over messages, visits, assisted feeds and gifts.
type Interaction struct {
	// ID - unique interaction identifier.
	ID string

	// Kind - what happened.
	Kind InteractionKind

	// ActorID - the creature that acted.
	ActorID CreatureID

	// TargetID - the creature acted upon.
	TargetID CreatureID

	// Amount - token amount for gifts, zero otherwise.
	Amount int64

	// OccurredAt - when it happened.
	OccurredAt time.Time
}

// NewInteraction builds a validated activity row.
func NewInteraction(id string, kind InteractionKind, actor, target CreatureID, amount int64) (*Interaction, error) {
	if id == "" || !actor.IsValid() || !target.IsValid() {
		return nil, ErrInvalidParticipant
	}
	if !kind.IsValid() {
		return nil, fmt.Errorf("unknown interaction kind %q", kind)
	}

	return &Interaction{
		ID:         id,
		Kind:       kind,
		ActorID:    actor,
		TargetID:   target,
		Amount:     amount,
		OccurredAt: time.Now().UTC(),
	}, nil
}
