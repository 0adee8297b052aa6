package social

import (
	"context"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Implementations live in infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// MessageRepository stores direct messages.
type MessageRepository interface {
	// Save persists a new message.
	Save(ctx context.Context, msg *Message) error

	// GetByID returns a message by ID.
	// Returns ErrMessageNotFound when it does not exist.
	GetByID(ctx context.Context, id string) (*Message, error)

	// GetInbox returns messages received by a creature, newest first.
	GetInbox(ctx context.Context, creatureID CreatureID, opts ListOptions) ([]*Message, error)

	// GetOutbox returns messages sent by a creature, newest first.
	GetOutbox(ctx context.Context, creatureID CreatureID, opts ListOptions) ([]*Message, error)

	// CountUnread returns the unread message count of a creature.
	CountUnread(ctx context.Context, creatureID CreatureID) (int, error)

	// MarkRead persists the read timestamp of a message.
	MarkRead(ctx context.Context, id string, readAt time.Time) error
}

// VisitRepository stores page visits.
type VisitRepository interface {
	// Save persists a visit.
	Save(ctx context.Context, visit *Visit) error

	// GetRecentVisitors returns the latest visits to a creature's page,
	// newest first.
	GetRecentVisitors(ctx context.Context, hostID CreatureID, limit int) ([]*Visit, error)

	// CountVisits returns the number of visits to a page in a window.
	CountVisits(ctx context.Context, hostID CreatureID, from, to time.Time) (int, error)
}

// InteractionRepository stores the activity stream.
type InteractionRepository interface {
	// Save appends an activity row.
	Save(ctx context.Context, interaction *Interaction) error

	// GetActivity returns the interactions involving a creature, as actor
	// or as target, newest first.
	GetActivity(ctx context.Context, creatureID CreatureID, opts ListOptions) ([]*Interaction, error)

	// CountSince counts the interactions of one kind performed by an actor
	// since the cutoff. The anti-abuse policy reads this.
	CountSince(ctx context.Context, actorID CreatureID, kind InteractionKind, since time.Time) (int, error)

	// LastBetween returns the most recent interaction of one kind between
	// an actor and a target. Returns nil without error when there is none.
	LastBetween(ctx context.Context, actorID, targetID CreatureID, kind InteractionKind) (*Interaction, error)
}

// ListOptions paginates stream reads.
type ListOptions struct {
	// Offset for pagination.
	Offset int

	// Limit caps the number of rows.
	Limit int

	// UnreadOnly keeps only unread messages (inbox reads).
	UnreadOnly bool
}

// DefaultListOptions returns the default paging.
func DefaultListOptions() ListOptions {
	return ListOptions{Limit: 20}
}

// WithPage sets offset and limit.
func (o ListOptions) WithPage(offset, limit int) ListOptions {
	o.Offset = offset
	o.Limit = limit
	return o
}

// WithUnreadOnly keeps only unread messages.
func (o ListOptions) WithUnreadOnly() ListOptions {
	o.UnreadOnly = true
	return o
}
