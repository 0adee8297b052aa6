package notification

import (
	"context"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACE
// ══════════════════════════════════════════════════════════════════════════════

// Repository stores the notification feed.
type Repository interface {
	// Save persists a notification.
	Save(ctx context.Context, n *Notification) error

	// GetByID returns a notification by ID.
	// Returns ErrNotFound when it does not exist.
	GetByID(ctx context.Context, id NotificationID) (*Notification, error)

	// GetFeed returns the notifications of an owner, newest first.
	GetFeed(ctx context.Context, recipient RecipientID, unreadOnly bool, limit int) ([]*Notification, error)

	// CountUnread returns the unread count of an owner.
	CountUnread(ctx context.Context, recipient RecipientID) (int, error)

	// MarkRead persists the read timestamp of one notification.
	MarkRead(ctx context.Context, id NotificationID, readAt time.Time) error

	// MarkAllRead marks the whole feed of an owner read. Returns the
	// number of rows touched.
	MarkAllRead(ctx context.Context, recipient RecipientID, readAt time.Time) (int, error)

	// DeleteOld removes read notifications older than the cutoff.
	DeleteOld(ctx context.Context, olderThan time.Time) (int, error)
}

// ══════════════════════════════════════════════════════════════════════════════
// DELIVERY
// The feed itself lives in PostgreSQL; Deliverer pushes a copy to an
// external channel when one is configured for the owner.
// ══════════════════════════════════════════════════════════════════════════════

// Deliverer pushes a notification out-of-band. A nil or no-op deliverer is
// valid: the feed alone is the baseline.
type Deliverer interface {
	// Deliver sends the notification. Failures must not block the
	// producing operation.
	Deliver(ctx context.Context, n *Notification) error
}
