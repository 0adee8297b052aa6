package command

import (
	"context"
	"errors"
	"time"

	"github.com/regen-hub/regenmon-hub/internal/domain/notification"
	"github.com/regen-hub/regenmon-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// MARK NOTIFICATIONS READ COMMAND
// Marks one notification, or the whole feed of an owner, as read.
// ══════════════════════════════════════════════════════════════════════════════

// MarkNotificationsReadCommand contains the read receipt.
type MarkNotificationsReadCommand struct {
	// OwnerID - whose feed.
	OwnerID string

	// NotificationID - one specific row; empty marks the whole feed.
	NotificationID string
}

// Validate checks the command.
func (c MarkNotificationsReadCommand) Validate() error {
	if c.OwnerID == "" {
		return errors.New("owner_id is required")
	}
	return nil
}

// MarkNotificationsReadResult reports how many rows were touched.
type MarkNotificationsReadResult struct {
	// Marked - rows marked read by this call.
	Marked int `json:"marked"`
}

// MarkNotificationsReadHandler handles the MarkNotificationsReadCommand.
type MarkNotificationsReadHandler struct {
	notifications notification.Repository
	now           func() time.Time
}

// NewMarkNotificationsReadHandler creates a new MarkNotificationsReadHandler.
func NewMarkNotificationsReadHandler(notifications notification.Repository) *MarkNotificationsReadHandler {
	return &MarkNotificationsReadHandler{
		notifications: notifications,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// Handle executes the command.
func (h *MarkNotificationsReadHandler) Handle(ctx context.Context, cmd MarkNotificationsReadCommand) (*MarkNotificationsReadResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.NewDomainError("notification", "mark_read", shared.ErrValidation, err.Error())
	}

	now := h.now()

	if cmd.NotificationID != "" {
		id := notification.NotificationID(cmd.NotificationID)

		n, err := h.notifications.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, notification.ErrNotFound) {
				return nil, shared.NewDomainError("notification", "mark_read", shared.ErrNotFound, "notification not found")
			}
			return nil, shared.WrapError("notification", "mark_read", shared.ErrServiceUnavailable, "read notification", err)
		}
		if notification.RecipientID(cmd.OwnerID) != n.RecipientID {
			return nil, shared.NewDomainError("notification", "mark_read", shared.ErrUnauthorized, "notification belongs to another owner")
		}
		if n.IsRead() {
			return &MarkNotificationsReadResult{Marked: 0}, nil
		}

		if err := h.notifications.MarkRead(ctx, id, now); err != nil {
			return nil, shared.WrapError("notification", "mark_read", shared.ErrServiceUnavailable, "mark read", err)
		}
		return &MarkNotificationsReadResult{Marked: 1}, nil
	}

	marked, err := h.notifications.MarkAllRead(ctx, notification.RecipientID(cmd.OwnerID), now)
	if err != nil {
		return nil, shared.WrapError("notification", "mark_read", shared.ErrServiceUnavailable, "mark all read", err)
	}
	return &MarkNotificationsReadResult{Marked: marked}, nil
}
