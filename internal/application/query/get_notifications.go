package query

import (
	"context"
	"errors"
	"time"

	"github.com/regen-hub/regenmon-hub/internal/domain/notification"
	"github.com/regen-hub/regenmon-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET NOTIFICATIONS QUERY
// Returns the notification feed of one owner, newest first.
// ══════════════════════════════════════════════════════════════════════════════

// GetNotificationsQuery contains the feed parameters.
type GetNotificationsQuery struct {
	// OwnerID - whose feed.
	OwnerID string

	// UnreadOnly keeps only unread rows.
	UnreadOnly bool

	// Limit caps the feed (default 20, max 100).
	Limit int
}

// Validate normalizes the parameters.
func (q *GetNotificationsQuery) Validate() error {
	if q.OwnerID == "" {
		return errors.New("owner_id is required")
	}
	if q.Limit < 0 {
		return errors.New("limit cannot be negative")
	}
	if q.Limit == 0 {
		q.Limit = 20
	}
	if q.Limit > 100 {
		q.Limit = 100
	}
	return nil
}

// NotificationDTO is one feed row.
type NotificationDTO struct {
	// ID - the notification.
	ID string `json:"id"`

	// CreatureID - the creature the row is about.
	CreatureID string `json:"creature_id"`

	// Type - the notification kind.
	Type string `json:"type"`

	// Title / Body - the rendered text.
	Title string `json:"title"`
	Body  string `json:"body"`

	// IsRead - whether the owner opened it.
	IsRead bool `json:"is_read"`

	// CreatedAt - when it was produced.
	CreatedAt time.Time `json:"created_at"`
}

// GetNotificationsResult contains the feed view.
type GetNotificationsResult struct {
	// Feed - the rows, newest first.
	Feed []NotificationDTO `json:"feed"`

	// UnreadCount - unread rows in the whole feed.
	UnreadCount int `json:"unread_count"`
}

// GetNotificationsHandler handles the GetNotificationsQuery.
type GetNotificationsHandler struct {
	notifications notification.Repository
}

// NewGetNotificationsHandler creates a new GetNotificationsHandler.
func NewGetNotificationsHandler(notifications notification.Repository) *GetNotificationsHandler {
	return &GetNotificationsHandler{notifications: notifications}
}

// Handle executes the query.
func (h *GetNotificationsHandler) Handle(ctx context.Context, query GetNotificationsQuery) (*GetNotificationsResult, error) {
	if err := query.Validate(); err != nil {
		return nil, shared.NewDomainError("query", "GetNotifications", shared.ErrValidation, err.Error())
	}

	recipient := notification.RecipientID(query.OwnerID)

	feed, err := h.notifications.GetFeed(ctx, recipient, query.UnreadOnly, query.Limit)
	if err != nil {
		return nil, shared.WrapError("query", "GetNotifications", shared.ErrServiceUnavailable, "read feed", err)
	}

	unread, err := h.notifications.CountUnread(ctx, recipient)
	if err != nil {
		unread = 0
	}

	result := &GetNotificationsResult{
		Feed:        make([]NotificationDTO, len(feed)),
		UnreadCount: unread,
	}
	for i, n := range feed {
		result.Feed[i] = NotificationDTO{
			ID:         string(n.ID),
			CreatureID: n.CreatureID,
			Type:       string(n.Type),
			Title:      n.Title,
			Body:       n.Body,
			IsRead:     n.IsRead(),
			CreatedAt:  n.CreatedAt,
		}
	}

	return result, nil
}
