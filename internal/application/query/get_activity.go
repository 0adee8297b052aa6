package query

import (
	"context"
	"errors"
	"time"

	"github.com/regen-hub/regenmon-hub/internal/domain/shared"
	"github.com/regen-hub/regenmon-hub/internal/domain/social"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET ACTIVITY QUERY
// Returns the social activity around one creature: the interaction stream
// (feeds, gifts, messages, visits), the inbox, and the recent visitors.
// ══════════════════════════════════════════════════════════════════════════════

// GetActivityQuery contains the stream parameters.
type GetActivityQuery struct {
	// CreatureID - whose activity.
	CreatureID string

	// Offset / Limit paginate the stream (default limit 20, max 100).
	Offset int
	Limit  int

	// UnreadOnly keeps only unread inbox messages.
	UnreadOnly bool
}

// Validate normalizes the parameters.
func (q *GetActivityQuery) Validate() error {
	if q.CreatureID == "" {
		return errors.New("creature_id is required")
	}
	if q.Offset < 0 || q.Limit < 0 {
		return errors.New("offset and limit cannot be negative")
	}
	if q.Limit == 0 {
		q.Limit = 20
	}
	if q.Limit > 100 {
		q.Limit = 100
	}
	return nil
}

// InteractionDTO is one activity stream row.
type InteractionDTO struct {
	// Kind - "feed", "gift", "message", "visit".
	Kind string `json:"kind"`

	// ActorID / TargetID - who did what to whom.
	ActorID  string `json:"actor_id"`
	TargetID string `json:"target_id"`

	// Amount - token amount for gifts.
	Amount int64 `json:"amount,omitempty"`

	// Incoming - true when this creature is the target.
	Incoming bool `json:"incoming"`

	// OccurredAt - when it happened.
	OccurredAt time.Time `json:"occurred_at"`
}

// MessageDTO is one inbox message.
type MessageDTO struct {
	// ID - the message.
	ID string `json:"id"`

	// FromID - the sender.
	FromID string `json:"from_id"`

	// Body - the text.
	Body string `json:"body"`

	// IsRead - whether the recipient has read it.
	IsRead bool `json:"is_read"`

	// SentAt - when it was sent.
	SentAt time.Time `json:"sent_at"`
}

// VisitorDTO is one recent visit.
type VisitorDTO struct {
	// VisitorID - who visited.
	VisitorID string `json:"visitor_id"`

	// VisitedAt - when.
	VisitedAt time.Time `json:"visited_at"`
}

// GetActivityResult bundles the social view of one creature.
type GetActivityResult struct {
	// Stream - the interaction rows, newest first.
	Stream []InteractionDTO `json:"stream"`

	// Inbox - received messages, newest first.
	Inbox []MessageDTO `json:"inbox"`

	// UnreadCount - unread messages in the inbox.
	UnreadCount int `json:"unread_count"`

	// RecentVisitors - the latest page visits.
	RecentVisitors []VisitorDTO `json:"recent_visitors"`
}

// GetActivityHandler handles the GetActivityQuery.
type GetActivityHandler struct {
	interactions social.InteractionRepository
	messages     social.MessageRepository
	visits       social.VisitRepository
}

// NewGetActivityHandler creates a new GetActivityHandler.
func NewGetActivityHandler(
	interactions social.InteractionRepository,
	messages social.MessageRepository,
	visits social.VisitRepository,
) *GetActivityHandler {
	return &GetActivityHandler{
		interactions: interactions,
		messages:     messages,
		visits:       visits,
	}
}

// Handle executes the query.
func (h *GetActivityHandler) Handle(ctx context.Context, query GetActivityQuery) (*GetActivityResult, error) {
	if err := query.Validate(); err != nil {
		return nil, shared.NewDomainError("query", "GetActivity", shared.ErrValidation, err.Error())
	}

	id := social.CreatureID(query.CreatureID)
	opts := social.DefaultListOptions().WithPage(query.Offset, query.Limit)
	if query.UnreadOnly {
		opts = opts.WithUnreadOnly()
	}

	stream, err := h.interactions.GetActivity(ctx, id, opts)
	if err != nil {
		return nil, shared.WrapError("query", "GetActivity", shared.ErrServiceUnavailable, "read stream", err)
	}

	inbox, err := h.messages.GetInbox(ctx, id, opts)
	if err != nil {
		return nil, shared.WrapError("query", "GetActivity", shared.ErrServiceUnavailable, "read inbox", err)
	}

	unread, err := h.messages.CountUnread(ctx, id)
	if err != nil {
		unread = 0
	}

	visitors, err := h.visits.GetRecentVisitors(ctx, id, query.Limit)
	if err != nil {
		visitors = nil
	}

	result := &GetActivityResult{
		Stream:         make([]InteractionDTO, len(stream)),
		Inbox:          make([]MessageDTO, len(inbox)),
		UnreadCount:    unread,
		RecentVisitors: make([]VisitorDTO, len(visitors)),
	}

	for i, in := range stream {
		result.Stream[i] = InteractionDTO{
			Kind:       string(in.Kind),
			ActorID:    in.ActorID.String(),
			TargetID:   in.TargetID.String(),
			Amount:     in.Amount,
			Incoming:   in.TargetID == id,
			OccurredAt: in.OccurredAt,
		}
	}
	for i, m := range inbox {
		result.Inbox[i] = MessageDTO{
			ID:     m.ID,
			FromID: m.FromID.String(),
			Body:   string(m.Body),
			IsRead: m.IsRead(),
			SentAt: m.SentAt,
		}
	}
	for i, v := range visitors {
		result.RecentVisitors[i] = VisitorDTO{
			VisitorID: v.VisitorID.String(),
			VisitedAt: v.VisitedAt,
		}
	}

	return result, nil
}
