package command

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/regen-hub/regenmon-hub/internal/domain/creature"
	"github.com/regen-hub/regenmon-hub/internal/domain/ledger"
	"github.com/regen-hub/regenmon-hub/internal/domain/shared"
	"github.com/regen-hub/regenmon-hub/internal/domain/social"
)

// ══════════════════════════════════════════════════════════════════════════════
// SEND MESSAGE COMMAND
// Direct messages between creatures. Free: no tokens, no stats, no points.
// The sender must be able to interact; the recipient's life state does not
// matter - mail waits for a revival.
// ══════════════════════════════════════════════════════════════════════════════

// SendMessageCommand contains the message.
type SendMessageCommand struct {
	// FromCreatureID / ToCreatureID are sender and recipient.
	FromCreatureID string
	ToCreatureID   string

	// Body is the message text.
	Body string

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c SendMessageCommand) Validate() error {
	if c.FromCreatureID == "" || c.ToCreatureID == "" {
		return social.ErrInvalidParticipant
	}
	if c.FromCreatureID == c.ToCreatureID {
		return social.ErrSelfInteraction
	}
	return social.MessageBody(c.Body).Validate()
}

// SendMessageResult contains the outcome.
type SendMessageResult struct {
	// MessageID is the stored message.
	MessageID string

	// SentAt is when the message was sent.
	SentAt time.Time
}

// SendMessageHandler handles the SendMessageCommand.
type SendMessageHandler struct {
	uowFactory     ledger.UnitOfWorkFactory
	policy         *social.Policy
	eventPublisher shared.EventPublisher
	newID          func() string
	now            func() time.Time
}

// NewSendMessageHandler creates a new SendMessageHandler.
func NewSendMessageHandler(
	uowFactory ledger.UnitOfWorkFactory,
	policy *social.Policy,
	eventPublisher shared.EventPublisher,
) *SendMessageHandler {
	return &SendMessageHandler{
		uowFactory:     uowFactory,
		policy:         policy,
		eventPublisher: eventPublisher,
		newID:          uuid.NewString,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// Handle executes the send.
func (h *SendMessageHandler) Handle(ctx context.Context, cmd SendMessageCommand) (*SendMessageResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.NewDomainError("social", "send_message", shared.ErrValidation, err.Error())
	}

	now := h.now()

	if h.policy != nil {
		if err := h.policy.Check(ctx, social.CreatureID(cmd.FromCreatureID), social.CreatureID(cmd.ToCreatureID), social.InteractionMessage, now); err != nil {
			return nil, shared.NewDomainError("social", "send_message", shared.ErrRateLimited, err.Error())
		}
	}

	uow, err := h.uowFactory.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("send_message: begin: %w", err)
	}
	defer uow.Rollback(ctx)

	sender, err := uow.Creatures().GetByID(ctx, cmd.FromCreatureID)
	if err != nil {
		return nil, mapNotFound("send_message", err)
	}

	decay := creature.ApplyDecay(sender, now)
	events := make([]shared.Event, 0, 2)
	if decay.Died {
		events = append(events, shared.NewCreatureDiedEvent(sender.ID, now))
	}

	if err := sender.CanInteract(); err != nil {
		if decay.Changed {
			_ = uow.Creatures().Update(ctx, sender)
			_ = uow.Commit(ctx)
			publishAll(h.eventPublisher, events)
		}
		return nil, mapLifeStateErr("send_message", err)
	}

	// the recipient only needs to exist
	if _, err := uow.Creatures().GetByID(ctx, cmd.ToCreatureID); err != nil {
		return nil, mapNotFound("send_message", err)
	}

	msg, err := social.NewMessage(h.newID(),
		social.CreatureID(cmd.FromCreatureID), social.CreatureID(cmd.ToCreatureID),
		social.MessageBody(cmd.Body))
	if err != nil {
		return nil, shared.NewDomainError("social", "send_message", shared.ErrValidation, err.Error())
	}

	if decay.Changed {
		if err := uow.Creatures().Update(ctx, sender); err != nil {
			return nil, fmt.Errorf("send_message: update sender: %w", err)
		}
	}
	if err := uow.Messages().Save(ctx, msg); err != nil {
		return nil, fmt.Errorf("send_message: save message: %w", err)
	}

	interaction, err := social.NewInteraction(h.newID(), social.InteractionMessage,
		msg.FromID, msg.ToID, 0)
	if err == nil {
		if err := uow.Interactions().Save(ctx, interaction); err != nil {
			return nil, fmt.Errorf("send_message: save interaction: %w", err)
		}
	}

	if err := uow.Commit(ctx); err != nil {
		return nil, fmt.Errorf("send_message: commit: %w", err)
	}

	events = append(events, shared.NewMessageSentEvent(cmd.FromCreatureID, cmd.ToCreatureID, msg.ID))
	publishAll(h.eventPublisher, events)

	return &SendMessageResult{
		MessageID: msg.ID,
		SentAt:    msg.SentAt,
	}, nil
}
