package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/regen-hub/regenmon-hub/internal/domain/creature"
	"github.com/regen-hub/regenmon-hub/internal/domain/ledger"
	"github.com/regen-hub/regenmon-hub/internal/domain/shared"
	"github.com/regen-hub/regenmon-hub/internal/domain/training"
)

// ══════════════════════════════════════════════════════════════════════════════
// CHAT WITH CREATURE COMMAND
// Chat is free: no tokens move, no points accrue. The stat vector applies
// either way; when the AI is down the creature answers with the canned
// fallback reply.
// ══════════════════════════════════════════════════════════════════════════════

// FallbackReply is used when the conversation model is unavailable.
const FallbackReply = "*tired chirp* ...let's talk later."

// ChatWithCreatureCommand contains the chat request.
type ChatWithCreatureCommand struct {
	// CreatureID is the creature being talked to.
	CreatureID string

	// Prompt is what the player said.
	Prompt string

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c ChatWithCreatureCommand) Validate() error {
	if c.CreatureID == "" {
		return errors.New("chat_with_creature: creature_id is required")
	}
	return training.Prompt(c.Prompt).Validate()
}

// ChatWithCreatureResult contains the chat outcome.
type ChatWithCreatureResult struct {
	// ExchangeID is the stored chat record.
	ExchangeID string

	// Reply is the creature's answer.
	Reply string

	// Fallback is true when the reply is canned.
	Fallback bool

	// Stats are the stats after decay and the chat vector.
	Stats creature.Stats

	// ChattedAt is when the exchange happened.
	ChattedAt time.Time
}

// Companion produces chat replies. Implementations live in
// infrastructure/external/ai.
type Companion interface {
	// Reply answers a prompt in the creature's voice. Errors mean the
	// upstream is unavailable; the handler substitutes FallbackReply.
	Reply(ctx context.Context, creatureName string, stats creature.Stats, prompt string) (string, error)
}

// ChatWithCreatureHandler handles the ChatWithCreatureCommand.
type ChatWithCreatureHandler struct {
	uowFactory     ledger.UnitOfWorkFactory
	companion      Companion
	eventPublisher shared.EventPublisher
	newID          func() string
	now            func() time.Time
}

// NewChatWithCreatureHandler creates a new ChatWithCreatureHandler.
func NewChatWithCreatureHandler(
	uowFactory ledger.UnitOfWorkFactory,
	companion Companion,
	eventPublisher shared.EventPublisher,
) *ChatWithCreatureHandler {
	return &ChatWithCreatureHandler{
		uowFactory:     uowFactory,
		companion:      companion,
		eventPublisher: eventPublisher,
		newID:          uuid.NewString,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// Handle executes the chat.
func (h *ChatWithCreatureHandler) Handle(ctx context.Context, cmd ChatWithCreatureCommand) (*ChatWithCreatureResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.NewDomainError("creature", "chat", shared.ErrValidation, err.Error())
	}

	now := h.now()

	uow, err := h.uowFactory.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("chat_with_creature: begin: %w", err)
	}
	defer uow.Rollback(ctx)

	c, err := uow.Creatures().GetByID(ctx, cmd.CreatureID)
	if err != nil {
		return nil, mapNotFound("chat", err)
	}

	decay := creature.ApplyDecay(c, now)
	events := make([]shared.Event, 0, 2)
	if decay.Died {
		events = append(events, shared.NewCreatureDiedEvent(c.ID, now))
	}

	if err := c.CanInteract(); err != nil {
		if decay.Changed {
			_ = uow.Creatures().Update(ctx, c)
			_ = uow.Commit(ctx)
			publishAll(h.eventPublisher, events)
		}
		return nil, mapLifeStateErr("chat", err)
	}

	reply, fallback := h.reply(ctx, c, cmd.Prompt)

	c.Stats = c.Stats.Apply(creature.ChatEffect)
	c.StatsUpdatedAt = now
	c.UpdatedAt = now

	if err := uow.Creatures().Update(ctx, c); err != nil {
		return nil, fmt.Errorf("chat_with_creature: update: %w", err)
	}

	exchange, err := training.NewChatExchange(h.newID(), c.ID, training.Prompt(cmd.Prompt), reply, fallback)
	if err != nil {
		return nil, fmt.Errorf("chat_with_creature: build exchange: %w", err)
	}
	if err := uow.Trainings().SaveChatExchange(ctx, exchange); err != nil {
		return nil, fmt.Errorf("chat_with_creature: save exchange: %w", err)
	}

	if err := uow.Commit(ctx); err != nil {
		return nil, fmt.Errorf("chat_with_creature: commit: %w", err)
	}

	publishAll(h.eventPublisher, events)

	return &ChatWithCreatureResult{
		ExchangeID: exchange.ID,
		Reply:      reply,
		Fallback:   fallback,
		Stats:      c.Stats,
		ChattedAt:  now,
	}, nil
}

func (h *ChatWithCreatureHandler) reply(ctx context.Context, c *creature.Creature, prompt string) (string, bool) {
	reply, err := h.companion.Reply(ctx, c.Name, c.Stats, prompt)
	if err != nil || reply == "" {
		return FallbackReply, true
	}
	return reply, false
}
