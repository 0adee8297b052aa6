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
	"github.com/regen-hub/regenmon-hub/internal/domain/social"
)

// ══════════════════════════════════════════════════════════════════════════════
// GIFT TOKENS COMMAND
// A token transfer between two creatures: one debit row on the sender, one
// credit row on the receiver, written atomically. Insufficient balance
// rejects the whole transfer - neither side's ledger moves.
// ══════════════════════════════════════════════════════════════════════════════

// GiftTokensCommand contains the transfer request.
type GiftTokensCommand struct {
	// FromCreatureID is the sender (payer).
	FromCreatureID string

	// ToCreatureID is the receiver.
	ToCreatureID string

	// Amount is the token amount, must be positive.
	Amount int64

	// Note is an optional message stored on both ledger rows.
	Note string

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c GiftTokensCommand) Validate() error {
	if c.FromCreatureID == "" || c.ToCreatureID == "" {
		return errors.New("gift_tokens: both creature ids are required")
	}
	if c.FromCreatureID == c.ToCreatureID {
		return errors.New("gift_tokens: cannot gift to self")
	}
	if c.Amount <= 0 {
		return errors.New("gift_tokens: amount must be positive")
	}
	return nil
}

// GiftTokensResult contains the transfer outcome.
type GiftTokensResult struct {
	// DebitTransactionID / CreditTransactionID are the two paired rows.
	DebitTransactionID  string
	CreditTransactionID string

	// SenderBalance / ReceiverBalance after the transfer.
	SenderBalance   int64
	ReceiverBalance int64

	// GiftedAt is when the transfer happened.
	GiftedAt time.Time
}

// GiftTokensHandler handles the GiftTokensCommand.
type GiftTokensHandler struct {
	uowFactory     ledger.UnitOfWorkFactory
	policy         *social.Policy
	eventPublisher shared.EventPublisher
	newID          func() string
	now            func() time.Time
}

// NewGiftTokensHandler creates a new GiftTokensHandler.
func NewGiftTokensHandler(
	uowFactory ledger.UnitOfWorkFactory,
	policy *social.Policy,
	eventPublisher shared.EventPublisher,
) *GiftTokensHandler {
	return &GiftTokensHandler{
		uowFactory:     uowFactory,
		policy:         policy,
		eventPublisher: eventPublisher,
		newID:          uuid.NewString,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// Handle executes the transfer.
func (h *GiftTokensHandler) Handle(ctx context.Context, cmd GiftTokensCommand) (*GiftTokensResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.NewDomainError("ledger", "gift", shared.ErrValidation, err.Error())
	}

	now := h.now()

	if h.policy != nil {
		if err := h.policy.Check(ctx, social.CreatureID(cmd.FromCreatureID), social.CreatureID(cmd.ToCreatureID), social.InteractionGift, now); err != nil {
			return nil, shared.NewDomainError("social", "gift", shared.ErrRateLimited, err.Error())
		}
	}

	uow, err := h.uowFactory.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("gift_tokens: begin: %w", err)
	}
	defer uow.Rollback(ctx)

	sender, receiver, err := h.lockPair(ctx, uow, cmd.FromCreatureID, cmd.ToCreatureID)
	if err != nil {
		return nil, err
	}

	// both sides must be interactable; decay catch-up can kill either one
	events := make([]shared.Event, 0, 5)
	for _, c := range []*creature.Creature{sender, receiver} {
		decay := creature.ApplyDecay(c, now)
		if decay.Died {
			events = append(events, shared.NewCreatureDiedEvent(c.ID, now))
		}
		if err := c.CanInteract(); err != nil {
			if decay.Changed && persistDecay(ctx, uow, c, "gift") {
				publishAll(h.eventPublisher, events)
			}
			return nil, mapLifeStateErr("gift", err)
		}
	}

	reason := cmd.Note
	if reason == "" {
		reason = "gift"
	}

	debit, credit, err := ledger.NewTransferPair(h.newID(), h.newID(),
		sender.ID, receiver.ID, cmd.Amount, sender.Balance, receiver.Balance, reason)
	if err != nil {
		if errors.Is(err, ledger.ErrInsufficientBalance) {
			return nil, shared.ErrNotEnoughTokens
		}
		return nil, shared.NewDomainError("ledger", "gift", shared.ErrValidation, err.Error())
	}

	sender.Balance = debit.BalanceAfter
	receiver.Balance = credit.BalanceAfter
	sender.UpdatedAt = now
	receiver.UpdatedAt = now

	if err := uow.Creatures().Update(ctx, sender); err != nil {
		return nil, fmt.Errorf("gift_tokens: update sender: %w", err)
	}
	if err := uow.Creatures().Update(ctx, receiver); err != nil {
		return nil, fmt.Errorf("gift_tokens: update receiver: %w", err)
	}
	if err := uow.Ledger().AppendPair(ctx, debit, credit); err != nil {
		return nil, fmt.Errorf("gift_tokens: append pair: %w", err)
	}

	interaction, err := social.NewInteraction(h.newID(), social.InteractionGift,
		social.CreatureID(sender.ID), social.CreatureID(receiver.ID), cmd.Amount)
	if err == nil {
		if err := uow.Interactions().Save(ctx, interaction); err != nil {
			return nil, fmt.Errorf("gift_tokens: save interaction: %w", err)
		}
	}

	if err := uow.Commit(ctx); err != nil {
		return nil, fmt.Errorf("gift_tokens: commit: %w", err)
	}

	events = append(events, shared.NewTokensGiftedEvent(sender.ID, receiver.ID, cmd.Amount))
	publishAll(h.eventPublisher, events)

	return &GiftTokensResult{
		DebitTransactionID:  debit.ID,
		CreditTransactionID: credit.ID,
		SenderBalance:       sender.Balance,
		ReceiverBalance:     receiver.Balance,
		GiftedAt:            now,
	}, nil
}

// lockPair loads both creatures inside the transaction in ascending ID
// order, the same order every two-creature command uses.
func (h *GiftTokensHandler) lockPair(ctx context.Context, uow ledger.UnitOfWork, fromID, toID string) (sender, receiver *creature.Creature, err error) {
	first, second := fromID, toID
	if second < first {
		first, second = second, first
	}

	a, err := uow.Creatures().GetByID(ctx, first)
	if err != nil {
		return nil, nil, mapNotFound("gift", err)
	}
	b, err := uow.Creatures().GetByID(ctx, second)
	if err != nil {
		return nil, nil, mapNotFound("gift", err)
	}

	if a.ID == fromID {
		return a, b, nil
	}
	return b, a, nil
}
