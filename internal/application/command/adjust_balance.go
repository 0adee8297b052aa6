package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/regen-hub/regenmon-hub/internal/domain/ledger"
	"github.com/regen-hub/regenmon-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ADJUST BALANCE COMMAND (admin)
// A manual balance correction by an operator. The adjustment is an ordinary
// immutable ledger row: signed amount, mandatory reason, the operator's
// identity in the metadata. The balance can never be pushed below zero.
// ══════════════════════════════════════════════════════════════════════════════

// AdjustBalanceCommand contains the adjustment.
type AdjustBalanceCommand struct {
	// CreatureID is the adjusted creature.
	CreatureID string

	// Amount is the signed delta, never zero.
	Amount int64

	// Reason is the mandatory audit note.
	Reason string

	// ActorID is the operator performing the adjustment.
	ActorID string

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c AdjustBalanceCommand) Validate() error {
	if c.CreatureID == "" {
		return errors.New("adjust_balance: creature_id is required")
	}
	if c.Amount == 0 {
		return errors.New("adjust_balance: amount cannot be zero")
	}
	if c.ActorID == "" {
		return ledger.ErrMissingActor
	}
	return nil
}

// AdjustBalanceResult contains the outcome.
type AdjustBalanceResult struct {
	// TransactionID is the adjustment ledger row.
	TransactionID string

	// NewBalance is the balance after the adjustment.
	NewBalance int64

	// AdjustedAt is when the adjustment happened.
	AdjustedAt time.Time
}

// AdjustBalanceHandler handles the AdjustBalanceCommand.
type AdjustBalanceHandler struct {
	uowFactory     ledger.UnitOfWorkFactory
	eventPublisher shared.EventPublisher
	newID          func() string
	now            func() time.Time
}

// NewAdjustBalanceHandler creates a new AdjustBalanceHandler.
func NewAdjustBalanceHandler(
	uowFactory ledger.UnitOfWorkFactory,
	eventPublisher shared.EventPublisher,
) *AdjustBalanceHandler {
	return &AdjustBalanceHandler{
		uowFactory:     uowFactory,
		eventPublisher: eventPublisher,
		newID:          uuid.NewString,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// Handle executes the adjustment.
func (h *AdjustBalanceHandler) Handle(ctx context.Context, cmd AdjustBalanceCommand) (*AdjustBalanceResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.NewDomainError("ledger", "adjust", shared.ErrValidation, err.Error())
	}

	now := h.now()

	uow, err := h.uowFactory.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("adjust_balance: begin: %w", err)
	}
	defer uow.Rollback(ctx)

	c, err := uow.Creatures().GetByID(ctx, cmd.CreatureID)
	if err != nil {
		return nil, mapNotFound("adjust", err)
	}

	// adjustments apply regardless of life state: an operator can fix a
	// dead creature's balance
	tx, err := ledger.NewAdminAdjustment(h.newID(), c.ID, cmd.Amount, c.Balance, cmd.Reason, cmd.ActorID)
	if err != nil {
		if errors.Is(err, ledger.ErrInsufficientBalance) {
			return nil, shared.ErrNotEnoughTokens
		}
		return nil, shared.NewDomainError("ledger", "adjust", shared.ErrValidation, err.Error())
	}

	c.Balance = tx.BalanceAfter
	c.UpdatedAt = now

	if err := uow.Creatures().Update(ctx, c); err != nil {
		return nil, fmt.Errorf("adjust_balance: update: %w", err)
	}
	if err := uow.Ledger().Append(ctx, tx); err != nil {
		return nil, fmt.Errorf("adjust_balance: append tx: %w", err)
	}

	if err := uow.Commit(ctx); err != nil {
		return nil, fmt.Errorf("adjust_balance: commit: %w", err)
	}

	event := shared.NewTokensAdjustedEvent(c.ID, cmd.Amount, c.Balance, tx.Reason, cmd.ActorID)
	publishAll(h.eventPublisher, []shared.Event{event})

	return &AdjustBalanceResult{
		TransactionID: tx.ID,
		NewBalance:    c.Balance,
		AdjustedAt:    now,
	}, nil
}
