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
)

// ══════════════════════════════════════════════════════════════════════════════
// REVIVE CREATURE COMMAND
// The one operation a dead creature accepts. Costs tokens from the dead
// creature's own balance; points, balance and stage survive death, only
// the stats reset to the balanced defaults.
// ══════════════════════════════════════════════════════════════════════════════

// ReviveCreatureCommand contains the revive request.
type ReviveCreatureCommand struct {
	// CreatureID is the dead creature.
	CreatureID string

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c ReviveCreatureCommand) Validate() error {
	if c.CreatureID == "" {
		return errors.New("revive_creature: creature_id is required")
	}
	return nil
}

// ReviveCreatureResult contains the revive outcome.
type ReviveCreatureResult struct {
	// CreatureID is the revived creature.
	CreatureID string

	// Stats are the reset stats.
	Stats creature.Stats

	// NewBalance is the balance after paying the cost.
	NewBalance int64

	// TransactionID is the ledger row of the revive charge.
	TransactionID string

	// RevivedAt is when the revival happened.
	RevivedAt time.Time
}

// ReviveCreatureHandler handles the ReviveCreatureCommand.
type ReviveCreatureHandler struct {
	uowFactory     ledger.UnitOfWorkFactory
	eventPublisher shared.EventPublisher
	newID          func() string
	now            func() time.Time
}

// NewReviveCreatureHandler creates a new ReviveCreatureHandler.
func NewReviveCreatureHandler(
	uowFactory ledger.UnitOfWorkFactory,
	eventPublisher shared.EventPublisher,
) *ReviveCreatureHandler {
	return &ReviveCreatureHandler{
		uowFactory:     uowFactory,
		eventPublisher: eventPublisher,
		newID:          uuid.NewString,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// Handle executes the revival.
func (h *ReviveCreatureHandler) Handle(ctx context.Context, cmd ReviveCreatureCommand) (*ReviveCreatureResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.NewDomainError("creature", "revive", shared.ErrValidation, err.Error())
	}

	now := h.now()

	uow, err := h.uowFactory.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("revive_creature: begin: %w", err)
	}
	defer uow.Rollback(ctx)

	c, err := uow.Creatures().GetByID(ctx, cmd.CreatureID)
	if err != nil {
		return nil, mapNotFound("revive", err)
	}

	// a living creature may have died since its last write; catch up before
	// deciding it is "not dead"
	decay := creature.ApplyDecay(c, now)
	events := make([]shared.Event, 0, 3)
	if decay.Died {
		events = append(events, shared.NewCreatureDiedEvent(c.ID, now))
	}

	if !c.IsDead() {
		if decay.Changed {
			_ = uow.Creatures().Update(ctx, c)
			_ = uow.Commit(ctx)
		}
		return nil, shared.NewDomainError("creature", "revive", shared.ErrValidation, "creature is not dead")
	}

	// the charge comes first: a creature that cannot pay stays dead
	tx, err := ledger.NewSpend(h.newID(), c.ID, creature.ReviveCost, c.Balance, ledger.TypeRevive, "revive", ledger.Metadata{})
	if err != nil {
		if errors.Is(err, ledger.ErrInsufficientBalance) {
			return nil, shared.ErrNotEnoughTokens
		}
		return nil, fmt.Errorf("revive_creature: build spend: %w", err)
	}

	if err := c.Revive(); err != nil {
		return nil, shared.NewDomainError("creature", "revive", shared.ErrValidation, err.Error())
	}
	c.Balance = tx.BalanceAfter

	if err := uow.Creatures().Update(ctx, c); err != nil {
		return nil, fmt.Errorf("revive_creature: update: %w", err)
	}
	if err := uow.Ledger().Append(ctx, tx); err != nil {
		return nil, fmt.Errorf("revive_creature: append tx: %w", err)
	}

	if err := uow.Commit(ctx); err != nil {
		return nil, fmt.Errorf("revive_creature: commit: %w", err)
	}

	events = append(events,
		shared.NewCreatureRevivedEvent(c.ID, creature.ReviveCost),
		shared.NewTokensSpentEvent(c.ID, creature.ReviveCost, c.Balance, "revive"),
	)
	publishAll(h.eventPublisher, events)

	return &ReviveCreatureResult{
		CreatureID:    c.ID,
		Stats:         c.Stats,
		NewBalance:    c.Balance,
		TransactionID: tx.ID,
		RevivedAt:     now,
	}, nil
}
