package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/regen-hub/regenmon-hub/internal/domain/creature"
	"github.com/regen-hub/regenmon-hub/internal/domain/ledger"
	"github.com/regen-hub/regenmon-hub/internal/domain/shared"
	"github.com/regen-hub/regenmon-hub/internal/domain/social"
)

// ══════════════════════════════════════════════════════════════════════════════
// FEED CREATURE COMMAND
// Feeding costs tokens and boosts stats. Either the creature pays for its
// own meal, or another creature pays (assisted feed): the payer's ledger
// gets the debit, the fed creature gets the stat boost.
// Insufficient balance rejects the whole operation: no stat change, no
// ledger row.
// ══════════════════════════════════════════════════════════════════════════════

// FeedCreatureCommand contains the feed request.
type FeedCreatureCommand struct {
	// CreatureID is the creature being fed.
	CreatureID string

	// FeederID is the paying creature. Empty means self-feed.
	FeederID string

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c FeedCreatureCommand) Validate() error {
	if c.CreatureID == "" {
		return errors.New("feed_creature: creature_id is required")
	}
	return nil
}

// IsAssisted reports whether another creature pays.
func (c FeedCreatureCommand) IsAssisted() bool {
	return c.FeederID != "" && c.FeederID != c.CreatureID
}

// FeedCreatureResult contains the feed outcome.
type FeedCreatureResult struct {
	// CreatureID is the fed creature.
	CreatureID string

	// Stats are the stats after decay catch-up and the meal.
	Stats creature.Stats

	// PayerBalance is the payer's balance after the debit.
	PayerBalance int64

	// TransactionID is the ledger row of the debit.
	TransactionID string

	// FedAt is when the feed happened.
	FedAt time.Time
}

// FeedCreatureHandler handles the FeedCreatureCommand.
type FeedCreatureHandler struct {
	uowFactory     ledger.UnitOfWorkFactory
	policy         *social.Policy
	eventPublisher shared.EventPublisher
	newID          func() string
	now            func() time.Time
}

// NewFeedCreatureHandler creates a new FeedCreatureHandler.
func NewFeedCreatureHandler(
	uowFactory ledger.UnitOfWorkFactory,
	policy *social.Policy,
	eventPublisher shared.EventPublisher,
) *FeedCreatureHandler {
	return &FeedCreatureHandler{
		uowFactory:     uowFactory,
		policy:         policy,
		eventPublisher: eventPublisher,
		newID:          uuid.NewString,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// Handle executes the feed.
func (h *FeedCreatureHandler) Handle(ctx context.Context, cmd FeedCreatureCommand) (*FeedCreatureResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.NewDomainError("creature", "feed", shared.ErrValidation, err.Error())
	}

	now := h.now()

	if cmd.IsAssisted() && h.policy != nil {
		if err := h.policy.Check(ctx, social.CreatureID(cmd.FeederID), social.CreatureID(cmd.CreatureID), social.InteractionFeed, now); err != nil {
			return nil, shared.NewDomainError("social", "feed", shared.ErrRateLimited, err.Error())
		}
	}

	uow, err := h.uowFactory.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("feed_creature: begin: %w", err)
	}
	defer uow.Rollback(ctx)

	target, payer, err := h.lockParticipants(ctx, uow, cmd)
	if err != nil {
		return nil, err
	}

	// catch the target up before checking its life state
	decay := creature.ApplyDecay(target, now)
	events := make([]shared.Event, 0, 4)
	if decay.Died {
		events = append(events, shared.NewCreatureDiedEvent(target.ID, now))
	}

	if err := target.CanInteract(); err != nil {
		// persist the decay even when the interaction is rejected
		if decay.Changed && persistDecay(ctx, uow, target, "feed") {
			publishAll(h.eventPublisher, events)
		}
		return nil, mapLifeStateErr("feed", err)
	}

	if cmd.IsAssisted() {
		if err := payer.CanInteract(); err != nil {
			return nil, mapLifeStateErr("feed", err)
		}
	}

	meta := ledger.Metadata{}
	reason := "feed"
	if cmd.IsAssisted() {
		meta.CounterpartID = target.ID
		meta.ActorID = payer.ID
		reason = "assisted feed"
	}

	tx, err := ledger.NewSpend(h.newID(), payer.ID, creature.FeedCost, payer.Balance, ledger.TypeFeed, reason, meta)
	if err != nil {
		if errors.Is(err, ledger.ErrInsufficientBalance) {
			return nil, shared.ErrNotEnoughTokens
		}
		return nil, fmt.Errorf("feed_creature: build spend: %w", err)
	}

	payer.Balance = tx.BalanceAfter
	target.Stats = target.Stats.Apply(creature.FeedEffect)
	target.StatsUpdatedAt = now
	target.UpdatedAt = now

	if err := uow.Creatures().Update(ctx, target); err != nil {
		return nil, fmt.Errorf("feed_creature: update target: %w", err)
	}
	if cmd.IsAssisted() {
		if err := uow.Creatures().Update(ctx, payer); err != nil {
			return nil, fmt.Errorf("feed_creature: update payer: %w", err)
		}
	}
	if err := uow.Ledger().Append(ctx, tx); err != nil {
		return nil, fmt.Errorf("feed_creature: append tx: %w", err)
	}

	if cmd.IsAssisted() {
		// the fed side gets a zero-amount row so its history shows
		// who paid for the meal
		counterTx, err := ledger.NewCounterpart(h.newID(), target.ID, target.Balance, ledger.TypeFeed,
			"fed by another creature", ledger.Metadata{CounterpartID: payer.ID, ActorID: payer.ID})
		if err != nil {
			return nil, fmt.Errorf("feed_creature: build counterpart: %w", err)
		}
		if err := uow.Ledger().Append(ctx, counterTx); err != nil {
			return nil, fmt.Errorf("feed_creature: append counterpart: %w", err)
		}
	}

	if cmd.IsAssisted() {
		interaction, err := social.NewInteraction(h.newID(), social.InteractionFeed,
			social.CreatureID(payer.ID), social.CreatureID(target.ID), 0)
		if err == nil {
			if err := uow.Interactions().Save(ctx, interaction); err != nil {
				return nil, fmt.Errorf("feed_creature: save interaction: %w", err)
			}
		}
	}

	if err := uow.Commit(ctx); err != nil {
		return nil, fmt.Errorf("feed_creature: commit: %w", err)
	}

	events = append(events,
		shared.NewCreatureFedEvent(target.ID, payer.ID, creature.FeedCost),
		shared.NewTokensSpentEvent(payer.ID, creature.FeedCost, payer.Balance, "feed"),
	)
	publishAll(h.eventPublisher, events)

	return &FeedCreatureResult{
		CreatureID:    target.ID,
		Stats:         target.Stats,
		PayerBalance:  payer.Balance,
		TransactionID: tx.ID,
		FedAt:         now,
	}, nil
}

// lockParticipants loads the fed creature and the payer inside the
// transaction, locking two distinct creatures in ascending ID order.
func (h *FeedCreatureHandler) lockParticipants(ctx context.Context, uow ledger.UnitOfWork, cmd FeedCreatureCommand) (target, payer *creature.Creature, err error) {
	if !cmd.IsAssisted() {
		target, err = uow.Creatures().GetByID(ctx, cmd.CreatureID)
		if err != nil {
			return nil, nil, mapNotFound("feed", err)
		}
		return target, target, nil
	}

	first, second := cmd.CreatureID, cmd.FeederID
	if second < first {
		first, second = second, first
	}

	a, err := uow.Creatures().GetByID(ctx, first)
	if err != nil {
		return nil, nil, mapNotFound("feed", err)
	}
	b, err := uow.Creatures().GetByID(ctx, second)
	if err != nil {
		return nil, nil, mapNotFound("feed", err)
	}

	if a.ID == cmd.CreatureID {
		return a, b, nil
	}
	return b, a, nil
}

// persistDecay writes a decay catch-up after the interaction itself was
// rejected. Best effort: the rejection is what the caller reports, and a
// failed write only postpones the catch-up to the next read. Reports
// whether the write landed so death events are not published for a
// creature still alive in storage.
func persistDecay(ctx context.Context, uow ledger.UnitOfWork, c *creature.Creature, op string) bool {
	if err := uow.Creatures().Update(ctx, c); err != nil {
		slog.Warn("failed to persist decay on rejected interaction",
			"op", op, "creature_id", c.ID, "error", err)
		return false
	}
	if err := uow.Commit(ctx); err != nil {
		slog.Warn("failed to commit decay on rejected interaction",
			"op", op, "creature_id", c.ID, "error", err)
		return false
	}
	return true
}

// publishAll publishes events best-effort. Publish failures never fail the
// producing command; the bus retries internally.
func publishAll(pub shared.EventPublisher, events []shared.Event) {
	for _, event := range events {
		_ = pub.Publish(event)
	}
}

// mapLifeStateErr converts domain life-state errors to shared sentinels so
// the transport layer can map them to status codes.
func mapLifeStateErr(op string, err error) error {
	switch {
	case errors.Is(err, creature.ErrDead):
		return shared.NewDomainError("creature", op, shared.ErrCreatureDead, "creature is dead")
	case errors.Is(err, creature.ErrInactive):
		return shared.NewDomainError("creature", op, shared.ErrInactive, "creature is inactive")
	default:
		return err
	}
}

// mapNotFound converts repository not-found errors to the shared sentinel.
func mapNotFound(op string, err error) error {
	if errors.Is(err, creature.ErrNotFound) {
		return shared.NewDomainError("creature", op, shared.ErrNotFound, "creature not found")
	}
	return fmt.Errorf("%s: load creature: %w", op, err)
}
