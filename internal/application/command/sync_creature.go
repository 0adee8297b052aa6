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
// SYNC CREATURE COMMAND
// A deployed regenmon app reports its locally accumulated points. The hub
// keeps the maximum: pointsGained = max(0, clientPoints - serverPoints),
// rewarded at the standard rate. Stats are never taken from the client -
// the server's decay engine is the only authority on them.
// ══════════════════════════════════════════════════════════════════════════════

// SyncCreatureCommand contains the client report.
type SyncCreatureCommand struct {
	// CreatureID is the syncing creature.
	CreatureID string

	// ClientPoints is the lifetime points total reported by the app.
	ClientPoints int

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c SyncCreatureCommand) Validate() error {
	if c.CreatureID == "" {
		return errors.New("sync_creature: creature_id is required")
	}
	if c.ClientPoints < 0 {
		return errors.New("sync_creature: client_points cannot be negative")
	}
	return nil
}

// SyncCreatureResult contains the sync outcome.
type SyncCreatureResult struct {
	// CreatureID is the synced creature.
	CreatureID string

	// PointsGained is the accepted points delta (never negative).
	PointsGained int

	// TokensEarned is the reward for the delta.
	TokensEarned int64

	// TotalPoints / NewBalance are the totals after the sync.
	TotalPoints int
	NewBalance  int64

	// Stats are the server-derived stats after decay catch-up.
	Stats creature.Stats

	// Evolution describes a stage advance, if one happened.
	Evolution *creature.EvolutionResult

	// SyncedAt is when the sync was processed.
	SyncedAt time.Time
}

// SyncCreatureHandler handles the SyncCreatureCommand.
type SyncCreatureHandler struct {
	uowFactory     ledger.UnitOfWorkFactory
	eventPublisher shared.EventPublisher
	rewardRate     float64
	newID          func() string
	now            func() time.Time
}

// NewSyncCreatureHandler creates a new SyncCreatureHandler.
func NewSyncCreatureHandler(
	uowFactory ledger.UnitOfWorkFactory,
	eventPublisher shared.EventPublisher,
	rewardRate float64,
) *SyncCreatureHandler {
	if rewardRate <= 0 {
		rewardRate = creature.DefaultRewardRate
	}
	return &SyncCreatureHandler{
		uowFactory:     uowFactory,
		eventPublisher: eventPublisher,
		rewardRate:     rewardRate,
		newID:          uuid.NewString,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// Handle executes the sync.
func (h *SyncCreatureHandler) Handle(ctx context.Context, cmd SyncCreatureCommand) (*SyncCreatureResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.NewDomainError("creature", "sync", shared.ErrValidation, err.Error())
	}

	now := h.now()

	uow, err := h.uowFactory.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("sync_creature: begin: %w", err)
	}
	defer uow.Rollback(ctx)

	c, err := uow.Creatures().GetByID(ctx, cmd.CreatureID)
	if err != nil {
		return nil, mapNotFound("sync", err)
	}

	decay := creature.ApplyDecay(c, now)
	events := make([]shared.Event, 0, 5)
	if decay.Died {
		events = append(events, shared.NewCreatureDiedEvent(c.ID, now))
	}

	// dead creatures still sync: the app keeps reporting, the points
	// still count, only interactions are blocked
	pointsGained := cmd.ClientPoints - c.TotalPoints
	if pointsGained < 0 {
		pointsGained = 0
	}

	tokens := creature.TokenReward(pointsGained, h.rewardRate)

	c.AddPoints(pointsGained)
	c.RecordSync(now)
	// a successful sync proves the owner is back
	if !c.IsActive {
		c.Reactivate()
	}

	if tokens > 0 {
		tx, err := ledger.NewAward(h.newID(), c.ID, tokens, c.Balance, ledger.TypeReward,
			"sync reward", ledger.Metadata{Source: "sync", PointsGained: pointsGained})
		if err != nil {
			return nil, fmt.Errorf("sync_creature: build award: %w", err)
		}
		c.Balance = tx.BalanceAfter
		if err := uow.Ledger().Append(ctx, tx); err != nil {
			return nil, fmt.Errorf("sync_creature: append reward: %w", err)
		}
		events = append(events, shared.NewTokensAwardedEvent(c.ID, tokens, c.Balance, "sync"))
	}

	evolution, evoEvents, err := applyEvolution(ctx, uow, h.newID, c)
	if err != nil {
		return nil, fmt.Errorf("sync_creature: %w", err)
	}
	events = append(events, evoEvents...)

	if err := uow.Creatures().Update(ctx, c); err != nil {
		return nil, fmt.Errorf("sync_creature: update: %w", err)
	}

	snap := creature.Snapshot{
		ID:            h.newID(),
		CreatureID:    c.ID,
		Balance:       c.Balance,
		TotalPoints:   c.TotalPoints,
		TrainingCount: c.TrainingCount,
		TakenAt:       now,
	}
	if err := uow.Snapshots().Save(ctx, snap); err != nil {
		return nil, fmt.Errorf("sync_creature: save snapshot: %w", err)
	}

	if err := uow.Commit(ctx); err != nil {
		return nil, fmt.Errorf("sync_creature: commit: %w", err)
	}

	evolved := evolution != nil && evolution.Evolved
	events = append(events, shared.NewSyncCompletedEvent(c.ID, pointsGained, tokens, evolved))
	publishAll(h.eventPublisher, events)

	result := &SyncCreatureResult{
		CreatureID:   c.ID,
		PointsGained: pointsGained,
		TokensEarned: tokens,
		TotalPoints:  c.TotalPoints,
		NewBalance:   c.Balance,
		Stats:        c.Stats,
		SyncedAt:     now,
	}
	if evolved {
		result.Evolution = evolution
	}
	return result, nil
}
