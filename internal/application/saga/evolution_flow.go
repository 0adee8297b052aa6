package saga

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/regen-hub/regenmon-hub/internal/domain/creature"
	"github.com/regen-hub/regenmon-hub/internal/domain/ledger"
	"github.com/regen-hub/regenmon-hub/internal/domain/shared"

	"github.com/google/uuid"
)

// ══════════════════════════════════════════════════════════════════════════════
// EVOLUTION FLOW SAGA
// Maintenance flow: re-checks a creature's stage against its lifetime
// points and pays the missed stage bonus when an evolution was skipped
// (e.g. after a manual points correction). The check-and-award runs inside
// one transaction; cache invalidation and events follow after commit.
// ══════════════════════════════════════════════════════════════════════════════

// EvolutionStep names a step of the evolution flow.
type EvolutionStep string

const (
	EvoStepValidate EvolutionStep = "validate"
	EvoStepLoad     EvolutionStep = "load"
	EvoStepEvolve   EvolutionStep = "evolve"
	EvoStepCommit   EvolutionStep = "commit"
	EvoStepComplete EvolutionStep = "complete"
)

// EvolutionFlowResult contains the outcome of an evolution re-check.
type EvolutionFlowResult struct {
	// CreatureID is the checked creature.
	CreatureID string `json:"creature_id"`

	// Evolved is true when a stage advance happened.
	Evolved bool `json:"evolved"`

	// OldStage / NewStage describe the advance.
	OldStage creature.Stage `json:"old_stage"`
	NewStage creature.Stage `json:"new_stage"`

	// BonusPaid is the stage bonus appended to the ledger, zero when no
	// evolution happened.
	BonusPaid int64 `json:"bonus_paid"`

	// NewBalance is the balance after the bonus.
	NewBalance int64 `json:"new_balance"`

	// CheckedAt is when the flow ran.
	CheckedAt time.Time `json:"checked_at"`
}

// EvolutionFlowSaga re-checks stage thresholds for one creature.
type EvolutionFlowSaga struct {
	uowFactory     ledger.UnitOfWorkFactory
	creatureCache  creature.Cache
	eventPublisher shared.EventPublisher
	logger         *slog.Logger
	newID          func() string
	now            func() time.Time
}

// NewEvolutionFlowSaga creates a new EvolutionFlowSaga. The cache may be
// nil; invalidation is then left to the event handlers.
func NewEvolutionFlowSaga(
	uowFactory ledger.UnitOfWorkFactory,
	creatureCache creature.Cache,
	eventPublisher shared.EventPublisher,
	logger *slog.Logger,
) *EvolutionFlowSaga {
	if logger == nil {
		logger = slog.Default()
	}

	return &EvolutionFlowSaga{
		uowFactory:     uowFactory,
		creatureCache:  creatureCache,
		eventPublisher: eventPublisher,
		logger:         logger.With("saga", "evolution_flow"),
		newID:          uuid.NewString,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// Execute runs the evolution re-check for one creature.
func (s *EvolutionFlowSaga) Execute(ctx context.Context, creatureID string) (*EvolutionFlowResult, error) {
	step := EvoStepValidate
	if creatureID == "" {
		return nil, s.fail(step, shared.NewDomainError("creature", "evolution_check", shared.ErrValidation,
			"creature_id is required"))
	}

	now := s.now()

	uow, err := s.uowFactory.Begin(ctx)
	if err != nil {
		return nil, s.fail(step, fmt.Errorf("begin: %w", err))
	}
	defer uow.Rollback(ctx)

	step = EvoStepLoad
	c, err := uow.Creatures().GetByID(ctx, creatureID)
	if err != nil {
		if errors.Is(err, creature.ErrNotFound) {
			return nil, s.fail(step, shared.NewDomainError("creature", "evolution_check", shared.ErrNotFound,
				"creature not found"))
		}
		return nil, s.fail(step, err)
	}

	step = EvoStepEvolve
	result := creature.CheckEvolution(c)
	if !result.Evolved {
		// nothing to do: stages never regress, re-checks are no-ops
		return &EvolutionFlowResult{
			CreatureID: c.ID,
			Evolved:    false,
			OldStage:   result.OldStage,
			NewStage:   result.NewStage,
			NewBalance: c.Balance,
			CheckedAt:  now,
		}, nil
	}

	tx, err := ledger.NewAward(s.newID(), c.ID, creature.EvolutionBonus, c.Balance, ledger.TypeEvolution,
		fmt.Sprintf("evolution to stage %d", result.NewStage.Int()),
		ledger.Metadata{Stage: result.NewStage.Int()})
	if err != nil {
		return nil, s.fail(step, fmt.Errorf("build bonus: %w", err))
	}
	c.Balance = tx.BalanceAfter

	if err := uow.Ledger().Append(ctx, tx); err != nil {
		return nil, s.fail(step, fmt.Errorf("append bonus: %w", err))
	}
	if err := uow.Creatures().Update(ctx, c); err != nil {
		return nil, s.fail(step, fmt.Errorf("update creature: %w", err))
	}

	step = EvoStepCommit
	if err := uow.Commit(ctx); err != nil {
		return nil, s.fail(step, fmt.Errorf("commit: %w", err))
	}

	// post-commit: caches and events are best-effort
	if s.creatureCache != nil {
		if err := s.creatureCache.Invalidate(ctx, c.ID); err != nil {
			s.logger.Warn("cache invalidation failed", "creature_id", c.ID, "error", err)
		}
	}

	if s.eventPublisher != nil {
		_ = s.eventPublisher.Publish(shared.NewCreatureEvolvedEvent(
			c.ID, result.OldStage.Int(), result.NewStage.Int(), c.TotalPoints, creature.EvolutionBonus))
		_ = s.eventPublisher.Publish(shared.NewTokensAwardedEvent(
			c.ID, creature.EvolutionBonus, c.Balance, "evolution_bonus"))
	}

	s.logger.Info("missed evolution applied",
		"creature_id", c.ID,
		"old_stage", result.OldStage.Int(),
		"new_stage", result.NewStage.Int(),
	)

	return &EvolutionFlowResult{
		CreatureID: c.ID,
		Evolved:    true,
		OldStage:   result.OldStage,
		NewStage:   result.NewStage,
		BonusPaid:  creature.EvolutionBonus,
		NewBalance: c.Balance,
		CheckedAt:  now,
	}, nil
}

// fail wraps the error with saga context.
func (s *EvolutionFlowSaga) fail(step EvolutionStep, err error) error {
	s.logger.Warn("evolution flow failed", "step", step, "error", err)
	return fmt.Errorf("evolution flow at %s: %w", step, err)
}
