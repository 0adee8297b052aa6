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
// TRAIN CREATURE COMMAND
// A training prompt goes to the AI evaluator and comes back as a 0..100
// score. The score drives the stat vector, lifetime points (points ==
// score) and the token reward (floor(score * rate)). Evaluator failures
// never block training: the fallback score band applies instead.
// ══════════════════════════════════════════════════════════════════════════════

// FallbackScore is used when the evaluator is unavailable.
const FallbackScore = 50

// TrainCreatureCommand contains the training request.
type TrainCreatureCommand struct {
	// CreatureID is the trained creature.
	CreatureID string

	// Prompt is the player's training submission.
	Prompt string

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c TrainCreatureCommand) Validate() error {
	if c.CreatureID == "" {
		return errors.New("train_creature: creature_id is required")
	}
	return training.Prompt(c.Prompt).Validate()
}

// TrainCreatureResult contains the training outcome.
type TrainCreatureResult struct {
	// SessionID is the stored training session.
	SessionID string

	// Score is the evaluation result.
	Score int

	// Fallback is true when the evaluator was unavailable.
	Fallback bool

	// Feedback is the evaluator's textual feedback.
	Feedback string

	// PointsEarned / TokensEarned are the payout.
	PointsEarned int
	TokensEarned int64

	// Stats are the stats after decay and the training vector.
	Stats creature.Stats

	// NewBalance is the balance after the reward.
	NewBalance int64

	// Evolution describes a stage advance, if one happened.
	Evolution *creature.EvolutionResult

	// TrainedAt is when the session finished.
	TrainedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// DEPENDENCIES (Interfaces)
// ══════════════════════════════════════════════════════════════════════════════

// Evaluation is the evaluator's verdict on a training prompt.
type Evaluation struct {
	// Score in [0,100].
	Score int

	// Feedback is optional textual feedback.
	Feedback string
}

// Evaluator scores training prompts. Implementations live in
// infrastructure/external/ai.
type Evaluator interface {
	// Evaluate scores a prompt. Errors mean the upstream is unavailable;
	// the handler falls back to FallbackScore.
	Evaluate(ctx context.Context, creatureName, prompt string) (*Evaluation, error)
}

// TrainingLimiter caps training frequency per creature. Implementations
// must fail open: an unreachable limiter allows the request.
type TrainingLimiter interface {
	// Allow reports whether the creature may train now.
	Allow(ctx context.Context, creatureID string) (bool, error)
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// TrainCreatureHandler handles the TrainCreatureCommand.
type TrainCreatureHandler struct {
	uowFactory     ledger.UnitOfWorkFactory
	evaluator      Evaluator
	limiter        TrainingLimiter
	eventPublisher shared.EventPublisher
	rewardRate     float64
	newID          func() string
	now            func() time.Time
}

// NewTrainCreatureHandler creates a new TrainCreatureHandler.
func NewTrainCreatureHandler(
	uowFactory ledger.UnitOfWorkFactory,
	evaluator Evaluator,
	limiter TrainingLimiter,
	eventPublisher shared.EventPublisher,
	rewardRate float64,
) *TrainCreatureHandler {
	if rewardRate <= 0 {
		rewardRate = creature.DefaultRewardRate
	}
	return &TrainCreatureHandler{
		uowFactory:     uowFactory,
		evaluator:      evaluator,
		limiter:        limiter,
		eventPublisher: eventPublisher,
		rewardRate:     rewardRate,
		newID:          uuid.NewString,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// Handle executes the training session.
func (h *TrainCreatureHandler) Handle(ctx context.Context, cmd TrainCreatureCommand) (*TrainCreatureResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.NewDomainError("creature", "train", shared.ErrValidation, err.Error())
	}

	if h.limiter != nil {
		allowed, err := h.limiter.Allow(ctx, cmd.CreatureID)
		if err == nil && !allowed {
			return nil, shared.NewDomainError("creature", "train", shared.ErrRateLimited, "training limit reached")
		}
	}

	now := h.now()

	uow, err := h.uowFactory.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("train_creature: begin: %w", err)
	}
	defer uow.Rollback(ctx)

	c, err := uow.Creatures().GetByID(ctx, cmd.CreatureID)
	if err != nil {
		return nil, mapNotFound("train", err)
	}

	decay := creature.ApplyDecay(c, now)
	events := make([]shared.Event, 0, 5)
	if decay.Died {
		events = append(events, shared.NewCreatureDiedEvent(c.ID, now))
	}

	if err := c.CanInteract(); err != nil {
		if decay.Changed && persistDecay(ctx, uow, c, "train") {
			publishAll(h.eventPublisher, events)
		}
		return nil, mapLifeStateErr("train", err)
	}

	// evaluate outside any lock-sensitive path; the row lock is held, but
	// the evaluator call is bounded by its own timeout
	eval, fallback := h.evaluate(ctx, c.Name, cmd.Prompt)

	points := creature.TrainingPoints(eval.Score)
	tokens := creature.TokenReward(points, h.rewardRate)

	c.Stats = c.Stats.Apply(creature.TrainingEffect(eval.Score))
	c.StatsUpdatedAt = now
	c.AddPoints(points)
	c.RecordTraining()

	if tokens > 0 {
		tx, err := ledger.NewAward(h.newID(), c.ID, tokens, c.Balance, ledger.TypeReward,
			"training reward", ledger.Metadata{Source: "training", Score: eval.Score})
		if err != nil {
			return nil, fmt.Errorf("train_creature: build award: %w", err)
		}
		c.Balance = tx.BalanceAfter
		if err := uow.Ledger().Append(ctx, tx); err != nil {
			return nil, fmt.Errorf("train_creature: append reward: %w", err)
		}
		events = append(events, shared.NewTokensAwardedEvent(c.ID, tokens, c.Balance, "training"))
	}

	evolution, evoEvents, err := applyEvolution(ctx, uow, h.newID, c)
	if err != nil {
		return nil, fmt.Errorf("train_creature: %w", err)
	}
	events = append(events, evoEvents...)

	if err := uow.Creatures().Update(ctx, c); err != nil {
		return nil, fmt.Errorf("train_creature: update: %w", err)
	}

	session, err := training.NewSession(h.newID(), c.ID, training.Prompt(cmd.Prompt), eval.Score, fallback)
	if err != nil {
		return nil, fmt.Errorf("train_creature: build session: %w", err)
	}
	session.WithPayout(points, tokens).WithFeedback(eval.Feedback)
	if err := uow.Trainings().SaveSession(ctx, session); err != nil {
		return nil, fmt.Errorf("train_creature: save session: %w", err)
	}

	if err := uow.Commit(ctx); err != nil {
		return nil, fmt.Errorf("train_creature: commit: %w", err)
	}

	events = append(events, shared.NewCreatureTrainedEvent(c.ID, eval.Score, points, tokens, fallback))
	publishAll(h.eventPublisher, events)

	result := &TrainCreatureResult{
		SessionID:    session.ID,
		Score:        eval.Score,
		Fallback:     fallback,
		Feedback:     eval.Feedback,
		PointsEarned: points,
		TokensEarned: tokens,
		Stats:        c.Stats,
		NewBalance:   c.Balance,
		TrainedAt:    now,
	}
	if evolution != nil && evolution.Evolved {
		result.Evolution = evolution
	}
	return result, nil
}

// evaluate calls the evaluator, clamping the score and substituting the
// fallback on any failure.
func (h *TrainCreatureHandler) evaluate(ctx context.Context, name, prompt string) (*Evaluation, bool) {
	eval, err := h.evaluator.Evaluate(ctx, name, prompt)
	if err != nil || eval == nil {
		return &Evaluation{Score: FallbackScore}, true
	}
	if eval.Score < 0 {
		eval.Score = 0
	}
	if eval.Score > 100 {
		eval.Score = 100
	}
	return eval, false
}

// applyEvolution checks the stage thresholds and pays the one-time bonus
// inside the open transaction. Shared by training and sync.
func applyEvolution(ctx context.Context, uow ledger.UnitOfWork, newID func() string, c *creature.Creature) (*creature.EvolutionResult, []shared.Event, error) {
	result := creature.CheckEvolution(c)
	if !result.Evolved {
		return &result, nil, nil
	}

	events := make([]shared.Event, 0, 2)

	tx, err := ledger.NewAward(newID(), c.ID, creature.EvolutionBonus, c.Balance, ledger.TypeEvolution,
		fmt.Sprintf("evolution to stage %d", result.NewStage.Int()),
		ledger.Metadata{Stage: result.NewStage.Int()})
	if err != nil {
		return nil, nil, fmt.Errorf("build evolution bonus: %w", err)
	}
	c.Balance = tx.BalanceAfter
	if err := uow.Ledger().Append(ctx, tx); err != nil {
		return nil, nil, fmt.Errorf("append evolution bonus: %w", err)
	}

	events = append(events,
		shared.NewCreatureEvolvedEvent(c.ID, result.OldStage.Int(), result.NewStage.Int(), c.TotalPoints, creature.EvolutionBonus),
		shared.NewTokensAwardedEvent(c.ID, creature.EvolutionBonus, c.Balance, "evolution_bonus"),
	)

	return &result, events, nil
}
