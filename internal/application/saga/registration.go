// Package saga contains multi-step business processes that orchestrate
// several domain operations in a coordinated manner. Sagas keep the
// critical path transactional and treat decorations (welcome rows, rank
// lookups) as non-critical steps that never fail the whole flow.
package saga

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/regen-hub/regenmon-hub/internal/application/command"
	"github.com/regen-hub/regenmon-hub/internal/domain/creature"
	"github.com/regen-hub/regenmon-hub/internal/domain/leaderboard"
	"github.com/regen-hub/regenmon-hub/internal/domain/notification"
	"github.com/regen-hub/regenmon-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REGISTRATION SAGA
// Full onboarding of a new regenmon:
// Validate → Register (transactional) → Welcome Feed Row → Initial Rank
// The registration itself is delegated to the command handler so its
// uniqueness invariants live in exactly one place.
// ══════════════════════════════════════════════════════════════════════════════

// RegistrationStep names a step of the registration saga.
type RegistrationStep string

const (
	StepValidateInput RegistrationStep = "validate_input"
	StepRegister      RegistrationStep = "register"
	StepWelcome       RegistrationStep = "welcome"
	StepInitialRank   RegistrationStep = "initial_rank"
	StepComplete      RegistrationStep = "complete"
)

// RegistrationInput contains everything needed to onboard a creature.
type RegistrationInput struct {
	// OwnerID is the external auth identity of the player.
	OwnerID string

	// Name is the creature's display name.
	Name string

	// AppURL is the URL of the player's deployed regenmon app.
	AppURL string

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate checks the input.
func (i RegistrationInput) Validate() error {
	if i.OwnerID == "" {
		return errors.New("registration: owner_id is required")
	}
	if i.Name == "" {
		return errors.New("registration: name is required")
	}
	if i.AppURL == "" {
		return errors.New("registration: app_url is required")
	}
	return nil
}

// RegistrationResult contains the outcome of a successful registration.
type RegistrationResult struct {
	// Creature is the newly registered entity.
	Creature *creature.Creature

	// WelcomeNotificationID is the feed row written for the owner, empty
	// when the welcome step failed.
	WelcomeNotificationID string

	// InitialRank is the creature's starting leaderboard position, zero
	// until the next rebuild picks it up.
	InitialRank int

	// RegisteredAt is when the registration happened.
	RegisteredAt time.Time
}

// registrationState tracks saga progress for error reporting.
type registrationState struct {
	currentStep RegistrationStep
	failedStep  RegistrationStep
	startedAt   time.Time
}

// RegistrationSaga orchestrates the complete onboarding flow.
type RegistrationSaga struct {
	register        *command.RegisterCreatureHandler
	notifications   notification.Repository
	trigger         *notification.Trigger
	leaderboardRepo leaderboard.Repository
	logger          *slog.Logger
	now             func() time.Time
}

// NewRegistrationSaga creates a new RegistrationSaga.
func NewRegistrationSaga(
	register *command.RegisterCreatureHandler,
	notifications notification.Repository,
	trigger *notification.Trigger,
	leaderboardRepo leaderboard.Repository,
	logger *slog.Logger,
) *RegistrationSaga {
	if logger == nil {
		logger = slog.Default()
	}

	return &RegistrationSaga{
		register:        register,
		notifications:   notifications,
		trigger:         trigger,
		leaderboardRepo: leaderboardRepo,
		logger:          logger.With("saga", "registration"),
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// Execute runs the registration flow.
func (s *RegistrationSaga) Execute(ctx context.Context, input RegistrationInput) (*RegistrationResult, error) {
	state := &registrationState{
		currentStep: StepValidateInput,
		startedAt:   s.now(),
	}

	// Step 1: validate
	if err := input.Validate(); err != nil {
		return nil, s.fail(state, shared.NewDomainError("creature", "register", shared.ErrValidation, err.Error()))
	}

	// Step 2: register - the only critical step
	state.currentStep = StepRegister
	registered, err := s.register.Handle(ctx, command.RegisterCreatureCommand{
		OwnerID:       input.OwnerID,
		Name:          input.Name,
		AppURL:        input.AppURL,
		CorrelationID: input.CorrelationID,
	})
	if err != nil {
		return nil, s.fail(state, err)
	}

	// Step 3: welcome feed row - never fails the flow
	state.currentStep = StepWelcome
	welcomeID := s.stepWelcome(ctx, registered.Creature)

	// Step 4: initial rank - purely informational
	state.currentStep = StepInitialRank
	initialRank := s.stepInitialRank(ctx, registered.CreatureID)

	state.currentStep = StepComplete
	s.logger.Info("registration completed",
		"creature_id", registered.CreatureID,
		"owner_id", input.OwnerID,
		"duration", s.now().Sub(state.startedAt),
	)

	return &RegistrationResult{
		Creature:              registered.Creature,
		WelcomeNotificationID: welcomeID,
		InitialRank:           initialRank,
		RegisteredAt:          registered.RegisteredAt,
	}, nil
}

// stepWelcome writes the welcome notification.
func (s *RegistrationSaga) stepWelcome(ctx context.Context, c *creature.Creature) string {
	event := shared.NewCreatureRegisteredEvent(c.ID, c.Name, c.AppURL, c.OwnerID)

	n, err := s.trigger.FromEvent(event, c.OwnerID, c.Name)
	if err != nil || n == nil {
		s.logger.Warn("welcome notification skipped", "creature_id", c.ID, "error", err)
		return ""
	}

	if err := s.notifications.Save(ctx, n); err != nil {
		s.logger.Warn("welcome notification not saved", "creature_id", c.ID, "error", err)
		return ""
	}

	return string(n.ID)
}

// stepInitialRank reads the creature's starting position.
func (s *RegistrationSaga) stepInitialRank(ctx context.Context, creatureID string) int {
	entry, err := s.leaderboardRepo.GetCreatureRank(ctx, creatureID)
	if err != nil || entry == nil {
		return 0
	}
	return int(entry.Rank)
}

// fail records the failed step and wraps the error with saga context.
func (s *RegistrationSaga) fail(state *registrationState, err error) error {
	state.failedStep = state.currentStep
	s.logger.Warn("registration failed",
		"step", state.currentStep,
		"error", err,
	)
	return fmt.Errorf("registration saga at %s: %w", state.currentStep, err)
}
