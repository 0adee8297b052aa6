// Package command contains write operations (CQRS - Commands).
// Commands are responsible for changing the state of the system.
package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/regen-hub/regenmon-hub/internal/domain/creature"
	"github.com/regen-hub/regenmon-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REGISTER CREATURE COMMAND
// Registers a new regenmon in the hub. The app URL and the owner are both
// unique: one creature per deployed app, one creature per owner.
// ══════════════════════════════════════════════════════════════════════════════

// RegisterCreatureCommand contains the registration data.
type RegisterCreatureCommand struct {
	// OwnerID is the external auth identity of the player.
	OwnerID string

	// Name is the creature's display name.
	Name string

	// AppURL is the URL of the player's deployed regenmon app.
	AppURL string

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c RegisterCreatureCommand) Validate() error {
	if c.OwnerID == "" {
		return errors.New("register_creature: owner_id is required")
	}
	if c.Name == "" {
		return errors.New("register_creature: name is required")
	}
	if c.AppURL == "" {
		return errors.New("register_creature: app_url is required")
	}
	return nil
}

// RegisterCreatureResult contains the registration outcome.
type RegisterCreatureResult struct {
	// CreatureID is the new creature's ID.
	CreatureID string

	// Creature is the full registered entity.
	Creature *creature.Creature

	// RegisteredAt is when the registration happened.
	RegisteredAt time.Time
}

// RegisterCreatureHandler handles the RegisterCreatureCommand.
type RegisterCreatureHandler struct {
	creatureRepo   creature.Repository
	eventPublisher shared.EventPublisher
	newID          func() string
}

// NewRegisterCreatureHandler creates a new RegisterCreatureHandler.
func NewRegisterCreatureHandler(
	creatureRepo creature.Repository,
	eventPublisher shared.EventPublisher,
) *RegisterCreatureHandler {
	return &RegisterCreatureHandler{
		creatureRepo:   creatureRepo,
		eventPublisher: eventPublisher,
		newID:          uuid.NewString,
	}
}

// Handle executes the registration.
func (h *RegisterCreatureHandler) Handle(ctx context.Context, cmd RegisterCreatureCommand) (*RegisterCreatureResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.NewDomainError("creature", "register", shared.ErrValidation, err.Error())
	}

	c, err := creature.NewCreature(creature.NewCreatureParams{
		ID:      h.newID(),
		OwnerID: cmd.OwnerID,
		Name:    cmd.Name,
		AppURL:  cmd.AppURL,
	})
	if err != nil {
		return nil, shared.NewDomainError("creature", "register", shared.ErrValidation, err.Error())
	}

	// uniqueness pre-checks: the repository enforces them again under a
	// unique index, these just produce friendlier errors
	if taken, err := h.creatureRepo.ExistsByAppURL(ctx, c.AppURL); err != nil {
		return nil, fmt.Errorf("register_creature: check app url: %w", err)
	} else if taken {
		return nil, shared.ErrAppURLTaken
	}

	if taken, err := h.creatureRepo.ExistsByOwnerID(ctx, c.OwnerID); err != nil {
		return nil, fmt.Errorf("register_creature: check owner: %w", err)
	} else if taken {
		return nil, shared.NewDomainError("creature", "register", shared.ErrAlreadyExists, "owner already has a creature")
	}

	if err := h.creatureRepo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("register_creature: create: %w", err)
	}

	event := shared.NewCreatureRegisteredEvent(c.ID, c.Name, c.AppURL, c.OwnerID)
	if cmd.CorrelationID != "" {
		event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	}
	_ = h.eventPublisher.Publish(event)

	return &RegisterCreatureResult{
		CreatureID:   c.ID,
		Creature:     c,
		RegisteredAt: c.RegisteredAt,
	}, nil
}
