package command

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/regen-hub/regenmon-hub/internal/domain/ledger"
	"github.com/regen-hub/regenmon-hub/internal/domain/shared"
	"github.com/regen-hub/regenmon-hub/internal/domain/social"
)

// ══════════════════════════════════════════════════════════════════════════════
// VISIT CREATURE COMMAND
// Records one creature viewing another's page. Visits change nothing about
// either creature; they only feed the activity stream and the hub stats.
// ══════════════════════════════════════════════════════════════════════════════

// VisitCreatureCommand contains the visit.
type VisitCreatureCommand struct {
	// VisitorID / HostID are who visited whom.
	VisitorID string
	HostID    string

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c VisitCreatureCommand) Validate() error {
	if c.VisitorID == "" || c.HostID == "" {
		return social.ErrInvalidParticipant
	}
	if c.VisitorID == c.HostID {
		return social.ErrSelfInteraction
	}
	return nil
}

// VisitCreatureResult contains the outcome.
type VisitCreatureResult struct {
	// VisitID is the stored visit record.
	VisitID string

	// VisitedAt is when the visit happened.
	VisitedAt time.Time
}

// VisitCreatureHandler handles the VisitCreatureCommand.
type VisitCreatureHandler struct {
	uowFactory ledger.UnitOfWorkFactory
	newID      func() string
	now        func() time.Time
}

// NewVisitCreatureHandler creates a new VisitCreatureHandler.
func NewVisitCreatureHandler(uowFactory ledger.UnitOfWorkFactory) *VisitCreatureHandler {
	return &VisitCreatureHandler{
		uowFactory: uowFactory,
		newID:      uuid.NewString,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Handle records the visit.
func (h *VisitCreatureHandler) Handle(ctx context.Context, cmd VisitCreatureCommand) (*VisitCreatureResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.NewDomainError("social", "visit", shared.ErrValidation, err.Error())
	}

	uow, err := h.uowFactory.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("visit_creature: begin: %w", err)
	}
	defer uow.Rollback(ctx)

	// both must exist; life state is irrelevant, dead pages can be visited
	if _, err := uow.Creatures().GetByID(ctx, cmd.VisitorID); err != nil {
		return nil, mapNotFound("visit", err)
	}
	if _, err := uow.Creatures().GetByID(ctx, cmd.HostID); err != nil {
		return nil, mapNotFound("visit", err)
	}

	visit, err := social.NewVisit(h.newID(), social.CreatureID(cmd.VisitorID), social.CreatureID(cmd.HostID))
	if err != nil {
		return nil, shared.NewDomainError("social", "visit", shared.ErrValidation, err.Error())
	}
	if err := uow.Visits().Save(ctx, visit); err != nil {
		return nil, fmt.Errorf("visit_creature: save visit: %w", err)
	}

	interaction, err := social.NewInteraction(h.newID(), social.InteractionVisit,
		visit.VisitorID, visit.HostID, 0)
	if err == nil {
		if err := uow.Interactions().Save(ctx, interaction); err != nil {
			return nil, fmt.Errorf("visit_creature: save interaction: %w", err)
		}
	}

	if err := uow.Commit(ctx); err != nil {
		return nil, fmt.Errorf("visit_creature: commit: %w", err)
	}

	return &VisitCreatureResult{
		VisitID:   visit.ID,
		VisitedAt: visit.VisitedAt,
	}, nil
}
