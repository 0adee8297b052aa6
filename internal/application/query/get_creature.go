// Package query contains read operations following CQRS pattern.
// Queries never modify state - with one deliberate exception: reading a
// creature catches up its lazy stat decay and persists the result, so
// every snapshot a client sees is also the snapshot stored.
package query

import (
	"context"
	"errors"
	"time"

	"github.com/regen-hub/regenmon-hub/internal/domain/creature"
	"github.com/regen-hub/regenmon-hub/internal/domain/leaderboard"
	"github.com/regen-hub/regenmon-hub/internal/domain/ledger"
	"github.com/regen-hub/regenmon-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET CREATURE QUERY
// Returns the full public state of one creature. The decay engine runs
// first: the stats in the response are true as of the request moment.
// ══════════════════════════════════════════════════════════════════════════════

// GetCreatureQuery contains the lookup parameters. Exactly one of the
// selectors must be set.
type GetCreatureQuery struct {
	// CreatureID looks up by internal ID.
	CreatureID string

	// AppURL looks up by the deployed app URL.
	AppURL string

	// OwnerID looks up by the owning player.
	OwnerID string
}

// Validate checks that exactly one selector is set.
func (q *GetCreatureQuery) Validate() error {
	set := 0
	for _, s := range []string{q.CreatureID, q.AppURL, q.OwnerID} {
		if s != "" {
			set++
		}
	}
	if set != 1 {
		return errors.New("exactly one of creature_id, app_url, owner_id must be set")
	}
	return nil
}

// StatsDTO carries the three needs stats.
type StatsDTO struct {
	Happiness int `json:"happiness"`
	Energy    int `json:"energy"`
	Hunger    int `json:"hunger"`
}

// CreatureDTO is the public representation of a creature.
type CreatureDTO struct {
	// ID - internal creature ID.
	ID string `json:"id"`

	// Name - display name.
	Name string `json:"name"`

	// AppURL - the deployed app URL.
	AppURL string `json:"app_url"`

	// Stats - needs stats after decay catch-up.
	Stats StatsDTO `json:"stats"`

	// Stage - evolution stage 1..3.
	Stage int `json:"stage"`

	// TotalPoints - lifetime points.
	TotalPoints int `json:"total_points"`

	// Balance - current $FRUTA balance.
	Balance int64 `json:"balance"`

	// TrainingCount - number of scored training sessions.
	TrainingCount int `json:"training_count"`

	// IsAlive / IsActive - life and participation state.
	IsAlive  bool `json:"is_alive"`
	IsActive bool `json:"is_active"`

	// DiedAt - set for dead creatures.
	DiedAt *time.Time `json:"died_at,omitempty"`

	// Rank - leaderboard position, 0 when unranked.
	Rank int `json:"rank,omitempty"`

	// LastSyncAt / RegisteredAt - timestamps.
	LastSyncAt   time.Time `json:"last_sync_at"`
	RegisteredAt time.Time `json:"registered_at"`
}

// GetCreatureResult contains the query result.
type GetCreatureResult struct {
	// Creature - the creature state.
	Creature CreatureDTO `json:"creature"`

	// GeneratedAt - when the snapshot was taken.
	GeneratedAt time.Time `json:"generated_at"`
}

// GetCreatureHandler handles the GetCreatureQuery.
type GetCreatureHandler struct {
	uowFactory      ledger.UnitOfWorkFactory
	leaderboardRepo leaderboard.Repository
	eventPublisher  shared.EventPublisher
	now             func() time.Time
}

// NewGetCreatureHandler creates a new GetCreatureHandler.
func NewGetCreatureHandler(
	uowFactory ledger.UnitOfWorkFactory,
	leaderboardRepo leaderboard.Repository,
	eventPublisher shared.EventPublisher,
) *GetCreatureHandler {
	return &GetCreatureHandler{
		uowFactory:      uowFactory,
		leaderboardRepo: leaderboardRepo,
		eventPublisher:  eventPublisher,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// Handle executes the query.
func (h *GetCreatureHandler) Handle(ctx context.Context, query GetCreatureQuery) (*GetCreatureResult, error) {
	if err := query.Validate(); err != nil {
		return nil, shared.NewDomainError("query", "GetCreature", shared.ErrValidation, err.Error())
	}

	now := h.now()

	uow, err := h.uowFactory.Begin(ctx)
	if err != nil {
		return nil, shared.WrapError("query", "GetCreature", shared.ErrServiceUnavailable, "begin", err)
	}
	defer uow.Rollback(ctx)

	c, err := h.load(ctx, uow, query)
	if err != nil {
		if errors.Is(err, creature.ErrNotFound) {
			return nil, shared.NewDomainError("query", "GetCreature", shared.ErrNotFound, "creature not found")
		}
		return nil, err
	}

	// reads persist decay so two concurrent readers agree on what they saw
	decay := creature.ApplyDecay(c, now)
	if decay.Changed {
		if err := uow.Creatures().Update(ctx, c); err != nil {
			return nil, shared.WrapError("query", "GetCreature", shared.ErrServiceUnavailable, "persist decay", err)
		}
		if err := uow.Commit(ctx); err != nil {
			return nil, shared.WrapError("query", "GetCreature", shared.ErrServiceUnavailable, "commit", err)
		}
		if decay.Died && h.eventPublisher != nil {
			_ = h.eventPublisher.Publish(shared.NewCreatureDiedEvent(c.ID, now))
		}
	}

	dto := toCreatureDTO(c)
	if h.leaderboardRepo != nil {
		if entry, err := h.leaderboardRepo.GetCreatureRank(ctx, c.ID); err == nil && entry != nil {
			dto.Rank = int(entry.Rank)
		}
	}

	return &GetCreatureResult{
		Creature:    dto,
		GeneratedAt: now,
	}, nil
}

// load resolves the selector to a creature inside the unit of work.
func (h *GetCreatureHandler) load(ctx context.Context, uow ledger.UnitOfWork, query GetCreatureQuery) (*creature.Creature, error) {
	switch {
	case query.CreatureID != "":
		return uow.Creatures().GetByID(ctx, query.CreatureID)
	case query.AppURL != "":
		return uow.Creatures().GetByAppURL(ctx, query.AppURL)
	default:
		return uow.Creatures().GetByOwnerID(ctx, query.OwnerID)
	}
}

// toCreatureDTO converts the domain entity to the public DTO.
func toCreatureDTO(c *creature.Creature) CreatureDTO {
	return CreatureDTO{
		ID:     c.ID,
		Name:   c.Name,
		AppURL: c.AppURL,
		Stats: StatsDTO{
			Happiness: c.Stats.Happiness,
			Energy:    c.Stats.Energy,
			Hunger:    c.Stats.Hunger,
		},
		Stage:         c.Stage.Int(),
		TotalPoints:   c.TotalPoints,
		Balance:       c.Balance,
		TrainingCount: c.TrainingCount,
		IsAlive:       !c.IsDead(),
		IsActive:      c.IsActive,
		DiedAt:        c.DiedAt,
		LastSyncAt:    c.LastSyncAt,
		RegisteredAt:  c.RegisteredAt,
	}
}
