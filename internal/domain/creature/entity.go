// Package creature contains the Regenmon domain model: the creature entity,
// its needs stats, the decay engine, and the evolution rules.
// This is the core of the business logic - no external dependencies here.
package creature

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

const (
	// MinStat is the lower bound of every needs stat.
	MinStat = 0
	// MaxStat is the upper bound of every needs stat.
	MaxStat = 100
)

// Stats holds the three needs stats of a creature. The struct is closed:
// there is exactly this fixed set of stats and every value stays in [0,100].
// Hunger measures satiety - high hunger means a well-fed creature.
type Stats struct {
	Happiness int
	Energy    int
	Hunger    int
}

// DefaultStats returns the stats a freshly registered (or revived) creature gets.
func DefaultStats() Stats {
	return Stats{Happiness: 50, Energy: 50, Hunger: 50}
}

// IsValid checks that every stat is within [0,100].
func (s Stats) IsValid() bool {
	return s.Happiness >= MinStat && s.Happiness <= MaxStat &&
		s.Energy >= MinStat && s.Energy <= MaxStat &&
		s.Hunger >= MinStat && s.Hunger <= MaxStat
}

// Clamp forces every stat into the [0,100] range.
func (s Stats) Clamp() Stats {
	return Stats{
		Happiness: clampStat(s.Happiness),
		Energy:    clampStat(s.Energy),
		Hunger:    clampStat(s.Hunger),
	}
}

// Apply adds an effect vector to the stats, clamping each component
// independently.
func (s Stats) Apply(e Effect) Stats {
	return Stats{
		Happiness: clampStat(s.Happiness + e.Happiness),
		Energy:    clampStat(s.Energy + e.Energy),
		Hunger:    clampStat(s.Hunger + e.Hunger),
	}
}

// IsDepleted reports whether all three stats hit zero. This is the one and
// only death condition.
func (s Stats) IsDepleted() bool {
	return s.Happiness == 0 && s.Energy == 0 && s.Hunger == 0
}

// String returns a compact representation for logging.
func (s Stats) String() string {
	return fmt.Sprintf("H:%d E:%d F:%d", s.Happiness, s.Energy, s.Hunger)
}

func clampStat(v int) int {
	if v < MinStat {
		return MinStat
	}
	if v > MaxStat {
		return MaxStat
	}
	return v
}

// Stage represents the evolution stage of a creature.
type Stage int

const (
	// StageHatchling is the starting stage.
	StageHatchling Stage = 1
	// StageJuvenile unlocks at 500 lifetime points.
	StageJuvenile Stage = 2
	// StageAscended unlocks at 1500 lifetime points.
	StageAscended Stage = 3
)

// IsValid checks that the stage is one of the defined stages.
func (s Stage) IsValid() bool {
	return s >= StageHatchling && s <= StageAscended
}

// Int returns the underlying int value.
func (s Stage) Int() int {
	return int(s)
}

// IsFinal reports whether the creature can evolve no further.
func (s Stage) IsFinal() bool {
	return s == StageAscended
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrInvalidName - the creature name is out of bounds.
	ErrInvalidName = errors.New("invalid creature name: must be 1-50 chars")

	// ErrInvalidAppURL - the app URL does not parse as http(s).
	ErrInvalidAppURL = errors.New("invalid app url: must be a valid http(s) URL")

	// ErrInvalidOwner - the external owner reference is missing.
	ErrInvalidOwner = errors.New("invalid owner id: must be non-empty")

	// ErrInvalidStats - some stat is outside [0,100].
	ErrInvalidStats = errors.New("invalid stats: each value must be within 0-100")

	// ErrDead - the creature is dead and cannot act.
	ErrDead = errors.New("creature is dead")

	// ErrNotDead - revival requires a dead creature.
	ErrNotDead = errors.New("creature is not dead")

	// ErrInactive - the creature was disabled and cannot act.
	ErrInactive = errors.New("creature is inactive")

	// ErrNotFound - the creature does not exist.
	ErrNotFound = errors.New("creature not found")

	// ErrAlreadyExists - a creature with the same app URL or owner exists.
	ErrAlreadyExists = errors.New("creature already exists")

	// ErrStageRegression - evolution stages only move forward.
	ErrStageRegression = errors.New("evolution stage cannot decrease")
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: CREATURE
// ══════════════════════════════════════════════════════════════════════════════

// Creature is the central entity of the hub: one virtual pet per player.
type Creature struct {
	// ID is the internal unique identifier (UUID in string form).
	ID string

	// OwnerID is the opaque identity of the owning player in the external
	// auth system. At most one creature per owner.
	OwnerID string

	// Name is the display name chosen at registration.
	Name string

	// AppURL is the unique URL of the player's deployed creature app.
	AppURL string

	// Stats are the current needs stats, valid as of StatsUpdatedAt.
	// Reads must catch up decay before trusting them.
	Stats Stats

	// Stage is the current evolution stage.
	Stage Stage

	// TotalPoints is the lifetime training points counter. Never decreases.
	TotalPoints int

	// Balance is the current $FRUTA balance, mirrored from the ledger.
	Balance int64

	// TrainingCount is the number of scored training submissions.
	TrainingCount int

	// IsActive marks whether the creature participates in the hub.
	// Inactive creatures reject interactions but stay on the leaderboard.
	IsActive bool

	// DiedAt is set when all stats hit zero. nil while alive.
	DiedAt *time.Time

	// StatsUpdatedAt anchors lazy decay: the moment Stats were last true.
	StatsUpdatedAt time.Time

	// LastSyncAt is the time of the last client sync.
	LastSyncAt time.Time

	// RegisteredAt is when the creature joined the hub.
	RegisteredAt time.Time

	// CreatedAt / UpdatedAt are row bookkeeping timestamps.
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// FACTORY & VALIDATION
// ══════════════════════════════════════════════════════════════════════════════

// NewCreatureParams contains the parameters for registering a new creature.
type NewCreatureParams struct {
	ID      string
	OwnerID string
	Name    string
	AppURL  string
}

// NewCreature creates a new creature with all fields validated.
// A new creature starts at stage 1 with balanced stats and an empty ledger.
func NewCreature(params NewCreatureParams) (*Creature, error) {
	if params.ID == "" {
		return nil, errors.New("creature id is required")
	}

	name := strings.TrimSpace(params.Name)
	if len(name) == 0 || len(name) > 50 {
		return nil, ErrInvalidName
	}

	owner := strings.TrimSpace(params.OwnerID)
	if owner == "" {
		return nil, ErrInvalidOwner
	}

	appURL, err := normalizeAppURL(params.AppURL)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	return &Creature{
		ID:             params.ID,
		OwnerID:        owner,
		Name:           name,
		AppURL:         appURL,
		Stats:          DefaultStats(),
		Stage:          StageHatchling,
		TotalPoints:    0,
		Balance:        0,
		TrainingCount:  0,
		IsActive:       true,
		DiedAt:         nil,
		StatsUpdatedAt: now,
		LastSyncAt:     now,
		RegisteredAt:   now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// normalizeAppURL validates the URL and strips cosmetic differences so
// duplicates cannot hide behind casing or a trailing slash.
func normalizeAppURL(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if len(s) == 0 || len(s) > 500 {
		return "", ErrInvalidAppURL
	}
	u, err := url.Parse(s)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", ErrInvalidAppURL
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	return strings.TrimSuffix(u.String(), "/"), nil
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN METHODS (Business Logic)
// ══════════════════════════════════════════════════════════════════════════════

// IsDead reports whether the creature has died.
func (c *Creature) IsDead() bool {
	return c.DiedAt != nil
}

// CanInteract returns nil when the creature may receive interactions.
// Dead and inactive creatures reject everything except revival.
func (c *Creature) CanInteract() error {
	if c.IsDead() {
		return ErrDead
	}
	if !c.IsActive {
		return ErrInactive
	}
	return nil
}

// ApplyEffect applies an interaction effect vector to the stats.
// Callers must have caught up decay first.
func (c *Creature) ApplyEffect(e Effect) {
	now := time.Now().UTC()
	c.Stats = c.Stats.Apply(e)
	c.StatsUpdatedAt = now
	c.UpdatedAt = now
}

// AddPoints increases the lifetime points counter. Negative deltas are
// ignored: the counter is monotonic.
func (c *Creature) AddPoints(delta int) {
	if delta <= 0 {
		return
	}
	c.TotalPoints += delta
	c.UpdatedAt = time.Now().UTC()
}

// RecordTraining bumps the training counter.
func (c *Creature) RecordTraining() {
	c.TrainingCount++
	c.UpdatedAt = time.Now().UTC()
}

// markDead freezes the creature. Internal: only the decay engine and the
// interaction paths may kill a creature, and only via depleted stats.
func (c *Creature) markDead(at time.Time) {
	t := at.UTC()
	c.DiedAt = &t
	c.UpdatedAt = t
}

// Revive brings a dead creature back with balanced stats.
// Returns ErrNotDead for living creatures; the token cost is the caller's
// concern (it goes through the ledger).
func (c *Creature) Revive() error {
	if !c.IsDead() {
		return ErrNotDead
	}

	now := time.Now().UTC()
	c.Stats = DefaultStats()
	c.DiedAt = nil
	c.StatsUpdatedAt = now
	c.UpdatedAt = now
	return nil
}

// MarkInactive disables the creature. Reversible by Reactivate.
func (c *Creature) MarkInactive() {
	c.IsActive = false
	c.UpdatedAt = time.Now().UTC()
}

// Reactivate re-enables a disabled creature.
func (c *Creature) Reactivate() {
	c.IsActive = true
	c.UpdatedAt = time.Now().UTC()
}

// RecordSync updates the last sync timestamp.
func (c *Creature) RecordSync(at time.Time) {
	c.LastSyncAt = at.UTC()
	c.UpdatedAt = time.Now().UTC()
}

// DaysSinceLastSync returns the number of days since the last client sync.
func (c *Creature) DaysSinceLastSync() int {
	return int(time.Since(c.LastSyncAt).Hours() / 24)
}

// String returns a string representation for logging.
func (c *Creature) String() string {
	status := "alive"
	if c.IsDead() {
		status = "dead"
	}
	return fmt.Sprintf(
		"Creature{ID: %s, Name: %s, Stage: %d, Points: %d, Balance: %d, %s, %s}",
		c.ID, c.Name, c.Stage, c.TotalPoints, c.Balance, c.Stats, status,
	)
}

// Clone creates a deep copy of the creature.
func (c *Creature) Clone() *Creature {
	if c == nil {
		return nil
	}

	clone := *c
	if c.DiedAt != nil {
		t := *c.DiedAt
		clone.DiedAt = &t
	}
	return &clone
}
