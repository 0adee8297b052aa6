// Package leaderboard contains the hub ranking domain model. Creatures are
// ordered by lifetime points with deterministic tie-breaks, so two reads of
// the same data always produce the same order.
package leaderboard

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// Rank is a 1-based position in the ranking.
type Rank int

// IsValid checks that the rank is positive.
func (r Rank) IsValid() bool {
	return r > 0
}

// IsTop10 reports whether the creature is in the top 10.
func (r Rank) IsTop10() bool {
	return r >= 1 && r <= 10
}

// IsTop100 reports whether the creature is in the top 100.
func (r Rank) IsTop100() bool {
	return r >= 1 && r <= 100
}

// String returns the string representation.
func (r Rank) String() string {
	return fmt.Sprintf("#%d", r)
}

// RankChange is the position delta since the previous rebuild.
// Positive means the creature climbed.
type RankChange int

// Direction returns the movement direction.
func (rc RankChange) Direction() RankDirection {
	switch {
	case rc > 0:
		return RankDirectionUp
	case rc < 0:
		return RankDirectionDown
	default:
		return RankDirectionStable
	}
}

// Abs returns the absolute delta.
func (rc RankChange) Abs() int {
	if rc < 0 {
		return int(-rc)
	}
	return int(rc)
}

// String returns the string representation.
func (rc RankChange) String() string {
	switch {
	case rc > 0:
		return fmt.Sprintf("+%d", rc)
	case rc < 0:
		return fmt.Sprintf("%d", rc)
	default:
		return "±0"
	}
}

// RankDirection labels the movement since the previous rebuild.
type RankDirection string

const (
	// RankDirectionUp - the creature climbed.
	RankDirectionUp RankDirection = "up"
	// RankDirectionDown - the creature fell.
	RankDirectionDown RankDirection = "down"
	// RankDirectionStable - the position did not change.
	RankDirectionStable RankDirection = "stable"
	// RankDirectionNew - the creature was not ranked before.
	RankDirectionNew RankDirection = "new"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD ENTRY
// ══════════════════════════════════════════════════════════════════════════════

// Entry is one row of the leaderboard.
type Entry struct {
	// Rank - current position, 1-based.
	Rank Rank

	// CreatureID - the ranked creature.
	CreatureID string

	// Name - display name of the creature.
	Name string

	// Stage - evolution stage (1..3).
	Stage int

	// TotalPoints - lifetime points, the primary sort key.
	TotalPoints int

	// Balance - current token balance, the first tie-break.
	Balance int64

	// RegisteredAt - registration time, the final tie-break (older wins).
	RegisteredAt time.Time

	// IsAlive - dead creatures stay ranked but are flagged.
	IsAlive bool

	// RankChange - movement since the previous rebuild.
	RankChange RankChange

	// UpdatedAt - when this row was computed.
	UpdatedAt time.Time
}

// NewEntry builds a validated entry. The rank is assigned later by Ranking.
func NewEntry(creatureID, name string, stage, totalPoints int, balance int64, registeredAt time.Time) (*Entry, error) {
	if creatureID == "" {
		return nil, ErrInvalidCreatureID
	}
	if totalPoints < 0 {
		return nil, ErrInvalidPoints
	}

	return &Entry{
		CreatureID:   creatureID,
		Name:         name,
		Stage:        stage,
		TotalPoints:  totalPoints,
		Balance:      balance,
		RegisteredAt: registeredAt,
		IsAlive:      true,
		UpdatedAt:    time.Now().UTC(),
	}, nil
}

// Direction returns the movement direction since the previous rebuild.
func (e *Entry) Direction() RankDirection {
	return e.RankChange.Direction()
}

// Less implements the ranking order: points desc, then balance desc, then
// registration time asc. Returns true when e ranks strictly above other.
func (e *Entry) Less(other *Entry) bool {
	if e.TotalPoints != other.TotalPoints {
		return e.TotalPoints > other.TotalPoints
	}
	if e.Balance != other.Balance {
		return e.Balance > other.Balance
	}
	return e.RegisteredAt.Before(other.RegisteredAt)
}

// Clone returns a copy of the entry.
func (e *Entry) Clone() *Entry {
	if e == nil {
		return nil
	}
	clone := *e
	return &clone
}

// String returns a string representation for logging.
func (e *Entry) String() string {
	return fmt.Sprintf(
		"Entry{Rank: %d, Name: %s, Points: %d, Change: %s}",
		e.Rank, e.Name, e.TotalPoints, e.RankChange.String(),
	)
}

// ══════════════════════════════════════════════════════════════════════════════
// RANKING (ordered list)
// ══════════════════════════════════════════════════════════════════════════════

// Ranking is the full ordered list. It is built from creature rows, sorted
// once, and then sliced for pages and neighbor views.
type Ranking struct {
	entries []*Entry
	byID    map[string]*Entry
}

// NewRanking creates an empty ranking.
func NewRanking() *Ranking {
	return &Ranking{
		entries: make([]*Entry, 0),
		byID:    make(map[string]*Entry),
	}
}

// Add appends an entry without sorting.
func (r *Ranking) Add(entry *Entry) error {
	if entry == nil {
		return ErrNilEntry
	}
	if _, exists := r.byID[entry.CreatureID]; exists {
		return ErrDuplicateCreature
	}

	r.entries = append(r.entries, entry)
	r.byID[entry.CreatureID] = entry
	return nil
}

// Sort orders the entries and assigns ranks. The tie-break chain makes the
// order total, so ranks are dense and never shared.
func (r *Ranking) Sort() {
	sort.Slice(r.entries, func(i, j int) bool {
		return r.entries[i].Less(r.entries[j])
	})

	for i, entry := range r.entries {
		entry.Rank = Rank(i + 1)
	}
}

// ApplyPrevious fills RankChange by comparing against the previous ranking.
// Entries absent from the previous run are marked new via RankDirectionNew
// in the projection layer (RankChange stays zero).
func (r *Ranking) ApplyPrevious(previous map[string]Rank) {
	for _, entry := range r.entries {
		if prev, ok := previous[entry.CreatureID]; ok {
			entry.RankChange = RankChange(prev - entry.Rank)
		}
	}
}

// GetByID returns an entry by creature ID.
func (r *Ranking) GetByID(creatureID string) *Entry {
	return r.byID[creatureID]
}

// Top returns the first n entries.
func (r *Ranking) Top(n int) []*Entry {
	if n <= 0 {
		return nil
	}
	if n > len(r.entries) {
		n = len(r.entries)
	}
	result := make([]*Entry, n)
	copy(result, r.entries[:n])
	return result
}

// Slice returns entries [from:to).
func (r *Ranking) Slice(from, to int) []*Entry {
	if from < 0 {
		from = 0
	}
	if to > len(r.entries) {
		to = len(r.entries)
	}
	if from >= to {
		return nil
	}
	result := make([]*Entry, to-from)
	copy(result, r.entries[from:to])
	return result
}

// Neighbors returns the entries around a creature, the creature included.
func (r *Ranking) Neighbors(creatureID string, rangeSize int) []*Entry {
	entry := r.GetByID(creatureID)
	if entry == nil {
		return nil
	}

	idx := int(entry.Rank) - 1
	return r.Slice(idx-rangeSize, idx+rangeSize+1)
}

// Count returns the number of entries.
func (r *Ranking) Count() int {
	return len(r.entries)
}

// All returns every entry in order.
func (r *Ranking) All() []*Entry {
	result := make([]*Entry, len(r.entries))
	copy(result, r.entries)
	return result
}

// TotalPoints returns the summed points of the whole ranking.
func (r *Ranking) TotalPoints() int {
	var total int
	for _, entry := range r.entries {
		total += entry.TotalPoints
	}
	return total
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrInvalidCreatureID - the creature ID cannot be empty.
	ErrInvalidCreatureID = errors.New("invalid creature id: cannot be empty")

	// ErrInvalidPoints - points are non-negative.
	ErrInvalidPoints = errors.New("invalid points: must be non-negative")

	// ErrNilEntry - a nil entry cannot be ranked.
	ErrNilEntry = errors.New("cannot add nil entry")

	// ErrDuplicateCreature - the creature is already in the ranking.
	ErrDuplicateCreature = errors.New("creature already exists in ranking")

	// ErrEmptyLeaderboard - the leaderboard holds no entries.
	ErrEmptyLeaderboard = errors.New("leaderboard is empty")
)
