package creature

import (
	"context"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// These interfaces define the storage contract. Implementations live in
// infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Repository defines the CRUD operations for creatures.
type Repository interface {
	// ─────────────────────────────────────────────────────────────────────────
	// CRUD Operations
	// ─────────────────────────────────────────────────────────────────────────

	// Create registers a new creature.
	// Returns ErrAlreadyExists when the app URL or owner is already taken.
	Create(ctx context.Context, c *Creature) error

	// GetByID returns a creature by internal ID.
	// Returns ErrNotFound when the creature does not exist.
	GetByID(ctx context.Context, id string) (*Creature, error)

	// GetByAppURL returns a creature by its normalized app URL.
	// Returns ErrNotFound when the creature does not exist.
	GetByAppURL(ctx context.Context, appURL string) (*Creature, error)

	// GetByOwnerID returns the creature registered by an external auth user.
	// Returns ErrNotFound when the owner has no creature.
	GetByOwnerID(ctx context.Context, ownerID string) (*Creature, error)

	// Update persists creature changes.
	// Returns ErrNotFound when the creature does not exist.
	Update(ctx context.Context, c *Creature) error

	// ─────────────────────────────────────────────────────────────────────────
	// Bulk Operations
	// ─────────────────────────────────────────────────────────────────────────

	// GetAll returns creatures with pagination.
	GetAll(ctx context.Context, opts ListOptions) ([]*Creature, error)

	// GetByIDs returns creatures for a list of IDs.
	GetByIDs(ctx context.Context, ids []string) ([]*Creature, error)

	// Count returns the total number of creatures.
	Count(ctx context.Context) (int, error)

	// ─────────────────────────────────────────────────────────────────────────
	// Search & Filter
	// ─────────────────────────────────────────────────────────────────────────

	// FindStale finds active creatures whose last sync is older than the
	// threshold. Used by the inactivity detector.
	FindStale(ctx context.Context, threshold time.Duration) ([]*Creature, error)

	// ─────────────────────────────────────────────────────────────────────────
	// Existence Checks
	// ─────────────────────────────────────────────────────────────────────────

	// Exists checks for a creature by ID.
	Exists(ctx context.Context, id string) (bool, error)

	// ExistsByAppURL checks whether an app URL is already registered.
	ExistsByAppURL(ctx context.Context, appURL string) (bool, error)

	// ExistsByOwnerID checks whether an owner already has a creature.
	ExistsByOwnerID(ctx context.Context, ownerID string) (bool, error)
}

// ListOptions contains pagination and sorting parameters.
type ListOptions struct {
	// Offset for pagination.
	Offset int

	// Limit caps the number of rows.
	Limit int

	// SortBy names the sort column.
	SortBy string

	// SortDesc sorts descending when true.
	SortDesc bool

	// IncludeInactive includes disabled creatures.
	IncludeInactive bool
}

// DefaultListOptions returns the default listing parameters.
func DefaultListOptions() ListOptions {
	return ListOptions{
		Offset:          0,
		Limit:           50,
		SortBy:          "total_points",
		SortDesc:        true,
		IncludeInactive: false,
	}
}

// WithOffset sets the offset.
func (o ListOptions) WithOffset(offset int) ListOptions {
	o.Offset = offset
	return o
}

// WithLimit sets the limit.
func (o ListOptions) WithLimit(limit int) ListOptions {
	o.Limit = limit
	return o
}

// WithSort sets the sort column and direction.
func (o ListOptions) WithSort(field string, desc bool) ListOptions {
	o.SortBy = field
	o.SortDesc = desc
	return o
}

// WithInactive includes disabled creatures.
func (o ListOptions) WithInactive() ListOptions {
	o.IncludeInactive = true
	return o
}

// ══════════════════════════════════════════════════════════════════════════════
// SNAPSHOT REPOSITORY
// Per-sync history rows: balance and points at the moment of each sync.
// ══════════════════════════════════════════════════════════════════════════════

// Snapshot is one point-in-time record of a creature's progress, written on
// every sync. History only - it never feeds back into the engine.
type Snapshot struct {
	ID            string
	CreatureID    string
	Balance       int64
	TotalPoints   int
	TrainingCount int
	TakenAt       time.Time
}

// SnapshotRepository stores sync-time progress snapshots.
type SnapshotRepository interface {
	// Save appends a snapshot.
	Save(ctx context.Context, snap Snapshot) error

	// GetHistory returns the snapshots of a creature, newest first.
	GetHistory(ctx context.Context, creatureID string, limit int) ([]Snapshot, error)

	// GetLatest returns the most recent snapshot of a creature.
	// Returns ErrNotFound when the creature has never synced.
	GetLatest(ctx context.Context, creatureID string) (*Snapshot, error)
}

// ══════════════════════════════════════════════════════════════════════════════
// CACHE INTERFACE
// ══════════════════════════════════════════════════════════════════════════════

// Cache defines caching for hot creature reads.
type Cache interface {
	// Get fetches a creature from the cache.
	Get(ctx context.Context, creatureID string) (*Creature, error)

	// Set stores a creature in the cache.
	Set(ctx context.Context, c *Creature, ttl time.Duration) error

	// Delete removes a creature from the cache.
	Delete(ctx context.Context, creatureID string) error

	// Invalidate drops every cache entry of a creature.
	Invalidate(ctx context.Context, creatureID string) error
}
