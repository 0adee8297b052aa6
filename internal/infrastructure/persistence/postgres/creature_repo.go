package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/regen-hub/regenmon-hub/internal/domain/creature"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// CREATURE REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

const creatureColumns = `id, owner_id, name, app_url, happiness, energy, hunger,
	   stage, total_points, balance, training_count, is_active,
	   died_at, stats_updated_at, last_sync_at, registered_at, created_at, updated_at`

// CreatureRepository implements creature.Repository for PostgreSQL.
// When bound to a transaction (lockRows set), GetByID takes a row lock so
// the decay catch-up and the balance update happen against a stable row.
type CreatureRepository struct {
	db       Querier
	lockRows bool
}

// NewCreatureRepository creates a pool-backed CreatureRepository.
func NewCreatureRepository(conn *Connection) *CreatureRepository {
	return &CreatureRepository{db: conn}
}

// newTxCreatureRepository binds the repository to a transaction with
// SELECT ... FOR UPDATE semantics on single-row reads.
func newTxCreatureRepository(tx pgx.Tx) *CreatureRepository {
	return &CreatureRepository{db: tx, lockRows: true}
}

// ─────────────────────────────────────────────────────────────────────────────
// CRUD Operations
// ─────────────────────────────────────────────────────────────────────────────

// Create registers a new creature.
func (r *CreatureRepository) Create(ctx context.Context, c *creature.Creature) error {
	query := `
		INSERT INTO creatures (
			id, owner_id, name, app_url, happiness, energy, hunger,
			stage, total_points, balance, training_count, is_active,
			died_at, stats_updated_at, last_sync_at, registered_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`

	_, err := r.db.Exec(ctx, query,
		c.ID,
		c.OwnerID,
		c.Name,
		c.AppURL,
		c.Stats.Happiness,
		c.Stats.Energy,
		c.Stats.Hunger,
		c.Stage.Int(),
		c.TotalPoints,
		c.Balance,
		c.TrainingCount,
		c.IsActive,
		c.DiedAt,
		c.StatsUpdatedAt,
		c.LastSyncAt,
		c.RegisteredAt,
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return creature.ErrAlreadyExists
		}
		return fmt.Errorf("failed to create creature: %w", err)
	}

	return nil
}

// GetByID returns a creature by internal ID.
func (r *CreatureRepository) GetByID(ctx context.Context, id string) (*creature.Creature, error) {
	query := fmt.Sprintf("SELECT %s FROM creatures WHERE id = $1", creatureColumns)
	if r.lockRows {
		query += " FOR UPDATE"
	}

	row := r.db.QueryRow(ctx, query, id)
	return scanCreature(row)
}

// GetByAppURL returns a creature by its normalized app URL.
func (r *CreatureRepository) GetByAppURL(ctx context.Context, appURL string) (*creature.Creature, error) {
	query := fmt.Sprintf("SELECT %s FROM creatures WHERE app_url = $1", creatureColumns)
	if r.lockRows {
		query += " FOR UPDATE"
	}

	row := r.db.QueryRow(ctx, query, appURL)
	return scanCreature(row)
}

// GetByOwnerID returns the creature registered by an external auth user.
func (r *CreatureRepository) GetByOwnerID(ctx context.Context, ownerID string) (*creature.Creature, error) {
	query := fmt.Sprintf("SELECT %s FROM creatures WHERE owner_id = $1", creatureColumns)
	if r.lockRows {
		query += " FOR UPDATE"
	}

	row := r.db.QueryRow(ctx, query, ownerID)
	return scanCreature(row)
}

// Update persists creature changes.
func (r *CreatureRepository) Update(ctx context.Context, c *creature.Creature) error {
	query := `
		UPDATE creatures SET
			name = $1,
			happiness = $2,
			energy = $3,
			hunger = $4,
			stage = $5,
			total_points = $6,
			balance = $7,
			training_count = $8,
			is_active = $9,
			died_at = $10,
			stats_updated_at = $11,
			last_sync_at = $12,
			updated_at = $13
		WHERE id = $14
	`

	result, err := r.db.Exec(ctx, query,
		c.Name,
		c.Stats.Happiness,
		c.Stats.Energy,
		c.Stats.Hunger,
		c.Stage.Int(),
		c.TotalPoints,
		c.Balance,
		c.TrainingCount,
		c.IsActive,
		c.DiedAt,
		c.StatsUpdatedAt,
		c.LastSyncAt,
		time.Now().UTC(),
		c.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update creature: %w", err)
	}

	if result.RowsAffected() == 0 {
		return creature.ErrNotFound
	}

	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Bulk Operations
// ─────────────────────────────────────────────────────────────────────────────

// GetAll returns creatures with pagination.
func (r *CreatureRepository) GetAll(ctx context.Context, opts creature.ListOptions) ([]*creature.Creature, error) {
	query := fmt.Sprintf("SELECT %s FROM creatures", creatureColumns)
	if !opts.IncludeInactive {
		query += " WHERE is_active"
	}
	query += buildCreatureOrderBy(opts)
	query += " LIMIT $1 OFFSET $2"

	rows, err := r.db.Query(ctx, query, opts.Limit, opts.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query creatures: %w", err)
	}
	defer rows.Close()

	return scanCreatures(rows)
}

// GetByIDs returns creatures for a list of IDs.
func (r *CreatureRepository) GetByIDs(ctx context.Context, ids []string) ([]*creature.Creature, error) {
	if len(ids) == 0 {
		return []*creature.Creature{}, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}

	query := fmt.Sprintf(
		"SELECT %s FROM creatures WHERE id IN (%s)",
		creatureColumns, strings.Join(placeholders, ", "),
	)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query creatures by ids: %w", err)
	}
	defer rows.Close()

	return scanCreatures(rows)
}

// Count returns the total number of creatures.
func (r *CreatureRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM creatures").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count creatures: %w", err)
	}
	return count, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Search & Filter
// ─────────────────────────────────────────────────────────────────────────────

// FindStale finds active living creatures whose last sync is older than the
// threshold.
func (r *CreatureRepository) FindStale(ctx context.Context, threshold time.Duration) ([]*creature.Creature, error) {
	cutoff := time.Now().UTC().Add(-threshold)

	query := fmt.Sprintf(`
		SELECT %s FROM creatures
		WHERE last_sync_at < $1 AND is_active AND died_at IS NULL
		ORDER BY last_sync_at ASC
	`, creatureColumns)

	rows, err := r.db.Query(ctx, query, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to find stale creatures: %w", err)
	}
	defer rows.Close()

	return scanCreatures(rows)
}

// ─────────────────────────────────────────────────────────────────────────────
// Existence Checks
// ─────────────────────────────────────────────────────────────────────────────

// Exists checks for a creature by ID.
func (r *CreatureRepository) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM creatures WHERE id = $1)",
		id,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check creature existence: %w", err)
	}
	return exists, nil
}

// ExistsByAppURL checks whether an app URL is already registered.
func (r *CreatureRepository) ExistsByAppURL(ctx context.Context, appURL string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM creatures WHERE app_url = $1)",
		appURL,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check creature existence by app url: %w", err)
	}
	return exists, nil
}

// ExistsByOwnerID checks whether an owner already has a creature.
func (r *CreatureRepository) ExistsByOwnerID(ctx context.Context, ownerID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM creatures WHERE owner_id = $1)",
		ownerID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check creature existence by owner: %w", err)
	}
	return exists, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// SNAPSHOT REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// SnapshotRepository implements creature.SnapshotRepository for PostgreSQL.
type SnapshotRepository struct {
	db Querier
}

// NewSnapshotRepository creates a pool-backed SnapshotRepository.
func NewSnapshotRepository(conn *Connection) *SnapshotRepository {
	return &SnapshotRepository{db: conn}
}

// newTxSnapshotRepository binds the repository to a transaction.
func newTxSnapshotRepository(tx pgx.Tx) *SnapshotRepository {
	return &SnapshotRepository{db: tx}
}

// Save appends a snapshot.
func (r *SnapshotRepository) Save(ctx context.Context, snap creature.Snapshot) error {
	query := `
		INSERT INTO creature_snapshots (id, creature_id, balance, total_points, training_count, taken_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.Exec(ctx, query,
		snap.ID,
		snap.CreatureID,
		snap.Balance,
		snap.TotalPoints,
		snap.TrainingCount,
		snap.TakenAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}

	return nil
}

// GetHistory returns the snapshots of a creature, newest first.
func (r *SnapshotRepository) GetHistory(ctx context.Context, creatureID string, limit int) ([]creature.Snapshot, error) {
	query := `
		SELECT id, creature_id, balance, total_points, training_count, taken_at
		FROM creature_snapshots
		WHERE creature_id = $1
		ORDER BY taken_at DESC
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, creatureID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot history: %w", err)
	}
	defer rows.Close()

	var snaps []creature.Snapshot
	for rows.Next() {
		var s creature.Snapshot
		if err := rows.Scan(&s.ID, &s.CreatureID, &s.Balance, &s.TotalPoints, &s.TrainingCount, &s.TakenAt); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snaps = append(snaps, s)
	}

	return snaps, rows.Err()
}

// GetLatest returns the most recent snapshot of a creature.
func (r *SnapshotRepository) GetLatest(ctx context.Context, creatureID string) (*creature.Snapshot, error) {
	query := `
		SELECT id, creature_id, balance, total_points, training_count, taken_at
		FROM creature_snapshots
		WHERE creature_id = $1
		ORDER BY taken_at DESC
		LIMIT 1
	`

	var s creature.Snapshot
	err := r.db.QueryRow(ctx, query, creatureID).Scan(
		&s.ID, &s.CreatureID, &s.Balance, &s.TotalPoints, &s.TrainingCount, &s.TakenAt,
	)
	if IsNoRows(err) {
		return nil, creature.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest snapshot: %w", err)
	}

	return &s, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPER METHODS
// ══════════════════════════════════════════════════════════════════════════════

// scanCreature scans a single creature from a row.
func scanCreature(row pgx.Row) (*creature.Creature, error) {
	var c creature.Creature
	var stage int

	err := row.Scan(
		&c.ID,
		&c.OwnerID,
		&c.Name,
		&c.AppURL,
		&c.Stats.Happiness,
		&c.Stats.Energy,
		&c.Stats.Hunger,
		&stage,
		&c.TotalPoints,
		&c.Balance,
		&c.TrainingCount,
		&c.IsActive,
		&c.DiedAt,
		&c.StatsUpdatedAt,
		&c.LastSyncAt,
		&c.RegisteredAt,
		&c.CreatedAt,
		&c.UpdatedAt,
	)

	if IsNoRows(err) {
		return nil, creature.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan creature: %w", err)
	}

	c.Stage = creature.Stage(stage)
	return &c, nil
}

// scanCreatures scans multiple creatures from rows.
func scanCreatures(rows pgx.Rows) ([]*creature.Creature, error) {
	var creatures []*creature.Creature

	for rows.Next() {
		var c creature.Creature
		var stage int

		err := rows.Scan(
			&c.ID,
			&c.OwnerID,
			&c.Name,
			&c.AppURL,
			&c.Stats.Happiness,
			&c.Stats.Energy,
			&c.Stats.Hunger,
			&stage,
			&c.TotalPoints,
			&c.Balance,
			&c.TrainingCount,
			&c.IsActive,
			&c.DiedAt,
			&c.StatsUpdatedAt,
			&c.LastSyncAt,
			&c.RegisteredAt,
			&c.CreatedAt,
			&c.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan creature: %w", err)
		}

		c.Stage = creature.Stage(stage)
		creatures = append(creatures, &c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return creatures, nil
}

// buildCreatureOrderBy builds the ORDER BY clause from list options.
func buildCreatureOrderBy(opts creature.ListOptions) string {
	orderField := "total_points"
	validFields := map[string]string{
		"total_points":  "total_points",
		"points":        "total_points",
		"balance":       "balance",
		"name":          "name",
		"last_sync_at":  "last_sync_at",
		"registered_at": "registered_at",
		"created_at":    "created_at",
	}

	if field, ok := validFields[opts.SortBy]; ok {
		orderField = field
	}

	direction := "DESC"
	if !opts.SortDesc {
		direction = "ASC"
	}

	return fmt.Sprintf(" ORDER BY %s %s", orderField, direction)
}
