package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// ErrMigrationFailed indicates a migration could not be applied.
var ErrMigrationFailed = errors.New("postgres: migration failed")

// Migration is one schema version with its up and down SQL.
type Migration struct {
	Version   int
	Name      string
	UpSQL     string
	DownSQL   string
	AppliedAt time.Time
	IsApplied bool
}

// GetMigrations returns the embedded schema, in order.
func GetMigrations() []Migration {
	return []Migration{
		{Version: 1, Name: "create_creatures_and_ledger", UpSQL: migration001Up, DownSQL: migration001Down},
		{Version: 2, Name: "create_training", UpSQL: migration002Up, DownSQL: migration002Down},
		{Version: 3, Name: "create_social", UpSQL: migration003Up, DownSQL: migration003Down},
		{Version: 4, Name: "create_leaderboard_and_stats", UpSQL: migration004Up, DownSQL: migration004Down},
		{Version: 5, Name: "create_notifications", UpSQL: migration005Up, DownSQL: migration005Down},
	}
}

// Migrator applies the embedded migrations. The API server runs
// Migrate at startup; the worker only reads Status and warns when the
// server has not caught up yet.
type Migrator struct {
	conn       *Connection
	migrations []Migration
}

const migrationTable = "schema_migrations"

// NewMigrator creates a migrator over the embedded schema.
func NewMigrator(conn *Connection) *Migrator {
	return &Migrator{conn: conn, migrations: GetMigrations()}
}

// Migrate applies every pending migration, each in its own transaction.
func (m *Migrator) Migrate(ctx context.Context) error {
	applied, err := m.appliedVersions(ctx)
	if err != nil {
		return err
	}

	for _, mig := range m.migrations {
		if _, done := applied[mig.Version]; done {
			continue
		}
		if mig.UpSQL == "" {
			return fmt.Errorf("%w: missing up SQL for version %d", ErrMigrationFailed, mig.Version)
		}

		err := m.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, mig.UpSQL); err != nil {
				return err
			}
			_, err := tx.Exec(ctx,
				"INSERT INTO "+migrationTable+" (version, name) VALUES ($1, $2)",
				mig.Version, mig.Name)
			return err
		})
		if err != nil {
			return fmt.Errorf("%w: version %d: %v", ErrMigrationFailed, mig.Version, err)
		}
	}
	return nil
}

// Rollback reverts the most recently applied migration.
func (m *Migrator) Rollback(ctx context.Context) error {
	applied, err := m.appliedVersions(ctx)
	if err != nil {
		return err
	}

	last := 0
	for v := range applied {
		if v > last {
			last = v
		}
	}
	if last == 0 {
		return nil
	}

	var target *Migration
	for i := range m.migrations {
		if m.migrations[i].Version == last {
			target = &m.migrations[i]
			break
		}
	}
	if target == nil || target.DownSQL == "" {
		return fmt.Errorf("%w: missing down SQL for version %d", ErrMigrationFailed, last)
	}

	return m.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, target.DownSQL); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, "DELETE FROM "+migrationTable+" WHERE version = $1", last)
		return err
	})
}

// Status returns every migration annotated with whether it has run.
func (m *Migrator) Status(ctx context.Context) ([]Migration, error) {
	applied, err := m.appliedVersions(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]Migration, len(m.migrations))
	copy(out, m.migrations)
	for i := range out {
		if at, ok := applied[out[i].Version]; ok {
			out[i].IsApplied = true
			out[i].AppliedAt = at
		}
	}
	return out, nil
}

// appliedVersions ensures the tracking table exists and reads it.
func (m *Migrator) appliedVersions(ctx context.Context) (map[int]time.Time, error) {
	_, err := m.conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS `+migrationTable+` (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrations table: %w", err)
	}

	rows, err := m.conn.Query(ctx,
		"SELECT version, applied_at FROM "+migrationTable+" ORDER BY version")
	if err != nil {
		return nil, fmt.Errorf("failed to query applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]time.Time)
	for rows.Next() {
		var version int
		var at time.Time
		if err := rows.Scan(&version, &at); err != nil {
			return nil, fmt.Errorf("failed to scan migration row: %w", err)
		}
		applied[version] = at
	}
	return applied, rows.Err()
}
