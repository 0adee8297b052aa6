package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/regen-hub/regenmon-hub/internal/domain/ledger"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEDGER REPOSITORY IMPLEMENTATION
// Append-only: rows are inserted, never updated or deleted. The metadata
// column is JSONB but carries the closed ledger.Metadata structure only.
// ══════════════════════════════════════════════════════════════════════════════

const transactionColumns = `id, creature_id, type, amount, balance_before, balance_after,
	   reason, metadata, created_at`

// LedgerRepository implements ledger.Repository for PostgreSQL.
type LedgerRepository struct {
	db Querier
}

// NewLedgerRepository creates a pool-backed LedgerRepository.
func NewLedgerRepository(conn *Connection) *LedgerRepository {
	return &LedgerRepository{db: conn}
}

// newTxLedgerRepository binds the repository to a transaction.
func newTxLedgerRepository(tx pgx.Tx) *LedgerRepository {
	return &LedgerRepository{db: tx}
}

// ─────────────────────────────────────────────────────────────────────────────
// Writes
// ─────────────────────────────────────────────────────────────────────────────

// Append writes one validated transaction.
func (r *LedgerRepository) Append(ctx context.Context, tx *ledger.Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}

	metaJSON, err := json.Marshal(tx.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal transaction metadata: %w", err)
	}

	query := `
		INSERT INTO transactions (
			id, creature_id, type, amount, balance_before, balance_after,
			reason, metadata, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err = r.db.Exec(ctx, query,
		tx.ID,
		tx.CreatureID,
		string(tx.Type),
		tx.Amount,
		tx.BalanceBefore,
		tx.BalanceAfter,
		tx.Reason,
		metaJSON,
		tx.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append transaction: %w", err)
	}

	return nil
}

// AppendPair writes both sides of a transfer. Callers invoke this inside a
// unit of work, so the two inserts share one database transaction.
func (r *LedgerRepository) AppendPair(ctx context.Context, debit, credit *ledger.Transaction) error {
	if err := r.Append(ctx, debit); err != nil {
		return err
	}
	return r.Append(ctx, credit)
}

// ─────────────────────────────────────────────────────────────────────────────
// Reads
// ─────────────────────────────────────────────────────────────────────────────

// GetByID returns a transaction by ID.
func (r *LedgerRepository) GetByID(ctx context.Context, id string) (*ledger.Transaction, error) {
	query := fmt.Sprintf("SELECT %s FROM transactions WHERE id = $1", transactionColumns)

	row := r.db.QueryRow(ctx, query, id)
	return scanTransaction(row)
}

// GetByCreature returns the history of a creature, newest first.
func (r *LedgerRepository) GetByCreature(ctx context.Context, creatureID string, filter ledger.HistoryFilter) ([]*ledger.Transaction, error) {
	conditions := []string{"creature_id = $1"}
	args := []interface{}{creatureID}
	conditions, args = appendFilterConditions(conditions, args, filter)

	query := fmt.Sprintf(
		"SELECT %s FROM transactions WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		transactionColumns, strings.Join(conditions, " AND "), len(args)+1, len(args)+2,
	)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// CountByCreature returns the number of rows for a creature under the filter.
func (r *LedgerRepository) CountByCreature(ctx context.Context, creatureID string, filter ledger.HistoryFilter) (int, error) {
	conditions := []string{"creature_id = $1"}
	args := []interface{}{creatureID}
	conditions, args = appendFilterConditions(conditions, args, filter)

	query := fmt.Sprintf(
		"SELECT COUNT(*) FROM transactions WHERE %s",
		strings.Join(conditions, " AND "),
	)

	var count int
	if err := r.db.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return count, nil
}

// GetRecent returns the latest rows hub-wide, newest first.
func (r *LedgerRepository) GetRecent(ctx context.Context, filter ledger.HistoryFilter) ([]*ledger.Transaction, error) {
	conditions := []string{"TRUE"}
	args := []interface{}{}
	conditions, args = appendFilterConditions(conditions, args, filter)

	query := fmt.Sprintf(
		"SELECT %s FROM transactions WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		transactionColumns, strings.Join(conditions, " AND "), len(args)+1, len(args)+2,
	)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent transactions: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// ─────────────────────────────────────────────────────────────────────────────
// Integrity & Aggregates
// ─────────────────────────────────────────────────────────────────────────────

// SumByCreature returns the sum of all amounts for a creature.
func (r *LedgerRepository) SumByCreature(ctx context.Context, creatureID string) (int64, error) {
	var sum int64
	err := r.db.QueryRow(ctx,
		"SELECT COALESCE(SUM(amount), 0) FROM transactions WHERE creature_id = $1",
		creatureID,
	).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("failed to sum transactions: %w", err)
	}
	return sum, nil
}

// TotalsByType returns the summed amounts per transaction type in a window.
func (r *LedgerRepository) TotalsByType(ctx context.Context, from, to time.Time) (map[ledger.TransactionType]int64, error) {
	query := `
		SELECT type, COALESCE(SUM(amount), 0)
		FROM transactions
		WHERE created_at >= $1 AND created_at <= $2
		GROUP BY type
	`

	rows, err := r.db.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to total transactions by type: %w", err)
	}
	defer rows.Close()

	totals := make(map[ledger.TransactionType]int64)
	for rows.Next() {
		var typ string
		var sum int64
		if err := rows.Scan(&typ, &sum); err != nil {
			return nil, fmt.Errorf("failed to scan totals row: %w", err)
		}
		totals[ledger.TransactionType(typ)] = sum
	}

	return totals, rows.Err()
}

// CountInWindow returns the number of rows hub-wide in a window.
func (r *LedgerRepository) CountInWindow(ctx context.Context, from, to time.Time) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		"SELECT COUNT(*) FROM transactions WHERE created_at >= $1 AND created_at <= $2",
		from, to,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count transactions in window: %w", err)
	}
	return count, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPER METHODS
// ══════════════════════════════════════════════════════════════════════════════

// appendFilterConditions extends the WHERE clause from a history filter.
func appendFilterConditions(conditions []string, args []interface{}, filter ledger.HistoryFilter) ([]string, []interface{}) {
	if filter.Type != "" {
		args = append(args, string(filter.Type))
		conditions = append(conditions, fmt.Sprintf("type = $%d", len(args)))
	}
	if !filter.From.IsZero() {
		args = append(args, filter.From)
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To)
		conditions = append(conditions, fmt.Sprintf("created_at <= $%d", len(args)))
	}
	return conditions, args
}

// scanTransaction scans a single transaction from a row.
func scanTransaction(row pgx.Row) (*ledger.Transaction, error) {
	var tx ledger.Transaction
	var typ string
	var metaJSON []byte

	err := row.Scan(
		&tx.ID,
		&tx.CreatureID,
		&typ,
		&tx.Amount,
		&tx.BalanceBefore,
		&tx.BalanceAfter,
		&tx.Reason,
		&metaJSON,
		&tx.CreatedAt,
	)

	if IsNoRows(err) {
		return nil, ledger.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan transaction: %w", err)
	}

	tx.Type = ledger.TransactionType(typ)
	if len(metaJSON) > 0 {
		_ = json.Unmarshal(metaJSON, &tx.Metadata)
	}

	return &tx, nil
}

// scanTransactions scans multiple transactions from rows.
func scanTransactions(rows pgx.Rows) ([]*ledger.Transaction, error) {
	var txs []*ledger.Transaction

	for rows.Next() {
		var tx ledger.Transaction
		var typ string
		var metaJSON []byte

		err := rows.Scan(
			&tx.ID,
			&tx.CreatureID,
			&typ,
			&tx.Amount,
			&tx.BalanceBefore,
			&tx.BalanceAfter,
			&tx.Reason,
			&metaJSON,
			&tx.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}

		tx.Type = ledger.TransactionType(typ)
		if len(metaJSON) > 0 {
			_ = json.Unmarshal(metaJSON, &tx.Metadata)
		}

		txs = append(txs, &tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return txs, nil
}
