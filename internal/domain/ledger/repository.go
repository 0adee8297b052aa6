package ledger

import (
	"context"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACE
// The ledger is append-only: there is no update and no delete.
// Implementations live in infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Repository stores and reads transactions.
type Repository interface {
	// ─────────────────────────────────────────────────────────────────────────
	// Writes
	// ─────────────────────────────────────────────────────────────────────────

	// Append writes one validated transaction.
	Append(ctx context.Context, tx *Transaction) error

	// AppendPair writes both sides of a transfer. Implementations must make
	// this atomic: either both rows land or neither does.
	AppendPair(ctx context.Context, debit, credit *Transaction) error

	// ─────────────────────────────────────────────────────────────────────────
	// Reads
	// ─────────────────────────────────────────────────────────────────────────

	// GetByID returns a transaction by ID.
	// Returns ErrNotFound when the row does not exist.
	GetByID(ctx context.Context, id string) (*Transaction, error)

	// GetByCreature returns the history of a creature, newest first.
	GetByCreature(ctx context.Context, creatureID string, filter HistoryFilter) ([]*Transaction, error)

	// CountByCreature returns the number of rows for a creature under the
	// same filter, for pagination totals.
	CountByCreature(ctx context.Context, creatureID string, filter HistoryFilter) (int, error)

	// GetRecent returns the latest rows hub-wide, newest first. Admin use.
	GetRecent(ctx context.Context, filter HistoryFilter) ([]*Transaction, error)

	// ─────────────────────────────────────────────────────────────────────────
	// Integrity & Aggregates
	// ─────────────────────────────────────────────────────────────────────────

	// SumByCreature returns the sum of all amounts for a creature. The audit
	// job compares it against the stored balance.
	SumByCreature(ctx context.Context, creatureID string) (int64, error)

	// TotalsByType returns the summed amounts per transaction type in a
	// window. Feeds the hub economy stats.
	TotalsByType(ctx context.Context, from, to time.Time) (map[TransactionType]int64, error)

	// CountInWindow returns the number of rows hub-wide in a window. Feeds
	// the hub economy stats.
	CountInWindow(ctx context.Context, from, to time.Time) (int, error)
}

// HistoryFilter narrows and paginates history reads.
type HistoryFilter struct {
	// Type keeps only one transaction kind when set.
	Type TransactionType

	// From / To bound CreatedAt when non-zero.
	From time.Time
	To   time.Time

	// Offset / Limit paginate.
	Offset int
	Limit  int
}

// DefaultHistoryFilter returns the default history parameters.
func DefaultHistoryFilter() HistoryFilter {
	return HistoryFilter{Limit: 50}
}

// WithType keeps only one transaction kind.
func (f HistoryFilter) WithType(t TransactionType) HistoryFilter {
	f.Type = t
	return f
}

// WithWindow bounds the filter to a time range.
func (f HistoryFilter) WithWindow(from, to time.Time) HistoryFilter {
	f.From = from
	f.To = to
	return f
}

// WithPage sets offset and limit.
func (f HistoryFilter) WithPage(offset, limit int) HistoryFilter {
	f.Offset = offset
	f.Limit = limit
	return f
}
