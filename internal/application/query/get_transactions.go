package query

import (
	"context"
	"errors"
	"time"

	"github.com/regen-hub/regenmon-hub/internal/domain/ledger"
	"github.com/regen-hub/regenmon-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET TRANSACTIONS QUERY
// Returns a creature's ledger history, newest first, with optional type and
// time-window filters. The ledger is the audit trail: what this query shows
// always sums to the creature's balance.
// ══════════════════════════════════════════════════════════════════════════════

// GetTransactionsQuery contains the history parameters.
type GetTransactionsQuery struct {
	// CreatureID - whose history. Empty means hub-wide (admin dashboard).
	CreatureID string

	// Type keeps only one transaction kind when set.
	Type string

	// From / To bound the window when non-zero.
	From time.Time
	To   time.Time

	// Offset / Limit paginate (default limit 50, max 200).
	Offset int
	Limit  int
}

// Validate normalizes the parameters.
func (q *GetTransactionsQuery) Validate() error {
	if q.Type != "" && !ledger.TransactionType(q.Type).IsValid() {
		return errors.New("unknown transaction type")
	}
	if q.Offset < 0 || q.Limit < 0 {
		return errors.New("offset and limit cannot be negative")
	}
	if q.Limit == 0 {
		q.Limit = 50
	}
	if q.Limit > 200 {
		q.Limit = 200
	}
	return nil
}

// TransactionDTO is one ledger row in the response.
type TransactionDTO struct {
	// ID - the transaction.
	ID string `json:"id"`

	// Type - reward, feed, revive, evolution, gift, admin_adjustment.
	Type string `json:"type"`

	// Amount - signed delta.
	Amount int64 `json:"amount"`

	// BalanceAfter - balance once this row applied.
	BalanceAfter int64 `json:"balance_after"`

	// Reason - human-readable explanation.
	Reason string `json:"reason"`

	// CounterpartID - the other creature for gifts and assisted feeds.
	CounterpartID string `json:"counterpart_id,omitempty"`

	// Direction - "sent" / "received" for gifts.
	Direction string `json:"direction,omitempty"`

	// CreatedAt - when the row was written.
	CreatedAt time.Time `json:"created_at"`
}

// GetTransactionsResult contains one page of history.
type GetTransactionsResult struct {
	// Transactions - the rows, newest first.
	Transactions []TransactionDTO `json:"transactions"`

	// TotalCount - rows matching the filter.
	TotalCount int `json:"total_count"`

	// Balance - current balance (the running sum of all rows).
	Balance int64 `json:"balance"`

	// HasMore - whether another page follows.
	HasMore bool `json:"has_more"`
}

// GetTransactionsHandler handles the GetTransactionsQuery.
type GetTransactionsHandler struct {
	ledgerRepo ledger.Repository
}

// NewGetTransactionsHandler creates a new GetTransactionsHandler.
func NewGetTransactionsHandler(ledgerRepo ledger.Repository) *GetTransactionsHandler {
	return &GetTransactionsHandler{ledgerRepo: ledgerRepo}
}

// Handle executes the query.
func (h *GetTransactionsHandler) Handle(ctx context.Context, query GetTransactionsQuery) (*GetTransactionsResult, error) {
	if err := query.Validate(); err != nil {
		return nil, shared.NewDomainError("query", "GetTransactions", shared.ErrValidation, err.Error())
	}

	filter := ledger.DefaultHistoryFilter().
		WithPage(query.Offset, query.Limit).
		WithWindow(query.From, query.To)
	if query.Type != "" {
		filter = filter.WithType(ledger.TransactionType(query.Type))
	}

	if query.CreatureID == "" {
		return h.handleHubWide(ctx, query, filter)
	}

	rows, err := h.ledgerRepo.GetByCreature(ctx, query.CreatureID, filter)
	if err != nil {
		return nil, shared.WrapError("query", "GetTransactions", shared.ErrServiceUnavailable, "read history", err)
	}

	total, err := h.ledgerRepo.CountByCreature(ctx, query.CreatureID, filter)
	if err != nil {
		total = len(rows)
	}

	balance, err := h.ledgerRepo.SumByCreature(ctx, query.CreatureID)
	if err != nil {
		balance = 0
	}

	dtos := make([]TransactionDTO, len(rows))
	for i, tx := range rows {
		dtos[i] = toTransactionDTO(tx)
	}

	return &GetTransactionsResult{
		Transactions: dtos,
		TotalCount:   total,
		Balance:      balance,
		HasMore:      query.Offset+len(rows) < total,
	}, nil
}

// handleHubWide serves the admin view: the latest rows across all creatures.
// Balance is meaningless without a creature, so it stays zero.
func (h *GetTransactionsHandler) handleHubWide(ctx context.Context, query GetTransactionsQuery, filter ledger.HistoryFilter) (*GetTransactionsResult, error) {
	rows, err := h.ledgerRepo.GetRecent(ctx, filter)
	if err != nil {
		return nil, shared.WrapError("query", "GetTransactions", shared.ErrServiceUnavailable, "read recent", err)
	}

	dtos := make([]TransactionDTO, len(rows))
	for i, tx := range rows {
		dtos[i] = toTransactionDTO(tx)
	}

	return &GetTransactionsResult{
		Transactions: dtos,
		TotalCount:   query.Offset + len(rows),
		HasMore:      len(rows) == query.Limit,
	}, nil
}

// toTransactionDTO converts a ledger row to the response row.
func toTransactionDTO(tx *ledger.Transaction) TransactionDTO {
	return TransactionDTO{
		ID:            tx.ID,
		Type:          string(tx.Type),
		Amount:        tx.Amount,
		BalanceAfter:  tx.BalanceAfter,
		Reason:        tx.Reason,
		CounterpartID: tx.Metadata.CounterpartID,
		Direction:     string(tx.Metadata.Direction),
		CreatedAt:     tx.CreatedAt,
	}
}
