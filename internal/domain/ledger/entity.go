// Package ledger contains the $FRUTA token ledger domain model: immutable,
// append-only transactions and the balance invariants they protect.
// No external dependencies here.
package ledger

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// TRANSACTION TYPE
// ══════════════════════════════════════════════════════════════════════════════

// TransactionType classifies a ledger entry.
type TransactionType string

const (
	// TypeReward - tokens earned through training or sync.
	TypeReward TransactionType = "reward"
	// TypeFeed - tokens spent on feeding a creature.
	TypeFeed TransactionType = "feed"
	// TypeRevive - tokens spent on bringing a creature back.
	TypeRevive TransactionType = "revive"
	// TypeEvolution - the one-time stage-up bonus.
	TypeEvolution TransactionType = "evolution"
	// TypeGift - a transfer between two creatures (one row per side).
	TypeGift TransactionType = "gift"
	// TypeAdminAdjustment - a manual correction by an operator.
	TypeAdminAdjustment TransactionType = "admin_adjustment"
)

// IsValid checks that the type is one of the defined kinds.
func (t TransactionType) IsValid() bool {
	switch t {
	case TypeReward, TypeFeed, TypeRevive, TypeEvolution, TypeGift, TypeAdminAdjustment:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (t TransactionType) String() string {
	return string(t)
}

// ══════════════════════════════════════════════════════════════════════════════
// TRANSFER DIRECTION
// ══════════════════════════════════════════════════════════════════════════════

// TransferDirection marks which side of a gift a row records.
type TransferDirection string

const (
	DirectionSent     TransferDirection = "sent"
	DirectionReceived TransferDirection = "received"
)

// IsValid checks the direction value.
func (d TransferDirection) IsValid() bool {
	return d == DirectionSent || d == DirectionReceived
}

// ══════════════════════════════════════════════════════════════════════════════
// METADATA
// Closed, per-type validated structure. Not a free-form bag: each
// transaction type allows a known subset of fields.
// ══════════════════════════════════════════════════════════════════════════════

// Metadata carries the structured context of a transaction.
type Metadata struct {
	// Source names what produced a reward: "sync", "training", "starter".
	Source string `json:"source,omitempty"`

	// Score is the AI evaluation score behind a training reward.
	Score int `json:"score,omitempty"`

	// PointsGained is the points delta behind a sync reward.
	PointsGained int `json:"points_gained,omitempty"`

	// CounterpartID is the other creature of a gift or assisted feed.
	CounterpartID string `json:"counterpart_id,omitempty"`

	// Direction marks the side of a transfer this row records.
	Direction TransferDirection `json:"direction,omitempty"`

	// ActorID identifies who triggered the entry when it was not the
	// creature's owner (admin login, feeding player).
	ActorID string `json:"actor_id,omitempty"`

	// Stage is the stage reached by an evolution bonus.
	Stage int `json:"stage,omitempty"`
}

// Validate checks the metadata against the rules of a transaction type.
func (m Metadata) Validate(t TransactionType) error {
	switch t {
	case TypeGift:
		if m.CounterpartID == "" {
			return ErrMissingCounterpart
		}
		if !m.Direction.IsValid() {
			return ErrInvalidDirection
		}
	case TypeAdminAdjustment:
		if m.ActorID == "" {
			return ErrMissingActor
		}
	case TypeEvolution:
		if m.Stage < 2 || m.Stage > 3 {
			return ErrInvalidStageMeta
		}
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrInvalidAmount - the amount must be positive for awards and spends.
	ErrInvalidAmount = errors.New("invalid amount: must be positive")

	// ErrInsufficientBalance - a debit would push the balance below zero.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrBalanceMismatch - balance_after does not equal balance_before + amount.
	ErrBalanceMismatch = errors.New("balance mismatch: after != before + amount")

	// ErrInvalidType - unknown transaction type.
	ErrInvalidType = errors.New("invalid transaction type")

	// ErrMissingReason - admin adjustments require a reason.
	ErrMissingReason = errors.New("adjustment reason is required")

	// ErrReasonTooLong - the reason exceeds the allowed length.
	ErrReasonTooLong = errors.New("adjustment reason must be at most 500 chars")

	// ErrMissingActor - admin adjustments must name the operator.
	ErrMissingActor = errors.New("adjustment actor is required")

	// ErrMissingCounterpart - gift rows must reference the other creature.
	ErrMissingCounterpart = errors.New("gift requires a counterpart creature")

	// ErrInvalidDirection - gift rows must be marked sent or received.
	ErrInvalidDirection = errors.New("gift requires a transfer direction")

	// ErrInvalidStageMeta - evolution bonuses must name the reached stage.
	ErrInvalidStageMeta = errors.New("evolution bonus requires the reached stage")

	// ErrSelfTransfer - a creature cannot gift tokens to itself.
	ErrSelfTransfer = errors.New("cannot transfer tokens to self")

	// ErrNotFound - the transaction does not exist.
	ErrNotFound = errors.New("transaction not found")
)

// MaxReasonLength bounds the admin adjustment reason.
const MaxReasonLength = 500

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: TRANSACTION
// ══════════════════════════════════════════════════════════════════════════════

// Transaction is one immutable row of the audit trail. Rows are never
// mutated or deleted; the sum of all amounts for a creature equals its
// current balance.
type Transaction struct {
	// ID is the unique transaction identifier (UUID in string form).
	ID string

	// CreatureID is the creature whose balance this row changes.
	CreatureID string

	// Type classifies the entry.
	Type TransactionType

	// Amount is the signed balance delta. Positive credits, negative debits.
	Amount int64

	// BalanceBefore / BalanceAfter snapshot the balance around the change.
	// Invariant: BalanceAfter == BalanceBefore + Amount and BalanceAfter >= 0.
	BalanceBefore int64
	BalanceAfter  int64

	// Reason is the human-readable explanation.
	Reason string

	// Metadata carries the structured per-type context.
	Metadata Metadata

	// CreatedAt is when the row was written.
	CreatedAt time.Time
}

// Validate checks every row invariant.
func (tx *Transaction) Validate() error {
	if tx.ID == "" {
		return errors.New("transaction id is required")
	}
	if tx.CreatureID == "" {
		return errors.New("transaction creature id is required")
	}
	if !tx.Type.IsValid() {
		return ErrInvalidType
	}
	if tx.BalanceAfter != tx.BalanceBefore+tx.Amount {
		return ErrBalanceMismatch
	}
	if tx.BalanceAfter < 0 {
		return ErrInsufficientBalance
	}
	return tx.Metadata.Validate(tx.Type)
}

// String returns a string representation for logging.
func (tx *Transaction) String() string {
	return fmt.Sprintf(
		"Transaction{ID: %s, Creature: %s, Type: %s, Amount: %+d, Balance: %d->%d}",
		tx.ID, tx.CreatureID, tx.Type, tx.Amount, tx.BalanceBefore, tx.BalanceAfter,
	)
}

// ══════════════════════════════════════════════════════════════════════════════
// FACTORIES
// All balance arithmetic funnels through these builders so the invariants
// cannot be bypassed.
// ══════════════════════════════════════════════════════════════════════════════

// NewAward builds a credit entry. Awards always succeed for positive amounts.
func NewAward(id, creatureID string, amount, balanceBefore int64, txType TransactionType, reason string, meta Metadata) (*Transaction, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	tx := &Transaction{
		ID:            id,
		CreatureID:    creatureID,
		Type:          txType,
		Amount:        amount,
		BalanceBefore: balanceBefore,
		BalanceAfter:  balanceBefore + amount,
		Reason:        reason,
		Metadata:      meta,
		CreatedAt:     time.Now().UTC(),
	}

	if err := tx.Validate(); err != nil {
		return nil, err
	}
	return tx, nil
}

// NewSpend builds a debit entry. Fails with ErrInsufficientBalance when the
// balance cannot cover the amount - the caller must not write anything in
// that case.
func NewSpend(id, creatureID string, amount, balanceBefore int64, txType TransactionType, reason string, meta Metadata) (*Transaction, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if balanceBefore < amount {
		return nil, ErrInsufficientBalance
	}

	tx := &Transaction{
		ID:            id,
		CreatureID:    creatureID,
		Type:          txType,
		Amount:        -amount,
		BalanceBefore: balanceBefore,
		BalanceAfter:  balanceBefore - amount,
		Reason:        reason,
		Metadata:      meta,
		CreatedAt:     time.Now().UTC(),
	}

	if err := tx.Validate(); err != nil {
		return nil, err
	}
	return tx, nil
}

// NewCounterpart builds the zero-amount row recorded on the other side
// of an assisted interaction. The fed creature's history shows who paid
// for the meal without its own balance moving.
func NewCounterpart(id, creatureID string, balance int64, txType TransactionType, reason string, meta Metadata) (*Transaction, error) {
	tx := &Transaction{
		ID:            id,
		CreatureID:    creatureID,
		Type:          txType,
		Amount:        0,
		BalanceBefore: balance,
		BalanceAfter:  balance,
		Reason:        reason,
		Metadata:      meta,
		CreatedAt:     time.Now().UTC(),
	}

	if err := tx.Validate(); err != nil {
		return nil, err
	}
	return tx, nil
}

// NewTransferPair builds the two rows of a gift: a debit on the sender and
// a credit on the receiver, cross-referencing each other. Both rows must be
// written atomically or not at all.
func NewTransferPair(debitID, creditID, fromID, toID string, amount, fromBalance, toBalance int64, reason string) (debit, credit *Transaction, err error) {
	if fromID == toID {
		return nil, nil, ErrSelfTransfer
	}

	debit, err = NewSpend(debitID, fromID, amount, fromBalance, TypeGift, reason, Metadata{
		CounterpartID: toID,
		Direction:     DirectionSent,
	})
	if err != nil {
		return nil, nil, err
	}

	credit, err = NewAward(creditID, toID, amount, toBalance, TypeGift, reason, Metadata{
		CounterpartID: fromID,
		Direction:     DirectionReceived,
	})
	if err != nil {
		return nil, nil, err
	}

	return debit, credit, nil
}

// NewAdminAdjustment builds a signed manual correction. The reason is
// mandatory and bounded; the adjustment may not push the balance negative.
func NewAdminAdjustment(id, creatureID string, amount, balanceBefore int64, reason, actorID string) (*Transaction, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrMissingReason
	}
	if len(reason) > MaxReasonLength {
		return nil, ErrReasonTooLong
	}
	if amount == 0 {
		return nil, ErrInvalidAmount
	}
	if balanceBefore+amount < 0 {
		return nil, ErrInsufficientBalance
	}

	tx := &Transaction{
		ID:            id,
		CreatureID:    creatureID,
		Type:          TypeAdminAdjustment,
		Amount:        amount,
		BalanceBefore: balanceBefore,
		BalanceAfter:  balanceBefore + amount,
		Reason:        reason,
		Metadata:      Metadata{ActorID: actorID},
		CreatedAt:     time.Now().UTC(),
	}

	if err := tx.Validate(); err != nil {
		return nil, err
	}
	return tx, nil
}
