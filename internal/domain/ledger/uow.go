package ledger

import (
	"context"

	"github.com/regen-hub/regenmon-hub/internal/domain/creature"
	"github.com/regen-hub/regenmon-hub/internal/domain/social"
	"github.com/regen-hub/regenmon-hub/internal/domain/training"
)

// ══════════════════════════════════════════════════════════════════════════════
// UNIT OF WORK (transactional writes)
// Every operation that moves tokens must update the creature row and append
// the ledger row in one transaction. Creature reads inside a unit of work
// take row locks; two creatures are always locked in ascending ID order.
// ══════════════════════════════════════════════════════════════════════════════

// UnitOfWork groups repositories under one transaction.
type UnitOfWork interface {
	// Creatures returns the creature repository bound to the transaction.
	// GetByID locks the row for the duration of the transaction.
	Creatures() creature.Repository

	// Ledger returns the transaction-bound ledger repository.
	Ledger() Repository

	// Snapshots returns the transaction-bound snapshot repository.
	Snapshots() creature.SnapshotRepository

	// Trainings returns the transaction-bound training repository.
	Trainings() training.Repository

	// Interactions returns the transaction-bound activity stream.
	Interactions() social.InteractionRepository

	// Messages returns the transaction-bound message repository.
	Messages() social.MessageRepository

	// Visits returns the transaction-bound visit repository.
	Visits() social.VisitRepository

	// Commit commits the transaction.
	Commit(ctx context.Context) error

	// Rollback aborts the transaction. Safe to call after Commit.
	Rollback(ctx context.Context) error
}

// UnitOfWorkFactory starts units of work.
type UnitOfWorkFactory interface {
	// Begin opens a new transaction.
	Begin(ctx context.Context) (UnitOfWork, error)
}
