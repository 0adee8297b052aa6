package postgres

import (
	"context"
	"fmt"
	"sync"

	"github.com/regen-hub/regenmon-hub/internal/domain/creature"
	"github.com/regen-hub/regenmon-hub/internal/domain/ledger"
	"github.com/regen-hub/regenmon-hub/internal/domain/social"
	"github.com/regen-hub/regenmon-hub/internal/domain/training"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// UNIT OF WORK IMPLEMENTATION
// One pgx transaction per command. Creature reads inside the unit of work
// take SELECT ... FOR UPDATE row locks; the command layer is responsible for
// locking two creatures in ascending ID order so concurrent gifts cannot
// deadlock.
// ══════════════════════════════════════════════════════════════════════════════

// UnitOfWork implements ledger.UnitOfWork over a single pgx transaction.
type UnitOfWork struct {
	tx   pgx.Tx
	done bool
	mu   sync.Mutex

	creatures    *CreatureRepository
	ledgerRepo   *LedgerRepository
	snapshots    *SnapshotRepository
	trainings    *TrainingRepository
	interactions *InteractionRepository
	messages     *MessageRepository
	visits       *VisitRepository
}

// newUnitOfWork binds all repositories to one transaction.
func newUnitOfWork(tx pgx.Tx) *UnitOfWork {
	return &UnitOfWork{
		tx:           tx,
		creatures:    newTxCreatureRepository(tx),
		ledgerRepo:   newTxLedgerRepository(tx),
		snapshots:    newTxSnapshotRepository(tx),
		trainings:    newTxTrainingRepository(tx),
		interactions: newTxInteractionRepository(tx),
		messages:     newTxMessageRepository(tx),
		visits:       newTxVisitRepository(tx),
	}
}

// Creatures returns the creature repository bound to the transaction.
func (u *UnitOfWork) Creatures() creature.Repository {
	return u.creatures
}

// Ledger returns the transaction-bound ledger repository.
func (u *UnitOfWork) Ledger() ledger.Repository {
	return u.ledgerRepo
}

// Snapshots returns the transaction-bound snapshot repository.
func (u *UnitOfWork) Snapshots() creature.SnapshotRepository {
	return u.snapshots
}

// Trainings returns the transaction-bound training repository.
func (u *UnitOfWork) Trainings() training.Repository {
	return u.trainings
}

// Interactions returns the transaction-bound activity stream.
func (u *UnitOfWork) Interactions() social.InteractionRepository {
	return u.interactions
}

// Messages returns the transaction-bound message repository.
func (u *UnitOfWork) Messages() social.MessageRepository {
	return u.messages
}

// Visits returns the transaction-bound visit repository.
func (u *UnitOfWork) Visits() social.VisitRepository {
	return u.visits
}

// Commit commits the transaction.
func (u *UnitOfWork) Commit(ctx context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.done {
		return fmt.Errorf("%w: unit of work already finished", ErrTransactionFailed)
	}
	u.done = true

	if err := u.tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: commit: %v", ErrTransactionFailed, err)
	}
	return nil
}

// Rollback aborts the transaction. Safe to call after Commit: the deferred
// rollback in every handler becomes a no-op then.
func (u *UnitOfWork) Rollback(ctx context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.done {
		return nil
	}
	u.done = true

	if err := u.tx.Rollback(ctx); err != nil {
		return fmt.Errorf("%w: rollback: %v", ErrTransactionFailed, err)
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// FACTORY
// ══════════════════════════════════════════════════════════════════════════════

// UnitOfWorkFactory implements ledger.UnitOfWorkFactory over a connection pool.
type UnitOfWorkFactory struct {
	conn *Connection
}

// NewUnitOfWorkFactory creates a new UnitOfWorkFactory.
func NewUnitOfWorkFactory(conn *Connection) *UnitOfWorkFactory {
	return &UnitOfWorkFactory{conn: conn}
}

// Begin opens a new transaction.
func (f *UnitOfWorkFactory) Begin(ctx context.Context) (ledger.UnitOfWork, error) {
	tx, err := f.conn.BeginTx(ctx, DefaultTxOptions())
	if err != nil {
		return nil, err
	}
	return newUnitOfWork(tx), nil
}
