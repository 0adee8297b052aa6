package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/regen-hub/regenmon-hub/internal/domain/creature"
	"github.com/regen-hub/regenmon-hub/internal/domain/ledger"
)

// ══════════════════════════════════════════════════════════════════════════════
// AUDIT LEDGER JOB
// ══════════════════════════════════════════════════════════════════════════════

// AuditLedgerJob verifies the ledger invariant: every creature's stored
// balance must equal the sum of its transaction amounts. The job only
// reports drift - it never writes corrections, those go through the admin
// adjustment path so they leave a ledger row.
type AuditLedgerJob struct {
	creatureRepo creature.Repository
	ledgerRepo   ledger.Repository
	logger       *slog.Logger

	config AuditLedgerConfig

	lastAuditStats atomic.Value // *AuditStats
}

// AuditLedgerConfig contains configuration for the ledger audit.
type AuditLedgerConfig struct {
	// BatchSize is how many creatures are loaded per page.
	BatchSize int

	// Timeout is the maximum duration for one audit run.
	Timeout time.Duration
}

// DefaultAuditLedgerConfig returns sensible defaults.
func DefaultAuditLedgerConfig() AuditLedgerConfig {
	return AuditLedgerConfig{
		BatchSize: 200,
		Timeout:   5 * time.Minute,
	}
}

// BalanceDrift describes one creature whose balance disagrees with the
// ledger.
type BalanceDrift struct {
	CreatureID    string
	StoredBalance int64
	LedgerSum     int64
}

// Delta returns stored minus ledger.
func (d BalanceDrift) Delta() int64 {
	return d.StoredBalance - d.LedgerSum
}

// AuditStats contains statistics from an audit run.
type AuditStats struct {
	StartedAt   time.Time
	CompletedAt time.Time
	Duration    time.Duration
	Checked     int
	Drifts      []BalanceDrift
	Errors      []error
}

// NewAuditLedgerJob creates a new ledger audit job.
func NewAuditLedgerJob(
	creatureRepo creature.Repository,
	ledgerRepo ledger.Repository,
	logger *slog.Logger,
	config AuditLedgerConfig,
) *AuditLedgerJob {
	if logger == nil {
		logger = slog.Default()
	}

	return &AuditLedgerJob{
		creatureRepo: creatureRepo,
		ledgerRepo:   ledgerRepo,
		logger:       logger,
		config:       config,
	}
}

// Name returns the job name.
func (j *AuditLedgerJob) Name() string {
	return "audit_ledger"
}

// Description returns a human-readable description.
func (j *AuditLedgerJob) Description() string {
	return "Compares stored balances against ledger sums and reports drift"
}

// Run executes the audit.
func (j *AuditLedgerJob) Run(ctx context.Context) error {
	startedAt := time.Now()
	stats := &AuditStats{
		StartedAt: startedAt,
		Drifts:    make([]BalanceDrift, 0),
		Errors:    make([]error, 0),
	}

	j.logger.Info("starting audit_ledger job")

	if j.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.config.Timeout)
		defer cancel()
	}

	batchSize := j.config.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultAuditLedgerConfig().BatchSize
	}

	for offset := 0; ; offset += batchSize {
		opts := creature.DefaultListOptions().
			WithOffset(offset).
			WithLimit(batchSize).
			WithInactive()

		batch, err := j.creatureRepo.GetAll(ctx, opts)
		if err != nil {
			return fmt.Errorf("failed to load creatures: %w", err)
		}

		for _, c := range batch {
			j.check(ctx, c, stats)
		}

		if len(batch) < batchSize {
			break
		}
	}

	stats.CompletedAt = time.Now()
	stats.Duration = stats.CompletedAt.Sub(startedAt)
	j.lastAuditStats.Store(stats)

	j.logger.Info("audit_ledger completed",
		"checked", stats.Checked,
		"drifts", len(stats.Drifts),
		"duration", stats.Duration,
		"errors", len(stats.Errors),
	)

	return nil
}

// LastStats returns the stats of the most recent run, or nil.
func (j *AuditLedgerJob) LastStats() *AuditStats {
	stats, _ := j.lastAuditStats.Load().(*AuditStats)
	return stats
}

// check compares one creature's balance against its ledger sum.
func (j *AuditLedgerJob) check(ctx context.Context, c *creature.Creature, stats *AuditStats) {
	sum, err := j.ledgerRepo.SumByCreature(ctx, c.ID)
	if err != nil {
		stats.Errors = append(stats.Errors, fmt.Errorf("sum for %s: %w", c.ID, err))
		return
	}

	stats.Checked++
	if sum == c.Balance {
		return
	}

	drift := BalanceDrift{
		CreatureID:    c.ID,
		StoredBalance: c.Balance,
		LedgerSum:     sum,
	}
	stats.Drifts = append(stats.Drifts, drift)

	j.logger.Error("balance drift detected",
		"creature_id", c.ID,
		"stored", drift.StoredBalance,
		"ledger", drift.LedgerSum,
		"delta", drift.Delta(),
	)
}
