package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/regen-hub/regenmon-hub/internal/domain/social"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// MESSAGE REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// MessageRepository implements social.MessageRepository for PostgreSQL.
type MessageRepository struct {
	db Querier
}

// NewMessageRepository creates a pool-backed MessageRepository.
func NewMessageRepository(conn *Connection) *MessageRepository {
	return &MessageRepository{db: conn}
}

// newTxMessageRepository binds the repository to a transaction.
func newTxMessageRepository(tx pgx.Tx) *MessageRepository {
	return &MessageRepository{db: tx}
}

// Save persists a new message.
func (r *MessageRepository) Save(ctx context.Context, msg *social.Message) error {
	query := `
		INSERT INTO messages (id, from_id, to_id, body, read_at, sent_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.Exec(ctx, query,
		msg.ID,
		msg.FromID.String(),
		msg.ToID.String(),
		string(msg.Body),
		msg.ReadAt,
		msg.SentAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save message: %w", err)
	}

	return nil
}

// GetByID returns a message by ID.
func (r *MessageRepository) GetByID(ctx context.Context, id string) (*social.Message, error) {
	query := `
		SELECT id, from_id, to_id, body, read_at, sent_at
		FROM messages
		WHERE id = $1
	`

	row := r.db.QueryRow(ctx, query, id)
	return scanMessage(row)
}

// GetInbox returns messages received by a creature, newest first.
func (r *MessageRepository) GetInbox(ctx context.Context, creatureID social.CreatureID, opts social.ListOptions) ([]*social.Message, error) {
	query := `
		SELECT id, from_id, to_id, body, read_at, sent_at
		FROM messages
		WHERE to_id = $1
	`
	if opts.UnreadOnly {
		query += " AND read_at IS NULL"
	}
	query += " ORDER BY sent_at DESC LIMIT $2 OFFSET $3"

	rows, err := r.db.Query(ctx, query, creatureID.String(), opts.Limit, opts.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query inbox: %w", err)
	}
	defer rows.Close()

	return scanMessages(rows)
}

// GetOutbox returns messages sent by a creature, newest first.
func (r *MessageRepository) GetOutbox(ctx context.Context, creatureID social.CreatureID, opts social.ListOptions) ([]*social.Message, error) {
	query := `
		SELECT id, from_id, to_id, body, read_at, sent_at
		FROM messages
		WHERE from_id = $1
		ORDER BY sent_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, creatureID.String(), opts.Limit, opts.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query outbox: %w", err)
	}
	defer rows.Close()

	return scanMessages(rows)
}

// CountUnread returns the unread message count of a creature.
func (r *MessageRepository) CountUnread(ctx context.Context, creatureID social.CreatureID) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		"SELECT COUNT(*) FROM messages WHERE to_id = $1 AND read_at IS NULL",
		creatureID.String(),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread messages: %w", err)
	}
	return count, nil
}

// MarkRead persists the read timestamp of a message. Idempotent: an already
// read message keeps its original timestamp.
func (r *MessageRepository) MarkRead(ctx context.Context, id string, readAt time.Time) error {
	query := `
		UPDATE messages
		SET read_at = COALESCE(read_at, $1)
		WHERE id = $2
	`

	result, err := r.db.Exec(ctx, query, readAt, id)
	if err != nil {
		return fmt.Errorf("failed to mark message read: %w", err)
	}

	if result.RowsAffected() == 0 {
		return social.ErrMessageNotFound
	}

	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// VISIT REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// VisitRepository implements social.VisitRepository for PostgreSQL.
type VisitRepository struct {
	db Querier
}

// NewVisitRepository creates a pool-backed VisitRepository.
func NewVisitRepository(conn *Connection) *VisitRepository {
	return &VisitRepository{db: conn}
}

// newTxVisitRepository binds the repository to a transaction.
func newTxVisitRepository(tx pgx.Tx) *VisitRepository {
	return &VisitRepository{db: tx}
}

// Save persists a visit.
func (r *VisitRepository) Save(ctx context.Context, visit *social.Visit) error {
	query := `
		INSERT INTO visits (id, visitor_id, host_id, visited_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.db.Exec(ctx, query,
		visit.ID,
		visit.VisitorID.String(),
		visit.HostID.String(),
		visit.VisitedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save visit: %w", err)
	}

	return nil
}

// GetRecentVisitors returns the latest visits to a creature's page, newest
// first.
func (r *VisitRepository) GetRecentVisitors(ctx context.Context, hostID social.CreatureID, limit int) ([]*social.Visit, error) {
	query := `
		SELECT id, visitor_id, host_id, visited_at
		FROM visits
		WHERE host_id = $1
		ORDER BY visited_at DESC
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, hostID.String(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query visits: %w", err)
	}
	defer rows.Close()

	var visits []*social.Visit
	for rows.Next() {
		var v social.Visit
		var visitorID, host string
		if err := rows.Scan(&v.ID, &visitorID, &host, &v.VisitedAt); err != nil {
			return nil, fmt.Errorf("failed to scan visit: %w", err)
		}
		v.VisitorID = social.CreatureID(visitorID)
		v.HostID = social.CreatureID(host)
		visits = append(visits, &v)
	}

	return visits, rows.Err()
}

// CountVisits returns the number of visits to a page in a window.
func (r *VisitRepository) CountVisits(ctx context.Context, hostID social.CreatureID, from, to time.Time) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		"SELECT COUNT(*) FROM visits WHERE host_id = $1 AND visited_at >= $2 AND visited_at <= $3",
		hostID.String(), from, to,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count visits: %w", err)
	}
	return count, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// INTERACTION REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// InteractionRepository implements social.InteractionRepository for PostgreSQL.
type InteractionRepository struct {
	db Querier
}

// NewInteractionRepository creates a pool-backed InteractionRepository.
func NewInteractionRepository(conn *Connection) *InteractionRepository {
	return &InteractionRepository{db: conn}
}

// newTxInteractionRepository binds the repository to a transaction.
func newTxInteractionRepository(tx pgx.Tx) *InteractionRepository {
	return &InteractionRepository{db: tx}
}

// Save appends an activity row.
func (r *InteractionRepository) Save(ctx context.Context, interaction *social.Interaction) error {
	query := `
		INSERT INTO interactions (id, kind, actor_id, target_id, amount, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.Exec(ctx, query,
		interaction.ID,
		interaction.Kind.String(),
		interaction.ActorID.String(),
		interaction.TargetID.String(),
		interaction.Amount,
		interaction.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save interaction: %w", err)
	}

	return nil
}

// GetActivity returns the interactions involving a creature, as actor or as
// target, newest first.
func (r *InteractionRepository) GetActivity(ctx context.Context, creatureID social.CreatureID, opts social.ListOptions) ([]*social.Interaction, error) {
	query := `
		SELECT id, kind, actor_id, target_id, amount, occurred_at
		FROM interactions
		WHERE actor_id = $1 OR target_id = $1
		ORDER BY occurred_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, creatureID.String(), opts.Limit, opts.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query activity: %w", err)
	}
	defer rows.Close()

	return scanInteractions(rows)
}

// CountSince counts the interactions of one kind performed by an actor since
// the cutoff.
func (r *InteractionRepository) CountSince(ctx context.Context, actorID social.CreatureID, kind social.InteractionKind, since time.Time) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		"SELECT COUNT(*) FROM interactions WHERE actor_id = $1 AND kind = $2 AND occurred_at >= $3",
		actorID.String(), kind.String(), since,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count interactions: %w", err)
	}
	return count, nil
}

// LastBetween returns the most recent interaction of one kind between an
// actor and a target. Returns nil without error when there is none.
func (r *InteractionRepository) LastBetween(ctx context.Context, actorID, targetID social.CreatureID, kind social.InteractionKind) (*social.Interaction, error) {
	query := `
		SELECT id, kind, actor_id, target_id, amount, occurred_at
		FROM interactions
		WHERE actor_id = $1 AND target_id = $2 AND kind = $3
		ORDER BY occurred_at DESC
		LIMIT 1
	`

	row := r.db.QueryRow(ctx, query, actorID.String(), targetID.String(), kind.String())

	interaction, err := scanInteraction(row)
	if err == errInteractionNoRows {
		return nil, nil
	}
	return interaction, err
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPER METHODS
// ══════════════════════════════════════════════════════════════════════════════

// errInteractionNoRows marks an empty LastBetween result internally.
var errInteractionNoRows = fmt.Errorf("postgres: no interaction rows")

// scanMessage scans a single message from a row.
func scanMessage(row pgx.Row) (*social.Message, error) {
	var m social.Message
	var fromID, toID, body string

	err := row.Scan(&m.ID, &fromID, &toID, &body, &m.ReadAt, &m.SentAt)

	if IsNoRows(err) {
		return nil, social.ErrMessageNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan message: %w", err)
	}

	m.FromID = social.CreatureID(fromID)
	m.ToID = social.CreatureID(toID)
	m.Body = social.MessageBody(body)
	return &m, nil
}

// scanMessages scans multiple messages from rows.
func scanMessages(rows pgx.Rows) ([]*social.Message, error) {
	var messages []*social.Message

	for rows.Next() {
		var m social.Message
		var fromID, toID, body string

		if err := rows.Scan(&m.ID, &fromID, &toID, &body, &m.ReadAt, &m.SentAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}

		m.FromID = social.CreatureID(fromID)
		m.ToID = social.CreatureID(toID)
		m.Body = social.MessageBody(body)
		messages = append(messages, &m)
	}

	return messages, rows.Err()
}

// scanInteraction scans a single interaction from a row.
func scanInteraction(row pgx.Row) (*social.Interaction, error) {
	var in social.Interaction
	var kind, actorID, targetID string

	err := row.Scan(&in.ID, &kind, &actorID, &targetID, &in.Amount, &in.OccurredAt)

	if IsNoRows(err) {
		return nil, errInteractionNoRows
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan interaction: %w", err)
	}

	in.Kind = social.InteractionKind(kind)
	in.ActorID = social.CreatureID(actorID)
	in.TargetID = social.CreatureID(targetID)
	return &in, nil
}

// scanInteractions scans multiple interactions from rows.
func scanInteractions(rows pgx.Rows) ([]*social.Interaction, error) {
	var interactions []*social.Interaction

	for rows.Next() {
		var in social.Interaction
		var kind, actorID, targetID string

		if err := rows.Scan(&in.ID, &kind, &actorID, &targetID, &in.Amount, &in.OccurredAt); err != nil {
			return nil, fmt.Errorf("failed to scan interaction: %w", err)
		}

		in.Kind = social.InteractionKind(kind)
		in.ActorID = social.CreatureID(actorID)
		in.TargetID = social.CreatureID(targetID)
		interactions = append(interactions, &in)
	}

	return interactions, rows.Err()
}
