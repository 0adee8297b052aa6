package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/regen-hub/regenmon-hub/internal/domain/notification"
)

// ══════════════════════════════════════════════════════════════════════════════
// NOTIFICATION REPOSITORY IMPLEMENTATION
// The feed is its own table, written best-effort by the event handlers -
// never inside a command's unit of work.
// ══════════════════════════════════════════════════════════════════════════════

// NotificationRepository implements notification.Repository for PostgreSQL.
type NotificationRepository struct {
	conn *Connection
}

// NewNotificationRepository creates a new NotificationRepository.
func NewNotificationRepository(conn *Connection) *NotificationRepository {
	return &NotificationRepository{conn: conn}
}

// Save persists a notification.
func (r *NotificationRepository) Save(ctx context.Context, n *notification.Notification) error {
	query := `
		INSERT INTO notifications (id, recipient_id, creature_id, type, title, body, read_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.conn.Exec(ctx, query,
		n.ID.String(),
		n.RecipientID.String(),
		n.CreatureID,
		string(n.Type),
		n.Title,
		n.Body,
		n.ReadAt,
		n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save notification: %w", err)
	}

	return nil
}

// GetByID returns a notification by ID.
func (r *NotificationRepository) GetByID(ctx context.Context, id notification.NotificationID) (*notification.Notification, error) {
	query := `
		SELECT id, recipient_id, creature_id, type, title, body, read_at, created_at
		FROM notifications
		WHERE id = $1
	`

	var n notification.Notification
	var nid, recipient, typ string

	err := r.conn.QueryRow(ctx, query, id.String()).Scan(
		&nid, &recipient, &n.CreatureID, &typ, &n.Title, &n.Body, &n.ReadAt, &n.CreatedAt,
	)

	if IsNoRows(err) {
		return nil, notification.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan notification: %w", err)
	}

	n.ID = notification.NotificationID(nid)
	n.RecipientID = notification.RecipientID(recipient)
	n.Type = notification.Type(typ)
	return &n, nil
}

// GetFeed returns the notifications of an owner, newest first.
func (r *NotificationRepository) GetFeed(ctx context.Context, recipient notification.RecipientID, unreadOnly bool, limit int) ([]*notification.Notification, error) {
	query := `
		SELECT id, recipient_id, creature_id, type, title, body, read_at, created_at
		FROM notifications
		WHERE recipient_id = $1
	`
	if unreadOnly {
		query += " AND read_at IS NULL"
	}
	query += " ORDER BY created_at DESC LIMIT $2"

	rows, err := r.conn.Query(ctx, query, recipient.String(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query notification feed: %w", err)
	}
	defer rows.Close()

	var feed []*notification.Notification
	for rows.Next() {
		var n notification.Notification
		var nid, rcp, typ string

		if err := rows.Scan(&nid, &rcp, &n.CreatureID, &typ, &n.Title, &n.Body, &n.ReadAt, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}

		n.ID = notification.NotificationID(nid)
		n.RecipientID = notification.RecipientID(rcp)
		n.Type = notification.Type(typ)
		feed = append(feed, &n)
	}

	return feed, rows.Err()
}

// CountUnread returns the unread count of an owner.
func (r *NotificationRepository) CountUnread(ctx context.Context, recipient notification.RecipientID) (int, error) {
	var count int
	err := r.conn.QueryRow(ctx,
		"SELECT COUNT(*) FROM notifications WHERE recipient_id = $1 AND read_at IS NULL",
		recipient.String(),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

// MarkRead persists the read timestamp of one notification.
func (r *NotificationRepository) MarkRead(ctx context.Context, id notification.NotificationID, readAt time.Time) error {
	query := `
		UPDATE notifications
		SET read_at = COALESCE(read_at, $1)
		WHERE id = $2
	`

	result, err := r.conn.Exec(ctx, query, readAt, id.String())
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}

	if result.RowsAffected() == 0 {
		return notification.ErrNotFound
	}

	return nil
}

// MarkAllRead marks the whole feed of an owner read.
func (r *NotificationRepository) MarkAllRead(ctx context.Context, recipient notification.RecipientID, readAt time.Time) (int, error) {
	query := `
		UPDATE notifications
		SET read_at = $1
		WHERE recipient_id = $2 AND read_at IS NULL
	`

	result, err := r.conn.Exec(ctx, query, readAt, recipient.String())
	if err != nil {
		return 0, fmt.Errorf("failed to mark feed read: %w", err)
	}

	return int(result.RowsAffected()), nil
}

// DeleteOld removes read notifications older than the cutoff.
func (r *NotificationRepository) DeleteOld(ctx context.Context, olderThan time.Time) (int, error) {
	result, err := r.conn.Exec(ctx,
		"DELETE FROM notifications WHERE read_at IS NOT NULL AND created_at < $1",
		olderThan,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old notifications: %w", err)
	}
	return int(result.RowsAffected()), nil
}
