package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/regen-hub/regenmon-hub/internal/domain/training"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// TRAINING REPOSITORY IMPLEMENTATION
// Sessions and chat exchanges are written inside the command's unit of work;
// the daily aggregates are computed in SQL at read time.
// ══════════════════════════════════════════════════════════════════════════════

// TrainingRepository implements training.Repository for PostgreSQL.
type TrainingRepository struct {
	db Querier
}

// NewTrainingRepository creates a pool-backed TrainingRepository.
func NewTrainingRepository(conn *Connection) *TrainingRepository {
	return &TrainingRepository{db: conn}
}

// newTxTrainingRepository binds the repository to a transaction.
func newTxTrainingRepository(tx pgx.Tx) *TrainingRepository {
	return &TrainingRepository{db: tx}
}

// ─────────────────────────────────────────────────────────────────────────────
// Sessions
// ─────────────────────────────────────────────────────────────────────────────

// SaveSession persists a completed training session.
func (r *TrainingRepository) SaveSession(ctx context.Context, session *training.Session) error {
	query := `
		INSERT INTO training_sessions (
			id, creature_id, prompt, feedback, score, fallback,
			points_earned, tokens_earned, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.Exec(ctx, query,
		session.ID,
		session.CreatureID,
		string(session.Prompt),
		session.Feedback,
		session.Score,
		session.Fallback,
		session.PointsEarned,
		session.TokensEarned,
		session.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save training session: %w", err)
	}

	return nil
}

// GetSession returns a session by ID.
func (r *TrainingRepository) GetSession(ctx context.Context, id string) (*training.Session, error) {
	query := `
		SELECT id, creature_id, prompt, feedback, score, fallback,
			   points_earned, tokens_earned, created_at
		FROM training_sessions
		WHERE id = $1
	`

	var s training.Session
	var prompt string
	err := r.db.QueryRow(ctx, query, id).Scan(
		&s.ID, &s.CreatureID, &prompt, &s.Feedback, &s.Score, &s.Fallback,
		&s.PointsEarned, &s.TokensEarned, &s.CreatedAt,
	)

	if IsNoRows(err) {
		return nil, training.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan training session: %w", err)
	}

	s.Prompt = training.Prompt(prompt)
	return &s, nil
}

// GetSessionsByCreature returns the sessions of a creature, newest first.
func (r *TrainingRepository) GetSessionsByCreature(ctx context.Context, creatureID string, limit int) ([]*training.Session, error) {
	query := `
		SELECT id, creature_id, prompt, feedback, score, fallback,
			   points_earned, tokens_earned, created_at
		FROM training_sessions
		WHERE creature_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, creatureID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query training sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*training.Session
	for rows.Next() {
		var s training.Session
		var prompt string
		err := rows.Scan(
			&s.ID, &s.CreatureID, &prompt, &s.Feedback, &s.Score, &s.Fallback,
			&s.PointsEarned, &s.TokensEarned, &s.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan training session: %w", err)
		}
		s.Prompt = training.Prompt(prompt)
		sessions = append(sessions, &s)
	}

	return sessions, rows.Err()
}

// CountSessionsSince counts the sessions of a creature after the cutoff.
func (r *TrainingRepository) CountSessionsSince(ctx context.Context, creatureID string, since time.Time) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		"SELECT COUNT(*) FROM training_sessions WHERE creature_id = $1 AND created_at >= $2",
		creatureID, since,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count training sessions: %w", err)
	}
	return count, nil
}

// CountSessions counts all sessions hub-wide after the cutoff.
func (r *TrainingRepository) CountSessions(ctx context.Context, since time.Time) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		"SELECT COUNT(*) FROM training_sessions WHERE created_at >= $1",
		since,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count sessions hub-wide: %w", err)
	}
	return count, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Chat
// ─────────────────────────────────────────────────────────────────────────────

// SaveChatExchange persists a chat turn.
func (r *TrainingRepository) SaveChatExchange(ctx context.Context, exchange *training.ChatExchange) error {
	query := `
		INSERT INTO chat_exchanges (id, creature_id, prompt, reply, fallback, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.Exec(ctx, query,
		exchange.ID,
		exchange.CreatureID,
		string(exchange.Prompt),
		exchange.Reply,
		exchange.Fallback,
		exchange.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save chat exchange: %w", err)
	}

	return nil
}

// GetChatHistory returns the chat turns of a creature, newest first.
func (r *TrainingRepository) GetChatHistory(ctx context.Context, creatureID string, limit int) ([]*training.ChatExchange, error) {
	query := `
		SELECT id, creature_id, prompt, reply, fallback, created_at
		FROM chat_exchanges
		WHERE creature_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, creatureID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query chat history: %w", err)
	}
	defer rows.Close()

	var exchanges []*training.ChatExchange
	for rows.Next() {
		var e training.ChatExchange
		var prompt string
		if err := rows.Scan(&e.ID, &e.CreatureID, &prompt, &e.Reply, &e.Fallback, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan chat exchange: %w", err)
		}
		e.Prompt = training.Prompt(prompt)
		exchanges = append(exchanges, &e)
	}

	return exchanges, rows.Err()
}

// ─────────────────────────────────────────────────────────────────────────────
// Daily progress
// ─────────────────────────────────────────────────────────────────────────────

// GetDailyProgress aggregates a creature's sessions for one day.
func (r *TrainingRepository) GetDailyProgress(ctx context.Context, creatureID string, date time.Time) (*training.DailyProgress, error) {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)

	query := `
		SELECT COUNT(*),
			   COALESCE(SUM(points_earned), 0),
			   COALESCE(SUM(tokens_earned), 0),
			   COALESCE(MAX(score), 0)
		FROM training_sessions
		WHERE creature_id = $1 AND created_at >= $2 AND created_at < $3
	`

	dp := training.NewDailyProgress(creatureID, day)
	err := r.db.QueryRow(ctx, query, creatureID, day, day.AddDate(0, 0, 1)).Scan(
		&dp.Sessions, &dp.PointsEarned, &dp.TokensEarned, &dp.BestScore,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate daily progress: %w", err)
	}

	return dp, nil
}

// GetDailyProgressRange aggregates per-day over a date range, oldest first.
// Days without sessions are omitted.
func (r *TrainingRepository) GetDailyProgressRange(ctx context.Context, creatureID string, from, to time.Time) ([]*training.DailyProgress, error) {
	query := `
		SELECT date_trunc('day', created_at AT TIME ZONE 'UTC') AS day,
			   COUNT(*),
			   COALESCE(SUM(points_earned), 0),
			   COALESCE(SUM(tokens_earned), 0),
			   COALESCE(MAX(score), 0)
		FROM training_sessions
		WHERE creature_id = $1 AND created_at >= $2 AND created_at <= $3
		GROUP BY day
		ORDER BY day ASC
	`

	rows, err := r.db.Query(ctx, query, creatureID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate daily progress range: %w", err)
	}
	defer rows.Close()

	var days []*training.DailyProgress
	for rows.Next() {
		dp := &training.DailyProgress{CreatureID: creatureID}
		if err := rows.Scan(&dp.Date, &dp.Sessions, &dp.PointsEarned, &dp.TokensEarned, &dp.BestScore); err != nil {
			return nil, fmt.Errorf("failed to scan daily progress: %w", err)
		}
		days = append(days, dp)
	}

	return days, rows.Err()
}
