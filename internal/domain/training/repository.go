// Package training contains domain entities for AI-evaluated training
// sessions and chat exchanges.
package training

import (
	"context"
	"time"
)

// Repository defines the persistence contract for training records.
// Implemented by the infrastructure layer; the domain has no knowledge of
// the actual storage mechanism.
type Repository interface {
	// Session operations

	// SaveSession persists a completed training session.
	SaveSession(ctx context.Context, session *Session) error

	// GetSession returns a session by ID.
	// Returns ErrSessionNotFound when it does not exist.
	GetSession(ctx context.Context, id string) (*Session, error)

	// GetSessionsByCreature returns the sessions of a creature, newest
	// first.
	GetSessionsByCreature(ctx context.Context, creatureID string, limit int) ([]*Session, error)

	// CountSessionsSince counts the sessions of a creature after the
	// cutoff. The training rate limiter reads this.
	CountSessionsSince(ctx context.Context, creatureID string, since time.Time) (int, error)

	// CountSessions counts all sessions hub-wide after the cutoff. Feeds
	// the hub stats snapshot.
	CountSessions(ctx context.Context, since time.Time) (int, error)

	// Chat operations

	// SaveChatExchange persists a chat turn.
	SaveChatExchange(ctx context.Context, exchange *ChatExchange) error

	// GetChatHistory returns the chat turns of a creature, newest first.
	GetChatHistory(ctx context.Context, creatureID string, limit int) ([]*ChatExchange, error)

	// Daily progress operations

	// GetDailyProgress aggregates a creature's sessions for one day.
	GetDailyProgress(ctx context.Context, creatureID string, date time.Time) (*DailyProgress, error)

	// GetDailyProgressRange aggregates per-day over a date range, oldest
	// first.
	GetDailyProgressRange(ctx context.Context, creatureID string, from, to time.Time) ([]*DailyProgress, error)
}
