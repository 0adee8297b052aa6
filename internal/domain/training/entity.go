// Package training contains domain entities for AI-evaluated training
// sessions and chat exchanges. This is a pure domain layer with zero
// external dependencies.
package training

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

// Domain errors for the training package.
var (
	ErrInvalidCreatureID = errors.New("training: invalid creature ID")
	ErrEmptyPrompt       = errors.New("training: prompt cannot be empty")
	ErrPromptTooLong     = errors.New("training: prompt exceeds the limit")
	ErrInvalidScore      = errors.New("training: score must be in [0,100]")
	ErrSessionNotFound   = errors.New("training: session not found")
)

// MaxPromptLength bounds a training or chat prompt in runes.
const MaxPromptLength = 2000

// Prompt is the text a player submits for training or chat.
type Prompt string

// Validate checks the prompt bounds.
func (p Prompt) Validate() error {
	trimmed := strings.TrimSpace(string(p))
	if trimmed == "" {
		return ErrEmptyPrompt
	}
	if utf8.RuneCountInString(trimmed) > MaxPromptLength {
		return ErrPromptTooLong
	}
	return nil
}

// Normalized returns the prompt with surrounding whitespace removed.
func (p Prompt) Normalized() Prompt {
	return Prompt(strings.TrimSpace(string(p)))
}

// Session is one completed training attempt: the prompt, the evaluation,
// and what the creature earned from it. Sessions are written after the
// creature row is updated, in the same transaction.
type Session struct {
	// ID - unique session identifier.
	ID string

	// CreatureID - the trained creature.
	CreatureID string

	// Prompt - what the player submitted.
	Prompt Prompt

	// Feedback - the evaluator's textual feedback, may be empty.
	Feedback string

	// Score - the evaluation result, 0..100.
	Score int

	// Fallback - true when the evaluator was unavailable and the score
	// came from the fallback band.
	Fallback bool

	// PointsEarned / TokensEarned - what the session paid out.
	PointsEarned int
	TokensEarned int64

	// CreatedAt - when the session finished.
	CreatedAt time.Time
}

// NewSession builds a validated session record.
func NewSession(id, creatureID string, prompt Prompt, score int, fallback bool) (*Session, error) {
	if id == "" {
		return nil, errors.New("training: invalid session ID")
	}
	if creatureID == "" {
		return nil, ErrInvalidCreatureID
	}
	if err := prompt.Validate(); err != nil {
		return nil, err
	}
	if score < 0 || score > 100 {
		return nil, ErrInvalidScore
	}

	return &Session{
		ID:         id,
		CreatureID: creatureID,
		Prompt:     prompt.Normalized(),
		Score:      score,
		Fallback:   fallback,
		CreatedAt:  time.Now().UTC(),
	}, nil
}

// WithPayout records what the session earned.
func (s *Session) WithPayout(points int, tokens int64) *Session {
	s.PointsEarned = points
	s.TokensEarned = tokens
	return s
}

// WithFeedback records the evaluator's feedback.
func (s *Session) WithFeedback(feedback string) *Session {
	s.Feedback = feedback
	return s
}

// ChatExchange is one free conversation turn with a creature. Chat never
// costs tokens and never awards points; only the stat vector applies.
type ChatExchange struct {
	// ID - unique exchange identifier.
	ID string

	// CreatureID - the creature that was talked to.
	CreatureID string

	// Prompt - what the player said.
	Prompt Prompt

	// Reply - what the creature answered. The canned fallback reply is
	// stored like any other when the AI was unavailable.
	Reply string

	// Fallback - true when the reply is the canned fallback.
	Fallback bool

	// CreatedAt - when the exchange happened.
	CreatedAt time.Time
}

// NewChatExchange builds a validated chat record.
func NewChatExchange(id, creatureID string, prompt Prompt, reply string, fallback bool) (*ChatExchange, error) {
	if id == "" {
		return nil, errors.New("training: invalid exchange ID")
	}
	if creatureID == "" {
		return nil, ErrInvalidCreatureID
	}
	if err := prompt.Validate(); err != nil {
		return nil, err
	}

	return &ChatExchange{
		ID:         id,
		CreatureID: creatureID,
		Prompt:     prompt.Normalized(),
		Reply:      reply,
		Fallback:   fallback,
		CreatedAt:  time.Now().UTC(),
	}, nil
}

// DailyProgress aggregates one creature's training for a single day.
// Feeds the owner dashboard.
type DailyProgress struct {
	CreatureID   string
	Date         time.Time
	Sessions     int
	PointsEarned int
	TokensEarned int64
	BestScore    int
}

// NewDailyProgress creates an empty daily aggregate.
func NewDailyProgress(creatureID string, date time.Time) *DailyProgress {
	return &DailyProgress{
		CreatureID: creatureID,
		Date:       truncateToDay(date),
	}
}

// AddSession folds one session into the aggregate.
func (dp *DailyProgress) AddSession(s *Session) {
	dp.Sessions++
	dp.PointsEarned += s.PointsEarned
	dp.TokensEarned += s.TokensEarned
	if s.Score > dp.BestScore {
		dp.BestScore = s.Score
	}
}

// truncateToDay returns the date portion of a time (midnight).
func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
