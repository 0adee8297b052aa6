package query

import (
	"context"
	"errors"
	"time"

	"github.com/regen-hub/regenmon-hub/internal/domain/shared"
	"github.com/regen-hub/regenmon-hub/internal/domain/training"
	"github.com/regen-hub/regenmon-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET DAILY PROGRESS QUERY
// Returns a creature's per-day training aggregates over a window, plus the
// recent raw sessions. Feeds the owner dashboard's progress charts.
// ══════════════════════════════════════════════════════════════════════════════

// GetDailyProgressQuery contains the window parameters.
type GetDailyProgressQuery struct {
	// CreatureID - whose progress.
	CreatureID string

	// Days - window length in days (default 7, max 30).
	Days int

	// SessionLimit - how many raw sessions to include (default 10, max 50).
	SessionLimit int
}

// Validate normalizes the parameters.
func (q *GetDailyProgressQuery) Validate() error {
	if q.CreatureID == "" {
		return errors.New("creature_id is required")
	}
	if q.Days < 0 || q.SessionLimit < 0 {
		return errors.New("days and session_limit cannot be negative")
	}
	if q.Days == 0 {
		q.Days = 7
	}
	if q.Days > 30 {
		q.Days = 30
	}
	if q.SessionLimit == 0 {
		q.SessionLimit = 10
	}
	if q.SessionLimit > 50 {
		q.SessionLimit = 50
	}
	return nil
}

// DailyProgressDTO is one day's aggregate.
type DailyProgressDTO struct {
	// Date - the day (midnight).
	Date time.Time `json:"date"`

	// Sessions - training sessions that day.
	Sessions int `json:"sessions"`

	// PointsEarned / TokensEarned - the day's payout.
	PointsEarned int   `json:"points_earned"`
	TokensEarned int64 `json:"tokens_earned"`

	// BestScore - the day's best evaluation.
	BestScore int `json:"best_score"`
}

// SessionDTO is one raw training session.
type SessionDTO struct {
	// ID - the session.
	ID string `json:"id"`

	// Score - the evaluation result.
	Score int `json:"score"`

	// Fallback - true when the evaluator was unavailable.
	Fallback bool `json:"fallback"`

	// Feedback - the evaluator's feedback.
	Feedback string `json:"feedback,omitempty"`

	// PointsEarned / TokensEarned - the payout.
	PointsEarned int   `json:"points_earned"`
	TokensEarned int64 `json:"tokens_earned"`

	// CreatedAt - when the session finished.
	CreatedAt time.Time `json:"created_at"`
}

// GetDailyProgressResult contains the progress view.
type GetDailyProgressResult struct {
	// Days - per-day aggregates, oldest first.
	Days []DailyProgressDTO `json:"days"`

	// RecentSessions - the latest raw sessions, newest first.
	RecentSessions []SessionDTO `json:"recent_sessions"`

	// TotalSessions / TotalPoints / TotalTokens - window totals.
	TotalSessions int   `json:"total_sessions"`
	TotalPoints   int   `json:"total_points"`
	TotalTokens   int64 `json:"total_tokens"`
}

// GetDailyProgressHandler handles the GetDailyProgressQuery.
type GetDailyProgressHandler struct {
	trainingRepo training.Repository
}

// NewGetDailyProgressHandler creates a new GetDailyProgressHandler.
func NewGetDailyProgressHandler(trainingRepo training.Repository) *GetDailyProgressHandler {
	return &GetDailyProgressHandler{trainingRepo: trainingRepo}
}

// Handle executes the query.
func (h *GetDailyProgressHandler) Handle(ctx context.Context, query GetDailyProgressQuery) (*GetDailyProgressResult, error) {
	if err := query.Validate(); err != nil {
		return nil, shared.NewDomainError("query", "GetDailyProgress", shared.ErrValidation, err.Error())
	}

	// Days are bounded in the bootcamp's local timezone, not the server's.
	now := timeutil.Now()
	from := timeutil.StartOfDay(now.AddDate(0, 0, -(query.Days - 1)))

	days, err := h.trainingRepo.GetDailyProgressRange(ctx, query.CreatureID, from, now)
	if err != nil {
		return nil, shared.WrapError("query", "GetDailyProgress", shared.ErrServiceUnavailable, "read progress", err)
	}

	sessions, err := h.trainingRepo.GetSessionsByCreature(ctx, query.CreatureID, query.SessionLimit)
	if err != nil {
		return nil, shared.WrapError("query", "GetDailyProgress", shared.ErrServiceUnavailable, "read sessions", err)
	}

	result := &GetDailyProgressResult{
		Days:           make([]DailyProgressDTO, len(days)),
		RecentSessions: make([]SessionDTO, len(sessions)),
	}

	for i, d := range days {
		result.Days[i] = DailyProgressDTO{
			Date:         d.Date,
			Sessions:     d.Sessions,
			PointsEarned: d.PointsEarned,
			TokensEarned: d.TokensEarned,
			BestScore:    d.BestScore,
		}
		result.TotalSessions += d.Sessions
		result.TotalPoints += d.PointsEarned
		result.TotalTokens += d.TokensEarned
	}

	for i, s := range sessions {
		result.RecentSessions[i] = SessionDTO{
			ID:           s.ID,
			Score:        s.Score,
			Fallback:     s.Fallback,
			Feedback:     s.Feedback,
			PointsEarned: s.PointsEarned,
			TokensEarned: s.TokensEarned,
			CreatedAt:    s.CreatedAt,
		}
	}

	return result, nil
}
