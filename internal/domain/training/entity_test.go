package training

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSession(t *testing.T) {
	s, err := NewSession("s-1", "cr-1", "  teach me about composting  ", 85, false)
	require.NoError(t, err)

	assert.Equal(t, Prompt("teach me about composting"), s.Prompt)
	assert.Equal(t, 85, s.Score)
	assert.False(t, s.Fallback)

	s.WithPayout(85, 42).WithFeedback("solid answer")
	assert.Equal(t, 85, s.PointsEarned)
	assert.Equal(t, int64(42), s.TokensEarned)
	assert.Equal(t, "solid answer", s.Feedback)
}

func TestNewSession_Validation(t *testing.T) {
	_, err := NewSession("s-1", "", "prompt", 50, false)
	assert.ErrorIs(t, err, ErrInvalidCreatureID)

	_, err = NewSession("s-1", "cr-1", "   ", 50, false)
	assert.ErrorIs(t, err, ErrEmptyPrompt)

	_, err = NewSession("s-1", "cr-1", Prompt(strings.Repeat("x", 2001)), 50, false)
	assert.ErrorIs(t, err, ErrPromptTooLong)

	_, err = NewSession("s-1", "cr-1", "prompt", 101, false)
	assert.ErrorIs(t, err, ErrInvalidScore)

	_, err = NewSession("s-1", "cr-1", "prompt", -1, false)
	assert.ErrorIs(t, err, ErrInvalidScore)
}

func TestNewChatExchange(t *testing.T) {
	ex, err := NewChatExchange("c-1", "cr-1", "hello there", "chirp!", true)
	require.NoError(t, err)

	assert.True(t, ex.Fallback)
	assert.Equal(t, "chirp!", ex.Reply)
}

func TestDailyProgress_AddSession(t *testing.T) {
	dp := NewDailyProgress("cr-1", time.Date(2026, 3, 5, 18, 30, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC), dp.Date)

	first, err := NewSession("s-1", "cr-1", "prompt one", 60, false)
	require.NoError(t, err)
	first.WithPayout(60, 30)

	second, err := NewSession("s-2", "cr-1", "prompt two", 90, false)
	require.NoError(t, err)
	second.WithPayout(90, 45)

	dp.AddSession(first)
	dp.AddSession(second)

	assert.Equal(t, 2, dp.Sessions)
	assert.Equal(t, 150, dp.PointsEarned)
	assert.Equal(t, int64(75), dp.TokensEarned)
	assert.Equal(t, 90, dp.BestScore)
}
