package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCronExpression(t *testing.T) {
	cases := []struct {
		expr    string
		wantErr bool
	}{
		{"0 * * * *", false},
		{"*/5 * * * *", false},
		{"0 4 * * *", false},
		{"0 0 * * 0", false},
		{"15,45 8-17 * * 1-5", false},
		{"* * * *", true},      // 4 fields
		{"60 * * * *", true},   // minute out of range
		{"* 24 * * *", true},   // hour out of range
		{"a * * * *", true},    // not a number
		{"*/0 * * * *", true},  // zero step
	}

	for _, tc := range cases {
		_, err := ParseCronExpression(tc.expr)
		if tc.wantErr {
			assert.Error(t, err, tc.expr)
		} else {
			assert.NoError(t, err, tc.expr)
		}
	}
}

func TestCronExpression_Next_TopOfHour(t *testing.T) {
	ce, err := ParseCronExpression("0 * * * *")
	require.NoError(t, err)

	after := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	next := ce.Next(after)

	assert.Equal(t, time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC), next)
}

func TestCronExpression_Next_NightlyRollsOver(t *testing.T) {
	ce, err := ParseCronExpression("0 4 * * *")
	require.NoError(t, err)

	// already past 04:00, so the match is tomorrow
	after := time.Date(2026, 3, 14, 11, 0, 0, 0, time.UTC)
	next := ce.Next(after)

	assert.Equal(t, time.Date(2026, 3, 15, 4, 0, 0, 0, time.UTC), next)
}

func TestCronExpression_Next_FromExactMatch(t *testing.T) {
	ce, err := ParseCronExpression("0 * * * *")
	require.NoError(t, err)

	// never returns the moment itself
	after := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	next := ce.Next(after)

	assert.Equal(t, time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC), next)
}

func TestCronExpression_ImplementsSchedule(t *testing.T) {
	var _ Schedule = MustParseCronExpression("0 * * * *")
}
