package leaderboard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildRanking(t *testing.T, entries ...*Entry) *Ranking {
	t.Helper()
	r := NewRanking()
	for _, e := range entries {
		require.NoError(t, r.Add(e))
	}
	r.Sort()
	return r
}

func entry(t *testing.T, id string, points int, balance int64, registered time.Time) *Entry {
	t.Helper()
	e, err := NewEntry(id, id, 1, points, balance, registered)
	require.NoError(t, err)
	return e
}

func TestRanking_OrderAndTieBreaks(t *testing.T) {
	day := 24 * time.Hour
	t0 := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)

	r := buildRanking(t,
		entry(t, "low", 100, 500, t0),
		entry(t, "top", 900, 0, t0),
		// same points: higher balance wins
		entry(t, "rich", 400, 80, t0),
		entry(t, "poor", 400, 10, t0),
		// same points and balance: earlier registration wins
		entry(t, "elder", 200, 50, t0),
		entry(t, "newcomer", 200, 50, t0.Add(day)),
	)

	ids := make([]string, 0, r.Count())
	for _, e := range r.All() {
		ids = append(ids, e.CreatureID)
	}

	assert.Equal(t, []string{"top", "rich", "poor", "elder", "newcomer", "low"}, ids)

	// ranks are dense and 1-based
	for i, e := range r.All() {
		assert.Equal(t, Rank(i+1), e.Rank)
	}
}

func TestRanking_IsDeterministic(t *testing.T) {
	t0 := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)

	first := buildRanking(t,
		entry(t, "a", 300, 10, t0),
		entry(t, "b", 300, 10, t0.Add(time.Hour)),
		entry(t, "c", 300, 10, t0.Add(2*time.Hour)),
	)
	// same data added in reverse order
	second := buildRanking(t,
		entry(t, "c", 300, 10, t0.Add(2*time.Hour)),
		entry(t, "b", 300, 10, t0.Add(time.Hour)),
		entry(t, "a", 300, 10, t0),
	)

	for i := range first.All() {
		assert.Equal(t, first.All()[i].CreatureID, second.All()[i].CreatureID)
	}
}

func TestRanking_ApplyPrevious(t *testing.T) {
	t0 := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)

	r := buildRanking(t,
		entry(t, "climber", 500, 0, t0),
		entry(t, "faller", 400, 0, t0),
		entry(t, "rookie", 300, 0, t0),
	)

	r.ApplyPrevious(map[string]Rank{
		"climber": 3,
		"faller":  1,
	})

	assert.Equal(t, RankChange(2), r.GetByID("climber").RankChange)
	assert.Equal(t, RankDirectionUp, r.GetByID("climber").Direction())
	assert.Equal(t, RankChange(-1), r.GetByID("faller").RankChange)
	assert.Equal(t, RankChange(0), r.GetByID("rookie").RankChange)
}

func TestRanking_Neighbors(t *testing.T) {
	t0 := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)

	entries := make([]*Entry, 0, 10)
	for i := 0; i < 10; i++ {
		entries = append(entries, entry(t, string(rune('a'+i)), 1000-i*10, 0, t0))
	}
	r := buildRanking(t, entries...)

	middle := r.Neighbors("e", 2)
	require.Len(t, middle, 5)
	assert.Equal(t, "c", middle[0].CreatureID)
	assert.Equal(t, "g", middle[4].CreatureID)

	// clipped at the top of the list
	top := r.Neighbors("a", 2)
	require.Len(t, top, 3)
	assert.Equal(t, "a", top[0].CreatureID)

	assert.Nil(t, r.Neighbors("unknown", 2))
}

func TestRanking_RejectsDuplicates(t *testing.T) {
	t0 := time.Now().UTC()
	r := NewRanking()
	require.NoError(t, r.Add(entry(t, "a", 100, 0, t0)))
	assert.ErrorIs(t, r.Add(entry(t, "a", 200, 0, t0)), ErrDuplicateCreature)
	assert.ErrorIs(t, r.Add(nil), ErrNilEntry)
}

func TestHubStats_Derived(t *testing.T) {
	stats := &HubStats{
		TotalCreatures:      10,
		AliveCreatures:      8,
		DeadCreatures:       2,
		TokensInCirculation: 400,
		ByStage:             map[int]int{1: 6, 2: 3, 3: 1},
	}

	assert.Equal(t, int64(50), stats.AverageTokens())
	assert.InDelta(t, 0.2, stats.DeathRate(), 0.0001)
	assert.Equal(t, 3, stats.StageCount(2))
	assert.Equal(t, 0, stats.StageCount(7))

	empty := &HubStats{}
	assert.Equal(t, int64(0), empty.AverageTokens())
	assert.Equal(t, 0.0, empty.DeathRate())
}
