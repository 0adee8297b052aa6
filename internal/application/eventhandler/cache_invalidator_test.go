package eventhandler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/regen-hub/regenmon-hub/internal/domain/creature"
	"github.com/regen-hub/regenmon-hub/internal/domain/leaderboard"
	"github.com/regen-hub/regenmon-hub/internal/domain/shared"
)

func TestCacheInvalidator_GiftDropsBothSides(t *testing.T) {
	creatureCache := &fakeCreatureCache{}
	boardCache := &fakeLeaderboardCache{}
	handler := NewCacheInvalidator(creatureCache, boardCache, nil)

	err := handler.Handle(shared.NewTokensGiftedEvent("c1", "c2", 25))
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"c1", "c2"}, creatureCache.invalidated)
	assert.True(t, boardCache.invalidatedAll, "gifts move balances, the board cache must drop")
}

func TestCacheInvalidator_SelfFeedKeepsLeaderboard(t *testing.T) {
	creatureCache := &fakeCreatureCache{}
	boardCache := &fakeLeaderboardCache{}
	handler := NewCacheInvalidator(creatureCache, boardCache, nil)

	err := handler.Handle(shared.NewCreatureFedEvent("c1", "c1", 10))
	require.NoError(t, err)

	assert.Equal(t, []string{"c1"}, creatureCache.invalidated)
	assert.False(t, boardCache.invalidatedAll, "feeding changes stats only, not ranking inputs")
}

func TestCacheInvalidator_EvolutionDropsLeaderboard(t *testing.T) {
	creatureCache := &fakeCreatureCache{}
	boardCache := &fakeLeaderboardCache{}
	handler := NewCacheInvalidator(creatureCache, boardCache, nil)

	err := handler.Handle(shared.NewCreatureEvolvedEvent("c1", 1, 2, 520, 100))
	require.NoError(t, err)

	assert.Equal(t, []string{"c1"}, creatureCache.invalidated)
	assert.True(t, boardCache.invalidatedAll)
}

// ──────────────────────────────────────────────────────────────────────────────
// Fakes
// ──────────────────────────────────────────────────────────────────────────────

type fakeCreatureCache struct {
	invalidated []string
}

func (f *fakeCreatureCache) Get(_ context.Context, _ string) (*creature.Creature, error) {
	return nil, nil
}

func (f *fakeCreatureCache) Set(_ context.Context, _ *creature.Creature, _ time.Duration) error {
	return nil
}

func (f *fakeCreatureCache) Delete(_ context.Context, _ string) error {
	return nil
}

func (f *fakeCreatureCache) Invalidate(_ context.Context, id string) error {
	f.invalidated = append(f.invalidated, id)
	return nil
}

type fakeLeaderboardCache struct {
	invalidatedAll bool
}

func (f *fakeLeaderboardCache) GetCachedTop(_ context.Context, _ int) ([]*leaderboard.Entry, error) {
	return nil, nil
}

func (f *fakeLeaderboardCache) SetCachedTop(_ context.Context, _ []*leaderboard.Entry, _ time.Duration) error {
	return nil
}

func (f *fakeLeaderboardCache) GetCachedRank(_ context.Context, _ string) (*leaderboard.Entry, error) {
	return nil, nil
}

func (f *fakeLeaderboardCache) SetCachedRank(_ context.Context, _ *leaderboard.Entry, _ time.Duration) error {
	return nil
}

func (f *fakeLeaderboardCache) InvalidateAll(_ context.Context) error {
	f.invalidatedAll = true
	return nil
}
