package creature

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCreature(t *testing.T) {
	c, err := NewCreature(NewCreatureParams{
		ID:      "7ed99bd0-87b2-4dbb-a97b-596c3f29c49b",
		OwnerID: "privy:owner-1",
		Name:    "  Frutabyte  ",
		AppURL:  "HTTPS://Frutabyte.Vercel.App/",
	})
	require.NoError(t, err)

	assert.Equal(t, "Frutabyte", c.Name)
	assert.Equal(t, "https://frutabyte.vercel.app", c.AppURL)
	assert.Equal(t, DefaultStats(), c.Stats)
	assert.Equal(t, StageHatchling, c.Stage)
	assert.Equal(t, 0, c.TotalPoints)
	assert.Equal(t, int64(0), c.Balance)
	assert.True(t, c.IsActive)
	assert.False(t, c.IsDead())
}

func TestNewCreature_Validation(t *testing.T) {
	tests := []struct {
		name    string
		params  NewCreatureParams
		wantErr error
	}{
		{
			name:    "empty name",
			params:  NewCreatureParams{ID: "id", OwnerID: "o", Name: "   ", AppURL: "https://a.dev"},
			wantErr: ErrInvalidName,
		},
		{
			name:    "name too long",
			params:  NewCreatureParams{ID: "id", OwnerID: "o", Name: string(make([]byte, 51)), AppURL: "https://a.dev"},
			wantErr: ErrInvalidName,
		},
		{
			name:    "missing owner",
			params:  NewCreatureParams{ID: "id", OwnerID: " ", Name: "Mon", AppURL: "https://a.dev"},
			wantErr: ErrInvalidOwner,
		},
		{
			name:    "bad scheme",
			params:  NewCreatureParams{ID: "id", OwnerID: "o", Name: "Mon", AppURL: "ftp://a.dev"},
			wantErr: ErrInvalidAppURL,
		},
		{
			name:    "no host",
			params:  NewCreatureParams{ID: "id", OwnerID: "o", Name: "Mon", AppURL: "https://"},
			wantErr: ErrInvalidAppURL,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCreature(tt.params)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCreature_CanInteract(t *testing.T) {
	c := newTestCreature(t)
	assert.NoError(t, c.CanInteract())

	c.MarkInactive()
	assert.ErrorIs(t, c.CanInteract(), ErrInactive)

	c.Reactivate()
	assert.NoError(t, c.CanInteract())

	now := time.Now().UTC()
	c.markDead(now)
	assert.ErrorIs(t, c.CanInteract(), ErrDead)
}

func TestCreature_Revive(t *testing.T) {
	c := newTestCreature(t)

	// living creatures cannot be revived
	assert.ErrorIs(t, c.Revive(), ErrNotDead)

	c.Stats = Stats{}
	c.markDead(time.Now().UTC())
	require.True(t, c.IsDead())

	require.NoError(t, c.Revive())

	assert.False(t, c.IsDead())
	assert.Nil(t, c.DiedAt)
	assert.Equal(t, DefaultStats(), c.Stats)
}

func TestCreature_AddPointsIsMonotonic(t *testing.T) {
	c := newTestCreature(t)

	c.AddPoints(120)
	assert.Equal(t, 120, c.TotalPoints)

	c.AddPoints(-50)
	assert.Equal(t, 120, c.TotalPoints)

	c.AddPoints(0)
	assert.Equal(t, 120, c.TotalPoints)
}

func TestCreature_Clone(t *testing.T) {
	c := newTestCreature(t)
	c.Stats = Stats{}
	c.markDead(time.Now().UTC())

	clone := c.Clone()
	require.NotNil(t, clone)

	require.NoError(t, clone.Revive())

	// the original stays dead: the clone is a deep copy
	assert.True(t, c.IsDead())
	assert.False(t, clone.IsDead())
}

func TestStats_IsDepleted(t *testing.T) {
	assert.True(t, Stats{}.IsDepleted())
	assert.False(t, Stats{Energy: 1}.IsDepleted())
	assert.False(t, Stats{Happiness: 1}.IsDepleted())
	assert.False(t, Stats{Hunger: 1}.IsDepleted())
}
