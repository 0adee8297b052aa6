package handlers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okProbe(ctx context.Context) error { return nil }

func failProbe(msg string) ProbeFunc {
	return func(ctx context.Context) error { return errors.New(msg) }
}

func TestHubHealth_AllProbesPass(t *testing.T) {
	h := NewHubHealth("1.2.3")
	h.Require("database", okProbe)
	h.Optional("redis", okProbe)

	status := h.Check(context.Background())

	assert.True(t, status.Healthy)
	assert.True(t, status.Ready)
	assert.Equal(t, "all probes passed", status.Message)
	assert.Equal(t, "1.2.3", status.Version)
	assert.Len(t, status.Checks, 2)
	assert.True(t, status.Checks["database"].Healthy)
}

func TestHubHealth_OptionalFailureDegradesButStaysReady(t *testing.T) {
	h := NewHubHealth("")
	h.Require("database", okProbe)
	h.Optional("redis", failProbe("connection refused"))

	status := h.Check(context.Background())

	assert.False(t, status.Healthy)
	assert.True(t, status.Ready, "redis is optional, hub must keep serving")
	assert.Equal(t, "degraded: redis", status.Message)
	assert.Equal(t, "connection refused", status.Checks["redis"].Message)
}

func TestHubHealth_RequiredFailureFlipsReadiness(t *testing.T) {
	h := NewHubHealth("")
	h.Require("database", failProbe("pool closed"))
	h.Optional("ai_gateway", failProbe("gateway unreachable"))

	status := h.Check(context.Background())

	assert.False(t, status.Healthy)
	assert.False(t, status.Ready)
	assert.Equal(t, "unavailable: database, ai_gateway", status.Message)
}

func TestHubHealth_NoProbes(t *testing.T) {
	h := NewHubHealth("")

	status := h.Check(context.Background())

	assert.True(t, status.Healthy)
	assert.True(t, status.Ready)
	assert.Equal(t, "no probes registered", status.Message)
}

func TestHubHealth_ProbeTimeout(t *testing.T) {
	h := NewHubHealth("")
	h.SetTimeout(10 * time.Millisecond)
	h.Require("database", func(ctx context.Context) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
			return nil
		}
	})

	status := h.Check(context.Background())

	require.False(t, status.Ready)
	assert.Contains(t, status.Checks["database"].Message, "deadline")
}

type pingOK struct{}

func (pingOK) Ping(ctx context.Context) error { return nil }

func TestPingProbe(t *testing.T) {
	assert.NoError(t, PingProbe(pingOK{})(context.Background()))
}
