package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lastLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &m))
	return m
}

func TestLogger_WritesJSONLine(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Output: &buf, Level: LevelDebug})

	log.Info("creature fed", String("creature_id", "c-1"), Int("amount", 10))

	m := lastLine(t, &buf)
	assert.Equal(t, "INFO", m["level"])
	assert.Equal(t, "creature fed", m["message"])
	assert.Equal(t, "c-1", m["creature_id"])
	assert.Equal(t, float64(10), m["amount"])
	assert.NotEmpty(t, m["timestamp"])
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Output: &buf, Level: LevelWarn})

	log.Debug("dropped")
	log.Info("dropped too")
	log.Error("kept")

	assert.Equal(t, 1, strings.Count(buf.String(), "\n"))
	assert.Contains(t, buf.String(), "kept")
}

func TestLogger_WithCarriesFields(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Output: &buf, Level: LevelInfo})

	child := log.With(String("component", "scheduler"))
	child.Info("tick")

	m := lastLine(t, &buf)
	assert.Equal(t, "scheduler", m["component"])

	// the parent is untouched
	log.Info("plain")
	m = lastLine(t, &buf)
	assert.NotContains(t, m, "component")
}

func TestErrField(t *testing.T) {
	assert.Equal(t, Field{Key: "error", Value: "boom"}, Err(errors.New("boom")))
	assert.Equal(t, Field{Key: "error", Value: nil}, Err(nil))
}

func TestLatencyField(t *testing.T) {
	f := Latency(1500 * time.Millisecond)
	assert.Equal(t, "latency", f.Key)
	assert.Equal(t, "1.5s", f.Value)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("debug"))
	assert.Equal(t, LevelWarn, ParseLevel(" WARNING "))
	assert.Equal(t, LevelError, ParseLevel("error"))
	assert.Equal(t, LevelInfo, ParseLevel("nonsense"))
}
