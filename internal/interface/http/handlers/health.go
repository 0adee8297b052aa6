// Package handlers contains HTTP handler interfaces and implementations.
package handlers

import (
	"context"
	"strings"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH PROBES
// ══════════════════════════════════════════════════════════════════════════════

// HealthChecker reports whether the hub can serve gameplay traffic.
type HealthChecker interface {
	Check(ctx context.Context) HealthStatus
}

// ProbeFunc checks a single dependency. A nil error means reachable.
type ProbeFunc func(ctx context.Context) error

// Pinger is satisfied by the postgres connection and the redis cache.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingProbe adapts a Pinger into a ProbeFunc.
func PingProbe(p Pinger) ProbeFunc {
	return func(ctx context.Context) error {
		return p.Ping(ctx)
	}
}

// HealthStatus is the aggregated result of all dependency probes.
type HealthStatus struct {
	// Healthy is true when every probe passed, optional ones included.
	Healthy bool `json:"healthy"`

	// Ready is true when every required probe passed. The hub keeps
	// serving without redis (leaderboard falls back to postgres) and
	// without the AI gateway (training falls back to a fixed score),
	// so only postgres failures flip this off.
	Ready bool `json:"ready"`

	// Message summarizes failures, empty-ish when everything is up.
	Message string `json:"message,omitempty"`

	// Checks holds per-dependency results keyed by probe name.
	Checks map[string]CheckResult `json:"checks,omitempty"`

	Uptime    string    `json:"uptime,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version,omitempty"`
}

// CheckResult is the outcome of one dependency probe.
type CheckResult struct {
	Healthy  bool   `json:"healthy"`
	Message  string `json:"message,omitempty"`
	Duration string `json:"duration,omitempty"`
}

// ──────────────────────────────────────────────────────────────────────────────
// Hub health
// ──────────────────────────────────────────────────────────────────────────────

type hubProbe struct {
	name     string
	required bool
	probe    ProbeFunc
}

// HubHealth probes the dependencies the hub needs: postgres (required,
// creatures and the ledger live there), redis and the AI gateway
// (optional, both have in-process fallbacks). Probes are registered
// during wiring, before the server starts, so no locking is needed.
type HubHealth struct {
	probes    []hubProbe
	startTime time.Time
	version   string
	timeout   time.Duration
}

// NewHubHealth creates a health checker with no probes registered.
func NewHubHealth(version string) *HubHealth {
	return &HubHealth{
		startTime: time.Now(),
		version:   version,
		timeout:   5 * time.Second,
	}
}

// SetTimeout overrides the per-probe timeout.
func (h *HubHealth) SetTimeout(timeout time.Duration) {
	h.timeout = timeout
}

// Require registers a probe whose failure makes the hub not ready.
func (h *HubHealth) Require(name string, probe ProbeFunc) {
	h.probes = append(h.probes, hubProbe{name: name, required: true, probe: probe})
}

// Optional registers a probe whose failure only degrades the hub.
func (h *HubHealth) Optional(name string, probe ProbeFunc) {
	h.probes = append(h.probes, hubProbe{name: name, probe: probe})
}

// Check runs every probe with a timeout and aggregates the results.
func (h *HubHealth) Check(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Healthy:   true,
		Ready:     true,
		Checks:    make(map[string]CheckResult, len(h.probes)),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Timestamp: time.Now().UTC(),
		Version:   h.version,
	}

	if len(h.probes) == 0 {
		status.Message = "no probes registered"
		return status
	}

	var degraded, down []string
	for _, p := range h.probes {
		probeCtx, cancel := context.WithTimeout(ctx, h.timeout)
		start := time.Now()
		err := p.probe(probeCtx)
		cancel()

		result := CheckResult{
			Healthy:  err == nil,
			Message:  "OK",
			Duration: time.Since(start).Round(time.Millisecond).String(),
		}
		if err != nil {
			result.Message = err.Error()
			status.Healthy = false
			if p.required {
				status.Ready = false
				down = append(down, p.name)
			} else {
				degraded = append(degraded, p.name)
			}
		}
		status.Checks[p.name] = result
	}

	switch {
	case len(down) > 0:
		status.Message = "unavailable: " + strings.Join(append(down, degraded...), ", ")
	case len(degraded) > 0:
		status.Message = "degraded: " + strings.Join(degraded, ", ")
	default:
		status.Message = "all probes passed"
	}

	return status
}
