// Package health serves Kubernetes-style liveness and readiness probes.
//
// Registered probes run on a background ticker, one goroutine per probe.
// State flips use consecutive-failure and consecutive-success thresholds so a
// single slow round-trip to the commerce backend or the session store does
// not flap readiness.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// CheckFunc probes one dependency. A nil return means healthy.
type CheckFunc func(ctx context.Context) error

const (
	defaultFailureThreshold = 3
	defaultSuccessThreshold = 1
)

// probe is one registered check plus its runtime state.
//
// run executes on a single goroutine, so the consecutive counters are
// unsynchronized. healthy and lastErr are also read by the HTTP endpoints,
// hence atomic.
type probe struct {
	name    string
	timeout time.Duration
	check   CheckFunc

	failureThreshold int
	successThreshold int

	healthy atomic.Bool
	lastErr atomic.Pointer[error]

	consecutiveFails int
	consecutiveOK    int
}

func (p *probe) isHealthy() bool {
	return p.healthy.Load()
}

func (p *probe) lastError() error {
	if e := p.lastErr.Load(); e != nil {
		return *e
	}
	return nil
}

// run executes the probe once and applies the thresholds. Single goroutine
// only.
func (p *probe) run(ctx context.Context) {
	probeCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	err := p.check(probeCtx)
	p.lastErr.Store(&err)

	if err != nil {
		p.consecutiveOK = 0
		p.consecutiveFails++
		if p.consecutiveFails >= p.failureThreshold {
			p.healthy.Store(false)
		}
		return
	}
	p.consecutiveFails = 0
	p.consecutiveOK++
	if p.consecutiveOK >= p.successThreshold {
		p.healthy.Store(true)
	}
}

// status is the probe state snapshot reported on the HTTP endpoints.
func (p *probe) status() string {
	if p.isHealthy() {
		return "ok"
	}
	if err := p.lastError(); err != nil {
		return err.Error()
	}
	return "unhealthy"
}

// Health manages the liveness and readiness probe sets for the service.
type Health struct {
	ready atomic.Bool

	// mu guards the probe slices and cancel. Registration happens before
	// Start; endpoints snapshot the slices under RLock.
	mu        sync.RWMutex
	liveness  []*probe
	readiness []*probe
	cancel    context.CancelFunc
}

// New returns a Health that reports not-ready until SetReady(true).
func New() *Health {
	return &Health{}
}

// AddLivenessCheck registers a probe on the liveness set. Liveness covers the
// process itself: goroutine leaks, GC stalls.
func (h *Health) AddLivenessCheck(name string, timeout time.Duration, check CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.liveness = append(h.liveness, newProbe(name, timeout, check))
}

// AddReadinessCheck registers a probe on the readiness set. Readiness covers
// the dependencies a request needs: the commerce backend, the session store.
func (h *Health) AddReadinessCheck(name string, timeout time.Duration, check CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.readiness = append(h.readiness, newProbe(name, timeout, check))
}

func newProbe(name string, timeout time.Duration, check CheckFunc) *probe {
	p := &probe{
		name:             name,
		timeout:          timeout,
		check:            check,
		failureThreshold: defaultFailureThreshold,
		successThreshold: defaultSuccessThreshold,
	}
	// Healthy until the thresholds say otherwise.
	p.healthy.Store(true)
	return p
}

// Start launches one background goroutine per registered probe, ticking at
// interval. Call once, after registration.
func (h *Health) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)

	h.mu.Lock()
	h.cancel = cancel
	probes := make([]*probe, 0, len(h.liveness)+len(h.readiness))
	probes = append(probes, h.liveness...)
	probes = append(probes, h.readiness...)
	h.mu.Unlock()

	for _, p := range probes {
		go tick(ctx, p, interval)
	}
}

func tick(ctx context.Context, p *probe, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	p.run(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.run(ctx)
		}
	}
}

// SetReady flips the manual readiness gate. Set true once wiring completes
// and false at the start of graceful shutdown to drain traffic.
func (h *Health) SetReady(ready bool) {
	h.ready.Store(ready)
}

// IsReady reports whether the manual gate is open and every readiness probe
// is passing.
func (h *Health) IsReady() bool {
	if !h.ready.Load() {
		return false
	}

	h.mu.RLock()
	probes := h.readiness
	h.mu.RUnlock()

	for _, p := range probes {
		if !p.isHealthy() {
			return false
		}
	}
	return true
}

// Stop cancels the background probe goroutines. Safe to call repeatedly.
func (h *Health) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}
}

// statusResponse reports every probe by name, "ok" or the last error text.
type statusResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// LiveEndpoint handles /livez: 200 while every liveness probe passes, 503
// otherwise, always with the per-probe snapshot in the body.
func (h *Health) LiveEndpoint(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	probes := make([]*probe, len(h.liveness))
	copy(probes, h.liveness)
	h.mu.RUnlock()

	writeSnapshot(w, snapshot(probes))
}

// ReadyEndpoint handles /readyz: 200 only when the manual gate is open and
// every readiness probe passes.
func (h *Health) ReadyEndpoint(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	probes := make([]*probe, len(h.readiness))
	copy(probes, h.readiness)
	h.mu.RUnlock()

	snap := snapshot(probes)
	if !h.ready.Load() {
		snap.checks["service"] = "not ready"
		snap.healthy = false
	}
	writeSnapshot(w, snap)
}

type healthSnapshot struct {
	checks  map[string]string
	healthy bool
}

// snapshot reports each probe's current state without re-executing it. The
// last stored result is authoritative between ticks.
func snapshot(probes []*probe) healthSnapshot {
	snap := healthSnapshot{checks: make(map[string]string, len(probes)), healthy: true}
	for _, p := range probes {
		snap.checks[p.name] = p.status()
		if !p.isHealthy() {
			snap.healthy = false
		}
	}
	return snap
}

func writeSnapshot(w http.ResponseWriter, snap healthSnapshot) {
	w.Header().Set("Content-Type", "application/json")

	resp := statusResponse{Status: "ok", Checks: snap.checks}
	status := http.StatusOK
	if !snap.healthy {
		resp.Status = "unhealthy"
		status = http.StatusServiceUnavailable
	}

	w.WriteHeader(status)
	// Status line is already committed; an encode error means the client is
	// gone.
	_ = json.NewEncoder(w).Encode(resp)
}
