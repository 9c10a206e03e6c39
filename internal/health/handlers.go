package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"
)

const defaultProbeTimeout = 500 * time.Millisecond

var ready atomic.Bool

func init() {
	ready.Store(true)
}

// SetReady toggles readiness. The API flips it off when shutdown begins so load
// balancers stop routing before connections drain.
func SetReady(v bool) {
	ready.Store(v)
}

// Pinger is anything with a context-aware liveness check, such as *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

// Ping implements Pinger.
func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// Probe is a named dependency checked by the readiness endpoint.
type Probe struct {
	Name    string
	Pinger  Pinger
	Timeout time.Duration
}

// Handler exposes HTTP handlers for health endpoints.
type Handler struct {
	Probes []Probe
}

// Live reports liveness status.
func (h Handler) Live(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ready reports readiness based on dependency probes.
func (h Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if !ready.Load() {
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}
	if len(h.Probes) == 0 {
		http.Error(w, "dependencies unavailable", http.StatusServiceUnavailable)
		return
	}

	status := make(map[string]string, len(h.Probes))
	healthy := true
	for _, p := range h.Probes {
		if err := ping(r.Context(), p); err != nil {
			status[p.Name] = err.Error()
			healthy = false
			continue
		}
		status[p.Name] = "ok"
	}

	w.Header().Set("Content-Type", "application/json")
	if healthy {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(status)
}

func ping(ctx context.Context, p Probe) error {
	if p.Pinger == nil {
		return errUnconfigured
	}
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = defaultProbeTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return p.Pinger.Ping(ctx)
}

type probeError string

func (e probeError) Error() string { return string(e) }

const errUnconfigured = probeError("not configured")
