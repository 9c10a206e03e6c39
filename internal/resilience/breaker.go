package resilience

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/toko-lineitem/internal/obs"
)

// ErrOpenCircuit is returned when the circuit breaker refuses a request.
var ErrOpenCircuit = errors.New("resilience: circuit breaker open")

// State represents the current breaker state.
type State int

const (
	// Closed accepts all requests and counts consecutive failures.
	Closed State = iota
	// Open rejects requests until the cool-off period expires.
	Open
	// HalfOpen lets a single probe through to test recovery.
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// Breaker guards an optional dependency such as a cache. After Threshold
// consecutive failures it opens for the cool-off period, during which callers
// skip the dependency entirely.
type Breaker struct {
	mu         sync.Mutex
	state      State
	failures   int
	threshold  int
	openFor    time.Duration
	openedAt   time.Time
	probing    bool
	generation uint64 // advances on every state change and probe
	target     string
	logger     zerolog.Logger
	now        func() time.Time
}

// BreakerConfig configures a Breaker.
type BreakerConfig struct {
	Target    string
	Threshold int
	OpenFor   time.Duration
	Logger    *zerolog.Logger
}

// NewBreaker constructs a closed breaker.
func NewBreaker(cfg BreakerConfig) *Breaker {
	threshold := cfg.Threshold
	if threshold <= 0 {
		threshold = 5
	}
	openFor := cfg.OpenFor
	if openFor <= 0 {
		openFor = 30 * time.Second
	}
	target := strings.TrimSpace(cfg.Target)
	if target == "" {
		target = "default"
	}
	logger := zerolog.Nop()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}
	b := &Breaker{threshold: threshold, openFor: openFor, target: target, logger: logger, now: time.Now}
	b.recordStateLocked()
	return b
}

// State returns the current state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Ticket identifies a call admitted by Allow. Reports carrying a ticket from
// an earlier state generation are ignored.
type Ticket struct {
	generation uint64
	probe      bool
}

// Probe reports whether the ticket belongs to the half-open probe.
func (t Ticket) Probe() bool { return t.probe }

// Allow reports whether a call may proceed. Once the cool-off expires exactly
// one caller is admitted as the half-open probe.
func (b *Breaker) Allow() (Ticket, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Open:
		if b.now().Sub(b.openedAt) < b.openFor {
			return Ticket{}, false
		}
		b.changeStateLocked(HalfOpen)
		return b.admitProbeLocked(), true
	case HalfOpen:
		if b.probing {
			return Ticket{}, false
		}
		return b.admitProbeLocked(), true
	default:
		return Ticket{generation: b.generation}, true
	}
}

func (b *Breaker) admitProbeLocked() Ticket {
	b.probing = true
	b.generation++
	return Ticket{generation: b.generation, probe: true}
}

// Report records the outcome of an admitted call. Only the probe ticket can
// settle a half-open breaker.
func (b *Breaker) Report(t Ticket, success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if t.generation != b.generation {
		return
	}
	switch b.state {
	case Open:
		return
	case HalfOpen:
		if !t.probe {
			return
		}
		b.probing = false
		if success {
			b.changeStateLocked(Closed)
		} else {
			b.changeStateLocked(Open)
		}
		return
	}

	if success {
		b.failures = 0
		return
	}
	b.failures++
	if b.failures >= b.threshold {
		b.changeStateLocked(Open)
	}
}

// Release gives up an admitted call without recording an outcome, for calls
// abandoned by their caller. A released probe frees the half-open slot.
func (b *Breaker) Release(t Ticket) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if t.probe && t.generation == b.generation && b.state == HalfOpen {
		b.probing = false
	}
}

// Do runs fn when the breaker allows it and records the result.
func (b *Breaker) Do(fn func() error) error {
	ticket, ok := b.Allow()
	if !ok {
		return ErrOpenCircuit
	}
	err := fn()
	b.Report(ticket, err == nil)
	return err
}

func (b *Breaker) changeStateLocked(next State) {
	prev := b.state
	if prev == next {
		return
	}
	b.state = next
	b.generation++
	b.failures = 0
	if next == Open {
		b.openedAt = b.now()
	}
	b.recordStateLocked()
	if obs.BreakerTransitions != nil {
		obs.BreakerTransitions.WithLabelValues(b.target, prev.String(), next.String()).Inc()
	}
	b.logger.Info().
		Str("target", b.target).
		Str("from_state", prev.String()).
		Str("to_state", next.String()).
		Msg("breaker_transition")
}

func (b *Breaker) recordStateLocked() {
	if obs.BreakerState == nil {
		return
	}
	obs.BreakerState.WithLabelValues(b.target).Set(float64(b.state))
}
