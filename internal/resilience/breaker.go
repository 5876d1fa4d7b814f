// Package resilience provides circuit breaker and provider failover
// primitives for the network-backed providers (remote wake scorer, Piper
// server, hosted language models).
//
// [Breaker] is a three-state circuit breaker (closed, open, half-open).
// [Group] composes a primary and fallback instances of one provider type
// behind per-entry breakers, so a failing primary is bypassed in favour of a
// healthy fallback instead of stalling every interaction.
//
// All types are safe for concurrent use.
package resilience

import (
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrBreakerOpen is returned by [Breaker.Do] while the breaker is open and
// the cooldown has not yet elapsed.
var ErrBreakerOpen = errors.New("resilience: breaker open")

// BreakerState is the operating mode of a [Breaker].
type BreakerState int

const (
	// BreakerClosed forwards every call.
	BreakerClosed BreakerState = iota
	// BreakerOpen rejects calls with [ErrBreakerOpen] until the cooldown
	// elapses.
	BreakerOpen
	// BreakerHalfOpen lets a limited number of probe calls through to decide
	// whether the backend has recovered.
	BreakerHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// BreakerConfig tunes a [Breaker]. Zero fields take the documented defaults.
type BreakerConfig struct {
	// Name labels the breaker in log output.
	Name string
	// MaxFailures is the consecutive-failure count that trips the breaker.
	// Default 5.
	MaxFailures int
	// Cooldown is how long the breaker stays open before probing.
	// Default 30s.
	Cooldown time.Duration
	// ProbeMax is the number of half-open probe calls that must succeed
	// before the breaker closes again. Default 3.
	ProbeMax int
}

// Breaker is a three-state circuit breaker. The zero value is not usable;
// construct with [NewBreaker].
type Breaker struct {
	name        string
	maxFailures int
	cooldown    time.Duration
	probeMax    int

	mu         sync.Mutex
	state      BreakerState
	failures   int
	probes     int
	probeFails int
	openedAt   time.Time
}

// NewBreaker returns a closed [Breaker] with defaults applied.
func NewBreaker(cfg BreakerConfig) *Breaker {
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 5
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 30 * time.Second
	}
	if cfg.ProbeMax <= 0 {
		cfg.ProbeMax = 3
	}
	return &Breaker{
		name:        cfg.Name,
		maxFailures: cfg.MaxFailures,
		cooldown:    cfg.Cooldown,
		probeMax:    cfg.ProbeMax,
	}
}

// Do runs fn if the breaker permits it, then feeds the outcome back into the
// state machine. While open it returns [ErrBreakerOpen] without calling fn.
func (b *Breaker) Do(fn func() error) error {
	probing, err := b.allow()
	if err != nil {
		return err
	}
	callErr := fn()
	b.observe(callErr == nil, probing)
	return callErr
}

// allow decides whether a call may proceed, handling the open→half-open
// transition. It reports whether the call counts as a half-open probe.
func (b *Breaker) allow() (probing bool, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case BreakerOpen:
		if time.Since(b.openedAt) < b.cooldown {
			return false, ErrBreakerOpen
		}
		b.state = BreakerHalfOpen
		b.probes = 0
		b.probeFails = 0
		slog.Info("breaker probing", "breaker", b.name)
	case BreakerHalfOpen:
		if b.probes >= b.probeMax {
			return false, ErrBreakerOpen
		}
	}

	if b.state == BreakerHalfOpen {
		b.probes++
		return true, nil
	}
	return false, nil
}

// observe records a call outcome.
func (b *Breaker) observe(ok, probing bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if probing {
		if !ok {
			// One failed probe re-opens immediately.
			b.probeFails++
			b.state = BreakerOpen
			b.openedAt = time.Now()
			b.failures = b.maxFailures
			slog.Warn("breaker re-opened", "breaker", b.name)
			return
		}
		if b.probes-b.probeFails >= b.probeMax {
			b.state = BreakerClosed
			b.failures = 0
			slog.Info("breaker closed", "breaker", b.name)
		}
		return
	}

	if ok {
		b.failures = 0
		return
	}
	b.failures++
	if b.failures >= b.maxFailures {
		b.state = BreakerOpen
		b.openedAt = time.Now()
		slog.Warn("breaker opened", "breaker", b.name, "failures", b.failures)
	}
}

// State returns the current state. An open breaker whose cooldown has elapsed
// reports half-open; the actual transition happens on the next [Breaker.Do].
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == BreakerOpen && time.Since(b.openedAt) >= b.cooldown {
		return BreakerHalfOpen
	}
	return b.state
}

// Reset forces the breaker closed and clears all counters.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = BreakerClosed
	b.failures = 0
	b.probes = 0
	b.probeFails = 0
}
