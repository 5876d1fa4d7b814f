package timer

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/MrWong99/fireside/internal/observe"
)

// Timer lifecycle states. A timer leaves Pending exactly once, by
// compare-and-swap, so a deadline firing and a voice cancellation racing each
// other resolve to a single winner.
const (
	statePending int32 = iota
	stateFired
	stateCancelled
)

var (
	// ErrNotFound is returned when no pending timer matches a cancellation request.
	ErrNotFound = errors.New("timer: no such timer")

	// ErrConflict is returned when a pending timer already has the requested name.
	ErrConflict = errors.New("timer: name already in use")
)

// doneSound is the inline marker played before a completion announcement.
const doneSound = "[[timer_done.wav]]"

// Timer is a single countdown.
type Timer struct {
	ID       uuid.UUID
	Name     string
	Duration time.Duration
	Deadline time.Time

	state atomic.Int32
	after *time.Timer
}

// Snapshot is a read-only view of a pending timer.
type Snapshot struct {
	ID        uuid.UUID
	Name      string
	Remaining time.Duration
}

// Announcer delivers a spoken announcement and returns once it has played.
// *speech.Channel satisfies this.
type Announcer interface {
	Say(ctx context.Context, text string) error
}

// Option is a functional option for configuring an Engine.
type Option func(*Engine)

// WithMetrics sets the metrics instance. Defaults to [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// Engine owns all running timers. Each timer schedules its own firing; there
// is no sweep loop, so announcement latency is bounded by the announcer, not
// by a polling interval. Safe for concurrent use.
type Engine struct {
	announcer Announcer
	metrics   *observe.Metrics

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	timers map[uuid.UUID]*Timer
}

// NewEngine creates a timer engine that announces completions through a.
// Call Close to cancel outstanding timers on shutdown.
func NewEngine(a Announcer, opts ...Option) *Engine {
	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		announcer: a,
		ctx:       ctx,
		cancel:    cancel,
		timers:    make(map[uuid.UUID]*Timer),
	}
	for _, o := range opts {
		o(e)
	}
	if e.metrics == nil {
		e.metrics = observe.DefaultMetrics()
	}
	return e
}

// Start begins a countdown of the given duration. The name is spoken in the
// completion announcement; when empty it is derived from the duration.
// Returns [ErrConflict] if a pending timer already carries the name, so two
// "five minute timer"s cannot shadow each other.
func (e *Engine) Start(d time.Duration, name string) (*Timer, error) {
	if d <= 0 {
		return nil, fmt.Errorf("timer: duration %v must be positive", d)
	}
	if name == "" {
		name = Name(d)
	}

	t := &Timer{
		ID:       uuid.New(),
		Name:     name,
		Duration: d,
		Deadline: time.Now().Add(d),
	}

	e.mu.Lock()
	for _, other := range e.timers {
		if other.state.Load() == statePending && other.Name == name {
			e.mu.Unlock()
			return nil, fmt.Errorf("%w: %q", ErrConflict, name)
		}
	}
	t.after = time.AfterFunc(d, func() { e.fire(t) })
	e.timers[t.ID] = t
	e.mu.Unlock()
	e.metrics.ActiveTimers.Add(e.ctx, 1)

	observe.Logger(e.ctx).Info("timer started", "name", t.Name, "duration", d)
	return t, nil
}

// StartPhrase parses a spoken duration phrase and starts a timer for it.
func (e *Engine) StartPhrase(phrase string) (*Timer, error) {
	d, err := ParsePhrase(phrase)
	if err != nil {
		return nil, err
	}
	return e.Start(d, "")
}

// fire announces a timer whose deadline arrived. Runs on the AfterFunc
// goroutine; the compare-and-swap loses to a concurrent Cancel.
func (e *Engine) fire(t *Timer) {
	if !t.state.CompareAndSwap(statePending, stateFired) {
		return
	}
	e.remove(t.ID)
	e.metrics.TimerFirings.Add(e.ctx, 1)

	text := fmt.Sprintf("%s Your %s is finished.", doneSound, t.Name)
	if err := e.announcer.Say(e.ctx, text); err != nil {
		observe.Logger(e.ctx).Error("timer announcement failed", "name", t.Name, "error", err)
	}
}

// Cancel stops the timer with the given ID. Returns [ErrNotFound] when the
// timer already fired, was already cancelled, or never existed.
func (e *Engine) Cancel(id uuid.UUID) error {
	e.mu.Lock()
	t, ok := e.timers[id]
	e.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	if !t.state.CompareAndSwap(statePending, stateCancelled) {
		return ErrNotFound
	}
	t.after.Stop()
	e.remove(id)
	observe.Logger(e.ctx).Info("timer cancelled", "name", t.Name)
	return nil
}

// CancelName cancels the pending timer with the given spoken name.
func (e *Engine) CancelName(name string) error {
	e.mu.Lock()
	var match *Timer
	for _, t := range e.timers {
		if t.state.Load() == statePending && t.Name == name {
			match = t
			break
		}
	}
	e.mu.Unlock()
	if match == nil {
		return ErrNotFound
	}
	return e.Cancel(match.ID)
}

// Query returns pending timers matching name, or all pending timers when
// name is empty, ordered by time remaining.
func (e *Engine) Query(name string) []Snapshot {
	all := e.List()
	if name == "" {
		return all
	}
	out := all[:0]
	for _, s := range all {
		if s.Name == name {
			out = append(out, s)
		}
	}
	return out
}

// CancelNewest cancels the most recently expiring pending timer, returning
// its name. With no pending timers it returns [ErrNotFound].
func (e *Engine) CancelNewest() (string, error) {
	snaps := e.List()
	if len(snaps) == 0 {
		return "", ErrNotFound
	}
	last := snaps[len(snaps)-1]
	if err := e.Cancel(last.ID); err != nil {
		return "", err
	}
	return last.Name, nil
}

// List returns snapshots of all pending timers ordered by time remaining.
func (e *Engine) List() []Snapshot {
	now := time.Now()
	e.mu.Lock()
	snaps := make([]Snapshot, 0, len(e.timers))
	for _, t := range e.timers {
		if t.state.Load() != statePending {
			continue
		}
		snaps = append(snaps, Snapshot{
			ID:        t.ID,
			Name:      t.Name,
			Remaining: t.Deadline.Sub(now),
		})
	}
	e.mu.Unlock()

	sort.Slice(snaps, func(i, j int) bool { return snaps[i].Remaining < snaps[j].Remaining })
	return snaps
}

// Close cancels every pending timer and stops announcements.
func (e *Engine) Close() {
	e.mu.Lock()
	for id, t := range e.timers {
		if t.state.CompareAndSwap(statePending, stateCancelled) {
			t.after.Stop()
			e.metrics.ActiveTimers.Add(context.Background(), -1)
		}
		delete(e.timers, id)
	}
	e.mu.Unlock()
	e.cancel()
}

// remove drops a timer from the map and decrements the gauge.
func (e *Engine) remove(id uuid.UUID) {
	e.mu.Lock()
	_, ok := e.timers[id]
	delete(e.timers, id)
	e.mu.Unlock()
	if ok {
		e.metrics.ActiveTimers.Add(e.ctx, -1)
	}
}
