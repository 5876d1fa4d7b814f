package reminder

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/MrWong99/fireside/internal/observe"
)

// Reminder lifecycle states, left by compare-and-swap so a firing deadline
// and a cancellation racing each other resolve to a single winner.
const (
	statePending int32 = iota
	stateFired
	stateCancelled
)

var (
	// ErrNotFound is returned when no pending reminder matches a request.
	ErrNotFound = errors.New("reminder: no such reminder")

	// ErrConflict is returned when a pending reminder already occupies the
	// same minute.
	ErrConflict = errors.New("reminder: time already taken")

	// ErrPast is returned when the requested time is not in the future.
	ErrPast = errors.New("reminder: time is in the past")
)

// announceSound is the inline marker played before a reminder announcement.
const announceSound = "[[reminder.wav]]"

// Reminder is a single scheduled announcement.
type Reminder struct {
	ID   uuid.UUID
	At   time.Time
	Text string

	state atomic.Int32
	after *time.Timer
}

// Snapshot is a read-only view of a pending reminder.
type Snapshot struct {
	ID   uuid.UUID
	At   time.Time
	Text string
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

// Engine owns all scheduled reminders. Each reminder schedules its own
// firing via the runtime timer heap, so announcement latency is bounded by
// the announcer rather than a polling interval. Safe for concurrent use.
type Engine struct {
	announcer Announcer
	metrics   *observe.Metrics

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	reminders map[uuid.UUID]*Reminder
}

// NewEngine creates a reminder engine that announces through a.
// Call Close to cancel outstanding reminders on shutdown.
func NewEngine(a Announcer, opts ...Option) *Engine {
	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		announcer: a,
		ctx:       ctx,
		cancel:    cancel,
		reminders: make(map[uuid.UUID]*Reminder),
	}
	for _, o := range opts {
		o(e)
	}
	if e.metrics == nil {
		e.metrics = observe.DefaultMetrics()
	}
	return e
}

// Add schedules a reminder. The text should already be in second person
// (see [FlipPronouns]). Returns [ErrPast] for non-future times and
// [ErrConflict] when a pending reminder already occupies the same minute.
func (e *Engine) Add(at time.Time, text string) (*Reminder, error) {
	now := time.Now()
	if !at.After(now) {
		return nil, fmt.Errorf("%w: %s", ErrPast, at.Format(time.Kitchen))
	}

	key := at.Truncate(time.Minute)
	e.mu.Lock()
	for _, r := range e.reminders {
		if r.state.Load() == statePending && r.At.Truncate(time.Minute).Equal(key) {
			e.mu.Unlock()
			return nil, fmt.Errorf("%w: %s already has %q", ErrConflict, at.Format(time.Kitchen), r.Text)
		}
	}
	r := &Reminder{
		ID:   uuid.New(),
		At:   at,
		Text: text,
	}
	r.after = time.AfterFunc(at.Sub(now), func() { e.fire(r) })
	e.reminders[r.ID] = r
	e.mu.Unlock()

	e.metrics.ActiveReminders.Add(e.ctx, 1)
	observe.Logger(e.ctx).Info("reminder scheduled", "at", at, "text", text)
	return r, nil
}

// fire announces a reminder whose time arrived. Runs on the AfterFunc
// goroutine; the compare-and-swap loses to a concurrent Cancel.
func (e *Engine) fire(r *Reminder) {
	if !r.state.CompareAndSwap(statePending, stateFired) {
		return
	}
	e.remove(r.ID)
	e.metrics.ReminderFirings.Add(e.ctx, 1)

	text := fmt.Sprintf("%s Here is your reminder: %s.", announceSound, strings.TrimSuffix(r.Text, "."))
	if err := e.announcer.Say(e.ctx, text); err != nil {
		observe.Logger(e.ctx).Error("reminder announcement failed", "text", r.Text, "error", err)
	}
}

// Cancel removes the reminder with the given ID. Returns [ErrNotFound] when
// it already fired, was already cancelled, or never existed.
func (e *Engine) Cancel(id uuid.UUID) error {
	e.mu.Lock()
	r, ok := e.reminders[id]
	e.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	if !r.state.CompareAndSwap(statePending, stateCancelled) {
		return ErrNotFound
	}
	r.after.Stop()
	e.remove(id)
	observe.Logger(e.ctx).Info("reminder cancelled", "text", r.Text)
	return nil
}

// CancelAll removes every pending reminder, returning how many were cancelled.
func (e *Engine) CancelAll() int {
	n := 0
	for _, s := range e.List() {
		if e.Cancel(s.ID) == nil {
			n++
		}
	}
	return n
}

// List returns snapshots of all pending reminders in chronological order.
func (e *Engine) List() []Snapshot {
	e.mu.Lock()
	snaps := make([]Snapshot, 0, len(e.reminders))
	for _, r := range e.reminders {
		if r.state.Load() != statePending {
			continue
		}
		snaps = append(snaps, Snapshot{ID: r.ID, At: r.At, Text: r.Text})
	}
	e.mu.Unlock()

	sort.Slice(snaps, func(i, j int) bool { return snaps[i].At.Before(snaps[j].At) })
	return snaps
}

// Close cancels every pending reminder and stops announcements.
func (e *Engine) Close() {
	e.mu.Lock()
	for id, r := range e.reminders {
		if r.state.CompareAndSwap(statePending, stateCancelled) {
			r.after.Stop()
			e.metrics.ActiveReminders.Add(context.Background(), -1)
		}
		delete(e.reminders, id)
	}
	e.mu.Unlock()
	e.cancel()
}

// remove drops a reminder from the map and decrements the gauge.
func (e *Engine) remove(id uuid.UUID) {
	e.mu.Lock()
	_, ok := e.reminders[id]
	delete(e.reminders, id)
	e.mu.Unlock()
	if ok {
		e.metrics.ActiveReminders.Add(e.ctx, -1)
	}
}
