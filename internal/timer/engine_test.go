package timer_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/MrWong99/fireside/internal/observe"
	"github.com/MrWong99/fireside/internal/timer"
)

// recordingAnnouncer captures announcements and signals each arrival.
type recordingAnnouncer struct {
	mu    sync.Mutex
	texts []string
	ch    chan string
}

func newRecordingAnnouncer() *recordingAnnouncer {
	return &recordingAnnouncer{ch: make(chan string, 16)}
}

func (a *recordingAnnouncer) Say(ctx context.Context, text string) error {
	a.mu.Lock()
	a.texts = append(a.texts, text)
	a.mu.Unlock()
	a.ch <- text
	return nil
}

func (a *recordingAnnouncer) wait(t *testing.T) string {
	t.Helper()
	select {
	case text := <-a.ch:
		return text
	case <-time.After(5 * time.Second):
		t.Fatal("no announcement within timeout")
		return ""
	}
}

func newTestEngine(t *testing.T) (*timer.Engine, *recordingAnnouncer) {
	t.Helper()
	met, err := observe.NewMetrics(sdkmetric.NewMeterProvider())
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	a := newRecordingAnnouncer()
	e := timer.NewEngine(a, timer.WithMetrics(met))
	t.Cleanup(e.Close)
	return e, a
}

func TestEngine_FiresAndAnnounces(t *testing.T) {
	t.Parallel()
	e, a := newTestEngine(t)

	if _, err := e.Start(20*time.Millisecond, "five minute timer"); err != nil {
		t.Fatalf("Start: %v", err)
	}

	text := a.wait(t)
	if !strings.Contains(text, "five minute timer") {
		t.Errorf("announcement %q does not name the timer", text)
	}
	if !strings.Contains(text, "[[timer_done.wav]]") {
		t.Errorf("announcement %q missing completion sound marker", text)
	}
	if got := e.List(); len(got) != 0 {
		t.Errorf("fired timer still listed: %v", got)
	}
}

func TestEngine_Cancel(t *testing.T) {
	t.Parallel()
	e, a := newTestEngine(t)

	tm, err := e.Start(30*time.Millisecond, "")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := e.Cancel(tm.ID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	select {
	case text := <-a.ch:
		t.Fatalf("cancelled timer announced: %q", text)
	case <-time.After(100 * time.Millisecond):
	}
	if err := e.Cancel(tm.ID); !errors.Is(err, timer.ErrNotFound) {
		t.Errorf("second cancel: got %v, want ErrNotFound", err)
	}
}

func TestEngine_CancelFireRace(t *testing.T) {
	t.Parallel()
	e, a := newTestEngine(t)

	// Many timers with deadlines around "now"; cancel them all concurrently.
	// Each must either announce once or cancel cleanly, never both.
	const n = 50
	ids := make([]*timer.Timer, n)
	for i := range ids {
		tm, err := e.Start(time.Duration(i%5)*time.Millisecond+time.Millisecond, fmt.Sprintf("race timer %d", i))
		if err != nil {
			t.Fatalf("Start: %v", err)
		}
		ids[i] = tm
	}

	cancelled := 0
	for _, tm := range ids {
		if e.Cancel(tm.ID) == nil {
			cancelled++
		}
	}

	// All remaining timers fire well within this window.
	deadline := time.After(2 * time.Second)
	announced := 0
	for announced < n-cancelled {
		select {
		case <-a.ch:
			announced++
		case <-deadline:
			t.Fatalf("announced %d, cancelled %d, want total %d", announced, cancelled, n)
		}
	}

	// No extra announcements may trickle in.
	select {
	case text := <-a.ch:
		t.Fatalf("timer both cancelled and announced: %q", text)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestEngine_ListOrderedByRemaining(t *testing.T) {
	t.Parallel()
	e, _ := newTestEngine(t)

	if _, err := e.Start(time.Hour, "long timer"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := e.Start(time.Minute, "short timer"); err != nil {
		t.Fatalf("Start: %v", err)
	}

	got := e.List()
	if len(got) != 2 {
		t.Fatalf("List returned %d timers, want 2", len(got))
	}
	if got[0].Name != "short timer" || got[1].Name != "long timer" {
		t.Errorf("List order: %q, %q", got[0].Name, got[1].Name)
	}
}

func TestEngine_CancelNewest(t *testing.T) {
	t.Parallel()
	e, _ := newTestEngine(t)

	if _, err := e.Start(time.Minute, "short timer"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := e.Start(time.Hour, "long timer"); err != nil {
		t.Fatalf("Start: %v", err)
	}

	name, err := e.CancelNewest()
	if err != nil {
		t.Fatalf("CancelNewest: %v", err)
	}
	if name != "long timer" {
		t.Errorf("cancelled %q, want %q", name, "long timer")
	}
	if got := e.List(); len(got) != 1 || got[0].Name != "short timer" {
		t.Errorf("remaining timers: %v", got)
	}
}

func TestEngine_NameConflict(t *testing.T) {
	t.Parallel()
	e, _ := newTestEngine(t)

	if _, err := e.Start(5*time.Minute, ""); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := e.Start(5*time.Minute, ""); !errors.Is(err, timer.ErrConflict) {
		t.Errorf("duplicate name: got %v, want ErrConflict", err)
	}
	// Cancelling frees the name.
	if err := e.CancelName("five minute timer"); err != nil {
		t.Fatalf("CancelName: %v", err)
	}
	if _, err := e.Start(5*time.Minute, ""); err != nil {
		t.Errorf("Start after cancel: %v", err)
	}
}

func TestEngine_QueryFiltersByName(t *testing.T) {
	t.Parallel()
	e, _ := newTestEngine(t)

	if _, err := e.Start(time.Minute, "egg timer"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := e.Start(time.Hour, "laundry timer"); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if got := e.Query("egg timer"); len(got) != 1 || got[0].Name != "egg timer" {
		t.Errorf("Query(egg timer) = %v", got)
	}
	if got := e.Query(""); len(got) != 2 {
		t.Errorf("Query(\"\") returned %d, want 2", len(got))
	}
}

func TestEngine_StartRejectsNonPositive(t *testing.T) {
	t.Parallel()
	e, _ := newTestEngine(t)
	if _, err := e.Start(0, ""); err == nil {
		t.Error("Start(0) should fail")
	}
	if _, err := e.Start(-time.Second, ""); err == nil {
		t.Error("Start(-1s) should fail")
	}
}

func TestEngine_StartPhrase(t *testing.T) {
	t.Parallel()
	e, _ := newTestEngine(t)
	tm, err := e.StartPhrase("set a timer for five minutes")
	if err != nil {
		t.Fatalf("StartPhrase: %v", err)
	}
	if tm.Duration != 5*time.Minute {
		t.Errorf("duration = %v, want 5m", tm.Duration)
	}
	if tm.Name != "five minute timer" {
		t.Errorf("name = %q, want %q", tm.Name, "five minute timer")
	}
}
