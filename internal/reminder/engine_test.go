package reminder_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/MrWong99/fireside/internal/observe"
	"github.com/MrWong99/fireside/internal/reminder"
)

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

func newTestEngine(t *testing.T) (*reminder.Engine, *recordingAnnouncer) {
	t.Helper()
	met, err := observe.NewMetrics(sdkmetric.NewMeterProvider())
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	a := newRecordingAnnouncer()
	e := reminder.NewEngine(a, reminder.WithMetrics(met))
	t.Cleanup(e.Close)
	return e, a
}

func TestEngine_FiresAndAnnounces(t *testing.T) {
	t.Parallel()
	e, a := newTestEngine(t)

	if _, err := e.Add(time.Now().Add(30*time.Millisecond), "feed the cat"); err != nil {
		t.Fatalf("Add: %v", err)
	}

	select {
	case text := <-a.ch:
		if !strings.Contains(text, "feed the cat") {
			t.Errorf("announcement %q missing reminder text", text)
		}
		if !strings.Contains(text, "[[reminder.wav]]") {
			t.Errorf("announcement %q missing sound marker", text)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("reminder did not announce")
	}

	if got := e.List(); len(got) != 0 {
		t.Errorf("fired reminder still listed: %v", got)
	}
}

func TestEngine_RejectsPast(t *testing.T) {
	t.Parallel()
	e, _ := newTestEngine(t)
	if _, err := e.Add(time.Now().Add(-time.Minute), "too late"); !errors.Is(err, reminder.ErrPast) {
		t.Errorf("got %v, want ErrPast", err)
	}
}

func TestEngine_RejectsConflict(t *testing.T) {
	t.Parallel()
	e, _ := newTestEngine(t)
	at := time.Now().Add(time.Hour).Truncate(time.Minute)

	if _, err := e.Add(at, "water the plants"); err != nil {
		t.Fatalf("first Add: %v", err)
	}
	// Anything else in the same minute conflicts.
	if _, err := e.Add(at.Add(10*time.Second), "call the plumber"); !errors.Is(err, reminder.ErrConflict) {
		t.Errorf("got %v, want ErrConflict", err)
	}
	// A different minute is fine.
	if _, err := e.Add(at.Add(time.Minute), "call the plumber"); err != nil {
		t.Errorf("distinct minute rejected: %v", err)
	}
}

func TestEngine_Cancel(t *testing.T) {
	t.Parallel()
	e, a := newTestEngine(t)

	r, err := e.Add(time.Now().Add(50*time.Millisecond), "never announced")
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := e.Cancel(r.ID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	select {
	case text := <-a.ch:
		t.Fatalf("cancelled reminder announced: %q", text)
	case <-time.After(150 * time.Millisecond):
	}
}

func TestEngine_CancelAll(t *testing.T) {
	t.Parallel()
	e, _ := newTestEngine(t)

	for i, text := range []string{"one", "two", "three"} {
		if _, err := e.Add(time.Now().Add(time.Duration(i+1)*time.Hour), text); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
	if n := e.CancelAll(); n != 3 {
		t.Errorf("CancelAll = %d, want 3", n)
	}
	if got := e.List(); len(got) != 0 {
		t.Errorf("reminders remain after CancelAll: %v", got)
	}
}

func TestEngine_ListChronological(t *testing.T) {
	t.Parallel()
	e, _ := newTestEngine(t)

	later := time.Now().Add(2 * time.Hour)
	sooner := time.Now().Add(time.Hour)
	if _, err := e.Add(later, "second"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := e.Add(sooner, "first"); err != nil {
		t.Fatalf("Add: %v", err)
	}

	got := e.List()
	if len(got) != 2 || got[0].Text != "first" || got[1].Text != "second" {
		t.Errorf("List order wrong: %v", got)
	}
}
