package speech_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/MrWong99/fireside/internal/observe"
	"github.com/MrWong99/fireside/internal/speech"
	audiomock "github.com/MrWong99/fireside/pkg/audio/mock"
	ttsmock "github.com/MrWong99/fireside/pkg/provider/tts/mock"
)

// newTestChannel wires a channel to mock synthesis and playback, running the
// worker until the test ends.
func newTestChannel(t *testing.T) (*speech.Channel, *ttsmock.Synthesizer, *audiomock.Sink) {
	t.Helper()
	synth := &ttsmock.Synthesizer{}
	sink := &audiomock.Sink{}

	met, err := observe.NewMetrics(sdkmetric.NewMeterProvider())
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	ch := speech.NewChannel(synth, sink, speech.WithMetrics(met))

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		_ = ch.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-stopped
	})
	return ch, synth, sink
}

func TestChannel_PlaysSubmittedText(t *testing.T) {
	t.Parallel()
	ch, synth, sink := newTestChannel(t)

	if err := ch.Say(context.Background(), "hello there"); err != nil {
		t.Fatalf("Say: %v", err)
	}

	if got := synth.Texts(); len(got) != 1 || got[0] != "hello there" {
		t.Errorf("synthesised texts = %v", got)
	}
	if played := sink.Played(); len(played) != 1 {
		t.Errorf("played %d clips, want 1", len(played))
	}
}

func TestChannel_FIFOOrder(t *testing.T) {
	t.Parallel()
	ch, synth, _ := newTestChannel(t)
	ctx := context.Background()

	var last <-chan struct{}
	for _, text := range []string{"first", "second", "third"} {
		done, err := ch.Submit(ctx, text)
		if err != nil {
			t.Fatalf("Submit(%q): %v", text, err)
		}
		last = done
	}

	select {
	case <-last:
	case <-time.After(5 * time.Second):
		t.Fatal("queue did not drain")
	}

	got := synth.Texts()
	want := []string{"first", "second", "third"}
	if len(got) != len(want) {
		t.Fatalf("synthesised %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestChannel_HoldDefersPlayback(t *testing.T) {
	t.Parallel()
	ch, synth, _ := newTestChannel(t)
	ctx := context.Background()

	ch.Hold()
	done, err := ch.Submit(ctx, "deferred")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	select {
	case <-done:
		t.Fatal("utterance played while gate was held")
	case <-time.After(100 * time.Millisecond):
	}
	if n := len(synth.Texts()); n != 0 {
		t.Fatalf("synthesised %d utterances while held", n)
	}

	ch.Release()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("utterance did not play after release")
	}
}

func TestChannel_NestedHolds(t *testing.T) {
	t.Parallel()
	ch, _, _ := newTestChannel(t)
	ctx := context.Background()

	ch.Hold()
	ch.Hold()
	done, err := ch.Submit(ctx, "nested")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	ch.Release()
	select {
	case <-done:
		t.Fatal("played after only one release of two holds")
	case <-time.After(100 * time.Millisecond):
	}

	ch.Release()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("did not play after final release")
	}
}

func TestChannel_SoundMarkersPlayClips(t *testing.T) {
	t.Parallel()
	synth := &ttsmock.Synthesizer{}
	sink := &audiomock.Sink{}
	met, err := observe.NewMetrics(sdkmetric.NewMeterProvider())
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	// No library configured: markers are stripped, text still plays.
	ch := speech.NewChannel(synth, sink, speech.WithMetrics(met))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = ch.Run(ctx) }()

	if err := ch.Say(ctx, "[[chime.wav]] done"); err != nil {
		t.Fatalf("Say: %v", err)
	}
	if got := synth.Texts(); len(got) != 1 || got[0] != "done" {
		t.Errorf("synthesised texts = %v, want [done]", got)
	}
	if played := sink.Played(); len(played) != 1 {
		t.Errorf("played %d clips, want 1 (sound marker should be skipped)", len(played))
	}
}

func TestChannel_SubmitAfterCloseFails(t *testing.T) {
	t.Parallel()
	ch, _, _ := newTestChannel(t)
	ch.Close()
	if _, err := ch.Submit(context.Background(), "late"); err == nil {
		t.Fatal("expected error submitting to closed channel")
	}
}

func TestChannel_SynthesisErrorDoesNotStopWorker(t *testing.T) {
	t.Parallel()
	ch, synth, _ := newTestChannel(t)
	ctx := context.Background()

	synth.Err = context.DeadlineExceeded
	if err := ch.Say(ctx, "will fail"); err != nil {
		t.Fatalf("Say should complete even on synthesis failure: %v", err)
	}

	synth.Err = nil
	if err := ch.Say(ctx, "works again"); err != nil {
		t.Fatalf("worker stopped after synthesis error: %v", err)
	}
}

func TestChannel_InterjectBypassesHold(t *testing.T) {
	t.Parallel()
	ch, synth, _ := newTestChannel(t)
	ctx := context.Background()

	ch.Hold()
	defer ch.Release()
	deferred, err := ch.Submit(ctx, "announcement")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if err := ch.Interject(ctx, "chime"); err != nil {
		t.Fatalf("Interject while held: %v", err)
	}

	// The interjection played; the queued announcement is still gated.
	if got := synth.Texts(); len(got) != 1 || got[0] != "chime" {
		t.Errorf("synthesised texts = %v, want [chime]", got)
	}
	select {
	case <-deferred:
		t.Fatal("held announcement played before release")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestChannel_CloseDuringSubmitBurst(t *testing.T) {
	t.Parallel()
	ch, _, _ := newTestChannel(t)
	ctx := context.Background()

	// Submitters race Close; a send must never hit a closed queue.
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			for j := 0; j < 100; j++ {
				if _, err := ch.Submit(ctx, "tick"); err != nil {
					if !errors.Is(err, speech.ErrChannelClosed) {
						t.Errorf("Submit: %v", err)
					}
					return
				}
			}
		}()
	}
	close(start)
	time.Sleep(time.Millisecond)
	ch.Close()
	wg.Wait()

	if _, err := ch.Submit(ctx, "late"); !errors.Is(err, speech.ErrChannelClosed) {
		t.Errorf("Submit after close = %v, want ErrChannelClosed", err)
	}
}

func TestChannel_DrainSettlesQueueGauge(t *testing.T) {
	t.Parallel()
	synth := &ttsmock.Synthesizer{}
	sink := &audiomock.Sink{}
	reader := sdkmetric.NewManualReader()
	met, err := observe.NewMetrics(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)))
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	ch := speech.NewChannel(synth, sink, speech.WithMetrics(met))

	// Queue up utterances with no worker running, then cancel a Run so it
	// drains them unplayed.
	for i := 0; i < 3; i++ {
		if _, err := ch.Submit(context.Background(), "queued"); err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := ch.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run = %v, want context.Canceled", err)
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "fireside.speech.queue_depth" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("queue_depth data type = %T", m.Data)
			}
			var total int64
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
			if total != 0 {
				t.Errorf("queue depth after drain = %d, want 0", total)
			}
			return
		}
	}
	t.Fatal("queue_depth metric not recorded")
}
