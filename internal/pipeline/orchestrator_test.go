package pipeline_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/MrWong99/fireside/internal/command"
	"github.com/MrWong99/fireside/internal/command/builtin"
	"github.com/MrWong99/fireside/internal/config"
	"github.com/MrWong99/fireside/internal/observe"
	"github.com/MrWong99/fireside/internal/pipeline"
	"github.com/MrWong99/fireside/internal/speech"
	"github.com/MrWong99/fireside/internal/timer"
	"github.com/MrWong99/fireside/pkg/audio"
	audiomock "github.com/MrWong99/fireside/pkg/audio/mock"
	sttmock "github.com/MrWong99/fireside/pkg/provider/stt/mock"
	ttsmock "github.com/MrWong99/fireside/pkg/provider/tts/mock"
	vadmock "github.com/MrWong99/fireside/pkg/provider/vad/mock"
	wakemock "github.com/MrWong99/fireside/pkg/provider/wake/mock"
)

// harness wires an orchestrator over mocks plus a live speech channel and
// timer engine, scripting one wake detection followed by one utterance.
type harness struct {
	src        *audiomock.Source
	detector   *wakemock.Detector
	synth      *ttsmock.Synthesizer
	transcribe *sttmock.Transcriber
	timers     *timer.Engine
	orch       *pipeline.Orchestrator

	cancel context.CancelFunc
	runErr chan error
}

func pipelineConfig() config.PipelineConfig {
	return config.PipelineConfig{
		WakeThreshold:    0.5,
		WakeDebounceMs:   1000,
		SpeechThreshold:  0.5,
		SilenceTimeoutMs: 90,
		MaxRecordMs:      3000,
		PostWakeGraceMs:  600,
	}
}

func newHarness(t *testing.T, transcripts ...string) *harness {
	t.Helper()

	met, err := observe.NewMetrics(sdkmetric.NewMeterProvider())
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	synth := &ttsmock.Synthesizer{}
	sink := &audiomock.Sink{}
	ch := speech.NewChannel(synth, sink, speech.WithMetrics(met))
	t.Cleanup(ch.Close)

	timers := timer.NewEngine(ch, timer.WithMetrics(met))
	t.Cleanup(timers.Close)

	sleep := builtin.NewSleepState()
	dispatcher := command.NewDispatcher(nil,
		command.WithGate(sleep), command.WithMetrics(met))
	dispatcher.Register(
		builtin.NewTimerCommand(timers),
		builtin.NewRepeatCommand(dispatcher),
		builtin.NewClockCommand(),
		builtin.NewQuitCommand(),
	)

	h := &harness{
		src:        audiomock.NewSource(),
		detector:   &wakemock.Detector{Scores: []float64{0.9}},
		synth:      synth,
		transcribe: &sttmock.Transcriber{Results: transcripts},
		timers:     timers,
		runErr:     make(chan error, 1),
	}

	vadEngine := &vadmock.Engine{SessionResult: &vadmock.Session{
		Probabilities: []float64{0.9, 0.9, 0.9, 0.9, 0.9, 0.1},
	}}

	h.orch = pipeline.NewOrchestrator(
		h.src, h.detector, vadEngine, h.transcribe, ch, dispatcher,
		pipelineConfig(), audio.DefaultSampleRate,
		pipeline.WithMetrics(met),
	)

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	t.Cleanup(cancel)

	go func() { _ = ch.Run(ctx) }()
	go func() { h.runErr <- h.orch.Run(ctx) }()
	return h
}

// scriptUtterance pushes one wake frame plus enough speech and silence
// frames for a single recorded utterance.
func (h *harness) scriptUtterance() {
	pcm := make([]int16, frameLen)
	for i := 0; i < 1+5+4; i++ {
		h.src.Push(pcm)
	}
}

// waitForSpeech polls until the synthesizer has seen at least n utterances.
func (h *harness) waitForSpeech(t *testing.T, n int) []string {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if texts := h.synth.Texts(); len(texts) >= n {
			return texts
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d spoken responses, got %v", n, h.synth.Texts())
	return nil
}

func TestWakeToTimerConfirmation(t *testing.T) {
	t.Parallel()
	h := newHarness(t, "set a timer for five minutes")
	h.scriptUtterance()

	texts := h.waitForSpeech(t, 1)
	if !strings.Contains(texts[0], "five minutes") {
		t.Errorf("confirmation = %q", texts[0])
	}

	snaps := h.timers.List()
	if len(snaps) != 1 {
		t.Fatalf("pending timers = %d, want 1", len(snaps))
	}
	if want := 5 * time.Minute; snaps[0].Remaining > want || snaps[0].Remaining < want-5*time.Second {
		t.Errorf("remaining = %v, want about %v", snaps[0].Remaining, want)
	}
	if h.detector.ResetCalls != 1 {
		t.Errorf("detector reset %d times, want 1", h.detector.ResetCalls)
	}
}

func TestQuitCommandStopsRun(t *testing.T) {
	t.Parallel()
	h := newHarness(t, "goodbye")
	h.scriptUtterance()

	h.waitForSpeech(t, 1)
	select {
	case err := <-h.runErr:
		if !errors.Is(err, pipeline.ErrExitRequested) {
			t.Fatalf("Run returned %v, want ErrExitRequested", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return after exit command")
	}
}

func TestEmptyTranscriptSpeaksFallback(t *testing.T) {
	t.Parallel()
	h := newHarness(t, "")
	h.scriptUtterance()

	// The cycle must end in speech, not silence, and must not exit.
	texts := h.waitForSpeech(t, 1)
	if len(texts) != 1 || !strings.Contains(texts[0], "didn't catch") {
		t.Errorf("spoke %v, want a single \"didn't catch that\" fallback", texts)
	}
	select {
	case err := <-h.runErr:
		t.Fatalf("Run returned early: %v", err)
	default:
	}
	if calls := h.transcribe.Calls(); len(calls) != 1 {
		t.Errorf("transcriber calls = %d, want 1", len(calls))
	}
	deadline := time.Now().Add(3 * time.Second)
	for h.orch.State() != pipeline.StateIdle {
		if time.Now().After(deadline) {
			t.Fatalf("state = %v, want idle", h.orch.State())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestSTTFailureResetsToIdle(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.transcribe.Err = errors.New("model crashed")
	h.scriptUtterance()

	time.Sleep(300 * time.Millisecond)
	select {
	case err := <-h.runErr:
		t.Fatalf("Run returned on a stage failure: %v", err)
	default:
	}
	if got := h.orch.State(); got != pipeline.StateIdle {
		t.Errorf("state = %v, want idle", got)
	}
}
