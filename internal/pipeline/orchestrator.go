package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrWong99/fireside/internal/command"
	"github.com/MrWong99/fireside/internal/config"
	"github.com/MrWong99/fireside/internal/observe"
	"github.com/MrWong99/fireside/internal/speech"
	"github.com/MrWong99/fireside/internal/transcript"
	"github.com/MrWong99/fireside/pkg/audio"
	"github.com/MrWong99/fireside/pkg/provider/stt"
	"github.com/MrWong99/fireside/pkg/provider/vad"
	"github.com/MrWong99/fireside/pkg/provider/wake"
)

// ErrExitRequested is returned by Run when a command asked the assistant to
// shut down. It signals a clean, user-initiated stop.
var ErrExitRequested = errors.New("pipeline: exit requested")

// emptyTranscriptResponse is spoken when transcription yields nothing, so a
// failed interaction never ends in silence.
const emptyTranscriptResponse = "I didn't catch that."

// Option is a functional option for configuring an Orchestrator.
type Option func(*Orchestrator)

// WithMetrics sets the metrics instance. Defaults to [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithAckSound plays the named sound marker (e.g. "[[wake.wav]]") after each
// wake detection, before recording begins. Empty disables the chime.
func WithAckSound(marker string) Option {
	return func(o *Orchestrator) { o.ackSound = marker }
}

// WithWakeModel sets the model label attached to wake-detection metrics.
func WithWakeModel(name string) Option {
	return func(o *Orchestrator) { o.wakeModel = name }
}

// WithCorrector applies a transcript corrector between transcription and
// dispatch. Nil (the default) dispatches the raw transcript.
func WithCorrector(c *transcript.Corrector) Option {
	return func(o *Orchestrator) { o.corrector = c }
}

// Orchestrator owns the microphone and drives the interaction cycle: idle
// wake-word listening, recording, transcription, dispatch, and speech.
// Announcements from timers and reminders are held back while an interaction
// is in flight and flow out through the speech channel afterwards.
//
// Exactly one Run call may be active at a time.
type Orchestrator struct {
	src        audio.Source
	detector   wake.Detector
	vadEngine  vad.Engine
	transcribe stt.Transcriber
	speech     *speech.Channel
	dispatch   *command.Dispatcher

	sampleRate int
	metrics    *observe.Metrics
	ackSound   string
	wakeModel  string
	corrector  *transcript.Corrector

	cfgMu sync.RWMutex
	cfg   config.PipelineConfig

	state atomic.Int32
}

// NewOrchestrator wires the pipeline stages together. sampleRate is the
// capture rate of src.
func NewOrchestrator(
	src audio.Source,
	detector wake.Detector,
	vadEngine vad.Engine,
	transcriber stt.Transcriber,
	ch *speech.Channel,
	dispatcher *command.Dispatcher,
	cfg config.PipelineConfig,
	sampleRate int,
	opts ...Option,
) *Orchestrator {
	o := &Orchestrator{
		src:        src,
		detector:   detector,
		vadEngine:  vadEngine,
		transcribe: transcriber,
		speech:     ch,
		dispatch:   dispatcher,
		cfg:        cfg,
		sampleRate: sampleRate,
		wakeModel:  "default",
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.metrics == nil {
		o.metrics = observe.DefaultMetrics()
	}
	return o
}

// State returns the current interaction phase.
func (o *Orchestrator) State() State {
	return State(o.state.Load())
}

// UpdateConfig swaps the pipeline tuning parameters. Thresholds and timeouts
// take effect from the next interaction; the in-flight one finishes under
// the old values.
func (o *Orchestrator) UpdateConfig(cfg config.PipelineConfig) {
	o.cfgMu.Lock()
	o.cfg = cfg
	o.cfgMu.Unlock()
}

func (o *Orchestrator) config() config.PipelineConfig {
	o.cfgMu.RLock()
	defer o.cfgMu.RUnlock()
	return o.cfg
}

func (o *Orchestrator) setState(ctx context.Context, s State) {
	prev := State(o.state.Swap(int32(s)))
	if prev != s {
		observe.Logger(ctx).Debug("pipeline state", "from", prev.String(), "to", s.String())
	}
}

// Run drives the interaction cycle until ctx is cancelled or a command
// requests shutdown (in which case it returns [ErrExitRequested]). A failure
// in any single interaction is logged and the pipeline returns to idle
// listening; only source-level failures end the loop.
func (o *Orchestrator) Run(ctx context.Context) error {
	cfg := o.config()
	session, err := o.vadEngine.NewSession(vad.Config{
		SampleRate:      o.sampleRate,
		SpeechThreshold: cfg.SpeechThreshold,
	})
	if err != nil {
		return fmt.Errorf("pipeline: create vad session: %w", err)
	}
	defer session.Close()

	log := observe.Logger(ctx)
	log.Info("pipeline running",
		"wake_threshold", cfg.WakeThreshold,
		"speech_threshold", cfg.SpeechThreshold,
		"sample_rate", o.sampleRate)

	skipWake := false
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if !skipWake {
			if err := o.awaitWake(ctx); err != nil {
				return err
			}
		}
		skipWake = false

		// The recorder is rebuilt each cycle so configuration reloads take
		// effect between interactions.
		rcfg := o.config()
		recorder := NewRecorder(session, RecorderConfig{
			SpeechThreshold: rcfg.SpeechThreshold,
			GraceTimeout:    rcfg.PostWakeGrace(),
			SilenceTimeout:  rcfg.SilenceTimeout(),
			MaxDuration:     rcfg.MaxRecord(),
		})

		action, err := o.interact(ctx, recorder)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Error("interaction failed, returning to idle", "error", err)
			continue
		}

		switch action {
		case command.ActionExit:
			log.Info("shutdown requested by voice command")
			return ErrExitRequested
		case command.ActionContinue:
			log.Debug("skipping wake gate for follow-up")
			skipWake = true
		}
	}
}

// awaitWake consumes frames until the detector score crosses the threshold.
// Repeated detections inside the debounce window are ignored so one spoken
// wake word cannot trigger twice.
func (o *Orchestrator) awaitWake(ctx context.Context) error {
	o.setState(ctx, StateIdle)
	cfg := o.config()
	var lastWake time.Time

	for {
		frame, err := o.src.NextFrame(ctx)
		if err != nil {
			return fmt.Errorf("pipeline: read frame: %w", err)
		}

		score, err := o.detector.Process(frame.PCM)
		if err != nil {
			o.metrics.RecordProviderError(ctx, "wake", "process")
			observe.Logger(ctx).Warn("wake detector error", "error", err)
			continue
		}
		if score < cfg.WakeThreshold {
			continue
		}
		if debounce := cfg.WakeDebounce(); !lastWake.IsZero() && time.Since(lastWake) < debounce {
			continue
		}
		lastWake = time.Now()

		observe.Logger(ctx).Info("wake word detected", "score", score)
		o.metrics.RecordWakeDetection(ctx, o.wakeModel)
		o.detector.Reset()
		return nil
	}
}

// interact runs one wake-to-response cycle and returns the control action of
// the spoken response.
func (o *Orchestrator) interact(ctx context.Context, recorder *Recorder) (command.Action, error) {
	ctx, span := observe.StartSpan(ctx, "interaction")
	defer span.End()

	start := time.Now()
	log := observe.Logger(ctx)

	// Defer timer and reminder announcements until this interaction has
	// played its response. The hold is taken before the acknowledgment so an
	// announcement landing in between cannot play while the user is already
	// speaking; the ack itself bypasses the gate.
	o.speech.Hold()
	released := false
	release := func() {
		if !released {
			released = true
			o.speech.Release()
		}
	}
	defer release()

	if o.ackSound != "" {
		if err := o.speech.Interject(ctx, o.ackSound); err != nil {
			log.Warn("wake acknowledgment failed", "error", err)
		}
	}

	o.setState(ctx, StateRecording)
	recStart := time.Now()
	pcm, rate, err := recorder.Record(ctx, o.src)
	o.metrics.RecordingDuration.Record(ctx, time.Since(recStart).Seconds())
	if errors.Is(err, ErrNoSpeech) {
		log.Debug("no speech after wake, abandoning")
		o.setState(ctx, StateIdle)
		return command.ActionNone, nil
	}
	if err != nil {
		return command.ActionNone, err
	}

	o.setState(ctx, StateTranscribing)
	sttStart := time.Now()
	text, err := o.transcribe.Transcribe(ctx, pcm, rate)
	o.metrics.STTDuration.Record(ctx, time.Since(sttStart).Seconds())
	if err != nil {
		o.metrics.RecordProviderError(ctx, "stt", "transcribe")
		return command.ActionNone, fmt.Errorf("pipeline: transcribe: %w", err)
	}
	if text == "" {
		log.Debug("empty transcript")
		o.setState(ctx, StateSpeaking)
		done, err := o.speech.Submit(ctx, emptyTranscriptResponse)
		if err != nil {
			return command.ActionNone, fmt.Errorf("pipeline: queue response: %w", err)
		}
		release()
		select {
		case <-done:
		case <-ctx.Done():
			return command.ActionNone, ctx.Err()
		}
		o.setState(ctx, StateIdle)
		return command.ActionNone, nil
	}
	if o.corrector != nil {
		corrected, fixes := o.corrector.Correct(text)
		for _, fix := range fixes {
			log.Debug("transcript corrected",
				"from", fix.Original, "to", fix.Corrected, "confidence", fix.Confidence)
		}
		text = corrected
	}
	log.Info("transcribed utterance", "text", text)

	o.setState(ctx, StateDispatching)
	resp := o.dispatch.Dispatch(ctx, text)

	o.setState(ctx, StateSpeaking)
	var done <-chan struct{}
	if resp.Text != "" {
		done, err = o.speech.Submit(ctx, resp.Text)
		if err != nil {
			return command.ActionNone, fmt.Errorf("pipeline: queue response: %w", err)
		}
	}
	release()
	if done != nil {
		select {
		case <-done:
		case <-ctx.Done():
			return command.ActionNone, ctx.Err()
		}
	}

	o.metrics.InteractionDuration.Record(ctx, time.Since(start).Seconds())
	o.setState(ctx, StateIdle)
	return resp.Action, nil
}
