package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrWong99/fireside/internal/observe"
	"github.com/MrWong99/fireside/pkg/audio"
	"github.com/MrWong99/fireside/pkg/provider/vad"
)

// ErrNoSpeech is returned when no voice activity began within the grace
// window after a wake detection, i.e. the wake was spurious.
var ErrNoSpeech = errors.New("pipeline: no speech detected")

// speechDebounceFrames is how many consecutive speech-probability frames are
// needed before the recorder commits to an utterance. A single hot frame is
// usually a transient, not the start of speech.
const speechDebounceFrames = 3

// trimMargin is the audio kept on either side of the detected speech span so
// word onsets softened by the debounce are not cut.
const trimMargin = 250 * time.Millisecond

// RecorderConfig bounds a single utterance capture.
type RecorderConfig struct {
	// SpeechThreshold is the VAD probability at or above which a frame
	// counts as speech.
	SpeechThreshold float64

	// GraceTimeout is how long to wait for speech to begin before treating
	// the wake as spurious.
	GraceTimeout time.Duration

	// SilenceTimeout ends the utterance after this much continuous trailing
	// silence.
	SilenceTimeout time.Duration

	// MaxDuration force-ends the recording regardless of activity.
	MaxDuration time.Duration
}

// Recorder captures one VAD-bounded utterance from a frame source. A
// Recorder is stateless between calls; the per-call smoothing state lives in
// the session, which Record resets on entry.
type Recorder struct {
	session vad.Session
	cfg     RecorderConfig
}

// NewRecorder creates a recorder that bounds utterances with session.
func NewRecorder(session vad.Session, cfg RecorderConfig) *Recorder {
	return &Recorder{session: session, cfg: cfg}
}

// Record drains frames from src until the utterance ends, returning the
// captured PCM with leading and trailing silence trimmed to a small margin.
// It returns [ErrNoSpeech] when nothing was said within the grace window, so
// the caller can abandon a false wake without a transcription round-trip.
func (r *Recorder) Record(ctx context.Context, src audio.Source) ([]int16, int, error) {
	r.session.Reset()

	var (
		pcm          []int16
		sampleRate   int
		elapsed      time.Duration
		speechStart  = -1 // sample index where speech began
		speechEnd    = -1 // sample index just past the last speech sample
		speechRun    int
		silenceSince time.Duration
		started      bool
	)

	for {
		frame, err := src.NextFrame(ctx)
		if err != nil {
			return nil, 0, fmt.Errorf("pipeline: read frame: %w", err)
		}
		sampleRate = frame.SampleRate

		prob, err := r.session.ProcessFrame(frame.PCM)
		if err != nil {
			return nil, 0, fmt.Errorf("pipeline: vad: %w", err)
		}

		frameStart := len(pcm)
		pcm = append(pcm, frame.PCM...)
		elapsed += frame.Duration()

		if prob >= r.cfg.SpeechThreshold {
			speechRun++
			silenceSince = 0
			if !started && speechRun >= speechDebounceFrames {
				started = true
				// Rewind to the first frame of the run.
				speechStart = frameStart - (speechRun-1)*len(frame.PCM)
				if speechStart < 0 {
					speechStart = 0
				}
			}
			if started {
				speechEnd = len(pcm)
			}
		} else {
			speechRun = 0
			silenceSince += frame.Duration()
		}

		switch {
		case !started && elapsed >= r.cfg.GraceTimeout:
			return nil, 0, ErrNoSpeech
		case started && silenceSince >= r.cfg.SilenceTimeout:
			return trim(pcm, sampleRate, speechStart, speechEnd), sampleRate, nil
		case elapsed >= r.cfg.MaxDuration:
			if !started {
				return nil, 0, ErrNoSpeech
			}
			observe.Logger(ctx).Warn("recording hit maximum duration",
				"max", r.cfg.MaxDuration)
			return trim(pcm, sampleRate, speechStart, speechEnd), sampleRate, nil
		}
	}
}

// trim cuts pcm down to the speech span plus a margin on each side.
func trim(pcm []int16, sampleRate, start, end int) []int16 {
	margin := int(trimMargin.Seconds() * float64(sampleRate))
	start -= margin
	if start < 0 {
		start = 0
	}
	end += margin
	if end > len(pcm) {
		end = len(pcm)
	}
	if start >= end {
		return nil
	}
	return pcm[start:end]
}
