// Package audio defines the core audio transport types for the fireside
// pipeline: fixed-duration microphone frames, playable clips, and the Source
// and Sink interfaces implemented by platform backends.
//
// All PCM data is signed 16-bit little-endian mono. The pipeline operates at
// 16 kHz internally; clips at other rates are resampled before playback.
package audio

import (
	"context"
	"errors"
	"time"
)

// DefaultSampleRate is the pipeline's internal sample rate in Hz.
const DefaultSampleRate = 16000

// ErrSourceClosed is returned by Source.NextFrame after the source has been
// closed.
var ErrSourceClosed = errors.New("audio: source closed")

// Frame is a single fixed-duration block of microphone samples. Frames are
// immutable once produced; pipeline stages must not modify PCM in place.
type Frame struct {
	// PCM holds the mono samples of this frame.
	PCM []int16

	// Seq is the monotonic capture sequence index, starting at 0.
	Seq uint64

	// SampleRate in Hz.
	SampleRate int
}

// Duration returns the wall-clock length of the frame.
func (f Frame) Duration() time.Duration {
	if f.SampleRate <= 0 {
		return 0
	}
	return time.Duration(len(f.PCM)) * time.Second / time.Duration(f.SampleRate)
}

// Clip is a self-contained playable PCM buffer, e.g. a synthesized utterance
// or a sound-effect asset.
type Clip struct {
	// PCM holds the mono samples of the clip.
	PCM []int16

	// SampleRate in Hz.
	SampleRate int
}

// Duration returns the wall-clock length of the clip.
func (c Clip) Duration() time.Duration {
	if c.SampleRate <= 0 {
		return 0
	}
	return time.Duration(len(c.PCM)) * time.Second / time.Duration(c.SampleRate)
}

// Empty reports whether the clip contains no samples.
func (c Clip) Empty() bool { return len(c.PCM) == 0 }

// Source produces a continuous sequence of capture frames. Exactly one
// component may own a Source at a time; the fireside orchestrator holds the
// microphone exclusively.
//
// Implementations must deliver frames in strict Seq order and must not drop
// frames silently.
type Source interface {
	// NextFrame blocks until the next frame is available or ctx is cancelled.
	// After Close it returns ErrSourceClosed.
	NextFrame(ctx context.Context) (Frame, error)

	// Close stops capture and releases the device. Close is idempotent.
	Close() error
}

// Sink plays clips through the output device. Play blocks until the clip has
// been fully rendered, which is what serializes audible output for callers.
type Sink interface {
	// Play renders clip to the output device, blocking until playback
	// completes or ctx is cancelled.
	Play(ctx context.Context, clip Clip) error

	// Close releases the device. Close is idempotent.
	Close() error
}
