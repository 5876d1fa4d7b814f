// Package vad defines the Engine interface for Voice Activity Detection
// backends.
//
// A VAD engine wraps a frame-level speech detector (an energy heuristic or a
// neural model served out of process) and surfaces it as a stateful,
// per-stream session. Each session maintains its own smoothing state so that
// independent recordings do not contaminate one another.
//
// VAD is synchronous by design: ProcessFrame returns immediately with a
// probability, making it suitable for the per-frame hot path that bounds an
// utterance.
//
// Engines must be safe for concurrent use across sessions. A single Session
// must not be shared between goroutines unless the implementation documents
// otherwise.
package vad

// Config holds the parameters for a VAD session.
type Config struct {
	// SampleRate is the audio sample rate in Hz. Must match the rate of the
	// frames passed to ProcessFrame.
	SampleRate int

	// SpeechThreshold is the probability at or above which a frame counts as
	// speech. Range [0, 1]. Typical: 0.5.
	SpeechThreshold float64
}

// Session is an active VAD session for a single audio stream.
type Session interface {
	// ProcessFrame analyses one frame of mono int16 PCM and returns the
	// speech probability in [0, 1]. It must not block.
	ProcessFrame(frame []int16) (float64, error)

	// Reset clears accumulated detection state without closing the session.
	// Use when the stream restarts so stale state from the previous segment
	// does not affect subsequent frames.
	Reset()

	// Close releases session resources. Close is idempotent.
	Close() error
}

// Engine is the factory for VAD sessions.
type Engine interface {
	// NewSession creates a session ready to accept frames. Returns an error
	// if cfg is invalid or resources cannot be allocated.
	NewSession(cfg Config) (Session, error)
}
