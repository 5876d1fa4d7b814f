// Package wake defines the Detector interface for wake-word backends.
//
// A wake detector wraps a streaming keyword-spotting model (e.g. an
// openWakeWord scoring service) and surfaces it as a stateful, per-stream
// scorer. Detectors typically require a fixed model chunk size that differs
// from the pipeline's frame size; implementations buffer internally and emit
// the highest score observed across the chunks completed by each frame.
//
// Detection is synchronous by design: Process returns immediately with a
// score, making it suitable for the per-frame hot path of the idle-listening
// state.
//
// A Detector maintains model state across calls and must not be shared
// between goroutines unless the implementation documents otherwise.
package wake

// Detector scores audio frames for wake-word presence.
type Detector interface {
	// Process feeds one frame of mono 16 kHz int16 PCM to the model and
	// returns the wake-word score in [0, 1] for the chunks completed by this
	// frame. Frames smaller than the model's chunk size are buffered; a score
	// of 0 is returned until a full chunk is available.
	Process(frame []int16) (float64, error)

	// Reset clears the internal audio buffer and model state. Call after a
	// detection so trailing wake-word audio does not re-trigger.
	Reset()

	// Close releases detector resources. Process after Close returns an
	// error. Close is idempotent.
	Close() error
}
