package pipeline

// State is the interaction phase the pipeline is currently in. The pipeline
// is a strict cycle: idle listening until a wake word, then recording,
// transcribing, dispatching, and speaking, then back to idle. Failures in
// any phase return to StateIdle rather than stopping the pipeline.
type State int32

const (
	// StateIdle scans microphone frames for the wake word.
	StateIdle State = iota

	// StateRecording captures an utterance bounded by voice activity.
	StateRecording

	// StateTranscribing converts the captured audio to text.
	StateTranscribing

	// StateDispatching routes the transcript to a command handler.
	StateDispatching

	// StateSpeaking plays the response and any deferred announcements.
	StateSpeaking
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRecording:
		return "recording"
	case StateTranscribing:
		return "transcribing"
	case StateDispatching:
		return "dispatching"
	case StateSpeaking:
		return "speaking"
	default:
		return "unknown"
	}
}
