// Package stt defines the Transcriber interface for Speech-to-Text backends.
//
// Fireside records a complete utterance before transcribing it, so the
// contract is deliberately batch-shaped: one buffered utterance in, one text
// out. Streaming providers can still implement it by feeding the buffer
// through their streaming session and waiting for the final result.
//
// Implementations must be safe for concurrent use; the pipeline issues at
// most one Transcribe call at a time, but command handlers may hold a
// reference too.
package stt

import "context"

// Transcriber converts a buffered utterance to text.
type Transcriber interface {
	// Transcribe runs speech recognition over pcm (mono int16 samples at
	// sampleRate Hz) and returns the recognised text, stripped of leading and
	// trailing whitespace. An empty string means silence or unintelligible
	// audio and is not an error.
	Transcribe(ctx context.Context, pcm []int16, sampleRate int) (string, error)
}
