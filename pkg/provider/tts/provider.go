// Package tts defines the Synthesizer interface for Text-to-Speech backends.
//
// Synthesis is batch-shaped: the pipeline serialises all spoken output
// through a single playback queue, so a provider returns one complete clip
// per request rather than a stream.
package tts

import (
	"context"

	"github.com/MrWong99/fireside/pkg/audio"
)

// Synthesizer renders text into a playable PCM clip.
//
// Implementations must be safe for concurrent use.
type Synthesizer interface {
	// Synthesize renders text into mono 16-bit PCM. The clip carries its own
	// sample rate; callers resample as needed before playback. Empty input
	// yields an empty clip and no error.
	Synthesize(ctx context.Context, text string) (audio.Clip, error)
}
