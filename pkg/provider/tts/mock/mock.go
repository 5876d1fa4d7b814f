// Package mock provides a recording tts.Synthesizer for tests.
package mock

import (
	"context"
	"sync"
	"time"

	"github.com/MrWong99/fireside/pkg/audio"
	"github.com/MrWong99/fireside/pkg/provider/tts"
)

// Compile-time assertion that Synthesizer satisfies tts.Synthesizer.
var _ tts.Synthesizer = (*Synthesizer)(nil)

// Synthesizer records every text it is asked to render and returns a short
// fixed clip per call, so queue and ordering behaviour can be observed
// without a real TTS backend.
type Synthesizer struct {
	mu sync.Mutex

	// Clip is returned by every Synthesize call. When its PCM is nil a
	// one-sample clip at 16 kHz is returned instead, so playback paths that
	// skip empty clips still run.
	Clip audio.Clip
	// Err, when non-nil, is returned by every Synthesize call.
	Err error
	// Delay, when non-zero, is slept (ctx-aware) before returning.
	Delay time.Duration

	texts []string
}

// Synthesize records text and returns the configured clip or error.
func (s *Synthesizer) Synthesize(ctx context.Context, text string) (audio.Clip, error) {
	if s.Delay > 0 {
		select {
		case <-time.After(s.Delay):
		case <-ctx.Done():
			return audio.Clip{}, ctx.Err()
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.texts = append(s.texts, text)
	if s.Err != nil {
		return audio.Clip{}, s.Err
	}
	if s.Clip.PCM == nil {
		return audio.Clip{PCM: []int16{0}, SampleRate: audio.DefaultSampleRate}, nil
	}
	return s.Clip, nil
}

// Texts returns a snapshot of all synthesised texts in call order.
func (s *Synthesizer) Texts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.texts))
	copy(out, s.texts)
	return out
}
