package resilience

import (
	"context"

	"github.com/MrWong99/fireside/pkg/audio"
	"github.com/MrWong99/fireside/pkg/provider/llm"
	"github.com/MrWong99/fireside/pkg/provider/stt"
	"github.com/MrWong99/fireside/pkg/provider/tts"
)

// STTFallback is an [stt.Transcriber] that fails over across multiple
// backends, each behind its own breaker.
type STTFallback struct {
	group *Group[stt.Transcriber]
}

var _ stt.Transcriber = (*STTFallback)(nil)

// NewSTTFallback wraps primary as the preferred transcriber.
func NewSTTFallback(primary stt.Transcriber, primaryName string, cfg GroupConfig) *STTFallback {
	return &STTFallback{group: NewGroup(primary, primaryName, cfg)}
}

// AddFallback registers an additional transcriber tried after the primary.
func (f *STTFallback) AddFallback(name string, t stt.Transcriber) {
	f.group.AddFallback(name, t)
}

// Transcribe runs the utterance through the first healthy backend.
func (f *STTFallback) Transcribe(ctx context.Context, pcm []int16, sampleRate int) (string, error) {
	return Do(f.group, func(t stt.Transcriber) (string, error) {
		return t.Transcribe(ctx, pcm, sampleRate)
	})
}

// TTSFallback is a [tts.Synthesizer] that fails over across multiple
// backends. A secondary Piper voice (or server) keeps the assistant audible
// when the primary is down.
type TTSFallback struct {
	group *Group[tts.Synthesizer]
}

var _ tts.Synthesizer = (*TTSFallback)(nil)

// NewTTSFallback wraps primary as the preferred synthesizer.
func NewTTSFallback(primary tts.Synthesizer, primaryName string, cfg GroupConfig) *TTSFallback {
	return &TTSFallback{group: NewGroup(primary, primaryName, cfg)}
}

// AddFallback registers an additional synthesizer tried after the primary.
func (f *TTSFallback) AddFallback(name string, s tts.Synthesizer) {
	f.group.AddFallback(name, s)
}

// Synthesize renders text through the first healthy backend.
func (f *TTSFallback) Synthesize(ctx context.Context, text string) (audio.Clip, error) {
	return Do(f.group, func(s tts.Synthesizer) (audio.Clip, error) {
		return s.Synthesize(ctx, text)
	})
}

// LLMFallback is an [llm.Provider] that fails over across multiple model
// backends, typically a hosted API with a local model behind it.
type LLMFallback struct {
	group *Group[llm.Provider]
}

var _ llm.Provider = (*LLMFallback)(nil)

// NewLLMFallback wraps primary as the preferred model backend.
func NewLLMFallback(primary llm.Provider, primaryName string, cfg GroupConfig) *LLMFallback {
	return &LLMFallback{group: NewGroup(primary, primaryName, cfg)}
}

// AddFallback registers an additional model backend tried after the primary.
func (f *LLMFallback) AddFallback(name string, p llm.Provider) {
	f.group.AddFallback(name, p)
}

// Complete runs the request through the first healthy backend.
func (f *LLMFallback) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	return Do(f.group, func(p llm.Provider) (*llm.CompletionResponse, error) {
		return p.Complete(ctx, req)
	})
}
