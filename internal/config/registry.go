package config

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/MrWong99/fireside/pkg/provider/llm"
	"github.com/MrWong99/fireside/pkg/provider/stt"
	"github.com/MrWong99/fireside/pkg/provider/tts"
	"github.com/MrWong99/fireside/pkg/provider/vad"
	"github.com/MrWong99/fireside/pkg/provider/wake"
)

// ErrProviderNotRegistered is returned by Create* methods when no factory has
// been registered under the requested provider name.
var ErrProviderNotRegistered = errors.New("config: provider not registered")

// Registry maps provider names to their constructor functions for each
// provider type. Factories receive a context because some providers dial a
// remote endpoint during construction. The registry is safe for concurrent use.
type Registry struct {
	mu   sync.RWMutex
	wake map[string]func(context.Context, ProviderEntry) (wake.Detector, error)
	vad  map[string]func(context.Context, ProviderEntry) (vad.Engine, error)
	stt  map[string]func(context.Context, ProviderEntry) (stt.Transcriber, error)
	tts  map[string]func(context.Context, ProviderEntry) (tts.Synthesizer, error)
	llm  map[string]func(context.Context, ProviderEntry) (llm.Provider, error)
}

// NewRegistry returns an empty, ready-to-use [Registry].
func NewRegistry() *Registry {
	return &Registry{
		wake: make(map[string]func(context.Context, ProviderEntry) (wake.Detector, error)),
		vad:  make(map[string]func(context.Context, ProviderEntry) (vad.Engine, error)),
		stt:  make(map[string]func(context.Context, ProviderEntry) (stt.Transcriber, error)),
		tts:  make(map[string]func(context.Context, ProviderEntry) (tts.Synthesizer, error)),
		llm:  make(map[string]func(context.Context, ProviderEntry) (llm.Provider, error)),
	}
}

// RegisterWake registers a wake-word detector factory under name.
// Subsequent calls with the same name overwrite the previous registration.
func (r *Registry) RegisterWake(name string, factory func(context.Context, ProviderEntry) (wake.Detector, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.wake[name] = factory
}

// RegisterVAD registers a voice-activity engine factory under name.
func (r *Registry) RegisterVAD(name string, factory func(context.Context, ProviderEntry) (vad.Engine, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.vad[name] = factory
}

// RegisterSTT registers a transcriber factory under name.
func (r *Registry) RegisterSTT(name string, factory func(context.Context, ProviderEntry) (stt.Transcriber, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stt[name] = factory
}

// RegisterTTS registers a synthesizer factory under name.
func (r *Registry) RegisterTTS(name string, factory func(context.Context, ProviderEntry) (tts.Synthesizer, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tts[name] = factory
}

// RegisterLLM registers a language-model provider factory under name.
func (r *Registry) RegisterLLM(name string, factory func(context.Context, ProviderEntry) (llm.Provider, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.llm[name] = factory
}

// CreateWake instantiates a wake-word detector using the factory registered
// under entry.Name. Returns [ErrProviderNotRegistered] if no factory has been
// registered for that name.
func (r *Registry) CreateWake(ctx context.Context, entry ProviderEntry) (wake.Detector, error) {
	r.mu.RLock()
	factory, ok := r.wake[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: wake/%q", ErrProviderNotRegistered, entry.Name)
	}
	return factory(ctx, entry)
}

// CreateVAD instantiates a voice-activity engine using the factory registered under entry.Name.
func (r *Registry) CreateVAD(ctx context.Context, entry ProviderEntry) (vad.Engine, error) {
	r.mu.RLock()
	factory, ok := r.vad[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: vad/%q", ErrProviderNotRegistered, entry.Name)
	}
	return factory(ctx, entry)
}

// CreateSTT instantiates a transcriber using the factory registered under entry.Name.
func (r *Registry) CreateSTT(ctx context.Context, entry ProviderEntry) (stt.Transcriber, error) {
	r.mu.RLock()
	factory, ok := r.stt[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: stt/%q", ErrProviderNotRegistered, entry.Name)
	}
	return factory(ctx, entry)
}

// CreateTTS instantiates a synthesizer using the factory registered under entry.Name.
func (r *Registry) CreateTTS(ctx context.Context, entry ProviderEntry) (tts.Synthesizer, error) {
	r.mu.RLock()
	factory, ok := r.tts[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: tts/%q", ErrProviderNotRegistered, entry.Name)
	}
	return factory(ctx, entry)
}

// CreateLLM instantiates a language-model provider using the factory registered under entry.Name.
func (r *Registry) CreateLLM(ctx context.Context, entry ProviderEntry) (llm.Provider, error) {
	r.mu.RLock()
	factory, ok := r.llm[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: llm/%q", ErrProviderNotRegistered, entry.Name)
	}
	return factory(ctx, entry)
}
