// Package mock provides test doubles for the audio.Source and audio.Sink
// interfaces.
//
// Source replays a scripted frame sequence; Sink records every clip it is
// asked to play. Both are safe for concurrent use.
package mock

import (
	"context"
	"sync"
	"time"

	"github.com/MrWong99/fireside/pkg/audio"
)

// Source is a scripted audio.Source. NextFrame returns the queued frames in
// order; once the script is exhausted it returns Err if set, otherwise it
// blocks until ctx is cancelled (mimicking a silent microphone).
type Source struct {
	mu     sync.Mutex
	frames []audio.Frame
	seq    uint64
	closed bool

	// Err is returned after the scripted frames run out. Leave nil to block
	// instead.
	Err error
}

// NewSource creates a Source that replays the given PCM blocks as frames at
// the pipeline's default sample rate, assigning sequence numbers in order.
func NewSource(blocks ...[]int16) *Source {
	s := &Source{}
	for _, b := range blocks {
		s.Push(b)
	}
	return s
}

// Push appends one more frame to the script.
func (s *Source) Push(pcm []int16) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = append(s.frames, audio.Frame{
		PCM:        pcm,
		Seq:        s.seq,
		SampleRate: audio.DefaultSampleRate,
	})
	s.seq++
}

// NextFrame implements audio.Source.
func (s *Source) NextFrame(ctx context.Context) (audio.Frame, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return audio.Frame{}, audio.ErrSourceClosed
	}
	if len(s.frames) > 0 {
		f := s.frames[0]
		s.frames = s.frames[1:]
		s.mu.Unlock()
		return f, nil
	}
	err := s.Err
	s.mu.Unlock()

	if err != nil {
		return audio.Frame{}, err
	}
	<-ctx.Done()
	return audio.Frame{}, ctx.Err()
}

// Close implements audio.Source.
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Sink records played clips for assertions in tests.
type Sink struct {
	mu     sync.Mutex
	played []audio.Clip

	// PlayDelay, when non-zero, makes Play sleep to simulate real playback
	// duration. Useful for FIFO ordering tests.
	PlayDelay time.Duration

	// Err, when non-nil, is returned by every Play call.
	Err error
}

// Play implements audio.Sink.
func (s *Sink) Play(ctx context.Context, clip audio.Clip) error {
	if s.Err != nil {
		return s.Err
	}
	if s.PlayDelay > 0 {
		select {
		case <-time.After(s.PlayDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	s.mu.Lock()
	s.played = append(s.played, clip)
	s.mu.Unlock()
	return nil
}

// Close implements audio.Sink.
func (s *Sink) Close() error { return nil }

// Played returns a snapshot of all clips played so far.
func (s *Sink) Played() []audio.Clip {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]audio.Clip, len(s.played))
	copy(out, s.played)
	return out
}
