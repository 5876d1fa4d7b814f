// Package mock provides test doubles for the vad.Engine and vad.Session
// interfaces. Sessions return scripted probabilities, one per ProcessFrame
// call, repeating the final value once the script is exhausted.
package mock

import (
	"sync"

	"github.com/MrWong99/fireside/pkg/provider/vad"
)

// Compile-time interface assertions.
var (
	_ vad.Engine  = (*Engine)(nil)
	_ vad.Session = (*Session)(nil)
)

// Engine hands out its configured Session to every NewSession call.
type Engine struct {
	// SessionResult is returned by NewSession. When nil, a fresh empty
	// Session is returned instead.
	SessionResult *Session

	// Err, when non-nil, is returned by NewSession.
	Err error
}

// NewSession implements vad.Engine.
func (e *Engine) NewSession(cfg vad.Config) (vad.Session, error) {
	if e.Err != nil {
		return nil, e.Err
	}
	if e.SessionResult != nil {
		return e.SessionResult, nil
	}
	return &Session{}, nil
}

// Session is a scripted vad.Session.
type Session struct {
	mu sync.Mutex

	// Probabilities is consumed one value per ProcessFrame call. After the
	// script runs out, the last value keeps repeating (0 if empty).
	Probabilities []float64

	// Err, when non-nil, is returned by every ProcessFrame call.
	Err error

	idx        int
	ResetCalls int
}

// ProcessFrame implements vad.Session.
func (s *Session) ProcessFrame(frame []int16) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return 0, s.Err
	}
	if len(s.Probabilities) == 0 {
		return 0, nil
	}
	if s.idx >= len(s.Probabilities) {
		return s.Probabilities[len(s.Probabilities)-1], nil
	}
	p := s.Probabilities[s.idx]
	s.idx++
	return p, nil
}

// Reset implements vad.Session.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ResetCalls++
	s.idx = 0
}

// Close implements vad.Session.
func (s *Session) Close() error { return nil }
