// Package rms implements vad.Engine with a pure-Go RMS energy detector.
//
// The detector maps frame energy onto a pseudo-probability with a soft knee
// around the configured threshold and smooths it with a short exponential
// moving average, which suppresses single-frame transients (keyboard clicks,
// door slams) without the latency of a neural model. It is the default VAD
// backend; deployments wanting model-grade accuracy can point the pipeline at
// a served Silero instance instead.
package rms

import (
	"errors"
	"math"
	"sync"

	"github.com/MrWong99/fireside/pkg/provider/vad"
)

// Compile-time interface assertion.
var _ vad.Engine = (*Engine)(nil)

const (
	// defaultKneeRMS is the normalized RMS level mapped to probability 0.5.
	defaultKneeRMS = 0.012

	// smoothing is the EMA coefficient applied to per-frame probabilities.
	smoothing = 0.6
)

// Option is a functional option for configuring an Engine.
type Option func(*Engine)

// WithKnee sets the normalized RMS level (0–1 full scale) that maps to a
// speech probability of 0.5. Lower values make the detector more sensitive.
// Default: 0.012.
func WithKnee(level float64) Option {
	return func(e *Engine) {
		if level > 0 {
			e.knee = level
		}
	}
}

// Engine creates RMS VAD sessions. Safe for concurrent use.
type Engine struct {
	knee float64
}

// New returns an Engine with the supplied options applied.
func New(opts ...Option) *Engine {
	e := &Engine{knee: defaultKneeRMS}
	for _, o := range opts {
		o(e)
	}
	return e
}

// NewSession implements vad.Engine.
func (e *Engine) NewSession(cfg vad.Config) (vad.Session, error) {
	if cfg.SampleRate <= 0 {
		return nil, errors.New("rms: sample rate must be positive")
	}
	if cfg.SpeechThreshold < 0 || cfg.SpeechThreshold > 1 {
		return nil, errors.New("rms: speech threshold out of range [0, 1]")
	}
	return &session{knee: e.knee}, nil
}

// session holds the per-stream EMA state.
type session struct {
	mu     sync.Mutex
	knee   float64
	ema    float64
	primed bool
	closed bool
}

// ProcessFrame implements vad.Session.
func (s *session) ProcessFrame(frame []int16) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, errors.New("rms: session closed")
	}
	if len(frame) == 0 {
		return 0, errors.New("rms: empty frame")
	}

	level := normalizedRMS(frame)

	// Logistic knee: probability 0.5 at the knee level, saturating smoothly
	// on either side. The slope constant was tuned against 16 kHz speech.
	p := 1 / (1 + math.Exp(-(level-s.knee)/(s.knee/3)))

	if !s.primed {
		s.ema = p
		s.primed = true
	} else {
		s.ema = smoothing*p + (1-smoothing)*s.ema
	}
	return s.ema, nil
}

// Reset implements vad.Session.
func (s *session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ema = 0
	s.primed = false
}

// Close implements vad.Session.
func (s *session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// normalizedRMS returns the root-mean-square level of the frame scaled to
// [0, 1] full scale.
func normalizedRMS(frame []int16) float64 {
	var sum float64
	for _, v := range frame {
		f := float64(v)
		sum += f * f
	}
	return math.Sqrt(sum/float64(len(frame))) / 32768.0
}
