// Package mock provides a test double for the wake.Detector interface.
//
// Scores are scripted per call: each Process invocation pops the next value
// from Scores, returning 0 once the script is exhausted.
package mock

import (
	"sync"

	"github.com/MrWong99/fireside/pkg/provider/wake"
)

// Compile-time interface assertion.
var _ wake.Detector = (*Detector)(nil)

// Detector is a scripted wake.Detector.
type Detector struct {
	mu sync.Mutex

	// Scores is consumed one value per Process call.
	Scores []float64

	// Err, when non-nil, is returned by every Process call.
	Err error

	// ProcessCalls counts Process invocations.
	ProcessCalls int

	// ResetCalls counts Reset invocations.
	ResetCalls int
}

// Process implements wake.Detector.
func (d *Detector) Process(frame []int16) (float64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.ProcessCalls++
	if d.Err != nil {
		return 0, d.Err
	}
	if len(d.Scores) == 0 {
		return 0, nil
	}
	s := d.Scores[0]
	d.Scores = d.Scores[1:]
	return s, nil
}

// Reset implements wake.Detector.
func (d *Detector) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ResetCalls++
}

// Close implements wake.Detector.
func (d *Detector) Close() error { return nil }
