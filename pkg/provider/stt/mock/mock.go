// Package mock provides a scripted stt.Transcriber for tests.
package mock

import (
	"context"
	"sync"

	"github.com/MrWong99/fireside/pkg/provider/stt"
)

// Compile-time assertion that Transcriber satisfies stt.Transcriber.
var _ stt.Transcriber = (*Transcriber)(nil)

// Transcriber returns scripted results in order. When the Results slice is
// exhausted the last entry is repeated; an empty script yields "".
type Transcriber struct {
	mu sync.Mutex

	// Results are returned one per Transcribe call, in order.
	Results []string
	// Err, when non-nil, is returned by every Transcribe call.
	Err error

	calls []Call
}

// Call records the input of a single Transcribe invocation.
type Call struct {
	PCM        []int16
	SampleRate int
}

// Transcribe pops the next scripted result, honouring ctx cancellation.
func (t *Transcriber) Transcribe(ctx context.Context, pcm []int16, sampleRate int) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls = append(t.calls, Call{PCM: pcm, SampleRate: sampleRate})
	if t.Err != nil {
		return "", t.Err
	}
	if len(t.Results) == 0 {
		return "", nil
	}
	res := t.Results[0]
	if len(t.Results) > 1 {
		t.Results = t.Results[1:]
	}
	return res, nil
}

// Calls returns a snapshot of all recorded Transcribe inputs.
func (t *Transcriber) Calls() []Call {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Call, len(t.calls))
	copy(out, t.calls)
	return out
}
