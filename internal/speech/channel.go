package speech

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/MrWong99/fireside/internal/observe"
	"github.com/MrWong99/fireside/pkg/audio"
	"github.com/MrWong99/fireside/pkg/provider/tts"
)

// ErrChannelClosed is returned by Submit after Close has been called.
var ErrChannelClosed = errors.New("speech: channel closed")

// defaultQueueSize bounds how many utterances may wait for playback. Timers
// and reminders firing in a burst queue up here; beyond this, Submit blocks.
const defaultQueueSize = 32

// urgentQueueSize bounds the jump-the-queue lane used for wake
// acknowledgments. It stays small: at most one interaction is active.
const urgentQueueSize = 4

// utterance is one queued piece of spoken output.
type utterance struct {
	text string
	done chan struct{}
}

// Option is a functional option for configuring a Channel.
type Option func(*Channel)

// WithLibrary sets the sound-effect library used to resolve inline [[name]]
// markers. Without a library, markers are stripped and only text is spoken.
func WithLibrary(lib *Library) Option {
	return func(c *Channel) { c.lib = lib }
}

// WithMetrics sets the metrics instance. Defaults to [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(c *Channel) { c.metrics = m }
}

// WithQueueSize overrides the playback queue capacity.
func WithQueueSize(n int) Option {
	return func(c *Channel) {
		if n > 0 {
			c.queue = make(chan *utterance, n)
		}
	}
}

// Channel serialises all spoken output. Utterances submitted from any
// goroutine are synthesised and played strictly in submission order by a
// single worker; at most one plays at a time.
//
// Hold and Release gate the worker between utterances: while held, the
// current utterance finishes but no new one starts. The pipeline holds the
// gate while it is listening so announcements never talk over a recording.
type Channel struct {
	synth   tts.Synthesizer
	sink    audio.Sink
	lib     *Library
	metrics *observe.Metrics

	queue  chan *utterance
	urgent chan *utterance // bypasses the hold gate and the FIFO queue

	gateMu sync.Mutex
	gateCh chan struct{} // closed while the gate is open
	holds  int

	// closeMu excludes Close from in-flight enqueues: senders hold the read
	// lock across the channel send so the queue is never closed mid-send.
	closeMu sync.RWMutex
	closed  bool
}

// NewChannel creates a speech output channel. Run must be called for
// submitted utterances to play.
func NewChannel(synth tts.Synthesizer, sink audio.Sink, opts ...Option) *Channel {
	open := make(chan struct{})
	close(open)
	c := &Channel{
		synth:  synth,
		sink:   sink,
		queue:  make(chan *utterance, defaultQueueSize),
		urgent: make(chan *utterance, urgentQueueSize),
		gateCh: open,
	}
	for _, o := range opts {
		o(c)
	}
	if c.metrics == nil {
		c.metrics = observe.DefaultMetrics()
	}
	return c
}

// Submit enqueues text for playback and returns a channel that is closed
// once the utterance has finished playing (or was abandoned due to an
// error or shutdown). Submit blocks only when the queue is full.
func (c *Channel) Submit(ctx context.Context, text string) (<-chan struct{}, error) {
	return c.enqueue(ctx, text, c.queue)
}

// enqueue places an utterance on lane. The read lock is held across the send
// so Close cannot close the lane underneath it.
func (c *Channel) enqueue(ctx context.Context, text string, lane chan *utterance) (<-chan struct{}, error) {
	c.closeMu.RLock()
	defer c.closeMu.RUnlock()
	if c.closed {
		return nil, ErrChannelClosed
	}

	u := &utterance{text: text, done: make(chan struct{})}
	select {
	case lane <- u:
		c.metrics.SpeechQueueDepth.Add(ctx, 1)
		return u.done, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Say submits text and waits for playback to finish.
func (c *Channel) Say(ctx context.Context, text string) error {
	done, err := c.Submit(ctx, text)
	if err != nil {
		return err
	}
	return c.await(ctx, done)
}

// Interject plays text ahead of the FIFO queue, ignoring the hold gate, and
// waits for it to finish. The utterance currently playing still completes
// first. The orchestrator uses this for the wake acknowledgment, which must
// sound while the gate is already held.
func (c *Channel) Interject(ctx context.Context, text string) error {
	done, err := c.enqueue(ctx, text, c.urgent)
	if err != nil {
		return err
	}
	return c.await(ctx, done)
}

func (c *Channel) await(ctx context.Context, done <-chan struct{}) error {
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Hold pauses the worker between utterances. The utterance currently
// playing finishes; nothing further starts until every Hold has been
// matched by a Release. Submissions are still accepted while held.
func (c *Channel) Hold() {
	c.gateMu.Lock()
	defer c.gateMu.Unlock()
	c.holds++
	if c.holds == 1 {
		c.gateCh = make(chan struct{})
	}
}

// Release undoes one Hold. Releasing an unheld gate is a no-op.
func (c *Channel) Release() {
	c.gateMu.Lock()
	defer c.gateMu.Unlock()
	if c.holds == 0 {
		return
	}
	c.holds--
	if c.holds == 0 {
		close(c.gateCh)
	}
}

// gate returns the channel that is closed while the gate is open.
func (c *Channel) gate() <-chan struct{} {
	c.gateMu.Lock()
	defer c.gateMu.Unlock()
	return c.gateCh
}

// Close stops accepting submissions. Queued utterances still play; Run
// returns once the queue drains.
func (c *Channel) Close() {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.queue)
	}
}

// Run is the playback worker loop. It returns when ctx is cancelled or,
// after Close, when the queue has drained. Pending done channels are closed
// on the way out so waiters never hang. Urgent utterances jump the queue and
// play even while the gate is held.
func (c *Channel) Run(ctx context.Context) error {
	for {
		select {
		case u := <-c.urgent:
			c.playNow(ctx, u)
			continue
		default:
		}

		var u *utterance
		select {
		case got := <-c.urgent:
			c.playNow(ctx, got)
			continue
		case got, ok := <-c.queue:
			if !ok {
				c.flushUrgent(ctx)
				return nil
			}
			u = got
		case <-ctx.Done():
			c.drain()
			return ctx.Err()
		}

		// Wait out any holds before starting playback.
	waitGate:
		for {
			select {
			case <-c.gate():
				break waitGate
			case got := <-c.urgent:
				c.playNow(ctx, got)
			case <-ctx.Done():
				c.abandon(u)
				c.drain()
				return ctx.Err()
			}
		}

		c.playNow(ctx, u)
	}
}

// playNow renders one dequeued utterance and settles its bookkeeping.
func (c *Channel) playNow(ctx context.Context, u *utterance) {
	c.metrics.SpeechQueueDepth.Add(ctx, -1)
	if err := c.play(ctx, u.text); err != nil {
		observe.Logger(ctx).Error("speech: playback failed", "error", err)
	}
	close(u.done)
}

// flushUrgent plays any urgent utterances still pending at shutdown.
func (c *Channel) flushUrgent(ctx context.Context) {
	for {
		select {
		case u := <-c.urgent:
			c.playNow(ctx, u)
		default:
			return
		}
	}
}

// abandon closes an unplayed utterance's done channel and settles the
// queue-depth gauge.
func (c *Channel) abandon(u *utterance) {
	c.metrics.SpeechQueueDepth.Add(context.Background(), -1)
	close(u.done)
}

// drain abandons all queued utterances, closing their done channels.
func (c *Channel) drain() {
	for {
		select {
		case u, ok := <-c.queue:
			if ok {
				c.abandon(u)
				continue
			}
		default:
		}
		break
	}
	for {
		select {
		case u := <-c.urgent:
			c.abandon(u)
		default:
			return
		}
	}
}

// play renders one utterance: text segments through TTS, sound segments from
// the library, all in order. A failed sound lookup is logged and skipped so
// the rest of the utterance still plays; a synthesis or playback failure
// aborts the utterance.
func (c *Channel) play(ctx context.Context, text string) error {
	for _, seg := range ParseSegments(text) {
		var clip audio.Clip
		switch seg.Kind {
		case SegmentText:
			start := time.Now()
			out, err := c.synth.Synthesize(ctx, seg.Value)
			c.metrics.TTSDuration.Record(ctx, time.Since(start).Seconds())
			if err != nil {
				c.metrics.RecordProviderError(ctx, "tts", "synthesize")
				return fmt.Errorf("speech: synthesize %q: %w", seg.Value, err)
			}
			clip = out
		case SegmentSound:
			if c.lib == nil {
				continue
			}
			out, err := c.lib.Get(seg.Value)
			if err != nil {
				observe.Logger(ctx).Warn("speech: unknown sound marker", "name", seg.Value, "error", err)
				continue
			}
			clip = out
		}
		if clip.Empty() {
			continue
		}
		if err := c.sink.Play(ctx, clip); err != nil {
			return fmt.Errorf("speech: play clip: %w", err)
		}
	}
	return nil
}
