package command

import (
	"context"
	"sync"

	"github.com/MrWong99/fireside/internal/observe"
)

// fallbackPrefix is echoed when no command claims an utterance.
const fallbackPrefix = "I heard you say: "

// errorResponse is spoken when the winning handler fails.
const errorResponse = "Sorry, something went wrong with that."

// Option is a functional option for configuring a Dispatcher.
type Option func(*Dispatcher)

// WithGate installs a pre-dispatch gate (e.g. sleep mode).
func WithGate(g Gate) Option {
	return func(d *Dispatcher) { d.gate = g }
}

// WithMetrics sets the metrics instance. Defaults to [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(d *Dispatcher) { d.metrics = m }
}

// Dispatcher holds the ordered command registry and routes each utterance to
// exactly one handler. Registration order matters only as a tie-break, so
// behaviour is deterministic. Safe for concurrent use, though the pipeline
// dispatches one utterance at a time.
type Dispatcher struct {
	commands []Command
	gate     Gate
	metrics  *observe.Metrics

	mu   sync.Mutex
	last string
}

// NewDispatcher creates a dispatcher over the given commands, which are
// consulted in the order given.
func NewDispatcher(commands []Command, opts ...Option) *Dispatcher {
	d := &Dispatcher{commands: commands}
	for _, o := range opts {
		o(d)
	}
	if d.metrics == nil {
		d.metrics = observe.DefaultMetrics()
	}
	return d
}

// Register appends commands to the registry. It exists because some commands
// need the dispatcher itself (the repeat command reads LastResponse), so they
// cannot all be constructed before it. Not safe to call once dispatching has
// begun.
func (d *Dispatcher) Register(commands ...Command) {
	d.commands = append(d.commands, commands...)
}

// Dispatch scores text against every registered command and invokes the
// strictly highest scorer, ties going to the first registered. A maximum
// score of zero falls through to a verbatim "I heard you say" echo. Handler
// errors become a spoken acknowledgment; they never propagate.
func (d *Dispatcher) Dispatch(ctx context.Context, text string) Response {
	log := observe.Logger(ctx)

	if d.gate != nil {
		if ok, resp := d.gate.Allow(text); !ok {
			d.metrics.RecordDispatch(ctx, "gate", "suppressed")
			log.Debug("dispatch suppressed by gate", "text", text)
			d.remember(resp)
			return resp
		}
	}

	var (
		winner Command
		best   float64
	)
	for _, c := range d.commands {
		score := c.Score(text)
		log.Debug("command scored", "command", c.Name(), "score", score)
		if score > best {
			winner, best = c, score
		}
	}

	if winner == nil {
		d.metrics.RecordDispatch(ctx, "fallback", "ok")
		resp := Response{Text: fallbackPrefix + text}
		d.remember(resp)
		return resp
	}

	log.Info("dispatching command", "command", winner.Name(), "score", best)
	resp, err := winner.Handle(ctx, text)
	if err != nil {
		log.Error("command handler failed", "command", winner.Name(), "error", err)
		d.metrics.RecordDispatch(ctx, winner.Name(), "error")
		resp = Response{Text: errorResponse}
		d.remember(resp)
		return resp
	}

	d.metrics.RecordDispatch(ctx, winner.Name(), "ok")
	d.remember(resp)
	return resp
}

// remember stores the spoken text for "say that again".
func (d *Dispatcher) remember(resp Response) {
	if resp.Text == "" {
		return
	}
	d.mu.Lock()
	d.last = resp.Text
	d.mu.Unlock()
}

// LastResponse returns the most recent non-empty spoken response.
func (d *Dispatcher) LastResponse() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.last
}
