// Package command routes transcribed speech to exactly one handler. Every
// command self-rates its confidence against the input text; the dispatcher
// picks the strictly highest scorer, so new commands plug in by implementing
// [Command] and registering — nothing else in the pipeline changes.
package command

import "context"

// Action is a control signal a handler can attach to its response.
type Action int

const (
	// ActionNone speaks the response and returns to wake-word listening.
	ActionNone Action = iota

	// ActionExit asks the pipeline to shut down after speaking.
	ActionExit

	// ActionContinue asks the pipeline to skip the wake-word gate and
	// listen again immediately after speaking, within a grace window.
	ActionContinue
)

// Response is the outcome of handling one utterance. An empty Text means
// nothing is spoken.
type Response struct {
	Text   string
	Action Action
}

// Command is a single voice command. Score reports confidence in [0, 1]
// that the text addresses this command; zero means "not mine". Handle is
// invoked only on the winning command.
type Command interface {
	Name() string
	Score(text string) float64
	Handle(ctx context.Context, text string) (Response, error)
}

// Gate decides whether an utterance reaches the dispatcher at all. Sleep
// mode is a Gate: while asleep, everything except the wake-up phrase is
// discarded unspoken.
type Gate interface {
	// Allow reports whether text may be dispatched. When false, the
	// optional response is spoken instead (empty means stay silent).
	Allow(text string) (bool, Response)
}

// Func adapts plain functions to the Command interface, mainly for tests.
type Func struct {
	CmdName   string
	ScoreFunc func(string) float64
	HandleFn  func(context.Context, string) (Response, error)
}

func (f Func) Name() string { return f.CmdName }

func (f Func) Score(text string) float64 { return f.ScoreFunc(text) }

func (f Func) Handle(ctx context.Context, text string) (Response, error) {
	return f.HandleFn(ctx, text)
}
