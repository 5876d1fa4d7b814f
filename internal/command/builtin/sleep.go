package builtin

import (
	"context"
	"sync/atomic"

	"github.com/MrWong99/fireside/internal/command"
	"github.com/MrWong99/fireside/internal/command/template"
)

// SleepState tracks whether the assistant has been told to stand down.
// While asleep, the gate drops every utterance except a wake-up phrase, so
// the assistant still hears its wake word but acts on nothing else.
type SleepState struct {
	asleep atomic.Bool
	wake   *template.Set
}

var _ command.Gate = (*SleepState)(nil)

// NewSleepState creates an awake SleepState.
func NewSleepState() *SleepState {
	return &SleepState{
		wake: template.NewSet(
			"wake up",
			"wake up please",
			"please wake up",
			"i need you",
		),
	}
}

// Asleep reports whether the assistant is currently standing down.
func (s *SleepState) Asleep() bool { return s.asleep.Load() }

// Allow implements [command.Gate]. Awake, everything passes. Asleep, only a
// wake-up phrase gets a response; anything else is silently discarded.
func (s *SleepState) Allow(text string) (bool, command.Response) {
	if !s.asleep.Load() {
		return true, command.Response{}
	}
	if _, ok := s.wake.Match(text); ok {
		s.asleep.Store(false)
		return false, command.Response{Text: "I am awake."}
	}
	return false, command.Response{}
}

// SleepCommand puts the assistant into standby until a wake-up phrase.
type SleepCommand struct {
	phrases *template.Set
	state   *SleepState
}

var _ command.Command = (*SleepCommand)(nil)

// NewSleepCommand creates the standby command bound to state.
func NewSleepCommand(state *SleepState) *SleepCommand {
	return &SleepCommand{
		phrases: template.NewSet(
			"go to sleep",
			"go to bed",
			"sleep now",
			"good night",
			"goodnight",
		),
		state: state,
	}
}

func (c *SleepCommand) Name() string { return "sleep" }

func (c *SleepCommand) Score(text string) float64 {
	return c.phrases.Score(text)
}

func (c *SleepCommand) Handle(ctx context.Context, text string) (command.Response, error) {
	c.state.asleep.Store(true)
	return command.Response{Text: "Going to sleep. Say wake up when you need me."}, nil
}
