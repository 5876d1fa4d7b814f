package builtin

import (
	"context"

	"github.com/MrWong99/fireside/internal/command"
	"github.com/MrWong99/fireside/internal/command/template"
)

// LastSpeaker exposes the most recent spoken response. *command.Dispatcher
// satisfies this.
type LastSpeaker interface {
	LastResponse() string
}

// RepeatCommand replays the previous answer on request.
type RepeatCommand struct {
	phrases *template.Set
	last    LastSpeaker
}

var _ command.Command = (*RepeatCommand)(nil)

// NewRepeatCommand creates the "say that again" command.
func NewRepeatCommand(last LastSpeaker) *RepeatCommand {
	return &RepeatCommand{
		phrases: template.NewSet(
			"say that again",
			"repeat that",
			"repeat",
			"what did you say",
			"can you repeat that",
			"can you say that again",
			"come again",
		),
		last: last,
	}
}

func (c *RepeatCommand) Name() string { return "repeat" }

func (c *RepeatCommand) Score(text string) float64 {
	return c.phrases.Score(text)
}

func (c *RepeatCommand) Handle(ctx context.Context, text string) (command.Response, error) {
	prev := c.last.LastResponse()
	if prev == "" {
		return command.Response{Text: "I have not said anything yet."}, nil
	}
	// Repeat verbatim so asking twice in a row stays stable.
	return command.Response{Text: prev}, nil
}
