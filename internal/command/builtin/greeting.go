package builtin

import (
	"context"
	"math/rand"
	"time"

	"github.com/MrWong99/fireside/internal/command"
	"github.com/MrWong99/fireside/internal/command/template"
)

// GreetingCommand replies to small-talk openers.
type GreetingCommand struct {
	phrases *template.Set
	pick    func(n int) int
}

var _ command.Command = (*GreetingCommand)(nil)

var greetingReplies = []string{
	"Hello there.",
	"Hi. What can I do for you?",
	"Hey. I am listening.",
}

// NewGreetingCommand creates the greeting command.
func NewGreetingCommand() *GreetingCommand {
	return &GreetingCommand{
		phrases: template.NewSet(
			"hello",
			"hi",
			"hey",
			"hi there",
			"hello there",
			"good morning",
			"good afternoon",
			"good evening",
			"how are you",
			"how are you doing",
		),
		pick: rand.Intn,
	}
}

func (c *GreetingCommand) Name() string { return "greeting" }

func (c *GreetingCommand) Score(text string) float64 {
	return c.phrases.Score(text)
}

func (c *GreetingCommand) Handle(ctx context.Context, text string) (command.Response, error) {
	switch {
	case containsWord(text, "morning"):
		return command.Response{Text: "Good morning."}, nil
	case containsWord(text, "afternoon"):
		return command.Response{Text: "Good afternoon."}, nil
	case containsWord(text, "evening"):
		hour := time.Now().Hour()
		if hour >= 17 || hour < 4 {
			return command.Response{Text: "Good evening."}, nil
		}
		return command.Response{Text: "A little early for that, but good evening."}, nil
	case containsWord(text, "how"):
		return command.Response{Text: "I am doing well, thank you for asking."}, nil
	}
	return command.Response{Text: greetingReplies[c.pick(len(greetingReplies))]}, nil
}
