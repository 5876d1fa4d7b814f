package builtin

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MrWong99/fireside/internal/command"
	"github.com/MrWong99/fireside/internal/command/template"
	"github.com/MrWong99/fireside/internal/timer"
)

// TimerCommand starts, cancels, and reports countdown timers by voice.
type TimerCommand struct {
	set    *template.Set
	cancel *template.Set
	named  *template.Set
	query  *template.Set
	engine *timer.Engine
}

var _ command.Command = (*TimerCommand)(nil)

// NewTimerCommand creates the timer command bound to engine.
func NewTimerCommand(engine *timer.Engine) *TimerCommand {
	return &TimerCommand{
		set: template.NewSet(
			"[set|start] [a|the] timer for $duration",
			"[set|start] timer for $duration",
			"[set|start] a $duration timer",
			"timer for $duration",
		),
		named: template.NewSet(
			"[cancel|stop] [the|my] $name timer",
		),
		cancel: template.NewSet(
			"[cancel|stop] [the|my] timer",
			"[cancel|stop] timer",
		),
		query: template.NewSet(
			"how [much time|long] is left [on the timer|on my timer]",
			"how [much time|long] is left",
			"what timers [are running|do i have]",
			"do i have any timers",
		),
		engine: engine,
	}
}

func (c *TimerCommand) Name() string { return "timer" }

func (c *TimerCommand) Score(text string) float64 {
	for _, set := range []*template.Set{c.set, c.named, c.cancel, c.query} {
		if s := set.Score(text); s > 0 {
			return s
		}
	}
	return template.KeywordScore(text, "timer") * 0.5
}

func (c *TimerCommand) Handle(ctx context.Context, text string) (command.Response, error) {
	if caps, ok := c.set.Match(text); ok {
		return c.start(caps["duration"]), nil
	}
	if caps, ok := c.named.Match(text); ok {
		return c.cancelNamed(caps["name"]), nil
	}
	if _, ok := c.cancel.Match(text); ok {
		return c.cancelNewest(), nil
	}
	if _, ok := c.query.Match(text); ok {
		return c.report(), nil
	}
	// Keyword-scored win without a recognized phrase shape.
	return command.Response{
		Text: "I can set, cancel, or check a timer. For example: set a timer for five minutes.",
	}, nil
}

func (c *TimerCommand) start(phrase string) command.Response {
	t, err := c.engine.StartPhrase(phrase)
	switch {
	case errors.Is(err, timer.ErrNoDuration):
		return command.Response{
			Text:   fmt.Sprintf("I did not catch a duration in %q. How long should the timer be?", phrase),
			Action: command.ActionContinue,
		}
	case errors.Is(err, timer.ErrConflict):
		return command.Response{Text: "You already have a timer with that length running."}
	case err != nil:
		return command.Response{Text: "Sorry, I could not start that timer."}
	}
	return command.Response{Text: fmt.Sprintf("Timer set for %s.", timer.FormatDuration(t.Duration))}
}

func (c *TimerCommand) cancelNamed(captured string) command.Response {
	name := strings.TrimSpace(captured)
	if !strings.HasSuffix(name, "timer") {
		name += " timer"
	}
	if err := c.engine.CancelName(name); err != nil {
		return command.Response{Text: fmt.Sprintf("I do not have a %s running.", name)}
	}
	return command.Response{Text: fmt.Sprintf("Cancelled your %s.", name)}
}

func (c *TimerCommand) cancelNewest() command.Response {
	name, err := c.engine.CancelNewest()
	if err != nil {
		return command.Response{Text: "There are no timers running."}
	}
	return command.Response{Text: fmt.Sprintf("Cancelled your %s.", name)}
}

func (c *TimerCommand) report() command.Response {
	snaps := c.engine.List()
	switch len(snaps) {
	case 0:
		return command.Response{Text: "There are no timers running."}
	case 1:
		s := snaps[0]
		return command.Response{Text: fmt.Sprintf("Your %s has %s left.",
			s.Name, timer.FormatDuration(s.Remaining.Round(time.Second)))}
	}
	parts := make([]string, 0, len(snaps))
	for _, s := range snaps {
		parts = append(parts, fmt.Sprintf("your %s has %s left",
			s.Name, timer.FormatDuration(s.Remaining.Round(time.Second))))
	}
	return command.Response{Text: strings.Join(parts, ", and ") + "."}
}
