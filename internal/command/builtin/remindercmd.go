package builtin

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MrWong99/fireside/internal/command"
	"github.com/MrWong99/fireside/internal/command/template"
	"github.com/MrWong99/fireside/internal/reminder"
)

// ReminderCommand schedules, cancels, and lists spoken reminders.
type ReminderCommand struct {
	atTo    *template.Set
	toAt    *template.Set
	generic *template.Set
	cancel  *template.Set
	query   *template.Set
	engine  *reminder.Engine
	now     func() time.Time
}

var _ command.Command = (*ReminderCommand)(nil)

// NewReminderCommand creates the reminder command bound to engine.
func NewReminderCommand(engine *reminder.Engine) *ReminderCommand {
	return &ReminderCommand{
		atTo: template.NewSet(
			"remind me at $time to $task",
		),
		// Greedy so the task keeps its own "at"s: "remind me to go to bed
		// at nine" splits on the last one.
		toAt: template.NewGreedySet(
			"remind me to $task at $time",
		),
		// Catches day qualifiers before the time, e.g.
		// "remind me tomorrow at nine to take out the trash".
		generic: template.NewSet(
			"remind me $time to $task",
		),
		cancel: template.NewSet(
			"[cancel|delete|clear] [all|all my|my] reminders",
		),
		query: template.NewSet(
			"what reminders do i have",
			"[what are|list] my reminders",
			"do i have any reminders",
		),
		engine: engine,
		now:    time.Now,
	}
}

func (c *ReminderCommand) Name() string { return "reminder" }

func (c *ReminderCommand) Score(text string) float64 {
	for _, set := range []*template.Set{c.atTo, c.toAt, c.generic, c.cancel, c.query} {
		if s := set.Score(text); s > 0 {
			return s
		}
	}
	return template.KeywordScore(text, "reminder") * 0.5
}

func (c *ReminderCommand) Handle(ctx context.Context, text string) (command.Response, error) {
	for _, set := range []*template.Set{c.atTo, c.toAt, c.generic} {
		if caps, ok := set.Match(text); ok {
			return c.add(caps["time"], caps["task"]), nil
		}
	}
	if _, ok := c.cancel.Match(text); ok {
		n := c.engine.CancelAll()
		if n == 0 {
			return command.Response{Text: "You have no reminders."}, nil
		}
		return command.Response{Text: fmt.Sprintf("Cancelled %d %s.", n, plural(n, "reminder"))}, nil
	}
	if _, ok := c.query.Match(text); ok {
		return c.report(), nil
	}
	return command.Response{
		Text: "I can set or cancel reminders. For example: remind me at eight to feed the cat.",
	}, nil
}

func (c *ReminderCommand) add(when, what string) command.Response {
	now := c.now()
	at, err := reminder.ParseWhen(when, now)
	if err != nil {
		return command.Response{
			Text:   fmt.Sprintf("I did not catch a time in %q. When should I remind you?", when),
			Action: command.ActionContinue,
		}
	}

	what = reminder.FlipPronouns(what)
	_, err = c.engine.Add(at, what)
	switch {
	case errors.Is(err, reminder.ErrPast):
		return command.Response{Text: "That time has already passed."}
	case errors.Is(err, reminder.ErrConflict):
		return command.Response{
			Text:   "You already have a reminder at that time. Pick another time?",
			Action: command.ActionContinue,
		}
	case err != nil:
		return command.Response{Text: "Sorry, I could not set that reminder."}
	}
	return command.Response{
		Text: fmt.Sprintf("Okay, I will remind you %s to %s.", formatWhen(at, now), what),
	}
}

func (c *ReminderCommand) report() command.Response {
	snaps := c.engine.List()
	if len(snaps) == 0 {
		return command.Response{Text: "You have no reminders."}
	}
	now := c.now()
	parts := make([]string, 0, len(snaps))
	for _, s := range snaps {
		parts = append(parts, fmt.Sprintf("%s to %s", formatWhen(s.At, now), s.Text))
	}
	return command.Response{Text: fmt.Sprintf("You have %d %s: %s.",
		len(snaps), plural(len(snaps), "reminder"), strings.Join(parts, ", and "))}
}

// formatWhen renders a reminder time for speech, qualifying the day when it
// is not today.
func formatWhen(at, now time.Time) string {
	clock := at.Format("3:04 PM")
	ny, nm, nd := now.Date()
	ay, am, ad := at.Date()
	switch {
	case ny == ay && nm == am && nd == ad:
		return "at " + clock
	case at.Sub(now) < 48*time.Hour && at.Day() == now.AddDate(0, 0, 1).Day():
		return "tomorrow at " + clock
	default:
		return fmt.Sprintf("on %s at %s", at.Weekday(), clock)
	}
}

func plural(n int, noun string) string {
	if n == 1 {
		return noun
	}
	return noun + "s"
}
