package builtin

import (
	"context"
	"fmt"
	"time"

	"github.com/MrWong99/fireside/internal/command"
	"github.com/MrWong99/fireside/internal/command/template"
)

// ClockCommand answers "what time is it", "what day is it", and
// "what's the date".
type ClockCommand struct {
	timeSet *template.Set
	daySet  *template.Set
	dateSet *template.Set
	now     func() time.Time
}

var _ command.Command = (*ClockCommand)(nil)

// NewClockCommand creates the time, day, and date command.
func NewClockCommand() *ClockCommand {
	return &ClockCommand{
		timeSet: template.NewSet(
			"what time is it",
			"what is the time",
			"what's the time",
			"tell me the time",
			"do you have the time",
		),
		daySet: template.NewSet(
			"what day is it",
			"what day is it today",
			"what is today",
			"what day of the week is it",
		),
		dateSet: template.NewSet(
			"what is the date",
			"what's the date",
			"what's today's date",
			"what is today's date",
			"what date is it",
		),
		now: time.Now,
	}
}

func (c *ClockCommand) Name() string { return "clock" }

func (c *ClockCommand) Score(text string) float64 {
	for _, set := range []*template.Set{c.timeSet, c.daySet, c.dateSet} {
		if s := set.Score(text); s > 0 {
			return s
		}
	}
	return template.KeywordScore(text, "what", "time") * 0.6
}

func (c *ClockCommand) Handle(ctx context.Context, text string) (command.Response, error) {
	now := c.now()
	if _, ok := c.dateSet.Match(text); ok {
		return command.Response{
			Text: fmt.Sprintf("Today is %s, %s %d, %d.",
				now.Weekday(), now.Month(), now.Day(), now.Year()),
		}, nil
	}
	if _, ok := c.daySet.Match(text); ok {
		return command.Response{
			Text: fmt.Sprintf("Today is %s, %s %d.", now.Weekday(), now.Month(), now.Day()),
		}, nil
	}

	hour := now.Hour() % 12
	if hour == 0 {
		hour = 12
	}
	half := "AM"
	if now.Hour() >= 12 {
		half = "PM"
	}
	return command.Response{
		Text: fmt.Sprintf("It is %d:%02d %s.", hour, now.Minute(), half),
	}, nil
}
