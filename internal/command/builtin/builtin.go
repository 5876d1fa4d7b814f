// Package builtin provides the standard voice commands: time of day,
// greetings, timers, reminders, weather, sleep mode, repeating the last
// answer, open-ended questions, and shutting down. Registration order is
// the dispatcher's tie-break, so All returns the commands in a fixed order
// with the more specific phrase shapes first.
package builtin

import (
	"github.com/MrWong99/fireside/internal/command"
	"github.com/MrWong99/fireside/internal/config"
	"github.com/MrWong99/fireside/internal/reminder"
	"github.com/MrWong99/fireside/internal/timer"
	"github.com/MrWong99/fireside/pkg/provider/llm"
)

// Deps carries the shared services commands dispatch into. LLM may be nil,
// in which case the question command is omitted.
type Deps struct {
	Timers    *timer.Engine
	Reminders *reminder.Engine
	Sleep     *SleepState
	Last      LastSpeaker
	Weather   config.WeatherConfig
	LLM       llm.Provider
}

// All returns the builtin command set in registration order.
func All(deps Deps) []command.Command {
	cmds := []command.Command{
		NewTimerCommand(deps.Timers),
		NewReminderCommand(deps.Reminders),
		NewSleepCommand(deps.Sleep),
		NewRepeatCommand(deps.Last),
		NewClockCommand(),
		NewWeatherCommand(deps.Weather),
		NewGreetingCommand(),
		NewQuitCommand(),
	}
	if deps.LLM != nil {
		cmds = append(cmds, NewAskCommand(deps.LLM))
	}
	return cmds
}
