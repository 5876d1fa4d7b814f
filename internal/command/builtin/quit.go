package builtin

import (
	"context"
	"strings"

	"github.com/antzucaro/matchr"

	"github.com/MrWong99/fireside/internal/command"
)

// quitThreshold is the minimum Jaro-Winkler similarity against a known exit
// phrase. Transcription often mangles short imperatives ("good bye" comes
// back as "goodbye" or "could buy"), so exact matching alone misses too much.
const quitThreshold = 0.92

var quitPhrases = []string{
	"goodbye",
	"good bye",
	"bye bye",
	"shut down",
	"shutdown",
	"power off",
	"stop listening",
	"exit",
	"quit",
}

// QuitCommand ends the assistant after a farewell.
type QuitCommand struct{}

var _ command.Command = (*QuitCommand)(nil)

// NewQuitCommand creates the shutdown command.
func NewQuitCommand() *QuitCommand { return &QuitCommand{} }

func (c *QuitCommand) Name() string { return "quit" }

func (c *QuitCommand) Score(text string) float64 {
	normalized := strings.ToLower(strings.TrimSpace(strings.Trim(text, ".,!?")))
	best := 0.0
	for _, phrase := range quitPhrases {
		// longTolerance off: these phrases are short.
		if s := matchr.JaroWinkler(normalized, phrase, false); s > best {
			best = s
		}
	}
	if best < quitThreshold {
		return 0
	}
	return best
}

func (c *QuitCommand) Handle(ctx context.Context, text string) (command.Response, error) {
	return command.Response{
		Text:   "Goodbye.",
		Action: command.ActionExit,
	}, nil
}
