package builtin

import (
	"context"
	"fmt"
	"strings"

	"github.com/MrWong99/fireside/internal/command"
	"github.com/MrWong99/fireside/internal/speech"
	"github.com/MrWong99/fireside/pkg/provider/llm"
)

// askSystemPrompt keeps model answers suitable for speech output.
const askSystemPrompt = "You are a voice assistant. Answer in one or two " +
	"short spoken sentences. Plain prose only: no markdown, no lists, no " +
	"URLs. If you do not know, say so briefly."

// askScore is deliberately low so any purpose-built command outranks the
// model, while still clearing the fallback echo.
const askScore = 0.3

// questionOpeners mark utterances worth sending to the model.
var questionOpeners = []string{
	"who", "what", "when", "where", "why", "how",
	"is", "are", "was", "were", "can", "could", "should", "would",
	"do", "does", "did", "tell",
}

// AskCommand routes open-ended questions to the configured language model.
type AskCommand struct {
	provider llm.Provider
}

var _ command.Command = (*AskCommand)(nil)

// NewAskCommand creates the open-question command.
func NewAskCommand(p llm.Provider) *AskCommand {
	return &AskCommand{provider: p}
}

func (c *AskCommand) Name() string { return "ask" }

func (c *AskCommand) Score(text string) float64 {
	fields := strings.Fields(strings.ToLower(text))
	if len(fields) < 2 {
		return 0
	}
	first := strings.Trim(fields[0], ".,!?")
	for _, opener := range questionOpeners {
		if first == opener {
			return askScore
		}
	}
	if strings.HasSuffix(strings.TrimSpace(text), "?") {
		return askScore
	}
	return 0
}

func (c *AskCommand) Handle(ctx context.Context, text string) (command.Response, error) {
	resp, err := c.provider.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: askSystemPrompt,
		Messages:     []llm.Message{{Role: "user", Content: text}},
		Temperature:  0.4,
		MaxTokens:    200,
	})
	if err != nil {
		return command.Response{}, fmt.Errorf("builtin: ask: %w", err)
	}
	answer := strings.TrimSpace(speech.StripMarkers(resp.Content))
	if answer == "" {
		return command.Response{Text: "I do not have an answer for that."}, nil
	}
	return command.Response{Text: answer}, nil
}
