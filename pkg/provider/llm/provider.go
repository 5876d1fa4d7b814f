// Package llm defines the Provider interface for language-model backends.
//
// The assistant uses a language model only for open-ended spoken questions,
// so the surface is a single batch completion call; streaming and tool
// calling are out of scope.
package llm

import "context"

// Message is a single turn in a conversation.
type Message struct {
	// Role is one of "system", "user", "assistant".
	Role string
	// Content is the plain-text message body.
	Content string
}

// CompletionRequest describes one completion call.
type CompletionRequest struct {
	// SystemPrompt, when non-empty, is prepended as a system message.
	SystemPrompt string
	// Messages is the conversation so far, oldest first.
	Messages []Message
	// Temperature controls sampling randomness; 0 leaves the backend default.
	Temperature float64
	// MaxTokens caps the response length; 0 leaves the backend default.
	MaxTokens int
}

// CompletionResponse is the model's reply.
type CompletionResponse struct {
	// Content is the plain-text assistant reply.
	Content string
}

// Provider is a language-model backend.
//
// Implementations must be safe for concurrent use.
type Provider interface {
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}
