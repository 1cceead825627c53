package ai

import (
	"context"
	"errors"
)

// Message is a provider-agnostic chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Provider is a chat-completions backend.
type Provider interface {
	Chat(ctx context.Context, messages []Message) (string, error)
}

// ErrMissingAPIKey is returned before any network call when a provider
// requires a credential that was not configured.
var ErrMissingAPIKey = errors.New("ai: api key is not configured")
