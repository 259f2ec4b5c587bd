// File path: internal/llm/providers/provider.go
package providers

import "context"

// Message is one chat turn sent to a provider.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Provider is the minimal chat contract the engine needs from a language
// model backend.
type Provider interface {
	Chat(ctx context.Context, messages []Message) (string, error)
	Name() string
}
