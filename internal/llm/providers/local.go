// File path: internal/llm/providers/local.go
package providers

import (
	"context"
	"fmt"
	"strings"
)

// LocalProvider is a deterministic fallback used when no API key is
// configured. It answers with a minimal structured payload so downstream
// parsing keeps working in development environments.
type LocalProvider struct{}

func NewLocalProvider() *LocalProvider {
	return &LocalProvider{}
}

func (l *LocalProvider) Chat(ctx context.Context, messages []Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var prompt string
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role != "system" {
			prompt = messages[i].Content
			break
		}
	}
	summary := prompt
	if len(summary) > 80 {
		summary = summary[:80]
	}
	summary = strings.ReplaceAll(summary, `"`, "'")
	return fmt.Sprintf(`{"headline":"Draft pitch (offline provider)","summary":%q,"talking_points":["Review the recommendation list with the account team."]}`, summary), nil
}

func (l *LocalProvider) Name() string {
	return "local"
}
