// File path: internal/llm/providers/local_test.go
package providers

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestLocalProviderProducesParseableJSON(t *testing.T) {
	provider := NewLocalProvider()
	reply, err := provider.Chat(context.Background(), []Message{
		{Role: "system", Content: "You are a sales analyst."},
		{Role: "user", Content: `Pitch for "Acme Pay"`},
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	var payload struct {
		Headline string `json:"headline"`
		Summary  string `json:"summary"`
	}
	if err := json.Unmarshal([]byte(reply), &payload); err != nil {
		t.Fatalf("local reply must be valid JSON: %v\n%s", err, reply)
	}
	if payload.Headline == "" {
		t.Fatalf("headline missing: %s", reply)
	}
	if !strings.Contains(payload.Summary, "Acme Pay") {
		t.Fatalf("summary should echo the prompt: %s", reply)
	}
}

func TestLocalProviderHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewLocalProvider().Chat(ctx, nil); err == nil {
		t.Fatalf("cancelled context must surface")
	}
}

func TestLocalProviderName(t *testing.T) {
	if got := NewLocalProvider().Name(); got != "local" {
		t.Fatalf("unexpected provider name %q", got)
	}
}
