// File path: internal/enrich/analyst.go
package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/clearline/clientiq/internal/common"
	"github.com/clearline/clientiq/internal/llm"
	"github.com/clearline/clientiq/internal/recommend"
)

// Pitch is the structured output of the AI tier.
type Pitch struct {
	Headline      string   `json:"headline"`
	Summary       string   `json:"summary"`
	TalkingPoints []string `json:"talking_points"`
	Products      []string `json:"products,omitempty"`
	GeneratedBy   string   `json:"generated_by"`
}

// Analyst turns a recommendation list into a generated sales pitch via the
// configured language model. Malformed or failed model output falls back to a
// pitch assembled directly from the recommendation list; parse errors never
// reach the caller.
type Analyst struct {
	provider llm.Provider
}

func NewAnalyst(provider llm.Provider) *Analyst {
	return &Analyst{provider: provider}
}

// Pitch generates a pitch for the target. The boolean reports whether the
// result came from the model (true) or the rule-based fallback (false).
func (a *Analyst) Pitch(ctx context.Context, target string, recs []recommend.Recommendation) (Pitch, bool) {
	logger := common.Logger()
	if a == nil || a.provider == nil {
		return fallbackPitch(target, recs), false
	}
	prompt := buildPrompt(target, recs)
	reply, err := a.provider.Chat(ctx, []llm.Message{
		{Role: "system", Content: "You are a B2B sales analyst. Respond with a single JSON object containing headline, summary, and talking_points."},
		{Role: "user", Content: prompt},
	})
	if err != nil {
		logger.Warn("enrich: pitch generation failed, using fallback", "target", target, "error", err)
		return fallbackPitch(target, recs), false
	}
	pitch, err := parsePitch(reply)
	if err != nil {
		logger.Warn("enrich: malformed pitch payload, using fallback", "target", target, "error", err)
		return fallbackPitch(target, recs), false
	}
	pitch.GeneratedBy = a.provider.Name()
	if len(pitch.Products) == 0 {
		for _, rec := range recs {
			pitch.Products = append(pitch.Products, rec.ProductName)
		}
	}
	return pitch, true
}

func buildPrompt(target string, recs []recommend.Recommendation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Prepare a short sales pitch for %q covering these API products:\n", target)
	for _, rec := range recs {
		fmt.Fprintf(&b, "- %s (%s, confidence %d): %s\n", rec.ProductName, rec.PriorityTier, rec.Confidence, rec.Reasoning)
	}
	return b.String()
}

// parsePitch extracts the first JSON object embedded in the model reply.
func parsePitch(reply string) (Pitch, error) {
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start < 0 || end <= start {
		return Pitch{}, fmt.Errorf("no JSON object in reply")
	}
	var pitch Pitch
	if err := json.Unmarshal([]byte(reply[start:end+1]), &pitch); err != nil {
		return Pitch{}, fmt.Errorf("decode pitch: %w", err)
	}
	if strings.TrimSpace(pitch.Headline) == "" && strings.TrimSpace(pitch.Summary) == "" {
		return Pitch{}, fmt.Errorf("pitch payload empty")
	}
	return pitch, nil
}

func fallbackPitch(target string, recs []recommend.Recommendation) Pitch {
	pitch := Pitch{
		Headline:    fmt.Sprintf("Product opportunities for %s", target),
		GeneratedBy: "rules",
	}
	for _, rec := range recs {
		pitch.Products = append(pitch.Products, rec.ProductName)
		pitch.TalkingPoints = append(pitch.TalkingPoints, fmt.Sprintf("%s: %s", rec.ProductName, rec.Reasoning))
	}
	if len(recs) > 0 {
		pitch.Summary = fmt.Sprintf("%d products identified, starting with %s.", len(recs), recs[0].ProductName)
	} else {
		pitch.Summary = "No recommendation signals available yet."
	}
	return pitch
}
