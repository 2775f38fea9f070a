package agent

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/firebase/genkit/go/ai"
)

const routerSystem = `You are an expert at understanding the intent behind market research
questions about survey data. Classify each question as exactly one of:

- "analytical": requires SQL over the survey data (counts, averages,
  breakdowns, comparisons of ratings or demographics)
- "insight": requires qualitative analysis (themes, recommendations,
  interpretation of open-ended feedback)
- "hybrid": requires both numbers and interpretation
- "vague": too unclear or underspecified to answer either way

Use the conversation context to resolve references such as "that brand"
or "the previous question".`

// classification is the router's structured output.
type classification struct {
	QuestionType string `json:"question_type"`
	Reasoning    string `json:"reasoning,omitempty"`
}

// classify routes a question to one of the four kinds.
func (a *Agents) classify(ctx context.Context, question string, convCtx map[string]any) (Kind, error) {
	prompt := fmt.Sprintf("Question: %s\n\nContext: %s", question, formatContext(convCtx))

	resp, err := a.generateWithRetry(ctx,
		ai.WithModel(a.model),
		ai.WithSystem(routerSystem),
		ai.WithPrompt(prompt),
		ai.WithOutputType(classification{}),
	)
	if err != nil {
		return "", fmt.Errorf("classifying question: %w", err)
	}

	var out classification
	if err := resp.Output(&out); err != nil {
		return "", fmt.Errorf("parsing classification: %w", err)
	}

	kind := normalizeKind(out.QuestionType)
	a.logger.Debug("question classified",
		"kind", kind,
		"raw", out.QuestionType,
		"reasoning", out.Reasoning,
	)
	return kind, nil
}

// normalizeKind maps a raw classification string onto a Kind. Matching
// is by substring so "insight-based" still routes correctly; anything
// unrecognized falls back to hybrid, which runs both agents.
func normalizeKind(raw string) Kind {
	lower := strings.ToLower(raw)
	switch {
	case strings.Contains(lower, string(KindAnalytical)):
		return KindAnalytical
	case strings.Contains(lower, string(KindInsight)):
		return KindInsight
	case strings.Contains(lower, string(KindVague)):
		return KindVague
	default:
		return KindHybrid
	}
}

// formatContext renders the conversation context for inclusion in a
// prompt. Keys are emitted in sorted order so prompts are stable.
func formatContext(convCtx map[string]any) string {
	if len(convCtx) == 0 {
		return "(none)"
	}

	keys := make([]string, 0, len(convCtx))
	for k := range convCtx {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %v\n", k, convCtx[k])
	}
	return strings.TrimRight(b.String(), "\n")
}
