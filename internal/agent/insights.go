package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/firebase/genkit/go/ai"

	"github.com/marketlens/marketlens/internal/knowledge"
)

const insightsSystem = `You are an insights specialist for market research survey data. You
excel at analyzing open-ended responses for themes, comparing sentiment
across demographics, identifying trends in customer satisfaction and
providing actionable recommendations grounded in the data.

You receive a selection of verbatim survey answers retrieved for the
question. Base your analysis on them; do not invent respondents or
numbers that are not supported by the excerpts.`

// insightDraft is the insights agent's structured output.
type insightDraft struct {
	Analysis        string   `json:"analysis"`
	Themes          []string `json:"themes,omitempty"`
	Recommendations []string `json:"recommendations,omitempty"`
}

// runInsight retrieves relevant verbatims and asks the model for a
// qualitative analysis. A failed retrieval is logged and the analysis
// proceeds without excerpts.
func (a *Agents) runInsight(ctx context.Context, question string, convCtx map[string]any) (Finding, error) {
	var excerpts []knowledge.Excerpt
	if a.knowledge != nil {
		var err error
		excerpts, err = a.knowledge.Search(ctx, question, knowledge.WithTopK(a.excerpts))
		if err != nil {
			a.logger.Warn("excerpt retrieval failed", "error", err)
		}
	}

	prompt := fmt.Sprintf(
		"Analyze this question and provide meaningful insights.\n\n"+
			"Question: %s\n\nContext: %s\n\nRelevant survey responses:\n%s\n\n"+
			"Focus on patterns in the data, demographic correlations, key findings "+
			"and their implications, and actionable recommendations.",
		question, formatContext(convCtx), formatExcerpts(excerpts),
	)

	resp, err := a.generateWithRetry(ctx,
		ai.WithModel(a.model),
		ai.WithSystem(insightsSystem),
		ai.WithPrompt(prompt),
		ai.WithOutputType(insightDraft{}),
	)
	if err != nil {
		return Finding{}, fmt.Errorf("generating insights: %w", err)
	}

	var draft insightDraft
	if err := resp.Output(&draft); err != nil {
		return Finding{}, fmt.Errorf("parsing insights: %w", err)
	}

	return Finding{
		Type:            string(KindInsight),
		Analysis:        draft.Analysis,
		Themes:          draft.Themes,
		Recommendations: draft.Recommendations,
	}, nil
}

func formatExcerpts(excerpts []knowledge.Excerpt) string {
	if len(excerpts) == 0 {
		return "(none retrieved)"
	}

	var b strings.Builder
	for i, e := range excerpts {
		fmt.Fprintf(&b, "%d. [brand %s, %s] %s\n", i+1, e.BrandID, e.QuestionText, e.Text)
	}
	return strings.TrimRight(b.String(), "\n")
}
