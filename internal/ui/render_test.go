package ui

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/marketlens/marketlens/internal/agent"
)

func TestFormatResult_Analytical(t *testing.T) {
	result := &agent.Result{
		QuestionType: agent.KindAnalytical,
		Results: []agent.Finding{{
			Type:          "analytical",
			Query:         "SELECT COUNT(*) AS n FROM all_responses",
			AgentResponse: "Counts all responses.",
			SQLResults: []map[string]any{
				{"n": "300"},
			},
		}},
	}

	md := FormatResult(result, nil)

	assert.Contains(t, md, "## analytical answer")
	assert.Contains(t, md, "```sql\nSELECT COUNT(*) AS n FROM all_responses\n```")
	assert.Contains(t, md, "Counts all responses.")
	assert.Contains(t, md, "| n |")
	assert.Contains(t, md, "| 300 |")
}

func TestFormatResult_QueryError(t *testing.T) {
	result := &agent.Result{
		QuestionType: agent.KindAnalytical,
		Results: []agent.Finding{{
			Type:  "analytical",
			Query: "SELECT nope",
			Error: "no such column: nope",
		}},
	}

	md := FormatResult(result, nil)
	assert.Contains(t, md, "> Query failed: no such column: nope")
}

func TestFormatResult_InsightWithSuggestions(t *testing.T) {
	result := &agent.Result{
		QuestionType: agent.KindVague,
		Results:      []agent.Finding{},
	}

	md := FormatResult(result, []string{"Would you like to know about response rates?"})
	assert.Contains(t, md, "### Try asking")
	assert.Contains(t, md, "- Would you like to know about response rates?")
}

func TestFormatResult_Hybrid(t *testing.T) {
	result := &agent.Result{
		QuestionType: agent.KindHybrid,
		Results: []agent.Finding{
			{Type: "analytical", Query: "SELECT 1"},
			{
				Type:            "insight",
				Analysis:        "Customers want longer battery life.",
				Themes:          []string{"battery"},
				Recommendations: []string{"Prioritize battery improvements."},
			},
		},
	}

	md := FormatResult(result, nil)

	// Analytical section precedes insights.
	assert.Less(t,
		strings.Index(md, "### Data analysis"),
		strings.Index(md, "### Insights"),
	)
	assert.Contains(t, md, "**Themes**")
	assert.Contains(t, md, "- battery")
	assert.Contains(t, md, "**Recommendations**")
}

func TestMarkdownTable_StableColumnOrder(t *testing.T) {
	table := markdownTable([]map[string]any{
		{"b": "2", "a": "1", "c": "3"},
	})

	assert.True(t, strings.HasPrefix(table, "| a | b | c |"))
	assert.Contains(t, table, "| 1 | 2 | 3 |")
}

func TestRenderer_FallbackWithoutRenderer(t *testing.T) {
	r := &Renderer{}
	assert.Equal(t, "# plain", r.Render("# plain"))
}

func TestRenderer_RendersMarkdown(t *testing.T) {
	r := NewRenderer(60)
	out := r.Render("# Heading\n\nSome text.")
	assert.Contains(t, out, "Heading")
	assert.Contains(t, out, "Some text.")
}
