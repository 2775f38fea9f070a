// Package ui renders pipeline results as styled terminal output for
// the one-shot ask command.
package ui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/marketlens/marketlens/internal/agent"
)

var headingStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("#4B9CD3")).
	Bold(true)

// Renderer converts Markdown to styled terminal output using glamour.
type Renderer struct {
	renderer *glamour.TermRenderer
}

// NewRenderer creates a renderer wrapped to the given width. A failed
// initialization degrades to plain-text passthrough.
func NewRenderer(width int) *Renderer {
	if width <= 0 {
		width = 80
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return &Renderer{}
	}
	return &Renderer{renderer: r}
}

// Render converts Markdown to styled terminal output. Returns the
// original text if rendering fails.
func (r *Renderer) Render(markdown string) string {
	if r == nil || r.renderer == nil {
		return markdown
	}

	rendered, err := r.renderer.Render(markdown)
	if err != nil {
		return markdown
	}
	return strings.TrimSuffix(rendered, "\n")
}

// Heading styles a section heading for direct terminal output.
func Heading(text string) string {
	return headingStyle.Render(text)
}

// FormatResult renders a pipeline result as Markdown, ready for Render.
func FormatResult(result *agent.Result, suggestions []string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "## %s answer\n\n", result.QuestionType)

	for _, finding := range result.Results {
		switch finding.Type {
		case "analytical":
			formatAnalytical(&b, finding)
		case "insight":
			formatInsight(&b, finding)
		}
	}

	if len(suggestions) > 0 {
		b.WriteString("### Try asking\n\n")
		for _, s := range suggestions {
			fmt.Fprintf(&b, "- %s\n", s)
		}
		b.WriteString("\n")
	}

	return strings.TrimRight(b.String(), "\n") + "\n"
}

func formatAnalytical(b *strings.Builder, finding agent.Finding) {
	b.WriteString("### Data analysis\n\n")

	if finding.Query != "" {
		fmt.Fprintf(b, "```sql\n%s\n```\n\n", strings.TrimSpace(finding.Query))
	}
	if finding.AgentResponse != "" {
		fmt.Fprintf(b, "%s\n\n", finding.AgentResponse)
	}
	if finding.Error != "" {
		fmt.Fprintf(b, "> Query failed: %s\n\n", finding.Error)
		return
	}
	if len(finding.SQLResults) > 0 {
		b.WriteString(markdownTable(finding.SQLResults))
		b.WriteString("\n")
	}
}

func formatInsight(b *strings.Builder, finding agent.Finding) {
	b.WriteString("### Insights\n\n")

	if finding.Analysis != "" {
		fmt.Fprintf(b, "%s\n\n", finding.Analysis)
	}
	if len(finding.Themes) > 0 {
		b.WriteString("**Themes**\n\n")
		for _, theme := range finding.Themes {
			fmt.Fprintf(b, "- %s\n", theme)
		}
		b.WriteString("\n")
	}
	if len(finding.Recommendations) > 0 {
		b.WriteString("**Recommendations**\n\n")
		for _, rec := range finding.Recommendations {
			fmt.Fprintf(b, "- %s\n", rec)
		}
		b.WriteString("\n")
	}
}

// markdownTable renders query rows as a Markdown table. Columns come
// out sorted so output is stable regardless of map iteration order.
func markdownTable(rows []map[string]any) string {
	if len(rows) == 0 {
		return ""
	}

	cols := make([]string, 0, len(rows[0]))
	for col := range rows[0] {
		cols = append(cols, col)
	}
	slices.Sort(cols)

	var b strings.Builder
	b.WriteString("| " + strings.Join(cols, " | ") + " |\n")
	b.WriteString("|" + strings.Repeat(" --- |", len(cols)) + "\n")

	for _, row := range rows {
		cells := make([]string, len(cols))
		for i, col := range cols {
			cells[i] = fmt.Sprintf("%v", row[col])
		}
		b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}
	return b.String()
}
