// Package agent implements the multi-agent pipeline that answers market
// research questions: a router classifies each question, a SQL agent
// drafts and executes analytical queries against the survey store, and
// an insights agent interprets retrieved verbatims. The agents share one
// model with retry and circuit-breaker protection around every call.
package agent

// Kind is the router's classification of a question.
type Kind string

const (
	// KindAnalytical questions are answered with a SQL query.
	KindAnalytical Kind = "analytical"
	// KindInsight questions are answered with qualitative analysis.
	KindInsight Kind = "insight"
	// KindHybrid questions need both.
	KindHybrid Kind = "hybrid"
	// KindVague questions cannot be answered and get follow-up
	// suggestions instead.
	KindVague Kind = "vague"
)

// Finding is one agent's contribution to an answer. Type is either
// "analytical" or "insight"; the remaining fields depend on which.
type Finding struct {
	Type            string           `json:"type"`
	AgentResponse   string           `json:"agent_response,omitempty"`
	Query           string           `json:"sql_query,omitempty"`
	SQLResults      []map[string]any `json:"sql_results,omitempty"`
	Analysis        string           `json:"analysis,omitempty"`
	Themes          []string         `json:"themes,omitempty"`
	Recommendations []string         `json:"recommendations,omitempty"`
	Error           string           `json:"error,omitempty"`
}

// Result is the full pipeline output for one question.
type Result struct {
	QuestionType Kind      `json:"question_type"`
	Results      []Finding `json:"results"`
}
