package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/firebase/genkit/go/ai"
)

const sqlSystem = `You are a data analyst generating SQLite queries over flattened survey
response data. Each row is a single question response with these columns,
all stored as TEXT:

- Metadata: response_id, user_id, brand_id, survey_id, timestamp
- Question: question_id, question_type (rating, multiple_choice,
  open_ended, scale), question_text, question_group
- Answer: answer (the response value), scale_min, scale_max (for
  rating/scale questions), options (pipe-separated choices for
  multiple_choice questions)
- Demographics: age, gender, location, income_bracket, education

Rules:
- Numeric values (age, answers to rating/scale questions) are stored as
  strings and must be CAST, e.g. CAST(answer AS REAL).
- Always check question_type before casting answers; never cast
  multiple_choice or open_ended answers.
- Multiple choice options are pipe-separated strings.
- Generate a single read-only SELECT (or WITH) statement. No PRAGMA,
  no DDL, no mutations.`

// sqlDraft is the SQL agent's structured output.
type sqlDraft struct {
	Query       string `json:"query"`
	Explanation string `json:"explanation"`
}

// draftSQL asks the model for a query answering the question, grounded
// on the live schema of the survey store.
func (a *Agents) draftSQL(ctx context.Context, question string, convCtx map[string]any) (sqlDraft, error) {
	schema, err := a.survey.SchemaDescription(ctx)
	if err != nil {
		return sqlDraft{}, fmt.Errorf("describing schema: %w", err)
	}

	prompt := fmt.Sprintf(
		"Generate a SQL query to answer this analytical question.\n\n"+
			"Question: %s\n\nContext: %s\n\nAvailable tables and views:\n%s",
		question, formatContext(convCtx), schema,
	)

	resp, err := a.generateWithRetry(ctx,
		ai.WithModel(a.model),
		ai.WithSystem(sqlSystem),
		ai.WithPrompt(prompt),
		ai.WithOutputType(sqlDraft{}),
	)
	if err != nil {
		return sqlDraft{}, fmt.Errorf("drafting query: %w", err)
	}

	var draft sqlDraft
	if err := resp.Output(&draft); err != nil {
		return sqlDraft{}, fmt.Errorf("parsing query draft: %w", err)
	}

	if strings.TrimSpace(draft.Query) == "" {
		return sqlDraft{}, ErrNoQuery
	}
	return draft, nil
}

// runAnalytical drafts and executes a query for the question. Draft and
// execution problems degrade into a finding carrying the error; only
// model-call failures propagate as errors.
func (a *Agents) runAnalytical(ctx context.Context, question string, convCtx map[string]any) (Finding, error) {
	draft, err := a.draftSQL(ctx, question, convCtx)
	if err != nil {
		if errors.Is(err, ErrNoQuery) {
			return Finding{
				Type:  string(KindAnalytical),
				Error: ErrNoQuery.Error(),
			}, nil
		}
		return Finding{}, err
	}

	finding := Finding{
		Type:          string(KindAnalytical),
		AgentResponse: draft.Explanation,
		Query:         draft.Query,
	}

	rows, err := a.survey.Query(ctx, draft.Query)
	if err != nil {
		a.logger.Error("query execution failed",
			"query", draft.Query,
			"error", err,
		)
		finding.Error = err.Error()
		return finding, nil
	}

	finding.SQLResults = rows
	return finding, nil
}
