package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketlens/marketlens/internal/agent"
	"github.com/marketlens/marketlens/internal/knowledge"
)

type fakeProcessor struct {
	result *agent.Result
	err    error
	gotCtx map[string]any
}

func (f *fakeProcessor) Process(_ context.Context, _ string, convCtx map[string]any) (*agent.Result, error) {
	f.gotCtx = convCtx
	return f.result, f.err
}

type fakeSurvey struct {
	rows []map[string]any
	err  error
}

func (f *fakeSurvey) Query(context.Context, string) ([]map[string]any, error) {
	return f.rows, f.err
}

type fakeKnowledge struct {
	excerpts []knowledge.Excerpt
}

func (f *fakeKnowledge) Search(context.Context, string, ...knowledge.SearchOption) ([]knowledge.Excerpt, error) {
	return f.excerpts, nil
}

func validConfig() Config {
	return Config{
		Name:      "marketlens",
		Version:   "test",
		Processor: &fakeProcessor{result: &agent.Result{QuestionType: agent.KindInsight}},
		Survey:    &fakeSurvey{},
		Knowledge: &fakeKnowledge{},
	}
}

func TestNewServer_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing name", func(c *Config) { c.Name = "" }},
		{"missing version", func(c *Config) { c.Version = "" }},
		{"missing processor", func(c *Config) { c.Processor = nil }},
		{"missing survey", func(c *Config) { c.Survey = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			_, err := NewServer(cfg)
			assert.Error(t, err)
		})
	}
}

func TestNewServer_KnowledgeOptional(t *testing.T) {
	cfg := validConfig()
	cfg.Knowledge = nil
	_, err := NewServer(cfg)
	assert.NoError(t, err)
}

func textContent(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.Len(t, res.Content, 1)
	tc, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	return tc.Text
}

func TestProcessQuestionTool(t *testing.T) {
	proc := &fakeProcessor{result: &agent.Result{
		QuestionType: agent.KindAnalytical,
		Results:      []agent.Finding{{Type: "analytical", Query: "SELECT 1"}},
	}}
	cfg := validConfig()
	cfg.Processor = proc
	srv, err := NewServer(cfg)
	require.NoError(t, err)

	res, _, err := srv.processQuestion(context.Background(), nil, ProcessQuestionInput{
		Question: "How many responses?",
		BrandID:  "TechCorp",
	})
	require.NoError(t, err)

	assert.False(t, res.IsError)
	assert.Contains(t, textContent(t, res), `"question_type":"analytical"`)
	assert.Equal(t, "TechCorp", proc.gotCtx["brand_id"])
}

func TestProcessQuestionTool_Error(t *testing.T) {
	cfg := validConfig()
	cfg.Processor = &fakeProcessor{err: errors.New("model unavailable")}
	srv, err := NewServer(cfg)
	require.NoError(t, err)

	res, _, err := srv.processQuestion(context.Background(), nil, ProcessQuestionInput{Question: "q"})
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestQuerySurveyDataTool(t *testing.T) {
	cfg := validConfig()
	cfg.Survey = &fakeSurvey{rows: []map[string]any{{"n": "42"}}}
	srv, err := NewServer(cfg)
	require.NoError(t, err)

	res, _, err := srv.querySurveyData(context.Background(), nil, QueryInput{SQL: "SELECT COUNT(*) AS n FROM all_responses"})
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Contains(t, textContent(t, res), `"n":"42"`)
}

func TestQuerySurveyDataTool_Error(t *testing.T) {
	cfg := validConfig()
	cfg.Survey = &fakeSurvey{err: errors.New("unsafe query rejected")}
	srv, err := NewServer(cfg)
	require.NoError(t, err)

	res, _, err := srv.querySurveyData(context.Background(), nil, QueryInput{SQL: "DROP TABLE x"})
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, textContent(t, res), "unsafe query rejected")
}

func TestSearchResponsesTool(t *testing.T) {
	cfg := validConfig()
	cfg.Knowledge = &fakeKnowledge{excerpts: []knowledge.Excerpt{
		{ResponseID: "r1", BrandID: "TechCorp", Text: "Love the design."},
	}}
	srv, err := NewServer(cfg)
	require.NoError(t, err)

	res, _, err := srv.searchResponses(context.Background(), nil, SearchInput{Query: "design"})
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Contains(t, textContent(t, res), "Love the design.")
}
