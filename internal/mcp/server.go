// Package mcp exposes the survey analysis pipeline as Model Context
// Protocol tools, so MCP-capable clients can ask questions, run
// read-only SQL and search verbatims over stdio.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/marketlens/marketlens/internal/agent"
	"github.com/marketlens/marketlens/internal/knowledge"
	"github.com/marketlens/marketlens/internal/log"
)

// Processor runs the agent pipeline for one question.
type Processor interface {
	Process(ctx context.Context, question string, convCtx map[string]any) (*agent.Result, error)
}

// SurveyQuerier executes read-only SQL against the survey store.
type SurveyQuerier interface {
	Query(ctx context.Context, query string) ([]map[string]any, error)
}

// ExcerptSearcher retrieves survey verbatims by semantic similarity.
type ExcerptSearcher interface {
	Search(ctx context.Context, query string, opts ...knowledge.SearchOption) ([]knowledge.Excerpt, error)
}

// Config holds MCP server configuration.
type Config struct {
	Name      string
	Version   string
	Processor Processor
	Survey    SurveyQuerier
	Knowledge ExcerptSearcher
	Logger    log.Logger
}

// Server wraps the MCP SDK server around the analysis pipeline.
type Server struct {
	mcpServer *mcp.Server
	processor Processor
	survey    SurveyQuerier
	knowledge ExcerptSearcher
	logger    log.Logger
}

// NewServer creates an MCP server with all tools registered.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("server name is required")
	}
	if cfg.Version == "" {
		return nil, fmt.Errorf("server version is required")
	}
	if cfg.Processor == nil {
		return nil, fmt.Errorf("processor is required")
	}
	if cfg.Survey == nil {
		return nil, fmt.Errorf("survey querier is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNop()
	}

	s := &Server{
		mcpServer: mcp.NewServer(&mcp.Implementation{
			Name:    cfg.Name,
			Version: cfg.Version,
		}, nil),
		processor: cfg.Processor,
		survey:    cfg.Survey,
		knowledge: cfg.Knowledge,
		logger:    logger,
	}

	if err := s.registerTools(); err != nil {
		return nil, fmt.Errorf("registering tools: %w", err)
	}
	return s, nil
}

// Run serves the MCP protocol on the given transport. Blocks until the
// context is canceled or the transport closes.
func (s *Server) Run(ctx context.Context, transport mcp.Transport) error {
	return s.mcpServer.Run(ctx, transport)
}

// ProcessQuestionInput is the input schema for the process_question tool.
type ProcessQuestionInput struct {
	Question string `json:"question" jsonschema:"The market research question to answer"`
	BrandID  string `json:"brand_id,omitempty" jsonschema:"Optional brand ID to scope the question (e.g. TechCorp)"`
}

// QueryInput is the input schema for the query_survey_data tool.
type QueryInput struct {
	SQL string `json:"sql" jsonschema:"A read-only SELECT statement over the survey_responses table or its views"`
}

// SearchInput is the input schema for the search_responses tool.
type SearchInput struct {
	Query string `json:"query" jsonschema:"Free-text query matched against open-ended survey answers"`
	TopK  int    `json:"top_k,omitempty" jsonschema:"Maximum number of excerpts to return (default 5)"`
	Brand string `json:"brand,omitempty" jsonschema:"Optional brand ID filter"`
}

func (s *Server) registerTools() error {
	questionSchema, err := jsonschema.For[ProcessQuestionInput](nil)
	if err != nil {
		return fmt.Errorf("schema for process_question: %w", err)
	}
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name: "process_question",
		Description: "Answer a market research question over survey data. " +
			"Routes the question through SQL analysis, qualitative insights, or both.",
		InputSchema: questionSchema,
	}, s.processQuestion)

	querySchema, err := jsonschema.For[QueryInput](nil)
	if err != nil {
		return fmt.Errorf("schema for query_survey_data: %w", err)
	}
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name: "query_survey_data",
		Description: "Run a read-only SQL query over flattened survey responses. " +
			"All columns are TEXT; CAST numeric answers before aggregating.",
		InputSchema: querySchema,
	}, s.querySurveyData)

	if s.knowledge != nil {
		searchSchema, err := jsonschema.For[SearchInput](nil)
		if err != nil {
			return fmt.Errorf("schema for search_responses: %w", err)
		}
		mcp.AddTool(s.mcpServer, &mcp.Tool{
			Name: "search_responses",
			Description: "Search open-ended survey answers by semantic similarity. " +
				"Returns verbatim excerpts with brand and question context.",
			InputSchema: searchSchema,
		}, s.searchResponses)
	}

	return nil
}

func (s *Server) processQuestion(ctx context.Context, _ *mcp.CallToolRequest, in ProcessQuestionInput) (*mcp.CallToolResult, any, error) {
	convCtx := map[string]any{}
	if in.BrandID != "" {
		convCtx["brand_id"] = in.BrandID
	}

	result, err := s.processor.Process(ctx, in.Question, convCtx)
	if err != nil {
		return errorResult(err), nil, nil
	}
	return dataResult(result), nil, nil
}

func (s *Server) querySurveyData(ctx context.Context, _ *mcp.CallToolRequest, in QueryInput) (*mcp.CallToolResult, any, error) {
	rows, err := s.survey.Query(ctx, in.SQL)
	if err != nil {
		return errorResult(err), nil, nil
	}
	return dataResult(map[string]any{"rows": rows}), nil, nil
}

func (s *Server) searchResponses(ctx context.Context, _ *mcp.CallToolRequest, in SearchInput) (*mcp.CallToolResult, any, error) {
	topK := in.TopK
	if topK <= 0 {
		topK = 5
	}

	opts := []knowledge.SearchOption{knowledge.WithTopK(topK)}
	if in.Brand != "" {
		opts = append(opts, knowledge.WithBrand(in.Brand))
	}

	excerpts, err := s.knowledge.Search(ctx, in.Query, opts...)
	if err != nil {
		return errorResult(err), nil, nil
	}
	return dataResult(map[string]any{"excerpts": excerpts}), nil, nil
}

// dataResult converts arbitrary data to MCP text content via JSON.
// All data becomes JSON; clients parse it.
func dataResult(data any) *mcp.CallToolResult {
	b, err := json.Marshal(data)
	if err != nil {
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: "marshal error"}},
			IsError: true,
		}
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(b)}},
	}
}

// errorResult reports a tool-level failure without killing the session.
func errorResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}},
		IsError: true,
	}
}
