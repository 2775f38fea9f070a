package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"golang.org/x/time/rate"

	"github.com/marketlens/marketlens/internal/knowledge"
	"github.com/marketlens/marketlens/internal/log"
)

// SurveyStore is the analytical store surface the SQL agent needs.
// *survey.Store satisfies it.
type SurveyStore interface {
	// Query executes a read-only SQL statement.
	Query(ctx context.Context, query string) ([]map[string]any, error)

	// SchemaDescription renders the tables and views for prompting.
	SchemaDescription(ctx context.Context) (string, error)
}

// ExcerptSearcher retrieves survey verbatims for the insights agent.
// *knowledge.Store satisfies it.
type ExcerptSearcher interface {
	Search(ctx context.Context, query string, opts ...knowledge.SearchOption) ([]knowledge.Excerpt, error)
}

// Config contains all required parameters for the agent pipeline.
type Config struct {
	Genkit    *genkit.Genkit
	Model     ai.ModelRef
	Survey    SurveyStore
	Knowledge ExcerptSearcher // nil disables excerpt retrieval
	Logger    log.Logger

	// ExcerptCount is how many verbatims the insights agent retrieves
	// per question (default: 8).
	ExcerptCount int

	// Resilience settings; zero values use defaults.
	Retry   RetryConfig
	Breaker CircuitBreakerConfig

	// Limiter throttles outbound model calls across all agents
	// (nil = no limit).
	Limiter *rate.Limiter
}

func (cfg Config) validate() error {
	if cfg.Genkit == nil {
		return errors.New("genkit instance is required")
	}
	if cfg.Survey == nil {
		return errors.New("survey store is required")
	}
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	return nil
}

// generateFunc abstracts the model call so tests can stub it.
type generateFunc func(ctx context.Context, opts ...ai.GenerateOption) (*ai.ModelResponse, error)

// Agents ties the router, SQL and insights agents to one model and one
// survey store. All configuration is captured at construction, so a
// single instance is safe for concurrent use.
type Agents struct {
	model     ai.ModelRef
	survey    SurveyStore
	knowledge ExcerptSearcher
	logger    log.Logger
	excerpts  int

	retry    RetryConfig
	breaker  *CircuitBreaker
	limiter  *rate.Limiter
	generate generateFunc
}

// New creates the agent pipeline.
func New(cfg Config) (*Agents, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid agent config: %w", err)
	}

	retry := cfg.Retry
	if retry.MaxRetries == 0 && retry.InitialInterval == 0 {
		retry = DefaultRetryConfig()
	}

	excerpts := cfg.ExcerptCount
	if excerpts <= 0 {
		excerpts = 8
	}

	g := cfg.Genkit
	return &Agents{
		model:     cfg.Model,
		survey:    cfg.Survey,
		knowledge: cfg.Knowledge,
		logger:    cfg.Logger,
		excerpts:  excerpts,
		retry:     retry,
		breaker:   NewCircuitBreaker(cfg.Breaker),
		limiter:   cfg.Limiter,
		generate: func(ctx context.Context, opts ...ai.GenerateOption) (*ai.ModelResponse, error) {
			return genkit.Generate(ctx, g, opts...)
		},
	}, nil
}

// Process answers one question. The conversation context (user
// preferences plus thread history) is folded into every prompt.
//
// Analytical questions produce a single SQL finding; insight questions
// a single qualitative finding; hybrid questions run the SQL agent
// first and the insights agent second. Vague questions produce no
// findings, signalling the caller to offer follow-up suggestions.
func (a *Agents) Process(ctx context.Context, question string, convCtx map[string]any) (*Result, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}

	kind, err := a.classify(ctx, question, convCtx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExecutionFailed, err)
	}

	result := &Result{QuestionType: kind, Results: []Finding{}}

	switch kind {
	case KindVague:
		// Nothing to run; the API layer proposes follow-ups.

	case KindAnalytical:
		finding, err := a.runAnalytical(ctx, question, convCtx)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrExecutionFailed, err)
		}
		result.Results = append(result.Results, finding)

	case KindInsight:
		finding, err := a.runInsight(ctx, question, convCtx)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrExecutionFailed, err)
		}
		result.Results = append(result.Results, finding)

	case KindHybrid:
		sqlFinding, err := a.runAnalytical(ctx, question, convCtx)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrExecutionFailed, err)
		}
		result.Results = append(result.Results, sqlFinding)

		insightFinding, err := a.runInsight(ctx, question, convCtx)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrExecutionFailed, err)
		}
		result.Results = append(result.Results, insightFinding)
	}

	return result, nil
}

// BreakerState exposes the circuit state for health reporting.
func (a *Agents) BreakerState() CircuitState {
	return a.breaker.State()
}
