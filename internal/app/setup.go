package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/core/api"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/compat_oai/openai"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/firebase/genkit/go/plugins/ollama"
	"github.com/gofrs/flock"
	"google.golang.org/genai"

	"github.com/marketlens/marketlens/internal/agent"
	"github.com/marketlens/marketlens/internal/config"
	"github.com/marketlens/marketlens/internal/database"
	"github.com/marketlens/marketlens/internal/knowledge"
	"github.com/marketlens/marketlens/internal/log"
	"github.com/marketlens/marketlens/internal/observability"
	"github.com/marketlens/marketlens/internal/session"
	"github.com/marketlens/marketlens/internal/survey"
)

// Setup creates and initializes the application in dependency order:
// tracing, context store, survey store (seeding it when empty), Genkit,
// the vector store and finally the agent pipeline.
//
// Returns an App with embedded cleanup; call Close() to release.
func Setup(ctx context.Context, cfg *config.Config, logger log.Logger) (_ *App, retErr error) {
	if logger == nil {
		logger = log.NewNop()
	}

	a := &App{Config: cfg, Logger: logger}

	// On error, clean up everything already initialized.
	defer func() {
		if retErr != nil {
			if err := a.Close(); err != nil {
				logger.Warn("cleanup during setup failure", "error", err)
			}
		}
	}()

	a.otelCleanup = provideOtelShutdown(ctx, cfg, logger)

	contextDB, err := database.Open(cfg.ContextDBPath())
	if err != nil {
		return nil, fmt.Errorf("opening context store: %w", err)
	}
	a.ContextDB = contextDB
	if err := database.Migrate(contextDB); err != nil {
		return nil, fmt.Errorf("migrating context store: %w", err)
	}
	a.Sessions = session.New(contextDB, logger)

	surveyStore, err := survey.Open(cfg.SurveyDBPath(), logger)
	if err != nil {
		return nil, fmt.Errorf("opening survey store: %w", err)
	}
	a.Survey = surveyStore

	seeded, err := seedSurvey(ctx, cfg, surveyStore, logger)
	if err != nil {
		return nil, err
	}

	g, err := provideGenkit(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.Genkit = g

	embedder := provideEmbedder(g, cfg)
	if embedder == nil {
		return nil, fmt.Errorf("embedder %q not found for provider %q", cfg.EmbedderModel, cfg.Provider)
	}
	a.Embedder = embedder

	ks, err := knowledge.Open(cfg.KnowledgeDir(), knowledge.NewEmbeddingFunc(embedder), logger)
	if err != nil {
		return nil, fmt.Errorf("opening knowledge store: %w", err)
	}
	a.Knowledge = ks

	toIndex := seeded
	if len(toIndex) == 0 && ks.Count() == 0 {
		// Survey data exists but the vector store is empty, e.g. after
		// deleting the knowledge directory. Re-index from SQLite.
		toIndex, err = openEndedResponses(ctx, surveyStore)
		if err != nil {
			return nil, fmt.Errorf("loading responses for indexing: %w", err)
		}
	}
	if len(toIndex) > 0 {
		indexed, err := ks.IndexResponses(ctx, toIndex)
		if err != nil {
			return nil, fmt.Errorf("indexing open-ended responses: %w", err)
		}
		logger.Info("indexed open-ended responses", "count", indexed)
	}

	agents, err := agent.New(agent.Config{
		Genkit:       g,
		Model:        provideModelRef(cfg),
		Survey:       surveyStore,
		Knowledge:    ks,
		Logger:       logger,
		ExcerptCount: cfg.InsightExcerpts,
	})
	if err != nil {
		return nil, fmt.Errorf("creating agent pipeline: %w", err)
	}
	a.Agents = agents
	a.Flow = agent.NewFlow(g, agents)

	return a, nil
}

// provideOtelShutdown sets up OTLP tracing before Genkit initialization,
// so the TracerProvider is ready when the first span is created.
func provideOtelShutdown(ctx context.Context, cfg *config.Config, logger log.Logger) func() {
	if !cfg.Otel.Enabled {
		return func() {}
	}

	shutdown, err := observability.Setup(ctx, observability.Config{
		Endpoint:    cfg.Otel.AgentHost,
		Environment: cfg.Otel.Environment,
		ServiceName: cfg.Otel.ServiceName,
	}, logger)
	if err != nil {
		logger.Warn("tracing setup failed, continuing without", "error", err)
		return func() {}
	}

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			logger.Warn("shutting down tracer provider", "error", err)
		}
	}
}

// seedSurvey fills an empty survey store with generated sample data. A
// file lock serializes seeding across processes sharing the data
// directory. Returns the seeded dataset, or nil when data already
// existed.
func seedSurvey(ctx context.Context, cfg *config.Config, store *survey.Store, logger log.Logger) ([]survey.Response, error) {
	n, err := store.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting survey responses: %w", err)
	}
	if n > 0 {
		return nil, nil
	}

	lock := flock.New(cfg.SeedLockPath())
	if err := lock.Lock(); err != nil {
		return nil, fmt.Errorf("acquiring seed lock: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	// Another process may have seeded while we waited for the lock.
	n, err = store.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting survey responses: %w", err)
	}
	if n > 0 {
		return nil, nil
	}

	respondents := cfg.SeedRespondents
	if respondents <= 0 {
		respondents = config.DefaultSeedRespondents
	}

	logger.Info("seeding survey store", "respondents", respondents)
	dataset := survey.NewGenerator(0).Dataset(respondents)
	if err := store.Seed(ctx, dataset); err != nil {
		return nil, fmt.Errorf("seeding survey store: %w", err)
	}

	return dataset, nil
}

// openEndedResponses loads the open-ended rows back out of the survey
// store, for re-indexing into the vector store.
func openEndedResponses(ctx context.Context, store *survey.Store) ([]survey.Response, error) {
	rows, err := store.Query(ctx,
		`SELECT response_id, brand_id, survey_id, question_id, question_type, question_text, answer
		 FROM survey_responses WHERE question_type = 'open_ended'`)
	if err != nil {
		return nil, err
	}

	responses := make([]survey.Response, 0, len(rows))
	for _, row := range rows {
		responses = append(responses, survey.Response{
			ResponseID:   text(row["response_id"]),
			BrandID:      text(row["brand_id"]),
			SurveyID:     text(row["survey_id"]),
			QuestionID:   text(row["question_id"]),
			QuestionType: survey.QuestionType(text(row["question_type"])),
			QuestionText: text(row["question_text"]),
			Answer:       text(row["answer"]),
		})
	}
	return responses, nil
}

func text(v any) string {
	s, _ := v.(string)
	return s
}

// provideGenkit initializes Genkit with the configured AI provider.
// Supports gemini (default), ollama, and openai providers.
func provideGenkit(ctx context.Context, cfg *config.Config, logger log.Logger) (*genkit.Genkit, error) {
	var g *genkit.Genkit

	switch cfg.Provider {
	case config.ProviderOllama:
		plugin := &ollama.Ollama{ServerAddress: cfg.OllamaHost}
		g = genkit.Init(ctx, genkit.WithPlugins(plugin))
		if g == nil {
			return nil, errors.New("initializing genkit with ollama provider")
		}
		// Ollama requires explicit model registration (no auto-discovery).
		plugin.DefineModel(g, ollama.ModelDefinition{
			Name: cfg.ModelName,
			Type: "chat",
		}, nil)
		plugin.DefineEmbedder(g, cfg.OllamaHost, cfg.EmbedderModel, nil)
		logger.Info("initialized genkit",
			"provider", cfg.Provider, "model", cfg.ModelName, "host", cfg.OllamaHost)

	case config.ProviderOpenAI:
		g = genkit.Init(ctx, genkit.WithPlugins(&openai.OpenAI{}))
		if g == nil {
			return nil, errors.New("initializing genkit with openai provider")
		}
		logger.Info("initialized genkit", "provider", cfg.Provider, "model", cfg.ModelName)

	default:
		g = genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
		if g == nil {
			return nil, errors.New("initializing genkit with gemini provider")
		}
		logger.Info("initialized genkit", "provider", cfg.Provider, "model", cfg.ModelName)
	}

	return g, nil
}

// provideEmbedder looks up the embedder registered by the AI provider
// plugin. Each provider registers embedders differently: ollama keys by
// server address (registered in provideGenkit), openai auto-registers in
// Init, gemini resolves by model name.
func provideEmbedder(g *genkit.Genkit, cfg *config.Config) ai.Embedder {
	switch cfg.Provider {
	case config.ProviderOllama:
		return ollama.Embedder(g, cfg.OllamaHost)
	case config.ProviderOpenAI:
		return genkit.LookupEmbedder(g, api.NewName("openai", cfg.EmbedderModel))
	default:
		return googlegenai.GoogleAIEmbedder(g, cfg.EmbedderModel)
	}
}

// provideModelRef builds the model reference passed to every generate
// call. Generation parameters ride along for the gemini provider; other
// providers use their defaults.
func provideModelRef(cfg *config.Config) ai.ModelRef {
	if cfg.Provider == config.ProviderGemini || cfg.Provider == "" {
		return ai.NewModelRef(cfg.FullModelName(), &genai.GenerateContentConfig{
			Temperature:     genai.Ptr(cfg.Temperature),
			MaxOutputTokens: int32(cfg.MaxTokens),
		})
	}
	return ai.NewModelRef(cfg.FullModelName(), nil)
}
