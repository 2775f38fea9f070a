// Package config provides application configuration management with
// multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (MARKETLENS_* runtime override)
//  2. Config file (~/.marketlens/config.yaml or ./config.yaml)
//  3. Default values
//
// A `.env` file in the working directory is loaded into the process
// environment before anything else so that API keys (GEMINI_API_KEY,
// OPENAI_API_KEY) can be supplied the same way the rest of the stack
// expects them.
//
// Error handling uses sentinel errors so callers can branch with
// errors.Is(); validation is fail-fast inside Load.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// AI provider identifiers used in Config.Provider.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

const (
	// DefaultModelName is the default chat model.
	DefaultModelName = "gemini-2.5-flash"

	// DefaultEmbedderModel is the default embedding model.
	DefaultEmbedderModel = "gemini-embedding-001"

	// DefaultAddr is the default HTTP listen address.
	DefaultAddr = "127.0.0.1:8000"

	// DefaultSeedRespondents is the number of fake respondents generated
	// when the survey store is empty at startup.
	DefaultSeedRespondents = 100

	// DefaultInsightExcerpts is the number of verbatim responses retrieved
	// to ground the insights agent.
	DefaultInsightExcerpts = 8
)

// OtelConfig configures the OTLP trace exporter.
type OtelConfig struct {
	Enabled     bool   `mapstructure:"enabled" json:"enabled"`
	AgentHost   string `mapstructure:"agent_host" json:"agent_host"`
	Environment string `mapstructure:"environment" json:"environment"`
	ServiceName string `mapstructure:"service_name" json:"service_name"`
}

// Config stores application configuration.
type Config struct {
	// AI provider and model configuration
	Provider      string  `mapstructure:"provider" json:"provider"`
	ModelName     string  `mapstructure:"model_name" json:"model_name"`
	Temperature   float32 `mapstructure:"temperature" json:"temperature"`
	MaxTokens     int     `mapstructure:"max_tokens" json:"max_tokens"`
	EmbedderModel string  `mapstructure:"embedder_model" json:"embedder_model"`

	// Ollama configuration (only used when provider is "ollama")
	OllamaHost string `mapstructure:"ollama_host" json:"ollama_host"`

	// Storage configuration. All stores are embedded and live under DataDir.
	DataDir         string `mapstructure:"data_dir" json:"data_dir"`
	SeedRespondents int    `mapstructure:"seed_respondents" json:"seed_respondents"`

	// Insights retrieval
	InsightExcerpts int `mapstructure:"insight_excerpts" json:"insight_excerpts"`

	// HTTP server configuration (serve mode)
	Addr       string  `mapstructure:"addr" json:"addr"`
	RateLimit  float64 `mapstructure:"rate_limit" json:"rate_limit"`
	RateBurst  int     `mapstructure:"rate_burst" json:"rate_burst"`
	TrustProxy bool    `mapstructure:"trust_proxy" json:"trust_proxy"`

	// Observability configuration
	Otel OtelConfig `mapstructure:"otel" json:"otel"`
}

// SurveyDBPath returns the path of the embedded survey response store.
func (c *Config) SurveyDBPath() string {
	return filepath.Join(c.DataDir, "survey.db")
}

// ContextDBPath returns the path of the context store.
func (c *Config) ContextDBPath() string {
	return filepath.Join(c.DataDir, "context", "context.db")
}

// KnowledgeDir returns the directory of the persistent vector store.
func (c *Config) KnowledgeDir() string {
	return filepath.Join(c.DataDir, "knowledge")
}

// SeedLockPath returns the lock file guarding sample-data generation.
func (c *Config) SeedLockPath() string {
	return filepath.Join(c.DataDir, ".seed.lock")
}

// FullModelName returns the provider-qualified model name for Genkit.
// Examples: "googleai/gemini-2.5-flash", "ollama/llama3.3", "openai/gpt-4o".
// If ModelName already contains a "/", it is returned as-is.
func (c *Config) FullModelName() string {
	if strings.Contains(c.ModelName, "/") {
		return c.ModelName
	}
	switch c.Provider {
	case ProviderOllama:
		return ProviderOllama + "/" + c.ModelName
	case ProviderOpenAI:
		return ProviderOpenAI + "/" + c.ModelName
	default:
		return "googleai/" + c.ModelName
	}
}

// Load loads configuration.
// Priority: environment variables > configuration file > defaults.
func Load() (*Config, error) {
	loadDotEnv()

	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".marketlens")
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)
	v.AddConfigPath(".")

	setDefaults(v)

	v.SetEnvPrefix("MARKETLENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine, defaults apply.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using defaults",
			"search_paths", []string{configDir, "."})
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("provider", ProviderGemini)
	v.SetDefault("model_name", DefaultModelName)
	v.SetDefault("temperature", 0.7)
	v.SetDefault("max_tokens", 2048)
	v.SetDefault("embedder_model", DefaultEmbedderModel)

	v.SetDefault("ollama_host", "http://localhost:11434")

	v.SetDefault("data_dir", "data")
	v.SetDefault("seed_respondents", DefaultSeedRespondents)
	v.SetDefault("insight_excerpts", DefaultInsightExcerpts)

	v.SetDefault("addr", DefaultAddr)
	v.SetDefault("rate_limit", 10.0)
	v.SetDefault("rate_burst", 20)
	v.SetDefault("trust_proxy", false)

	v.SetDefault("otel.enabled", false)
	v.SetDefault("otel.agent_host", "localhost:4318")
	v.SetDefault("otel.environment", "dev")
	v.SetDefault("otel.service_name", "marketlens")
}

// loadDotEnv loads a `.env` file from the working directory into the process
// environment. Existing environment variables take priority; missing file is
// not an error.
func loadDotEnv() {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")

	if err := v.ReadInConfig(); err != nil {
		return
	}

	for _, key := range v.AllKeys() {
		name := strings.ToUpper(key)
		if _, exists := os.LookupEnv(name); exists {
			continue
		}
		if err := os.Setenv(name, v.GetString(key)); err != nil {
			slog.Warn("setting env from .env failed", "key", name, "error", err)
		}
	}
}
