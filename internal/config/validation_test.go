package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validConfig returns a configuration that passes Validate.
func validConfig() *Config {
	return &Config{
		Provider:        ProviderGemini,
		ModelName:       DefaultModelName,
		Temperature:     0.7,
		MaxTokens:       2048,
		EmbedderModel:   DefaultEmbedderModel,
		OllamaHost:      "http://localhost:11434",
		DataDir:         "data",
		SeedRespondents: 100,
		InsightExcerpts: 8,
		Addr:            "127.0.0.1:8000",
		RateLimit:       10,
		RateBurst:       20,
	}
}

func TestValidate_OK(t *testing.T) {
	require.NoError(t, validConfig().Validate())
}

func TestValidate_NilConfig(t *testing.T) {
	var cfg *Config
	assert.ErrorIs(t, cfg.Validate(), ErrConfigNil)
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"unknown provider", func(c *Config) { c.Provider = "anthropic" }, ErrInvalidProvider},
		{"empty model", func(c *Config) { c.ModelName = "" }, ErrInvalidModelName},
		{"temperature too high", func(c *Config) { c.Temperature = 2.5 }, ErrInvalidTemperature},
		{"temperature negative", func(c *Config) { c.Temperature = -0.1 }, ErrInvalidTemperature},
		{"max tokens zero", func(c *Config) { c.MaxTokens = 0 }, ErrInvalidMaxTokens},
		{"empty embedder", func(c *Config) { c.EmbedderModel = "" }, ErrInvalidEmbedderModel},
		{"empty data dir", func(c *Config) { c.DataDir = "" }, ErrInvalidDataDir},
		{"seed count zero", func(c *Config) { c.SeedRespondents = 0 }, ErrInvalidSeedCount},
		{"excerpts zero", func(c *Config) { c.InsightExcerpts = 0 }, ErrInvalidExcerptCount},
		{"addr without port", func(c *Config) { c.Addr = "localhost" }, ErrInvalidAddr},
		{"rate limit zero", func(c *Config) { c.RateLimit = 0 }, ErrInvalidRateLimit},
		{"rate burst zero", func(c *Config) { c.RateBurst = 0 }, ErrInvalidRateLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), tt.wantErr)
		})
	}
}

func TestValidate_OllamaHost(t *testing.T) {
	cfg := validConfig()
	cfg.Provider = ProviderOllama
	cfg.OllamaHost = "not a url"
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidOllamaHost)

	cfg.OllamaHost = "http://localhost:11434"
	assert.NoError(t, cfg.Validate())
}

func TestValidateAPIKey(t *testing.T) {
	cfg := validConfig()

	t.Run("gemini missing", func(t *testing.T) {
		t.Setenv("GEMINI_API_KEY", "")
		t.Setenv("GOOGLE_API_KEY", "")
		assert.ErrorIs(t, cfg.ValidateAPIKey(), ErrMissingAPIKey)
	})

	t.Run("gemini present", func(t *testing.T) {
		t.Setenv("GEMINI_API_KEY", "test-key")
		assert.NoError(t, cfg.ValidateAPIKey())
	})

	t.Run("openai missing", func(t *testing.T) {
		c := validConfig()
		c.Provider = ProviderOpenAI
		t.Setenv("OPENAI_API_KEY", "")
		assert.ErrorIs(t, c.ValidateAPIKey(), ErrMissingAPIKey)
	})

	t.Run("ollama needs none", func(t *testing.T) {
		c := validConfig()
		c.Provider = ProviderOllama
		assert.NoError(t, c.ValidateAPIKey())
	})
}
