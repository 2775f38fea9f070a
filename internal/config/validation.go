package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
)

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrInvalidProvider indicates the AI provider is not supported.
	ErrInvalidProvider = errors.New("invalid provider")

	// ErrInvalidModelName indicates the model name is empty.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidTemperature indicates the temperature value is out of range.
	ErrInvalidTemperature = errors.New("invalid temperature")

	// ErrInvalidMaxTokens indicates the max tokens value is out of range.
	ErrInvalidMaxTokens = errors.New("invalid max tokens")

	// ErrInvalidEmbedderModel indicates the embedder model is empty.
	ErrInvalidEmbedderModel = errors.New("invalid embedder model")

	// ErrInvalidOllamaHost indicates the Ollama host is not a valid URL.
	ErrInvalidOllamaHost = errors.New("invalid Ollama host")

	// ErrInvalidDataDir indicates the data directory is empty.
	ErrInvalidDataDir = errors.New("invalid data directory")

	// ErrInvalidSeedCount indicates the seed respondent count is out of range.
	ErrInvalidSeedCount = errors.New("invalid seed respondent count")

	// ErrInvalidExcerptCount indicates the insight excerpt count is out of range.
	ErrInvalidExcerptCount = errors.New("invalid insight excerpt count")

	// ErrInvalidAddr indicates the listen address cannot be parsed.
	ErrInvalidAddr = errors.New("invalid listen address")

	// ErrInvalidRateLimit indicates rate limit settings are out of range.
	ErrInvalidRateLimit = errors.New("invalid rate limit")

	// ErrMissingAPIKey indicates a required API key is missing.
	ErrMissingAPIKey = errors.New("missing API key")
)

// Validate checks the configuration for consistency. It does not verify API
// keys; that happens in ValidateAPIKey so that commands which never call a
// model (e.g. seed) work without one.
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	switch c.Provider {
	case ProviderGemini, ProviderOpenAI, ProviderOllama:
	default:
		return fmt.Errorf("%w: %q (expected gemini, openai or ollama)", ErrInvalidProvider, c.Provider)
	}

	if c.ModelName == "" {
		return fmt.Errorf("%w: model name is empty", ErrInvalidModelName)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("%w: %v (expected 0.0-2.0)", ErrInvalidTemperature, c.Temperature)
	}
	if c.MaxTokens < 1 || c.MaxTokens > 128_000 {
		return fmt.Errorf("%w: %d (expected 1-128000)", ErrInvalidMaxTokens, c.MaxTokens)
	}
	if c.EmbedderModel == "" {
		return fmt.Errorf("%w: embedder model is empty", ErrInvalidEmbedderModel)
	}

	if c.Provider == ProviderOllama {
		u, err := url.Parse(c.OllamaHost)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%w: %q", ErrInvalidOllamaHost, c.OllamaHost)
		}
	}

	if c.DataDir == "" {
		return ErrInvalidDataDir
	}
	if c.SeedRespondents < 1 || c.SeedRespondents > 100_000 {
		return fmt.Errorf("%w: %d (expected 1-100000)", ErrInvalidSeedCount, c.SeedRespondents)
	}
	if c.InsightExcerpts < 1 || c.InsightExcerpts > 100 {
		return fmt.Errorf("%w: %d (expected 1-100)", ErrInvalidExcerptCount, c.InsightExcerpts)
	}

	if _, _, err := net.SplitHostPort(c.Addr); err != nil {
		return fmt.Errorf("%w: %q: %v", ErrInvalidAddr, c.Addr, err)
	}
	if c.RateLimit <= 0 || c.RateBurst < 1 {
		return fmt.Errorf("%w: limit=%v burst=%d", ErrInvalidRateLimit, c.RateLimit, c.RateBurst)
	}

	return nil
}

// ValidateAPIKey checks that the API key required by the configured provider
// is present in the environment. Ollama runs locally and needs none.
func (c *Config) ValidateAPIKey() error {
	switch c.Provider {
	case ProviderGemini:
		if os.Getenv("GEMINI_API_KEY") == "" && os.Getenv("GOOGLE_API_KEY") == "" {
			return fmt.Errorf("%w: set GEMINI_API_KEY", ErrMissingAPIKey)
		}
	case ProviderOpenAI:
		if os.Getenv("OPENAI_API_KEY") == "" {
			return fmt.Errorf("%w: set OPENAI_API_KEY", ErrMissingAPIKey)
		}
	}
	return nil
}
