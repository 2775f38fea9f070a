// Package knowledge provides semantic search over open-ended survey
// answers. Answers are embedded and stored in a persistent chromem-go
// collection so the insights agent can pull relevant verbatims for a
// question instead of re-reading the whole panel.
package knowledge

// CollectionName is the chromem-go collection holding survey verbatims.
const CollectionName = "survey-responses"

// Excerpt is a single retrieved verbatim with its survey context.
type Excerpt struct {
	ResponseID   string  `json:"response_id"`
	BrandID      string  `json:"brand_id"`
	QuestionID   string  `json:"question_id"`
	QuestionText string  `json:"question_text"`
	Text         string  `json:"text"`
	Similarity   float32 `json:"similarity"` // cosine similarity (0-1)
}

// SearchOption configures a Search call using the functional options
// pattern.
type SearchOption func(*searchConfig)

type searchConfig struct {
	topK  int
	brand string
}

// WithTopK sets the maximum number of excerpts to return. Default is 5.
func WithTopK(k int) SearchOption {
	return func(c *searchConfig) {
		c.topK = k
	}
}

// WithBrand restricts results to a single brand ID.
func WithBrand(brandID string) SearchOption {
	return func(c *searchConfig) {
		c.brand = brandID
	}
}

func buildSearchConfig(opts []SearchOption) *searchConfig {
	cfg := &searchConfig{topK: 5}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}
