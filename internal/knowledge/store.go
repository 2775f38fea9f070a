package knowledge

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strings"

	chromem "github.com/philippgille/chromem-go"

	"github.com/marketlens/marketlens/internal/log"
	"github.com/marketlens/marketlens/internal/survey"
)

// Store holds embedded open-ended survey answers in a persistent
// chromem-go collection.
//
// Store is safe for concurrent use by multiple goroutines.
type Store struct {
	db         *chromem.DB
	collection *chromem.Collection
	logger     log.Logger
}

// Open opens (or creates) the vector store rooted at dir. The embedding
// function is usually built with NewEmbeddingFunc; tests can pass a
// deterministic one.
func Open(dir string, embed chromem.EmbeddingFunc, logger log.Logger) (*Store, error) {
	if logger == nil {
		logger = log.NewNop()
	}

	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating knowledge dir: %w", err)
	}

	db, err := chromem.NewPersistentDB(dir, false)
	if err != nil {
		return nil, fmt.Errorf("opening vector store: %w", err)
	}

	collection, err := db.GetOrCreateCollection(CollectionName, nil, embed)
	if err != nil {
		return nil, fmt.Errorf("opening collection %q: %w", CollectionName, err)
	}

	return &Store{
		db:         db,
		collection: collection,
		logger:     logger,
	}, nil
}

// IndexResponses embeds and stores the open-ended answers from the given
// responses. Rows of other question types and blank answers are skipped.
// Document IDs are the response IDs, so re-indexing the same dataset is
// an upsert, not a duplicate.
//
// Returns the number of documents indexed.
func (s *Store) IndexResponses(ctx context.Context, responses []survey.Response) (int, error) {
	docs := make([]chromem.Document, 0, len(responses))
	for _, r := range responses {
		if r.QuestionType != survey.TypeOpenEnded {
			continue
		}
		if strings.TrimSpace(r.Answer) == "" {
			continue
		}

		docs = append(docs, chromem.Document{
			ID:      r.ResponseID,
			Content: r.Answer,
			Metadata: map[string]string{
				"brand_id":      r.BrandID,
				"survey_id":     r.SurveyID,
				"question_id":   r.QuestionID,
				"question_text": r.QuestionText,
			},
		})
	}

	if len(docs) == 0 {
		return 0, nil
	}

	if err := s.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return 0, fmt.Errorf("indexing responses: %w", err)
	}

	s.logger.Debug("indexed open-ended responses", "count", len(docs))
	return len(docs), nil
}

// Search returns the excerpts most similar to the query, ordered by
// similarity.
//
// Example:
//
//	excerpts, err := store.Search(ctx, "battery complaints",
//	    knowledge.WithTopK(8),
//	    knowledge.WithBrand("TechCorp"))
func (s *Store) Search(ctx context.Context, query string, opts ...SearchOption) ([]Excerpt, error) {
	cfg := buildSearchConfig(opts)
	if cfg.topK <= 0 {
		return nil, fmt.Errorf("topK must be positive, got %d", cfg.topK)
	}

	// chromem rejects nResults larger than the collection, so clamp.
	n := cfg.topK
	if count := s.collection.Count(); count < n {
		n = count
	}
	if n == 0 {
		return nil, nil
	}

	var where map[string]string
	if cfg.brand != "" {
		where = map[string]string{"brand_id": cfg.brand}
	}

	results, err := s.collection.Query(ctx, query, n, where, nil)
	if err != nil {
		return nil, fmt.Errorf("searching responses: %w", err)
	}

	excerpts := make([]Excerpt, 0, len(results))
	for _, res := range results {
		excerpts = append(excerpts, Excerpt{
			ResponseID:   res.ID,
			BrandID:      res.Metadata["brand_id"],
			QuestionID:   res.Metadata["question_id"],
			QuestionText: res.Metadata["question_text"],
			Text:         res.Content,
			Similarity:   res.Similarity,
		})
	}

	return excerpts, nil
}

// Count reports the number of indexed documents.
func (s *Store) Count() int {
	return s.collection.Count()
}
