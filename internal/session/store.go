// Package session persists conversation context across requests.
//
// Two layers of context are kept in SQLite:
//   - user contexts: preferences that follow a user across every thread
//   - thread contexts: state of one chat window (thread), including the
//     rolling interaction history
//
// Every question/answer pair is additionally appended to an
// interaction_history table for audit and analysis.
//
// Store is safe for concurrent use by multiple goroutines.
package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/marketlens/marketlens/internal/log"
)

// Context is the merged view handed to the agents for one interaction.
type Context struct {
	UserContext   map[string]any `json:"user_context"`
	ThreadContext map[string]any `json:"thread_context"`

	// CombinedHistory overlays the thread's rolling history on the user's
	// preferences, which is what the prompts actually consume.
	CombinedHistory map[string]any `json:"combined_history"`
}

// Interaction is one recorded question/answer pair.
type Interaction struct {
	ThreadID  string    `json:"thread_id"`
	UserID    string    `json:"user_id"`
	Question  string    `json:"question"`
	Response  string    `json:"response"`
	Timestamp time.Time `json:"timestamp"`
}

// Store manages user and thread contexts with a SQLite backend.
type Store struct {
	db     *sql.DB
	logger log.Logger
}

// New creates a Store on an already-opened and migrated database.
func New(db *sql.DB, logger log.Logger) *Store {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Store{db: db, logger: logger}
}

// Context returns the merged context for an interaction. Unknown user or
// thread IDs yield empty (but non-nil) maps, never an error.
func (s *Store) Context(ctx context.Context, userID, threadID string) (*Context, error) {
	userCtx, err := s.loadContext(ctx,
		"SELECT context_data FROM user_contexts WHERE user_id = ?", userID)
	if err != nil {
		return nil, fmt.Errorf("loading user context: %w", err)
	}

	threadCtx, err := s.loadContext(ctx,
		"SELECT context_data FROM thread_contexts WHERE thread_id = ?", threadID)
	if err != nil {
		return nil, fmt.Errorf("loading thread context: %w", err)
	}

	combined := make(map[string]any)
	if prefs, ok := userCtx["preferences"].(map[string]any); ok {
		for k, v := range prefs {
			combined[k] = v
		}
	}
	if history, ok := threadCtx["history"]; ok {
		combined["history"] = history
	}

	return &Context{
		UserContext:     userCtx,
		ThreadContext:   threadCtx,
		CombinedHistory: combined,
	}, nil
}

func (s *Store) loadContext(ctx context.Context, query, id string) (map[string]any, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, query, id).Scan(&raw)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return map[string]any{}, nil
	case err != nil:
		return nil, err
	}

	data := make(map[string]any)
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, fmt.Errorf("decoding context for %q: %w", id, err)
	}
	return data, nil
}

// SaveUserContext stores context that persists across all threads of a user.
func (s *Store) SaveUserContext(ctx context.Context, userID string, data map[string]any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encoding user context: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO user_contexts (user_id, context_data, last_updated)
		VALUES (?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			context_data = excluded.context_data,
			last_updated = excluded.last_updated`,
		userID, string(raw), time.Now().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("saving user context: %w", err)
	}

	s.logger.Debug("saved user context", "user_id", userID)
	return nil
}

// SaveThreadContext stores context specific to one conversation thread.
func (s *Store) SaveThreadContext(ctx context.Context, threadID, userID string, data map[string]any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encoding thread context: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO thread_contexts (thread_id, user_id, context_data, last_updated)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (thread_id) DO UPDATE SET
			user_id = excluded.user_id,
			context_data = excluded.context_data,
			last_updated = excluded.last_updated`,
		threadID, userID, string(raw), time.Now().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("saving thread context: %w", err)
	}

	s.logger.Debug("saved thread context", "thread_id", threadID)
	return nil
}

// UpdateThreadContext merges updates into an existing thread context,
// creating the thread if it does not exist yet.
func (s *Store) UpdateThreadContext(ctx context.Context, threadID, userID string, updates map[string]any) error {
	current, err := s.loadContext(ctx,
		"SELECT context_data FROM thread_contexts WHERE thread_id = ?", threadID)
	if err != nil {
		return fmt.Errorf("loading thread context: %w", err)
	}

	for k, v := range updates {
		current[k] = v
	}

	return s.SaveThreadContext(ctx, threadID, userID, current)
}

// RecordInteraction appends a question/answer pair to the interaction
// history and to the thread context's rolling "history" array (when the
// thread context exists).
func (s *Store) RecordInteraction(ctx context.Context, userID, threadID, question, response string) error {
	now := time.Now().Format(time.RFC3339)

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO interaction_history (thread_id, user_id, question, response, timestamp)
		VALUES (?, ?, ?, ?, ?)`,
		threadID, userID, question, response, now); err != nil {
		return fmt.Errorf("recording interaction: %w", err)
	}

	threadCtx, err := s.loadContext(ctx,
		"SELECT context_data FROM thread_contexts WHERE thread_id = ?", threadID)
	if err != nil {
		return fmt.Errorf("loading thread context: %w", err)
	}
	if len(threadCtx) == 0 {
		// No thread context yet; the history table alone carries the record.
		return nil
	}

	history, _ := threadCtx["history"].([]any)
	history = append(history, map[string]any{
		"timestamp": now,
		"question":  question,
		"response":  response,
	})
	threadCtx["history"] = history

	return s.SaveThreadContext(ctx, threadID, userID, threadCtx)
}

// History returns the most recent interactions of a thread, newest first.
func (s *Store) History(ctx context.Context, threadID string, limit int) ([]Interaction, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT thread_id, user_id, question, response, timestamp
		FROM interaction_history
		WHERE thread_id = ?
		ORDER BY id DESC
		LIMIT ?`, threadID, limit)
	if err != nil {
		return nil, fmt.Errorf("loading history: %w", err)
	}
	defer rows.Close()

	var out []Interaction
	for rows.Next() {
		var it Interaction
		var ts string
		if err := rows.Scan(&it.ThreadID, &it.UserID, &it.Question, &it.Response, &ts); err != nil {
			return nil, fmt.Errorf("scanning interaction: %w", err)
		}
		it.Timestamp, _ = time.Parse(time.RFC3339, ts)
		out = append(out, it)
	}
	return out, rows.Err()
}

// ListThreads lists thread IDs, optionally filtered by user. An empty userID
// lists everything.
func (s *Store) ListThreads(ctx context.Context, userID string) ([]string, error) {
	query := "SELECT thread_id FROM thread_contexts ORDER BY last_updated DESC"
	args := []any{}
	if userID != "" {
		query = "SELECT thread_id FROM thread_contexts WHERE user_id = ? ORDER BY last_updated DESC"
		args = append(args, userID)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing threads: %w", err)
	}
	defer rows.Close()

	var threads []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning thread id: %w", err)
		}
		threads = append(threads, id)
	}
	return threads, rows.Err()
}

// DeleteThread removes a thread's context and its interaction history.
// Returns whether anything was deleted.
func (s *Store) DeleteThread(ctx context.Context, threadID string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM thread_contexts WHERE thread_id = ?", threadID)
	if err != nil {
		return false, fmt.Errorf("deleting thread context: %w", err)
	}
	contexts, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("deleting thread context: %w", err)
	}

	res, err = s.db.ExecContext(ctx,
		"DELETE FROM interaction_history WHERE thread_id = ?", threadID)
	if err != nil {
		return false, fmt.Errorf("deleting thread history: %w", err)
	}
	history, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("deleting thread history: %w", err)
	}

	deleted := contexts > 0 || history > 0
	if deleted {
		s.logger.Debug("deleted thread", "thread_id", threadID)
	}
	return deleted, nil
}

// Ping verifies the underlying database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
