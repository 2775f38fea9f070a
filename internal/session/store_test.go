package session

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketlens/marketlens/internal/database"
	"github.com/marketlens/marketlens/internal/log"
)

func testStore(t *testing.T) *Store {
	t.Helper()

	db, err := database.Open(filepath.Join(t.TempDir(), "context.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(db))

	return New(db, log.NewNop())
}

func TestStore_ContextUnknownIDs(t *testing.T) {
	store := testStore(t)

	got, err := store.Context(context.Background(), "nobody", "nothing")
	require.NoError(t, err)

	assert.NotNil(t, got.UserContext)
	assert.Empty(t, got.UserContext)
	assert.NotNil(t, got.ThreadContext)
	assert.Empty(t, got.ThreadContext)
	assert.Empty(t, got.CombinedHistory)
}

func TestStore_ContextPersistence(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveUserContext(ctx, "u1", map[string]any{
		"preferences": map[string]any{"detail": "full"},
	}))
	require.NoError(t, store.SaveThreadContext(ctx, "t1", "u1", map[string]any{
		"last_brand": "TechCorp",
	}))

	got, err := store.Context(ctx, "u1", "t1")
	require.NoError(t, err)

	prefs, ok := got.UserContext["preferences"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "full", prefs["detail"])
	assert.Equal(t, "TechCorp", got.ThreadContext["last_brand"])
	assert.Equal(t, "full", got.CombinedHistory["detail"])
}

func TestStore_SaveUserContextOverwrites(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveUserContext(ctx, "u1", map[string]any{"a": "1"}))
	require.NoError(t, store.SaveUserContext(ctx, "u1", map[string]any{"b": "2"}))

	got, err := store.Context(ctx, "u1", "t1")
	require.NoError(t, err)
	assert.NotContains(t, got.UserContext, "a")
	assert.Equal(t, "2", got.UserContext["b"])
}

func TestStore_UpdateThreadContextMerges(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveThreadContext(ctx, "t1", "u1", map[string]any{"a": "1"}))
	require.NoError(t, store.UpdateThreadContext(ctx, "t1", "u1", map[string]any{"b": "2"}))

	got, err := store.Context(ctx, "u1", "t1")
	require.NoError(t, err)
	assert.Equal(t, "1", got.ThreadContext["a"])
	assert.Equal(t, "2", got.ThreadContext["b"])
}

func TestStore_UpdateThreadContextCreates(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpdateThreadContext(ctx, "fresh", "u1", map[string]any{"x": "y"}))

	threads, err := store.ListThreads(ctx, "u1")
	require.NoError(t, err)
	assert.Contains(t, threads, "fresh")
}

func TestStore_RecordInteraction(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveThreadContext(ctx, "t1", "u1", map[string]any{}))
	require.NoError(t, store.RecordInteraction(ctx, "u1", "t1", "How many responses?", `{"question_type":"analytical"}`))
	require.NoError(t, store.RecordInteraction(ctx, "u1", "t1", "And by gender?", `{"question_type":"analytical"}`))

	// History table has both entries, newest first.
	history, err := store.History(ctx, "t1", 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "And by gender?", history[0].Question)
	assert.Equal(t, "How many responses?", history[1].Question)

	// Thread context history array grew too.
	got, err := store.Context(ctx, "u1", "t1")
	require.NoError(t, err)
	entries, ok := got.ThreadContext["history"].([]any)
	require.True(t, ok)
	assert.Len(t, entries, 2)
}

func TestStore_RecordInteractionWithoutThreadContext(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	// No thread context row: the history table still gets the record.
	require.NoError(t, store.RecordInteraction(ctx, "u1", "ghost", "q", "r"))

	history, err := store.History(ctx, "ghost", 10)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestStore_ListThreads(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveThreadContext(ctx, "t1", "u1", map[string]any{}))
	require.NoError(t, store.SaveThreadContext(ctx, "t2", "u2", map[string]any{}))

	all, err := store.ListThreads(ctx, "")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"t1", "t2"}, all)

	mine, err := store.ListThreads(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"t1"}, mine)
}

func TestStore_DeleteThread(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveThreadContext(ctx, "t1", "u1", map[string]any{}))
	require.NoError(t, store.RecordInteraction(ctx, "u1", "t1", "q", "r"))

	deleted, err := store.DeleteThread(ctx, "t1")
	require.NoError(t, err)
	assert.True(t, deleted)

	history, err := store.History(ctx, "t1", 10)
	require.NoError(t, err)
	assert.Empty(t, history)

	deleted, err = store.DeleteThread(ctx, "t1")
	require.NoError(t, err)
	assert.False(t, deleted)
}
