package survey

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketlens/marketlens/internal/log"
)

func seededStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(":memory:", log.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	rows := NewGenerator(1).Dataset(10)
	require.NoError(t, store.Seed(context.Background(), rows))
	return store
}

func TestStore_SeedAndCount(t *testing.T) {
	store := seededStore(t)

	n, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Positive(t, n)
}

func TestStore_SeedIdempotent(t *testing.T) {
	store, err := Open(":memory:", log.NewNop())
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	rows := NewGenerator(1).Dataset(5)

	require.NoError(t, store.Seed(ctx, rows))
	first, err := store.Count(ctx)
	require.NoError(t, err)

	require.NoError(t, store.Seed(ctx, rows))
	second, err := store.Count(ctx)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestStore_Query(t *testing.T) {
	store := seededStore(t)
	ctx := context.Background()

	rows, err := store.Query(ctx, "SELECT COUNT(*) AS count FROM all_responses")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Contains(t, rows[0], "count")
}

func TestStore_QueryWithCast(t *testing.T) {
	store := seededStore(t)
	ctx := context.Background()

	rows, err := store.Query(ctx, `
		SELECT
			brand_id,
			COUNT(DISTINCT user_id) AS num_respondents,
			AVG(CAST(answer AS INTEGER)) AS avg_rating
		FROM survey_responses
		WHERE question_type = 'rating'
		GROUP BY brand_id
	`)
	require.NoError(t, err)
	require.NotEmpty(t, rows)

	for _, row := range rows {
		assert.Contains(t, row, "brand_id")
		assert.Contains(t, row, "num_respondents")
		assert.Contains(t, row, "avg_rating")
	}
}

func TestStore_QueryDemographics(t *testing.T) {
	store := seededStore(t)

	rows, err := store.Query(context.Background(), `
		SELECT
			CASE
				WHEN CAST(age AS INTEGER) < 30 THEN 'Under 30'
				WHEN CAST(age AS INTEGER) < 50 THEN '30-50'
				ELSE 'Over 50'
			END AS age_group,
			COUNT(DISTINCT user_id) AS num_respondents,
			COUNT(*) AS num_responses
		FROM all_responses
		GROUP BY age_group
		ORDER BY age_group
	`)
	require.NoError(t, err)
	require.NotEmpty(t, rows)

	for _, row := range rows {
		respondents, ok := row["num_respondents"].(int64)
		require.True(t, ok, "num_respondents type %T", row["num_respondents"])
		responses, ok := row["num_responses"].(int64)
		require.True(t, ok)
		assert.GreaterOrEqual(t, responses, respondents)
	}
}

func TestStore_QueryRejectsWrites(t *testing.T) {
	store := seededStore(t)

	_, err := store.Query(context.Background(), "DELETE FROM survey_responses")
	assert.ErrorIs(t, err, ErrUnsafeQuery)
}

func TestStore_Schema(t *testing.T) {
	store := seededStore(t)
	ctx := context.Background()

	schema, err := store.Schema(ctx)
	require.NoError(t, err)

	require.Contains(t, schema, "survey_responses")
	require.Contains(t, schema, "all_responses")
	require.Contains(t, schema, "brand_techcorp")

	var names []string
	for _, col := range schema["survey_responses"] {
		names = append(names, col.Name)
	}
	for _, want := range responseColumns {
		assert.Contains(t, names, want)
	}
}

func TestStore_SchemaDescription(t *testing.T) {
	store := seededStore(t)

	desc, err := store.SchemaDescription(context.Background())
	require.NoError(t, err)
	assert.Contains(t, desc, "all_responses")
	assert.Contains(t, desc, "question_type")

	// Relations appear in sorted order so the prompt is stable.
	require.Contains(t, desc, "survey_responses")
	assert.Less(t, strings.Index(desc, "all_responses"), strings.Index(desc, "survey_responses"))
}

func TestBrandViewName(t *testing.T) {
	assert.Equal(t, "brand_techcorp", brandViewName("TechCorp"))
	assert.Equal(t, "brand_eco_goods", brandViewName("Eco Goods"))
	assert.Equal(t, "brand_a1", brandViewName("A1"))
}
