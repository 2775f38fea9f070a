package survey

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/marketlens/marketlens/internal/log"
)

// responseColumns is the flattened schema, in insert order. Every column is
// TEXT; see the package comment for why.
var responseColumns = []string{
	"response_id", "user_id", "brand_id", "survey_id", "timestamp",
	"question_id", "question_type", "question_text", "question_group",
	"answer", "scale_min", "scale_max", "options",
	"age", "gender", "location", "income_bracket", "education",
}

// Column describes one column of a table or view.
type Column struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Store is the embedded analytical store the SQL agent queries. It holds the
// flattened survey responses in a single SQLite table plus convenience views
// (all_responses and one view per brand).
//
// Store is safe for concurrent use; SQLite serializes writers internally and
// all reads go through database/sql.
type Store struct {
	db     *sql.DB
	logger log.Logger
}

// Open opens (or creates) the survey store at path. Use ":memory:" for an
// ephemeral store in tests.
func Open(path string, logger log.Logger) (*Store, error) {
	if logger == nil {
		logger = log.NewNop()
	}

	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening survey store: %w", err)
	}

	s := &Store{db: db, logger: logger}
	if err := s.init(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

func (s *Store) init() error {
	cols := make([]string, len(responseColumns))
	for i, c := range responseColumns {
		cols[i] = c + " TEXT"
	}

	ddl := fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS survey_responses (%s, PRIMARY KEY (response_id))",
		strings.Join(cols, ", "),
	)
	if _, err := s.db.Exec(ddl); err != nil {
		return fmt.Errorf("creating survey_responses: %w", err)
	}

	if _, err := s.db.Exec(
		"CREATE VIEW IF NOT EXISTS all_responses AS SELECT * FROM survey_responses",
	); err != nil {
		return fmt.Errorf("creating all_responses view: %w", err)
	}

	return nil
}

// Seed inserts responses in a single transaction and refreshes the per-brand
// views. Rows with duplicate response IDs are ignored, so re-seeding is
// idempotent.
func (s *Store) Seed(ctx context.Context, responses []Response) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning seed transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(responseColumns)), ", ")
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		"INSERT OR IGNORE INTO survey_responses (%s) VALUES (%s)",
		strings.Join(responseColumns, ", "), placeholders,
	))
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	brands := make(map[string]struct{})
	for _, r := range responses {
		brands[r.BrandID] = struct{}{}
		if _, err := stmt.ExecContext(ctx,
			r.ResponseID, r.UserID, r.BrandID, r.SurveyID, r.Timestamp,
			r.QuestionID, string(r.QuestionType), r.QuestionText, r.QuestionGroup,
			r.Answer, r.ScaleMin, r.ScaleMax, r.Options,
			r.Age, r.Gender, r.Location, r.IncomeBracket, r.Education,
		); err != nil {
			return fmt.Errorf("inserting response %s: %w", r.ResponseID, err)
		}
	}

	for brand := range brands {
		view := brandViewName(brand)
		// Brand IDs come from our own catalog, but quote the literal anyway.
		q := fmt.Sprintf(
			"CREATE VIEW IF NOT EXISTS %s AS SELECT * FROM survey_responses WHERE brand_id = '%s'",
			view, strings.ReplaceAll(brand, "'", "''"),
		)
		if _, err := tx.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("creating view %s: %w", view, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing seed: %w", err)
	}

	s.logger.Info("seeded survey store", "rows", len(responses), "brands", len(brands))
	return nil
}

// brandViewName derives a safe view name from a brand identifier.
func brandViewName(brand string) string {
	var b strings.Builder
	b.WriteString("brand_")
	for _, r := range strings.ToLower(brand) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// Count returns the number of stored responses.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM survey_responses").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting responses: %w", err)
	}
	return n, nil
}

// Query runs a read-only SQL query and returns the rows as maps keyed by
// column name. The query passes through EnsureReadOnly first; anything that
// is not a single SELECT/WITH statement is rejected.
func (s *Store) Query(ctx context.Context, query string) ([]map[string]any, error) {
	clean, err := EnsureReadOnly(query)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, clean)
	if err != nil {
		return nil, fmt.Errorf("executing query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("reading columns: %w", err)
	}

	var out []map[string]any
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		row := make(map[string]any, len(cols))
		for i, col := range cols {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}

	return out, nil
}

// Schema lists every table and view with its columns.
func (s *Store) Schema(ctx context.Context) (map[string][]Column, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT name FROM sqlite_master WHERE type IN ('table', 'view') AND name NOT LIKE 'sqlite_%' ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("listing relations: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning relation name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating relations: %w", err)
	}

	schema := make(map[string][]Column, len(names))
	for _, name := range names {
		cols, err := s.columns(ctx, name)
		if err != nil {
			return nil, err
		}
		schema[name] = cols
	}
	return schema, nil
}

func (s *Store) columns(ctx context.Context, relation string) ([]Column, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%q)", relation))
	if err != nil {
		return nil, fmt.Errorf("describing %s: %w", relation, err)
	}
	defer rows.Close()

	var cols []Column
	for rows.Next() {
		var (
			cid       int
			name, typ string
			notNull   int
			dflt      sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("scanning column of %s: %w", relation, err)
		}
		cols = append(cols, Column{Name: name, Type: typ})
	}
	return cols, rows.Err()
}

// SchemaDescription renders the schema as a compact text block for the SQL
// agent's prompt.
func (s *Store) SchemaDescription(ctx context.Context) (string, error) {
	schema, err := s.Schema(ctx)
	if err != nil {
		return "", err
	}

	names := make([]string, 0, len(schema))
	for name := range schema {
		names = append(names, name)
	}
	// Stable order for prompts and tests.
	slices.Sort(names)

	var b strings.Builder
	for _, name := range names {
		b.WriteString(name)
		b.WriteString(" (")
		for i, col := range schema[name] {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(col.Name)
			if col.Type != "" {
				b.WriteString(" ")
				b.WriteString(col.Type)
			}
		}
		b.WriteString(")\n")
	}
	return b.String(), nil
}

// Ping verifies the underlying database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
