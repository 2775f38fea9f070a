package survey

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrUnsafeQuery is returned when generated SQL is anything other than a
// single read-only statement.
var ErrUnsafeQuery = errors.New("query is not a single read-only statement")

var (
	fenceRe     = regexp.MustCompile("(?s)```(?:sql)?\\s*(.*?)```")
	forbiddenRe = regexp.MustCompile(`(?i)\b(pragma|attach|detach|vacuum)\b`)
)

// EnsureReadOnly validates SQL produced by the model before execution and
// returns a cleaned copy. It strips markdown fences the model may have
// wrapped around the query, then accepts exactly one statement whose first
// keyword is SELECT or WITH. PRAGMA/ATTACH and friends are rejected outright.
//
// This is a keyword-level gate, not a parser: SQLite still enforces syntax,
// and the store is only ever queried, never handed DDL, through this path.
func EnsureReadOnly(query string) (string, error) {
	clean := query
	if m := fenceRe.FindStringSubmatch(clean); m != nil {
		clean = m[1]
	}
	clean = strings.TrimSpace(clean)
	clean = strings.TrimSuffix(clean, ";")
	clean = strings.TrimSpace(clean)

	if clean == "" {
		return "", fmt.Errorf("%w: empty query", ErrUnsafeQuery)
	}
	if strings.Contains(clean, ";") {
		return "", fmt.Errorf("%w: multiple statements", ErrUnsafeQuery)
	}
	if forbiddenRe.MatchString(clean) {
		return "", fmt.Errorf("%w: forbidden keyword", ErrUnsafeQuery)
	}

	first := strings.ToUpper(firstWord(clean))
	switch first {
	case "SELECT", "WITH":
		return clean, nil
	default:
		return "", fmt.Errorf("%w: starts with %q", ErrUnsafeQuery, first)
	}
}

func firstWord(s string) string {
	for i, r := range s {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '(' {
			return s[:i]
		}
	}
	return s
}
