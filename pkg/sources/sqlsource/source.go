// Package sqlsource loads option records with a database/sql query. Any
// registered driver works; the CLI and tests use go-sqlite3.
package sqlsource

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/goliatone/go-selectkit/pkg/record"
	"github.com/goliatone/go-selectkit/pkg/selectsingle"
)

// Source runs one query per fetch and maps each row to a Record keyed by
// column name.
type Source struct {
	db    *sql.DB
	query string
	args  []any
}

var _ selectsingle.Service[record.Record] = (*Source)(nil)

// New builds a Source. args are bound to the query placeholders.
func New(db *sql.DB, query string, args ...any) *Source {
	return &Source{
		db:    db,
		query: strings.TrimSpace(query),
		args:  append([]any(nil), args...),
	}
}

// WithArgs returns a copy of s bound to different arguments, for controllers
// whose fetch dependencies feed the query.
func (s *Source) WithArgs(args ...any) *Source {
	return New(s.db, s.query, args...)
}

// Fetch executes the query.
func (s *Source) Fetch(ctx context.Context) ([]record.Record, error) {
	if s.db == nil {
		return nil, fmt.Errorf("sqlsource: database is required")
	}
	if s.query == "" {
		return nil, fmt.Errorf("sqlsource: query is required")
	}

	rows, err := s.db.QueryContext(ctx, s.query, s.args...)
	if err != nil {
		return nil, fmt.Errorf("sqlsource: query: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("sqlsource: columns: %w", err)
	}

	var out []record.Record
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("sqlsource: scan: %w", err)
		}
		rec := make(record.Record, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				rec[col] = string(b)
				continue
			}
			rec[col] = values[i]
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlsource: rows: %w", err)
	}
	return out, nil
}
