// Package sqlenv runs challenge SQL against an in-process SQLite engine.
package sqlenv

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/xiaoyuezhuu/ds-interview-generative-pad/internal/session"

	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

// SchemaError indicates a structural statement failed to apply. Fatal for
// the challenge load, unlike data statement failures.
type SchemaError struct {
	Statement string
	Err       error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema statement failed: %v (statement: %s)", e.Err, truncate(e.Statement, 120))
}

func (e *SchemaError) Unwrap() error { return e.Err }

// Env is one live SQLite instance. Sessions replace it wholesale between
// challenges; nothing ever resets it in place.
type Env struct {
	db *sql.DB
}

// New opens a fresh in-memory SQLite instance.
func New(ctx context.Context) (session.Environment, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// An in-memory database lives on a single connection; a second pooled
	// connection would see an empty database.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &Env{db: db}, nil
}

// LoadSchema applies CREATE statements one at a time, failing on the first
// error.
func (e *Env) LoadSchema(ctx context.Context, statements string) error {
	for _, stmt := range SplitStatements(statements) {
		if _, err := e.db.ExecContext(ctx, stmt); err != nil {
			return &SchemaError{Statement: stmt, Err: err}
		}
	}
	return nil
}

// LoadData applies INSERT statements, tolerating per-statement failures.
// Valid statements still apply; the failures come back for logging.
func (e *Env) LoadData(ctx context.Context, statements string) []error {
	var errs []error
	for _, stmt := range SplitStatements(statements) {
		if _, err := e.db.ExecContext(ctx, stmt); err != nil {
			errs = append(errs, fmt.Errorf("data statement skipped: %w (statement: %s)", err, truncate(stmt, 120)))
		}
	}
	return errs
}

// Run executes a query and returns its rows with column order preserved.
func (e *Env) Run(ctx context.Context, code string) (*session.Result, error) {
	rows, err := e.db.QueryContext(ctx, code)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	result := &session.Result{Columns: cols}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		result.Rows = append(result.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

// Close releases the SQLite instance.
func (e *Env) Close() error {
	return e.db.Close()
}

// SplitStatements splits a semicolon-separated batch into individual
// statements, honoring single- and double-quoted literals so embedded
// semicolons don't break values like 'a;b'.
func SplitStatements(batch string) []string {
	var stmts []string
	var b strings.Builder
	var quote rune

	for _, r := range batch {
		switch {
		case quote != 0:
			b.WriteRune(r)
			if r == quote {
				quote = 0
			}
		case r == '\'' || r == '"':
			quote = r
			b.WriteRune(r)
		case r == ';':
			if s := strings.TrimSpace(b.String()); s != "" {
				stmts = append(stmts, s)
			}
			b.Reset()
		default:
			b.WriteRune(r)
		}
	}
	if s := strings.TrimSpace(b.String()); s != "" {
		stmts = append(stmts, s)
	}
	return stmts
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
