package session

import (
	"context"
	"fmt"
)

// Environment is the in-process interpreter a session runs code against.
// The session never inspects the environment's internals; it only observes
// success or failure and the result shape. Replacing an environment means
// building a new instance through the Factory, never mutating in place.
type Environment interface {
	// LoadSchema applies structural statements (CREATE TABLE ...).
	// Any failure is fatal for the load.
	LoadSchema(ctx context.Context, statements string) error

	// LoadData applies data statements (INSERT ...). Failures are
	// tolerated per statement and returned for logging; valid
	// statements still apply.
	LoadData(ctx context.Context, statements string) []error

	// Run executes user or reference code and returns its result.
	Run(ctx context.Context, code string) (*Result, error)

	// Close releases the interpreter instance.
	Close() error
}

// Factory produces a fresh Environment. Called once at session start and
// once per challenge load, so stale tables and variables can never leak
// between challenges.
type Factory func(ctx context.Context) (Environment, error)

// Result is a successful execution outcome: either ordered relational rows
// or captured text output, never both.
type Result struct {
	// Columns is the result column order as produced by the engine.
	Columns []string

	// Rows is the ordered row sequence, one value per column.
	Rows [][]any

	// Text is captured stdout for script runtimes. When Text is set,
	// Columns and Rows are empty.
	Text string
}

// IsText reports whether the result carries text output rather than rows.
func (r *Result) IsText() bool {
	return len(r.Columns) == 0 && r.Text != ""
}

// EnvironmentError indicates the interpreter failed to load. Fatal for the
// session: there is no automatic retry and no partial capability.
type EnvironmentError struct {
	Err error
}

func (e *EnvironmentError) Error() string {
	return fmt.Sprintf("execution environment failed to load: %v", e.Err)
}

func (e *EnvironmentError) Unwrap() error { return e.Err }

// ExecutionError indicates user or reference code raised at runtime.
// Surfaced as-is, never retried.
type ExecutionError struct {
	Code string
	Err  error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("execution failed: %v", e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }
