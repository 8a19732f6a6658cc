// Package pyenv runs Python challenge code in a subprocess runtime.
package pyenv

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/xiaoyuezhuu/ds-interview-generative-pad/internal/session"
)

// DefaultTimeout bounds one script execution.
const DefaultTimeout = 30 * time.Second

// Env is one Python runtime instance. Each Run is a fresh interpreter
// invocation inside the instance's private scratch directory, so no
// variables persist between runs and replacing the Env discards all files
// a prior challenge produced.
type Env struct {
	interpreter string
	dir         string
	prelude     string
	timeout     time.Duration
}

// New creates a Python environment with a private scratch directory.
func New(ctx context.Context) (session.Environment, error) {
	return NewWithInterpreter(ctx, "python3")
}

// NewWithInterpreter creates an environment using the named interpreter.
func NewWithInterpreter(_ context.Context, interpreter string) (session.Environment, error) {
	path, err := exec.LookPath(interpreter)
	if err != nil {
		return nil, fmt.Errorf("locate %s: %w", interpreter, err)
	}

	dir, err := os.MkdirTemp("", "dspad-py-*")
	if err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}

	return &Env{
		interpreter: path,
		dir:         dir,
		timeout:     DefaultTimeout,
	}, nil
}

// LoadSchema stores setup code — dataset generation, fixture writes — that
// runs ahead of every script. A failing setup is fatal, mirroring schema
// application in the SQL variant.
func (e *Env) LoadSchema(ctx context.Context, setup string) error {
	if strings.TrimSpace(setup) == "" {
		return nil
	}
	if _, err := e.execute(ctx, setup); err != nil {
		return err
	}
	e.prelude = setup
	return nil
}

// LoadData is a no-op for the Python runtime: datasets arrive through the
// setup code, not statement batches.
func (e *Env) LoadData(context.Context, string) []error {
	return nil
}

// Run executes the script and returns its captured stdout as text output.
func (e *Env) Run(ctx context.Context, code string) (*session.Result, error) {
	script := code
	if e.prelude != "" {
		script = e.prelude + "\n" + code
	}

	stdout, err := e.execute(ctx, script)
	if err != nil {
		return nil, err
	}
	return &session.Result{Text: stdout}, nil
}

func (e *Env) execute(ctx context.Context, script string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	// -I isolates the run from the user's site-packages and env vars.
	cmd := exec.CommandContext(ctx, e.interpreter, "-I", "-c", script)
	cmd.Dir = e.dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return "", fmt.Errorf("python: %s", lastLines(msg, 5))
	}

	return stdout.String(), nil
}

// Close removes the scratch directory.
func (e *Env) Close() error {
	return os.RemoveAll(e.dir)
}

// lastLines keeps the tail of a traceback, which carries the actual error.
func lastLines(s string, n int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= n {
		return s
	}
	return strings.Join(lines[len(lines)-n:], "\n")
}
