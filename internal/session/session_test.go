package session

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/xiaoyuezhuu/ds-interview-generative-pad/internal/challenge"
)

// fakeEnv is a scripted Environment. Each instance records what was loaded
// and run against it, and delegates Run to a per-instance function.
type fakeEnv struct {
	id        int
	schema    string
	data      string
	schemaErr error
	dataErrs  []error
	runFn     func(code string) (*Result, error)
	runs      []string
	closed    bool
}

func (f *fakeEnv) LoadSchema(_ context.Context, statements string) error {
	f.schema = statements
	return f.schemaErr
}

func (f *fakeEnv) LoadData(_ context.Context, statements string) []error {
	f.data = statements
	return f.dataErrs
}

func (f *fakeEnv) Run(_ context.Context, code string) (*Result, error) {
	f.runs = append(f.runs, code)
	if f.runFn != nil {
		return f.runFn(code)
	}
	return &Result{Columns: []string{"v"}, Rows: [][]any{{code}}}, nil
}

func (f *fakeEnv) Close() error {
	f.closed = true
	return nil
}

// fakeFactory hands out fakeEnvs in order and keeps every instance for
// inspection.
type fakeFactory struct {
	envs    []*fakeEnv
	created []*fakeEnv
	err     error
}

func (ff *fakeFactory) make(context.Context) (Environment, error) {
	if ff.err != nil {
		return nil, ff.err
	}
	var env *fakeEnv
	if len(ff.envs) > 0 {
		env = ff.envs[0]
		ff.envs = ff.envs[1:]
	} else {
		env = &fakeEnv{id: len(ff.created)}
	}
	ff.created = append(ff.created, env)
	return env, nil
}

func sqlChallenge(solutions ...string) *challenge.Challenge {
	ch := &challenge.Challenge{
		Mode:      challenge.ModeSQL,
		Title:     "test",
		SchemaSQL: "CREATE TABLE t (id INT);",
		DataSQL:   "INSERT INTO t VALUES (1);",
	}
	for i, sol := range solutions {
		ch.Questions = append(ch.Questions, challenge.Question{
			Title:    fmt.Sprintf("q%d", i),
			Prompt:   fmt.Sprintf("question %d", i),
			Solution: sol,
		})
	}
	return ch
}

func startedSession(t *testing.T, ff *fakeFactory) *Session {
	t.Helper()
	s := New("test-session", ff.make)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	return s
}

func TestStart(t *testing.T) {
	ff := &fakeFactory{}
	s := New("s1", ff.make)

	if s.State() != StateUninitialized {
		t.Fatalf("initial state = %v", s.State())
	}
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if s.State() != StateReady {
		t.Errorf("state = %v, want ready", s.State())
	}

	// A second Start is invalid.
	err := s.Start(context.Background())
	var invalid *ErrInvalidState
	if !errors.As(err, &invalid) {
		t.Errorf("second Start: got %v, want ErrInvalidState", err)
	}
}

func TestStart_EnvironmentFailureIsTerminal(t *testing.T) {
	ff := &fakeFactory{err: errors.New("interpreter missing")}
	s := New("s1", ff.make)

	err := s.Start(context.Background())
	var envErr *EnvironmentError
	if !errors.As(err, &envErr) {
		t.Fatalf("got %v, want EnvironmentError", err)
	}
	if s.State() != StateEnvironmentFailed {
		t.Errorf("state = %v, want environment_failed", s.State())
	}
	if s.EnvironmentError() == nil {
		t.Error("failure reason not retained")
	}

	// No operation is valid from the terminal state.
	var invalid *ErrInvalidState
	if err := s.LoadChallenge(context.Background(), sqlChallenge("SELECT 1")); !errors.As(err, &invalid) {
		t.Errorf("LoadChallenge: got %v, want ErrInvalidState", err)
	}
	if _, err := s.Evaluate(context.Background(), "SELECT 1"); !errors.As(err, &invalid) {
		t.Errorf("Evaluate: got %v, want ErrInvalidState", err)
	}
}

func TestLoadChallenge(t *testing.T) {
	ff := &fakeFactory{}
	s := startedSession(t, ff)

	ch := sqlChallenge("SELECT COUNT(*) FROM t")
	if err := s.LoadChallenge(context.Background(), ch); err != nil {
		t.Fatalf("LoadChallenge failed: %v", err)
	}

	if s.State() != StateChallengeReady {
		t.Errorf("state = %v, want challenge_ready", s.State())
	}
	if s.Challenge() != ch {
		t.Error("challenge not stored")
	}

	// Session env is the second instance; the first (from Start) is closed.
	if len(ff.created) != 2 {
		t.Fatalf("created %d envs, want 2", len(ff.created))
	}
	if !ff.created[0].closed {
		t.Error("previous environment was not closed after swap")
	}
	if ff.created[1].schema != ch.SchemaSQL {
		t.Errorf("schema = %q", ff.created[1].schema)
	}
	if ff.created[1].data != ch.DataSQL {
		t.Errorf("data = %q", ff.created[1].data)
	}

	// The first question's reference was computed eagerly.
	if len(ff.created[1].runs) != 1 || ff.created[1].runs[0] != ch.Questions[0].Solution {
		t.Errorf("runs = %v, want eager reference execution", ff.created[1].runs)
	}
}

func TestLoadChallenge_SchemaFailureKeepsPrevious(t *testing.T) {
	broken := &fakeEnv{schemaErr: errors.New("syntax error near CREATE")}
	ff := &fakeFactory{}
	s := startedSession(t, ff)

	first := sqlChallenge("SELECT 1")
	if err := s.LoadChallenge(context.Background(), first); err != nil {
		t.Fatalf("first load failed: %v", err)
	}
	liveEnv := ff.created[1]

	// The replacement environment rejects the schema.
	ff.envs = []*fakeEnv{broken}
	second := sqlChallenge("SELECT 2")
	if err := s.LoadChallenge(context.Background(), second); err == nil {
		t.Fatal("schema failure did not surface")
	}

	// Previous challenge and environment stay live, failed one is torn down.
	if s.State() != StateChallengeReady {
		t.Errorf("state = %v, want challenge_ready", s.State())
	}
	if s.Challenge() != first {
		t.Error("previous challenge was lost")
	}
	if liveEnv.closed {
		t.Error("live environment was closed on failed replacement")
	}
	if !broken.closed {
		t.Error("failed replacement environment was not closed")
	}
	if s.LastLoadError() == "" {
		t.Error("failure message not retained")
	}

	// A later successful load clears the retained error.
	if err := s.LoadChallenge(context.Background(), sqlChallenge("SELECT 3")); err != nil {
		t.Fatalf("recovery load failed: %v", err)
	}
	if s.LastLoadError() != "" {
		t.Errorf("LastLoadError = %q after successful load", s.LastLoadError())
	}
}

func TestLoadChallenge_FactoryFailureKeepsPrevious(t *testing.T) {
	ff := &fakeFactory{}
	s := startedSession(t, ff)

	first := sqlChallenge("SELECT 1")
	if err := s.LoadChallenge(context.Background(), first); err != nil {
		t.Fatalf("first load failed: %v", err)
	}

	ff.err = errors.New("out of resources")
	err := s.LoadChallenge(context.Background(), sqlChallenge("SELECT 2"))
	var envErr *EnvironmentError
	if !errors.As(err, &envErr) {
		t.Fatalf("got %v, want EnvironmentError", err)
	}
	if s.State() != StateChallengeReady {
		t.Errorf("state = %v, want challenge_ready", s.State())
	}
	if s.Challenge() != first {
		t.Error("previous challenge was lost")
	}
}

func TestLoadChallenge_DataWarningsTolerated(t *testing.T) {
	withWarnings := &fakeEnv{dataErrs: []error{errors.New("bad insert"), errors.New("another bad insert")}}
	ff := &fakeFactory{}
	s := startedSession(t, ff)

	ff.envs = []*fakeEnv{withWarnings}
	if err := s.LoadChallenge(context.Background(), sqlChallenge("SELECT 1")); err != nil {
		t.Fatalf("LoadChallenge failed, data errors should be tolerated: %v", err)
	}
	if len(s.DataWarnings()) != 2 {
		t.Errorf("DataWarnings = %v, want 2 entries", s.DataWarnings())
	}
}

func TestSelectQuestion_IdempotentReference(t *testing.T) {
	ff := &fakeFactory{}
	s := startedSession(t, ff)

	if err := s.LoadChallenge(context.Background(), sqlChallenge("SELECT 1", "SELECT 2")); err != nil {
		t.Fatalf("LoadChallenge failed: %v", err)
	}
	env := ff.created[1]
	runsAfterLoad := len(env.runs)

	first, err := s.SelectQuestion(context.Background(), 1)
	if err != nil {
		t.Fatalf("SelectQuestion failed: %v", err)
	}
	if len(env.runs) != runsAfterLoad+1 {
		t.Errorf("runs = %d, want one reference execution for question 1", len(env.runs))
	}

	// Re-selecting serves the cached outcome without re-running.
	second, err := s.SelectQuestion(context.Background(), 1)
	if err != nil {
		t.Fatalf("re-select failed: %v", err)
	}
	if len(env.runs) != runsAfterLoad+1 {
		t.Error("re-selection re-executed the reference solution")
	}
	if !Equal(first, second) {
		t.Error("re-selection yielded a different reference result")
	}
	if s.SelectedQuestion() != 1 {
		t.Errorf("SelectedQuestion = %d, want 1", s.SelectedQuestion())
	}
}

func TestSelectQuestion_OutOfRange(t *testing.T) {
	ff := &fakeFactory{}
	s := startedSession(t, ff)

	if err := s.LoadChallenge(context.Background(), sqlChallenge("SELECT 1")); err != nil {
		t.Fatalf("LoadChallenge failed: %v", err)
	}
	if _, err := s.SelectQuestion(context.Background(), 1); err == nil {
		t.Error("index 1 of a one-question challenge was accepted")
	}
	if _, err := s.SelectQuestion(context.Background(), -1); err == nil {
		t.Error("negative index was accepted")
	}
}

func TestEvaluate_Match(t *testing.T) {
	env := &fakeEnv{runFn: func(code string) (*Result, error) {
		// Reference and user queries produce the same single-row count.
		return &Result{Columns: []string{"count"}, Rows: [][]any{{int64(5)}}}, nil
	}}
	ff := &fakeFactory{}
	s := startedSession(t, ff)
	ff.envs = []*fakeEnv{env}

	if err := s.LoadChallenge(context.Background(), sqlChallenge("SELECT COUNT(*) AS count FROM t")); err != nil {
		t.Fatalf("LoadChallenge failed: %v", err)
	}

	fb, err := s.Evaluate(context.Background(), "SELECT COUNT(id) AS count FROM t")
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if !fb.Match {
		t.Error("identical results did not match")
	}
	if fb.Expected == nil || fb.Actual == nil {
		t.Error("feedback is missing expected or actual result")
	}
	if s.State() != StateChallengeReady {
		t.Errorf("state = %v after Evaluate, want challenge_ready", s.State())
	}
}

func TestEvaluate_Mismatch(t *testing.T) {
	env := &fakeEnv{runFn: func(code string) (*Result, error) {
		if code == "reference" {
			return &Result{Columns: []string{"count"}, Rows: [][]any{{int64(5)}}}, nil
		}
		return &Result{Columns: []string{"count"}, Rows: [][]any{{int64(6)}}}, nil
	}}
	ff := &fakeFactory{}
	s := startedSession(t, ff)
	ff.envs = []*fakeEnv{env}

	if err := s.LoadChallenge(context.Background(), sqlChallenge("reference")); err != nil {
		t.Fatalf("LoadChallenge failed: %v", err)
	}

	fb, err := s.Evaluate(context.Background(), "user query")
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if fb.Match {
		t.Error("differing results matched")
	}
}

func TestEvaluate_ReferenceRunsBeforeUserCode(t *testing.T) {
	env := &fakeEnv{}
	ff := &fakeFactory{}
	s := startedSession(t, ff)
	ff.envs = []*fakeEnv{env}

	if err := s.LoadChallenge(context.Background(), sqlChallenge("reference")); err != nil {
		t.Fatalf("LoadChallenge failed: %v", err)
	}

	if _, err := s.Evaluate(context.Background(), "DELETE FROM t"); err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	// After the eager load-time run, Evaluate appends reference then user.
	runs := env.runs
	if len(runs) != 3 {
		t.Fatalf("runs = %v, want 3 executions", runs)
	}
	if runs[1] != "reference" || runs[2] != "DELETE FROM t" {
		t.Errorf("execution order = %v, reference must precede user code", runs[1:])
	}
}

func TestEvaluate_UserRuntimeError(t *testing.T) {
	env := &fakeEnv{runFn: func(code string) (*Result, error) {
		if code == "bad query" {
			return nil, errors.New("no such column: nope")
		}
		return &Result{Columns: []string{"v"}, Rows: [][]any{{int64(1)}}}, nil
	}}
	ff := &fakeFactory{}
	s := startedSession(t, ff)
	ff.envs = []*fakeEnv{env}

	if err := s.LoadChallenge(context.Background(), sqlChallenge("SELECT 1 AS v")); err != nil {
		t.Fatalf("LoadChallenge failed: %v", err)
	}

	_, err := s.Evaluate(context.Background(), "bad query")
	var exec *ExecutionError
	if !errors.As(err, &exec) {
		t.Fatalf("got %v, want ExecutionError", err)
	}
	if s.State() != StateChallengeReady {
		t.Errorf("state = %v after failed Evaluate, want challenge_ready", s.State())
	}
}

func TestEvaluate_RequiresLoadedChallenge(t *testing.T) {
	ff := &fakeFactory{}
	s := startedSession(t, ff)

	_, err := s.Evaluate(context.Background(), "SELECT 1")
	var invalid *ErrInvalidState
	if !errors.As(err, &invalid) {
		t.Fatalf("got %v, want ErrInvalidState", err)
	}
}

func TestClose(t *testing.T) {
	ff := &fakeFactory{}
	s := startedSession(t, ff)

	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if !ff.created[0].closed {
		t.Error("environment not closed")
	}
}
