package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/xiaoyuezhuu/ds-interview-generative-pad/internal/challenge"
)

// State is a session's position in its lifecycle.
type State int

const (
	StateUninitialized State = iota
	StateEnvironmentLoading
	StateReady
	StateChallengeLoading
	StateChallengeReady
	StateEvaluating

	// StateEnvironmentFailed is terminal: the interpreter never loaded
	// and the session has no partial capability.
	StateEnvironmentFailed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateEnvironmentLoading:
		return "environment_loading"
	case StateReady:
		return "ready"
	case StateChallengeLoading:
		return "challenge_loading"
	case StateChallengeReady:
		return "challenge_ready"
	case StateEvaluating:
		return "evaluating"
	case StateEnvironmentFailed:
		return "environment_failed"
	}
	return "unknown"
}

// ErrInvalidState reports an operation attempted in a state that does not
// allow it.
type ErrInvalidState struct {
	Op    string
	State State
}

func (e *ErrInvalidState) Error() string {
	return fmt.Sprintf("%s is not valid in state %s", e.Op, e.State)
}

// Feedback is the outcome of comparing the user's execution result against
// the reference result for the selected question.
type Feedback struct {
	Match    bool
	Expected *Result
	Actual   *Result
}

// referenceOutcome caches a question's reference execution, success or
// error, so the expected output can be shown without re-running.
type referenceOutcome struct {
	result *Result
	err    error
}

// Session owns one live Environment and the currently loaded Challenge,
// and sequences challenge load, reference computation, user execution and
// comparison. All methods are serialized: per the interaction model, no
// two operations for one session are ever in flight concurrently, and the
// mutex enforces that at the boundary.
type Session struct {
	mu      sync.Mutex
	id      string
	factory Factory

	state     State
	env       Environment
	challenge *challenge.Challenge
	selected  int
	reference map[int]*referenceOutcome

	// lastLoadErr retains the most recent recoverable load failure for
	// display. The previous challenge, if any, stays intact.
	lastLoadErr string

	// envErr retains the fatal environment failure reason.
	envErr error

	// dataWarnings holds per-statement data load failures from the most
	// recent successful challenge load.
	dataWarnings []string
}

// New creates a Session in the uninitialized state.
func New(id string, factory Factory) *Session {
	return &Session{
		id:        id,
		factory:   factory,
		state:     StateUninitialized,
		reference: make(map[int]*referenceOutcome),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Challenge returns the loaded challenge, or nil.
func (s *Session) Challenge() *challenge.Challenge {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.challenge
}

// SelectedQuestion returns the active question index.
func (s *Session) SelectedQuestion() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// LastLoadError returns the retained recoverable failure message, if any.
func (s *Session) LastLoadError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastLoadErr
}

// EnvironmentError returns the fatal environment failure reason, if any.
func (s *Session) EnvironmentError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.envErr
}

// DataWarnings returns the tolerated data-statement failures from the most
// recent challenge load.
func (s *Session) DataWarnings() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dataWarnings
}

// Start acquires the execution environment. On failure the session enters
// the terminal environment_failed state with the reason retained; there is
// no automatic retry.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateUninitialized {
		return &ErrInvalidState{Op: "start", State: s.state}
	}

	s.state = StateEnvironmentLoading
	env, err := s.factory(ctx)
	if err != nil {
		s.state = StateEnvironmentFailed
		s.envErr = &EnvironmentError{Err: err}
		return s.envErr
	}

	s.env = env
	s.state = StateReady
	return nil
}

// LoadChallenge replaces the current challenge. The new environment is
// fully built — schema applied, data applied, reference result for the
// first question computed — before the old one is torn down, so a failure
// at any step leaves the previous challenge untouched (build-then-swap,
// never clear-then-build).
func (s *Session) LoadChallenge(ctx context.Context, ch *challenge.Challenge) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateReady && s.state != StateChallengeReady {
		return &ErrInvalidState{Op: "load challenge", State: s.state}
	}

	prev := s.state
	s.state = StateChallengeLoading

	fail := func(err error) error {
		s.state = prev
		s.lastLoadErr = err.Error()
		return err
	}

	next, err := s.factory(ctx)
	if err != nil {
		return fail(&EnvironmentError{Err: err})
	}

	if ch.Mode == challenge.ModeSQL {
		if err := next.LoadSchema(ctx, ch.SchemaSQL); err != nil {
			next.Close()
			return fail(err)
		}
	}

	var warnings []string
	if ch.Mode == challenge.ModeSQL && ch.DataSQL != "" {
		for _, derr := range next.LoadData(ctx, ch.DataSQL) {
			warnings = append(warnings, derr.Error())
		}
	}

	// Eagerly compute the first question's reference result against the
	// fresh environment. Success or error, the outcome is cached so the
	// expected output can be shown without re-running.
	ref := runReference(ctx, next, ch.Questions[0])

	// Swap. Only now does the previous environment and challenge go away.
	if s.env != nil {
		s.env.Close()
	}
	s.env = next
	s.challenge = ch
	s.selected = 0
	s.reference = map[int]*referenceOutcome{0: ref}
	s.dataWarnings = warnings
	s.lastLoadErr = ""
	s.state = StateChallengeReady
	return nil
}

// SelectQuestion switches the active question within the loaded challenge
// and returns its reference result, computing and caching it on first use.
// Schema and data are challenge-scoped, so no reload is needed, and
// re-selecting a question against unchanged environment state yields an
// identical result.
func (s *Session) SelectQuestion(ctx context.Context, index int) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateChallengeReady {
		return nil, &ErrInvalidState{Op: "select question", State: s.state}
	}
	if index < 0 || index >= len(s.challenge.Questions) {
		return nil, fmt.Errorf("question index %d out of range [0,%d)", index, len(s.challenge.Questions))
	}

	s.selected = index
	ref, ok := s.reference[index]
	if !ok {
		ref = runReference(ctx, s.env, s.challenge.Questions[index])
		s.reference[index] = ref
	}
	return ref.result, ref.err
}

// Evaluate runs the user's code against the live environment and compares
// its result with the selected question's reference result. The reference
// executes first: if the user's code mutates shared state, the reference
// must not observe it.
func (s *Session) Evaluate(ctx context.Context, code string) (*Feedback, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateChallengeReady {
		return nil, &ErrInvalidState{Op: "evaluate", State: s.state}
	}

	s.state = StateEvaluating
	defer func() { s.state = StateChallengeReady }()

	q := s.challenge.Questions[s.selected]

	ref := runReference(ctx, s.env, q)
	s.reference[s.selected] = ref
	if ref.err != nil {
		return nil, fmt.Errorf("reference solution failed: %w", ref.err)
	}

	actual, err := s.env.Run(ctx, code)
	if err != nil {
		return nil, &ExecutionError{Code: code, Err: err}
	}

	return &Feedback{
		Match:    Equal(ref.result, actual),
		Expected: ref.result,
		Actual:   actual,
	}, nil
}

// Close tears down the session's environment.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.env != nil {
		err := s.env.Close()
		s.env = nil
		return err
	}
	return nil
}

func runReference(ctx context.Context, env Environment, q challenge.Question) *referenceOutcome {
	result, err := env.Run(ctx, q.Solution)
	if err != nil {
		return &referenceOutcome{err: &ExecutionError{Code: q.Solution, Err: err}}
	}
	return &referenceOutcome{result: result}
}
