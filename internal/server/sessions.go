package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xiaoyuezhuu/ds-interview-generative-pad/internal/challenge"
	"github.com/xiaoyuezhuu/ds-interview-generative-pad/internal/llm"
	"github.com/xiaoyuezhuu/ds-interview-generative-pad/internal/pyenv"
	"github.com/xiaoyuezhuu/ds-interview-generative-pad/internal/session"
	"github.com/xiaoyuezhuu/ds-interview-generative-pad/internal/sqlenv"
	"github.com/xiaoyuezhuu/ds-interview-generative-pad/internal/store"
)

// entry pairs a session with its challenge mode for event records.
type entry struct {
	session *session.Session
	mode    challenge.Mode
}

// registry owns the live sessions, keyed by UUID. Sessions are created on
// demand and torn down by an explicit delete or process exit.
type registry struct {
	mu          sync.Mutex
	sessions    map[string]*entry
	interpreter string
}

func newRegistry(interpreter string) *registry {
	return &registry{
		sessions:    make(map[string]*entry),
		interpreter: interpreter,
	}
}

func (r *registry) factory(mode challenge.Mode) session.Factory {
	if mode == challenge.ModePython {
		return func(ctx context.Context) (session.Environment, error) {
			return pyenv.NewWithInterpreter(ctx, r.interpreter)
		}
	}
	return sqlenv.New
}

func (r *registry) create(ctx context.Context, mode challenge.Mode) (*entry, error) {
	s := session.New(uuid.NewString(), r.factory(mode))
	if err := s.Start(ctx); err != nil {
		return nil, err
	}
	e := &entry{session: s, mode: mode}
	r.mu.Lock()
	r.sessions[s.ID()] = e
	r.mu.Unlock()
	return e, nil
}

func (r *registry) get(id string) (*entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[id]
	return e, ok
}

func (r *registry) remove(id string) (*entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	return e, ok
}

// closeAll tears down every live session. Called on server shutdown.
func (r *registry) closeAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, e := range r.sessions {
		e.session.Close()
		delete(r.sessions, id)
	}
}

type createSessionRequest struct {
	Mode string `json:"mode"`
}

type sessionView struct {
	ID               string   `json:"id"`
	Mode             string   `json:"mode"`
	State            string   `json:"state"`
	SelectedQuestion int      `json:"selected_question"`
	Challenge        any      `json:"challenge,omitempty"`
	LastLoadError    string   `json:"last_load_error,omitempty"`
	DataWarnings     []string `json:"data_warnings,omitempty"`
}

func viewOf(e *entry) sessionView {
	v := sessionView{
		ID:               e.session.ID(),
		Mode:             string(e.mode),
		State:            e.session.State().String(),
		SelectedQuestion: e.session.SelectedQuestion(),
		LastLoadError:    e.session.LastLoadError(),
		DataWarnings:     e.session.DataWarnings(),
	}
	if ch := e.session.Challenge(); ch != nil {
		v.Challenge = ch
	}
	return v
}

// resultView is the wire form of an execution result.
type resultView struct {
	Columns []string `json:"columns,omitempty"`
	Rows    [][]any  `json:"rows,omitempty"`
	Text    string   `json:"text,omitempty"`
}

func resultOf(r *session.Result) *resultView {
	if r == nil {
		return nil
	}
	return &resultView{Columns: r.Columns, Rows: r.Rows, Text: r.Text}
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	mode := challenge.Mode(req.Mode)
	if mode != challenge.ModeSQL && mode != challenge.ModePython {
		Error(w, http.StatusBadRequest, `mode must be "sql" or "python"`)
		return
	}

	e, err := h.sessions.create(r.Context(), mode)
	if err != nil {
		h.log.Error("environment failed to load", zap.String("mode", req.Mode), zap.Error(err))
		Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.log.Info("session created", zap.String("session_id", e.session.ID()), zap.String("mode", req.Mode))
	JSON(w, http.StatusCreated, viewOf(e))
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	e, ok := h.sessions.get(chi.URLParam(r, "id"))
	if !ok {
		Error(w, http.StatusNotFound, "session not found")
		return
	}
	JSON(w, http.StatusOK, viewOf(e))
}

func (h *Handler) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	e, ok := h.sessions.remove(chi.URLParam(r, "id"))
	if !ok {
		Error(w, http.StatusNotFound, "session not found")
		return
	}
	e.session.Close()
	w.WriteHeader(http.StatusNoContent)
}

type loadChallengeRequest struct {
	Source     string `json:"source,omitempty"`
	Topic      string `json:"topic,omitempty"`
	Company    string `json:"company,omitempty"`
	Difficulty string `json:"difficulty,omitempty"`
	Dataset    string `json:"dataset,omitempty"`
	Stage      string `json:"stage,omitempty"`
	APIKey     string `json:"apiKey,omitempty"`
}

// handleLoadChallenge generates a new challenge and loads it into the
// session, replacing any prior one. A failure anywhere leaves the session
// with its previous challenge intact.
func (h *Handler) handleLoadChallenge(w http.ResponseWriter, r *http.Request) {
	e, ok := h.sessions.get(chi.URLParam(r, "id"))
	if !ok {
		Error(w, http.StatusNotFound, "session not found")
		return
	}

	var req loadChallengeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	params := challenge.Params{
		Mode:       e.mode,
		Source:     challenge.Source(req.Source),
		Topic:      req.Topic,
		Company:    req.Company,
		Difficulty: challenge.Difficulty(req.Difficulty),
		Dataset:    req.Dataset,
		Stage:      req.Stage,
	}
	if e.mode == challenge.ModeSQL && params.Source == "" {
		params.Source = challenge.SourceManual
	}
	if err := params.Validate(); err != nil {
		Error(w, http.StatusBadRequest, err.Error())
		return
	}

	purpose := "sql-challenge"
	if e.mode == challenge.ModePython {
		purpose = "python-challenge"
	}
	ctx := llm.WithPurpose(r.Context(), purpose)

	provider, err := h.resolveProvider(ctx, req.APIKey)
	if err != nil {
		Error(w, http.StatusBadRequest, err.Error())
		return
	}

	gen := challenge.New(provider, challenge.DefaultConfig())
	ch, err := gen.Generate(ctx, params)
	if err != nil {
		var verr *challenge.ValidationError
		if errors.As(err, &verr) {
			Error(w, http.StatusBadRequest, err.Error())
			return
		}
		h.log.Warn("challenge generation failed", zap.Error(err))
		Error(w, http.StatusBadGateway, err.Error())
		return
	}

	if err := e.session.LoadChallenge(ctx, ch); err != nil {
		var invalid *session.ErrInvalidState
		if errors.As(err, &invalid) {
			Error(w, http.StatusConflict, err.Error())
			return
		}
		Error(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	h.log.Info("challenge loaded",
		zap.String("session_id", e.session.ID()),
		zap.String("title", ch.Title),
		zap.Int("questions", len(ch.Questions)))
	JSON(w, http.StatusOK, viewOf(e))
}

type selectQuestionRequest struct {
	Index int `json:"index"`
}

type selectQuestionResponse struct {
	Index     int         `json:"index"`
	Reference *resultView `json:"reference,omitempty"`
	Error     string      `json:"error,omitempty"`
}

// handleSelectQuestion switches the active question and returns its cached
// or freshly computed reference result. A reference execution error is part
// of the payload, not a transport failure: the question is still selected.
func (h *Handler) handleSelectQuestion(w http.ResponseWriter, r *http.Request) {
	e, ok := h.sessions.get(chi.URLParam(r, "id"))
	if !ok {
		Error(w, http.StatusNotFound, "session not found")
		return
	}

	var req selectQuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	ref, err := e.session.SelectQuestion(r.Context(), req.Index)
	if err != nil {
		var invalid *session.ErrInvalidState
		if errors.As(err, &invalid) {
			Error(w, http.StatusConflict, err.Error())
			return
		}
		var exec *session.ExecutionError
		if errors.As(err, &exec) {
			JSON(w, http.StatusOK, selectQuestionResponse{Index: req.Index, Error: err.Error()})
			return
		}
		Error(w, http.StatusBadRequest, err.Error())
		return
	}

	JSON(w, http.StatusOK, selectQuestionResponse{Index: req.Index, Reference: resultOf(ref)})
}

type runRequest struct {
	Code string `json:"code"`
}

type runResponse struct {
	Match    bool        `json:"match"`
	Expected *resultView `json:"expected,omitempty"`
	Actual   *resultView `json:"actual,omitempty"`
	Error    string      `json:"error,omitempty"`
}

// handleRun evaluates user code against the live environment and records
// the attempt in the event store.
func (h *Handler) handleRun(w http.ResponseWriter, r *http.Request) {
	e, ok := h.sessions.get(chi.URLParam(r, "id"))
	if !ok {
		Error(w, http.StatusNotFound, "session not found")
		return
	}

	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Code == "" {
		Error(w, http.StatusBadRequest, "code is required")
		return
	}

	start := time.Now()
	fb, err := e.session.Evaluate(r.Context(), req.Code)
	duration := time.Since(start)

	if err != nil {
		var invalid *session.ErrInvalidState
		if errors.As(err, &invalid) {
			Error(w, http.StatusConflict, err.Error())
			return
		}
		// Runtime failures in the user's code are a normal outcome, not a
		// transport error.
		var exec *session.ExecutionError
		if errors.As(err, &exec) {
			h.recordAttempt(r.Context(), e, false, duration, err.Error())
			JSON(w, http.StatusOK, runResponse{Match: false, Error: err.Error()})
			return
		}
		Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.recordAttempt(r.Context(), e, fb.Match, duration, "")
	JSON(w, http.StatusOK, runResponse{
		Match:    fb.Match,
		Expected: resultOf(fb.Expected),
		Actual:   resultOf(fb.Actual),
	})
}

func (h *Handler) recordAttempt(ctx context.Context, e *entry, match bool, duration time.Duration, errMsg string) {
	if h.events == nil {
		return
	}
	data := store.AttemptEventData{
		SessionID:     e.session.ID(),
		Mode:          string(e.mode),
		QuestionIndex: e.session.SelectedQuestion(),
		Match:         match,
		DurationMs:    duration.Milliseconds(),
		ErrorMessage:  errMsg,
	}
	if err := h.events.AppendAttempt(ctx, data); err != nil {
		h.log.Warn("failed to record attempt event", zap.Error(err))
	}
}
