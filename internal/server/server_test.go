package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/xiaoyuezhuu/ds-interview-generative-pad/internal/config"
	"github.com/xiaoyuezhuu/ds-interview-generative-pad/internal/llm"
	"github.com/xiaoyuezhuu/ds-interview-generative-pad/internal/store"
)

func testConfig() *config.Config {
	cfg := &config.Config{
		Addr:              ":0",
		AllowedOrigins:    []string{"*"},
		PythonInterpreter: "python3",
		LLM:               llm.DefaultConfig(),
	}
	// No server-side API key: requests must supply one.
	cfg.LLM.Gemini.APIKey = ""
	return cfg
}

// stubFactory returns the same provider for every request and counts how
// often it was consulted.
type stubFactory struct {
	provider llm.Provider
	calls    int
}

func (sf *stubFactory) make(_ context.Context, _ llm.Config, _ store.EventRepo) (llm.Provider, error) {
	sf.calls++
	return sf.provider, nil
}

func newTestServer(t *testing.T, mock *llm.MockProvider) (*Server, *stubFactory) {
	t.Helper()
	srv := New(testConfig(), zap.NewNop(), nil)
	sf := &stubFactory{provider: mock}
	srv.handler.newProvider = sf.make
	t.Cleanup(func() { srv.handler.sessions.closeAll() })
	return srv, sf
}

func postJSON(t *testing.T, h http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
}

func TestGenerate_MissingCredential(t *testing.T) {
	mock := llm.NewMockProvider()
	srv, sf := newTestServer(t, mock)

	w := postJSON(t, srv.Router(), "/api/generate", generateRequest{Prompt: "write a challenge"})

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400: %s", w.Code, w.Body.String())
	}
	// No provider was built, let alone called.
	if sf.calls != 0 {
		t.Errorf("provider factory consulted %d times, want 0", sf.calls)
	}
	if mock.CallCount() != 0 {
		t.Errorf("provider called %d times, want 0", mock.CallCount())
	}
}

func TestGenerate_CallerKeyRelaysEnvelope(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{
		Content: json.RawMessage(`{"schema_sql": "CREATE TABLE t (id INT);"}`),
	})
	srv, _ := newTestServer(t, mock)

	w := postJSON(t, srv.Router(), "/api/generate", generateRequest{
		Prompt: "write a challenge",
		APIKey: "caller-key",
	})

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}

	var resp generateResponse
	decodeBody(t, w, &resp)
	if len(resp.Candidates) != 1 {
		t.Fatalf("candidates = %d, want 1", len(resp.Candidates))
	}
	parts := resp.Candidates[0].Content.Parts
	if len(parts) != 1 || parts[0].Text != `{"schema_sql": "CREATE TABLE t (id INT);"}` {
		t.Errorf("parts = %v", parts)
	}
}

func TestGenerate_ProviderFailure(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Err: &llm.ErrProviderUnavailable{}})
	srv, _ := newTestServer(t, mock)

	w := postJSON(t, srv.Router(), "/api/generate", generateRequest{
		Prompt: "write a challenge",
		APIKey: "caller-key",
	})

	if w.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	decodeBody(t, w, &resp)
	if resp.Error.Message == "" {
		t.Error("error envelope has no message")
	}
}

func TestGenerate_EmptyPrompt(t *testing.T) {
	srv, _ := newTestServer(t, llm.NewMockProvider())

	w := postJSON(t, srv.Router(), "/api/generate", generateRequest{APIKey: "k"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func sqlChallengeJSON() json.RawMessage {
	return json.RawMessage(`{
		"title": "Orders",
		"schema_sql": "CREATE TABLE orders (id INT, amount REAL);",
		"data_sql": "INSERT INTO orders VALUES (1, 10.0); INSERT INTO orders VALUES (2, 20.0);",
		"questions": [
			{
				"title": "Count",
				"difficulty": "Easy",
				"tags": ["COUNT"],
				"question": "How many orders?",
				"solution_sql": "SELECT COUNT(*) AS n FROM orders;",
				"explanation": "COUNT counts rows."
			}
		]
	}`)
}

func createSQLSession(t *testing.T, srv *Server) string {
	t.Helper()
	w := postJSON(t, srv.Router(), "/api/sessions", createSessionRequest{Mode: "sql"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create session: status = %d: %s", w.Code, w.Body.String())
	}
	var view sessionView
	decodeBody(t, w, &view)
	if view.State != "ready" {
		t.Fatalf("session state = %q, want ready", view.State)
	}
	return view.ID
}

func TestSessionLifecycle(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: sqlChallengeJSON()})
	srv, _ := newTestServer(t, mock)
	id := createSQLSession(t, srv)

	// Load a challenge.
	w := postJSON(t, srv.Router(), "/api/sessions/"+id+"/challenge", loadChallengeRequest{
		Topic:  "aggregation",
		APIKey: "caller-key",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("load challenge: status = %d: %s", w.Code, w.Body.String())
	}
	var view sessionView
	decodeBody(t, w, &view)
	if view.State != "challenge_ready" {
		t.Errorf("state = %q, want challenge_ready", view.State)
	}

	// Select the only question; its reference was computed eagerly.
	w = postJSON(t, srv.Router(), "/api/sessions/"+id+"/question", selectQuestionRequest{Index: 0})
	if w.Code != http.StatusOK {
		t.Fatalf("select question: status = %d: %s", w.Code, w.Body.String())
	}
	var sel selectQuestionResponse
	decodeBody(t, w, &sel)
	if sel.Reference == nil || len(sel.Reference.Rows) != 1 {
		t.Fatalf("reference = %+v, want one row", sel.Reference)
	}

	// A correct answer matches.
	w = postJSON(t, srv.Router(), "/api/sessions/"+id+"/run", runRequest{
		Code: "SELECT COUNT(id) AS n FROM orders",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("run: status = %d: %s", w.Code, w.Body.String())
	}
	var run runResponse
	decodeBody(t, w, &run)
	if !run.Match {
		t.Errorf("match = false: %+v", run)
	}

	// A wrong answer does not.
	w = postJSON(t, srv.Router(), "/api/sessions/"+id+"/run", runRequest{
		Code: "SELECT COUNT(*) + 1 AS n FROM orders",
	})
	decodeBody(t, w, &run)
	if run.Match {
		t.Error("wrong answer matched")
	}

	// A broken query comes back as a normal outcome with the error attached.
	w = postJSON(t, srv.Router(), "/api/sessions/"+id+"/run", runRequest{
		Code: "SELECT nope FROM nowhere",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("run with bad query: status = %d: %s", w.Code, w.Body.String())
	}
	decodeBody(t, w, &run)
	if run.Match || run.Error == "" {
		t.Errorf("bad query: %+v, want match=false with error", run)
	}
}

func TestLoadChallenge_ValidationErrorNoProviderCall(t *testing.T) {
	mock := llm.NewMockProvider()
	srv, sf := newTestServer(t, mock)
	id := createSQLSession(t, srv)

	// Manual source without a topic fails before credential resolution.
	w := postJSON(t, srv.Router(), "/api/sessions/"+id+"/challenge", loadChallengeRequest{APIKey: "k"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400: %s", w.Code, w.Body.String())
	}
	if sf.calls != 0 || mock.CallCount() != 0 {
		t.Error("provider touched despite validation failure")
	}
}

func TestLoadChallenge_MalformedModelOutputKeepsSessionUsable(t *testing.T) {
	mock := llm.NewMockProvider(
		llm.MockResponse{Content: json.RawMessage(`sorry, I cannot do that`)},
		llm.MockResponse{Content: sqlChallengeJSON()},
	)
	srv, _ := newTestServer(t, mock)
	id := createSQLSession(t, srv)

	w := postJSON(t, srv.Router(), "/api/sessions/"+id+"/challenge", loadChallengeRequest{
		Topic: "joins", APIKey: "k",
	})
	if w.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502: %s", w.Code, w.Body.String())
	}

	// The session survives and the retry succeeds.
	w = postJSON(t, srv.Router(), "/api/sessions/"+id+"/challenge", loadChallengeRequest{
		Topic: "joins", APIKey: "k",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("retry: status = %d: %s", w.Code, w.Body.String())
	}
}

func TestSessionNotFound(t *testing.T) {
	srv, _ := newTestServer(t, llm.NewMockProvider())

	req := httptest.NewRequest(http.MethodGet, "/api/sessions/nope", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestCreateSession_BadMode(t *testing.T) {
	srv, _ := newTestServer(t, llm.NewMockProvider())

	w := postJSON(t, srv.Router(), "/api/sessions", createSessionRequest{Mode: "cobol"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestDeleteSession(t *testing.T) {
	srv, _ := newTestServer(t, llm.NewMockProvider())
	id := createSQLSession(t, srv)

	req := httptest.NewRequest(http.MethodDelete, "/api/sessions/"+id, nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/sessions/"+id, nil)
	w = httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("deleted session still reachable, status = %d", w.Code)
	}
}

func TestCORS(t *testing.T) {
	srv, _ := newTestServer(t, llm.NewMockProvider())

	req := httptest.NewRequest(http.MethodOptions, "/api/generate", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("preflight status = %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("Allow-Origin = %q", got)
	}
	// Wildcard config must not enable credentials.
	if w.Header().Get("Access-Control-Allow-Credentials") != "" {
		t.Error("Allow-Credentials set for a wildcard origin")
	}
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t, llm.NewMockProvider())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
}
