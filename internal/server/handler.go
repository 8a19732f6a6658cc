// Package server exposes the challenge generation proxy and session
// lifecycle over HTTP for the browser client.
package server

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/xiaoyuezhuu/ds-interview-generative-pad/internal/config"
	"github.com/xiaoyuezhuu/ds-interview-generative-pad/internal/llm"
	"github.com/xiaoyuezhuu/ds-interview-generative-pad/internal/store"
)

// providerFactory builds a Provider from resolved configuration. Swapped
// for a stub in tests so handlers can be exercised without network access.
type providerFactory func(ctx context.Context, cfg llm.Config, repo store.EventRepo) (llm.Provider, error)

// Handler provides common handler utilities and dependencies.
type Handler struct {
	cfg         *config.Config
	log         *zap.Logger
	events      store.EventRepo
	sessions    *registry
	newProvider providerFactory
}

// NewHandler creates a Handler with common dependencies. events may be nil
// when event logging is disabled.
func NewHandler(cfg *config.Config, log *zap.Logger, events store.EventRepo) *Handler {
	return &Handler{
		cfg:         cfg,
		log:         log,
		events:      events,
		sessions:    newRegistry(cfg.PythonInterpreter),
		newProvider: llm.NewProvider,
	}
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": {"message": "failed to encode response"}}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response with the envelope the browser client
// expects: {"error": {"message": ...}}.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]any{"error": map[string]string{"message": message}})
}

// resolveProvider builds a provider using the caller-supplied key when
// present, else the server-configured default. When neither is available it
// returns a ValidationError before any provider is constructed.
func (h *Handler) resolveProvider(ctx context.Context, apiKey string) (llm.Provider, error) {
	cfg := h.cfg.LLM
	if apiKey != "" {
		cfg = cfg.WithAPIKey(apiKey)
	}
	if !cfg.HasCredential() {
		return nil, errMissingCredential
	}
	return h.newProvider(ctx, cfg, h.events)
}
