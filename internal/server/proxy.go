package server

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/xiaoyuezhuu/ds-interview-generative-pad/internal/challenge"
	"github.com/xiaoyuezhuu/ds-interview-generative-pad/internal/llm"
)

// errMissingCredential is returned before any provider call when neither
// the caller nor the server configuration supplies an API key.
var errMissingCredential = &challenge.ValidationError{
	Field:   "api_key",
	Message: "no API key supplied and no server default configured",
}

// generateRequest is the proxy's wire request: a prompt plus an optional
// caller credential.
type generateRequest struct {
	Prompt string `json:"prompt"`
	APIKey string `json:"apiKey,omitempty"`
}

// generateResponse mirrors the Gemini REST envelope. The browser client
// reads candidates[0].content.parts[0].text regardless of which provider
// actually served the request.
type generateResponse struct {
	Candidates []candidate `json:"candidates"`
}

type candidate struct {
	Content content `json:"content"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

// handleGenerate relays a raw prompt to the configured provider and wraps
// its text output in the Gemini-shaped envelope.
func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Prompt == "" {
		Error(w, http.StatusBadRequest, "prompt is required")
		return
	}

	ctx := llm.WithPurpose(r.Context(), "proxy")

	provider, err := h.resolveProvider(ctx, req.APIKey)
	if err != nil {
		Error(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := provider.Generate(ctx, llm.Request{
		Messages:  []llm.Message{{Role: llm.RoleUser, Content: req.Prompt}},
		MaxTokens: challenge.DefaultConfig().MaxTokens,
	})
	if err != nil {
		h.log.Warn("proxy generation failed", zap.Error(err))
		Error(w, http.StatusBadGateway, err.Error())
		return
	}

	JSON(w, http.StatusOK, generateResponse{
		Candidates: []candidate{{
			Content: content{Parts: []part{{Text: string(resp.Content)}}},
		}},
	})
}
