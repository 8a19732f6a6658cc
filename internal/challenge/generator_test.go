package challenge

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/xiaoyuezhuu/ds-interview-generative-pad/internal/llm"
)

func TestGenerate_SQL(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{
		Content: json.RawMessage(validSQLJSON()),
	})
	gen := New(mock, DefaultConfig())

	ch, err := gen.Generate(context.Background(), Params{
		Mode:   ModeSQL,
		Source: SourceManual,
		Topic:  "aggregation",
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if len(ch.Questions) != 2 {
		t.Fatalf("got %d questions, want 2", len(ch.Questions))
	}
	if mock.CallCount() != 1 {
		t.Errorf("provider called %d times, want 1", mock.CallCount())
	}

	req := mock.Calls[0]
	if req.Schema == nil || req.Schema.Name != "sql-challenge" {
		t.Errorf("request schema = %v, want sql-challenge", req.Schema)
	}
	if req.System == "" {
		t.Error("request has no system prompt")
	}
	if len(req.Messages) != 1 || req.Messages[0].Role != llm.RoleUser {
		t.Errorf("Messages = %v, want one user message", req.Messages)
	}
}

func TestGenerate_Python(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{
		Content: json.RawMessage(`{
			"title": "Missing Values",
			"dataset_description": "A dataset with gaps.",
			"task_details": "Use pandas.",
			"question": "How many rows have missing values?",
			"starter_code": "import pandas as pd\n",
			"solution_code": "print(3)",
			"explanation": "isna().any(axis=1).sum() counts them."
		}`),
	})
	gen := New(mock, DefaultConfig())

	ch, err := gen.Generate(context.Background(), Params{Mode: ModePython, Dataset: "titanic"})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if ch.Mode != ModePython {
		t.Errorf("Mode = %q", ch.Mode)
	}
	if mock.Calls[0].Schema == nil || mock.Calls[0].Schema.Name != "python-challenge" {
		t.Errorf("request schema = %v, want python-challenge", mock.Calls[0].Schema)
	}
}

func TestGenerate_InvalidParamsNoProviderCall(t *testing.T) {
	mock := llm.NewMockProvider()
	gen := New(mock, DefaultConfig())

	_, err := gen.Generate(context.Background(), Params{Mode: ModeSQL, Source: SourceManual})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("got %v, want ValidationError", err)
	}
	if mock.CallCount() != 0 {
		t.Errorf("provider called %d times, want 0", mock.CallCount())
	}
}

func TestGenerate_MalformedResponse(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{
		Content: json.RawMessage(`I cannot answer that.`),
	})
	gen := New(mock, DefaultConfig())

	_, err := gen.Generate(context.Background(), Params{
		Mode:   ModeSQL,
		Source: SourceManual,
		Topic:  "joins",
	})
	var malformed *MalformedResponseError
	if !errors.As(err, &malformed) {
		t.Fatalf("got %v, want MalformedResponseError", err)
	}
}

func TestGenerate_ProviderError(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{
		Err: &llm.ErrProviderUnavailable{},
	})
	gen := New(mock, DefaultConfig())

	_, err := gen.Generate(context.Background(), Params{
		Mode:   ModeSQL,
		Source: SourceManual,
		Topic:  "joins",
	})
	if err == nil {
		t.Fatal("provider error was swallowed")
	}
	var unavail *llm.ErrProviderUnavailable
	if !errors.As(err, &unavail) {
		t.Errorf("got %v, want wrapped ErrProviderUnavailable", err)
	}
}
