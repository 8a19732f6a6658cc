package llm

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/xiaoyuezhuu/ds-interview-generative-pad/internal/store"
)

// recordingRepo captures appended events in memory.
type recordingRepo struct {
	generations []store.GenerationEventData
	attempts    []store.AttemptEventData
}

func (r *recordingRepo) AppendGeneration(_ context.Context, data store.GenerationEventData) error {
	r.generations = append(r.generations, data)
	return nil
}

func (r *recordingRepo) AppendAttempt(_ context.Context, data store.AttemptEventData) error {
	r.attempts = append(r.attempts, data)
	return nil
}

func (r *recordingRepo) QueryGenerations(context.Context, store.QueryOpts) ([]store.GenerationEvent, error) {
	return nil, nil
}

func TestLogging_RecordsSuccess(t *testing.T) {
	repo := &recordingRepo{}
	mock := NewMockProvider(MockResponse{
		Content: json.RawMessage(`{}`),
		Usage:   Usage{InputTokens: 10, OutputTokens: 20},
	})
	p := WithLogging(mock, repo)

	ctx := WithPurpose(context.Background(), "sql-challenge")
	if _, err := p.Generate(ctx, Request{}); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if len(repo.generations) != 1 {
		t.Fatalf("got %d events, want 1", len(repo.generations))
	}
	ev := repo.generations[0]
	if !ev.Success {
		t.Error("Success = false")
	}
	if ev.Purpose != "sql-challenge" {
		t.Errorf("Purpose = %q", ev.Purpose)
	}
	if ev.InputTokens != 10 || ev.OutputTokens != 20 {
		t.Errorf("tokens = %d/%d, want 10/20", ev.InputTokens, ev.OutputTokens)
	}
}

func TestLogging_RecordsFailure(t *testing.T) {
	repo := &recordingRepo{}
	mock := NewMockProvider(MockResponse{Err: errors.New("upstream exploded")})
	p := WithLogging(mock, repo)

	if _, err := p.Generate(context.Background(), Request{}); err == nil {
		t.Fatal("error was swallowed")
	}

	if len(repo.generations) != 1 {
		t.Fatalf("got %d events, want 1", len(repo.generations))
	}
	ev := repo.generations[0]
	if ev.Success {
		t.Error("Success = true for a failed call")
	}
	if ev.ErrorMessage == "" {
		t.Error("ErrorMessage is empty")
	}
	if ev.Purpose != "unknown" {
		t.Errorf("Purpose = %q, want unknown", ev.Purpose)
	}
}

func TestLogging_NilRepoPassthrough(t *testing.T) {
	mock := NewMockProvider()
	if p := WithLogging(mock, nil); p != Provider(mock) {
		t.Error("nil repo should return the inner provider unchanged")
	}
}
