package store

import (
	"context"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open("file::memory:?cache=shared")
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenClose(t *testing.T) {
	s := openTestStore(t)
	if s.Client() == nil {
		t.Fatal("expected non-nil ent client")
	}
}

func TestAppendAndQueryGenerations(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	for _, purpose := range []string{"sql-challenge", "proxy", "sql-challenge"} {
		err := repo.AppendGeneration(ctx, GenerationEventData{
			Provider:     "gemini",
			Model:        "gemini-flash",
			Purpose:      purpose,
			InputTokens:  100,
			OutputTokens: 2000,
			LatencyMs:    850,
			Success:      true,
		})
		if err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	events, err := repo.QueryGenerations(ctx, QueryOpts{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}

	// Newest first: sequences strictly descending.
	for i := 1; i < len(events); i++ {
		if events[i].Sequence >= events[i-1].Sequence {
			t.Errorf("events not in descending sequence order: %d then %d",
				events[i-1].Sequence, events[i].Sequence)
		}
	}

	// Purpose filter.
	filtered, err := repo.QueryGenerations(ctx, QueryOpts{Purpose: "proxy"})
	if err != nil {
		t.Fatalf("query filtered: %v", err)
	}
	if len(filtered) != 1 {
		t.Errorf("got %d proxy events, want 1", len(filtered))
	}

	// Limit.
	limited, err := repo.QueryGenerations(ctx, QueryOpts{Limit: 2})
	if err != nil {
		t.Fatalf("query limited: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("got %d events with limit 2, want 2", len(limited))
	}
}

func TestAppendAttempt(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	err := repo.AppendAttempt(ctx, AttemptEventData{
		SessionID:     "abc-123",
		Mode:          "sql",
		QuestionIndex: 1,
		Match:         true,
		DurationMs:    40,
	})
	if err != nil {
		t.Fatalf("append attempt: %v", err)
	}
}

func TestSequenceMonotonic(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	var prev int64
	for i := 0; i < 5; i++ {
		n, err := s.seq.Next(ctx)
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		if n <= prev {
			t.Fatalf("sequence not monotonic: %d after %d", n, prev)
		}
		prev = n
	}
}
