package store

import (
	"context"
	"time"
)

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit   int    // max results (0 = unlimited)
	After   int64  // sequence > After
	Purpose string // filter generations by purpose label
}

// GenerationEventData captures one model API call.
type GenerationEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
}

// AttemptEventData captures one evaluation of user code.
type AttemptEventData struct {
	SessionID     string
	Mode          string
	QuestionIndex int
	Match         bool
	DurationMs    int64
	ErrorMessage  string
}

// GenerationEvent is a stored generation record.
type GenerationEvent struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	GenerationEventData
}

// EventRepo provides append and query access to domain events.
type EventRepo interface {
	// AppendGeneration records a model API call event.
	AppendGeneration(ctx context.Context, data GenerationEventData) error

	// AppendAttempt records an evaluation event.
	AppendAttempt(ctx context.Context, data AttemptEventData) error

	// QueryGenerations returns generation events, newest first.
	QueryGenerations(ctx context.Context, opts QueryOpts) ([]GenerationEvent, error)
}
