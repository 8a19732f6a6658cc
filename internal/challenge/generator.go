package challenge

import (
	"context"
	"fmt"

	"github.com/xiaoyuezhuu/ds-interview-generative-pad/internal/llm"
)

// Generator produces interview challenges from user parameters.
type Generator interface {
	// Generate builds the prompt, calls the model, and parses the
	// response into a canonical Challenge.
	Generate(ctx context.Context, params Params) (*Challenge, error)
}

// Config tunes challenge generation.
type Config struct {
	// MaxTokens caps challenge documents; they carry full schema and
	// data batches, so this runs much higher than single-answer calls.
	MaxTokens int

	// Temperature adds variety between consecutive challenges.
	Temperature float64
}

// DefaultConfig returns the default generation tuning.
func DefaultConfig() Config {
	return Config{
		MaxTokens:   8192,
		Temperature: 0.7,
	}
}

// LLMGenerator implements Generator on top of an llm.Provider.
type LLMGenerator struct {
	provider llm.Provider
	config   Config
}

// New creates an LLMGenerator.
func New(provider llm.Provider, cfg Config) *LLMGenerator {
	return &LLMGenerator{provider: provider, config: cfg}
}

func (g *LLMGenerator) Generate(ctx context.Context, params Params) (*Challenge, error) {
	system, user, err := BuildPrompt(params)
	if err != nil {
		return nil, err
	}

	schema := SQLChallengeSchema
	purpose := "sql-challenge"
	if params.Mode == ModePython {
		schema = PythonChallengeSchema
		purpose = "python-challenge"
	}
	ctx = llm.WithPurpose(ctx, purpose)

	resp, err := g.provider.Generate(ctx, llm.Request{
		System: system,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: user},
		},
		Schema:      schema,
		MaxTokens:   g.config.MaxTokens,
		Temperature: g.config.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("challenge generation failed: %w", err)
	}

	return Parse(params.Mode, string(resp.Content))
}
