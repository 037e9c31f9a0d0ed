package ragdex

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/ragdex/internal/domain"
	openaiGen "github.com/kailas-cloud/ragdex/internal/transport/openai"
)

// Generator completes a prompt with a chat model.
type Generator interface {
	Generate(ctx context.Context, prompt string) (Generation, error)
}

// Generation is the outcome of a single completion.
type Generation struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
	Truncated        bool // prompt was cut to fit the token budget
}

// OpenAIConfig configures the built-in OpenAI-compatible generator.
type OpenAIConfig struct {
	APIKey           string
	Organization     string
	BaseURL          string // empty = api.openai.com
	Model            string // default: gpt-3.5-turbo
	MaxTokens        int    // model context window, default: 4096
	GenerationLength int    // completion tokens, default: 256
}

func (c OpenAIConfig) withDefaults() OpenAIConfig {
	if c.Model == "" {
		c.Model = "gpt-3.5-turbo"
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = 4096
	}
	if c.GenerationLength <= 0 {
		c.GenerationLength = 256
	}
	return c
}

// newOpenAIGenerator builds the internal chat completion client with the
// model's tiktoken encoding.
func newOpenAIGenerator(cfg OpenAIConfig) (*openaiGen.Generator, error) {
	cfg = cfg.withDefaults()
	tok, err := openaiGen.NewTiktokenTokenizer(cfg.Model)
	if err != nil {
		return nil, fmt.Errorf("ragdex: tokenizer: %w", err)
	}
	g, err := openaiGen.NewGenerator(&openaiGen.Config{
		APIKey:           cfg.APIKey,
		Organization:     cfg.Organization,
		BaseURL:          cfg.BaseURL,
		Model:            cfg.Model,
		MaxTokens:        cfg.MaxTokens,
		GenerationLength: cfg.GenerationLength,
		Tokenizer:        tok,
	})
	if err != nil {
		return nil, fmt.Errorf("ragdex: openai generator: %w", err)
	}
	return g, nil
}

// generatorAdapter wraps a public Generator to satisfy the internal contract.
// Failures are reported as ErrGenerationUnavailable.
type generatorAdapter struct {
	inner Generator
}

func (a *generatorAdapter) Generate(ctx context.Context, prompt string) (domain.Generation, error) {
	g, err := a.inner.Generate(ctx, prompt)
	if err != nil {
		if errors.Is(err, domain.ErrGenerationUnavailable) {
			return domain.Generation{}, err
		}
		return domain.Generation{}, fmt.Errorf("%w: %w", domain.ErrGenerationUnavailable, err)
	}
	return domain.Generation{
		Text:             g.Text,
		PromptTokens:     g.PromptTokens,
		CompletionTokens: g.CompletionTokens,
		Truncated:        g.Truncated,
	}, nil
}

// HealthCheck forwards to the wrapped generator when it supports it.
func (a *generatorAdapter) HealthCheck(ctx context.Context) error {
	if hc, ok := a.inner.(interface{ HealthCheck(context.Context) error }); ok {
		return hc.HealthCheck(ctx)
	}
	return nil
}
