package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ragdex/internal/domain"
	"github.com/kailas-cloud/ragdex/internal/metrics"
)

// promptReserve is held back from the prompt budget for chat message framing.
const promptReserve = 10

// Generator answers prompts through an OpenAI-compatible chat completion API.
type Generator struct {
	client    *openai.Client
	model     string
	genLength int
	budget    int
	provider  string
	tokenizer Tokenizer
	logger    *zap.Logger
}

// Config holds the chat completion provider settings.
type Config struct {
	APIKey           string
	Organization     string
	BaseURL          string
	Model            string
	MaxTokens        int // model context window
	GenerationLength int // tokens reserved for the completion
	Provider         string
	Tokenizer        Tokenizer
	Logger           *zap.Logger
}

// NewGenerator creates a chat completion generator. The prompt budget is
// MaxTokens - GenerationLength - 10 and must be positive.
func NewGenerator(cfg *Config) (*Generator, error) {
	if cfg.Model == "" {
		return nil, errors.New("model is required")
	}
	if cfg.Tokenizer == nil {
		return nil, errors.New("tokenizer is required")
	}
	budget := cfg.MaxTokens - cfg.GenerationLength - promptReserve
	if cfg.GenerationLength <= 0 || budget <= 0 {
		return nil, fmt.Errorf("invalid token budget: max_tokens=%d generation_length=%d",
			cfg.MaxTokens, cfg.GenerationLength)
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	clientCfg.OrgID = cfg.Organization

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	provider := cfg.Provider
	if provider == "" {
		provider = "openai"
	}

	return &Generator{
		client:    openai.NewClientWithConfig(clientCfg),
		model:     cfg.Model,
		genLength: cfg.GenerationLength,
		budget:    budget,
		provider:  provider,
		tokenizer: cfg.Tokenizer,
		logger:    logger,
	}, nil
}

// PromptBudget returns the maximum number of prompt tokens sent to the model.
func (g *Generator) PromptBudget() int { return g.budget }

// Generate submits prompt as a single user message and returns the trimmed
// completion. Prompts over budget keep their leading tokens.
func (g *Generator) Generate(ctx context.Context, prompt string) (domain.Generation, error) {
	prompt, promptTokens, truncated := g.fit(prompt)
	if truncated {
		metrics.GenerationPromptTruncationsTotal.WithLabelValues(g.provider, g.model).Inc()
		g.logger.Warn("Prompt truncated to fit token budget",
			zap.String("model", g.model),
			zap.Int("budget", g.budget),
		)
	}

	req := openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens: g.genLength,
		// temperature is omitempty; the smallest non-zero value is the wire form of 0
		Temperature:      math.SmallestNonzeroFloat32,
		TopP:             1,
		FrequencyPenalty: 0,
		PresencePenalty:  0,
	}

	start := time.Now()
	resp, err := g.client.CreateChatCompletion(ctx, req)
	duration := time.Since(start)

	if err != nil {
		g.recordError("api_error")
		return domain.Generation{}, parseAPIError(err)
	}
	if len(resp.Choices) == 0 {
		g.recordError("empty_response")
		return domain.Generation{}, fmt.Errorf("empty chat completion response: %w", domain.ErrGenerationUnavailable)
	}

	metrics.GenerationRequestsTotal.WithLabelValues(g.provider, g.model, "success").Inc()
	metrics.GenerationRequestDuration.WithLabelValues(g.provider, g.model).Observe(duration.Seconds())

	if resp.Usage.PromptTokens > 0 {
		promptTokens = resp.Usage.PromptTokens
	}
	completionTokens := resp.Usage.CompletionTokens
	metrics.GenerationTokensTotal.WithLabelValues(g.provider, g.model, "prompt").Add(float64(promptTokens))
	metrics.GenerationTokensTotal.WithLabelValues(g.provider, g.model, "completion").Add(float64(completionTokens))

	g.logger.Debug("Chat completion",
		zap.String("model", g.model),
		zap.Int("prompt_tokens", promptTokens),
		zap.Int("completion_tokens", completionTokens),
		zap.Duration("duration", duration),
	)

	return domain.Generation{
		Text:             strings.TrimSpace(resp.Choices[0].Message.Content),
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
		Truncated:        truncated,
	}, nil
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (g *Generator) HealthCheck(ctx context.Context) error {
	if _, err := g.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

// fit cuts prompt to the leading budget tokens.
func (g *Generator) fit(prompt string) (string, int, bool) {
	tokens := g.tokenizer.Encode(prompt)
	if len(tokens) <= g.budget {
		return prompt, len(tokens), false
	}
	// A token boundary can fall inside a multi-byte character; the JSON
	// encoder would turn the leftover bytes into U+FFFD.
	cut := trimPartialRune(g.tokenizer.Decode(tokens[:g.budget]))
	return cut, len(g.tokenizer.Encode(cut)), true
}

// trimPartialRune drops an incomplete UTF-8 sequence at the end of s.
func trimPartialRune(s string) string {
	for i := 0; i < utf8.UTFMax-1 && s != ""; i++ {
		r, size := utf8.DecodeLastRuneInString(s)
		if r != utf8.RuneError || size != 1 {
			break
		}
		s = s[:len(s)-1]
	}
	return s
}

func (g *Generator) recordError(errorType string) {
	metrics.GenerationRequestsTotal.WithLabelValues(g.provider, g.model, "error").Inc()
	metrics.GenerationErrorsTotal.WithLabelValues(g.provider, g.model, errorType).Inc()
}

// parseAPIError extracts a human-readable error from the API response.
// All errors are wrapped with domain.ErrGenerationUnavailable for correct 502 mapping.
func parseAPIError(err error) error {
	wrap := domain.ErrGenerationUnavailable

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("chat completion API error %d: %s: %w",
			apiErr.HTTPStatusCode, apiErr.Message, wrap)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if detail := extractDetail(reqErr.Body); detail != "" {
			return fmt.Errorf("chat completion API error %d: %s: %w",
				reqErr.HTTPStatusCode, detail, wrap)
		}
		return fmt.Errorf("chat completion API error %d: %s: %w",
			reqErr.HTTPStatusCode, string(reqErr.Body), wrap)
	}

	return fmt.Errorf("chat completion request failed: %w: %w", wrap, err)
}

// extractDetail extracts the "detail" field from a JSON error body (proxy error format).
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}
