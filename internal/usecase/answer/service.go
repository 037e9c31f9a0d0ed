package answer

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragdex/internal/domain"
	"github.com/kailas-cloud/ragdex/internal/domain/prompt"
	"github.com/kailas-cloud/ragdex/internal/domain/search/request"
	"github.com/kailas-cloud/ragdex/internal/logger"
)

// Answer is a generated answer plus the ids of the documents it was grounded on.
type Answer struct {
	Text         string
	RetrievedIDs []string
}

// Service runs retrieve, prompt and generate in sequence.
type Service struct {
	retriever Retriever
	generator Generator
	topK      int
}

// New creates an answer service. generator can be nil, in which case
// every call fails with domain.ErrGenerationUnavailable.
func New(retriever Retriever, generator Generator, topK int) *Service {
	if topK <= 0 {
		topK = request.DefaultTopK
	}
	return &Service{retriever: retriever, generator: generator, topK: topK}
}

// Answer retrieves the top documents for query and asks the model to answer
// from them. Generation is not attempted when retrieval fails.
func (s *Service) Answer(ctx context.Context, query string) (Answer, error) {
	log := logger.FromContext(ctx)
	start := time.Now()

	if s.generator == nil {
		return Answer{}, fmt.Errorf("no generator configured: %w", domain.ErrGenerationUnavailable)
	}

	req, err := request.New(query, s.topK)
	if err != nil {
		return Answer{}, err
	}

	results, err := s.retriever.RetrieveTopK(ctx, req)
	if err != nil {
		return Answer{}, fmt.Errorf("retrieve: %w", err)
	}

	ids := make([]string, len(results))
	for i := range results {
		ids[i] = results[i].ID()
	}

	gen, err := s.generator.Generate(ctx, prompt.Build(query, results))
	if err != nil {
		return Answer{}, fmt.Errorf("generate: %w", err)
	}

	log.Info("Answer generated",
		zap.Int("retrieved", len(results)),
		zap.Int("prompt_tokens", gen.PromptTokens),
		zap.Int("completion_tokens", gen.CompletionTokens),
		zap.Bool("prompt_truncated", gen.Truncated),
		zap.Duration("elapsed", time.Since(start)),
	)

	return Answer{Text: gen.Text, RetrievedIDs: ids}, nil
}
