package answer

import (
	"context"

	"github.com/kailas-cloud/ragdex/internal/domain"
	"github.com/kailas-cloud/ragdex/internal/domain/search/request"
	"github.com/kailas-cloud/ragdex/internal/domain/search/result"
)

// Retriever returns ranked documents for a query.
type Retriever interface {
	RetrieveTopK(ctx context.Context, req request.Request) ([]result.Result, error)
}

// Generator completes a prompt via a chat model.
type Generator interface {
	Generate(ctx context.Context, prompt string) (domain.Generation, error)
}
