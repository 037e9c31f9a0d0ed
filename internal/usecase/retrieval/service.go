package retrieval

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/ragdex/internal/domain/search/request"
	"github.com/kailas-cloud/ragdex/internal/domain/search/result"
)

// Service returns the best-matching documents for a query.
type Service struct {
	repo Repository
}

// New creates a retrieval service.
func New(repo Repository) *Service {
	return &Service{repo: repo}
}

// RetrieveTopK returns at most req.TopK() results in backend order (best first).
// Results are neither re-ranked nor deduplicated.
func (s *Service) RetrieveTopK(ctx context.Context, req request.Request) ([]result.Result, error) {
	results, err := s.repo.SearchText(ctx, req.Query(), req.TopK())
	if err != nil {
		return nil, fmt.Errorf("search text: %w", err)
	}
	if len(results) > req.TopK() {
		results = results[:req.TopK()]
	}
	return results, nil
}
