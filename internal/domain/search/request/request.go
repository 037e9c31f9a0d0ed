package request

import (
	"fmt"

	"github.com/kailas-cloud/ragdex/internal/domain"
)

// Retrieval parameter limits.
const (
	DefaultTopK = 5
	// MaxTopK caps a single FT.SEARCH LIMIT. Callers clamp to it.
	MaxTopK = 1000
)

// Request is a validated retrieval query.
type Request struct {
	query string
	topK  int
}

// New validates retrieval parameters. Any query is legal, including an empty
// one; topK must be in [1, MaxTopK].
func New(query string, topK int) (Request, error) {
	if topK <= 0 {
		return Request{}, fmt.Errorf("top_k must be positive, got %d: %w", topK, domain.ErrBadInput)
	}
	if topK > MaxTopK {
		return Request{}, fmt.Errorf("top_k must be at most %d, got %d: %w", MaxTopK, topK, domain.ErrBadInput)
	}
	return Request{query: query, topK: topK}, nil
}

// Query returns the raw query text.
func (r *Request) Query() string { return r.query }

// ClampTopK bounds a positive topK by limit. Non-positive values pass
// through so that New rejects them.
func ClampTopK(topK, limit int) int {
	if limit <= 0 || limit > MaxTopK {
		limit = MaxTopK
	}
	if topK > limit {
		return limit
	}
	return topK
}

// TopK returns the result-count bound.
func (r *Request) TopK() int { return r.topK }
