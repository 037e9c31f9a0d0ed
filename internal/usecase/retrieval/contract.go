package retrieval

import (
	"context"

	"github.com/kailas-cloud/ragdex/internal/domain/search/result"
)

// Repository runs keyword searches against the document store.
type Repository interface {
	SearchText(ctx context.Context, query string, limit int) ([]result.Result, error)
}
