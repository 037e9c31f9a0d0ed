package search

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/ragdex/internal/db"
	"github.com/kailas-cloud/ragdex/internal/domain"
	domdoc "github.com/kailas-cloud/ragdex/internal/domain/document"
	"github.com/kailas-cloud/ragdex/internal/domain/search/result"
	"github.com/kailas-cloud/ragdex/internal/repository/keyspace"
)

// store is the consumer interface for search operations (ISP).
type store interface {
	SearchText(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
}

// Repo implements usecase/retrieval.Repository.
type Repo struct {
	store  store
	keys   keyspace.Keyspace
	scorer string
}

// New creates a search repository. An empty scorer uses the backend default.
func New(s store, keys keyspace.Keyspace, scorer string) *Repo {
	return &Repo{store: s, keys: keys, scorer: scorer}
}

// SearchText runs a keyword query against the document text and returns at
// most limit hits, best first.
func (r *Repo) SearchText(ctx context.Context, query string, limit int) ([]result.Result, error) {
	q := &db.TextQuery{
		IndexName:    r.keys.IndexName(),
		Field:        keyspace.TextField,
		Query:        query,
		Scorer:       r.scorer,
		TopK:         limit,
		ReturnFields: []string{keyspace.TextField},
	}

	sr, err := r.store.SearchText(ctx, q)
	if err != nil {
		if db.IsUnavailable(err) {
			return nil, fmt.Errorf("search text %s: %w: %w", q.IndexName, domain.ErrStoreUnavailable, err)
		}
		return nil, fmt.Errorf("search text %s: %w", q.IndexName, err)
	}

	return r.parseResults(sr), nil
}

// parseResults converts db.SearchResult into []result.Result.
func (r *Repo) parseResults(sr *db.SearchResult) []result.Result {
	if sr == nil || len(sr.Entries) == 0 {
		return nil
	}

	results := make([]result.Result, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		doc := domdoc.Reconstruct(r.keys.DocID(entry.Key), entry.Fields[keyspace.TextField])
		results = append(results, result.New(doc, entry.Score))
	}
	return results
}
