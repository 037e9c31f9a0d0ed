package document

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/ragdex/internal/domain"
	domdoc "github.com/kailas-cloud/ragdex/internal/domain/document"
)

// Service indexes and fetches documents. Ids are content hashes, so
// indexing is idempotent.
type Service struct {
	repo         Repository
	maxBatchSize int
}

// New creates a document service.
func New(repo Repository) *Service {
	return &Service{repo: repo, maxBatchSize: 1000}
}

// WithMaxBatchSize limits the number of texts accepted by IndexBatch.
func (s *Service) WithMaxBatchSize(n int) *Service {
	if n > 0 {
		s.maxBatchSize = n
	}
	return s
}

// Index stores text and returns its document id.
func (s *Service) Index(ctx context.Context, text string) (string, error) {
	doc := domdoc.New(text)
	if err := s.repo.Upsert(ctx, &doc); err != nil {
		return "", fmt.Errorf("upsert document: %w", err)
	}
	return doc.ID(), nil
}

// IndexBatch stores several texts in one round-trip. The returned ids
// follow the input order; repeated texts are written once.
func (s *Service) IndexBatch(ctx context.Context, texts []string) ([]string, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if len(texts) > s.maxBatchSize {
		return nil, fmt.Errorf("batch of %d exceeds limit %d: %w", len(texts), s.maxBatchSize, domain.ErrBadInput)
	}

	ids := make([]string, len(texts))
	docs := make([]domdoc.Document, 0, len(texts))
	seen := make(map[string]bool, len(texts))
	for i, text := range texts {
		doc := domdoc.New(text)
		ids[i] = doc.ID()
		if seen[ids[i]] {
			continue
		}
		seen[ids[i]] = true
		docs = append(docs, doc)
	}

	if err := s.repo.UpsertMany(ctx, docs); err != nil {
		return nil, fmt.Errorf("upsert documents: %w", err)
	}
	return ids, nil
}

// Get returns a document by id. Ids that cannot be content hashes are
// reported as not found without touching the store.
func (s *Service) Get(ctx context.Context, id string) (domdoc.Document, error) {
	if !domdoc.IsValidID(id) {
		return domdoc.Document{}, domain.ErrDocumentNotFound
	}
	doc, err := s.repo.Get(ctx, id)
	if err != nil {
		return domdoc.Document{}, fmt.Errorf("get document: %w", err)
	}
	return doc, nil
}
