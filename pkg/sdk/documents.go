package ragdex

import (
	"context"
	"fmt"
	"time"
)

// DocumentService indexes and fetches documents.
type DocumentService struct {
	svc documentUseCase
	obs *observer
}

// Index stores text and returns its id. Indexing the same text again is a no-op
// that returns the same id.
func (s *DocumentService) Index(ctx context.Context, text string) (_ string, err error) {
	start := time.Now()
	defer func() { s.obs.observe(opIndex, start, err) }()

	id, err := s.svc.Index(ctx, text)
	if err != nil {
		return "", fmt.Errorf("index document: %w", err)
	}
	return id, nil
}

// IndexBatch stores several texts in one pipeline. Ids follow the input order.
func (s *DocumentService) IndexBatch(ctx context.Context, texts []string) (_ []string, err error) {
	start := time.Now()
	defer func() { s.obs.observe(opIndexBatch, start, err, "count", len(texts)) }()

	ids, err := s.svc.IndexBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("index batch: %w", err)
	}
	return ids, nil
}

// Get retrieves a document by id. Missing ids fail with ErrDocumentNotFound.
func (s *DocumentService) Get(ctx context.Context, id string) (_ Document, err error) {
	start := time.Now()
	defer func() { s.obs.observe(opGet, start, err) }()

	d, err := s.svc.Get(ctx, id)
	if err != nil {
		return Document{}, fmt.Errorf("get document: %w", err)
	}
	return Document{ID: d.ID(), Text: d.Text()}, nil
}
