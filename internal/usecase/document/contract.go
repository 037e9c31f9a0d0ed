package document

import (
	"context"

	domdoc "github.com/kailas-cloud/ragdex/internal/domain/document"
)

// Repository defines the storage contract for documents.
type Repository interface {
	Upsert(ctx context.Context, doc *domdoc.Document) error
	UpsertMany(ctx context.Context, docs []domdoc.Document) error
	Get(ctx context.Context, id string) (domdoc.Document, error)
}
