package document

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragdex/internal/db"
	"github.com/kailas-cloud/ragdex/internal/domain"
	domdoc "github.com/kailas-cloud/ragdex/internal/domain/document"
	"github.com/kailas-cloud/ragdex/internal/repository/keyspace"
)

// store is the consumer interface for documents (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// Repo implements usecase/document.Repository.
type Repo struct {
	store    store
	keys     keyspace.Keyspace
	logger   *zap.Logger
	language string
	noStem   bool
}

// Option tunes the index created by EnsureIndex.
type Option func(*Repo)

// WithLanguage sets the stemming language of the text field. Empty keeps
// the backend default (english).
func WithLanguage(lang string) Option {
	return func(r *Repo) { r.language = lang }
}

// WithNoStem disables stemming, so only exact word forms match.
func WithNoStem(noStem bool) Option {
	return func(r *Repo) { r.noStem = noStem }
}

// New creates a document repository.
func New(s store, keys keyspace.Keyspace, logger *zap.Logger, opts ...Option) *Repo {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Repo{store: s, keys: keys, logger: logger}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Upsert stores a document under its content-hash key. Writing the same
// text twice overwrites the same key.
func (r *Repo) Upsert(ctx context.Context, doc *domdoc.Document) error {
	key := r.keys.DocKey(doc.ID())
	if err := r.store.HSet(ctx, key, buildHashFields(doc)); err != nil {
		return writeErr(fmt.Sprintf("hset %s", key), err)
	}
	return nil
}

// UpsertMany stores several documents in one pipelined round-trip.
func (r *Repo) UpsertMany(ctx context.Context, docs []domdoc.Document) error {
	if len(docs) == 0 {
		return nil
	}
	items := make([]db.HashSetItem, len(docs))
	for i := range docs {
		items[i] = db.HashSetItem{
			Key:    r.keys.DocKey(docs[i].ID()),
			Fields: buildHashFields(&docs[i]),
		}
	}
	if err := r.store.HSetMulti(ctx, items); err != nil {
		return writeErr(fmt.Sprintf("hset batch of %d", len(docs)), err)
	}
	return nil
}

// Get returns a document by ID.
func (r *Repo) Get(ctx context.Context, id string) (domdoc.Document, error) {
	key := r.keys.DocKey(id)
	m, err := r.store.HGetAll(ctx, key)
	if err != nil {
		return domdoc.Document{}, readErr(fmt.Sprintf("hgetall %s", key), err)
	}
	// HGETALL on a missing key replies with an empty hash.
	if len(m) == 0 {
		r.logger.Debug("Document not found", zap.String("id", id))
		return domdoc.Document{}, domain.ErrDocumentNotFound
	}
	return parseHashFields(id, m), nil
}

// EnsureIndex creates the full-text index over document hashes unless it exists.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	name := r.keys.IndexName()

	exists, err := r.store.IndexExists(ctx, name)
	if err != nil {
		return readErr(fmt.Sprintf("index info %s", name), err)
	}
	if exists {
		r.logger.Debug("Search index exists", zap.String("index", name))
		return nil
	}

	b := db.NewIndex(name).
		OnHash().
		Prefix(r.keys.DocPrefix()).
		Language(r.language)
	if r.noStem {
		b = b.TextWithOpts(keyspace.TextField, true)
	} else {
		b = b.Text(keyspace.TextField)
	}
	def, err := b.Build()
	if err != nil {
		return fmt.Errorf("build index %s: %w", name, err)
	}
	r.logger.Debug("Creating search index", zap.Stringer("definition", def))

	if err := r.store.CreateIndex(ctx, def); err != nil {
		if errors.Is(err, db.ErrIndexExists) {
			return nil
		}
		return readErr(fmt.Sprintf("create index %s", name), err)
	}
	r.logger.Info("Created search index", zap.String("index", name), zap.String("prefix", r.keys.DocPrefix()))
	return nil
}

// writeErr classifies a failed write: connectivity vs. server-side rejection.
func writeErr(op string, err error) error {
	if db.IsUnavailable(err) {
		return fmt.Errorf("%s: %w: %w", op, domain.ErrStoreUnavailable, err)
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStoreWrite, err)
}

func readErr(op string, err error) error {
	if db.IsUnavailable(err) {
		return fmt.Errorf("%s: %w: %w", op, domain.ErrStoreUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
