package ragdex

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/kailas-cloud/ragdex/internal/db"
	domdoc "github.com/kailas-cloud/ragdex/internal/domain/document"
	"github.com/kailas-cloud/ragdex/internal/domain/search/request"
	"github.com/kailas-cloud/ragdex/internal/domain/search/result"
	answeruc "github.com/kailas-cloud/ragdex/internal/usecase/answer"
	healthuc "github.com/kailas-cloud/ragdex/internal/usecase/health"
)

// --- use case mocks ---

type mockDocumentUC struct {
	indexFn      func(ctx context.Context, text string) (string, error)
	indexBatchFn func(ctx context.Context, texts []string) ([]string, error)
	getFn        func(ctx context.Context, id string) (domdoc.Document, error)
}

func (m *mockDocumentUC) Index(ctx context.Context, text string) (string, error) {
	return m.indexFn(ctx, text)
}

func (m *mockDocumentUC) IndexBatch(ctx context.Context, texts []string) ([]string, error) {
	return m.indexBatchFn(ctx, texts)
}

func (m *mockDocumentUC) Get(ctx context.Context, id string) (domdoc.Document, error) {
	return m.getFn(ctx, id)
}

type mockRetrievalUC struct {
	retrieveFn func(ctx context.Context, req request.Request) ([]result.Result, error)
}

func (m *mockRetrievalUC) RetrieveTopK(ctx context.Context, req request.Request) ([]result.Result, error) {
	return m.retrieveFn(ctx, req)
}

type mockAnswerUC struct {
	answerFn func(ctx context.Context, query string) (answeruc.Answer, error)
}

func (m *mockAnswerUC) Answer(ctx context.Context, query string) (answeruc.Answer, error) {
	return m.answerFn(ctx, query)
}

type mockHealthUC struct {
	report healthuc.Report
}

func (m *mockHealthUC) Check(_ context.Context) healthuc.Report { return m.report }

type mockConn struct {
	pingErr error
	closed  bool
}

func (m *mockConn) Ping(_ context.Context) error { return m.pingErr }
func (m *mockConn) Close()                       { m.closed = true }

type mockGenerator struct {
	fn func(ctx context.Context, prompt string) (Generation, error)
}

func (m *mockGenerator) Generate(ctx context.Context, prompt string) (Generation, error) {
	return m.fn(ctx, prompt)
}

// --- helpers ---

func testClient(docs documentUseCase, retrieval retrievalUseCase, answers answerUseCase) *Client {
	return &Client{
		conn:        &mockConn{},
		docSvc:      docs,
		retrieval:   retrieval,
		answers:     answers,
		defaultTopK: request.DefaultTopK,
	}
}

// fakeStore is an in-memory db.Store that ranks hashes by query term frequency.
type fakeStore struct {
	mu      sync.Mutex
	hashes  map[string]map[string]string
	indexes map[string]*db.IndexDefinition
}

var _ db.Store = (*fakeStore)(nil)

func newFakeStore() *fakeStore {
	return &fakeStore{
		hashes:  make(map[string]map[string]string),
		indexes: make(map[string]*db.IndexDefinition),
	}
}

func (s *fakeStore) Ping(_ context.Context) error { return nil }
func (s *fakeStore) Close()                       {}

func (s *fakeStore) WaitForReady(_ context.Context, _ time.Duration) error { return nil }

func (s *fakeStore) HSet(_ context.Context, key string, fields map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make(map[string]string, len(fields))
	for k, v := range fields {
		cp[k] = v
	}
	s.hashes[key] = cp
	return nil
}

func (s *fakeStore) HSetMulti(ctx context.Context, items []db.HashSetItem) error {
	for _, it := range items {
		if err := s.HSet(ctx, it.Key, it.Fields); err != nil {
			return err
		}
	}
	return nil
}

func (s *fakeStore) HGetAll(_ context.Context, key string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.hashes[key]
	if !ok {
		return map[string]string{}, nil
	}
	return h, nil
}

func (s *fakeStore) CreateIndex(_ context.Context, def *db.IndexDefinition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.indexes[def.Name]; ok {
		return db.ErrIndexExists
	}
	s.indexes[def.Name] = def
	return nil
}

func (s *fakeStore) IndexExists(_ context.Context, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.indexes[name]
	return ok, nil
}

func (s *fakeStore) SearchText(_ context.Context, q *db.TextQuery) (*db.SearchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	terms := strings.Fields(strings.ToLower(q.Query))
	var entries []db.SearchEntry
	for key, h := range s.hashes {
		words := strings.Fields(strings.ToLower(h[q.Field]))
		score := 0
		for _, w := range words {
			for _, t := range terms {
				if w == t {
					score++
				}
			}
		}
		if score > 0 {
			entries = append(entries, db.SearchEntry{Key: key, Score: float64(score), Fields: h})
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].Key < entries[j].Key
	})
	total := len(entries)
	if len(entries) > q.TopK {
		entries = entries[:q.TopK]
	}
	return &db.SearchResult{Total: total, Entries: entries}, nil
}
