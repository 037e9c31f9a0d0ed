package chi

import (
	"context"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/kailas-cloud/ragdex/internal/db"
)

// memStore is an in-memory stand-in for the Redis store. Its scorer is
// plain term frequency, enough to give a deterministic ranking.
type memStore struct {
	mu      sync.Mutex
	hashes  map[string]map[string]string
	indexes map[string]*db.IndexDefinition
}

func newMemStore() *memStore {
	return &memStore{
		hashes:  make(map[string]map[string]string),
		indexes: make(map[string]*db.IndexDefinition),
	}
}

func (m *memStore) HSet(_ context.Context, key string, fields map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.hashes[key]
	if !ok {
		h = make(map[string]string, len(fields))
		m.hashes[key] = h
	}
	for k, v := range fields {
		h[k] = v
	}
	return nil
}

func (m *memStore) HSetMulti(ctx context.Context, items []db.HashSetItem) error {
	for _, item := range items {
		if err := m.HSet(ctx, item.Key, item.Fields); err != nil {
			return err
		}
	}
	return nil
}

func (m *memStore) HGetAll(_ context.Context, key string) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]string, len(m.hashes[key]))
	for k, v := range m.hashes[key] {
		out[k] = v
	}
	return out, nil
}

func (m *memStore) CreateIndex(_ context.Context, def *db.IndexDefinition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.indexes[def.Name]; ok {
		return db.ErrIndexExists
	}
	m.indexes[def.Name] = def
	return nil
}

func (m *memStore) IndexExists(_ context.Context, name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.indexes[name]
	return ok, nil
}

func (m *memStore) SearchText(_ context.Context, q *db.TextQuery) (*db.SearchResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	def, ok := m.indexes[q.IndexName]
	if !ok {
		return nil, &db.Error{Op: db.OpSearch, Err: errUnknownIndex}
	}
	terms := tokenize(q.Query)
	if len(terms) == 0 {
		return &db.SearchResult{}, nil
	}

	var entries []db.SearchEntry
	for key, h := range m.hashes {
		if !hasAnyPrefix(key, def.Prefixes) {
			continue
		}
		score := 0.0
		for _, tok := range tokenize(h[q.Field]) {
			for _, term := range terms {
				if tok == term {
					score++
				}
			}
		}
		if score == 0 {
			continue
		}
		fields := make(map[string]string, len(q.ReturnFields))
		for _, f := range q.ReturnFields {
			fields[f] = h[f]
		}
		entries = append(entries, db.SearchEntry{Key: key, Score: score, Fields: fields})
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

type memError string

func (e memError) Error() string { return string(e) }

const errUnknownIndex = memError("Unknown index name")

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func hasAnyPrefix(key string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(key, p) {
			return true
		}
	}
	return len(prefixes) == 0
}
