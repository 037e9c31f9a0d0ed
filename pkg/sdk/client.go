package ragdex

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/ragdex/internal/db"
	dbRedis "github.com/kailas-cloud/ragdex/internal/db/redis"
	domdoc "github.com/kailas-cloud/ragdex/internal/domain/document"
	"github.com/kailas-cloud/ragdex/internal/domain/search/request"
	"github.com/kailas-cloud/ragdex/internal/domain/search/result"
	documentrepo "github.com/kailas-cloud/ragdex/internal/repository/document"
	"github.com/kailas-cloud/ragdex/internal/repository/keyspace"
	searchrepo "github.com/kailas-cloud/ragdex/internal/repository/search"
	answeruc "github.com/kailas-cloud/ragdex/internal/usecase/answer"
	documentuc "github.com/kailas-cloud/ragdex/internal/usecase/document"
	healthuc "github.com/kailas-cloud/ragdex/internal/usecase/health"
	retrievaluc "github.com/kailas-cloud/ragdex/internal/usecase/retrieval"
)

const defaultReadinessTimeout = 10 * time.Second

// Internal interfaces, swapped for mocks in tests.
type documentUseCase interface {
	Index(ctx context.Context, text string) (string, error)
	IndexBatch(ctx context.Context, texts []string) ([]string, error)
	Get(ctx context.Context, id string) (domdoc.Document, error)
}

type retrievalUseCase interface {
	RetrieveTopK(ctx context.Context, req request.Request) ([]result.Result, error)
}

type answerUseCase interface {
	Answer(ctx context.Context, query string) (answeruc.Answer, error)
}

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}

type connection interface {
	Ping(ctx context.Context) error
	Close()
}

// Client is the ragdex SDK entry point. It is safe for concurrent use.
type Client struct {
	conn        connection
	docSvc      documentUseCase
	retrieval   retrievalUseCase
	answers     answerUseCase
	healthSvc   healthUseCase
	defaultTopK int
	obs         *observer
}

// New creates a Client, connects to Redis and creates the index if missing.
// The provided context is used for the readiness check and index creation.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := defaultConfig()
	for _, o := range opts {
		o.apply(cfg)
	}

	if len(cfg.addrs) == 0 {
		return nil, errors.New("ragdex: database address required (use WithRedis)")
	}
	if !db.IsValidScorer(cfg.scorer) {
		return nil, fmt.Errorf("ragdex: unknown scorer %q", cfg.scorer)
	}
	if cfg.language != "" && !db.IsValidLanguage(cfg.language) {
		return nil, fmt.Errorf("ragdex: unknown stemming language %q", cfg.language)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:         cfg.addrs,
		Username:      cfg.username,
		Password:      cfg.password,
		TLS:           cfg.tls,
		TLSSkipVerify: cfg.tlsSkipVerify,
	})
	if err != nil {
		return nil, fmt.Errorf("ragdex: create redis store: %w", err)
	}

	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("ragdex: database not ready: %w", err)
	}

	c, err := wireClient(ctx, store, cfg, obs)
	if err != nil {
		store.Close()
		return nil, err
	}
	return c, nil
}

func wireClient(ctx context.Context, store db.Store, cfg *clientConfig, obs *observer) (*Client, error) {
	keys := keyspace.New(cfg.keyPrefix, cfg.index)
	docRepo := documentrepo.New(store, keys, nil,
		documentrepo.WithLanguage(cfg.language),
		documentrepo.WithNoStem(cfg.noStem),
	)
	searchRepo := searchrepo.New(store, keys, cfg.scorer)

	if err := docRepo.EnsureIndex(ctx); err != nil {
		return nil, fmt.Errorf("ragdex: ensure index: %w", err)
	}

	// nil interfaces (not typed nil pointers) keep generation disabled.
	var (
		generator answeruc.Generator
		checker   healthuc.GenerationChecker
	)
	switch {
	case cfg.generator != nil:
		a := &generatorAdapter{inner: cfg.generator}
		generator, checker = a, a
	case cfg.openAI != nil:
		g, err := newOpenAIGenerator(*cfg.openAI)
		if err != nil {
			return nil, err
		}
		generator, checker = g, g
	}

	docSvc := documentuc.New(docRepo).WithMaxBatchSize(cfg.maxBatchSize)
	retrievalSvc := retrievaluc.New(searchRepo)

	defaultTopK := cfg.defaultTopK
	if defaultTopK <= 0 {
		defaultTopK = request.DefaultTopK
	}

	return &Client{
		conn:        store,
		docSvc:      docSvc,
		retrieval:   retrievalSvc,
		answers:     answeruc.New(retrievalSvc, generator, defaultTopK),
		healthSvc:   healthuc.New(store, checker),
		defaultTopK: defaultTopK,
		obs:         obs,
	}, nil
}

// Close releases all resources.
func (c *Client) Close() {
	if c.conn != nil {
		c.conn.Close()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe(opPing, start, err) }()

	if err = c.conn.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Documents returns the document service.
func (c *Client) Documents() *DocumentService {
	return &DocumentService{svc: c.docSvc, obs: c.obs}
}

// Search returns up to k documents ranked by relevance to query, best first.
// k <= 0 uses the client default; k above request.MaxTopK is clamped.
func (c *Client) Search(ctx context.Context, query string, k int) (_ []SearchResult, err error) {
	start := time.Now()
	defer func() { c.obs.observe(opSearch, start, err, "top_k", k) }()

	if k <= 0 {
		k = c.defaultTopK
	}
	req, err := request.New(query, request.ClampTopK(k, request.MaxTopK))
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	results, err := c.retrieval.RetrieveTopK(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	out := make([]SearchResult, len(results))
	for i, r := range results {
		out[i] = SearchResult{ID: r.ID(), Text: r.Text(), Score: r.Score()}
	}
	return out, nil
}

// Answer retrieves the top documents for query and asks the configured
// generator to answer from them. Without a generator it fails with
// ErrGenerationUnavailable.
func (c *Client) Answer(ctx context.Context, query string) (_ Answer, err error) {
	start := time.Now()
	defer func() { c.obs.observe(opAnswer, start, err) }()

	a, err := c.answers.Answer(ctx, query)
	if err != nil {
		return Answer{}, fmt.Errorf("answer: %w", err)
	}
	ids := a.RetrievedIDs
	if ids == nil {
		ids = []string{}
	}
	return Answer{Text: a.Text, RetrievedIDs: ids}, nil
}

// Health checks the health of all system components.
func (c *Client) Health(ctx context.Context) HealthStatus {
	report := c.healthSvc.Check(ctx)
	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}
	return HealthStatus{
		Status: string(report.Status),
		Checks: checks,
	}
}
