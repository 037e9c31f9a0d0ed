package ragdex

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	addrs         []string
	username      string
	password      string
	tls           bool
	tlsSkipVerify bool

	index     string
	keyPrefix string
	scorer    string
	language  string
	noStem    bool

	generator Generator
	openAI    *OpenAIConfig

	defaultTopK  int
	maxBatchSize int

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

func defaultConfig() *clientConfig {
	return &clientConfig{
		index:     "documents",
		keyPrefix: "ragdex:",
		scorer:    "BM25",
	}
}

// WithRedis configures the client to connect to a Redis 8+ instance.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithUsername sets the Redis ACL user.
func WithUsername(username string) Option {
	return optionFunc(func(c *clientConfig) {
		c.username = username
	})
}

// WithTLS enables TLS for the Redis connection.
func WithTLS(skipVerify bool) Option {
	return optionFunc(func(c *clientConfig) {
		c.tls = true
		c.tlsSkipVerify = skipVerify
	})
}

// WithIndex selects the document index. Default: "documents".
func WithIndex(name string) Option {
	return optionFunc(func(c *clientConfig) {
		c.index = name
	})
}

// WithKeyPrefix sets the Redis key prefix. Default: "ragdex:".
func WithKeyPrefix(prefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.keyPrefix = prefix
	})
}

// WithScorer sets the FT.SEARCH scorer (BM25, TFIDF, ...). Default: BM25.
func WithScorer(scorer string) Option {
	return optionFunc(func(c *clientConfig) {
		c.scorer = scorer
	})
}

// WithStemming sets the stemming language of the index ("" keeps english).
// noStem disables stemming entirely. Applies only when the index is created.
func WithStemming(language string, noStem bool) Option {
	return optionFunc(func(c *clientConfig) {
		c.language = language
		c.noStem = noStem
	})
}

// WithGenerator sets a custom answer generator. Takes precedence over WithOpenAI.
func WithGenerator(g Generator) Option {
	return optionFunc(func(c *clientConfig) {
		c.generator = g
	})
}

// WithOpenAI enables answer generation through an OpenAI-compatible API.
func WithOpenAI(cfg OpenAIConfig) Option {
	return optionFunc(func(c *clientConfig) {
		c.openAI = &cfg
	})
}

// WithDefaultTopK sets the number of documents Answer grounds on. Default: 5.
func WithDefaultTopK(k int) Option {
	return optionFunc(func(c *clientConfig) {
		c.defaultTopK = k
	})
}

// WithMaxBatchSize limits IndexBatch. Default: 1000.
func WithMaxBatchSize(size int) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxBatchSize = size
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
