package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/ragdex/internal/db"
	"github.com/kailas-cloud/ragdex/internal/domain/search/request"
)

// Config holds the ragdex API configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Database   DatabaseConfig   `yaml:"database"`
	Index      IndexConfig      `yaml:"index"`
	Storage    StorageConfig    `yaml:"storage"`
	Generation GenerationConfig `yaml:"generation"`
	Auth       AuthConfig       `yaml:"auth"`
	CORS       CORSConfig       `yaml:"cors"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// CORSConfig holds cross-origin settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int   `yaml:"port"`
	ReadTimeoutSec  int   `yaml:"read_timeout_sec"`
	WriteTimeoutSec int   `yaml:"write_timeout_sec"`
	ShutdownSec     int   `yaml:"shutdown_timeout_sec"`
	MaxBodyBytes    int64 `yaml:"max_body_bytes"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // redis (default: redis)
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	TLS              bool     `yaml:"tls"`
	TLSSkipVerify    bool     `yaml:"tls_skip_verify"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// IndexConfig holds full-text index and retrieval settings.
type IndexConfig struct {
	Name         string `yaml:"name"`
	DefaultTopK  int    `yaml:"default_top_k"`
	MaxTopK      int    `yaml:"max_top_k"`
	Scorer       string `yaml:"scorer"`
	MaxBatchSize int    `yaml:"max_batch_size"`
	Language     string `yaml:"language"` // stemming language, empty = english
	NoStem       bool   `yaml:"no_stem"`
}

// StorageConfig holds storage settings.
type StorageConfig struct {
	KeyPrefix string `yaml:"key_prefix"`
}

// GenerationConfig holds chat completion settings.
// An empty APIKey disables answer generation.
type GenerationConfig struct {
	Provider               string  `yaml:"provider"`
	APIKey                 string  `yaml:"api_key"`
	Organization           string  `yaml:"organization"`
	BaseURL                string  `yaml:"base_url"`
	ChatModel              string  `yaml:"chat_model"`
	MaxTokens              int     `yaml:"max_tokens"`
	GenerationLengthTokens int     `yaml:"generation_length_tokens"`
	RateLimitRPS           float64 `yaml:"rate_limit_rps"` // 0 = unlimited
	RateLimitBurst         int     `yaml:"rate_limit_burst"`
}

// Enabled reports whether a generation backend is configured.
func (g GenerationConfig) Enabled() bool {
	return g.APIKey != ""
}

// PromptBudget is the token budget left for the prompt.
func (g GenerationConfig) PromptBudget() int {
	return g.MaxTokens - g.GenerationLengthTokens - 10
}

// Load reads configuration from a YAML file by environment name (local, docker, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse decodes YAML config data, expands ${VAR} references, applies
// environment credentials and defaults, then validates.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnv()
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// applyEnv fills credentials left empty in the file from the process environment.
func (c *Config) applyEnv() {
	setIfEmpty(&c.Database.Username, "REDIS_USERNAME")
	setIfEmpty(&c.Database.Password, "REDIS_PASSWORD")
	setIfEmpty(&c.Generation.APIKey, "OPENAI_API_KEY")
	setIfEmpty(&c.Generation.Organization, "OPENAI_ORGANIZATION")
}

func setIfEmpty(dst *string, key string) {
	if *dst == "" {
		*dst = os.Getenv(key)
	}
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 60
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.HTTP.MaxBodyBytes <= 0 {
		c.HTTP.MaxBodyBytes = 1 << 20
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "redis"
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Index.Name == "" {
		c.Index.Name = "documents"
	}
	if c.Index.DefaultTopK <= 0 {
		c.Index.DefaultTopK = request.DefaultTopK
	}
	if c.Index.MaxTopK <= 0 {
		c.Index.MaxTopK = 100
	}
	if c.Index.Scorer == "" {
		c.Index.Scorer = db.ScorerBM25
	}
	if c.Index.MaxBatchSize <= 0 {
		c.Index.MaxBatchSize = 1000
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = "ragdex:"
	}
	if c.Generation.Provider == "" {
		c.Generation.Provider = "openai"
	}
	if c.Generation.ChatModel == "" {
		c.Generation.ChatModel = "gpt-3.5-turbo"
	}
	if c.Generation.MaxTokens <= 0 {
		c.Generation.MaxTokens = 4096
	}
	if c.Generation.GenerationLengthTokens <= 0 {
		c.Generation.GenerationLengthTokens = 256
	}
	if len(c.CORS.AllowedOrigins) == 0 {
		c.CORS.AllowedOrigins = []string{"*"}
	}
}

var indexNameRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_-]{0,63}$`)

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	if c.Database.Driver != "redis" {
		return fmt.Errorf("database.driver must be \"redis\", got %q", c.Database.Driver)
	}
	if !indexNameRegex.MatchString(c.Index.Name) {
		return fmt.Errorf("index.name %q must start with a letter and contain only letters, digits, '_' or '-'", c.Index.Name)
	}
	if c.Index.MaxTopK > request.MaxTopK {
		return fmt.Errorf("index.max_top_k must be at most %d, got %d", request.MaxTopK, c.Index.MaxTopK)
	}
	if c.Index.DefaultTopK > c.Index.MaxTopK {
		return fmt.Errorf("index.default_top_k (%d) must not exceed index.max_top_k (%d)",
			c.Index.DefaultTopK, c.Index.MaxTopK)
	}
	if !db.IsValidScorer(c.Index.Scorer) {
		return fmt.Errorf("index.scorer %q is not supported", c.Index.Scorer)
	}
	if c.Index.Language != "" && !db.IsValidLanguage(c.Index.Language) {
		return fmt.Errorf("index.language %q is not supported", c.Index.Language)
	}
	if c.Generation.Provider != "openai" {
		return fmt.Errorf("generation.provider must be \"openai\", got %q", c.Generation.Provider)
	}
	if budget := c.Generation.PromptBudget(); budget <= 0 {
		return fmt.Errorf(
			"generation.max_tokens (%d) must exceed generation.generation_length_tokens (%d) by more than 10",
			c.Generation.MaxTokens, c.Generation.GenerationLengthTokens,
		)
	}
	if c.Generation.RateLimitRPS < 0 {
		return fmt.Errorf("generation.rate_limit_rps must not be negative, got %v", c.Generation.RateLimitRPS)
	}
	if c.Generation.RateLimitBurst < 0 {
		return fmt.Errorf("generation.rate_limit_burst must not be negative, got %d", c.Generation.RateLimitBurst)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// Relative to the source file, for tests run from a package directory.
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1])
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
