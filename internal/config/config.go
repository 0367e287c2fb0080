package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the markdex configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Auth      AuthConfig      `yaml:"auth"`
	Logging   LoggingConfig   `yaml:"logging"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Summary   SummaryConfig   `yaml:"summary"`
	Index     IndexConfig     `yaml:"index"`
	Storage   StorageConfig   `yaml:"storage"`
	Cache     CacheConfig     `yaml:"cache"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// Embedding providers.
const (
	EmbeddingHashing = "hashing"
	EmbeddingOpenAI  = "openai"
)

// EmbeddingConfig selects and configures the text embedder.
type EmbeddingConfig struct {
	Provider            string  `yaml:"provider"` // hashing (default), openai
	Model               string  `yaml:"model"`
	Dimensions          int     `yaml:"dimensions"`
	APIKey              string  `yaml:"api_key"`
	BaseURL             string  `yaml:"base_url"`
	RateLimit           float64 `yaml:"rate_limit"` // requests per second, 0 = unlimited
	BatchSize           int     `yaml:"batch_size"`
	DocumentInstruction string  `yaml:"document_instruction"`
	QueryInstruction    string  `yaml:"query_instruction"`
}

// Summary providers.
const (
	SummaryExtractive = "extractive"
	SummaryOpenAI     = "openai"
	SummaryOllama     = "ollama"
	SummaryNone       = "none"
)

// SummaryConfig selects and configures the summarizer.
type SummaryConfig struct {
	Provider   string  `yaml:"provider"` // extractive (default), openai, ollama, none
	Model      string  `yaml:"model"`
	APIKey     string  `yaml:"api_key"`
	BaseURL    string  `yaml:"base_url"`
	TimeoutSec int     `yaml:"timeout_sec"`
	MaxResults int     `yaml:"max_results"`
	MinScore   float64 `yaml:"min_score"` // extractive only
}

// Timeout returns the per-call summarizer timeout.
func (c SummaryConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

// IndexConfig holds search defaults and index tuning.
type IndexConfig struct {
	DefaultTopK     int       `yaml:"default_top_k"`
	DefaultMinScore *float64  `yaml:"default_min_score"`
	MaxBatchSize    int       `yaml:"max_batch_size"`
	ANN             ANNConfig `yaml:"ann"`
}

// MinScore returns the default relevance floor.
func (c IndexConfig) MinScore() float64 {
	if c.DefaultMinScore == nil {
		return defaultMinScore
	}
	return *c.DefaultMinScore
}

// ANNConfig configures the approximate nearest-neighbor structure.
type ANNConfig struct {
	Enabled           bool `yaml:"enabled"`
	MinEntries        int  `yaml:"min_entries"`
	RebuildIntervalMs int  `yaml:"rebuild_interval_ms"`
}

// RebuildInterval returns how often the rebuilder checks for changes.
func (c ANNConfig) RebuildInterval() time.Duration {
	return time.Duration(c.RebuildIntervalMs) * time.Millisecond
}

// Storage drivers.
const (
	StorageMemory   = "memory"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
)

// StorageConfig selects where index entries are persisted.
type StorageConfig struct {
	Driver string `yaml:"driver"` // memory (default), sqlite, postgres
	DSN    string `yaml:"dsn"`    // file path for sqlite, connection string for postgres
	Table  string `yaml:"table"`
}

// Cache drivers.
const (
	CacheNone   = "none"
	CacheRedis  = "redis"
	CacheSQLite = "sqlite"
)

// CacheConfig configures the embedding cache.
type CacheConfig struct {
	Driver           string   `yaml:"driver"` // none (default), redis, sqlite
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	Path             string   `yaml:"path"`
	KeyPrefix        string   `yaml:"key_prefix"`
	TTLSec           int      `yaml:"ttl_sec"` // 0 = no expiry
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// TTL returns the cache entry lifetime; 0 means entries never expire.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSec) * time.Second
}

const (
	defaultTopK     = 10
	maxTopK         = 100
	defaultMinScore = 0.15
)

// Load reads configuration from a YAML file by environment name (local, dev, prod).
// A .env file in the working directory is loaded first when present.
func Load(env string) (Config, error) {
	_ = godotenv.Load()

	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse expands environment variables in data, then decodes, defaults and validates it.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

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

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8080
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 60
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}

	if c.Embedding.Provider == "" {
		c.Embedding.Provider = EmbeddingHashing
	}
	if c.Embedding.Provider == EmbeddingHashing && c.Embedding.Dimensions <= 0 {
		c.Embedding.Dimensions = 384
	}
	if c.Embedding.BatchSize <= 0 {
		c.Embedding.BatchSize = 64
	}

	if c.Summary.Provider == "" {
		c.Summary.Provider = SummaryExtractive
	}
	if c.Summary.TimeoutSec <= 0 {
		c.Summary.TimeoutSec = 10
	}
	if c.Summary.MaxResults <= 0 {
		c.Summary.MaxResults = 5
	}
	if c.Summary.MinScore <= 0 {
		c.Summary.MinScore = 0.55
	}

	if c.Index.DefaultTopK <= 0 {
		c.Index.DefaultTopK = defaultTopK
	}
	if c.Index.MaxBatchSize <= 0 {
		c.Index.MaxBatchSize = 50000
	}
	if c.Index.ANN.MinEntries <= 0 {
		c.Index.ANN.MinEntries = 2048
	}
	if c.Index.ANN.RebuildIntervalMs <= 0 {
		c.Index.ANN.RebuildIntervalMs = 2000
	}

	if c.Storage.Driver == "" {
		c.Storage.Driver = StorageMemory
	}
	if c.Storage.Table == "" {
		c.Storage.Table = "markdex_bookmarks"
	}

	if c.Cache.Driver == "" {
		c.Cache.Driver = CacheNone
	}
	if c.Cache.KeyPrefix == "" {
		c.Cache.KeyPrefix = "markdex:emb:"
	}
	if c.Cache.ReadinessTimeout <= 0 {
		c.Cache.ReadinessTimeout = 10
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}

	switch c.Embedding.Provider {
	case EmbeddingHashing:
		if c.Embedding.Dimensions <= 0 {
			return fmt.Errorf("embedding.dimensions must be positive, got %d", c.Embedding.Dimensions)
		}
	case EmbeddingOpenAI:
		if c.Embedding.Model == "" {
			return fmt.Errorf("embedding.model is required for provider %q", c.Embedding.Provider)
		}
		if c.Embedding.APIKey == "" {
			return fmt.Errorf("embedding.api_key is required for provider %q", c.Embedding.Provider)
		}
	default:
		return fmt.Errorf("embedding.provider must be %q or %q, got %q",
			EmbeddingHashing, EmbeddingOpenAI, c.Embedding.Provider)
	}
	if c.Embedding.RateLimit < 0 {
		return fmt.Errorf("embedding.rate_limit must not be negative, got %g", c.Embedding.RateLimit)
	}

	switch c.Summary.Provider {
	case SummaryExtractive, SummaryOllama, SummaryNone:
	case SummaryOpenAI:
		if c.Summary.APIKey == "" {
			return fmt.Errorf("summary.api_key is required for provider %q", c.Summary.Provider)
		}
	default:
		return fmt.Errorf("summary.provider must be one of extractive, openai, ollama, none; got %q", c.Summary.Provider)
	}
	if c.Summary.MinScore > 1 {
		return fmt.Errorf("summary.min_score must be between 0 and 1, got %g", c.Summary.MinScore)
	}

	if c.Index.DefaultTopK > maxTopK {
		return fmt.Errorf("index.default_top_k must be between 1 and %d, got %d", maxTopK, c.Index.DefaultTopK)
	}
	if ms := c.Index.MinScore(); ms < 0 || ms > 1 {
		return fmt.Errorf("index.default_min_score must be between 0 and 1, got %g", ms)
	}

	switch c.Storage.Driver {
	case StorageMemory:
	case StorageSQLite, StoragePostgres:
		if c.Storage.DSN == "" {
			return fmt.Errorf("storage.dsn is required for driver %q", c.Storage.Driver)
		}
	default:
		return fmt.Errorf("storage.driver must be one of memory, sqlite, postgres; got %q", c.Storage.Driver)
	}

	switch c.Cache.Driver {
	case CacheNone:
	case CacheRedis:
		if len(c.Cache.Addrs) == 0 {
			return fmt.Errorf("cache.addrs is required for driver %q", c.Cache.Driver)
		}
	case CacheSQLite:
		if c.Cache.Path == "" {
			return fmt.Errorf("cache.path is required for driver %q", c.Cache.Driver)
		}
	default:
		return fmt.Errorf("cache.driver must be one of none, redis, sqlite; got %q", c.Cache.Driver)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
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
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
