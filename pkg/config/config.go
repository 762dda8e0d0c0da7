package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for canvass-engine.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (passwords, keys) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8080"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// Database configuration (PostgreSQL)
	Database DatabaseConfig `yaml:"database"`

	// Redis cache configuration (optional)
	Redis RedisConfig `yaml:"redis"`

	// Embedding service configuration
	Embedding EmbeddingConfig `yaml:"embedding"`

	// Analysis (candidate extraction) configuration
	Analysis AnalysisConfig `yaml:"analysis"`

	// Search engine tunables
	Search SearchConfig `yaml:"search"`

	// Path to the taxonomy seed file applied at startup (optional)
	TaxonomySeedPath string `yaml:"taxonomy_seed_path" env:"TAXONOMY_SEED_PATH" env-default:""`

	// Path to SQL migrations applied at startup
	MigrationsPath string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"./migrations"`
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"canvass"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"canvass_engine"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
}

// URL builds a postgres connection URL from the configuration.
func (c *DatabaseConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode)
}

// RedisConfig holds Redis configuration for the shared TTL cache.
// If Host is empty the engine falls back to the in-process cache.
type RedisConfig struct {
	Host     string `yaml:"host" env:"REDIS_HOST" env-default:""`
	Port     int    `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	Password string `yaml:"-" env:"REDIS_PASSWORD"` // Secret - not in YAML
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

// EmbeddingConfig holds settings for the embedding collaborator.
type EmbeddingConfig struct {
	Endpoint string `yaml:"endpoint" env:"EMBEDDING_ENDPOINT" env-default:"https://api.openai.com/v1"`
	Model    string `yaml:"model" env:"EMBEDDING_MODEL" env-default:"text-embedding-3-small"`
	APIKey   string `yaml:"-" env:"EMBEDDING_API_KEY"` // Secret - not in YAML
	// TimeoutSeconds bounds a single embedding call; timeouts degrade the
	// vector strategy rather than failing the search.
	TimeoutSeconds int `yaml:"timeout_seconds" env:"EMBEDDING_TIMEOUT_SECONDS" env-default:"10"`
	// Dimensions of the embedding vectors; must match the vector columns.
	Dimensions int `yaml:"dimensions" env:"EMBEDDING_DIMENSIONS" env-default:"1536"`
}

// Timeout returns the embedding call timeout as a duration.
func (c *EmbeddingConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// AnalysisConfig holds settings for the LLM candidate-extraction collaborator.
type AnalysisConfig struct {
	Model  string `yaml:"model" env:"ANALYSIS_MODEL" env-default:"claude-sonnet-4-20250514"`
	APIKey string `yaml:"-" env:"ANTHROPIC_API_KEY"` // Secret - not in YAML
}

// IsAvailable returns true if the analysis collaborator is configured.
func (c *AnalysisConfig) IsAvailable() bool {
	return c.APIKey != ""
}

// SearchConfig holds search engine tunables.
type SearchConfig struct {
	// SimilarityThreshold is the minimum cosine similarity for the vector
	// strategy to consider a document a candidate.
	SimilarityThreshold float64 `yaml:"similarity_threshold" env:"SEARCH_SIMILARITY_THRESHOLD" env-default:"0.7"`
	// MaxAssociations caps how many taxonomy associations are kept per document.
	MaxAssociations int `yaml:"max_associations" env:"SEARCH_MAX_ASSOCIATIONS" env-default:"10"`
	// ExpansionCacheTTLSeconds is how long expanded query sets are cached.
	ExpansionCacheTTLSeconds int `yaml:"expansion_cache_ttl_seconds" env:"SEARCH_EXPANSION_CACHE_TTL_SECONDS" env-default:"300"`
	// FacetCacheTTLSeconds is how long facet counts are cached.
	FacetCacheTTLSeconds int `yaml:"facet_cache_ttl_seconds" env:"SEARCH_FACET_CACHE_TTL_SECONDS" env-default:"60"`
	// DefaultPerPage is the page size when the caller does not specify one.
	DefaultPerPage int `yaml:"default_per_page" env:"SEARCH_DEFAULT_PER_PAGE" env-default:"20"`
	// MaxPerPage bounds the page size a caller may request.
	MaxPerPage int `yaml:"max_per_page" env:"SEARCH_MAX_PER_PAGE" env-default:"100"`
}

// ExpansionCacheTTL returns the expansion cache TTL as a duration.
func (c *SearchConfig) ExpansionCacheTTL() time.Duration {
	return time.Duration(c.ExpansionCacheTTLSeconds) * time.Second
}

// FacetCacheTTL returns the facet cache TTL as a duration.
func (c *SearchConfig) FacetCacheTTL() time.Duration {
	return time.Duration(c.FacetCacheTTLSeconds) * time.Second
}

// Load reads configuration from config.yaml (if present) and the environment.
func Load(version string) (*Config, error) {
	var cfg Config

	if _, err := os.Stat("config.yaml"); err == nil {
		if err := cleanenv.ReadConfig("config.yaml", &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config.yaml: %w", err)
		}
	} else {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment config: %w", err)
		}
	}

	cfg.Version = version

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks configuration invariants that would otherwise surface as
// confusing runtime failures.
func (c *Config) Validate() error {
	if c.Search.SimilarityThreshold < 0 || c.Search.SimilarityThreshold > 1 {
		return fmt.Errorf("similarity threshold must be in [0,1], got %f", c.Search.SimilarityThreshold)
	}
	if c.Search.MaxAssociations < 1 {
		return fmt.Errorf("max associations must be at least 1, got %d", c.Search.MaxAssociations)
	}
	if c.Embedding.Dimensions < 1 {
		return fmt.Errorf("embedding dimensions must be positive, got %d", c.Embedding.Dimensions)
	}
	if c.Search.DefaultPerPage < 1 || c.Search.DefaultPerPage > c.Search.MaxPerPage {
		return fmt.Errorf("default per-page %d must be in [1,%d]", c.Search.DefaultPerPage, c.Search.MaxPerPage)
	}
	return nil
}
