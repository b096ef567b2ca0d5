// Package config loads and validates configuration for the query evaluation
// tools from YAML files with environment-variable overrides. It provides typed
// structs for the evaluation run, the scorer, and the optional collaborators
// (metrics, Redis result cache, PostgreSQL document map).
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	apperrors "github.com/Adithya-Monish-Kumar-K/query-evaluator/pkg/errors"
)

// Config is the top-level application configuration.
type Config struct {
	Evaluation EvaluationConfig `yaml:"evaluation"`
	Scorer     ScorerConfig     `yaml:"scorer"`
	Logging    LoggingConfig    `yaml:"logging"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Redis      RedisConfig      `yaml:"redis"`
	Postgres   PostgresConfig   `yaml:"postgres"`
}

// EvaluationConfig describes one evaluation run: which index to open, which
// algorithm to bind, and where queries, lexicon and document names come from.
type EvaluationConfig struct {
	IndexType       string `yaml:"indexType"`
	Algorithm       string `yaml:"algorithm"`
	Index           string `yaml:"index"`
	Wand            string `yaml:"wand"`
	CompressedWand  bool   `yaml:"compressedWand"`
	Thresholds      string `yaml:"thresholds"`
	Queries         string `yaml:"queries"`
	Documents       string `yaml:"documents"`
	DocumentsSource string `yaml:"documentsSource"`
	Terms           string `yaml:"terms"`
	Stemmer         string `yaml:"stemmer"`
	Stopwords       string `yaml:"stopwords"`
	K               int    `yaml:"k"`
	Iteration       string `yaml:"iteration"`
	RunID           string `yaml:"runId"`
	LazyBlockSize   int    `yaml:"lazyBlockSize"`
}

// ScorerConfig holds the BM25 parameters. Score-bound data must be built with
// the same values.
type ScorerConfig struct {
	K1 float64 `yaml:"k1"`
	B  float64 `yaml:"b"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus scrape server and the textfile dump
// written when a run completes.
type MetricsConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Port     int    `yaml:"port"`
	Textfile string `yaml:"textfile"`
}

// RedisConfig holds Redis connection and result-cache parameters.
type RedisConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	PoolSize int           `yaml:"poolSize"`
	CacheTTL time.Duration `yaml:"cacheTTL"`
}

// PostgresConfig holds PostgreSQL connection parameters and the table the
// document map is read from.
type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslMode"`
	Table    string `yaml:"table"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

const (
	DocumentsFromFile     = "file"
	DocumentsFromPostgres = "postgres"
)

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides. Missing values keep their defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	return cfg, nil
}

// Default returns a Config with the defaults used when neither a file nor the
// environment sets a value.
func Default() *Config {
	return &Config{
		Evaluation: EvaluationConfig{
			DocumentsSource: DocumentsFromFile,
			K:               10,
			Iteration:       "Q0",
			RunID:           "R0",
			LazyBlockSize:   256,
		},
		Scorer: ScorerConfig{
			K1: 0.9,
			B:  0.4,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Port: 9090,
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			PoolSize: 4,
			CacheTTL: 10 * time.Minute,
		},
		Postgres: PostgresConfig{
			Host:     "localhost",
			Port:     5432,
			Database: "searchplatform",
			User:     "searchplatform",
			SSLMode:  "disable",
			Table:    "documents",
		},
	}
}

// Validate checks the fields every evaluation run needs. Index type and
// algorithm names are checked by their own parsers.
func (c *Config) Validate() error {
	e := c.Evaluation
	switch {
	case e.IndexType == "":
		return apperrors.Config(apperrors.ErrInvalidConfig, "index type is required")
	case e.Algorithm == "":
		return apperrors.Config(apperrors.ErrInvalidConfig, "algorithm is required")
	case e.Index == "":
		return apperrors.Config(apperrors.ErrInvalidConfig, "index path is required")
	case e.K < 0:
		return apperrors.Config(apperrors.ErrInvalidConfig, "k must be non-negative, got %d", e.K)
	case e.LazyBlockSize <= 0:
		return apperrors.Config(apperrors.ErrInvalidConfig, "lazyBlockSize must be positive, got %d", e.LazyBlockSize)
	case e.Stemmer != "" && e.Terms == "":
		return apperrors.Config(apperrors.ErrInvalidConfig, "stemmer requires a terms file")
	}
	switch e.DocumentsSource {
	case DocumentsFromFile:
		if e.Documents == "" {
			return apperrors.Config(apperrors.ErrInvalidConfig, "documents file is required")
		}
	case DocumentsFromPostgres:
		if c.Postgres.Table == "" {
			return apperrors.Config(apperrors.ErrInvalidConfig, "postgres table is required")
		}
	default:
		return apperrors.Config(apperrors.ErrInvalidConfig, "unknown documents source %q", e.DocumentsSource)
	}
	return nil
}

// applyEnvOverrides reads SP_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SP_INDEX_TYPE"); v != "" {
		cfg.Evaluation.IndexType = v
	}
	if v := os.Getenv("SP_ALGORITHM"); v != "" {
		cfg.Evaluation.Algorithm = v
	}
	if v := os.Getenv("SP_INDEX"); v != "" {
		cfg.Evaluation.Index = v
	}
	if v := os.Getenv("SP_WAND"); v != "" {
		cfg.Evaluation.Wand = v
	}
	if v := os.Getenv("SP_COMPRESSED_WAND"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Evaluation.CompressedWand = b
		}
	}
	if v := os.Getenv("SP_DOCUMENTS"); v != "" {
		cfg.Evaluation.Documents = v
	}
	if v := os.Getenv("SP_K"); v != "" {
		if k, err := strconv.Atoi(v); err == nil {
			cfg.Evaluation.K = k
		}
	}
	if v := os.Getenv("SP_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("SP_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("SP_METRICS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Metrics.Port = port
		}
	}
	if v := os.Getenv("SP_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("SP_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("SP_POSTGRES_HOST"); v != "" {
		cfg.Postgres.Host = v
	}
	if v := os.Getenv("SP_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.Port = port
		}
	}
	if v := os.Getenv("SP_POSTGRES_USER"); v != "" {
		cfg.Postgres.User = v
	}
	if v := os.Getenv("SP_POSTGRES_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}
}
