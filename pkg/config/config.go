// Package config loads the searchserver configuration from an optional YAML
// file and applies SS_* environment-variable overrides on top of defaults.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Index     IndexConfig     `yaml:"index"`
	Search    SearchConfig    `yaml:"search"`
	Analytics AnalyticsConfig `yaml:"analytics"`
	Cache     CacheConfig     `yaml:"cache"`
	Redis     RedisConfig     `yaml:"redis"`
	Postgres  PostgresConfig  `yaml:"postgres"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// IndexConfig controls index construction and parallel fan-out. StopWords is
// a space-separated list. Workers below one means GOMAXPROCS.
type IndexConfig struct {
	StopWords string `yaml:"stopWords"`
	Buckets   int    `yaml:"buckets"`
	Workers   int    `yaml:"workers"`
}

// SearchConfig holds query defaults. PageSize is the number of results
// printed per page by the CLI.
type SearchConfig struct {
	Policy   string `yaml:"policy"`
	PageSize int    `yaml:"pageSize"`
}

type AnalyticsConfig struct {
	WindowSize int `yaml:"windowSize"`
}

// CacheConfig selects the query result cache. Backend is "none", "lru" or
// "redis"; Size applies to lru and TTL to redis.
type CacheConfig struct {
	Backend string        `yaml:"backend"`
	Size    int           `yaml:"size"`
	TTL     time.Duration `yaml:"ttl"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"poolSize"`
}

// PostgresConfig holds PostgreSQL connection parameters and the table
// corpus documents are loaded from.
type PostgresConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Database        string        `yaml:"database"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslMode"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
	Table           string        `yaml:"table"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// KafkaConfig holds broker addresses and the document event topic.
type KafkaConfig struct {
	Brokers       []string `yaml:"brokers"`
	ConsumerGroup string   `yaml:"consumerGroup"`
	DocumentTopic string   `yaml:"documentTopic"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus scrape endpoint started by the CLI.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides. Missing values keep their defaults.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
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
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	if c.Search.PageSize < 1 {
		return fmt.Errorf("search.pageSize must be positive, got %d", c.Search.PageSize)
	}
	if c.Analytics.WindowSize < 1 {
		return fmt.Errorf("analytics.windowSize must be positive, got %d", c.Analytics.WindowSize)
	}
	switch c.Cache.Backend {
	case "none", "lru", "redis":
	default:
		return fmt.Errorf("cache.backend must be none, lru or redis, got %q", c.Cache.Backend)
	}
	if c.Cache.Backend == "lru" && c.Cache.Size < 1 {
		return fmt.Errorf("cache.size must be positive for the lru backend, got %d", c.Cache.Size)
	}
	return nil
}

func defaultConfig() *Config {
	return &Config{
		Index: IndexConfig{
			StopWords: "a an and in of on the to with",
			Buckets:   64,
		},
		Search: SearchConfig{
			Policy:   "sequential",
			PageSize: 2,
		},
		Analytics: AnalyticsConfig{
			WindowSize: 1440,
		},
		Cache: CacheConfig{
			Backend: "none",
			Size:    1024,
			TTL:     60 * time.Second,
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			PoolSize: 10,
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "searchserver",
			User:            "searchserver",
			Password:        "localdev",
			SSLMode:         "disable",
			MaxOpenConns:    10,
			MaxIdleConns:    2,
			ConnMaxLifetime: 5 * time.Minute,
			Table:           "documents",
		},
		Kafka: KafkaConfig{
			Brokers:       []string{"localhost:9092"},
			ConsumerGroup: "searchserver",
			DocumentTopic: "document-events",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "auto",
		},
		Metrics: MetricsConfig{
			Port: 9090,
		},
	}
}

// applyEnvOverrides reads SS_* environment variables and overrides the
// corresponding config fields. Unparseable numbers are ignored.
func applyEnvOverrides(cfg *Config) {
	setString := func(name string, dst *string) {
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}
	setInt := func(name string, dst *int) {
		if v := os.Getenv(name); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}

	setString("SS_INDEX_STOP_WORDS", &cfg.Index.StopWords)
	setInt("SS_INDEX_BUCKETS", &cfg.Index.Buckets)
	setInt("SS_INDEX_WORKERS", &cfg.Index.Workers)
	setString("SS_SEARCH_POLICY", &cfg.Search.Policy)
	setInt("SS_SEARCH_PAGE_SIZE", &cfg.Search.PageSize)
	setInt("SS_ANALYTICS_WINDOW_SIZE", &cfg.Analytics.WindowSize)
	setString("SS_CACHE_BACKEND", &cfg.Cache.Backend)
	setInt("SS_CACHE_SIZE", &cfg.Cache.Size)
	if v := os.Getenv("SS_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Cache.TTL = d
		}
	}
	setString("SS_REDIS_ADDR", &cfg.Redis.Addr)
	setString("SS_REDIS_PASSWORD", &cfg.Redis.Password)
	setString("SS_POSTGRES_HOST", &cfg.Postgres.Host)
	setInt("SS_POSTGRES_PORT", &cfg.Postgres.Port)
	setString("SS_POSTGRES_DATABASE", &cfg.Postgres.Database)
	setString("SS_POSTGRES_USER", &cfg.Postgres.User)
	setString("SS_POSTGRES_PASSWORD", &cfg.Postgres.Password)
	setString("SS_POSTGRES_SSLMODE", &cfg.Postgres.SSLMode)
	setString("SS_POSTGRES_TABLE", &cfg.Postgres.Table)
	if v := os.Getenv("SS_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	setString("SS_KAFKA_CONSUMER_GROUP", &cfg.Kafka.ConsumerGroup)
	setString("SS_KAFKA_DOCUMENT_TOPIC", &cfg.Kafka.DocumentTopic)
	setString("SS_LOGGING_LEVEL", &cfg.Logging.Level)
	setString("SS_LOGGING_FORMAT", &cfg.Logging.Format)
	if v := os.Getenv("SS_METRICS_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Metrics.Enabled = b
		}
	}
	setInt("SS_METRICS_PORT", &cfg.Metrics.Port)
}
