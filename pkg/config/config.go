// Package config loads and validates application configuration from YAML files
// with environment-variable overrides. It provides typed structs for every
// subsystem (Server, Store, Postgres, SQLite, Redis, Kafka, Tokenizer, etc.).
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Supported store backends.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
	BackendRedis    = "redis"
)

// Config is the top-level application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Store     StoreConfig     `yaml:"store"`
	Postgres  PostgresConfig  `yaml:"postgres"`
	SQLite    SQLiteConfig    `yaml:"sqlite"`
	Redis     RedisConfig     `yaml:"redis"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Tokenizer TokenizerConfig `yaml:"tokenizer"`
	Watch     WatchConfig     `yaml:"watch"`
	Auth      AuthConfig      `yaml:"auth"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
	MaxBodyBytes    int64         `yaml:"maxBodyBytes"`
	RequestTimeout  time.Duration `yaml:"requestTimeout"`
	CORSOrigins     []string      `yaml:"corsOrigins"`
}

// StoreConfig selects the persistence backend and names the collections
// holding each accumulator's checkpoint.
type StoreConfig struct {
	Backend          string        `yaml:"backend"`
	CountCollection  string        `yaml:"countCollection"`
	WeightCollection string        `yaml:"weightCollection"`
	Retry            RetryConfig   `yaml:"retry"`
	Breaker          BreakerConfig `yaml:"breaker"`
}

// RetryConfig controls retries of idempotent store calls.
type RetryConfig struct {
	MaxAttempts  int           `yaml:"maxAttempts"`
	InitialDelay time.Duration `yaml:"initialDelay"`
	MaxDelay     time.Duration `yaml:"maxDelay"`
}

// BreakerConfig controls the circuit breaker guarding the store.
type BreakerConfig struct {
	Enabled          bool          `yaml:"enabled"`
	FailureThreshold int           `yaml:"failureThreshold"`
	ResetTimeout     time.Duration `yaml:"resetTimeout"`
}

// PostgresConfig holds PostgreSQL connection parameters.
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
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// SQLiteConfig points at the embedded database file.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	PoolSize  int    `yaml:"poolSize"`
	KeyPrefix string `yaml:"keyPrefix"`
}

// KafkaConfig holds Kafka broker and topic settings. An empty broker list
// disables the consumer and the vocabulary event producer.
type KafkaConfig struct {
	Brokers       []string    `yaml:"brokers"`
	ConsumerGroup string      `yaml:"consumerGroup"`
	Topics        KafkaTopics `yaml:"topics"`
}

// KafkaTopics maps logical topic names to their Kafka topic strings.
type KafkaTopics struct {
	DocumentIngest    string `yaml:"documentIngest"`
	VocabularyUpdates string `yaml:"vocabularyUpdates"`
}

// Enabled reports whether any broker is configured.
func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

// Term counting policies for the weight vocabulary.
const (
	TermCountingSubstring = "substring"
	TermCountingToken     = "token"
)

// TokenizerConfig controls how documents are split into vocabulary words
// and how term occurrences are counted.
type TokenizerConfig struct {
	Pattern      string `yaml:"pattern"`
	TermCounting string `yaml:"termCounting"`
}

// WatchConfig configures directory ingestion. Files are ingested once they
// have not changed for Settle.
type WatchConfig struct {
	Dir        string        `yaml:"dir"`
	Extensions []string      `yaml:"extensions"`
	Settle     time.Duration `yaml:"settle"`
}

// AuthConfig guards document writes. With no APIKeys every caller may
// write and RateLimit applies per remote address. RateLimit is requests
// per RateWindow; 0 disables limiting.
type AuthConfig struct {
	APIKeys    []APIKeyConfig `yaml:"apiKeys"`
	RateLimit  int            `yaml:"rateLimit"`
	RateWindow time.Duration  `yaml:"rateWindow"`
}

// APIKeyConfig names one writer key by its SHA-256 hex digest.
type APIKeyConfig struct {
	Name      string    `yaml:"name"`
	Hash      string    `yaml:"hash"`
	RateLimit int       `yaml:"rateLimit"`
	ExpiresAt time.Time `yaml:"expiresAt"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides. It returns a Config populated with defaults for any missing
// values.
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
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// Validate checks the fields the services cannot start without.
func (c *Config) Validate() error {
	var errs []error
	switch c.Store.Backend {
	case BackendMemory, BackendPostgres, BackendSQLite, BackendRedis:
	default:
		errs = append(errs, fmt.Errorf("store.backend %q is not one of memory, postgres, sqlite, redis", c.Store.Backend))
	}
	if strings.TrimSpace(c.Store.CountCollection) == "" {
		errs = append(errs, errors.New("store.countCollection must not be empty"))
	}
	if strings.TrimSpace(c.Store.WeightCollection) == "" {
		errs = append(errs, errors.New("store.weightCollection must not be empty"))
	}
	if c.Store.CountCollection != "" && c.Store.CountCollection == c.Store.WeightCollection {
		errs = append(errs, errors.New("store.countCollection and store.weightCollection must differ"))
	}
	switch c.Tokenizer.TermCounting {
	case TermCountingSubstring, TermCountingToken:
	default:
		errs = append(errs, fmt.Errorf("tokenizer.termCounting %q is not one of substring, token", c.Tokenizer.TermCounting))
	}
	if c.Auth.RateLimit > 0 && c.Auth.RateWindow <= 0 {
		errs = append(errs, errors.New("auth.rateWindow must be positive when auth.rateLimit is set"))
	}
	for i, k := range c.Auth.APIKeys {
		if strings.TrimSpace(k.Name) == "" || strings.TrimSpace(k.Hash) == "" {
			errs = append(errs, fmt.Errorf("auth.apiKeys[%d] needs a name and a hash", i))
		}
	}
	if c.Store.Backend == BackendSQLite && c.SQLite.Path == "" {
		errs = append(errs, errors.New("sqlite.path is required for the sqlite backend"))
	}
	return errors.Join(errs...)
}

// defaultConfig returns a Config with defaults for local development.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8090,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			MaxBodyBytes:    4 << 20,
			RequestTimeout:  10 * time.Second,
		},
		Store: StoreConfig{
			Backend:          BackendMemory,
			CountCollection:  "countVectorRepresentation",
			WeightCollection: "tfidfVectorRepresentation",
			Retry: RetryConfig{
				MaxAttempts:  3,
				InitialDelay: 100 * time.Millisecond,
				MaxDelay:     2 * time.Second,
			},
			Breaker: BreakerConfig{
				Enabled:          true,
				FailureThreshold: 5,
				ResetTimeout:     30 * time.Second,
			},
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "vocabulary",
			User:            "vocabulary",
			Password:        "localdev",
			SSLMode:         "disable",
			MaxOpenConns:    5,
			MaxIdleConns:    2,
			ConnMaxLifetime: 5 * time.Minute,
		},
		SQLite: SQLiteConfig{
			Path: "data/vocabulary.db",
		},
		Redis: RedisConfig{
			Addr:      "localhost:6379",
			PoolSize:  10,
			KeyPrefix: "vocab:",
		},
		Kafka: KafkaConfig{
			ConsumerGroup: "vocabulary-group",
			Topics: KafkaTopics{
				DocumentIngest:    "document-ingest",
				VocabularyUpdates: "vocabulary-updates",
			},
		},
		Tokenizer: TokenizerConfig{
			TermCounting: TermCountingSubstring,
		},
		Watch: WatchConfig{
			Extensions: []string{".txt", ".md"},
			Settle:     250 * time.Millisecond,
		},
		Auth: AuthConfig{
			RateWindow: time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9091,
		},
	}
}

// applyEnvOverrides reads LV_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LV_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("LV_STORE_BACKEND"); v != "" {
		cfg.Store.Backend = v
	}
	if v := os.Getenv("LV_STORE_COUNT_COLLECTION"); v != "" {
		cfg.Store.CountCollection = v
	}
	if v := os.Getenv("LV_STORE_WEIGHT_COLLECTION"); v != "" {
		cfg.Store.WeightCollection = v
	}
	if v := os.Getenv("LV_POSTGRES_HOST"); v != "" {
		cfg.Postgres.Host = v
	}
	if v := os.Getenv("LV_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.Port = port
		}
	}
	if v := os.Getenv("LV_POSTGRES_DATABASE"); v != "" {
		cfg.Postgres.Database = v
	}
	if v := os.Getenv("LV_POSTGRES_USER"); v != "" {
		cfg.Postgres.User = v
	}
	if v := os.Getenv("LV_POSTGRES_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}
	if v := os.Getenv("LV_POSTGRES_SSLMODE"); v != "" {
		cfg.Postgres.SSLMode = v
	}
	if v := os.Getenv("LV_SQLITE_PATH"); v != "" {
		cfg.SQLite.Path = v
	}
	if v := os.Getenv("LV_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("LV_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("LV_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("LV_TOKENIZER_TERM_COUNTING"); v != "" {
		cfg.Tokenizer.TermCounting = v
	}
	if v := os.Getenv("LV_WATCH_DIR"); v != "" {
		cfg.Watch.Dir = v
	}
	if v := os.Getenv("LV_AUTH_API_KEYS"); v != "" {
		cfg.Auth.APIKeys = parseAPIKeys(v)
	}
	if v := os.Getenv("LV_AUTH_RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Auth.RateLimit = n
		}
	}
	if v := os.Getenv("LV_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("LV_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}

// parseAPIKeys reads "name:hash,name:hash".
func parseAPIKeys(v string) []APIKeyConfig {
	var keys []APIKeyConfig
	for _, pair := range strings.Split(v, ",") {
		name, hash, ok := strings.Cut(strings.TrimSpace(pair), ":")
		if !ok {
			name, hash = "", name
		}
		keys = append(keys, APIKeyConfig{Name: name, Hash: hash})
	}
	return keys
}
