package config

import (
	"fmt"
	"time"

	"github.com/storeops/typesearch/pkg/config"
	"github.com/storeops/typesearch/pkg/database"
	"github.com/storeops/typesearch/pkg/tracing"
)

// Config is the full service configuration, loaded once from the
// environment at startup and treated as immutable afterwards.
type Config struct {
	ServiceName string `env:"SERVICE_NAME" envDefault:"typesearch"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	HTTP     HTTPConfig
	Engine   EngineConfig
	Search   SearchConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Tracing  TracingConfig
}

// HTTPConfig configures the HTTP server.
type HTTPConfig struct {
	Port            int           `env:"HTTP_PORT" envDefault:"8080"`
	ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"10s"`
	WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"35s"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"15s"`
	AdminAPIKey     string        `env:"ADMIN_API_KEY"`
	CORSOrigins     []string      `env:"CORS_ORIGINS" envSeparator:"," envDefault:"*"`
}

// EngineConfig configures the search engine connection.
type EngineConfig struct {
	Host             string        `env:"TYPESENSE_HOST" envDefault:"localhost"`
	Port             int           `env:"TYPESENSE_PORT" envDefault:"8108"`
	Protocol         string        `env:"TYPESENSE_PROTOCOL" envDefault:"http"`
	APIKey           string        `env:"TYPESENSE_API_KEY,required"`
	CollectionPrefix string        `env:"TYPESENSE_COLLECTION_PREFIX"`
	Timeout          time.Duration `env:"TYPESENSE_TIMEOUT" envDefault:"30s"`
}

// SearchConfig tunes reconciliation and indexing.
type SearchConfig struct {
	MinPageSize       int     `env:"SEARCH_MIN_PAGE_SIZE" envDefault:"12"`
	FetchAllCap       int     `env:"SEARCH_FETCH_ALL_CAP" envDefault:"60"`
	IndexBatchSize    int     `env:"SEARCH_INDEX_BATCH_SIZE" envDefault:"50"`
	SaleBoost         float64 `env:"SEARCH_SALE_BOOST" envDefault:"1.5"`
	StorefrontBaseURL string  `env:"STOREFRONT_BASE_URL" envDefault:"http://localhost:3000"`
}

// PostgresConfig configures the catalog database.
type PostgresConfig struct {
	Host     string `env:"POSTGRES_HOST" envDefault:"localhost"`
	Port     int    `env:"POSTGRES_PORT" envDefault:"5432"`
	User     string `env:"POSTGRES_USER" envDefault:"typesearch"`
	Password string `env:"POSTGRES_PASSWORD" envDefault:"typesearch_secret"`
	DBName   string `env:"POSTGRES_DB" envDefault:"catalog"`
	SSLMode  string `env:"POSTGRES_SSLMODE" envDefault:"disable"`
}

// RedisConfig configures the recents store.
type RedisConfig struct {
	Host     string `env:"REDIS_HOST" envDefault:"localhost"`
	Port     int    `env:"REDIS_PORT" envDefault:"6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

// KafkaConfig configures the catalog event consumers.
type KafkaConfig struct {
	Enabled bool     `env:"KAFKA_ENABLED" envDefault:"true"`
	Brokers []string `env:"KAFKA_BROKERS" envSeparator:"," envDefault:"localhost:9092"`
	GroupID string   `env:"KAFKA_GROUP_ID" envDefault:"typesearch-indexer"`
}

// TracingConfig configures OpenTelemetry export.
type TracingConfig struct {
	Enabled      bool    `env:"TRACING_ENABLED" envDefault:"false"`
	OTLPEndpoint string  `env:"OTLP_ENDPOINT" envDefault:"localhost:4318"`
	SampleRate   float64 `env:"TRACING_SAMPLE_RATE" envDefault:"1.0"`
}

// Load parses the configuration from the environment and validates it.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := config.Load(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the service cannot run with.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("invalid HTTP port %d", c.HTTP.Port)
	}
	if c.Engine.Protocol != "http" && c.Engine.Protocol != "https" {
		return fmt.Errorf("invalid engine protocol %q", c.Engine.Protocol)
	}
	if c.Search.MinPageSize < 1 {
		return fmt.Errorf("min page size must be positive, got %d", c.Search.MinPageSize)
	}
	if c.Search.FetchAllCap < c.Search.MinPageSize {
		return fmt.Errorf("fetch-all cap %d below min page size %d", c.Search.FetchAllCap, c.Search.MinPageSize)
	}
	if c.Search.SaleBoost < 1.0 {
		return fmt.Errorf("sale boost must be at least 1.0, got %g", c.Search.SaleBoost)
	}
	return nil
}

// PostgresPool returns the pool configuration for pkg/database.
func (c *Config) PostgresPool() database.PostgresConfig {
	pool := database.DefaultPostgresConfig()
	pool.Host = c.Postgres.Host
	pool.Port = c.Postgres.Port
	pool.User = c.Postgres.User
	pool.Password = c.Postgres.Password
	pool.DBName = c.Postgres.DBName
	pool.SSLMode = c.Postgres.SSLMode
	return pool
}

// RedisOptions returns the Redis configuration for pkg/database.
func (c *Config) RedisOptions() database.RedisConfig {
	return database.RedisConfig{
		Host:     c.Redis.Host,
		Port:     c.Redis.Port,
		Password: c.Redis.Password,
		DB:       c.Redis.DB,
	}
}

// TracerConfig returns the tracing configuration for pkg/tracing.
func (c *Config) TracerConfig() tracing.Config {
	cfg := tracing.DefaultConfig(c.ServiceName)
	cfg.Environment = c.Environment
	cfg.OTLPEndpoint = c.Tracing.OTLPEndpoint
	cfg.SampleRate = c.Tracing.SampleRate
	cfg.Enabled = c.Tracing.Enabled
	return cfg
}
