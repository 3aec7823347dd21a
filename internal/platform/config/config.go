// Package config loads service configuration from defaults, an optional YAML
// file, .env files and VERITY_ environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is stripped from environment variables. A double underscore
// separates nesting levels: VERITY_SERVER__ADDR sets server.addr.
const EnvPrefix = "VERITY_"

// Storage drivers.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

type Config struct {
	Server        ServerConfig        `koanf:"server"`
	Log           LogConfig           `koanf:"log"`
	Storage       StorageConfig       `koanf:"storage"`
	Postgres      PostgresConfig      `koanf:"postgres"`
	Redis         RedisConfig         `koanf:"redis"`
	Kafka         KafkaConfig         `koanf:"kafka"`
	Collaborators CollaboratorsConfig `koanf:"collaborators"`
	Detection     DetectionConfig     `koanf:"detection"`
	Audit         AuditConfig         `koanf:"audit"`
	Admin         AdminConfig         `koanf:"admin"`
	RateLimit     RateLimitConfig     `koanf:"rate_limit"`
	Telemetry     TelemetryConfig     `koanf:"telemetry"`
}

// ServerConfig captures HTTP server level configuration.
type ServerConfig struct {
	Addr              string        `koanf:"addr"`
	ReadHeaderTimeout time.Duration `koanf:"read_header_timeout"`
	RequestTimeout    time.Duration `koanf:"request_timeout"`
	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // json or text
	// File enables rotated file output in addition to stdout.
	File       string `koanf:"file"`
	MaxSizeMB  int    `koanf:"max_size_mb"`
	MaxBackups int    `koanf:"max_backups"`
	MaxAgeDays int    `koanf:"max_age_days"`
}

type StorageConfig struct {
	Driver string `koanf:"driver"` // memory, postgres, redis
}

type PostgresConfig struct {
	DSN             string        `koanf:"dsn"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
}

type RedisConfig struct {
	URL          string        `koanf:"url"`
	PoolSize     int           `koanf:"pool_size"`
	MinIdleConns int           `koanf:"min_idle_conns"`
	DialTimeout  time.Duration `koanf:"dial_timeout"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
	KeyPrefix    string        `koanf:"key_prefix"`
	// TTL expires stored applications; zero keeps them forever.
	TTL time.Duration `koanf:"ttl"`
}

type KafkaConfig struct {
	Brokers           []string `koanf:"brokers"`
	Topic             string   `koanf:"topic"`
	ClientID          string   `koanf:"client_id"`
	Partitions        int32    `koanf:"partitions"`
	ReplicationFactor int16    `koanf:"replication_factor"`
}

// CollaboratorsConfig points at the remote age, document and liveness services.
// An empty URL disables that collaborator and its fallback value is used.
type CollaboratorsConfig struct {
	AgeURL           string        `koanf:"age_url"`
	DocumentURL      string        `koanf:"document_url"`
	LivenessURL      string        `koanf:"liveness_url"`
	AgeTimeout       time.Duration `koanf:"age_timeout"`
	DocumentTimeout  time.Duration `koanf:"document_timeout"`
	LivenessTimeout  time.Duration `koanf:"liveness_timeout"`
	HealthTimeout    time.Duration `koanf:"health_timeout"`
	FailureThreshold int           `koanf:"failure_threshold"`
	SuccessThreshold int           `koanf:"success_threshold"`
	Cooldown         time.Duration `koanf:"cooldown"`
}

type DetectionConfig struct {
	// ReferenceFile is a JSON/JSONC list of known legitimate users.
	ReferenceFile string `koanf:"reference_file"`
}

type AuditConfig struct {
	// HashKey keys the blake2b hash applied to PII in audit events.
	HashKey     string `koanf:"hash_key"`
	AsyncBuffer int    `koanf:"async_buffer"`
}

// AdminConfig guards application listing, deletion and dashboards with
// HS256 bearer tokens. An empty secret leaves those routes open.
type AdminConfig struct {
	JWTSecret string `koanf:"jwt_secret"`
	Issuer    string `koanf:"issuer"`
}

// RateLimitConfig bounds requests per client address. Buckets live in Redis
// when redis.url is set and in process memory otherwise.
type RateLimitConfig struct {
	Enabled       bool          `koanf:"enabled"`
	Window        time.Duration `koanf:"window"`
	WriteLimit    int           `koanf:"write_limit"`
	ReadLimit     int           `koanf:"read_limit"`
	AnalysisLimit int           `koanf:"analysis_limit"`
}

type TelemetryConfig struct {
	Tracing     bool   `koanf:"tracing"`
	ServiceName string `koanf:"service_name"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:              ":3001",
			ReadHeaderTimeout: 5 * time.Second,
			RequestTimeout:    60 * time.Second,
			ShutdownTimeout:   10 * time.Second,
		},
		Log: LogConfig{
			Level:      "info",
			Format:     "json",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 7,
		},
		Storage: StorageConfig{Driver: DriverMemory},
		Postgres: PostgresConfig{
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Redis: RedisConfig{
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
			KeyPrefix:    "verity:",
		},
		Kafka: KafkaConfig{
			Topic:             "verity.decisions",
			ClientID:          "verity",
			Partitions:        3,
			ReplicationFactor: 1,
		},
		Collaborators: CollaboratorsConfig{
			AgeTimeout:       10 * time.Second,
			DocumentTimeout:  15 * time.Second,
			LivenessTimeout:  15 * time.Second,
			HealthTimeout:    2 * time.Second,
			FailureThreshold: 3,
			SuccessThreshold: 1,
			Cooldown:         30 * time.Second,
		},
		Audit: AuditConfig{
			HashKey:     "dev-audit-hash-key-change-me",
			AsyncBuffer: 256,
		},
		Admin: AdminConfig{Issuer: "verity"},
		RateLimit: RateLimitConfig{
			Enabled:       true,
			Window:        time.Minute,
			WriteLimit:    30,
			ReadLimit:     120,
			AnalysisLimit: 60,
		},
		Telemetry: TelemetryConfig{
			ServiceName: "verity",
		},
	}
}

// Load reads .env files, the YAML file at path (missing files are ignored)
// and VERITY_ environment variables on top of Default.
func Load(path string) (*Config, error) {
	// .env is optional; real environment variables win over it
	_ = godotenv.Load()

	k := koanf.New(".")

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("load config file %s: %w", path, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("stat config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field requirements.
func (c Config) Validate() error {
	switch c.Storage.Driver {
	case DriverMemory:
	case DriverPostgres:
		if c.Postgres.DSN == "" {
			return errors.New("postgres.dsn is required for the postgres storage driver")
		}
	case DriverRedis:
		if c.Redis.URL == "" {
			return errors.New("redis.url is required for the redis storage driver")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.RateLimit.Enabled && c.RateLimit.Window <= 0 {
		return errors.New("rate_limit.window must be positive when rate limiting is enabled")
	}
	if c.Server.Addr == "" {
		return errors.New("server.addr is required")
	}
	return nil
}
