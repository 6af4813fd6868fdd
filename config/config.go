package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Storage drivers.
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Registry RegistryConfig `mapstructure:"registry"`
	Executor ExecutorConfig `mapstructure:"executor"`
	Events   EventsConfig   `mapstructure:"events"`
	Log      LogConfig      `mapstructure:"log"`

	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // debug, release, test
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes"`
	AuditQueue      int           `mapstructure:"audit_queue"` // buffered audit entries
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type StorageConfig struct {
	Driver string `mapstructure:"driver"` // postgres, memory
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns the Redis address string.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type JWTConfig struct {
	Secret string        `mapstructure:"secret"`
	Expiry time.Duration `mapstructure:"expiry"`
	Issuer string        `mapstructure:"issuer"`
}

type AuthConfig struct {
	ChallengeTTL time.Duration `mapstructure:"challenge_ttl"`
}

// RegistryConfig parameterises wallet handle derivation and discovery paging.
type RegistryConfig struct {
	FactoryAddress string `mapstructure:"factory_address"` // 0x-prefixed, 20 bytes
	InitCodeHash   string `mapstructure:"init_code_hash"`  // 0x-prefixed, 32 bytes
	MaxPageSize    int    `mapstructure:"max_page_size"`
}

type ExecutorConfig struct {
	RelayURL    string        `mapstructure:"relay_url"` // empty = log-only executor
	RelaySecret string        `mapstructure:"relay_secret"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type EventsConfig struct {
	RedisChannel  string `mapstructure:"redis_channel"` // empty = no fan-out
	WebhookURL    string `mapstructure:"webhook_url"`   // empty = no webhook
	WebhookSecret string `mapstructure:"webhook_secret"`
}

// RateLimitConfig overrides per-minute request limits by route group
// (auth_challenge, auth_login, wallets_create, wallet_writes, reads).
type RateLimitConfig struct {
	Enabled bool             `mapstructure:"enabled"`
	Limits  map[string]int64 `mapstructure:"limits"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Pretty bool   `mapstructure:"pretty"` // human-readable output (dev only)
}

// Load reads configuration from file and environment variables.
// Environment variables override file values. Prefix: MSR_ (MultiSig Registry).
// Nested keys use underscore: MSR_DATABASE_HOST, MSR_JWT_SECRET, etc.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.max_body_bytes", 1<<20)
	v.SetDefault("server.audit_queue", 256)
	v.SetDefault("storage.driver", StoragePostgres)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "multisig_registry")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expiry", "12h")
	v.SetDefault("jwt.issuer", "multisig-registry")
	v.SetDefault("auth.challenge_ttl", "5m")
	v.SetDefault("registry.factory_address", "0x0000000000000000000000000000000000000000")
	v.SetDefault("registry.init_code_hash", "0x0000000000000000000000000000000000000000000000000000000000000000")
	v.SetDefault("registry.max_page_size", 100)
	v.SetDefault("executor.relay_url", "")
	v.SetDefault("executor.relay_secret", "")
	v.SetDefault("executor.timeout", "15s")
	v.SetDefault("events.redis_channel", "multisig:events")
	v.SetDefault("events.webhook_url", "")
	v.SetDefault("events.webhook_secret", "")
	v.SetDefault("ratelimit.enabled", true)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// MSR_DATABASE_HOST -> database.host
	v.SetEnvPrefix("MSR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects configurations the service cannot start with.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case StoragePostgres, StorageMemory:
	default:
		return fmt.Errorf("unsupported storage driver %q", c.Storage.Driver)
	}
	if c.Registry.MaxPageSize <= 0 {
		return fmt.Errorf("registry.max_page_size must be positive, got %d", c.Registry.MaxPageSize)
	}
	return nil
}
