package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "rentmatch.yaml"

// DefaultEnvFile is the dotenv file loaded for local development.
const DefaultEnvFile = ".env"

// Dispatch modes.
const (
	DispatchSync  = "sync"
	DispatchQueue = "queue"
)

// Load returns a Config using the hierarchy: defaults < YAML < .env < ENV.
// Both the YAML and the .env file are optional.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile, DefaultEnvFile)
}

// LoadFrom returns a Config loaded from the given YAML and dotenv paths.
func LoadFrom(yamlPath, envPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	if err := loadDotEnv(envPath); err != nil {
		return nil, fmt.Errorf("config dotenv: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is validated by caller
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadDotEnv populates the process environment from a dotenv file.
// Variables already present in the environment win.
func loadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "RENTMATCH_PORT")
	setString(&cfg.Server.CORSOrigin, "RENTMATCH_CORS_ORIGIN")
	setDuration(&cfg.Server.RequestTimeout, "RENTMATCH_REQUEST_TIMEOUT")
	setInt64(&cfg.Server.MaxBodyBytes, "RENTMATCH_MAX_BODY_BYTES")
	setString(&cfg.Postgres.DSN, "DATABASE_URL")
	setInt32(&cfg.Postgres.MaxConns, "RENTMATCH_PG_MAX_CONNS")
	setInt32(&cfg.Postgres.MinConns, "RENTMATCH_PG_MIN_CONNS")
	setDuration(&cfg.Postgres.MaxConnLifetime, "RENTMATCH_PG_MAX_CONN_LIFETIME")
	setDuration(&cfg.Postgres.MaxConnIdleTime, "RENTMATCH_PG_MAX_CONN_IDLE_TIME")
	setDuration(&cfg.Postgres.HealthCheck, "RENTMATCH_PG_HEALTH_CHECK")
	setString(&cfg.NATS.URL, "NATS_URL")
	setString(&cfg.Redis.URL, "REDIS_URL")
	setInt(&cfg.Redis.PoolSize, "RENTMATCH_REDIS_POOL_SIZE")
	setString(&cfg.Logging.Level, "RENTMATCH_LOG_LEVEL")
	setString(&cfg.Logging.Service, "RENTMATCH_LOG_SERVICE")
	setBool(&cfg.Logging.Async, "RENTMATCH_LOG_ASYNC")
	setBool(&cfg.Auth.Enabled, "RENTMATCH_AUTH_ENABLED")
	setString(&cfg.Auth.JWTSecret, "RENTMATCH_JWT_SECRET")
	setString(&cfg.Auth.Issuer, "RENTMATCH_JWT_ISSUER")
	setInt(&cfg.Breaker.MaxFailures, "RENTMATCH_BREAKER_MAX_FAILURES")
	setDuration(&cfg.Breaker.Timeout, "RENTMATCH_BREAKER_TIMEOUT")
	setFloat64(&cfg.Rate.RequestsPerSecond, "RENTMATCH_RATE_RPS")
	setInt(&cfg.Rate.Burst, "RENTMATCH_RATE_BURST")

	// Idempotency
	setString(&cfg.Idempotency.Bucket, "RENTMATCH_IDEMPOTENCY_BUCKET")
	setDuration(&cfg.Idempotency.TTL, "RENTMATCH_IDEMPOTENCY_TTL")

	// Cache
	setInt64(&cfg.Cache.L1MaxSizeMB, "RENTMATCH_CACHE_L1_SIZE_MB")
	setString(&cfg.Cache.L2Bucket, "RENTMATCH_CACHE_L2_BUCKET")
	setDuration(&cfg.Cache.L2TTL, "RENTMATCH_CACHE_L2_TTL")

	// Chat
	setString(&cfg.Chat.URL, "RENTMATCH_CHAT_URL")
	setString(&cfg.Chat.APIKey, "RENTMATCH_CHAT_API_KEY")
	setDuration(&cfg.Chat.Timeout, "RENTMATCH_CHAT_TIMEOUT")

	// Marketplace
	setInt(&cfg.Marketplace.ContactLimit, "RENTMATCH_CONTACT_LIMIT")
	setDuration(&cfg.Marketplace.ContactWindow, "RENTMATCH_CONTACT_WINDOW")
	setInt(&cfg.Marketplace.MessageMaxLength, "RENTMATCH_MESSAGE_MAX_LENGTH")
	setString(&cfg.Marketplace.ThreadActionPath, "RENTMATCH_THREAD_ACTION_PATH")
	setInt(&cfg.Marketplace.NotificationLimit, "RENTMATCH_NOTIFICATION_LIMIT")

	// Dispatch
	setString(&cfg.Dispatch.Mode, "RENTMATCH_DISPATCH_MODE")
	setDuration(&cfg.Dispatch.Timeout, "RENTMATCH_DISPATCH_TIMEOUT")
	setString(&cfg.Dispatch.RedeliverySchedule, "RENTMATCH_REDELIVERY_SCHEDULE")
	setDuration(&cfg.Dispatch.RedeliveryGrace, "RENTMATCH_REDELIVERY_GRACE")
	setInt(&cfg.Dispatch.RedeliveryBatch, "RENTMATCH_REDELIVERY_BATCH")

	// Telemetry
	setString(&cfg.Telemetry.OTLPEndpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	setBool(&cfg.Telemetry.Insecure, "RENTMATCH_OTLP_INSECURE")
}

// validate checks that required fields are set.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if cfg.Postgres.DSN == "" {
		return errors.New("postgres.dsn is required")
	}
	if cfg.Postgres.MaxConns < 1 {
		return errors.New("postgres.max_conns must be >= 1")
	}
	if cfg.Auth.Enabled && cfg.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is required when auth is enabled")
	}
	if cfg.Breaker.MaxFailures < 1 {
		return errors.New("breaker.max_failures must be >= 1")
	}
	if cfg.Rate.Burst < 1 {
		return errors.New("rate.burst must be >= 1")
	}
	switch cfg.Dispatch.Mode {
	case DispatchSync:
	case DispatchQueue:
		if cfg.NATS.URL == "" {
			return errors.New("nats.url is required for queue dispatch")
		}
	default:
		return fmt.Errorf("dispatch.mode must be %q or %q, got %q", DispatchSync, DispatchQueue, cfg.Dispatch.Mode)
	}
	if cfg.Dispatch.Timeout <= 0 {
		return errors.New("dispatch.timeout must be > 0")
	}
	if cfg.Marketplace.MessageMaxLength < 1 {
		return errors.New("marketplace.message_max_length must be >= 1")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt32(dst *int32, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			*dst = int32(n)
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
