// Package config loads streaming-core configuration from an optional YAML
// file and environment variables, environment always winning over file,
// file always winning over built-in defaults.
package config

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// AppConfig holds every tunable knob the streaming core exposes.
type AppConfig struct {
	HTTPAddr string `yaml:"http_addr"`

	HeartbeatTimeout time.Duration `yaml:"heartbeat_timeout"`
	JanitorInterval  time.Duration `yaml:"janitor_interval"`

	ConcurrentFree    int `yaml:"concurrent_free"`
	ConcurrentPremium int `yaml:"concurrent_premium"`
	ConcurrentFamily  int `yaml:"concurrent_family"`

	CircuitFailureThreshold int           `yaml:"circuit_failure_threshold"`
	CircuitSuccessThreshold int           `yaml:"circuit_success_threshold"`
	CircuitResetTimeout     time.Duration `yaml:"circuit_reset_timeout"`
	CircuitHalfOpenProbes   int           `yaml:"circuit_half_open_probes"`

	RetryMaxAttempts      int           `yaml:"retry_max_attempts"`
	RetryInitialDelay     time.Duration `yaml:"retry_initial_delay"`
	RetryMaxDelay         time.Duration `yaml:"retry_max_delay"`
	RetryBackoffMultiplier float64      `yaml:"retry_backoff_multiplier"`

	StreamURLTTL time.Duration `yaml:"stream_url_ttl"`
	SigningKey   string        `yaml:"signing_key"`

	RedisAddr string `yaml:"redis_addr"`

	StoragePrimaryName  string        `yaml:"storage_primary_name"`
	StoragePrimaryURL   string        `yaml:"storage_primary_url"`
	StorageFallbackName string        `yaml:"storage_fallback_name"`
	StorageFallbackURL  string        `yaml:"storage_fallback_url"`
	StorageTimeout      time.Duration `yaml:"storage_timeout"`

	CDNDomains  []string      `yaml:"cdn_domains"`
	CDNTimeout  time.Duration `yaml:"cdn_timeout"`

	SessionStoreBackend string `yaml:"session_store_backend"` // "memory", "sqlite", "badger"
	SQLitePath          string `yaml:"sqlite_path"`
	BadgerPath          string `yaml:"badger_path"`
	CatalogDBPath       string `yaml:"catalog_db_path"`

	LogLevel string `yaml:"log_level"`

	RateLimitEnabled   bool     `yaml:"rate_limit_enabled"`
	RateLimitRPS       int      `yaml:"rate_limit_rps"`
	RateLimitWhitelist []string `yaml:"rate_limit_whitelist"`

	TracingServiceName string `yaml:"tracing_service_name"`
}

// Default returns the built-in defaults, overridden by neither file nor env.
func Default() AppConfig {
	return AppConfig{
		HTTPAddr: ":8080",

		HeartbeatTimeout: 30 * time.Second,
		JanitorInterval:  30 * time.Second,

		ConcurrentFree:    1,
		ConcurrentPremium: 5,
		ConcurrentFamily:  6,

		CircuitFailureThreshold: 5,
		CircuitSuccessThreshold: 2,
		CircuitResetTimeout:     60 * time.Second,
		CircuitHalfOpenProbes:   3,

		RetryMaxAttempts:       3,
		RetryInitialDelay:      100 * time.Millisecond,
		RetryMaxDelay:          5 * time.Second,
		RetryBackoffMultiplier: 2.0,

		StreamURLTTL: time.Hour,
		SigningKey:   "",

		RedisAddr: "",

		StoragePrimaryName: "s3-primary",
		StoragePrimaryURL:  "http://localhost:9000",
		StorageTimeout:     3 * time.Second,

		CDNDomains: nil,
		CDNTimeout: 3 * time.Second,

		SessionStoreBackend: "memory",
		SQLitePath:          "musify-sessions.db",
		BadgerPath:          "musify-badger",
		CatalogDBPath:       "musify-catalog.db",

		LogLevel: "info",

		RateLimitEnabled:   true,
		RateLimitRPS:       50,
		RateLimitWhitelist: nil,

		TracingServiceName: "musify-streaming-core",
	}
}

// Loader reads AppConfig from an optional YAML file, then applies
// environment-variable overrides on top.
type Loader struct {
	ConfigPath string
}

// NewLoader constructs a Loader for the given optional YAML file path.
func NewLoader(configPath string) *Loader {
	return &Loader{ConfigPath: configPath}
}

// Load resolves configuration with precedence ENV > YAML file > defaults.
func (l *Loader) Load() (AppConfig, error) {
	cfg := Default()

	if l.ConfigPath != "" {
		data, err := os.ReadFile(l.ConfigPath)
		if err != nil {
			if !os.IsNotExist(err) {
				return AppConfig{}, fmt.Errorf("read config file: %w", err)
			}
		} else {
			dec := yaml.NewDecoder(bytes.NewReader(data))
			dec.KnownFields(true)
			if err := dec.Decode(&cfg); err != nil {
				return AppConfig{}, fmt.Errorf("parse config file %s: %w", l.ConfigPath, err)
			}
		}
	}

	applyEnvOverrides(&cfg)

	if err := Validate(cfg); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

// Validate rejects configurations that would make the streaming core behave
// inconsistently with spec invariants (e.g. non-positive concurrency caps).
func Validate(cfg AppConfig) error {
	switch {
	case cfg.ConcurrentFree < 1:
		return fmt.Errorf("concurrent_free must be >= 1")
	case cfg.ConcurrentPremium < 1:
		return fmt.Errorf("concurrent_premium must be >= 1")
	case cfg.ConcurrentFamily < 1:
		return fmt.Errorf("concurrent_family must be >= 1")
	case cfg.CircuitFailureThreshold < 1:
		return fmt.Errorf("circuit_failure_threshold must be >= 1")
	case cfg.CircuitSuccessThreshold < 1:
		return fmt.Errorf("circuit_success_threshold must be >= 1")
	case cfg.CircuitHalfOpenProbes < 1:
		return fmt.Errorf("circuit_half_open_probes must be >= 1")
	case cfg.RetryMaxAttempts < 1:
		return fmt.Errorf("retry_max_attempts must be >= 1")
	case cfg.RetryBackoffMultiplier <= 1.0:
		return fmt.Errorf("retry_backoff_multiplier must be > 1.0")
	case cfg.HeartbeatTimeout <= 0:
		return fmt.Errorf("heartbeat_timeout must be > 0")
	case cfg.JanitorInterval <= 0:
		return fmt.Errorf("janitor_interval must be > 0")
	case cfg.SessionStoreBackend != "memory" && cfg.SessionStoreBackend != "sqlite" && cfg.SessionStoreBackend != "badger":
		return fmt.Errorf("session_store_backend must be one of memory|sqlite|badger, got %q", cfg.SessionStoreBackend)
	}
	return nil
}

func applyEnvOverrides(cfg *AppConfig) {
	strVal("MUSIFY_HTTP_ADDR", &cfg.HTTPAddr)
	durVal("MUSIFY_HEARTBEAT_TIMEOUT", &cfg.HeartbeatTimeout)
	durVal("MUSIFY_JANITOR_INTERVAL", &cfg.JanitorInterval)
	intVal("MUSIFY_CONCURRENT_FREE", &cfg.ConcurrentFree)
	intVal("MUSIFY_CONCURRENT_PREMIUM", &cfg.ConcurrentPremium)
	intVal("MUSIFY_CONCURRENT_FAMILY", &cfg.ConcurrentFamily)
	intVal("MUSIFY_CIRCUIT_FAILURE_THRESHOLD", &cfg.CircuitFailureThreshold)
	intVal("MUSIFY_CIRCUIT_SUCCESS_THRESHOLD", &cfg.CircuitSuccessThreshold)
	durVal("MUSIFY_CIRCUIT_RESET_TIMEOUT", &cfg.CircuitResetTimeout)
	intVal("MUSIFY_CIRCUIT_HALF_OPEN_PROBES", &cfg.CircuitHalfOpenProbes)
	intVal("MUSIFY_RETRY_MAX_ATTEMPTS", &cfg.RetryMaxAttempts)
	durVal("MUSIFY_RETRY_INITIAL_DELAY", &cfg.RetryInitialDelay)
	durVal("MUSIFY_RETRY_MAX_DELAY", &cfg.RetryMaxDelay)
	floatVal("MUSIFY_RETRY_BACKOFF_MULTIPLIER", &cfg.RetryBackoffMultiplier)
	durVal("MUSIFY_STREAM_URL_TTL", &cfg.StreamURLTTL)
	strVal("MUSIFY_SIGNING_KEY", &cfg.SigningKey)
	strVal("MUSIFY_REDIS_ADDR", &cfg.RedisAddr)
	strVal("MUSIFY_STORAGE_PRIMARY_NAME", &cfg.StoragePrimaryName)
	strVal("MUSIFY_STORAGE_PRIMARY_URL", &cfg.StoragePrimaryURL)
	strVal("MUSIFY_STORAGE_FALLBACK_NAME", &cfg.StorageFallbackName)
	strVal("MUSIFY_STORAGE_FALLBACK_URL", &cfg.StorageFallbackURL)
	durVal("MUSIFY_STORAGE_TIMEOUT", &cfg.StorageTimeout)
	strListVal("MUSIFY_CDN_DOMAINS", &cfg.CDNDomains)
	durVal("MUSIFY_CDN_TIMEOUT", &cfg.CDNTimeout)
	strVal("MUSIFY_SESSION_STORE_BACKEND", &cfg.SessionStoreBackend)
	strVal("MUSIFY_SQLITE_PATH", &cfg.SQLitePath)
	strVal("MUSIFY_BADGER_PATH", &cfg.BadgerPath)
	strVal("MUSIFY_CATALOG_DB_PATH", &cfg.CatalogDBPath)
	strVal("MUSIFY_LOG_LEVEL", &cfg.LogLevel)
	boolVal("MUSIFY_RATE_LIMIT_ENABLED", &cfg.RateLimitEnabled)
	intVal("MUSIFY_RATE_LIMIT_RPS", &cfg.RateLimitRPS)
	strVal("MUSIFY_TRACING_SERVICE_NAME", &cfg.TracingServiceName)
}

func boolVal(env string, dst *bool) {
	if v, ok := os.LookupEnv(env); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func strListVal(env string, dst *[]string) {
	if v, ok := os.LookupEnv(env); ok && v != "" {
		*dst = strings.Split(v, ",")
	}
}

func strVal(env string, dst *string) {
	if v, ok := os.LookupEnv(env); ok && v != "" {
		*dst = v
	}
}

func intVal(env string, dst *int) {
	if v, ok := os.LookupEnv(env); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func floatVal(env string, dst *float64) {
	if v, ok := os.LookupEnv(env); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func durVal(env string, dst *time.Duration) {
	if v, ok := os.LookupEnv(env); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
