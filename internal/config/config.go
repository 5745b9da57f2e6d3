package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Catalog backends.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Config holds library configuration loaded from the environment.
type Config struct {
	AppEnv           string
	LogLevel         string
	LogFormat        string
	MetricsNamespace string
	CatalogBackend   string
	CatalogKeyPrefix string
	RedisURL         string
	DatabaseURL      string
	ReceiptColumns   int
	Tracing          TracingConfig
}

// TracingConfig selects the span exporter for catalog loading and checkout.
type TracingConfig struct {
	ServiceName   string
	Exporter      string
	Endpoint      string
	SamplingRatio float64
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:           valueOrDefault(k.String("APP_ENV"), "development"),
		LogLevel:         valueOrDefault(k.String("LOG_LEVEL"), "info"),
		LogFormat:        valueOrDefault(k.String("LOG_FORMAT"), "json"),
		MetricsNamespace: valueOrDefault(k.String("METRICS_NAMESPACE"), "supermarket"),
		CatalogBackend:   strings.ToLower(valueOrDefault(k.String("CATALOG_BACKEND"), BackendMemory)),
		CatalogKeyPrefix: valueOrDefault(k.String("CATALOG_KEY_PREFIX"), "catalog:"),
		RedisURL:         strings.TrimSpace(k.String("REDIS_URL")),
		DatabaseURL:      strings.TrimSpace(k.String("DATABASE_URL")),
	}

	columns, err := parsePositiveInt(k.String("RECEIPT_COLUMNS"), 40)
	if err != nil {
		return nil, fmt.Errorf("RECEIPT_COLUMNS: %w", err)
	}
	cfg.ReceiptColumns = columns

	ratio, err := parseRatio(k.String("OTEL_TRACES_SAMPLER_RATIO"))
	if err != nil {
		return nil, fmt.Errorf("OTEL_TRACES_SAMPLER_RATIO: %w", err)
	}
	cfg.Tracing = TracingConfig{
		ServiceName:   valueOrDefault(k.String("OTEL_SERVICE_NAME"), "supermarket-receipt"),
		Exporter:      strings.ToLower(valueOrDefault(k.String("TRACING_EXPORTER"), "none")),
		Endpoint:      strings.TrimSpace(k.String("OTEL_EXPORTER_OTLP_ENDPOINT")),
		SamplingRatio: ratio,
	}
	switch cfg.Tracing.Exporter {
	case "none", "otlp":
	default:
		return nil, fmt.Errorf("unsupported TRACING_EXPORTER %q", cfg.Tracing.Exporter)
	}

	switch cfg.CatalogBackend {
	case BackendMemory:
	case BackendRedis:
		if cfg.RedisURL == "" {
			return nil, errors.New("REDIS_URL is required for the redis catalog backend")
		}
	case BackendPostgres:
		if cfg.DatabaseURL == "" {
			return nil, errors.New("DATABASE_URL is required for the postgres catalog backend")
		}
	default:
		return nil, fmt.Errorf("unsupported CATALOG_BACKEND %q", cfg.CatalogBackend)
	}

	return cfg, nil
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func parsePositiveInt(value string, fallback int) (int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	if n < 1 {
		return 0, fmt.Errorf("must be positive, got %d", n)
	}
	return n, nil
}

func parseRatio(value string) (float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 1, nil
	}
	ratio, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, err
	}
	if ratio < 0 || ratio > 1 {
		return 0, fmt.Errorf("must be within [0,1], got %v", ratio)
	}
	return ratio, nil
}

// MustLoad behaves like Load but panics on error.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
