package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "marketplace.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// YAML file is optional; missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
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

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "MARKETPLACE_PORT")
	setString(&cfg.Server.CORSOrigin, "MARKETPLACE_CORS_ORIGIN")
	setString(&cfg.Storage.Backend, "MARKETPLACE_STORAGE_BACKEND")
	setString(&cfg.Postgres.DSN, "DATABASE_URL")
	setInt32(&cfg.Postgres.MaxConns, "MARKETPLACE_PG_MAX_CONNS")
	setInt32(&cfg.Postgres.MinConns, "MARKETPLACE_PG_MIN_CONNS")
	setDuration(&cfg.Postgres.MaxConnLifetime, "MARKETPLACE_PG_MAX_CONN_LIFETIME")
	setDuration(&cfg.Postgres.MaxConnIdleTime, "MARKETPLACE_PG_MAX_CONN_IDLE_TIME")
	setDuration(&cfg.Postgres.HealthCheck, "MARKETPLACE_PG_HEALTH_CHECK")
	setString(&cfg.NATS.URL, "NATS_URL")
	setString(&cfg.Registry.URL, "MARKETPLACE_REGISTRY_URL")
	setDuration(&cfg.Registry.Timeout, "MARKETPLACE_REGISTRY_TIMEOUT")
	setString(&cfg.Reader.URL, "MARKETPLACE_READER_URL")
	setDuration(&cfg.Reader.Timeout, "MARKETPLACE_READER_TIMEOUT")
	setInt64(&cfg.Cache.MaxSizeMB, "MARKETPLACE_CACHE_SIZE_MB")
	setDuration(&cfg.Cache.PreviewTTL, "MARKETPLACE_CACHE_PREVIEW_TTL")
	setString(&cfg.Policy.RulesFile, "MARKETPLACE_POLICY_RULES")
	setInt(&cfg.Auth.BcryptCost, "MARKETPLACE_BCRYPT_COST")
	setInt(&cfg.Breaker.MaxFailures, "MARKETPLACE_BREAKER_MAX_FAILURES")
	setDuration(&cfg.Breaker.Timeout, "MARKETPLACE_BREAKER_TIMEOUT")
	setString(&cfg.Telemetry.OTLPEndpoint, "MARKETPLACE_OTLP_ENDPOINT")
	setString(&cfg.Logging.Level, "MARKETPLACE_LOG_LEVEL")
	setString(&cfg.Logging.Service, "MARKETPLACE_LOG_SERVICE")
}

// validate checks that required fields are set.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if cfg.Storage.Backend != "postgres" && cfg.Storage.Backend != "memory" {
		return fmt.Errorf("storage.backend must be postgres or memory, got %q", cfg.Storage.Backend)
	}
	if cfg.Storage.Backend == "postgres" && cfg.Postgres.DSN == "" {
		return errors.New("postgres.dsn is required")
	}
	if cfg.Postgres.MaxConns < 1 {
		return errors.New("postgres.max_conns must be >= 1")
	}
	if cfg.Registry.Timeout <= 0 {
		return errors.New("registry.timeout must be positive")
	}
	if cfg.Reader.Timeout <= 0 {
		return errors.New("reader.timeout must be positive")
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

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
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
