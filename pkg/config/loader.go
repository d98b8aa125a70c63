// pkg/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix    = "WATERPLAN_"
	configEnvVar = "CONFIG_PATH"
)

// Loader loads configuration from defaults, a config file, and environment
// variables, in that order of increasing priority.
type Loader struct {
	k           *koanf.Koanf
	configPaths []string
	envPrefix   string
}

// NewLoader creates a loader with the standard search paths.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{
		k: koanf.New("."),
		configPaths: []string{
			"config.yaml",
			"config/config.yaml",
			"/etc/waterplan/config.yaml",
		},
		envPrefix: envPrefix,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithConfigPaths overrides the config file search paths.
func WithConfigPaths(paths ...string) LoaderOption {
	return func(l *Loader) {
		l.configPaths = paths
	}
}

// WithEnvPrefix overrides the environment variable prefix.
func WithEnvPrefix(prefix string) LoaderOption {
	return func(l *Loader) {
		l.envPrefix = prefix
	}
}

// Load loads configuration with priority:
//  1. Defaults (lowest)
//  2. Config file (yaml)
//  3. Environment variables (highest)
func (l *Loader) Load() (*Config, error) {
	if err := l.loadDefaults(); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if err := l.loadConfigFile(); err != nil {
		// Config file is optional; the defaults and env still apply.
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}

	if err := l.loadEnv(); err != nil {
		return nil, fmt.Errorf("failed to load env: %w", err)
	}

	var cfg Config
	if err := l.k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (l *Loader) loadDefaults() error {
	defaults := map[string]any{
		"app.name":        "waterplan",
		"app.version":     "1.0.0",
		"app.environment": "development",
		"app.debug":       false,

		"log.level":       "info",
		"log.format":      "json",
		"log.output":      "stdout",
		"log.max_size":    100,
		"log.max_backups": 3,
		"log.max_age":     7,
		"log.compress":    true,

		"metrics.enabled":   true,
		"metrics.port":      9090,
		"metrics.path":      "/metrics",
		"metrics.namespace": "waterplan",
		"metrics.subsystem": "core",

		"database.host":                      "localhost",
		"database.port":                      5432,
		"database.user":                      "waterplan",
		"database.database":                  "waterplan",
		"database.ssl_mode":                  "disable",
		"database.max_conns":                 10,
		"database.min_conns":                 2,
		"database.max_conn_lifetime_minutes": 60,
		"database.max_conn_idle_minutes":     15,
		"database.auto_migrate":              true,

		"cache.backend":     "memory",
		"cache.address":     "localhost:6379",
		"cache.db":          0,
		"cache.ttl_seconds": 3600,

		"planning.budget_eur":                 50000,
		"planning.source":                      0,
		"planning.resilience":                  string(ResilienceNone),
		"planning.hydraulic_check":             false,
		"planning.speed_band.min":              0.6,
		"planning.speed_band.max":              1.0,
		"planning.speed_band.relaxation_min":   0.4,
		"planning.speed_band.relaxation_step":  0.05,
		"planning.rng_seed":                    0,
		"planning.monte_carlo_reps":            10000,
		"planning.availability_model":          string(AvailabilityCurrent),
		"planning.failure_rate":                0.4,

		"api.port":                  8080,
		"api.read_timeout_seconds":  15,
		"api.write_timeout_seconds": 30,

		"auth.jwt_secret":           "change-me-in-production",
		"auth.issuer":               "waterplan",
		"auth.token_expiry_minutes": 60,

		"tracing.enabled":     false,
		"tracing.endpoint":    "localhost:4317",
		"tracing.sample_rate": 1.0,
	}

	return l.k.Load(confmap.Provider(defaults, "."), nil)
}

func (l *Loader) loadConfigFile() error {
	if configPath := os.Getenv(configEnvVar); configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return l.k.Load(file.Provider(configPath), yaml.Parser())
		}
	}

	for _, path := range l.configPaths {
		absPath, err := filepath.Abs(path)
		if err != nil {
			continue
		}

		if _, err := os.Stat(absPath); err == nil {
			return l.k.Load(file.Provider(absPath), yaml.Parser())
		}
	}

	return fmt.Errorf("config file not found in paths: %v", l.configPaths)
}

func (l *Loader) loadEnv() error {
	// Env names flatten "." and "_" alike, so map each variable back to
	// the known key (from defaults or the config file) it spells.
	known := make(map[string]string)
	for _, key := range l.k.Keys() {
		known[strings.ToUpper(strings.ReplaceAll(key, ".", "_"))] = key
	}
	return l.k.Load(env.Provider(l.envPrefix, ".", func(s string) string {
		name := strings.TrimPrefix(s, l.envPrefix)
		if key, ok := known[name]; ok {
			return key
		}
		return strings.ReplaceAll(strings.ToLower(name), "_", ".")
	}), nil)
}

// MustLoad loads configuration or panics.
func MustLoad(opts ...LoaderOption) *Config {
	cfg, err := NewLoader(opts...).Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}

// Load is a convenience function using default search paths and prefix.
func Load() (*Config, error) {
	return NewLoader().Load()
}
