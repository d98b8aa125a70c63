// pkg/config/config.go
package config

import (
	"fmt"
	"strings"
)

// Config is the root configuration for a waterplan run.
type Config struct {
	App      AppConfig      `koanf:"app"`
	Log      LogConfig      `koanf:"log"`
	Metrics  MetricsConfig  `koanf:"metrics"`
	Database DatabaseConfig `koanf:"database"`
	Cache    CacheConfig    `koanf:"cache"`
	Planning PlanningConfig `koanf:"planning"`
	API      APIConfig      `koanf:"api"`
	Auth     AuthConfig     `koanf:"auth"`
	Tracing  TracingConfig  `koanf:"tracing"`
}

// TracingConfig configures OpenTelemetry span export for the
// orchestrator's stages. Disabling tracing never changes planning
// output; it only stops spans from being built and shipped.
type TracingConfig struct {
	Enabled    bool    `koanf:"enabled"`
	Endpoint   string  `koanf:"endpoint"`
	SampleRate float64 `koanf:"sample_rate"`
}

// APIConfig configures the Connect RPC planning service's HTTP listener.
type APIConfig struct {
	Port         int `koanf:"port"`
	ReadTimeout  int `koanf:"read_timeout_seconds"`
	WriteTimeout int `koanf:"write_timeout_seconds"`
}

// AuthConfig configures bearer-token validation for the planning API:
// a single "can submit plans" claim, no per-resource ACL model.
type AuthConfig struct {
	JWTSecret   string `koanf:"jwt_secret"`
	Issuer      string `koanf:"issuer"`
	TokenExpiry int    `koanf:"token_expiry_minutes"`
}

// DatabaseConfig configures the Postgres connection pool used to persist
// planning reports.
type DatabaseConfig struct {
	Host            string `koanf:"host"`
	Port            int    `koanf:"port"`
	User            string `koanf:"user"`
	Password        string `koanf:"password"`
	Database        string `koanf:"database"`
	SSLMode         string `koanf:"ssl_mode"`
	MaxConns        int32  `koanf:"max_conns"`
	MinConns        int32  `koanf:"min_conns"`
	MaxConnLifetime int    `koanf:"max_conn_lifetime_minutes"`
	MaxConnIdleTime int    `koanf:"max_conn_idle_minutes"`
	AutoMigrate     bool   `koanf:"auto_migrate"`
}

// CacheConfig configures the PrecomputedBundle memoization cache.
type CacheConfig struct {
	Backend  string `koanf:"backend"` // memory, redis
	Address  string `koanf:"address"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
	TTLSec   int    `koanf:"ttl_seconds"`
}

// AppConfig carries general application metadata.
type AppConfig struct {
	Name        string `koanf:"name"`
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"` // development, staging, production
	Debug       bool   `koanf:"debug"`
}

// LogConfig configures the structured logger.
type LogConfig struct {
	Level      string `koanf:"level"`  // debug, info, warn, error
	Format     string `koanf:"format"` // json, text
	Output     string `koanf:"output"` // stdout, stderr, file
	FilePath   string `koanf:"file_path"`
	MaxSize    int  `koanf:"max_size"` // MB
	MaxBackups int  `koanf:"max_backups"`
	MaxAge     int  `koanf:"max_age"` // days
	Compress   bool `koanf:"compress"`
}

// MetricsConfig configures the Prometheus exporter.
type MetricsConfig struct {
	Enabled   bool   `koanf:"enabled"`
	Port      int    `koanf:"port"`
	Path      string `koanf:"path"`
	Namespace string `koanf:"namespace"`
	Subsystem string `koanf:"subsystem"`
}

// Resilience selects whether the Builder augments for 2-edge-connectivity.
type Resilience string

const (
	ResilienceNone Resilience = "none"
	ResilienceK2   Resilience = "k2"
)

// AvailabilityModel selects the per-edge failure-probability formula.
type AvailabilityModel string

const (
	AvailabilityLegacy  AvailabilityModel = "legacy"
	AvailabilityCurrent AvailabilityModel = "current"
)

// SpeedBand bounds the BFS speed-constrained sizer's target velocity envelope.
type SpeedBand struct {
	Min           float64 `koanf:"min"`
	Max           float64 `koanf:"max"`
	RelaxationMin float64 `koanf:"relaxation_min"`
	RelaxationStep float64 `koanf:"relaxation_step"`
}

// PlanningConfig holds the enumerated planning-run options from the external
// interface contract: budget, source, resilience mode, hydraulic checking,
// the speed band, and the availability sampling parameters.
type PlanningConfig struct {
	BudgetEUR         float64           `koanf:"budget_eur"`
	Source            int64             `koanf:"source"`
	Resilience        Resilience        `koanf:"resilience"`
	HydraulicCheck    bool              `koanf:"hydraulic_check"`
	SpeedBand         SpeedBand         `koanf:"speed_band"`
	RNGSeed           uint64            `koanf:"rng_seed"`
	MonteCarloReps    int               `koanf:"monte_carlo_reps"`
	AvailabilityModel AvailabilityModel `koanf:"availability_model"`
	FailureRate       float64           `koanf:"failure_rate"` // pipes per km per year
}

// Validate checks the configuration for the constraints the planner relies on.
func (c *Config) Validate() error {
	var errs []string

	if c.App.Name == "" {
		errs = append(errs, "app.name is required")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, fmt.Sprintf("log.level must be one of: debug, info, warn, error, got %s", c.Log.Level))
	}

	if c.Planning.BudgetEUR <= 0 {
		errs = append(errs, "planning.budget_eur must be positive")
	}

	switch c.Planning.Resilience {
	case ResilienceNone, ResilienceK2:
	default:
		errs = append(errs, fmt.Sprintf("planning.resilience must be one of: none, k2, got %s", c.Planning.Resilience))
	}

	switch c.Planning.AvailabilityModel {
	case AvailabilityLegacy, AvailabilityCurrent:
	default:
		errs = append(errs, fmt.Sprintf("planning.availability_model must be one of: legacy, current, got %s", c.Planning.AvailabilityModel))
	}

	if c.Planning.MonteCarloReps <= 0 {
		errs = append(errs, "planning.monte_carlo_reps must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return nil
}

// IsDevelopment reports whether the app environment is development.
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development" || c.App.Environment == "dev"
}

// IsProduction reports whether the app environment is production.
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production" || c.App.Environment == "prod"
}
