package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoader_LoadDefaults(t *testing.T) {
	cfg, err := NewLoader().Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.App.Name != "waterplan" {
		t.Errorf("expected app name 'waterplan', got %s", cfg.App.Name)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Log.Level)
	}
	if cfg.Metrics.Port != 9090 {
		t.Errorf("expected metrics port 9090, got %d", cfg.Metrics.Port)
	}
	if cfg.Planning.Resilience != ResilienceNone {
		t.Errorf("expected resilience 'none', got %s", cfg.Planning.Resilience)
	}
	if cfg.Planning.SpeedBand.Min != 0.6 || cfg.Planning.SpeedBand.Max != 1.0 {
		t.Errorf("unexpected default speed band: %+v", cfg.Planning.SpeedBand)
	}
}

func TestLoader_LoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
app:
  name: custom-run
  version: 2.0.0
  environment: staging
log:
  level: debug
planning:
  budget_eur: 25000
  resilience: k2
`
	err := os.WriteFile(configPath, []byte(configContent), 0644)
	if err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	loader := NewLoader(WithConfigPaths(configPath))
	cfg, err := loader.Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.App.Name != "custom-run" {
		t.Errorf("expected app name 'custom-run', got %s", cfg.App.Name)
	}
	if cfg.App.Version != "2.0.0" {
		t.Errorf("expected version '2.0.0', got %s", cfg.App.Version)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.Log.Level)
	}
	if cfg.Planning.BudgetEUR != 25000 {
		t.Errorf("expected budget 25000, got %f", cfg.Planning.BudgetEUR)
	}
	if cfg.Planning.Resilience != ResilienceK2 {
		t.Errorf("expected resilience k2, got %s", cfg.Planning.Resilience)
	}
}

func TestLoader_LoadFromEnv(t *testing.T) {
	os.Setenv("WATERPLAN_APP_NAME", "env-run")
	os.Setenv("WATERPLAN_PLANNING_BUDGET_EUR", "12345")
	defer func() {
		os.Unsetenv("WATERPLAN_APP_NAME")
		os.Unsetenv("WATERPLAN_PLANNING_BUDGET_EUR")
	}()

	cfg, err := NewLoader().Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.App.Name != "env-run" {
		t.Errorf("expected app name 'env-run', got %s", cfg.App.Name)
	}
	if cfg.Planning.BudgetEUR != 12345 {
		t.Errorf("expected budget 12345, got %f", cfg.Planning.BudgetEUR)
	}
}

func TestLoader_EnvOverridesFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
app:
  name: file-run
planning:
  budget_eur: 9000
`
	os.WriteFile(configPath, []byte(configContent), 0644)

	os.Setenv("WATERPLAN_APP_NAME", "env-override")
	defer os.Unsetenv("WATERPLAN_APP_NAME")

	cfg, err := NewLoader(WithConfigPaths(configPath)).Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.App.Name != "env-override" {
		t.Errorf("expected env override, got %s", cfg.App.Name)
	}
	if cfg.Planning.BudgetEUR != 9000 {
		t.Errorf("expected budget from file 9000, got %f", cfg.Planning.BudgetEUR)
	}
}

func TestLoader_WithEnvPrefix(t *testing.T) {
	os.Setenv("CUSTOM_APP_NAME", "custom-prefix-run")
	defer os.Unsetenv("CUSTOM_APP_NAME")

	cfg, err := NewLoader(WithEnvPrefix("CUSTOM_")).Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.App.Name != "custom-prefix-run" {
		t.Errorf("expected 'custom-prefix-run', got %s", cfg.App.Name)
	}
}

func TestMustLoad_Success(t *testing.T) {
	defer func() {
		if r := recover(); r != nil {
			t.Errorf("MustLoad should not panic with valid config")
		}
	}()

	cfg := MustLoad()
	if cfg == nil {
		t.Error("expected non-nil config")
	}
}

func TestLoad_Simple(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg == nil {
		t.Error("expected non-nil config")
	}
}

func TestLoader_ConfigEnvVar(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "custom-config.yaml")

	configContent := `
app:
  name: config-env-var-run
`
	os.WriteFile(configPath, []byte(configContent), 0644)

	os.Setenv("CONFIG_PATH", configPath)
	defer os.Unsetenv("CONFIG_PATH")

	cfg, err := NewLoader().Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.App.Name != "config-env-var-run" {
		t.Errorf("expected 'config-env-var-run', got %s", cfg.App.Name)
	}
}
