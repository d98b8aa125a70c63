package config

import (
	"testing"
)

func validPlanning() PlanningConfig {
	return PlanningConfig{
		BudgetEUR:         30000,
		Source:            0,
		Resilience:        ResilienceNone,
		AvailabilityModel: AvailabilityCurrent,
		MonteCarloReps:    1000,
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name: "valid config",
			cfg: Config{
				App:      AppConfig{Name: "test-service"},
				Log:      LogConfig{Level: "info"},
				Planning: validPlanning(),
			},
			wantErr: false,
		},
		{
			name: "missing app name",
			cfg: Config{
				Log:      LogConfig{Level: "info"},
				Planning: validPlanning(),
			},
			wantErr: true,
		},
		{
			name: "invalid log level",
			cfg: Config{
				App:      AppConfig{Name: "test"},
				Log:      LogConfig{Level: "invalid"},
				Planning: validPlanning(),
			},
			wantErr: true,
		},
		{
			name: "valid debug level",
			cfg: Config{
				App:      AppConfig{Name: "test"},
				Log:      LogConfig{Level: "debug"},
				Planning: validPlanning(),
			},
			wantErr: false,
		},
		{
			name: "non-positive budget",
			cfg: Config{
				App: AppConfig{Name: "test"},
				Log: LogConfig{Level: "info"},
				Planning: func() PlanningConfig {
					p := validPlanning()
					p.BudgetEUR = 0
					return p
				}(),
			},
			wantErr: true,
		},
		{
			name: "invalid resilience mode",
			cfg: Config{
				App: AppConfig{Name: "test"},
				Log: LogConfig{Level: "info"},
				Planning: func() PlanningConfig {
					p := validPlanning()
					p.Resilience = "triple"
					return p
				}(),
			},
			wantErr: true,
		},
		{
			name: "invalid availability model",
			cfg: Config{
				App: AppConfig{Name: "test"},
				Log: LogConfig{Level: "info"},
				Planning: func() PlanningConfig {
					p := validPlanning()
					p.AvailabilityModel = "bogus"
					return p
				}(),
			},
			wantErr: true,
		},
		{
			name: "non-positive monte carlo reps",
			cfg: Config{
				App: AppConfig{Name: "test"},
				Log: LogConfig{Level: "info"},
				Planning: func() PlanningConfig {
					p := validPlanning()
					p.MonteCarloReps = 0
					return p
				}(),
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_IsDevelopment(t *testing.T) {
	tests := []struct {
		env  string
		want bool
	}{
		{"development", true},
		{"dev", true},
		{"production", false},
		{"staging", false},
	}

	for _, tt := range tests {
		cfg := &Config{App: AppConfig{Environment: tt.env}}
		if got := cfg.IsDevelopment(); got != tt.want {
			t.Errorf("IsDevelopment() for %s = %v, want %v", tt.env, got, tt.want)
		}
	}
}

func TestConfig_IsProduction(t *testing.T) {
	tests := []struct {
		env  string
		want bool
	}{
		{"production", true},
		{"prod", true},
		{"development", false},
		{"staging", false},
	}

	for _, tt := range tests {
		cfg := &Config{App: AppConfig{Environment: tt.env}}
		if got := cfg.IsProduction(); got != tt.want {
			t.Errorf("IsProduction() for %s = %v, want %v", tt.env, got, tt.want)
		}
	}
}
