package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Events   EventsConfig   `yaml:"events"`
	Scoring  ScoringConfig  `yaml:"scoring"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	Port        int    `yaml:"port"`
	MetricsPort int    `yaml:"metrics_port"`
	AdminToken  string `yaml:"admin_token"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type EventsConfig struct {
	URL string `yaml:"url"`
}

type ScoringConfig struct {
	Weights    Weights          `yaml:"weights"`
	TierPolicy TierPolicyConfig `yaml:"tier_policy"`
}

// Weights mirrors the scoring weight config for yaml loading.
type Weights struct {
	NonStaffExpenditure float64 `yaml:"non_staff_expenditure"`
	TotalExpenditure    float64 `yaml:"total_expenditure"`
	ParaCount           float64 `yaml:"para_count"`
	ArrearYears         float64 `yaml:"arrear_years"`
	SpecialPoints       float64 `yaml:"special_points"`
	DCBillValue         float64 `yaml:"dc_bill_value"`
	UCBillValue         float64 `yaml:"uc_bill_value"`
	CSSFlag             float64 `yaml:"css_flag"`
}

type TierPolicyConfig struct {
	Kind           string  `yaml:"kind"` // "fixed" or "quantile"
	LowMax         float64 `yaml:"low_max"`
	MediumMax      float64 `yaml:"medium_max"`
	LowQuantile    float64 `yaml:"low_quantile"`
	MediumQuantile float64 `yaml:"medium_quantile"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Load(path string) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:        8700,
			MetricsPort: 8701,
		},
		Events: EventsConfig{
			URL: "nats://localhost:4222",
		},
		Scoring: ScoringConfig{
			Weights: Weights{
				NonStaffExpenditure: 0.20,
				TotalExpenditure:    0.20,
				ParaCount:           0.15,
				ArrearYears:         0.15,
				SpecialPoints:       0.05,
				DCBillValue:         0.10,
				UCBillValue:         0.10,
				CSSFlag:             0.05,
			},
			TierPolicy: TierPolicyConfig{
				Kind:           "fixed",
				LowMax:         0.45,
				MediumMax:      0.70,
				LowQuantile:    0.50,
				MediumQuantile: 0.85,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PLANNER_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = n
		}
	}
	if v := os.Getenv("PLANNER_METRICS_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.MetricsPort = n
		}
	}
	if v := os.Getenv("PLANNER_ADMIN_TOKEN"); v != "" {
		cfg.Server.AdminToken = v
	}
	if v := os.Getenv("PLANNER_DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("PLANNER_EVENTS_URL"); v != "" {
		cfg.Events.URL = v
	}
	if v := os.Getenv("PLANNER_TIER_POLICY"); v != "" {
		cfg.Scoring.TierPolicy.Kind = v
	}
	if v := os.Getenv("PLANNER_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}
