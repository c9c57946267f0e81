package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Server.Port != 8700 || cfg.Server.MetricsPort != 8701 {
		t.Errorf("default ports: %d/%d", cfg.Server.Port, cfg.Server.MetricsPort)
	}
	if cfg.Events.URL != "nats://localhost:4222" {
		t.Errorf("default events url: %s", cfg.Events.URL)
	}
	if cfg.Scoring.TierPolicy.Kind != "fixed" {
		t.Errorf("default tier policy: %s", cfg.Scoring.TierPolicy.Kind)
	}
	if cfg.Scoring.TierPolicy.LowMax != 0.45 || cfg.Scoring.TierPolicy.MediumMax != 0.70 {
		t.Errorf("default thresholds: %+v", cfg.Scoring.TierPolicy)
	}
	if cfg.Scoring.Weights.NonStaffExpenditure != 0.20 || cfg.Scoring.Weights.CSSFlag != 0.05 {
		t.Errorf("default weights: %+v", cfg.Scoring.Weights)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("default logging: %+v", cfg.Logging)
	}
}

func TestLoadFromFile(t *testing.T) {
	yamlContent := `
server:
  port: 9100
  admin_token: secret
database:
  url: postgres://localhost/planner
scoring:
  tier_policy:
    kind: quantile
    low_quantile: 0.6
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(yamlContent), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Server.Port != 9100 || cfg.Server.AdminToken != "secret" {
		t.Errorf("file override: %+v", cfg.Server)
	}
	if cfg.Database.URL != "postgres://localhost/planner" {
		t.Errorf("database url: %s", cfg.Database.URL)
	}
	if cfg.Scoring.TierPolicy.Kind != "quantile" || cfg.Scoring.TierPolicy.LowQuantile != 0.6 {
		t.Errorf("tier policy override: %+v", cfg.Scoring.TierPolicy)
	}
	// Values the file does not mention keep their defaults.
	if cfg.Server.MetricsPort != 8701 {
		t.Errorf("metrics port should keep default, got %d", cfg.Server.MetricsPort)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PLANNER_PORT", "9200")
	t.Setenv("PLANNER_DATABASE_URL", "postgres://db:5432/planner")
	t.Setenv("PLANNER_TIER_POLICY", "quantile")
	t.Setenv("PLANNER_LOG_LEVEL", "debug")

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Server.Port != 9200 {
		t.Errorf("env port: %d", cfg.Server.Port)
	}
	if cfg.Database.URL != "postgres://db:5432/planner" {
		t.Errorf("env database url: %s", cfg.Database.URL)
	}
	if cfg.Scoring.TierPolicy.Kind != "quantile" {
		t.Errorf("env tier policy: %s", cfg.Scoring.TierPolicy.Kind)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("env log level: %s", cfg.Logging.Level)
	}
}

func TestLoadEnvBeatsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 9100\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PLANNER_PORT", "9300")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != 9300 {
		t.Errorf("env must beat file: %d", cfg.Server.Port)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Fatal("missing config file must error")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server: [not a map"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("invalid yaml must error")
	}
}
