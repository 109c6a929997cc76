package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_DefaultsOnly(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate, got: %v", err)
	}

	if cfg.Flags.HighAmountLimit != 1_000_000 {
		t.Errorf("expected high_amount_limit 1000000, got %f", cfg.Flags.HighAmountLimit)
	}
	if cfg.Flags.Quantile != 0.95 {
		t.Errorf("expected quantile 0.95, got %f", cfg.Flags.Quantile)
	}
	if cfg.Orchestrator.Workers != 3 {
		t.Errorf("expected 3 workers, got %d", cfg.Orchestrator.Workers)
	}
	if cfg.Orchestrator.CacheTTL != 24*time.Hour {
		t.Errorf("expected cache TTL 24h, got %v", cfg.Orchestrator.CacheTTL)
	}
	if cfg.Schedule.Hour != 2 || cfg.Schedule.Minute != 0 {
		t.Errorf("expected 02:00 schedule, got %02d:%02d", cfg.Schedule.Hour, cfg.Schedule.Minute)
	}
}

func TestLoadAndValidate_File(t *testing.T) {
	content := `
sources:
  base_path: "/data/fraud"
  paysim_path: "fraud_detection.parquet"
  aml_path: "HI-Small_Trans.csv"
  currency_path: "currency.json"

sink:
  duckdb_path: "/data/analytics.duckdb"

orchestrator:
  workers: 2
  load_retries: 5
  retry_delay: 2s
  exponential_backoff: false
  task_timeout: 5m
  cache_ttl: 1h

flags:
  high_amount_limit: 500000
  quantile: 0.9
  quantile_epsilon: 0.05

logging:
  level: "debug"
`
	tmpfile, err := os.CreateTemp("", "config-*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Remove(tmpfile.Name()) }()

	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(tmpfile.Name())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	if cfg.Orchestrator.Workers != 2 {
		t.Errorf("expected 2 workers, got %d", cfg.Orchestrator.Workers)
	}
	if cfg.Orchestrator.RetryDelay != 2*time.Second {
		t.Errorf("expected retry delay 2s, got %v", cfg.Orchestrator.RetryDelay)
	}
	if cfg.Orchestrator.ExponentialBackoff {
		t.Error("expected exponential_backoff false")
	}
	if cfg.Flags.HighAmountLimit != 500_000 {
		t.Errorf("expected high_amount_limit 500000, got %f", cfg.Flags.HighAmountLimit)
	}
	// Unset sections keep their defaults.
	if cfg.Orchestrator.CommitRetries != 1 {
		t.Errorf("expected default commit_retries 1, got %d", cfg.Orchestrator.CommitRetries)
	}
}

func TestValidate_Rejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no sink", func(c *Config) { c.Sink.DuckDBPath = ""; c.Sink.ClickHouseDSN = "" }},
		{"zero workers", func(c *Config) { c.Orchestrator.Workers = 0 }},
		{"quantile out of range", func(c *Config) { c.Flags.Quantile = 1.0 }},
		{"zero epsilon", func(c *Config) { c.Flags.QuantileEpsilon = 0 }},
		{"negative amount limit", func(c *Config) { c.Flags.HighAmountLimit = -1 }},
		{"bad schedule hour", func(c *Config) { c.Schedule.Hour = 24 }},
		{"missing source path", func(c *Config) { c.Sources.AMLPath = "" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := Load("")
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestSourcePath(t *testing.T) {
	cfg := &Config{Sources: SourcesConfig{BasePath: "/data/fraud"}}

	if got := cfg.SourcePath("currency.json"); got != filepath.Join("/data/fraud", "currency.json") {
		t.Errorf("unexpected resolved path: %s", got)
	}
	if got := cfg.SourcePath("/abs/currency.json"); got != "/abs/currency.json" {
		t.Errorf("absolute paths must pass through, got %s", got)
	}
}
