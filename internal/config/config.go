// Package config loads pipeline configuration from file and environment.
package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete pipeline configuration.
type Config struct {
	Sources      SourcesConfig      `mapstructure:"sources"`
	Sink         SinkConfig         `mapstructure:"sink"`
	Ledger       LedgerConfig       `mapstructure:"ledger"`
	Orchestrator OrchestratorConfig `mapstructure:"orchestrator"`
	Flags        FlagsConfig        `mapstructure:"flags"`
	Schedule     ScheduleConfig     `mapstructure:"schedule"`
	Logging      LoggingConfig      `mapstructure:"logging"`
}

// SourcesConfig names the three input locations. Relative paths are
// resolved against BasePath.
type SourcesConfig struct {
	BasePath     string `mapstructure:"base_path"`
	PaySimPath   string `mapstructure:"paysim_path"`
	AMLPath      string `mapstructure:"aml_path"`
	CurrencyPath string `mapstructure:"currency_path"`
}

// SinkConfig holds analytical store configuration. DuckDBPath selects the
// embedded sink; a non-empty ClickHouseDSN switches to the server sink.
type SinkConfig struct {
	DuckDBPath    string `mapstructure:"duckdb_path"`
	ClickHouseDSN string `mapstructure:"clickhouse_dsn"`
}

// LedgerConfig holds the optional run-ledger database. Empty DSN disables
// ledger writes.
type LedgerConfig struct {
	PostgresDSN string `mapstructure:"postgres_dsn"`
}

// OrchestratorConfig holds the resilience policy knobs.
type OrchestratorConfig struct {
	Workers            int           `mapstructure:"workers"`
	LoadRetries        int           `mapstructure:"load_retries"`
	EnrichRetries      int           `mapstructure:"enrich_retries"`
	CrossRefRetries    int           `mapstructure:"crossref_retries"`
	CommitRetries      int           `mapstructure:"commit_retries"`
	RetryDelay         time.Duration `mapstructure:"retry_delay"`
	ExponentialBackoff bool          `mapstructure:"exponential_backoff"`
	TaskTimeout        time.Duration `mapstructure:"task_timeout"`
	CacheTTL           time.Duration `mapstructure:"cache_ttl"`
}

// FlagsConfig holds the fraud-heuristic constants.
type FlagsConfig struct {
	HighAmountLimit float64 `mapstructure:"high_amount_limit"`
	NightStartHour  int     `mapstructure:"night_start_hour"`
	NightEndHour    int     `mapstructure:"night_end_hour"`
	Quantile        float64 `mapstructure:"quantile"`
	QuantileEpsilon float64 `mapstructure:"quantile_epsilon"`
}

// ScheduleConfig holds the recurring-trigger configuration.
type ScheduleConfig struct {
	Hour   int `mapstructure:"hour"`
	Minute int `mapstructure:"minute"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads configuration from the given file with environment overrides
// under the FRAUD_PIPELINE prefix. An empty path loads defaults only.
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("FRAUD_PIPELINE")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("sources.base_path", ".")
	v.SetDefault("sources.paysim_path", "fraud_detection.parquet")
	v.SetDefault("sources.aml_path", "HI-Small_Trans.csv")
	v.SetDefault("sources.currency_path", "currency.json")

	v.SetDefault("sink.duckdb_path", "analytics.duckdb")
	v.SetDefault("sink.clickhouse_dsn", "")

	v.SetDefault("ledger.postgres_dsn", "")

	v.SetDefault("orchestrator.workers", 3)
	v.SetDefault("orchestrator.load_retries", 3)
	v.SetDefault("orchestrator.enrich_retries", 2)
	v.SetDefault("orchestrator.crossref_retries", 2)
	v.SetDefault("orchestrator.commit_retries", 1)
	v.SetDefault("orchestrator.retry_delay", "10s")
	v.SetDefault("orchestrator.exponential_backoff", true)
	v.SetDefault("orchestrator.task_timeout", "10m")
	v.SetDefault("orchestrator.cache_ttl", "24h")

	v.SetDefault("flags.high_amount_limit", 1_000_000.0)
	v.SetDefault("flags.night_start_hour", 6)
	v.SetDefault("flags.night_end_hour", 21)
	v.SetDefault("flags.quantile", 0.95)
	v.SetDefault("flags.quantile_epsilon", 0.01)

	v.SetDefault("schedule.hour", 2)
	v.SetDefault("schedule.minute", 0)

	v.SetDefault("logging.level", "info")
}

// Validate checks configuration invariants.
func (c *Config) Validate() error {
	if c.Sources.PaySimPath == "" || c.Sources.AMLPath == "" || c.Sources.CurrencyPath == "" {
		return fmt.Errorf("all three source paths must be set")
	}
	if c.Sink.DuckDBPath == "" && c.Sink.ClickHouseDSN == "" {
		return fmt.Errorf("a sink must be configured (duckdb_path or clickhouse_dsn)")
	}
	if c.Orchestrator.Workers < 1 {
		return fmt.Errorf("orchestrator.workers must be >= 1, got %d", c.Orchestrator.Workers)
	}
	if c.Flags.Quantile <= 0 || c.Flags.Quantile >= 1 {
		return fmt.Errorf("flags.quantile must be in (0, 1), got %f", c.Flags.Quantile)
	}
	if c.Flags.QuantileEpsilon <= 0 {
		return fmt.Errorf("flags.quantile_epsilon must be > 0, got %f", c.Flags.QuantileEpsilon)
	}
	if c.Flags.HighAmountLimit < 0 {
		return fmt.Errorf("flags.high_amount_limit must be non-negative, got %f", c.Flags.HighAmountLimit)
	}
	if c.Schedule.Hour < 0 || c.Schedule.Hour > 23 {
		return fmt.Errorf("schedule.hour must be in [0, 23], got %d", c.Schedule.Hour)
	}
	if c.Schedule.Minute < 0 || c.Schedule.Minute > 59 {
		return fmt.Errorf("schedule.minute must be in [0, 59], got %d", c.Schedule.Minute)
	}
	return nil
}

// SourcePath resolves a source location against the configured base path.
func (c *Config) SourcePath(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(c.Sources.BasePath, rel)
}
