// Package config loads application configuration from file and environment.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	StatsAPI   StatsAPIConfig   `yaml:"stats_api" mapstructure:"stats_api"`
	FantasyAPI FantasyAPIConfig `yaml:"fantasy_api" mapstructure:"fantasy_api"`
	Pipeline   PipelineConfig   `yaml:"pipeline" mapstructure:"pipeline"`
	Scoring    ScoringConfig    `yaml:"scoring" mapstructure:"scoring"`
	Resilience ResilienceConfig `yaml:"resilience" mapstructure:"resilience"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// StatsAPIConfig holds settings for the league stats provider.
type StatsAPIConfig struct {
	BaseURL        string `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs    int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RatePerSecond  int    `yaml:"rate_per_second" mapstructure:"rate_per_second"`
	RateBurst      int    `yaml:"rate_burst" mapstructure:"rate_burst"`
	ProfileDelayMs int    `yaml:"profile_delay_ms" mapstructure:"profile_delay_ms"`
}

// FantasyAPIConfig holds settings for the fantasy platform.
type FantasyAPIConfig struct {
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	LeagueID    string `yaml:"league_id" mapstructure:"league_id"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// PipelineConfig configures pipeline execution.
type PipelineConfig struct {
	// Season overrides the derived season string (e.g. "2025-26").
	// Empty means derive from the current date.
	Season string `yaml:"season" mapstructure:"season"`

	// AlertWindowMins is how long before the first tip-off the lineup
	// alert window opens.
	AlertWindowMins int `yaml:"alert_window_mins" mapstructure:"alert_window_mins"`

	// AlertCloseMins is how long before the first tip-off the window closes.
	AlertCloseMins int `yaml:"alert_close_mins" mapstructure:"alert_close_mins"`

	// DefaultTimeoutSecs bounds a single pipeline run.
	DefaultTimeoutSecs int `yaml:"default_timeout_secs" mapstructure:"default_timeout_secs"`

	// ProfileTimeoutSecs bounds the slow player_profiles run.
	ProfileTimeoutSecs int `yaml:"profile_timeout_secs" mapstructure:"profile_timeout_secs"`

	// MatchupScheduleFile points at a YAML file with the league's matchup
	// periods. Empty or missing file means the matchup scores pipeline
	// has no active period and records nothing.
	MatchupScheduleFile string `yaml:"matchup_schedule_file" mapstructure:"matchup_schedule_file"`
}

// ScoringConfig configures fantasy scoring weights.
type ScoringConfig struct {
	// WeightsFile points at a YAML file overriding the default weights.
	// Empty or missing file means defaults.
	WeightsFile string `yaml:"weights_file" mapstructure:"weights_file"`
}

// ResilienceConfig configures retry and circuit breaker behavior for
// upstream calls.
type ResilienceConfig struct {
	MaxAttempts       int     `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs  int     `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs      int     `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
	BackoffMultiplier float64 `yaml:"backoff_multiplier" mapstructure:"backoff_multiplier"`
	JitterFraction    float64 `yaml:"jitter_fraction" mapstructure:"jitter_fraction"`
	FailureThreshold  int     `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	ResetTimeoutSecs  int     `yaml:"reset_timeout_secs" mapstructure:"reset_timeout_secs"`
}

// ServerConfig configures the trigger HTTP server.
type ServerConfig struct {
	Port  int    `yaml:"port" mapstructure:"port"`
	Token string `yaml:"token" mapstructure:"token"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("STATLINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8090)
	v.SetDefault("stats_api.base_url", "https://stats.nba.com/stats")
	v.SetDefault("stats_api.timeout_secs", 30)
	v.SetDefault("stats_api.rate_per_second", 2)
	v.SetDefault("stats_api.rate_burst", 4)
	v.SetDefault("stats_api.profile_delay_ms", 600)
	v.SetDefault("fantasy_api.base_url", "https://api.fantrax.com/fxpa/req")
	v.SetDefault("fantasy_api.timeout_secs", 30)
	v.SetDefault("pipeline.alert_window_mins", 60)
	v.SetDefault("pipeline.alert_close_mins", 15)
	v.SetDefault("pipeline.default_timeout_secs", 300)
	v.SetDefault("pipeline.profile_timeout_secs", 1800)
	v.SetDefault("resilience.max_attempts", 3)
	v.SetDefault("resilience.initial_backoff_ms", 500)
	v.SetDefault("resilience.max_backoff_ms", 30000)
	v.SetDefault("resilience.backoff_multiplier", 2.0)
	v.SetDefault("resilience.jitter_fraction", 0.25)
	v.SetDefault("resilience.failure_threshold", 5)
	v.SetDefault("resilience.reset_timeout_secs", 30)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks that the fields required for the given mode are present
// and within bounds. Modes: "sync" (pipeline runs), "serve" (HTTP trigger
// server), "export" (read-only rankings export).
func (c *Config) Validate(mode string) error {
	var problems []string

	needDB := func() {
		// The sqlite driver falls back to a local file when no URL is set.
		if c.Store.Driver != "sqlite" && c.Store.DatabaseURL == "" {
			problems = append(problems, "store.database_url is required")
		}
	}

	switch mode {
	case "sync":
		needDB()
		if c.Pipeline.AlertWindowMins <= c.Pipeline.AlertCloseMins {
			problems = append(problems, "pipeline.alert_window_mins must be greater than alert_close_mins")
		}
		if c.Resilience.MaxAttempts < 1 || c.Resilience.MaxAttempts > 10 {
			problems = append(problems, "resilience.max_attempts must be between 1 and 10")
		}
	case "serve":
		needDB()
		if c.Server.Port <= 0 {
			problems = append(problems, "server.port must be > 0")
		}
	case "export":
		needDB()
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.New("config: " + strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
