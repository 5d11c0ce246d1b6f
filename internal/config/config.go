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
	Input      InputConfig      `yaml:"input" mapstructure:"input"`
	Validation ValidationConfig `yaml:"validation" mapstructure:"validation"`
	Data       DataConfig       `yaml:"data" mapstructure:"data"`
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// InputConfig configures where the raw workbook comes from.
type InputConfig struct {
	Dir            string `yaml:"dir" mapstructure:"dir"`
	Sheet          string `yaml:"sheet" mapstructure:"sheet"`
	FTPSource      string `yaml:"ftp_source" mapstructure:"ftp_source"`
	FTPTimeoutSecs int    `yaml:"ftp_timeout_secs" mapstructure:"ftp_timeout_secs"`
}

// ValidationConfig holds the validation thresholds and publish-gate parameters.
type ValidationConfig struct {
	RateLowerBound       float64 `yaml:"rate_lower_bound" mapstructure:"rate_lower_bound"`
	RateUpperBound       float64 `yaml:"rate_upper_bound" mapstructure:"rate_upper_bound"`
	RateWarningThreshold float64 `yaml:"rate_warning_threshold" mapstructure:"rate_warning_threshold"`
	GateThreshold        float64 `yaml:"gate_threshold" mapstructure:"gate_threshold"`
	TotalStates          int     `yaml:"total_states" mapstructure:"total_states"`
}

// DataConfig configures the on-disk pipeline layout.
type DataConfig struct {
	StateDir     string `yaml:"state_dir" mapstructure:"state_dir"`
	ValidatedDir string `yaml:"validated_dir" mapstructure:"validated_dir"`
	CleanPath    string `yaml:"clean_path" mapstructure:"clean_path"`
	OutputDir    string `yaml:"output_dir" mapstructure:"output_dir"`
}

// StoreConfig configures the run-history database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	SQLitePath  string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ServerConfig configures the read-only API server.
type ServerConfig struct {
	Port            int     `yaml:"port" mapstructure:"port"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec" mapstructure:"rate_limit_per_sec"`
	RateBurst       int     `yaml:"rate_burst" mapstructure:"rate_burst"`
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
	v.SetEnvPrefix("LABORSTAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("input.dir", "raw_data")
	v.SetDefault("input.sheet", "in")
	v.SetDefault("input.ftp_timeout_secs", 30)
	v.SetDefault("validation.rate_lower_bound", 0.0)
	v.SetDefault("validation.rate_upper_bound", 100.0)
	v.SetDefault("validation.rate_warning_threshold", 15.0)
	v.SetDefault("validation.gate_threshold", 0.40)
	v.SetDefault("validation.total_states", 50)
	v.SetDefault("data.state_dir", ".pipeline_state")
	v.SetDefault("data.validated_dir", "validated_data")
	v.SetDefault("data.clean_path", "clean_data/clean_data.jsonl")
	v.SetDefault("data.output_dir", ".")
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.sqlite_path", ".pipeline_state/runs.db")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.rate_limit_per_sec", 10.0)
	v.SetDefault("server.rate_burst", 20)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

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

	// The gate fraction divides by this; zero would poison the verdict.
	if cfg.Validation.TotalStates <= 0 {
		return nil, eris.Errorf("config: validation.total_states must be positive, got %d", cfg.Validation.TotalStates)
	}

	return &cfg, nil
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
