// Package config handles configuration loading for eiapipe.
// It supports YAML config files with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete pipeline configuration.
type Config struct {
	API     APIConfig     `mapstructure:"api"     yaml:"api"`
	Data    DataConfig    `mapstructure:"data"    yaml:"data"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// APIConfig holds EIA API access settings.
type APIConfig struct {
	BaseURL        string `mapstructure:"base_url"         yaml:"base_url"`
	Key            string `mapstructure:"key"              yaml:"key"`
	StartPeriod    string `mapstructure:"start_period"     yaml:"start_period"`     // YYYY-MM
	TimeoutSec     int    `mapstructure:"timeout_sec"      yaml:"timeout_sec"`      // per-request
	RequestDelayMS int    `mapstructure:"request_delay_ms" yaml:"request_delay_ms"` // courtesy delay between series
	PageLength     int    `mapstructure:"page_length"      yaml:"page_length"`      // must cover the full range in one page
}

// DataConfig holds artifact locations for the three pipeline layers.
type DataConfig struct {
	Dir        string `mapstructure:"dir"         yaml:"dir"`
	BronzeFile string `mapstructure:"bronze_file" yaml:"bronze_file"`
	SilverFile string `mapstructure:"silver_file" yaml:"silver_file"`
	GoldFile   string `mapstructure:"gold_file"   yaml:"gold_file"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format"` // "text" or "json"
}

// BronzePath returns the bronze artifact path.
func (d DataConfig) BronzePath() string {
	return filepath.Join(d.Dir, "bronze", d.BronzeFile)
}

// SilverPath returns the silver artifact path.
func (d DataConfig) SilverPath() string {
	return filepath.Join(d.Dir, "silver", d.SilverFile)
}

// GoldPath returns the gold artifact path.
func (d DataConfig) GoldPath() string {
	return filepath.Join(d.Dir, "gold", d.GoldFile)
}

// Timeout returns the per-request timeout as a duration.
func (a APIConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSec) * time.Second
}

// RequestDelay returns the inter-series courtesy delay as a duration.
func (a APIConfig) RequestDelay() time.Duration {
	return time.Duration(a.RequestDelayMS) * time.Millisecond
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.eiapipe/config.yaml (home directory)
//
// Environment variables override config file values.
// Format: EIAPIPE_<SECTION>_<KEY>, e.g., EIAPIPE_API_START_PERIOD.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".eiapipe"))

	v.SetEnvPrefix("EIAPIPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found — that's fine, use defaults + env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	overrideFromEnv(&cfg)
	return &cfg, nil
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetEnvPrefix("EIAPIPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	overrideFromEnv(&cfg)
	return &cfg, nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	// API defaults. The page length must exceed the record count of the
	// whole monthly range; 5000 covers centuries of monthly data.
	v.SetDefault("api.base_url", "https://api.eia.gov/v2")
	v.SetDefault("api.start_period", "2015-01")
	v.SetDefault("api.timeout_sec", 30)
	v.SetDefault("api.request_delay_ms", 500)
	v.SetDefault("api.page_length", 5000)

	// Artifact defaults
	v.SetDefault("data.dir", "data")
	v.SetDefault("data.bronze_file", "eia_raw_responses.json")
	v.SetDefault("data.silver_file", "distillate_monthly_clean.csv")
	v.SetDefault("data.gold_file", "distillate_annual_averages.csv")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// overrideFromEnv explicitly reads sensitive keys from environment
// variables. API_KEY is honored for compatibility with existing .env
// files that predate the EIAPIPE_ prefix.
func overrideFromEnv(cfg *Config) {
	if key := os.Getenv("EIAPIPE_API_KEY"); key != "" {
		cfg.API.Key = key
	} else if key := os.Getenv("API_KEY"); key != "" {
		cfg.API.Key = key
	}
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
