// Package config handles configuration loading for TrendLens.
// It supports YAML config files with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	Data     DataConfig     `mapstructure:"data"     yaml:"data"`
	Analysis AnalysisConfig `mapstructure:"analysis" yaml:"analysis"`
	Scan     ScanConfig     `mapstructure:"scan"     yaml:"scan"`
	API      APIConfig      `mapstructure:"api"      yaml:"api"`
	Logging  LoggingConfig  `mapstructure:"logging"  yaml:"logging"`
}

// DataConfig holds market data access settings.
type DataConfig struct {
	PolygonKey   string `mapstructure:"polygon_key"   yaml:"polygon_key"`
	CacheTTL     int    `mapstructure:"cache_ttl"     yaml:"cache_ttl"` // seconds
	LookbackDays int    `mapstructure:"lookback_days" yaml:"lookback_days"`
	Timeframe    string `mapstructure:"timeframe"     yaml:"timeframe"`
}

// AnalysisConfig holds indicator and trendline settings.
type AnalysisConfig struct {
	PriceField        string `mapstructure:"price_field"        yaml:"price_field"` // "open", "high", "low", "close"
	ConcurrentFetches int    `mapstructure:"concurrent_fetches" yaml:"concurrent_fetches"`
}

// ScanConfig holds windowed trendline scan settings.
type ScanConfig struct {
	WindowSize int `mapstructure:"window_size" yaml:"window_size"`
	Step       int `mapstructure:"step"        yaml:"step"`
}

// APIConfig holds HTTP API server settings.
type APIConfig struct {
	Host        string   `mapstructure:"host"         yaml:"host"`
	Port        int      `mapstructure:"port"         yaml:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level    string `mapstructure:"level"     yaml:"level"` // "debug", "info", "warn", "error"
	File     bool   `mapstructure:"file"      yaml:"file"`
	FilePath string `mapstructure:"file_path" yaml:"file_path"`
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.trendlens/config.yaml (home directory)
//  3. /etc/trendlens/config.yaml (system)
//
// Environment variables override config file values.
// Format: TRENDLENS_<SECTION>_<KEY>, e.g., TRENDLENS_DATA_POLYGON_KEY
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".trendlens"))
	v.AddConfigPath("/etc/trendlens")

	v.SetEnvPrefix("TRENDLENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Config file not required to exist; defaults + env vars suffice.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
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
	v.SetEnvPrefix("TRENDLENS")
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
	// Data defaults
	v.SetDefault("data.cache_ttl", 300) // 5 minutes
	v.SetDefault("data.lookback_days", 30)
	v.SetDefault("data.timeframe", "1h")

	// Analysis defaults
	v.SetDefault("analysis.price_field", "close")
	v.SetDefault("analysis.concurrent_fetches", 5)

	// Scan defaults
	v.SetDefault("scan.window_size", 30)
	v.SetDefault("scan.step", 10)

	// API defaults
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.cors_origins", []string{"http://localhost:3000"})

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.file", false)
	v.SetDefault("logging.file_path", filepath.Join(homeDir(), ".trendlens", "logs", "trendlens.log"))
}

// overrideFromEnv explicitly reads sensitive keys from environment variables.
func overrideFromEnv(cfg *Config) {
	if key := os.Getenv("TRENDLENS_DATA_POLYGON_KEY"); key != "" {
		cfg.Data.PolygonKey = key
	}
	// The bare POLYGON_API_KEY name is honored too.
	if key := os.Getenv("POLYGON_API_KEY"); key != "" && cfg.Data.PolygonKey == "" {
		cfg.Data.PolygonKey = key
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
