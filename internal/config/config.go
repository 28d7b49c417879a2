// Package config handles configuration loading for secfilter.
// It supports YAML config files with environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config represents the complete application configuration.
type Config struct {
	SEC      SECConfig      `mapstructure:"sec"      yaml:"sec"`
	FMP      FMPConfig      `mapstructure:"fmp"      yaml:"fmp"`
	OTC      OTCConfig      `mapstructure:"otc"      yaml:"otc"`
	Pipeline PipelineConfig `mapstructure:"pipeline" yaml:"pipeline"`
	Cache    CacheConfig    `mapstructure:"cache"    yaml:"cache"`
	Timeouts TimeoutConfig  `mapstructure:"timeouts" yaml:"timeouts"`
	API      APIConfig      `mapstructure:"api"      yaml:"api"`
	Logging  LoggingConfig  `mapstructure:"logging"  yaml:"logging"`
}

// SECConfig holds SEC EDGAR feed settings.
type SECConfig struct {
	BaseURL   string `mapstructure:"base_url"   yaml:"base_url"`
	UserAgent string `mapstructure:"user_agent" yaml:"user_agent"` // SEC requires a contact address
	RateLimit int    `mapstructure:"rate_limit" yaml:"rate_limit"` // requests per second
}

// FMPConfig holds Financial Modeling Prep settings.
type FMPConfig struct {
	APIKey    string  `mapstructure:"api_key"    yaml:"api_key"`
	BaseURL   string  `mapstructure:"base_url"   yaml:"base_url"`
	RateLimit float64 `mapstructure:"rate_limit" yaml:"rate_limit"` // requests per second
}

// OTCConfig holds OTC Markets settings.
type OTCConfig struct {
	BaseURL    string `mapstructure:"base_url"    yaml:"base_url"`
	SymbolsURL string `mapstructure:"symbols_url" yaml:"symbols_url"`
}

// PipelineConfig holds filing pipeline tuning.
type PipelineConfig struct {
	BatchSize        int `mapstructure:"batch_size"         yaml:"batch_size"`         // concurrent lookups per batch
	RecentWindowDays int `mapstructure:"recent_window_days" yaml:"recent_window_days"` // spans up to this use the SEC feed
	MaxPages         int `mapstructure:"max_pages"          yaml:"max_pages"`
	EmptyPageLimit   int `mapstructure:"empty_page_limit"   yaml:"empty_page_limit"` // consecutive no-new-filings pages before stopping
	DefaultLimit     int `mapstructure:"default_limit"      yaml:"default_limit"`
	DefaultRangeDays int `mapstructure:"default_range_days" yaml:"default_range_days"`
}

// CacheConfig holds cache lifetimes and the optional shared ticker store.
type CacheConfig struct {
	StockListTTL    time.Duration `mapstructure:"stock_list_ttl"   yaml:"stock_list_ttl"`
	AvailabilityTTL time.Duration `mapstructure:"availability_ttl" yaml:"availability_ttl"`
	TickerTTL       time.Duration `mapstructure:"ticker_ttl"       yaml:"ticker_ttl"`
	RedisURL        string        `mapstructure:"redis_url"        yaml:"redis_url"` // empty disables the shared store
}

// TimeoutConfig holds per-call upstream timeouts.
type TimeoutConfig struct {
	Metadata time.Duration `mapstructure:"metadata" yaml:"metadata"` // profile and search calls
	Feed     time.Duration `mapstructure:"feed"     yaml:"feed"`     // feed pages and symbol lists
}

// APIConfig holds HTTP API server settings.
type APIConfig struct {
	Host        string   `mapstructure:"host"         yaml:"host"`
	Port        int      `mapstructure:"port"         yaml:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format"` // "text" or "json"
}

const envPrefix = "SECFILTER"

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.secfilter/config.yaml (home directory)
//  3. /etc/secfilter/config.yaml (system)
//
// A .env file in the working directory is loaded first if present.
// Environment variables override config file values.
// Format: SECFILTER_<SECTION>_<KEY>, e.g., SECFILTER_FMP_API_KEY
func Load() (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".secfilter"))
	v.AddConfigPath("/etc/secfilter")

	// Read config file (not required to exist)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return decode(v)
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}
	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	overrideFromEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	// SEC defaults
	v.SetDefault("sec.base_url", "https://www.sec.gov")
	v.SetDefault("sec.user_agent", "secfilter/1.0 contact@example.com")
	v.SetDefault("sec.rate_limit", 8)

	// FMP defaults
	v.SetDefault("fmp.base_url", "https://financialmodelingprep.com/api")
	v.SetDefault("fmp.rate_limit", 3.0)

	// OTC defaults
	v.SetDefault("otc.base_url", "https://backend.otcmarkets.com/otcapi")
	v.SetDefault("otc.symbols_url", "https://www.otcmarkets.com/data/symbols")

	// Pipeline defaults
	v.SetDefault("pipeline.batch_size", 5)
	v.SetDefault("pipeline.recent_window_days", 30)
	v.SetDefault("pipeline.max_pages", 50)
	v.SetDefault("pipeline.empty_page_limit", 3)
	v.SetDefault("pipeline.default_limit", 50)
	v.SetDefault("pipeline.default_range_days", 30)

	// Cache defaults
	v.SetDefault("cache.stock_list_ttl", "24h")
	v.SetDefault("cache.availability_ttl", "1h")
	v.SetDefault("cache.ticker_ttl", "24h")
	v.SetDefault("cache.redis_url", "")

	// Timeout defaults
	v.SetDefault("timeouts.metadata", "10s")
	v.SetDefault("timeouts.feed", "30s")

	// API defaults
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.cors_origins", []string{"http://localhost:3000"})

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// overrideFromEnv explicitly reads sensitive keys from environment variables.
// The bare FMP_API_KEY is honored as well as the prefixed form.
func overrideFromEnv(cfg *Config) {
	if key := os.Getenv("FMP_API_KEY"); key != "" {
		cfg.FMP.APIKey = key
	}
	if key := os.Getenv("SECFILTER_FMP_API_KEY"); key != "" {
		cfg.FMP.APIKey = key
	}
}

// Validate checks values that would make the pipeline misbehave.
func (c *Config) Validate() error {
	switch {
	case c.SEC.UserAgent == "":
		return fmt.Errorf("config: sec.user_agent must not be empty")
	case c.SEC.RateLimit < 1:
		return fmt.Errorf("config: sec.rate_limit must be >= 1, got %d", c.SEC.RateLimit)
	case c.FMP.RateLimit <= 0:
		return fmt.Errorf("config: fmp.rate_limit must be > 0, got %g", c.FMP.RateLimit)
	case c.Pipeline.BatchSize < 1:
		return fmt.Errorf("config: pipeline.batch_size must be >= 1, got %d", c.Pipeline.BatchSize)
	case c.Pipeline.MaxPages < 1:
		return fmt.Errorf("config: pipeline.max_pages must be >= 1, got %d", c.Pipeline.MaxPages)
	case c.API.Port < 0 || c.API.Port > 65535:
		return fmt.Errorf("config: api.port out of range: %d", c.API.Port)
	}
	return nil
}

// Dump renders cfg as YAML with secrets masked.
func Dump(cfg *Config) ([]byte, error) {
	masked := *cfg
	if masked.FMP.APIKey != "" {
		masked.FMP.APIKey = maskKey(masked.FMP.APIKey)
	}
	return yaml.Marshal(&masked)
}

// loadDotEnv loads path into the environment without overriding variables
// that are already set. A missing file is not an error.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
