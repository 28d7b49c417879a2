package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// clearKeyEnv blanks every environment variable that can carry the FMP key.
func clearKeyEnv(t *testing.T) {
	t.Helper()
	t.Setenv("FMP_API_KEY", "")
	t.Setenv("SECFILTER_FMP_API_KEY", "")
}

// ── Load / Defaults ──

func TestLoadReturnsDefaults(t *testing.T) {
	clearKeyEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	// SEC defaults
	if cfg.SEC.BaseURL != "https://www.sec.gov" {
		t.Errorf("SEC.BaseURL: got %q", cfg.SEC.BaseURL)
	}
	if cfg.SEC.RateLimit != 8 {
		t.Errorf("SEC.RateLimit: got %d, want 8", cfg.SEC.RateLimit)
	}
	if cfg.SEC.UserAgent == "" {
		t.Error("SEC.UserAgent should have a default")
	}

	// FMP defaults
	if cfg.FMP.BaseURL != "https://financialmodelingprep.com/api" {
		t.Errorf("FMP.BaseURL: got %q", cfg.FMP.BaseURL)
	}
	if cfg.FMP.RateLimit != 3.0 {
		t.Errorf("FMP.RateLimit: got %f, want 3.0", cfg.FMP.RateLimit)
	}
	if cfg.FMP.APIKey != "" {
		t.Errorf("FMP.APIKey: got %q, want empty", cfg.FMP.APIKey)
	}

	// Pipeline defaults
	if cfg.Pipeline.BatchSize != 5 {
		t.Errorf("Pipeline.BatchSize: got %d, want 5", cfg.Pipeline.BatchSize)
	}
	if cfg.Pipeline.RecentWindowDays != 30 {
		t.Errorf("Pipeline.RecentWindowDays: got %d, want 30", cfg.Pipeline.RecentWindowDays)
	}
	if cfg.Pipeline.MaxPages != 50 {
		t.Errorf("Pipeline.MaxPages: got %d, want 50", cfg.Pipeline.MaxPages)
	}
	if cfg.Pipeline.EmptyPageLimit != 3 {
		t.Errorf("Pipeline.EmptyPageLimit: got %d, want 3", cfg.Pipeline.EmptyPageLimit)
	}

	// Cache and timeout defaults
	if cfg.Cache.StockListTTL != 24*time.Hour {
		t.Errorf("Cache.StockListTTL: got %v, want 24h", cfg.Cache.StockListTTL)
	}
	if cfg.Cache.AvailabilityTTL != time.Hour {
		t.Errorf("Cache.AvailabilityTTL: got %v, want 1h", cfg.Cache.AvailabilityTTL)
	}
	if cfg.Timeouts.Metadata != 10*time.Second {
		t.Errorf("Timeouts.Metadata: got %v, want 10s", cfg.Timeouts.Metadata)
	}
	if cfg.Timeouts.Feed != 30*time.Second {
		t.Errorf("Timeouts.Feed: got %v, want 30s", cfg.Timeouts.Feed)
	}

	// API defaults
	if cfg.API.Host != "0.0.0.0" {
		t.Errorf("API.Host: got %q, want %q", cfg.API.Host, "0.0.0.0")
	}
	if cfg.API.Port != 8080 {
		t.Errorf("API.Port: got %d, want 8080", cfg.API.Port)
	}

	// Logging defaults
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level: got %q, want %q", cfg.Logging.Level, "info")
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Logging.Format: got %q, want %q", cfg.Logging.Format, "text")
	}
}

func TestLoadFromFile(t *testing.T) {
	clearKeyEnv(t)

	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "test_config.yaml")
	content := []byte(`
sec:
  user_agent: "Acme Research research@acme.test"
  rate_limit: 5
fmp:
  api_key: "fmp_key_1234567890"
  rate_limit: 2.5
pipeline:
  batch_size: 3
cache:
  stock_list_ttl: "12h"
  redis_url: "redis://localhost:6379/0"
api:
  port: 9090
logging:
  level: "debug"
  format: "json"
`)
	if err := os.WriteFile(cfgPath, content, 0644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}

	cfg, err := LoadFromFile(cfgPath)
	if err != nil {
		t.Fatalf("LoadFromFile() error: %v", err)
	}
	if cfg.SEC.UserAgent != "Acme Research research@acme.test" {
		t.Errorf("SEC.UserAgent: got %q", cfg.SEC.UserAgent)
	}
	if cfg.SEC.RateLimit != 5 {
		t.Errorf("SEC.RateLimit: got %d, want 5", cfg.SEC.RateLimit)
	}
	if cfg.FMP.APIKey != "fmp_key_1234567890" {
		t.Errorf("FMP.APIKey: got %q", cfg.FMP.APIKey)
	}
	if cfg.FMP.RateLimit != 2.5 {
		t.Errorf("FMP.RateLimit: got %f, want 2.5", cfg.FMP.RateLimit)
	}
	if cfg.Pipeline.BatchSize != 3 {
		t.Errorf("Pipeline.BatchSize: got %d, want 3", cfg.Pipeline.BatchSize)
	}
	// Untouched keys keep their defaults.
	if cfg.Pipeline.MaxPages != 50 {
		t.Errorf("Pipeline.MaxPages: got %d, want 50", cfg.Pipeline.MaxPages)
	}
	if cfg.Cache.StockListTTL != 12*time.Hour {
		t.Errorf("Cache.StockListTTL: got %v, want 12h", cfg.Cache.StockListTTL)
	}
	if cfg.Cache.RedisURL != "redis://localhost:6379/0" {
		t.Errorf("Cache.RedisURL: got %q", cfg.Cache.RedisURL)
	}
	if cfg.API.Port != 9090 {
		t.Errorf("API.Port: got %d, want 9090", cfg.API.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level: got %q, want %q", cfg.Logging.Level, "debug")
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Logging.Format: got %q, want %q", cfg.Logging.Format, "json")
	}
}

func TestLoadFromFileNotFound(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("LoadFromFile() with nonexistent path should return error")
	}
}

func TestLoadFromFileRejectsInvalid(t *testing.T) {
	clearKeyEnv(t)

	cfgPath := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(cfgPath, []byte("pipeline:\n  batch_size: 0\n"), 0644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	if _, err := LoadFromFile(cfgPath); err == nil {
		t.Error("expected validation error for batch_size 0")
	}
}

func TestEnvOverridesFile(t *testing.T) {
	clearKeyEnv(t)
	t.Setenv("SECFILTER_API_PORT", "7070")

	cfgPath := filepath.Join(t.TempDir(), "c.yaml")
	if err := os.WriteFile(cfgPath, []byte("api:\n  port: 9090\n"), 0644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	cfg, err := LoadFromFile(cfgPath)
	if err != nil {
		t.Fatalf("LoadFromFile() error: %v", err)
	}
	if cfg.API.Port != 7070 {
		t.Errorf("API.Port: got %d, want 7070", cfg.API.Port)
	}
}

// ── overrideFromEnv ──

func TestOverrideFromEnv(t *testing.T) {
	clearKeyEnv(t)
	t.Setenv("FMP_API_KEY", "bare-fmp-key")

	cfg := &Config{}
	overrideFromEnv(cfg)
	if cfg.FMP.APIKey != "bare-fmp-key" {
		t.Errorf("FMP.APIKey: got %q", cfg.FMP.APIKey)
	}

	// The prefixed variable wins over the bare one.
	t.Setenv("SECFILTER_FMP_API_KEY", "prefixed-fmp-key")
	overrideFromEnv(cfg)
	if cfg.FMP.APIKey != "prefixed-fmp-key" {
		t.Errorf("FMP.APIKey: got %q", cfg.FMP.APIKey)
	}
}

func TestOverrideFromEnvNoEnvSet(t *testing.T) {
	clearKeyEnv(t)

	cfg := &Config{FMP: FMPConfig{APIKey: "from-config"}}
	overrideFromEnv(cfg)

	// Should retain the original value when env is not set
	if cfg.FMP.APIKey != "from-config" {
		t.Errorf("FMP.APIKey should stay as 'from-config' when env is unset, got %q", cfg.FMP.APIKey)
	}
}

// ── .env ──

func TestLoadDotEnv(t *testing.T) {
	clearKeyEnv(t)
	os.Unsetenv("FMP_API_KEY")

	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("FMP_API_KEY=dotenv-key-123456\n"), 0644); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	if err := loadDotEnv(path); err != nil {
		t.Fatalf("loadDotEnv: %v", err)
	}
	if got := os.Getenv("FMP_API_KEY"); got != "dotenv-key-123456" {
		t.Errorf("FMP_API_KEY: got %q", got)
	}
}

func TestLoadDotEnvMissingFile(t *testing.T) {
	if err := loadDotEnv(filepath.Join(t.TempDir(), ".env")); err != nil {
		t.Errorf("missing .env should not be an error, got %v", err)
	}
}

// ── Dump ──

func TestDumpMasksAPIKey(t *testing.T) {
	cfg := &Config{
		FMP:   FMPConfig{APIKey: "abcdefghijklmnop"},
		Cache: CacheConfig{StockListTTL: 24 * time.Hour},
	}
	out, err := Dump(cfg)
	if err != nil {
		t.Fatalf("Dump: %v", err)
	}
	s := string(out)
	if strings.Contains(s, "abcdefghijklmnop") {
		t.Error("Dump leaked the API key")
	}
	if !strings.Contains(s, "abc...nop") {
		t.Errorf("Dump: masked key missing in\n%s", s)
	}
	if !strings.Contains(s, "stock_list_ttl: 24h0m0s") {
		t.Errorf("Dump: duration not rendered as string in\n%s", s)
	}
	if cfg.FMP.APIKey != "abcdefghijklmnop" {
		t.Error("Dump must not modify the original config")
	}
}

// ── maskKey ──

func TestMaskKeyShort(t *testing.T) {
	// Keys with 8 or fewer characters should be fully masked
	tests := []struct {
		input string
		want  string
	}{
		{"", "***"},
		{"a", "***"},
		{"abcd", "***"},
		{"12345678", "***"},
	}
	for _, tc := range tests {
		got := maskKey(tc.input)
		if got != tc.want {
			t.Errorf("maskKey(%q): got %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestMaskKeyLong(t *testing.T) {
	// Keys with more than 8 characters show first 3 + ... + last 3
	tests := []struct {
		input string
		want  string
	}{
		{"123456789", "123...789"},
		{"fmp-abcdef1234567890xyz", "fmp...xyz"},
		{"ABCDEFGHIJKLMNOP", "ABC...NOP"},
	}
	for _, tc := range tests {
		got := maskKey(tc.input)
		if got != tc.want {
			t.Errorf("maskKey(%q): got %q, want %q", tc.input, got, tc.want)
		}
	}
}

// ── CheckAPIKeys / checkKey ──

func TestCheckAPIKeysEmpty(t *testing.T) {
	clearKeyEnv(t)

	statuses := CheckAPIKeys(&Config{})
	if len(statuses) != 1 {
		t.Fatalf("CheckAPIKeys: got %d statuses, want 1", len(statuses))
	}
	if statuses[0].IsSet {
		t.Errorf("Key %q should not be set", statuses[0].Name)
	}
	if statuses[0].Source != KeySourceNone {
		t.Errorf("Source: got %q, want %q", statuses[0].Source, KeySourceNone)
	}
}

func TestCheckAPIKeysFromConfig(t *testing.T) {
	clearKeyEnv(t)

	cfg := &Config{FMP: FMPConfig{APIKey: "fmp-test-very-long-key-value"}}
	s := CheckAPIKeys(cfg)[0]
	if !s.IsSet {
		t.Error("FMP key should be set")
	}
	if s.Source != KeySourceConfig {
		t.Errorf("Source: got %q, want %q", s.Source, KeySourceConfig)
	}
	if s.Masked != "fmp...lue" {
		t.Errorf("Masked: got %q, want %q", s.Masked, "fmp...lue")
	}
}

func TestCheckAPIKeysFromEnv(t *testing.T) {
	clearKeyEnv(t)
	t.Setenv("FMP_API_KEY", "fmp-env-key-for-testing")

	cfg := &Config{FMP: FMPConfig{APIKey: "fmp-env-key-for-testing"}}
	if s := CheckAPIKeys(cfg)[0]; s.Source != KeySourceEnv {
		t.Errorf("Source: got %q, want %q", s.Source, KeySourceEnv)
	}
}

func TestCheckKeySourceDetection(t *testing.T) {
	t.Setenv("TEST_VAR", "")

	// No env, no value
	s := checkKey("Test", "", "TEST_VAR")
	if s.Source != KeySourceNone {
		t.Errorf("empty value: got source %q, want %q", s.Source, KeySourceNone)
	}
	if s.IsSet {
		t.Error("empty value should not be set")
	}

	// Value from config (no env)
	s = checkKey("Test", "config-value-long-enough", "TEST_VAR")
	if s.Source != KeySourceConfig {
		t.Errorf("config value: got source %q, want %q", s.Source, KeySourceConfig)
	}

	// Value from env
	t.Setenv("TEST_VAR", "env-value-long-enough")
	s = checkKey("Test", "env-value-long-enough", "TEST_VAR")
	if s.Source != KeySourceEnv {
		t.Errorf("env value: got source %q, want %q", s.Source, KeySourceEnv)
	}
}

// ── homeDir ──

func TestHomeDirReturnsNonEmpty(t *testing.T) {
	if homeDir() == "" {
		t.Error("homeDir() should not return empty string")
	}
}
