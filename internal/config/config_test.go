package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	yaml := `
api:
  base_url: http://localhost:8000
  timeout: 3s
  max_retries: 2
market:
  id: election_2024
  trades_limit: 50
poller:
  interval: 1500ms
order:
  account_id: alice
gateway:
  addr: ":9000"
  allowed_origins: ["http://example.test"]
log:
  level: debug
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.API.BaseURL != "http://localhost:8000" {
		t.Errorf("API.BaseURL = %q", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 3*time.Second || cfg.API.MaxRetries != 2 {
		t.Errorf("API = %+v", cfg.API)
	}
	if cfg.Market.ID != "election_2024" || cfg.Market.TradesLimit != 50 {
		t.Errorf("Market = %+v", cfg.Market)
	}
	if cfg.Poller.Interval != 1500*time.Millisecond {
		t.Errorf("Poller.Interval = %v", cfg.Poller.Interval)
	}
	if cfg.Order.AccountID != "alice" {
		t.Errorf("Order.AccountID = %q", cfg.Order.AccountID)
	}
	if cfg.Gateway.Addr != ":9000" || len(cfg.Gateway.AllowedOrigins) != 1 {
		t.Errorf("Gateway = %+v", cfg.Gateway)
	}
}

func TestLoadWithEnvSubstitution(t *testing.T) {
	t.Setenv("TEST_BACKEND_URL", "http://engine:8000")

	path := writeTempFile(t, `
api:
  base_url: ${TEST_BACKEND_URL}
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.API.BaseURL != "http://engine:8000" {
		t.Errorf("API.BaseURL = %q, want %q", cfg.API.BaseURL, "http://engine:8000")
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".env"), "TEST_DOTENV_MARKET=from_dotenv\n")
	writeFile(t, filepath.Join(dir, "config.yaml"), "market:\n  id: ${TEST_DOTENV_MARKET}\n")
	t.Cleanup(func() { os.Unsetenv("TEST_DOTENV_MARKET") })

	cfg, err := Load(filepath.Join(dir, "config.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Market.ID != "from_dotenv" {
		t.Errorf("Market.ID = %q, want from_dotenv", cfg.Market.ID)
	}
}

func TestLoadDotEnvDoesNotOverride(t *testing.T) {
	t.Setenv("TEST_DOTENV_OVERRIDE", "from_env")

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".env"), "TEST_DOTENV_OVERRIDE=from_dotenv\n")
	writeFile(t, filepath.Join(dir, "config.yaml"), "market:\n  id: ${TEST_DOTENV_OVERRIDE}\n")

	cfg, err := Load(filepath.Join(dir, "config.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Market.ID != "from_env" {
		t.Errorf("Market.ID = %q, want from_env", cfg.Market.ID)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil || !strings.Contains(err.Error(), "read config file") {
		t.Errorf("Load() error = %v, want read config file error", err)
	}
}

func TestLoadWithDefaults(t *testing.T) {
	t.Setenv(BaseURLEnv, "http://fallback:8000")
	path := writeTempFile(t, "log:\n  level: warn\n")

	cfg, err := LoadWithDefaults(path)
	if err != nil {
		t.Fatalf("LoadWithDefaults failed: %v", err)
	}

	if cfg.API.BaseURL != "http://fallback:8000" {
		t.Errorf("API.BaseURL = %q, want env fallback", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != DefaultAPITimeout {
		t.Errorf("API.Timeout = %v, want default %v", cfg.API.Timeout, DefaultAPITimeout)
	}
	if cfg.API.MaxRetries != 0 {
		t.Errorf("API.MaxRetries = %d, want 0", cfg.API.MaxRetries)
	}
	if cfg.API.Timezone != DefaultTimezone {
		t.Errorf("API.Timezone = %q, want %q", cfg.API.Timezone, DefaultTimezone)
	}
	if cfg.Market.ID != DefaultMarketID || cfg.Market.TradesLimit != DefaultTradesLimit {
		t.Errorf("Market = %+v", cfg.Market)
	}
	if cfg.Poller.Interval != DefaultPollInterval {
		t.Errorf("Poller.Interval = %v, want default %v", cfg.Poller.Interval, DefaultPollInterval)
	}
	if cfg.Order.DefaultPrice != DefaultOrderPrice || cfg.Order.DefaultQuantity != DefaultOrderQuantity {
		t.Errorf("Order = %+v", cfg.Order)
	}
	if cfg.Gateway.Addr != DefaultGatewayAddr || len(cfg.Gateway.AllowedOrigins) != len(DefaultAllowedOrigins) {
		t.Errorf("Gateway = %+v", cfg.Gateway)
	}
	if !cfg.GatewayEnabled() {
		t.Error("gateway disabled by default")
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("Log.Level = %q, want warn", cfg.Log.Level)
	}
}

func TestLoadAndValidate(t *testing.T) {
	t.Setenv(BaseURLEnv, "")
	path := writeTempFile(t, "market:\n  id: m\n")

	_, err := LoadAndValidate(path)
	if err == nil || !strings.Contains(err.Error(), "api.base_url is required") {
		t.Errorf("LoadAndValidate() error = %v, want missing base_url", err)
	}
}

func validConfig() SyncConfig {
	return SyncConfig{
		API:     APIConfig{BaseURL: "http://localhost:8000", Timeout: 5 * time.Second},
		Market:  MarketConfig{ID: "m", TradesLimit: 20},
		Poller:  PollerConfig{Interval: 4 * time.Second},
		Order:   OrderConfig{DefaultPrice: 50, DefaultQuantity: 10},
		Gateway: GatewayConfig{Addr: ":8090"},
		Log:     LogConfig{Level: "info"},
	}
}

func TestValidate(t *testing.T) {
	disabled := false

	tests := []struct {
		name    string
		mutate  func(c *SyncConfig)
		wantErr string
	}{
		{"valid config", func(c *SyncConfig) {}, ""},
		{"missing base url", func(c *SyncConfig) { c.API.BaseURL = "" }, "api.base_url is required (or set MARKET_API_BASE_URL)"},
		{"non-http base url", func(c *SyncConfig) { c.API.BaseURL = "ftp://x" }, `api.base_url must be an http(s) URL, got "ftp://x"`},
		{"zero timeout", func(c *SyncConfig) { c.API.Timeout = 0 }, "api.timeout must be > 0"},
		{"negative retries", func(c *SyncConfig) { c.API.MaxRetries = -1 }, "api.max_retries must be >= 0"},
		{"local timezone", func(c *SyncConfig) { c.API.Timezone = "Local" }, ""},
		{"unknown timezone", func(c *SyncConfig) { c.API.Timezone = "Mars/Olympus" }, `api.timezone: unknown time zone "Mars/Olympus"`},
		{"missing market", func(c *SyncConfig) { c.Market.ID = "" }, "market.id is required"},
		{"zero trades limit", func(c *SyncConfig) { c.Market.TradesLimit = 0 }, "market.trades_limit must be >= 1"},
		{"zero interval", func(c *SyncConfig) { c.Poller.Interval = 0 }, "poller.interval must be > 0"},
		{"price out of range", func(c *SyncConfig) { c.Order.DefaultPrice = 101 }, "order.default_price must be between 0 and 100, got 101"},
		{"zero quantity", func(c *SyncConfig) { c.Order.DefaultQuantity = 0 }, "order.default_quantity must be >= 1"},
		{"gateway without addr", func(c *SyncConfig) { c.Gateway.Addr = "" }, "gateway.addr is required when the gateway is enabled"},
		{"disabled gateway without addr", func(c *SyncConfig) {
			c.Gateway.Addr = ""
			c.Gateway.Enabled = &disabled
		}, ""},
		{"bad log level", func(c *SyncConfig) { c.Log.Level = "loud" }, `log.level must be one of debug, info, warn, error, got "loud"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
			} else {
				if err == nil {
					t.Errorf("Validate() expected error containing %q, got nil", tt.wantErr)
				} else if err.Error() != tt.wantErr {
					t.Errorf("Validate() error = %q, want %q", err.Error(), tt.wantErr)
				}
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Errorf("ParseLevel(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
}

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, content)
	return path
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
}
