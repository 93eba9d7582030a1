package config

import (
	"fmt"
	"time"
)

// SyncConfig is the root configuration for a tradesync instance.
type SyncConfig struct {
	API     APIConfig     `yaml:"api"`
	Market  MarketConfig  `yaml:"market"`
	Poller  PollerConfig  `yaml:"poller"`
	Order   OrderConfig   `yaml:"order"`
	Gateway GatewayConfig `yaml:"gateway"`
	Log     LogConfig     `yaml:"log"`
}

// APIConfig holds matching engine API settings.
type APIConfig struct {
	BaseURL    string        `yaml:"base_url"` // Falls back to $MARKET_API_BASE_URL
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"` // Applies to GETs only
	Timezone   string        `yaml:"timezone"`    // Zone of engine timestamps without an offset
}

// MarketConfig selects the synchronized market.
type MarketConfig struct {
	ID          string `yaml:"id"`
	TradesLimit int    `yaml:"trades_limit"`
}

// PollerConfig holds sync loop settings.
type PollerConfig struct {
	Interval time.Duration `yaml:"interval"`
}

// OrderConfig holds order form session defaults.
type OrderConfig struct {
	AccountID       string `yaml:"account_id"` // Generated per run when empty
	DefaultPrice    int    `yaml:"default_price"`
	DefaultQuantity int    `yaml:"default_quantity"`
}

// GatewayConfig holds local view server settings.
type GatewayConfig struct {
	Enabled        *bool    `yaml:"enabled"`
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// GatewayEnabled reports whether the gateway should run. Defaults to true.
func (c *SyncConfig) GatewayEnabled() bool {
	return c.Gateway.Enabled == nil || *c.Gateway.Enabled
}

// Location resolves api.timezone. "Local" is the zone of this host.
func (c *APIConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("api.timezone: unknown time zone %q", c.Timezone)
	}
	return loc, nil
}
