package config

import (
	"os"
	"slices"
	"time"
)

// BaseURLEnv is consulted when api.base_url is empty.
const BaseURLEnv = "MARKET_API_BASE_URL"

// Default values for optional configuration fields.
const (
	DefaultAPITimeout    = 5 * time.Second
	DefaultTimezone      = "UTC"
	DefaultMarketID      = "default_market"
	DefaultTradesLimit   = 20
	DefaultPollInterval  = 4 * time.Second
	DefaultOrderPrice    = 50
	DefaultOrderQuantity = 10
	DefaultGatewayAddr   = ":8090"
	DefaultLogLevel      = "info"
)

// DefaultAllowedOrigins are the dev servers allowed by the gateway.
var DefaultAllowedOrigins = []string{"http://localhost:3000", "http://localhost:5173"}

func (c *SyncConfig) applyDefaults() {
	// API defaults
	if c.API.BaseURL == "" {
		c.API.BaseURL = os.Getenv(BaseURLEnv)
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = DefaultAPITimeout
	}
	if c.API.Timezone == "" {
		c.API.Timezone = DefaultTimezone
	}

	// Market defaults
	if c.Market.ID == "" {
		c.Market.ID = DefaultMarketID
	}
	if c.Market.TradesLimit == 0 {
		c.Market.TradesLimit = DefaultTradesLimit
	}

	if c.Poller.Interval == 0 {
		c.Poller.Interval = DefaultPollInterval
	}

	// Order form defaults
	if c.Order.DefaultPrice == 0 {
		c.Order.DefaultPrice = DefaultOrderPrice
	}
	if c.Order.DefaultQuantity == 0 {
		c.Order.DefaultQuantity = DefaultOrderQuantity
	}

	// Gateway defaults
	if c.Gateway.Addr == "" {
		c.Gateway.Addr = DefaultGatewayAddr
	}
	if len(c.Gateway.AllowedOrigins) == 0 {
		c.Gateway.AllowedOrigins = slices.Clone(DefaultAllowedOrigins)
	}

	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
}
