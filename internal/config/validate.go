package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
)

// Validate checks that all required fields are set and values are valid.
func (c *SyncConfig) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url is required (or set %s)", BaseURLEnv)
	}
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("api.base_url must be an http(s) URL, got %q", c.API.BaseURL)
	}
	if c.API.Timeout <= 0 {
		return errors.New("api.timeout must be > 0")
	}
	if c.API.MaxRetries < 0 {
		return errors.New("api.max_retries must be >= 0")
	}
	if _, err := c.API.Location(); err != nil {
		return err
	}

	if c.Market.ID == "" {
		return errors.New("market.id is required")
	}
	if c.Market.TradesLimit < 1 {
		return errors.New("market.trades_limit must be >= 1")
	}

	if c.Poller.Interval <= 0 {
		return errors.New("poller.interval must be > 0")
	}

	if c.Order.DefaultPrice < 0 || c.Order.DefaultPrice > 100 {
		return fmt.Errorf("order.default_price must be between 0 and 100, got %d", c.Order.DefaultPrice)
	}
	if c.Order.DefaultQuantity < 1 {
		return errors.New("order.default_quantity must be >= 1")
	}

	if c.GatewayEnabled() && c.Gateway.Addr == "" {
		return errors.New("gateway.addr is required when the gateway is enabled")
	}

	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}

	return nil
}

// ParseLevel converts a log.level value to a slog level.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("log.level must be one of debug, info, warn, error, got %q", level)
}
