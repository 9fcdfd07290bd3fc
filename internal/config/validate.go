package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if err := c.Wallet.validate(); err != nil {
		return err
	}

	if c.Bridge.Enabled() {
		u, err := url.Parse(c.Bridge.URL)
		if err != nil {
			return fmt.Errorf("bridge.url: %w", err)
		}
		if u.Scheme != "ws" && u.Scheme != "wss" {
			return fmt.Errorf("bridge.url scheme must be ws or wss, got %q", u.Scheme)
		}
		if u.Host == "" {
			return errors.New("bridge.url host is required")
		}
	}
	if c.Bridge.RequestTimeout() < 0 {
		return errors.New("bridge.call_timeout must be >= 0")
	}
	if c.Bridge.PingTimeout < 0 {
		return errors.New("bridge.ping_timeout must be >= 0")
	}

	if c.Database.Enabled() {
		if err := c.Database.validate("database"); err != nil {
			return err
		}
	}

	if c.Journal.BatchSize < 1 {
		return errors.New("journal.batch_size must be >= 1")
	}
	if c.Journal.BufferSize < 1 {
		return errors.New("journal.buffer_size must be >= 1")
	}
	if c.Journal.FlushInterval <= 0 {
		return errors.New("journal.flush_interval must be > 0")
	}

	if c.HTTP.ConnectRPS <= 0 {
		return fmt.Errorf("http.connect_rps must be > 0, got %v", c.HTTP.ConnectRPS)
	}
	if c.HTTP.ConnectBurst < 1 {
		return errors.New("http.connect_burst must be >= 1")
	}

	if !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path must start with /, got %q", c.Metrics.Path)
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}

	return nil
}

func (w *WalletConfig) validate() error {
	seen := make(map[string]bool, len(w.DemoBalances))
	for i, row := range w.DemoBalances {
		if row.Asset == "" {
			return fmt.Errorf("wallet.demo_balances[%d].asset is required", i)
		}
		if seen[row.Asset] {
			return fmt.Errorf("wallet.demo_balances[%d]: duplicate asset %q", i, row.Asset)
		}
		seen[row.Asset] = true
		if _, err := decimal.NewFromString(row.Amount); err != nil {
			return fmt.Errorf("wallet.demo_balances[%d].amount %q is not a decimal", i, row.Amount)
		}
	}
	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}
