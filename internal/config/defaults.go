package config

import (
	"strings"
	"time"

	"github.com/rickgao/walletlink/internal/wallet"
)

// Default values for optional configuration fields.
const (
	DefaultHost             = wallet.DefaultHost
	DefaultDemoSeed         = wallet.DefaultDemoSeed
	DefaultHandshakeTimeout = 10 * time.Second
	DefaultCallTimeout      = 30 * time.Second
	DefaultWriteTimeout     = 5 * time.Second
	DefaultPingTimeout      = 60 * time.Second
	DefaultDBPort           = 5432
	DefaultDBSSLMode        = "prefer"
	DefaultMaxConns         = 4
	DefaultMinConns         = 1
	DefaultBatchSize        = 100
	DefaultFlushInterval    = 2 * time.Second
	DefaultBufferSize       = 1024
	DefaultHTTPAddr         = ":8080"
	DefaultConnectRPS       = 1.0
	DefaultConnectBurst     = 3
	DefaultMetricsPath      = "/metrics"
	DefaultLogLevel         = "info"
	DefaultLogFormat        = "text"
)

// DefaultDemoBalances is the demo table used when none is configured.
func DefaultDemoBalances() []DemoBalanceRow {
	entries := wallet.DefaultDemoEntries()
	rows := make([]DemoBalanceRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, DemoBalanceRow{Asset: e.Asset, Amount: e.Amount})
	}
	return rows
}

func (c *Config) applyDefaults() {
	// Wallet defaults
	c.Wallet.Whitelist = compact(c.Wallet.Whitelist)
	if c.Wallet.Host == "" {
		c.Wallet.Host = DefaultHost
	}
	if c.Wallet.DemoSeed == "" {
		c.Wallet.DemoSeed = DefaultDemoSeed
	}
	if len(c.Wallet.DemoBalances) == 0 {
		c.Wallet.DemoBalances = DefaultDemoBalances()
	}

	// Bridge defaults
	if c.Bridge.HandshakeTimeout == 0 {
		c.Bridge.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if c.Bridge.CallTimeout == nil {
		d := DefaultCallTimeout
		c.Bridge.CallTimeout = &d
	}
	if c.Bridge.WriteTimeout == 0 {
		c.Bridge.WriteTimeout = DefaultWriteTimeout
	}
	if c.Bridge.PingTimeout == 0 {
		c.Bridge.PingTimeout = DefaultPingTimeout
	}

	// Database defaults
	if c.Database.Port == 0 {
		c.Database.Port = DefaultDBPort
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = DefaultDBSSLMode
	}
	if c.Database.MaxConns == 0 {
		c.Database.MaxConns = DefaultMaxConns
	}
	if c.Database.MinConns == 0 {
		c.Database.MinConns = DefaultMinConns
	}

	// Journal defaults
	if c.Journal.BatchSize == 0 {
		c.Journal.BatchSize = DefaultBatchSize
	}
	if c.Journal.FlushInterval == 0 {
		c.Journal.FlushInterval = DefaultFlushInterval
	}
	if c.Journal.BufferSize == 0 {
		c.Journal.BufferSize = DefaultBufferSize
	}

	// HTTP defaults
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = DefaultHTTPAddr
	}
	if c.HTTP.ConnectRPS == 0 {
		c.HTTP.ConnectRPS = DefaultConnectRPS
	}
	if c.HTTP.ConnectBurst == 0 {
		c.HTTP.ConnectBurst = DefaultConnectBurst
	}

	// Metrics defaults
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}

	// Logging defaults
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = DefaultLogFormat
	}
}

// compact trims entries and drops empty ones.
func compact(ids []string) []string {
	out := ids[:0]
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
