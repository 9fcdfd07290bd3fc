package config

import "time"

// Config is the root configuration for a walletd instance.
type Config struct {
	Wallet   WalletConfig  `yaml:"wallet"`
	Bridge   BridgeConfig  `yaml:"bridge"`
	Database DBConfig      `yaml:"database"`
	Journal  JournalConfig `yaml:"journal"`
	HTTP     HTTPConfig    `yaml:"http"`
	Metrics  MetricsConfig `yaml:"metrics"`
	Logging  LoggingConfig `yaml:"logging"`
}

// WalletConfig holds session settings.
type WalletConfig struct {
	Whitelist      []string         `yaml:"whitelist"`       // Service IDs authorized at connect
	Host           string           `yaml:"host"`            // Network host sent with the handshake
	DemoSeed       string           `yaml:"demo_seed"`       // Seed for the derived demo identifier
	DemoIdentifier string           `yaml:"demo_identifier"` // Overrides the derived identifier
	DemoBalances   []DemoBalanceRow `yaml:"demo_balances"`   // Ordered demo table
}

// DemoBalanceRow is one configured demo balance. Amount stays a string so the
// configured text is served verbatim.
type DemoBalanceRow struct {
	Asset  string `yaml:"asset"`
	Amount string `yaml:"amount"`
}

// BridgeConfig holds the wallet bridge connection. An empty URL means no
// wallet is present.
type BridgeConfig struct {
	URL              string         `yaml:"url"`
	Origin           string         `yaml:"origin"`
	HandshakeTimeout time.Duration  `yaml:"handshake_timeout"`
	CallTimeout      *time.Duration `yaml:"call_timeout"` // Unset = default; 0 = caller context only
	WriteTimeout     time.Duration  `yaml:"write_timeout"`
	PingTimeout      time.Duration  `yaml:"ping_timeout"`
}

// Enabled reports whether a bridge URL is configured.
func (b BridgeConfig) Enabled() bool {
	return b.URL != ""
}

// RequestTimeout returns the per-call timeout. Zero leaves each call bounded
// by the caller's context only.
func (b BridgeConfig) RequestTimeout() time.Duration {
	if b.CallTimeout == nil {
		return DefaultCallTimeout
	}
	return *b.CallTimeout
}

// DBConfig holds the journal database connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// Enabled reports whether the journal database is configured.
func (db DBConfig) Enabled() bool {
	return db.Host != ""
}

// JournalConfig holds event journal writer settings.
type JournalConfig struct {
	BatchSize     int           `yaml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
	BufferSize    int           `yaml:"buffer_size"`
}

// HTTPConfig holds the API listener settings.
type HTTPConfig struct {
	Addr         string  `yaml:"addr"`
	ConnectRPS   float64 `yaml:"connect_rps"`   // Sustained POST /connect rate
	ConnectBurst int     `yaml:"connect_burst"` // POST /connect burst
}

// MetricsConfig holds Prometheus metrics settings.
type MetricsConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig selects the slog handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}
