package main

import (
	"io"
	"log/slog"
	"strings"

	"github.com/rickgao/walletlink/internal/bridge"
	"github.com/rickgao/walletlink/internal/config"
	"github.com/rickgao/walletlink/internal/httpapi"
	"github.com/rickgao/walletlink/internal/journal"
	"github.com/rickgao/walletlink/internal/version"
	"github.com/rickgao/walletlink/internal/wallet"
)

// newLogger builds the process logger from the logging section.
func newLogger(cfg config.LoggingConfig, w io.Writer) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func walletConfig(cfg config.WalletConfig) (wallet.Config, error) {
	entries := make([]wallet.DemoEntry, 0, len(cfg.DemoBalances))
	for _, row := range cfg.DemoBalances {
		entries = append(entries, wallet.DemoEntry{Asset: row.Asset, Amount: row.Amount})
	}
	table, err := wallet.NewDemoBalances(entries)
	if err != nil {
		return wallet.Config{}, err
	}

	return wallet.Config{
		Whitelist:      cfg.Whitelist,
		Host:           cfg.Host,
		DemoIdentifier: cfg.DemoIdentifier,
		DemoSeed:       cfg.DemoSeed,
		DemoBalances:   table,
	}, nil
}

func bridgeConfig(cfg config.BridgeConfig) bridge.ClientConfig {
	return bridge.ClientConfig{
		URL:              cfg.URL,
		Origin:           cfg.Origin,
		UserAgent:        version.UserAgent(),
		HandshakeTimeout: cfg.HandshakeTimeout,
		CallTimeout:      cfg.RequestTimeout(),
		WriteTimeout:     cfg.WriteTimeout,
		PingTimeout:      cfg.PingTimeout,
	}
}

func journalConfig(cfg config.JournalConfig) journal.Config {
	return journal.Config{
		BatchSize:     cfg.BatchSize,
		FlushInterval: cfg.FlushInterval,
		BufferSize:    cfg.BufferSize,
	}
}

func serverConfig(cfg *config.Config) httpapi.Config {
	return httpapi.Config{
		ConnectRPS:   cfg.HTTP.ConnectRPS,
		ConnectBurst: cfg.HTTP.ConnectBurst,
		MetricsPath:  cfg.Metrics.Path,
	}
}
