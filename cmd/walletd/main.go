package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/rickgao/walletlink/internal/bridge"
	"github.com/rickgao/walletlink/internal/config"
	"github.com/rickgao/walletlink/internal/database"
	"github.com/rickgao/walletlink/internal/httpapi"
	"github.com/rickgao/walletlink/internal/journal"
	"github.com/rickgao/walletlink/internal/metrics"
	"github.com/rickgao/walletlink/internal/version"
	"github.com/rickgao/walletlink/internal/wallet"
)

func main() {
	configPath := flag.String("config", "", "path to config file (empty = built-in defaults)")
	flag.Parse()

	// Load configuration
	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.LoadAndValidate(*configPath)
		if err != nil {
			slog.Error("failed to load config", "error", err, "config", *configPath)
			os.Exit(1)
		}
	}

	// Set up structured logging
	logger := newLogger(cfg.Logging, os.Stdout)
	slog.SetDefault(logger)

	logger.Info("starting walletd",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	if err := run(cfg, logger); err != nil {
		logger.Error("walletd failed", "error", err)
		os.Exit(1)
	}
	logger.Info("walletd stopped")
}

func run(cfg *config.Config, logger *slog.Logger) error {
	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	recorder, err := metrics.NewRecorder(registry)
	if err != nil {
		return err
	}
	sinks := wallet.MultiSink{recorder}
	checks := map[string]httpapi.HealthCheck{}

	// Event journal (optional)
	if cfg.Database.Enabled() {
		logger.Info("connecting to database",
			"host", cfg.Database.Host,
			"port", cfg.Database.Port,
			"database", cfg.Database.Name,
		)

		pool, err := database.Connect(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer pool.Close()

		if err := journal.EnsureSchema(ctx, pool); err != nil {
			return err
		}
		logger.Info("database connected")

		writer := journal.NewWriter(journalConfig(cfg.Journal), pool, logger.With("component", "journal"))
		if err := writer.Start(ctx); err != nil {
			return err
		}
		defer func() {
			stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer stopCancel()
			writer.Stop(stopCtx)
		}()

		if err := metrics.RegisterJournal(registry, writer.Stats); err != nil {
			return err
		}
		sinks = append(sinks, writer)
		checks["database"] = pool.Ping
	} else {
		logger.Info("journal disabled, no database configured")
	}

	// Wallet provider (optional)
	var provider wallet.Provider
	if cfg.Bridge.Enabled() {
		client := bridge.NewClient(bridgeConfig(cfg.Bridge), logger.With("component", "bridge"))
		defer client.Close()
		provider = bridge.NewProvider(client, logger.With("component", "bridge"))

		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case err := <-client.Errors():
					logger.Warn("bridge connection error", "error", err)
				}
			}
		}()
		logger.Info("wallet bridge configured", "url", cfg.Bridge.URL)
	} else {
		logger.Info("no wallet bridge configured, sessions will be demo only")
	}

	walletCfg, err := walletConfig(cfg.Wallet)
	if err != nil {
		return err
	}
	manager := wallet.NewManager(walletCfg, provider,
		wallet.WithLogger(logger.With("component", "wallet")),
		wallet.WithEventSink(sinks),
	)
	manager.Subscribe(func(st wallet.SessionState) {
		logger.Info("session state",
			"status", st.Status,
			"identifier", st.Identifier,
			"demo", st.IsDemo,
		)
	})

	// Adopt a session the wallet already authorized
	manager.CheckExistingConnection(ctx)

	// HTTP API
	api := httpapi.NewServer(serverConfig(cfg), manager, metrics.Handler(registry), logger.With("component", "http"))
	for name, check := range checks {
		api.AddHealthCheck(name, check)
	}

	server := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           api.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		// Streams end when the process is asked to stop
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("starting http server", "addr", cfg.HTTP.Addr)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	logger.Info("walletd running",
		"addr", cfg.HTTP.Addr,
		"provider_present", manager.ProviderPresent(),
		"journal", cfg.Database.Enabled(),
	)

	// Wait for shutdown
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		return err
	}

	logger.Info("shutting down...")

	// Graceful shutdown of http server
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	return server.Shutdown(shutdownCtx)
}
