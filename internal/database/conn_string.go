package database

import (
	"fmt"
	"net/url"

	"github.com/rickgao/walletlink/internal/config"
)

// BuildConnString builds a PostgreSQL connection string from config.
func BuildConnString(cfg config.DBConfig) string {
	// URL-encode credentials to handle special characters
	userinfo := url.QueryEscape(cfg.User)
	if cfg.Password != "" {
		userinfo += ":" + url.QueryEscape(cfg.Password)
	}

	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = config.DefaultDBSSLMode
	}

	port := cfg.Port
	if port == 0 {
		port = config.DefaultDBPort
	}

	return fmt.Sprintf(
		"postgres://%s@%s:%d/%s?sslmode=%s",
		userinfo,
		cfg.Host,
		port,
		cfg.Name,
		sslMode,
	)
}
