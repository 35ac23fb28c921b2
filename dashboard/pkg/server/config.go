package server

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// VersionInfo contains build-time version information.
type VersionInfo struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

type Config struct {
	Logger            *slog.Logger
	ListenAddr        string
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
	VersionInfo       VersionInfo

	// AllowedOrigins lists the browser origins allowed to call /api. Empty allows any.
	AllowedOrigins []string

	// Ready reports whether the warehouse can serve queries. Nil means always ready.
	Ready func(ctx context.Context) error
}

func (cfg *Config) Validate() error {
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	if cfg.ListenAddr == "" {
		return errors.New("listen addr is required")
	}
	if cfg.ReadHeaderTimeout <= 0 {
		cfg.ReadHeaderTimeout = 10 * time.Second
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}
	return nil
}
