package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"

	"github.com/malbeclabs/orders-dashboard/api/config"
	"github.com/malbeclabs/orders-dashboard/api/metrics"
	"github.com/malbeclabs/orders-dashboard/dashboard/pkg/server"
	"github.com/malbeclabs/orders-dashboard/utils/pkg/logger"
	"github.com/malbeclabs/orders-dashboard/warehouse/pkg/clickhouse"
)

var (
	// Set by LDFLAGS
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const defaultListenAddr = "0.0.0.0:8080"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	verboseFlag := flag.Bool("verbose", false, "enable verbose (debug) logging")
	envFileFlag := flag.String("env-file", ".env", "file of environment variables to load if present")
	listenAddrFlag := flag.String("listen-addr", defaultListenAddr, "address to serve the dashboard API on (or set LISTEN_ADDR env var)")
	allowedOriginsFlag := flag.StringSlice("allowed-origins", nil, "browser origins allowed to call the API (or set ALLOWED_ORIGINS env var, comma separated)")
	shutdownTimeoutFlag := flag.Duration("shutdown-timeout", 30*time.Second, "maximum time to wait for in-flight requests during shutdown")
	sentryDSNFlag := flag.String("sentry-dsn", "", "Sentry DSN for error reporting (or set SENTRY_DSN env var)")
	sentryEnvironmentFlag := flag.String("sentry-environment", "development", "Sentry environment (or set SENTRY_ENVIRONMENT env var)")

	flag.Parse()

	log := logger.New(*verboseFlag)

	if err := godotenv.Load(*envFileFlag); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", *envFileFlag, err)
	}

	// Override flags with environment variables if set
	if envListenAddr := os.Getenv("LISTEN_ADDR"); envListenAddr != "" {
		*listenAddrFlag = envListenAddr
	}
	if envAllowedOrigins := os.Getenv("ALLOWED_ORIGINS"); envAllowedOrigins != "" {
		*allowedOriginsFlag = strings.Split(envAllowedOrigins, ",")
	}
	if envSentryDSN := os.Getenv("SENTRY_DSN"); envSentryDSN != "" {
		*sentryDSNFlag = envSentryDSN
	}
	if envSentryEnvironment := os.Getenv("SENTRY_ENVIRONMENT"); envSentryEnvironment != "" {
		*sentryEnvironmentFlag = envSentryEnvironment
	}

	if *sentryDSNFlag != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              *sentryDSNFlag,
			Environment:      *sentryEnvironmentFlag,
			Release:          version,
			AttachStacktrace: true,
		}); err != nil {
			return fmt.Errorf("failed to initialize sentry: %w", err)
		}
		defer sentry.Flush(2 * time.Second)
		log.Info("sentry initialized", "environment", *sentryEnvironmentFlag)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := config.LoadClickHouse(ctx, log); err != nil {
		return fmt.Errorf("failed to connect to warehouse: %w", err)
	}
	defer func() {
		if err := config.CloseClickHouse(); err != nil {
			log.Error("failed to close warehouse client", "error", err)
		}
	}()

	metrics.BuildInfo.WithLabelValues(version, commit, date).Set(1)

	srv, err := server.New(server.Config{
		Logger:          log,
		ListenAddr:      *listenAddrFlag,
		ShutdownTimeout: *shutdownTimeoutFlag,
		AllowedOrigins:  *allowedOriginsFlag,
		VersionInfo: server.VersionInfo{
			Version: version,
			Commit:  commit,
			Date:    date,
		},
		Ready: func(ctx context.Context) error {
			return clickhouse.Ping(ctx, config.Warehouse)
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Run(ctx)
}
