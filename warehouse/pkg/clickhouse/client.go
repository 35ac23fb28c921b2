package clickhouse

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/malbeclabs/orders-dashboard/utils/pkg/retry"
)

const (
	DefaultDatabase         = "default"
	DefaultMaxExecutionTime = 60 * time.Second
	DefaultDialTimeout      = 5 * time.Second
)

// Client represents a ClickHouse database connection
type Client interface {
	Conn(ctx context.Context) (Connection, error)
	Close() error
}

// Connection represents a ClickHouse connection
type Connection interface {
	Exec(ctx context.Context, query string, args ...any) error
	Query(ctx context.Context, query string, args ...any) (driver.Rows, error)
	Close() error
}

// Config holds the connection settings for a warehouse client.
type Config struct {
	Addr     string
	Database string
	Username string
	Password string
	// Secure enables TLS (ClickHouse Cloud, port 9440).
	Secure bool

	MaxExecutionTime time.Duration
	DialTimeout      time.Duration

	// ConnectRetry controls retries of the initial ping. Queries are never retried.
	ConnectRetry retry.Config
}

func (cfg *Config) Validate() error {
	if cfg.Addr == "" {
		return errors.New("clickhouse addr is required")
	}
	if cfg.Database == "" {
		cfg.Database = DefaultDatabase
	}
	if cfg.Username == "" {
		cfg.Username = "default"
	}
	if cfg.MaxExecutionTime <= 0 {
		cfg.MaxExecutionTime = DefaultMaxExecutionTime
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = DefaultDialTimeout
	}
	if cfg.ConnectRetry.MaxAttempts <= 0 {
		cfg.ConnectRetry = retry.DefaultConfig()
	}
	return nil
}

func (cfg Config) options() *clickhouse.Options {
	options := &clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": int(cfg.MaxExecutionTime.Seconds()),
		},
		DialTimeout: cfg.DialTimeout,
	}
	if cfg.Secure {
		options.TLS = &tls.Config{}
	}
	return options
}

type client struct {
	conn driver.Conn
	log  *slog.Logger
}

type connection struct {
	conn driver.Conn
}

// NewClient opens a ClickHouse client and pings it, retrying transient dial failures.
func NewClient(ctx context.Context, log *slog.Logger, cfg Config) (Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	conn, err := clickhouse.Open(cfg.options())
	if err != nil {
		return nil, fmt.Errorf("failed to open ClickHouse connection: %w", err)
	}

	attempt := 0
	err = retry.Do(ctx, cfg.ConnectRetry, func() error {
		attempt++
		if err := conn.Ping(ctx); err != nil {
			log.Debug("clickhouse: ping failed", "addr", cfg.Addr, "attempt", attempt, "error", err)
			return err
		}
		return nil
	})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	log.Info("ClickHouse client initialized", "addr", cfg.Addr, "database", cfg.Database, "secure", cfg.Secure)

	return &client{
		conn: conn,
		log:  log,
	}, nil
}

// Ping runs a trivial query to check the warehouse is serving.
func Ping(ctx context.Context, c Client) error {
	conn, err := c.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to get connection: %w", err)
	}
	defer conn.Close()

	rows, err := conn.Query(ctx, "SELECT 1")
	if err != nil {
		return fmt.Errorf("failed to ping: %w", err)
	}
	defer rows.Close()
	return rows.Err()
}

func (c *client) Conn(ctx context.Context) (Connection, error) {
	return &connection{conn: c.conn}, nil
}

func (c *client) Close() error {
	return c.conn.Close()
}

func (c *connection) Exec(ctx context.Context, query string, args ...any) error {
	return c.conn.Exec(ctx, query, args...)
}

func (c *connection) Query(ctx context.Context, query string, args ...any) (driver.Rows, error) {
	return c.conn.Query(ctx, query, args...)
}

func (c *connection) Close() error {
	// Connection is shared, don't close it
	return nil
}
