package clickhousetesting

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	tcch "github.com/testcontainers/testcontainers-go/modules/clickhouse"

	"github.com/malbeclabs/orders-dashboard/utils/pkg/retry"
	"github.com/malbeclabs/orders-dashboard/warehouse/pkg/clickhouse"
)

type DBConfig struct {
	Database       string
	Username       string
	Password       string
	Port           string
	ContainerImage string
}

func (cfg *DBConfig) Validate() error {
	if cfg.Database == "" {
		cfg.Database = "test"
	}
	if cfg.Username == "" {
		cfg.Username = "default"
	}
	if cfg.Password == "" {
		cfg.Password = "password"
	}
	if cfg.Port == "" {
		cfg.Port = "9000"
	}
	if cfg.ContainerImage == "" {
		cfg.ContainerImage = "clickhouse/clickhouse-server:latest"
	}
	return nil
}

// DB is a ClickHouse container shared by the tests of one package.
type DB struct {
	log       *slog.Logger
	cfg       *DBConfig
	addr      string
	container *tcch.ClickHouseContainer
}

// Addr returns the ClickHouse native protocol address (host:port).
func (db *DB) Addr() string {
	return db.addr
}

// ClientConfig returns a client Config pointing at the given database.
func (db *DB) ClientConfig(database string) clickhouse.Config {
	return clickhouse.Config{
		Addr:     db.addr,
		Database: database,
		Username: db.cfg.Username,
		Password: db.cfg.Password,
		ConnectRetry: retry.Config{
			MaxAttempts: 3,
			BaseBackoff: 250 * time.Millisecond,
			MaxBackoff:  time.Second,
		},
	}
}

func (db *DB) Close() {
	terminateCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.container.Terminate(terminateCtx); err != nil {
		db.log.Error("failed to terminate ClickHouse container", "error", err)
	}
}

// TestClientInfo holds a test client and its database name.
type TestClientInfo struct {
	Client   clickhouse.Client
	Database string
}

// NewTestClient creates a random database, applies the migrations to it and returns a
// client bound to it. The database is dropped when the test finishes.
func NewTestClient(t *testing.T, db *DB) *TestClientInfo {
	t.Helper()

	adminClient, err := clickhouse.NewClient(t.Context(), db.log, db.ClientConfig(db.cfg.Database))
	require.NoError(t, err)

	databaseName := "test_" + strings.ReplaceAll(uuid.New().String(), "-", "")

	adminConn, err := adminClient.Conn(t.Context())
	require.NoError(t, err)
	require.NoError(t, adminConn.Exec(t.Context(), fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", databaseName)))

	cfg := db.ClientConfig(databaseName)
	require.NoError(t, clickhouse.RunMigrations(t.Context(), db.log, cfg))

	testClient, err := clickhouse.NewClient(t.Context(), db.log, cfg)
	require.NoError(t, err)

	t.Cleanup(func() {
		dropCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := adminConn.Exec(dropCtx, fmt.Sprintf("DROP DATABASE IF EXISTS %s", databaseName))
		require.NoError(t, err)
		testClient.Close()
		adminClient.Close()
	})

	return &TestClientInfo{Client: testClient, Database: databaseName}
}

// NewTestConn is NewTestClient for callers that only need a connection.
func NewTestConn(t *testing.T, db *DB) clickhouse.Connection {
	t.Helper()
	info := NewTestClient(t, db)
	conn, err := info.Client.Conn(t.Context())
	require.NoError(t, err)
	t.Cleanup(func() {
		conn.Close()
	})
	return conn
}

func NewDB(ctx context.Context, log *slog.Logger, cfg *DBConfig) (*DB, error) {
	if cfg == nil {
		cfg = &DBConfig{}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("failed to validate DB config: %w", err)
	}

	// Retry container start up to 3 times for retryable errors
	var container *tcch.ClickHouseContainer
	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		var err error
		container, err = tcch.Run(ctx,
			cfg.ContainerImage,
			tcch.WithDatabase(cfg.Database),
			tcch.WithUsername(cfg.Username),
			tcch.WithPassword(cfg.Password),
		)
		if err != nil {
			lastErr = err
			if isRetryableContainerStartErr(err) && attempt < 3 {
				time.Sleep(time.Duration(attempt) * 750 * time.Millisecond)
				continue
			}
			return nil, fmt.Errorf("failed to start ClickHouse container after retries: %w", lastErr)
		}
		break
	}

	if container == nil {
		return nil, fmt.Errorf("failed to start ClickHouse container after retries: %w", lastErr)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get ClickHouse container host: %w", err)
	}

	port := nat.Port(fmt.Sprintf("%s/tcp", cfg.Port))
	mappedPort, err := container.MappedPort(ctx, port)
	if err != nil {
		return nil, fmt.Errorf("failed to get ClickHouse container mapped port: %w", err)
	}

	return &DB{
		log:       log,
		cfg:       cfg,
		addr:      fmt.Sprintf("%s:%s", host, mappedPort.Port()),
		container: container,
	}, nil
}

func isRetryableContainerStartErr(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "wait until ready") ||
		strings.Contains(s, "mapped port") ||
		strings.Contains(s, "timeout") ||
		strings.Contains(s, "context deadline exceeded")
}
