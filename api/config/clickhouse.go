package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/malbeclabs/orders-dashboard/dashboard/pkg/orders"
	"github.com/malbeclabs/orders-dashboard/warehouse/pkg/clickhouse"
)

// Warehouse is the global ClickHouse client.
var Warehouse clickhouse.Client

// Assembler builds the filtered order line dataset for every request.
var Assembler *orders.Assembler

// Lookups serves the filter control values.
var Lookups *orders.Provider

// ClickHouseConfigFromEnv reads the warehouse connection settings.
func ClickHouseConfigFromEnv() (clickhouse.Config, error) {
	cfg := clickhouse.Config{
		Addr:     os.Getenv("CLICKHOUSE_ADDR_TCP"),
		Database: os.Getenv("CLICKHOUSE_DATABASE"),
		Username: os.Getenv("CLICKHOUSE_USERNAME"),
		Password: os.Getenv("CLICKHOUSE_PASSWORD"),
	}
	if cfg.Addr == "" {
		cfg.Addr = "localhost:9000"
	}
	if v := os.Getenv("CLICKHOUSE_SECURE"); v != "" {
		secure, err := strconv.ParseBool(v)
		if err != nil {
			return clickhouse.Config{}, fmt.Errorf("invalid CLICKHOUSE_SECURE: %w", err)
		}
		cfg.Secure = secure
	}
	return cfg, cfg.Validate()
}

// TablesFromEnv reads the source relation names. Unset names use the defaults.
func TablesFromEnv() (orders.Tables, error) {
	tables := orders.Tables{
		Fact:       os.Getenv("ORDERS_FACT_TABLE"),
		Part:       os.Getenv("ORDERS_PART_TABLE"),
		Supplier:   os.Getenv("ORDERS_SUPPLIER_TABLE"),
		ActiveFlag: os.Getenv("ORDERS_ACTIVE_FLAG"),
	}
	return tables, tables.Validate()
}

// LookupMaxAgeFromEnv reads LOOKUP_MAX_AGE (a Go duration). Unset means no expiry.
func LookupMaxAgeFromEnv() (time.Duration, error) {
	v := os.Getenv("LOOKUP_MAX_AGE")
	if v == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid LOOKUP_MAX_AGE: %w", err)
	}
	return d, nil
}

// Init installs the dashboard globals over an open client.
func Init(log *slog.Logger, client clickhouse.Client, tables orders.Tables, lookupMaxAge time.Duration) error {
	if client == nil {
		return errors.New("clickhouse client is required")
	}
	assembler, err := orders.NewAssembler(tables)
	if err != nil {
		return err
	}
	provider, err := orders.NewProvider(orders.ProviderConfig{
		Logger:     log,
		ClickHouse: client,
		Tables:     assembler.Tables(),
		MaxAge:     lookupMaxAge,
	})
	if err != nil {
		return err
	}

	Warehouse = client
	Assembler = assembler
	Lookups = provider
	return nil
}

// LoadClickHouse connects to the warehouse from environment variables and installs the globals.
func LoadClickHouse(ctx context.Context, log *slog.Logger) error {
	cfg, err := ClickHouseConfigFromEnv()
	if err != nil {
		return err
	}
	tables, err := TablesFromEnv()
	if err != nil {
		return err
	}
	maxAge, err := LookupMaxAgeFromEnv()
	if err != nil {
		return err
	}

	client, err := clickhouse.NewClient(ctx, log, cfg)
	if err != nil {
		return err
	}
	if err := Init(log, client, tables, maxAge); err != nil {
		client.Close()
		return err
	}
	log.Info("config: warehouse ready", "addr", cfg.Addr, "database", cfg.Database,
		"fact", tables.Fact, "part", tables.Part, "supplier", tables.Supplier)
	return nil
}

// CloseClickHouse closes the global client.
func CloseClickHouse() error {
	if Warehouse != nil {
		return Warehouse.Close()
	}
	return nil
}
