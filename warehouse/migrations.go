package warehouse

import "embed"

// ClickHouseMigrationsFS holds the DDL for the order fact and its part/supplier dimensions.
// Production warehouses are provisioned upstream; these migrations bootstrap local and test databases.
//
//go:embed db/clickhouse/migrations/*.sql
var ClickHouseMigrationsFS embed.FS
