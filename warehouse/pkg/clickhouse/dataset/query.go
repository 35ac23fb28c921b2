package dataset

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/malbeclabs/orders-dashboard/warehouse/pkg/clickhouse"
)

// ColumnMetadata represents metadata about a column.
type ColumnMetadata struct {
	Name             string `json:"name"`
	DatabaseTypeName string `json:"type"`
}

// QueryResult represents the result of a query execution with column metadata.
type QueryResult struct {
	Columns     []string         `json:"columns"`
	ColumnTypes []ColumnMetadata `json:"columnTypes"`
	Rows        []map[string]any `json:"rows"`
	Count       int              `json:"count"`
}

// ScanQueryResults scans query results into a slice of maps with column metadata.
func ScanQueryResults(rows driver.Rows) ([]string, []ColumnMetadata, []map[string]any, error) {
	columns := rows.Columns()
	columnTypes := rows.ColumnTypes()

	colMetadata := make([]ColumnMetadata, len(columns))
	for i, colType := range columnTypes {
		colMetadata[i] = ColumnMetadata{
			Name:             colType.Name(),
			DatabaseTypeName: colType.DatabaseTypeName(),
		}
	}

	valuePtrs := InitializeScanTargets(columnTypes)

	resultRows := []map[string]any{}
	for rows.Next() {
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, nil, nil, fmt.Errorf("failed to scan row: %w", err)
		}
		resultRows = append(resultRows, dereferencePointersToMap(valuePtrs, columns))
	}

	if err := rows.Err(); err != nil {
		return nil, nil, nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return columns, colMetadata, resultRows, nil
}

// Query executes a SQL query and returns the results with column metadata.
//
// Example:
//
//	result, err := dataset.Query(ctx, conn, "SELECT * FROM dim_part WHERE P_BRAND = ?", []any{"Brand#13"})
func Query(ctx context.Context, conn clickhouse.Connection, query string, args []any) (*QueryResult, error) {
	rows, err := conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	columns, colMetadata, resultRows, err := ScanQueryResults(rows)
	if err != nil {
		return nil, err
	}

	return &QueryResult{
		Columns:     columns,
		ColumnTypes: colMetadata,
		Rows:        resultRows,
		Count:       len(resultRows),
	}, nil
}

// QueryTyped executes a SQL query and scans every row into T.
// Fields are matched by `ch:"column name"` tag, or by field name when untagged.
func QueryTyped[T any](ctx context.Context, conn clickhouse.Connection, query string, args []any) ([]T, error) {
	return scanRows(ctx, conn, query, args, typedScanner[T], "failed to execute query")
}
