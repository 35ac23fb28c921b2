package dataset

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/malbeclabs/orders-dashboard/warehouse/pkg/clickhouse"
)

// InitializeScanTargets creates one scan pointer per column based on its ClickHouse type.
// Nullable columns get a pointer to a pointer so NULL can be told apart from the zero value.
func InitializeScanTargets(columnTypes []driver.ColumnType) []any {
	valuePtrs := make([]any, len(columnTypes))
	for i, colType := range columnTypes {
		baseType, nullable := unwrapType(colType.DatabaseTypeName())

		switch {
		case baseType == "String" || strings.HasPrefix(baseType, "FixedString") || strings.HasPrefix(baseType, "Enum"):
			valuePtrs[i] = newScanTarget[string](nullable)
		case strings.HasPrefix(baseType, "Date"):
			valuePtrs[i] = newScanTarget[time.Time](nullable)
		case strings.HasPrefix(baseType, "Decimal"):
			valuePtrs[i] = newScanTarget[decimal.Decimal](nullable)
		case baseType == "UInt8":
			valuePtrs[i] = newScanTarget[uint8](nullable)
		case baseType == "UInt16":
			valuePtrs[i] = newScanTarget[uint16](nullable)
		case baseType == "UInt32":
			valuePtrs[i] = newScanTarget[uint32](nullable)
		case baseType == "UInt64":
			valuePtrs[i] = newScanTarget[uint64](nullable)
		case baseType == "Int8":
			valuePtrs[i] = newScanTarget[int8](nullable)
		case baseType == "Int16":
			valuePtrs[i] = newScanTarget[int16](nullable)
		case baseType == "Int32":
			valuePtrs[i] = newScanTarget[int32](nullable)
		case baseType == "Int64":
			valuePtrs[i] = newScanTarget[int64](nullable)
		case baseType == "Float32":
			valuePtrs[i] = newScanTarget[float32](nullable)
		case baseType == "Float64":
			valuePtrs[i] = newScanTarget[float64](nullable)
		case baseType == "Bool":
			valuePtrs[i] = newScanTarget[bool](nullable)
		case baseType == "UUID":
			valuePtrs[i] = newScanTarget[uuid.UUID](nullable)
		default:
			valuePtrs[i] = newScanTarget[string](nullable)
		}
	}
	return valuePtrs
}

// unwrapType strips LowCardinality(...) and Nullable(...) wrappers from a ClickHouse type name.
func unwrapType(dbType string) (string, bool) {
	nullable := false
	for {
		switch {
		case strings.HasPrefix(dbType, "LowCardinality(") && strings.HasSuffix(dbType, ")"):
			dbType = strings.TrimSuffix(strings.TrimPrefix(dbType, "LowCardinality("), ")")
		case strings.HasPrefix(dbType, "Nullable(") && strings.HasSuffix(dbType, ")"):
			dbType = strings.TrimSuffix(strings.TrimPrefix(dbType, "Nullable("), ")")
			nullable = true
		default:
			return dbType, nullable
		}
	}
}

func newScanTarget[T any](nullable bool) any {
	if nullable {
		var p *T
		return &p
	}
	var v T
	return &v
}

// DereferencePointer dereferences a scan target to its underlying value.
// Handles both *T (non-nullable) and **T (nullable); a NULL yields nil.
func DereferencePointer(ptr any) any {
	if ptr == nil {
		return nil
	}
	v := reflect.ValueOf(ptr)
	if v.Kind() != reflect.Ptr {
		return ptr
	}
	if v.IsNil() {
		return nil
	}
	elem := v.Elem()
	if elem.Kind() == reflect.Ptr {
		if elem.IsNil() {
			return nil
		}
		return elem.Elem().Interface()
	}
	return elem.Interface()
}

// dereferencePointersToMap converts scanned pointers to a map keyed by column name.
func dereferencePointersToMap(valuePtrs []any, columns []string) map[string]any {
	result := make(map[string]any, len(columns))
	for i, col := range columns {
		result[col] = DereferencePointer(valuePtrs[i])
	}
	return result
}

// scanRows scans query results into a slice of results using the provided scanner function
func scanRows[T any](
	ctx context.Context,
	conn clickhouse.Connection,
	query string,
	args []any,
	scanner func(valuePtrs []any, columns []string) (T, error),
	errorMsg string,
) ([]T, error) {
	rows, err := conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errorMsg, err)
	}
	defer rows.Close()

	columns := rows.Columns()
	valuePtrs := InitializeScanTargets(rows.ColumnTypes())

	results := []T{}
	for rows.Next() {
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		result, err := scanner(valuePtrs, columns)
		if err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		results = append(results, result)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return results, nil
}

func typedScanner[T any](valuePtrs []any, columns []string) (T, error) {
	return scanIntoStruct[T](valuePtrs, columns)
}

// scanIntoStruct scans query results into a struct using reflection.
// Columns are matched to the `ch:"..."` tag first, then to the field name (case-insensitive,
// CamelCase or snake_case). Columns without a matching field are skipped.
func scanIntoStruct[T any](valuePtrs []any, columns []string) (T, error) {
	var result T
	resultValue := reflect.ValueOf(&result).Elem()
	resultType := resultValue.Type()
	if resultType.Kind() != reflect.Struct {
		return result, fmt.Errorf("type T must be a struct, got %v", resultType.Kind())
	}

	fieldMap := make(map[string]int)
	for i := 0; i < resultType.NumField(); i++ {
		field := resultType.Field(i)
		if tag := field.Tag.Get("ch"); tag != "" {
			fieldMap[strings.ToLower(tag)] = i
			continue
		}
		fieldMap[camelToSnake(field.Name)] = i
		fieldMap[strings.ToLower(field.Name)] = i
	}

	for i, colName := range columns {
		fieldIdx, ok := fieldMap[strings.ToLower(colName)]
		if !ok {
			continue
		}

		field := resultType.Field(fieldIdx)
		fieldValue := resultValue.Field(fieldIdx)
		if !fieldValue.CanSet() {
			continue
		}

		if err := setFieldValue(fieldValue, field.Type, DereferencePointer(valuePtrs[i])); err != nil {
			return result, fmt.Errorf("column %q: %w", colName, err)
		}
	}

	return result, nil
}

// setFieldValue sets a struct field value, handling type conversions.
func setFieldValue(fieldValue reflect.Value, fieldType reflect.Type, val any) error {
	if val == nil {
		fieldValue.Set(reflect.Zero(fieldType))
		return nil
	}

	valValue := reflect.ValueOf(val)
	valType := valValue.Type()

	switch {
	case valType.AssignableTo(fieldType):
		fieldValue.Set(valValue)
	case fieldType.Kind() == reflect.Ptr && valType.ConvertibleTo(fieldType.Elem()):
		ptr := reflect.New(fieldType.Elem())
		ptr.Elem().Set(valValue.Convert(fieldType.Elem()))
		fieldValue.Set(ptr)
	case valType.ConvertibleTo(fieldType):
		fieldValue.Set(valValue.Convert(fieldType))
	default:
		// Surface schema drift instead of silently zeroing the field.
		return fmt.Errorf("cannot convert %s to %s", valType, fieldType)
	}
	return nil
}

// camelToSnake converts CamelCase to snake_case.
func camelToSnake(s string) string {
	var result strings.Builder
	for i, r := range s {
		if i > 0 && r >= 'A' && r <= 'Z' {
			result.WriteByte('_')
		}
		result.WriteRune(r)
	}
	return strings.ToLower(result.String())
}
