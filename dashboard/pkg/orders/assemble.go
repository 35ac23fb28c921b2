package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/malbeclabs/orders-dashboard/dashboard/pkg/query"
	"github.com/malbeclabs/orders-dashboard/warehouse/pkg/clickhouse"
	"github.com/malbeclabs/orders-dashboard/warehouse/pkg/clickhouse/dataset"
	"github.com/malbeclabs/orders-dashboard/warehouse/pkg/metrics"
)

const (
	DefaultPreviewRows = 100
	MaxPreviewRows     = 1000
)

// Assembler builds the filtered, joined and derived order line dataset.
type Assembler struct {
	tables Tables
}

func NewAssembler(tables Tables) (*Assembler, error) {
	if err := tables.Validate(); err != nil {
		return nil, err
	}
	return &Assembler{tables: tables}, nil
}

// Tables returns the source relations the assembler reads.
func (a *Assembler) Tables() Tables {
	return a.tables
}

// Dataset is an unexecuted query definition of the assembled order lines.
// Every aggregation view embeds it as a sub-select; it is never materialized in process.
type Dataset struct {
	selection Selection
	query     query.Select
}

// Assemble applies the selection to the active dimension rows, joins them to the fact,
// restricts ship dates and projects the fixed output schema. Fact rows without a matching
// active dimension row are dropped by the inner joins.
func (a *Assembler) Assemble(sel Selection) (*Dataset, error) {
	preds, err := Normalize(sel)
	if err != nil {
		return nil, err
	}

	active := query.Eq(query.Col(colCurrentFlag), query.Lit(a.tables.ActiveFlag))

	parts := query.From(query.Table(a.tables.Part)).
		Columns(dimensionColumns(partAlias, colPartKey)...).
		Where(query.And(active, preds.PartType, preds.Brand))

	suppliers := query.From(query.Table(a.tables.Supplier)).
		Columns(dimensionColumns(supplierAlias, colSupplierKey)...).
		Where(query.And(active, preds.Supplier))

	projection := make([]query.Expr, 0, len(outputColumns)+3)
	for _, c := range outputColumns {
		projection = append(projection, query.As(query.QCol(c.alias, c.source), c.name))
	}
	projection = append(projection,
		query.As(statusLabelExpr(query.QCol(factAlias, colOrderStatus)), ColumnOrderStatus),
		query.As(priorityLabelExpr(
			query.QCol(factAlias, colPriorityNum),
			query.QCol(factAlias, colPriorityDesc),
		), ColumnOrderPriority),
		query.As(yearMonthExpr(query.QCol(factAlias, colOrderDate)), ColumnOrderYearMonth),
	)

	q := query.From(query.Table(a.tables.Fact).As(factAlias)).
		Columns(projection...).
		InnerJoin(query.Subquery(parts).As(partAlias),
			query.Eq(query.QCol(factAlias, colPartKey), query.QCol(partAlias, colPartKey))).
		InnerJoin(query.Subquery(suppliers).As(supplierAlias),
			query.Eq(query.QCol(factAlias, colSupplierKey), query.QCol(supplierAlias, colSupplierKey))).
		Where(preds.ShipDate)

	return &Dataset{selection: sel, query: q}, nil
}

// Selection returns the filter input the dataset was assembled from.
func (d *Dataset) Selection() Selection {
	return d.selection
}

// SQL returns the compiled dataset definition and its parameters.
func (d *Dataset) SQL() (string, []any) {
	return d.query.SQL()
}

// source embeds the dataset as the input of a downstream select.
func (d *Dataset) source() query.Source {
	return query.Subquery(d.query)
}

// Rows previews at most limit assembled rows, with column metadata.
func (d *Dataset) Rows(ctx context.Context, conn clickhouse.Connection, limit int) (*dataset.QueryResult, error) {
	if limit <= 0 || limit > MaxPreviewRows {
		return nil, fmt.Errorf("%w: preview size must be between 1 and %d", ErrInvalidLimit, MaxPreviewRows)
	}
	sql, args := query.From(d.source()).Limit(limit).SQL()

	start := time.Now()
	result, err := dataset.Query(ctx, conn, sql, args)
	metrics.RecordQuery("dataset_rows", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to preview dataset: %w", err)
	}
	return result, nil
}

// queryTyped runs q and scans every row into T, recording warehouse metrics under op.
func queryTyped[T any](ctx context.Context, conn clickhouse.Connection, op string, q query.Select) ([]T, error) {
	sql, args := q.SQL()
	start := time.Now()
	rows, err := dataset.QueryTyped[T](ctx, conn, sql, args)
	metrics.RecordQuery(op, time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return rows, nil
}
