package orders

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/malbeclabs/orders-dashboard/dashboard/pkg/query"
	"github.com/malbeclabs/orders-dashboard/warehouse/pkg/clickhouse"
)

// RowLimits are the row limits offered for the supplier views.
var RowLimits = []int{5, 10, 20, 50}

const DefaultRowLimit = 5

// ValidateLimit accepts only the offered row limits.
func ValidateLimit(limit int) error {
	if !slices.Contains(RowLimits, limit) {
		return fmt.Errorf("%w: %d (allowed: %v)", ErrInvalidLimit, limit, RowLimits)
	}
	return nil
}

// ParseLimit parses a row limit, defaulting to DefaultRowLimit when s is empty.
func ParseLimit(s string) (int, error) {
	if s == "" {
		return DefaultRowLimit, nil
	}
	limit, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidLimit, s)
	}
	return limit, ValidateLimit(limit)
}

// Measure selects what the monthly breakdown reports.
type Measure string

const (
	MeasureCount   Measure = "Count of Orders"
	MeasureRevenue Measure = "Total Revenue"
	MeasureBoth    Measure = "Both"
)

// ParseMeasure accepts the display names and the short forms count, revenue and both.
// Empty defaults to MeasureCount.
func ParseMeasure(s string) (Measure, error) {
	switch s {
	case "", string(MeasureCount), "count":
		return MeasureCount, nil
	case string(MeasureRevenue), "revenue":
		return MeasureRevenue, nil
	case string(MeasureBoth), "both":
		return MeasureBoth, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMeasure, s)
}

func (m Measure) IncludesCount() bool   { return m == MeasureCount || m == MeasureBoth }
func (m Measure) IncludesRevenue() bool { return m == MeasureRevenue || m == MeasureBoth }

const (
	aliasSentItems    = "Sent Items"
	aliasLateItems    = "Late Received Items"
	aliasDelayedRatio = "% of Delayed Shipments"
	aliasOrderCount   = "Count of Orders"
	aliasRevenue      = "Total Revenue"
)

type DelayedOrdersRow struct {
	Index             int     `json:"index"`
	OrderPriority     string  `json:"orderPriority" ch:"Order Priority"`
	SentItems         uint64  `json:"sentItems" ch:"Sent Items"`
	LateReceivedItems uint64  `json:"lateReceivedItems" ch:"Late Received Items"`
	DelayedRatio      float64 `json:"delayedRatio" ch:"% of Delayed Shipments"`
}

// lateFlag is 1 when a line shipped or was received after its commit date.
func lateFlag() query.Expr {
	commit := query.Col(ColumnCommitDate)
	return query.Case(query.Lit(0), query.When{
		Cond: query.Or(
			query.Gt(query.Col(ColumnShipDate), commit),
			query.Gt(query.Col(ColumnReceiptDate), commit),
		),
		Then: query.Lit(1),
	})
}

// DelayedOrders counts sent and late lines per order priority, ascending by priority.
func DelayedOrders(ctx context.Context, conn clickhouse.Connection, ds *Dataset) ([]DelayedOrdersRow, error) {
	sent := query.Sum(query.Lit(1))
	late := query.Sum(lateFlag())
	q := query.From(ds.source()).
		Columns(
			query.Col(ColumnOrderPriority),
			query.As(sent, aliasSentItems),
			query.As(late, aliasLateItems),
			query.As(query.Div(late, sent), aliasDelayedRatio),
		).
		GroupBy(query.Col(ColumnOrderPriority)).
		OrderBy(query.Asc(query.Col(ColumnOrderPriority)))

	rows, err := queryTyped[DelayedOrdersRow](ctx, conn, "view_delayed_orders", q)
	if err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].Index = i + 1
	}
	return rows, nil
}

type OrdersByDayRow struct {
	ShipDate     time.Time `json:"shipDate" ch:"Ship Date"`
	OrderCount   uint64    `json:"orderCount" ch:"Count of Orders"`
	TotalRevenue int64     `json:"totalRevenue" ch:"Total Revenue"`
}

// OrdersByDay counts order lines and sums truncated net revenue per ship date.
func OrdersByDay(ctx context.Context, conn clickhouse.Connection, ds *Dataset) ([]OrdersByDayRow, error) {
	q := query.From(ds.source()).
		Columns(
			query.Col(ColumnShipDate),
			query.As(query.Count(query.Col(ColumnOrderKey)), aliasOrderCount),
			query.As(query.Trunc(revenueExpr()), aliasRevenue),
		).
		GroupBy(query.Col(ColumnShipDate)).
		OrderBy(query.Asc(query.Col(ColumnShipDate)))
	return queryTyped[OrdersByDayRow](ctx, conn, "view_orders_by_day", q)
}

type OrdersByMonthRow struct {
	YearMonth    string `json:"yearMonth" ch:"Order Year-Month"`
	TotalRevenue int64  `json:"totalRevenue" ch:"Total Revenue"`
	OrderCount   uint64 `json:"orderCount" ch:"Count of Orders"`
}

// OrdersByMonth is OrdersByDay grouped by order year-month, ascending.
func OrdersByMonth(ctx context.Context, conn clickhouse.Connection, ds *Dataset) ([]OrdersByMonthRow, error) {
	q := query.From(ds.source()).
		Columns(
			query.Col(ColumnOrderYearMonth),
			query.As(query.Trunc(revenueExpr()), aliasRevenue),
			query.As(query.Count(query.Col(ColumnOrderKey)), aliasOrderCount),
		).
		GroupBy(query.Col(ColumnOrderYearMonth)).
		OrderBy(query.Asc(query.Col(ColumnOrderYearMonth)))
	return queryTyped[OrdersByMonthRow](ctx, conn, "view_orders_by_month", q)
}

type SupplierRevenueRow struct {
	Index        int             `json:"index"`
	SupplierName string          `json:"supplierName" ch:"Supplier Name"`
	TotalRevenue decimal.Decimal `json:"totalRevenue" ch:"Total Revenue"`
}

// TopSuppliers returns at most limit suppliers by net revenue, highest first.
func TopSuppliers(ctx context.Context, conn clickhouse.Connection, ds *Dataset, limit int) ([]SupplierRevenueRow, error) {
	return suppliersByRevenue(ctx, conn, ds, limit, true)
}

// BottomSuppliers returns at most limit suppliers by net revenue, lowest first.
func BottomSuppliers(ctx context.Context, conn clickhouse.Connection, ds *Dataset, limit int) ([]SupplierRevenueRow, error) {
	return suppliersByRevenue(ctx, conn, ds, limit, false)
}

func suppliersByRevenue(ctx context.Context, conn clickhouse.Connection, ds *Dataset, limit int, top bool) ([]SupplierRevenueRow, error) {
	if err := ValidateLimit(limit); err != nil {
		return nil, err
	}
	order, op := query.Asc(query.Col(aliasRevenue)), "view_bottom_suppliers"
	if top {
		order, op = query.Desc(query.Col(aliasRevenue)), "view_top_suppliers"
	}
	q := query.From(ds.source()).
		Columns(
			query.Col(ColumnSupplierName),
			query.As(revenueExpr(), aliasRevenue),
		).
		GroupBy(query.Col(ColumnSupplierName)).
		OrderBy(order, query.Asc(query.Col(ColumnSupplierName))).
		Limit(limit)

	rows, err := queryTyped[SupplierRevenueRow](ctx, conn, op, q)
	if err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].Index = i + 1
	}
	return rows, nil
}

type UnshippedSupplierRow struct {
	Index        int    `json:"index"`
	SupplierName string `json:"supplierName" ch:"Supplier Name"`
	OrderCount   uint64 `json:"orderCount" ch:"Count of Orders"`
}

// SuppliersWithUnshippedOrders counts lines not fully shipped per supplier, highest first.
func SuppliersWithUnshippedOrders(ctx context.Context, conn clickhouse.Connection, ds *Dataset, limit int) ([]UnshippedSupplierRow, error) {
	if err := ValidateLimit(limit); err != nil {
		return nil, err
	}
	q := query.From(ds.source()).
		Columns(
			query.Col(ColumnSupplierName),
			query.As(query.Count(query.Col(ColumnOrderKey)), aliasOrderCount),
		).
		Where(query.Ne(query.Col(ColumnOrderStatus), query.Lit(StatusFullyShipped))).
		GroupBy(query.Col(ColumnSupplierName)).
		OrderBy(query.Desc(query.Col(aliasOrderCount)), query.Asc(query.Col(ColumnSupplierName))).
		Limit(limit)

	rows, err := queryTyped[UnshippedSupplierRow](ctx, conn, "view_unshipped_suppliers", q)
	if err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].Index = i + 1
	}
	return rows, nil
}

// Dashboard holds every view computed from one dataset.
type Dashboard struct {
	Selection         Selection              `json:"selection"`
	Limit             int                    `json:"limit"`
	Measure           Measure                `json:"measure"`
	DelayedOrders     []DelayedOrdersRow     `json:"delayedOrders"`
	OrdersByDay       []OrdersByDayRow       `json:"ordersByDay"`
	OrdersByMonth     []OrdersByMonthRow     `json:"ordersByMonth"`
	TopSuppliers      []SupplierRevenueRow   `json:"topSuppliers"`
	BottomSuppliers   []SupplierRevenueRow   `json:"bottomSuppliers"`
	UnshippedSupplier []UnshippedSupplierRow `json:"unshippedSuppliers"`
}

// BuildDashboard runs every view in turn. Any failing view fails the whole dashboard.
func BuildDashboard(ctx context.Context, conn clickhouse.Connection, ds *Dataset, limit int, measure Measure) (*Dashboard, error) {
	if err := ValidateLimit(limit); err != nil {
		return nil, err
	}
	d := &Dashboard{Selection: ds.Selection(), Limit: limit, Measure: measure}
	var err error
	if d.DelayedOrders, err = DelayedOrders(ctx, conn, ds); err != nil {
		return nil, err
	}
	if d.OrdersByDay, err = OrdersByDay(ctx, conn, ds); err != nil {
		return nil, err
	}
	if d.OrdersByMonth, err = OrdersByMonth(ctx, conn, ds); err != nil {
		return nil, err
	}
	if d.TopSuppliers, err = TopSuppliers(ctx, conn, ds, limit); err != nil {
		return nil, err
	}
	if d.BottomSuppliers, err = BottomSuppliers(ctx, conn, ds, limit); err != nil {
		return nil, err
	}
	if d.UnshippedSupplier, err = SuppliersWithUnshippedOrders(ctx, conn, ds, limit); err != nil {
		return nil, err
	}
	return d, nil
}
