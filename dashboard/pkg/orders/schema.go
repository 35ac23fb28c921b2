package orders

import (
	"fmt"

	"github.com/malbeclabs/orders-dashboard/dashboard/pkg/query"
)

const (
	DefaultFactTable     = "fct_lineitem_orders_dim_lookup"
	DefaultPartTable     = "dim_part"
	DefaultSupplierTable = "dim_supplier"
	DefaultActiveFlag    = "Y"
)

// Tables names the three source relations. Names may be database-qualified ("db.table").
type Tables struct {
	Fact     string
	Part     string
	Supplier string
	// ActiveFlag is the SYSTEM_CURRENT_FLAG value of the current dimension row version.
	ActiveFlag string
}

func (t *Tables) Validate() error {
	if t.Fact == "" {
		t.Fact = DefaultFactTable
	}
	if t.Part == "" {
		t.Part = DefaultPartTable
	}
	if t.Supplier == "" {
		t.Supplier = DefaultSupplierTable
	}
	if t.ActiveFlag == "" {
		t.ActiveFlag = DefaultActiveFlag
	}
	for _, name := range []string{t.Fact, t.Part, t.Supplier} {
		if err := ValidateViewName(name); err != nil {
			return fmt.Errorf("invalid source table %q: %w", name, err)
		}
	}
	return nil
}

// Source columns.
const (
	colPartKey      = "DIM_PART_KEY"
	colSupplierKey  = "DIM_SUPPLIER_KEY"
	colCurrentFlag  = "SYSTEM_CURRENT_FLAG"
	colPartType     = "P_TYPE"
	colPartBrand    = "P_BRAND"
	colSupplierName = "S_NAME"
	colShipDate     = "LINEITEM_SHIPDATE"
	colCommitDate   = "LINEITEM_COMMITDATE"
	colReceiptDate  = "LINEITEM_RECEIPTDATE"
	colOrderDate    = "ORDER_ORDERDATE"
	colOrderStatus  = "ORDER_ORDERSTATUS"
	colPriorityNum  = "ORDER_ORDERPRIORITY_NUM"
	colPriorityDesc = "ORDER_ORDERPRIORITY_DESC"

	factAlias     = "f"
	partAlias     = "p"
	supplierAlias = "s"
)

// Display names of the assembled dataset referenced by the aggregation views.
const (
	ColumnOrderKey       = "Order Key"
	ColumnExtendedPrice  = "Extended Price"
	ColumnDiscount       = "Discount"
	ColumnShipDate       = "Ship Date"
	ColumnCommitDate     = "Commit Date"
	ColumnReceiptDate    = "Receipt Date"
	ColumnSupplierName   = "Supplier Name"
	ColumnOrderStatus    = "Order Status"
	ColumnOrderPriority  = "Order Priority"
	ColumnOrderYearMonth = "Order Year-Month"
)

type outputColumn struct {
	alias  string
	source string
	name   string
}

// outputColumns is the projected schema, in order, before the derived columns.
var outputColumns = []outputColumn{
	{factAlias, "O_CUSTKEY", "Customer Key"},
	{factAlias, "LINEITEM_ORDERKEY", ColumnOrderKey},
	{factAlias, "LINEITEM_LINENUMBER", "Line Number"},
	{factAlias, "LINEITEM_QUANTITY", "Quantity"},
	{factAlias, "LINEITEM_EXTENDEDPRICE", ColumnExtendedPrice},
	{factAlias, "LINEITEM_DISCOUNT", ColumnDiscount},
	{factAlias, "LINEITEM_TAX", "Tax"},
	{factAlias, "LINEITEM_LINESTATUS", "Line Status"},
	{factAlias, colShipDate, ColumnShipDate},
	{factAlias, colCommitDate, ColumnCommitDate},
	{factAlias, colReceiptDate, ColumnReceiptDate},
	{factAlias, "LINEITEM_SHIPINSTRUCT", "Shipping Instructions"},
	{factAlias, "LINEITEM_SHIPMODE", "Shipping Mode"},
	{factAlias, "ORDER_TOTALPRICE", "Total Price"},
	{factAlias, colOrderDate, "Order Date"},
	{factAlias, colPriorityNum, "Priority Code"},
	{factAlias, colPriorityDesc, "Priority Description"},
	{factAlias, "ORDER_SHIPPRIORITY", "Shipping Priority"},
	{factAlias, "DAYS TO SHIP", "Days to Ship"},
	{factAlias, "PS_AVAILQTY", "Available Quantity"},
	{factAlias, "PS_SUPPLYCOST", "Supply Cost"},
	{supplierAlias, colSupplierName, ColumnSupplierName},
	{supplierAlias, "S_ACCTBAL", "Supplier Account Balance"},
	{partAlias, "P_PARTKEY", "Part Key"},
	{partAlias, "P_NAME", "Part Name"},
	{partAlias, colPartBrand, "Part Brand"},
	{partAlias, "P_MFGR", "Manufacturer"},
	{partAlias, colPartType, "Part Type"},
	{partAlias, "P_SIZE", "Part Size"},
	{partAlias, "P_CONTAINER", "Part Container"},
	{partAlias, "P_RETAILPRICE", "Retail Price"},
}

// OutputSchema returns the display names of the assembled dataset, in order.
func OutputSchema() []string {
	names := make([]string, 0, len(outputColumns)+3)
	for _, c := range outputColumns {
		names = append(names, c.name)
	}
	return append(names, ColumnOrderStatus, ColumnOrderPriority, ColumnOrderYearMonth)
}

// dimensionColumns returns the source columns a dimension sub-select must carry.
func dimensionColumns(alias, key string) []query.Expr {
	cols := []query.Expr{query.Col(key)}
	for _, c := range outputColumns {
		if c.alias == alias {
			cols = append(cols, query.Col(c.source))
		}
	}
	return cols
}

// Order status labels.
const (
	StatusNotShipped       = "Not shipped yet"
	StatusPartiallyShipped = "Partially shipped"
	StatusFullyShipped     = "Fully shipped"
	StatusCancelled        = "Cancelled"
	StatusUnknown          = "Unknown"
)

var statusLabels = []struct {
	code  string
	label string
}{
	{"O", StatusNotShipped},
	{"P", StatusPartiallyShipped},
	{"F", StatusFullyShipped},
	{"C", StatusCancelled},
}

func statusLabelExpr(code query.Expr) query.Expr {
	whens := make([]query.When, len(statusLabels))
	for i, s := range statusLabels {
		whens[i] = query.When{Cond: query.Eq(code, query.Lit(s.code)), Then: query.Lit(s.label)}
	}
	return query.Case(query.Lit(StatusUnknown), whens...)
}

// yearMonthExpr renders a date as YYYY-MM.
func yearMonthExpr(date query.Expr) query.Expr {
	return query.Concat(
		query.ToString(query.ToYear(date)),
		query.Lit("-"),
		query.LeftPad(query.ToString(query.ToMonth(date)), 2, "0"),
	)
}

// priorityLabelExpr renders "<code>-<description>".
func priorityLabelExpr(num, desc query.Expr) query.Expr {
	return query.Concat(query.ToString(num), query.Lit("-"), desc)
}

// revenueExpr is extended price net of discount over the assembled dataset.
func revenueExpr() query.Expr {
	return query.Sum(query.Mul(
		query.Col(ColumnExtendedPrice),
		query.Sub(query.Lit(1), query.Col(ColumnDiscount)),
	))
}
