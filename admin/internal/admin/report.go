package admin

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/malbeclabs/orders-dashboard/dashboard/pkg/orders"
	"github.com/malbeclabs/orders-dashboard/dashboard/pkg/query"
	"github.com/malbeclabs/orders-dashboard/warehouse/pkg/clickhouse"
)

// Report computes every dashboard view for ds and renders them as text tables.
func Report(ctx context.Context, conn clickhouse.Connection, w io.Writer, ds *orders.Dataset, limit int, measure orders.Measure) error {
	d, err := orders.BuildDashboard(ctx, conn, ds, limit, measure)
	if err != nil {
		return err
	}
	RenderDashboard(w, d)
	return nil
}

// RenderDashboard writes the filters followed by one table per view.
func RenderDashboard(w io.Writer, d *orders.Dashboard) {
	sel := d.Selection
	fmt.Fprintf(w, "Ship dates: %s to %s\n",
		sel.ShipDates.From.Format(query.DateLayout), sel.ShipDates.To.Format(query.DateLayout))
	fmt.Fprintf(w, "Part types: %s\n", filterLabel(sel.PartTypes))
	fmt.Fprintf(w, "Brands:     %s\n", filterLabel(sel.Brands))
	fmt.Fprintf(w, "Suppliers:  %s\n", filterLabel(sel.SupplierNames))

	delayed := make([][]string, 0, len(d.DelayedOrders))
	for _, r := range d.DelayedOrders {
		delayed = append(delayed, []string{
			strconv.Itoa(r.Index),
			r.OrderPriority,
			strconv.FormatUint(r.SentItems, 10),
			strconv.FormatUint(r.LateReceivedItems, 10),
			fmt.Sprintf("%.2f%%", r.DelayedRatio*100),
		})
	}
	renderTable(w, "Delayed orders by priority",
		[]string{"#", "Order Priority", "Sent Items", "Late Received Items", "% of Delayed Shipments"}, delayed)

	byDay := make([][]string, 0, len(d.OrdersByDay))
	for _, r := range d.OrdersByDay {
		byDay = append(byDay, []string{
			r.ShipDate.Format(query.DateLayout),
			strconv.FormatUint(r.OrderCount, 10),
			strconv.FormatInt(r.TotalRevenue, 10),
		})
	}
	renderTable(w, "Orders by ship date",
		[]string{"Ship Date", "Count of Orders", "Total Revenue"}, byDay)

	monthHeader := []string{"Order Year-Month"}
	if d.Measure.IncludesCount() {
		monthHeader = append(monthHeader, "Count of Orders")
	}
	if d.Measure.IncludesRevenue() {
		monthHeader = append(monthHeader, "Total Revenue")
	}
	byMonth := make([][]string, 0, len(d.OrdersByMonth))
	for _, r := range d.OrdersByMonth {
		row := []string{r.YearMonth}
		if d.Measure.IncludesCount() {
			row = append(row, strconv.FormatUint(r.OrderCount, 10))
		}
		if d.Measure.IncludesRevenue() {
			row = append(row, strconv.FormatInt(r.TotalRevenue, 10))
		}
		byMonth = append(byMonth, row)
	}
	renderTable(w, "Orders by order month ("+string(d.Measure)+")", monthHeader, byMonth)

	renderTable(w, fmt.Sprintf("Top %d suppliers by revenue", d.Limit),
		[]string{"#", "Supplier Name", "Total Revenue"}, supplierRevenueRows(d.TopSuppliers))
	renderTable(w, fmt.Sprintf("Bottom %d suppliers by revenue", d.Limit),
		[]string{"#", "Supplier Name", "Total Revenue"}, supplierRevenueRows(d.BottomSuppliers))

	unshipped := make([][]string, 0, len(d.UnshippedSupplier))
	for _, r := range d.UnshippedSupplier {
		unshipped = append(unshipped, []string{
			strconv.Itoa(r.Index),
			r.SupplierName,
			strconv.FormatUint(r.OrderCount, 10),
		})
	}
	renderTable(w, fmt.Sprintf("Top %d suppliers with unshipped orders", d.Limit),
		[]string{"#", "Supplier Name", "Count of Orders"}, unshipped)
}

func supplierRevenueRows(rows []orders.SupplierRevenueRow) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{strconv.Itoa(r.Index), r.SupplierName, r.TotalRevenue.StringFixed(2)})
	}
	return out
}

func filterLabel(values []string) string {
	if len(values) == 0 {
		return "(all)"
	}
	return strings.Join(values, ", ")
}

func renderTable(w io.Writer, title string, header []string, rows [][]string) {
	fmt.Fprintf(w, "\n%s\n", title)
	if len(rows) == 0 {
		fmt.Fprintln(w, "  (no rows)")
		return
	}
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.AppendBulk(rows)
	table.Render()
}
