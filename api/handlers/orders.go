package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/malbeclabs/orders-dashboard/api/config"
	"github.com/malbeclabs/orders-dashboard/dashboard/pkg/orders"
	"github.com/malbeclabs/orders-dashboard/warehouse/pkg/clickhouse"
)

const requestTimeout = 30 * time.Second

// serveDataset assembles the request's dataset and responds with whatever fn computes from it.
func serveDataset(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, conn clickhouse.Connection, ds *orders.Dataset) (any, error)) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	ds, err := assemble(ctx, r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	conn, err := config.Warehouse.Conn(ctx)
	if err != nil {
		writeError(w, r, fmt.Errorf("failed to get connection: %w", err))
		return
	}
	defer conn.Close()

	result, err := fn(ctx, conn, ds)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func GetDelayedOrders(w http.ResponseWriter, r *http.Request) {
	serveDataset(w, r, func(ctx context.Context, conn clickhouse.Connection, ds *orders.Dataset) (any, error) {
		return orders.DelayedOrders(ctx, conn, ds)
	})
}

func GetOrdersByDay(w http.ResponseWriter, r *http.Request) {
	serveDataset(w, r, func(ctx context.Context, conn clickhouse.Connection, ds *orders.Dataset) (any, error) {
		return orders.OrdersByDay(ctx, conn, ds)
	})
}

// OrdersByMonthResponse carries the monthly rows and the measure the chart should plot.
type OrdersByMonthResponse struct {
	Measure orders.Measure            `json:"measure"`
	Rows    []orders.OrdersByMonthRow `json:"rows"`
}

func GetOrdersByMonth(w http.ResponseWriter, r *http.Request) {
	measure, err := orders.ParseMeasure(r.URL.Query().Get(paramMeasure))
	if err != nil {
		writeError(w, r, err)
		return
	}
	serveDataset(w, r, func(ctx context.Context, conn clickhouse.Connection, ds *orders.Dataset) (any, error) {
		rows, err := orders.OrdersByMonth(ctx, conn, ds)
		if err != nil {
			return nil, err
		}
		return OrdersByMonthResponse{Measure: measure, Rows: rows}, nil
	})
}

func GetTopSuppliers(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	serveDataset(w, r, func(ctx context.Context, conn clickhouse.Connection, ds *orders.Dataset) (any, error) {
		return orders.TopSuppliers(ctx, conn, ds, limit)
	})
}

func GetBottomSuppliers(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	serveDataset(w, r, func(ctx context.Context, conn clickhouse.Connection, ds *orders.Dataset) (any, error) {
		return orders.BottomSuppliers(ctx, conn, ds, limit)
	})
}

func GetUnshippedSuppliers(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	serveDataset(w, r, func(ctx context.Context, conn clickhouse.Connection, ds *orders.Dataset) (any, error) {
		return orders.SuppliersWithUnshippedOrders(ctx, conn, ds, limit)
	})
}

// GetDashboard computes every view for one set of filters.
func GetDashboard(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	measure, err := orders.ParseMeasure(r.URL.Query().Get(paramMeasure))
	if err != nil {
		writeError(w, r, err)
		return
	}
	serveDataset(w, r, func(ctx context.Context, conn clickhouse.Connection, ds *orders.Dataset) (any, error) {
		return orders.BuildDashboard(ctx, conn, ds, limit, measure)
	})
}

// DatasetSQLResponse is the compiled dataset definition.
type DatasetSQLResponse struct {
	SQL    string           `json:"sql"`
	Args   []any            `json:"args"`
	Filter orders.Selection `json:"filter"`
}

// GetDatasetSQL returns the dataset definition a saved view would store, without running it.
func GetDatasetSQL(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	ds, err := assemble(ctx, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	sql, args := ds.SQL()
	writeJSON(w, http.StatusOK, DatasetSQLResponse{SQL: sql, Args: args, Filter: ds.Selection()})
}

// GetDatasetRows previews assembled rows.
func GetDatasetRows(w http.ResponseWriter, r *http.Request) {
	limit, err := parseMax(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	serveDataset(w, r, func(ctx context.Context, conn clickhouse.Connection, ds *orders.Dataset) (any, error) {
		return ds.Rows(ctx, conn, limit)
	})
}
