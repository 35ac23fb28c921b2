package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/malbeclabs/orders-dashboard/api/config"
	"github.com/malbeclabs/orders-dashboard/dashboard/pkg/orders"
)

// Filter query parameters. List parameters repeat: ?brand=Brand%2313&brand=Brand%2321.
const (
	paramPartType = "part_type"
	paramBrand    = "brand"
	paramSupplier = "supplier"
	paramShipFrom = "ship_from"
	paramShipTo   = "ship_to"
	paramLimit    = "limit"
	paramMeasure  = "measure"
	paramMax      = "max"
)

// parseSelection reads the filter parameters. Missing ship date bounds default to the
// bounds of the fact relation.
func parseSelection(ctx context.Context, r *http.Request) (orders.Selection, error) {
	q := r.URL.Query()
	shipDates, err := config.Lookups.ResolveShipDates(ctx, q.Get(paramShipFrom), q.Get(paramShipTo))
	if err != nil {
		return orders.Selection{}, err
	}
	return orders.Selection{
		PartTypes:     q[paramPartType],
		Brands:        q[paramBrand],
		SupplierNames: q[paramSupplier],
		ShipDates:     shipDates,
	}, nil
}

// assemble builds the dataset for the request's filters.
func assemble(ctx context.Context, r *http.Request) (*orders.Dataset, error) {
	sel, err := parseSelection(ctx, r)
	if err != nil {
		return nil, err
	}
	return config.Assembler.Assemble(sel)
}

func parseLimit(r *http.Request) (int, error) {
	return orders.ParseLimit(r.URL.Query().Get(paramLimit))
}

func parseMax(r *http.Request) (int, error) {
	v := r.URL.Query().Get(paramMax)
	if v == "" {
		return orders.DefaultPreviewRows, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: max %q", orders.ErrInvalidLimit, v)
	}
	return n, nil
}
