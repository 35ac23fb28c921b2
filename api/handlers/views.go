package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/malbeclabs/orders-dashboard/api/config"
	"github.com/malbeclabs/orders-dashboard/dashboard/pkg/orders"
)

const maxCreateViewBody = 8 << 10

// CreateViewRequest names the view to save. Filters come from the query string.
type CreateViewRequest struct {
	Name    string `json:"name"`
	Comment string `json:"comment"`
}

type CreateViewResponse struct {
	Name    string           `json:"name"`
	Comment string           `json:"comment"`
	Filter  orders.Selection `json:"filter"`
}

// CreateView saves the current dataset definition as a warehouse view.
func CreateView(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	var req CreateViewRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxCreateViewBody)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid_request", Message: "invalid JSON body"})
		return
	}

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

	if err := orders.SaveView(ctx, conn, ds, req.Name, req.Comment); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, CreateViewResponse{Name: req.Name, Comment: req.Comment, Filter: ds.Selection()})
}
