package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/malbeclabs/orders-dashboard/api/config"
)

// GetLookups returns the values of every filter control.
func GetLookups(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	lookups, err := config.Lookups.Lookups(ctx)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lookups)
}

// InvalidateLookupsResponse reports the cache key lookups are now served under.
type InvalidateLookupsResponse struct {
	Snapshot string `json:"snapshot"`
}

// InvalidateLookups drops the cached lookups. With ?version=, subsequent lookups are keyed by
// that dataset version.
func InvalidateLookups(w http.ResponseWriter, r *http.Request) {
	if version := r.URL.Query().Get("version"); version != "" {
		config.Lookups.SetSnapshot(version)
	}
	config.Lookups.Invalidate()
	writeJSON(w, http.StatusOK, InvalidateLookupsResponse{Snapshot: config.Lookups.Snapshot()})
}
