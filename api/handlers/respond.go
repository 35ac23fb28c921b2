package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/getsentry/sentry-go"

	"github.com/malbeclabs/orders-dashboard/api/handlers/dberror"
	"github.com/malbeclabs/orders-dashboard/api/metrics"
	"github.com/malbeclabs/orders-dashboard/dashboard/pkg/orders"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("handlers: failed to encode response", "error", err)
	}
}

// writeError maps err to a status: 400 for invalid input, 503 when the warehouse is
// unreachable, 504 on timeouts and 500 otherwise. Server errors are reported to Sentry.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	if orders.IsValidation(err) {
		metrics.RecordAPIError("validation")
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid_request", Message: err.Error()})
		return
	}

	class := dberror.Classify(err)
	status := dberror.StatusCode(err)
	metrics.RecordAPIError(class.String())
	slog.Error("handlers: request failed", "path", r.URL.Path, "class", class.String(), "status", status, "error", err)

	if hub := sentry.GetHubFromContext(r.Context()); hub != nil {
		hub.WithScope(func(scope *sentry.Scope) {
			scope.SetTag("error_class", class.String())
			scope.SetLevel(sentry.LevelError)
			hub.CaptureException(err)
		})
	}

	writeJSON(w, status, ErrorResponse{Error: class.String(), Message: dberror.UserMessage(err)})
}
