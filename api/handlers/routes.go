package handlers

import "github.com/go-chi/chi/v5"

// Routes mounts the dashboard API. Every route reads the globals installed by config.Init.
func Routes(r chi.Router) {
	r.Get("/lookups", GetLookups)
	r.Post("/lookups/invalidate", InvalidateLookups)

	r.Route("/orders", func(r chi.Router) {
		r.Get("/delayed", GetDelayedOrders)
		r.Get("/by-day", GetOrdersByDay)
		r.Get("/by-month", GetOrdersByMonth)
		r.Get("/dashboard", GetDashboard)
		r.Get("/sql", GetDatasetSQL)
		r.Get("/rows", GetDatasetRows)
	})

	r.Route("/suppliers", func(r chi.Router) {
		r.Get("/top", GetTopSuppliers)
		r.Get("/bottom", GetBottomSuppliers)
		r.Get("/unshipped", GetUnshippedSuppliers)
	})

	r.With(LimitByClient(ViewLimiter)).Post("/views", CreateView)
}
