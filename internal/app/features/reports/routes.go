// internal/app/features/reports/routes.go
package reports

import "github.com/go-chi/chi/v5"

// Routes wires report endpoints onto a router mounted at /reports.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ServeList)
	r.Post("/", h.HandleCreate)
	r.Get("/new", h.ServeNew)
	r.Post("/{id}/status", h.HandleSetStatus)

	return r
}
