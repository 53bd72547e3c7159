// internal/app/features/members/routes.go
package members

import "github.com/go-chi/chi/v5"

// Routes wires the admin user-management endpoints onto a router
// mounted at /members. Access control (application admin only) happens
// at the mount point.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ServeList)
	r.Get("/{id}", h.ServeEdit)
	r.Post("/{id}", h.HandleUpdate)

	return r
}
