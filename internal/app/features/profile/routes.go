// internal/app/features/profile/routes.go
package profile

import "github.com/go-chi/chi/v5"

// Routes wires profile endpoints onto a router mounted at /profile.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ServeProfile)
	r.Post("/", h.HandleUpdate)
	r.Post("/devices", h.HandleRegisterDevice)
	r.Post("/devices/remove", h.HandleUnregisterDevice)

	return r
}
