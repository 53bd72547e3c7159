// internal/app/features/unions/routes.go
package unions

import "github.com/go-chi/chi/v5"

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/switch", h.HandleSwitch)
	r.Get("/members", h.ServeMembers)
	r.Post("/members/{id}/role", h.HandleSetRole)
	r.Post("/leave", h.HandleLeave)
	return r
}
