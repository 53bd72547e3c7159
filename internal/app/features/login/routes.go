// internal/app/features/login/routes.go
package login

import "github.com/go-chi/chi/v5"

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeLogin)
	r.Post("/", h.HandleLoginPost)
	r.Get("/reset", h.ServeResetRequest)
	r.Post("/reset", h.HandleResetRequest)
	r.Get("/reset/{token}", h.ServeResetForm)
	r.Post("/reset/{token}", h.HandleResetPost)
	return r
}

// RegisterRoutes returns the sign-up subrouter, mounted at /register.
func RegisterRoutes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeRegister)
	r.Post("/", h.HandleRegisterPost)
	return r
}
