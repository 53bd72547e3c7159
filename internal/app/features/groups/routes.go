// internal/app/features/groups/routes.go
package groups

import "github.com/go-chi/chi/v5"

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeList)
	r.Post("/", h.HandleCreate)
	r.Get("/{id}", h.ServeGroup)
	r.Get("/{id}/messages", h.ServeMessages)
	r.Get("/{id}/ws", h.ServeWS)
	r.Post("/{id}/rename", h.HandleRename)
	r.Post("/{id}/delete", h.HandleDelete)
	r.Post("/{id}/members", h.HandleAddMember)
	r.Post("/{id}/members/remove", h.HandleRemoveMember)
	r.Post("/{id}/messages/{mid}/delete", h.HandleDeleteMessage)
	return r
}
