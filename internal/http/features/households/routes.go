package households

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers household routes; limit wraps household creation.
func (h *Handler) RegisterRoutes(r chi.Router, limit func(http.Handler) http.Handler) {
	r.With(limit).Post("/create-household", h.CreateHousehold)
	r.Options("/create-household", noContent)
	r.Post("/list-members", h.ListMembers)
	r.Options("/list-members", noContent)
	r.Post("/my-household", h.MyHousehold)
	r.Options("/my-household", noContent)
}

func noContent(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}
