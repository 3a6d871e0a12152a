package invites

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers invite routes; limit wraps the two that create or
// redeem invites. OPTIONS is registered so preflight requests reach the CORS
// middleware.
func (h *Handler) RegisterRoutes(r chi.Router, limit func(http.Handler) http.Handler) {
	r.With(limit).Post("/create-invite", h.CreateInvite)
	r.Options("/create-invite", noContent)
	r.With(limit).Post("/accept-invite", h.AcceptInvite)
	r.Options("/accept-invite", noContent)
	r.Post("/list-invites", h.ListInvites)
	r.Options("/list-invites", noContent)
}

func noContent(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}
