package roles

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/trackly/trackly-home/internal/household"
	"github.com/trackly/trackly-home/internal/http/features/common"
	"github.com/trackly/trackly-home/internal/httputil"
)

type Handler struct {
	logger *slog.Logger
	roles  *household.RoleService
}

func NewHandler(logger *slog.Logger, roles *household.RoleService) *Handler {
	return &Handler{logger: logger, roles: roles}
}

// RegisterRoutes registers role management routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/manage-roles", h.ManageRoles)
	r.Options("/manage-roles", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}

// ManageRoles changes a member's role.
// POST /manage-roles
func (h *Handler) ManageRoles(w http.ResponseWriter, r *http.Request) {
	caller, ok := common.Caller(w, r)
	if !ok {
		return
	}

	var req household.ChangeRoleInput
	if !common.Decode(w, r, h.logger, &req) {
		return
	}

	res, err := h.roles.ChangeRole(r.Context(), caller, req)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}

	httputil.JSON(w, http.StatusOK, res)
}
