package invites

import (
	"log/slog"
	"net/http"

	"github.com/trackly/trackly-home/internal/household"
	"github.com/trackly/trackly-home/internal/http/features/common"
	"github.com/trackly/trackly-home/internal/httputil"
)

type Handler struct {
	logger  *slog.Logger
	invites *household.InviteService
}

func NewHandler(logger *slog.Logger, invites *household.InviteService) *Handler {
	return &Handler{logger: logger, invites: invites}
}

type ListInvitesResponse struct {
	Invites []household.PendingInvite `json:"invites"`
}

// CreateInvite creates an invite and emails the redemption link.
// POST /create-invite
func (h *Handler) CreateInvite(w http.ResponseWriter, r *http.Request) {
	caller, ok := common.Caller(w, r)
	if !ok {
		return
	}

	var req household.CreateInviteInput
	if !common.Decode(w, r, h.logger, &req) {
		return
	}

	res, err := h.invites.CreateInvite(r.Context(), caller, req)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}

	httputil.JSON(w, http.StatusOK, res)
}

// AcceptInvite redeems an invite token for the caller.
// POST /accept-invite
func (h *Handler) AcceptInvite(w http.ResponseWriter, r *http.Request) {
	caller, ok := common.Caller(w, r)
	if !ok {
		return
	}

	var req household.AcceptInviteInput
	if !common.Decode(w, r, h.logger, &req) {
		return
	}

	res, err := h.invites.AcceptInvite(r.Context(), caller, req)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}

	httputil.JSON(w, http.StatusOK, res)
}

// ListInvites lists pending invites for household managers.
// POST /list-invites
func (h *Handler) ListInvites(w http.ResponseWriter, r *http.Request) {
	caller, ok := common.Caller(w, r)
	if !ok {
		return
	}

	var req common.HouseholdRequest
	if !common.Decode(w, r, h.logger, &req) {
		return
	}

	pending, err := h.invites.ListPendingInvites(r.Context(), caller, req.HouseholdID)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}

	httputil.JSON(w, http.StatusOK, ListInvitesResponse{Invites: pending})
}
