package households

import (
	"log/slog"
	"net/http"

	"github.com/trackly/trackly-home/internal/household"
	"github.com/trackly/trackly-home/internal/http/features/common"
	"github.com/trackly/trackly-home/internal/httputil"
)

type Handler struct {
	logger     *slog.Logger
	households *household.HouseholdService
}

func NewHandler(logger *slog.Logger, households *household.HouseholdService) *Handler {
	return &Handler{logger: logger, households: households}
}

type ListMembersResponse struct {
	Members []household.Member `json:"members"`
}

// CreateHousehold creates a household owned by the caller.
// POST /create-household
func (h *Handler) CreateHousehold(w http.ResponseWriter, r *http.Request) {
	caller, ok := common.Caller(w, r)
	if !ok {
		return
	}

	var req household.CreateHouseholdInput
	if !common.Decode(w, r, h.logger, &req) {
		return
	}

	res, err := h.households.CreateHousehold(r.Context(), caller, req)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}

	httputil.JSON(w, http.StatusOK, res)
}

// ListMembers lists the members of a household the caller belongs to.
// POST /list-members
func (h *Handler) ListMembers(w http.ResponseWriter, r *http.Request) {
	caller, ok := common.Caller(w, r)
	if !ok {
		return
	}

	var req common.HouseholdRequest
	if !common.Decode(w, r, h.logger, &req) {
		return
	}

	members, err := h.households.ListMembers(r.Context(), caller, req.HouseholdID)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}

	httputil.JSON(w, http.StatusOK, ListMembersResponse{Members: members})
}

// MyHousehold returns the caller's household.
// POST /my-household
func (h *Handler) MyHousehold(w http.ResponseWriter, r *http.Request) {
	caller, ok := common.Caller(w, r)
	if !ok {
		return
	}

	var req common.EmptyRequest
	if r.ContentLength != 0 && !common.Decode(w, r, h.logger, &req) {
		return
	}

	cur, err := h.households.CurrentHousehold(r.Context(), caller)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}

	httputil.JSON(w, http.StatusOK, cur)
}
