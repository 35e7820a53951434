package api

import (
	"net/http"

	"github.com/okian/leaguelearn/internal/domain/tendency"
)

// ManagersHandler serves manager tendency profiles.
type ManagersHandler struct {
	deps Dependencies
}

// NewManagersHandler creates a new managers handler.
func NewManagersHandler(deps Dependencies) *ManagersHandler {
	return &ManagersHandler{deps: deps}
}

// HandleProfile handles GET /managers/{id}/profile.
func (h *ManagersHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	const op = "api.manager_profile"
	p, err := h.deps.ManagerProfile(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDepError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type outcomeRequest struct {
	Accepted     bool    `json:"accepted"`
	OverpayRatio float64 `json:"overpay_ratio"`
}

// HandleOutcome handles POST /managers/{id}/outcomes.
func (h *ManagersHandler) HandleOutcome(w http.ResponseWriter, r *http.Request) {
	const op = "api.manager_outcome"
	var req outcomeRequest
	if !decodeJSON(w, r, op, &req) {
		return
	}
	p, err := h.deps.RecordOutcome(r.Context(), r.PathValue("id"), tendency.Outcome{
		Accepted:     req.Accepted,
		OverpayRatio: req.OverpayRatio,
	})
	if err != nil {
		writeDepError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
