package api

import (
	"net/http"

	"github.com/okian/leaguelearn/internal/domain/model"
)

// LeaguesHandler serves league-level market data.
type LeaguesHandler struct {
	deps Dependencies
}

// NewLeaguesHandler creates a new leagues handler.
func NewLeaguesHandler(deps Dependencies) *LeaguesHandler {
	return &LeaguesHandler{deps: deps}
}

// HandleLiquidity handles GET /leagues/{id}/liquidity. Missing activity
// yields the neutral score, never an error.
func (h *LeaguesHandler) HandleLiquidity(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.LeagueLiquidity(r.Context(), r.PathValue("id")))
}

type listingRequest struct {
	RosterID int    `json:"roster_id"`
	PlayerID string `json:"player_id"`
	Active   *bool  `json:"active"`
}

// HandleSaveListing handles POST /leagues/{id}/listings.
func (h *LeaguesHandler) HandleSaveListing(w http.ResponseWriter, r *http.Request) {
	const op = "api.save_listing"
	var req listingRequest
	if !decodeJSON(w, r, op, &req) {
		return
	}

	l := model.OTBListing{
		LeagueID: r.PathValue("id"),
		RosterID: req.RosterID,
		PlayerID: req.PlayerID,
		Active:   req.Active == nil || *req.Active,
	}
	if err := h.deps.SaveListing(r.Context(), l); err != nil {
		writeDepError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}
