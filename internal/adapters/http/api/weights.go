package api

import (
	"net/http"
	"strconv"
)

// WeightsHandler serves league classification and effective weights.
type WeightsHandler struct {
	deps Dependencies
}

// NewWeightsHandler creates a new weights handler.
func NewWeightsHandler(deps Dependencies) *WeightsHandler {
	return &WeightsHandler{deps: deps}
}

type classifyResponse struct {
	LeagueClass string `json:"league_class"`
}

// HandleClassify handles POST /classify.
func (h *WeightsHandler) HandleClassify(w http.ResponseWriter, r *http.Request) {
	const op = "api.classify"
	var req leagueRef
	if !decodeJSON(w, r, op, &req) {
		return
	}
	req.LeagueClass = ""
	writeJSON(w, http.StatusOK, classifyResponse{LeagueClass: string(req.class(h.deps))})
}

// HandleGetWeights handles GET /weights?league_type&superflex&specialty.
// league_class may be given instead of the parts.
func (h *WeightsHandler) HandleGetWeights(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_weights"
	q := r.URL.Query()

	ref := leagueRef{
		LeagueClass:     q.Get("league_class"),
		LeagueType:      q.Get("league_type"),
		SpecialtyFormat: q.Get("specialty"),
	}
	if raw := q.Get("superflex"); raw != "" {
		sf, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		ref.Superflex = sf
	}

	writeJSON(w, http.StatusOK, h.deps.Weights(r.Context(), ref.class(h.deps)))
}
