package api

import (
	"net/http"

	"github.com/okian/leaguelearn/internal/domain/model"
	"github.com/okian/leaguelearn/internal/domain/valuation"
)

// TradesHandler serves trade evaluation and OTB package generation.
type TradesHandler struct {
	deps Dependencies
}

// NewTradesHandler creates a new trades handler.
func NewTradesHandler(deps Dependencies) *TradesHandler {
	return &TradesHandler{deps: deps}
}

type evaluateRequest struct {
	leagueRef
	Give           []model.Asset `json:"give"`
	Receive        []model.Asset `json:"receive"`
	CounterpartyID string        `json:"counterparty_id"`
}

type evaluateResponse struct {
	LeagueClass string               `json:"league_class"`
	Headline    string               `json:"headline"`
	Candidate   model.TradeCandidate `json:"candidate"`
}

// HandleEvaluate handles POST /trades/evaluate.
func (h *TradesHandler) HandleEvaluate(w http.ResponseWriter, r *http.Request) {
	const op = "api.evaluate_trade"
	var req evaluateRequest
	if !decodeJSON(w, r, op, &req) {
		return
	}

	class := req.class(h.deps)
	c, err := h.deps.EvaluateTrade(r.Context(), class, req.Give, req.Receive, req.CounterpartyID)
	if err != nil {
		writeDepError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, evaluateResponse{
		LeagueClass: string(class),
		Headline:    valuation.FormatHeadline(c),
		Candidate:   c,
	})
}

type packagesRequest struct {
	leagueRef
	Username string                `json:"username"`
	Season   int                   `json:"season"`
	RosterID int                   `json:"roster_id"`
	Rosters  map[int][]model.Asset `json:"rosters"`
	Limit    int                   `json:"limit"`
}

type packagesResponse struct {
	model.PackageResult
	Headline string `json:"headline,omitempty"`
}

// HandlePackages handles POST /leagues/{id}/packages.
func (h *TradesHandler) HandlePackages(w http.ResponseWriter, r *http.Request) {
	const op = "api.otb_packages"
	var req packagesRequest
	if !decodeJSON(w, r, op, &req) {
		return
	}

	res, err := h.deps.OTBPackages(r.Context(), model.PackageQuery{
		LeagueID: r.PathValue("id"),
		Username: req.Username,
		Season:   req.Season,
		Class:    req.class(h.deps),
		RosterID: req.RosterID,
		Rosters:  req.Rosters,
		Limit:    req.Limit,
	})
	if err != nil {
		writeDepError(w, op, err)
		return
	}

	resp := packagesResponse{PackageResult: res}
	if top, ok := valuation.SelectTopCandidate(res.Packages); ok {
		resp.Headline = valuation.FormatHeadline(top)
	}
	writeJSON(w, http.StatusOK, resp)
}
