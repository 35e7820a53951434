// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/okian/leaguelearn/internal/adapters/mq/queue"
	"github.com/okian/leaguelearn/internal/adapters/repository"
	"github.com/okian/leaguelearn/internal/domain/jobstatus"
	"github.com/okian/leaguelearn/internal/domain/liquidity"
	"github.com/okian/leaguelearn/internal/domain/model"
	"github.com/okian/leaguelearn/internal/domain/tendency"
	"github.com/okian/leaguelearn/internal/domain/weights"
)

const maxBodyBytes = 1 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	Classify(leagueType, specialtyFormat string, superflex bool) model.LeagueClass
	Weights(ctx context.Context, class model.LeagueClass) weights.Resolution

	EvaluateTrade(ctx context.Context, class model.LeagueClass, give, receive []model.Asset, counterpartyID string) (model.TradeCandidate, error)
	OTBPackages(ctx context.Context, q model.PackageQuery) (model.PackageResult, error)

	LeagueLiquidity(ctx context.Context, leagueID string) liquidity.Liquidity
	SaveListing(ctx context.Context, l model.OTBListing) error

	ManagerProfile(ctx context.Context, managerID string) (tendency.Profile, error)
	RecordOutcome(ctx context.Context, managerID string, o tendency.Outcome) (tendency.Profile, error)

	AddFeedback(ctx context.Context, fb model.Feedback) error
	RequestRecalibration(ctx context.Context, season int, trigger queue.Trigger) (jobstatus.Status, error)
	RecalibrationStatus(id string) (jobstatus.Status, bool)
}

// Server wires HTTP routes for the engine API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	weightsHandler *WeightsHandler
	tradesHandler  *TradesHandler
	leaguesHandler *LeaguesHandler
	managerHandler *ManagersHandler
	recalHandler   *RecalibrationHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(statsProvider),
		weightsHandler: NewWeightsHandler(deps),
		tradesHandler:  NewTradesHandler(deps),
		leaguesHandler: NewLeaguesHandler(deps),
		managerHandler: NewManagersHandler(deps),
		recalHandler:   NewRecalibrationHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("POST /classify", MetricsMiddleware(s.weightsHandler.HandleClassify, "classify"))
	mux.HandleFunc("GET /weights", MetricsMiddleware(s.weightsHandler.HandleGetWeights, "weights"))

	mux.HandleFunc("POST /trades/evaluate", MetricsMiddleware(s.tradesHandler.HandleEvaluate, "trades_evaluate"))
	mux.HandleFunc("POST /leagues/{id}/packages", MetricsMiddleware(s.tradesHandler.HandlePackages, "league_packages"))

	mux.HandleFunc("GET /leagues/{id}/liquidity", MetricsMiddleware(s.leaguesHandler.HandleLiquidity, "league_liquidity"))
	mux.HandleFunc("POST /leagues/{id}/listings", MetricsMiddleware(s.leaguesHandler.HandleSaveListing, "league_listings"))

	mux.HandleFunc("GET /managers/{id}/profile", MetricsMiddleware(s.managerHandler.HandleProfile, "manager_profile"))
	mux.HandleFunc("POST /managers/{id}/outcomes", MetricsMiddleware(s.managerHandler.HandleOutcome, "manager_outcomes"))

	mux.HandleFunc("POST /feedback", MetricsMiddleware(s.recalHandler.HandleFeedback, "feedback"))
	mux.HandleFunc("POST /admin/recalibrations", MetricsMiddleware(s.recalHandler.HandleCreate, "recalibrations"))
	mux.HandleFunc("GET /admin/recalibrations/{id}", MetricsMiddleware(s.recalHandler.HandleGet, "recalibration"))
}

// leagueRef identifies a league class either directly or by its parts.
type leagueRef struct {
	LeagueClass     string `json:"league_class"`
	LeagueType      string `json:"league_type"`
	SpecialtyFormat string `json:"specialty_format"`
	Superflex       bool   `json:"superflex"`
}

func (l leagueRef) class(deps Dependencies) model.LeagueClass {
	if c := strings.TrimSpace(l.LeagueClass); c != "" {
		return model.LeagueClass(strings.ToLower(c))
	}
	return deps.Classify(l.LeagueType, l.SpecialtyFormat, l.Superflex)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes {code, message}. Server errors never leak details.
func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil && status < http.StatusInternalServerError {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeDepError maps a dependency error onto a status code.
func writeDepError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, repository.ErrInvalidRecord),
		errors.Is(err, model.ErrInvalidAsset),
		errors.Is(err, model.ErrUnknownAssetKind),
		errors.Is(err, model.ErrNonFiniteWeight):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, ErrNotFound), errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", NewKind(op, ErrNotFound))
	case errors.Is(err, ErrBackpressure):
		writeError(w, http.StatusTooManyRequests, "backpressure", NewKind(op, ErrBackpressure))
	default:
		writeError(w, http.StatusInternalServerError, "internal", err)
	}
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, op string, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, fmt.Errorf("invalid JSON body: %w", err)))
		return false
	}
	return true
}
