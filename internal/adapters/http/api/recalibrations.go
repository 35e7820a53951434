package api

import (
	"errors"
	"net/http"

	"github.com/okian/leaguelearn/internal/adapters/mq/queue"
	"github.com/okian/leaguelearn/internal/domain/model"
)

// RecalibrationHandler serves feedback ingestion and recalibration jobs.
type RecalibrationHandler struct {
	deps Dependencies
}

// NewRecalibrationHandler creates a new recalibration handler.
func NewRecalibrationHandler(deps Dependencies) *RecalibrationHandler {
	return &RecalibrationHandler{deps: deps}
}

type ackResponse struct {
	Status string `json:"status"`
}

// HandleFeedback handles POST /feedback.
func (h *RecalibrationHandler) HandleFeedback(w http.ResponseWriter, r *http.Request) {
	const op = "api.add_feedback"
	var fb model.Feedback
	if !decodeJSON(w, r, op, &fb) {
		return
	}
	if err := h.deps.AddFeedback(r.Context(), fb); err != nil {
		writeDepError(w, op, err)
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted"})
}

type recalibrationRequest struct {
	Season int `json:"season"`
}

// HandleCreate handles POST /admin/recalibrations. The run is queued and
// the job status returned with 202; a full queue answers 429.
func (h *RecalibrationHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_recalibration"
	var req recalibrationRequest
	if !decodeJSON(w, r, op, &req) {
		return
	}
	if req.Season <= 0 {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errors.New("season must be positive")))
		return
	}

	st, err := h.deps.RequestRecalibration(r.Context(), req.Season, queue.TriggerAdmin)
	if err != nil {
		writeDepError(w, op, err)
		return
	}
	w.Header().Set("Location", "/admin/recalibrations/"+st.ID)
	writeJSON(w, http.StatusAccepted, st)
}

// HandleGet handles GET /admin/recalibrations/{id}.
func (h *RecalibrationHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_recalibration"
	st, ok := h.deps.RecalibrationStatus(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", NewKind(op, ErrNotFound))
		return
	}
	writeJSON(w, http.StatusOK, st)
}
