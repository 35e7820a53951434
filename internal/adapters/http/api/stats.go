package api

import (
	"net/http"
)

// StatsProvider reports the service's runtime counters.
type StatsProvider interface {
	GetStats() map[string]interface{}
}

// StatsHandler serves GET /stats.
type StatsHandler struct {
	provider StatsProvider
}

// NewStatsHandler creates a stats handler over provider.
func NewStatsHandler(provider StatsProvider) *StatsHandler {
	return &StatsHandler{provider: provider}
}

// HandleStats writes the provider's counters, such as queue depth and the
// units currently being recalibrated.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.provider.GetStats())
}
