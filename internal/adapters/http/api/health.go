package api

import (
	"net/http"

	"github.com/okian/leaguelearn/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthHandler serves GET /healthz as the Prometheus scrape of the
// service registry; a successful scrape means the process is serving.
type HealthHandler struct {
	scrape http.Handler
}

// NewHealthHandler creates a health handler over the default registry.
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{scrape: promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{})}
}

// HandleHealth writes the current metrics exposition.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h.scrape.ServeHTTP(w, r)
}
