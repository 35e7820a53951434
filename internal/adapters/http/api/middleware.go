package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/okian/leaguelearn/pkg/metrics"
)

// MetricsMiddleware records request count, latency and failures for endpoint.
// Failures are labelled with the same code the error body carries.
func MetricsMiddleware(next http.HandlerFunc, endpoint string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		durationMs := float64(time.Since(start).Milliseconds())
		status := strconv.Itoa(wrapped.statusCode)
		metrics.RecordHTTPRequest(endpoint, r.Method, status)
		metrics.RecordHTTPRequestDuration(endpoint, r.Method, status, durationMs)

		if kind, failed := failureKind(wrapped.statusCode); failed {
			metrics.RecordErrorByEndpoint(endpoint, r.Method, kind)
		}
	}
}

// failureKind maps a status to the error code writeError would have used.
func failureKind(status int) (string, bool) {
	switch {
	case status < http.StatusBadRequest:
		return "", false
	case status == http.StatusTooManyRequests:
		return "backpressure", true
	case status == http.StatusNotFound:
		return "not_found", true
	case status >= http.StatusInternalServerError:
		return "internal", true
	default:
		return "bad_request", true
	}
}

// responseWriter captures the status written by the wrapped handler.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	if err != nil {
		return n, fmt.Errorf("write response: %w", err)
	}
	return n, nil
}
