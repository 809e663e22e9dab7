package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	applog "moneytrack/internal/log"
)

type healthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "OK",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.store.Ping(ctx); err != nil {
		s.logError(r, "Readiness check failed", err, applog.ErrorTypeDatabase, applog.OpRead)
		writeError(w, http.StatusServiceUnavailable, "store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleMetrics renders the in-process counters in the Prometheus text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	tr := s.tracer.GetMetrics()
	sec := s.detector.GetMetrics()
	rl := s.limiter.GetMetrics()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	for _, m := range []struct {
		name, help, kind string
		value            int64
	}{
		{"moneytrack_http_requests_total", "HTTP requests served.", "counter", tr.TotalRequests},
		{"moneytrack_http_server_errors_total", "HTTP responses with a 5xx status.", "counter", tr.ServerErrors},
		{"moneytrack_http_response_time_avg_microseconds", "Mean response time.", "gauge", tr.AverageResponseTime},
		{"moneytrack_security_suspicious_requests_total", "Requests matching a scan pattern.", "counter", sec.SuspiciousRequests},
		{"moneytrack_security_invalid_ip_total", "Requests with an unparsable client address.", "counter", sec.InvalidIPAttempts},
		{"moneytrack_ratelimit_hits_total", "Requests rejected by the rate limiter.", "counter", rl.TotalHits},
		{"moneytrack_ratelimit_clients", "Clients tracked by the rate limiter.", "gauge", rl.ClientCount},
	} {
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n%s %d\n", m.name, m.help, m.name, m.kind, m.name, m.value)
	}
}
