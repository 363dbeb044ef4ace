package http

import "net/http"

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	// The backend is constructed before the server starts listening, so
	// reaching this handler means dependencies are up.
	respondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	m := s.tracer.GetMetrics()
	respondJSON(w, http.StatusOK, map[string]any{
		"total_requests":           m.TotalRequests,
		"average_response_time_us": m.AverageResponseTime,
		"rate_limited_clients":     s.limiter.ActiveClients(),
		"overview_cache_entries":   s.overviewCache.Size(),
	})
}
