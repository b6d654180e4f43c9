package api

import (
	"net/http"
)

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats := s.orchestrator.Engine().Stats()
	if stats == nil {
		jsonError(w, "generation stats unavailable", http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"generation":  stats.Snapshot(),
		"queue_depth": s.orchestrator.QueueDepth(),
		"publishing":  s.store != nil,
	})
}
