package httpapi

import (
	"encoding/json"
	"net/http"
	"time"
)

// handleHealth serves the liveness/readiness probe spec §6 documents:
// {status:"ok"|"degraded", timestamp, registered, agentId}.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	if !s.status.Registered() {
		status = "degraded"
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":     status,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
		"registered": s.status.Registered(),
		"agentId":    s.status.AgentID(),
	})
}

func writeJSON(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(data)
}
