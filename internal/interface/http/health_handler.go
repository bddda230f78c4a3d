package httpapi

import (
	"net/http"
	"time"
)

// handleHealth reports process liveness plus dependency state. A missing
// database is "memory" mode, not a failure.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, errCodeMethodNotAllowed, "method not allowed")
		return
	}

	storage := "memory"
	if s.db != nil {
		storage = "postgres"
		if err := s.db.PingContext(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
				"success": false,
				"status":  "degraded",
				"storage": storage,
				"error":   err.Error(),
			})
			return
		}
	}

	body := map[string]interface{}{
		"success": true,
		"status":  "ok",
		"storage": storage,
	}
	if run, ok := s.runs.LastRun(); ok {
		body["last_run_at"] = run.FinishedAt.Format(time.RFC3339)
		body["last_run_degraded"] = run.Degraded
	}
	writeJSON(w, http.StatusOK, body)
}
