package httpapi

import (
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// handleScan triggers one synchronous pipeline run. The response carries the
// run summary; full signal payloads are served by /api/signals.
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, errCodeMethodNotAllowed, "method not allowed")
		return
	}

	start := time.Now()
	result, err := s.runner.Run(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("manual scan failed")
		writeError(w, http.StatusBadGateway, errCodeScanFailed, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":           true,
		"degraded":          result.Degraded,
		"candidates":        len(result.Candidates),
		"alerts_sent":       result.Alerts.Sent,
		"alerts_suppressed": result.Alerts.Suppressed,
		"alerts_failed":     result.Alerts.Failed,
		"duration_seconds":  int(time.Since(start).Seconds()),
	})
}
