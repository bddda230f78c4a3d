package httpapi

import (
	"net/http"
	"time"

	"stock-scout/internal/domain/signal"
)

// handleSignals serves the latest completed run: ranked candidates, their
// signals and the alert decisions.
func (s *Server) handleSignals(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, errCodeMethodNotAllowed, "method not allowed")
		return
	}

	run, ok := s.runs.LastRun()
	if !ok {
		writeError(w, http.StatusNotFound, errCodeNoRun, "no scan has completed yet")
		return
	}

	type item struct {
		Ticker      string       `json:"ticker"`
		RankScore   float64      `json:"rank_score"`
		Label       signal.Label `json:"label"`
		Strength    float64      `json:"strength"`
		ShouldAlert bool         `json:"should_alert"`
		Reason      string       `json:"reason"`
		Missing     []string     `json:"missing,omitempty"`
	}
	items := make([]item, 0, len(run.Candidates))
	for i, c := range run.Candidates {
		it := item{
			Ticker:    c.Ticker,
			RankScore: c.RankScore,
			Missing:   c.Missing,
		}
		if i < len(run.Signals) {
			it.Label = run.Signals[i].Label
			it.Strength = run.Signals[i].Strength
		}
		if i < len(run.Decisions) {
			it.ShouldAlert = run.Decisions[i].ShouldAlert
			it.Reason = run.Decisions[i].Reason
		}
		items = append(items, it)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"run_at":      run.StartedAt.Format(time.RFC3339),
		"finished_at": run.FinishedAt.Format(time.RFC3339),
		"degraded":    run.Degraded,
		"items":       items,
	})
}
