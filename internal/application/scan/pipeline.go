package scan

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	alertApp "stock-scout/internal/application/alert"
	"stock-scout/internal/application/rank"
	alertDomain "stock-scout/internal/domain/alert"
	"stock-scout/internal/domain/signal"
)

// RunRecorder keeps the latest run result for the API layer. Only the most
// recent run matters; historical signal outcomes are deliberately not stored.
type RunRecorder interface {
	SaveRun(result RunResult)
}

// RunResult is the complete outcome of one pipeline run.
type RunResult struct {
	StartedAt  time.Time              `json:"started_at"`
	FinishedAt time.Time              `json:"finished_at"`
	Degraded   bool                   `json:"degraded"`
	Candidates []signal.Candidate     `json:"candidates"`
	Signals    []signal.TradingSignal `json:"signals"`
	Decisions  []alertDomain.Decision `json:"decisions"`
	Alerts     alertApp.Outcome       `json:"alerts"`
}

// Pipeline wires ranking, classification and alerting into a single
// synchronous run: ranked shortlist -> per-candidate signal -> alert
// decision -> dispatch.
type Pipeline struct {
	ranker      *rank.Ranker
	classifier  *signal.Classifier
	alerts      *alertApp.Engine
	recorder    RunRecorder
	topNInitial int
	topNFinal   int
	now         func() time.Time
}

func NewPipeline(ranker *rank.Ranker, classifier *signal.Classifier, alerts *alertApp.Engine, recorder RunRecorder, topNInitial, topNFinal int) *Pipeline {
	if topNInitial <= 0 {
		topNInitial = 10
	}
	if topNFinal <= 0 {
		topNFinal = 5
	}
	return &Pipeline{
		ranker:      ranker,
		classifier:  classifier,
		alerts:      alerts,
		recorder:    recorder,
		topNInitial: topNInitial,
		topNFinal:   topNFinal,
		now:         time.Now,
	}
}

// Run executes one full pipeline pass. The only hard failure is a missing
// universe with no fallback; everything else degrades per candidate.
func (p *Pipeline) Run(ctx context.Context) (RunResult, error) {
	result := RunResult{StartedAt: p.now()}

	selection, err := p.ranker.Run(ctx, p.topNInitial, p.topNFinal)
	if err != nil {
		result.Degraded = true
		result.FinishedAt = p.now()
		return result, err
	}
	result.Degraded = selection.Degraded
	result.Candidates = selection.Candidates

	for _, c := range selection.Candidates {
		sig := p.classifier.Classify(c)
		result.Signals = append(result.Signals, sig)
		result.Decisions = append(result.Decisions, p.alerts.Evaluate(sig, c.Fundamentals))
	}

	result.Alerts = p.alerts.Dispatch(ctx, result.Decisions, result.StartedAt, result.Degraded)
	result.FinishedAt = p.now()

	log.Info().
		Int("candidates", len(result.Candidates)).
		Int("alerts_sent", result.Alerts.Sent).
		Int("alerts_suppressed", result.Alerts.Suppressed).
		Bool("degraded", result.Degraded).
		Dur("took", result.FinishedAt.Sub(result.StartedAt)).
		Msg("pipeline run completed")

	if p.recorder != nil {
		p.recorder.SaveRun(result)
	}
	return result, nil
}
