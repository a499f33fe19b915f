package analysis

import (
	"context"
	"log/slog"
	"time"

	"github.com/web3-frozen/wallet-risk/internal/metrics"
)

// NarrativeSource generates the human-readable report text. Implementations
// may fail or time out; the synthesizer's fallback covers both.
type NarrativeSource interface {
	Generate(ctx context.Context, q WalletQuery, dm DerivedMetrics, risk RiskAssessment) (string, error)
}

// Analyzer runs the full pipeline: aggregate, derive, score, synthesize.
type Analyzer struct {
	agg       *Aggregator
	narrative NarrativeSource // nil disables external narration
	logger    *slog.Logger
}

func NewAnalyzer(agg *Aggregator, narrative NarrativeSource, logger *slog.Logger) *Analyzer {
	return &Analyzer{agg: agg, narrative: narrative, logger: logger}
}

// Analyze produces a report for the query. It never fails: upstream outages
// degrade to a defaults-only report with data confidence "none".
func (a *Analyzer) Analyze(ctx context.Context, q WalletQuery) ReportPayload {
	start := time.Now()

	ds := a.agg.Aggregate(ctx, q)
	derived := Derive(ds)
	risk := Score(ds, derived)

	var narrative string
	if a.narrative != nil {
		text, err := a.narrative.Generate(ctx, q, derived, risk)
		if err != nil {
			a.logger.Warn("narrative generation failed, using fallback", "address", q.Address, "error", err)
		} else {
			narrative = text
		}
	}
	if narrative == "" {
		metrics.NarrativeFallbacks.Inc()
	}

	payload := Synthesize(q, ds, derived, risk, narrative)

	metrics.AnalysesTotal.WithLabelValues(risk.Tier, payload.DataConfidence).Inc()
	metrics.AnalysisDuration.Observe(time.Since(start).Seconds())
	a.logger.Info("analysis complete",
		"address", q.Address,
		"chain", q.Chain,
		"score", risk.Score,
		"tier", risk.Tier,
		"confidence", payload.DataConfidence,
		"duration", time.Since(start).String(),
	)
	return payload
}
