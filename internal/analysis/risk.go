package analysis

import (
	"math"
	"sort"
)

// Risk tier labels.
const (
	TierHigh     = "High Risk"
	TierModerate = "Moderate Risk"
	TierLow      = "Low Risk"
	TierVeryLow  = "Very Low Risk"

	// QualifierInactive overrides the numeric tier for wallets below the
	// activity floor: too few transactions to score meaningfully.
	QualifierInactive = "New or Inactive Wallet"

	activityFloorTx = 5
)

// Sub-score weights. Fixed here as the canonical set; wash trading dominates
// because it is the strongest direct fraud signal.
const (
	weightWashTrading = 0.4
	weightSuspicious  = 0.3
	weightPortfolio   = 0.3
)

// Factor is one weighted component of the overall risk score.
type Factor struct {
	Name         string  `json:"factor"`
	Weight       float64 `json:"weight"`
	Value        float64 `json:"value"`
	Contribution float64 `json:"contribution"`
}

// RiskAssessment is the scored and classified risk of a wallet.
type RiskAssessment struct {
	Score               int      `json:"score"`
	Tier                string   `json:"tier"`
	Qualifier           string   `json:"qualifier,omitempty"`
	ContributingFactors []Factor `json:"contributing_factors"`
}

// Score composes the weighted risk score and maps it to a tier. Sub-scores
// are clamped to [0, 100] before weighting; the final score is rounded and
// clamped. Wallets below the activity floor are classified by the inactive
// qualifier regardless of their numeric score.
func Score(ds CombinedDataset, dm DerivedMetrics) RiskAssessment {
	washScore := clamp100(ds.washTrade().WashTradingScore)

	var suspiciousScore, portfolioScore float64
	if score, ok := ds.walletScore(); ok {
		suspiciousScore = clamp100(score.SuspiciousActivityScore)
		portfolioScore = clamp100(score.PortfolioRiskScore)
	} else {
		// Without the score feed, fall back to what the other feeds imply:
		// sanctioned or mixer exposure raises suspicion, concentration
		// raises portfolio risk.
		wm := ds.walletMetrics()
		if wm.SanctionedVolume > 0 {
			suspiciousScore += 40
		}
		if wm.MixerVolume > 0 {
			suspiciousScore += 40
		}
		suspiciousScore = clamp100(suspiciousScore)
		if ds.hasBalance() {
			portfolioScore = clamp100(float64(100 - dm.DiversificationScore))
		}
	}

	factors := []Factor{
		{Name: "wash_trading", Weight: weightWashTrading, Value: washScore},
		{Name: "suspicious_activity", Weight: weightSuspicious, Value: suspiciousScore},
		{Name: "portfolio_risk", Weight: weightPortfolio, Value: portfolioScore},
	}
	var total float64
	for i := range factors {
		factors[i].Contribution = factors[i].Weight * factors[i].Value
		total += factors[i].Contribution
	}
	sort.SliceStable(factors, func(i, j int) bool {
		return factors[i].Contribution > factors[j].Contribution
	})

	final := int(clamp100(math.Round(total)))

	assessment := RiskAssessment{
		Score:               final,
		Tier:                tierFor(final),
		ContributingFactors: factors,
	}
	if dm.TotalTransactions < activityFloorTx {
		assessment.Tier = TierVeryLow
		assessment.Qualifier = QualifierInactive
	}
	return assessment
}

func tierFor(score int) string {
	switch {
	case score >= 80:
		return TierHigh
	case score >= 60:
		return TierModerate
	case score >= 40:
		return TierLow
	default:
		return TierVeryLow
	}
}

func clamp100(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}
