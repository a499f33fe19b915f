package analysis

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/web3-frozen/wallet-risk/internal/provider"
)

const maxRecentTransactions = 10

// Chart is a labeled value series ready for rendering. Labels and values
// always have equal length and values are never negative.
type Chart struct {
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
}

// NewChart pairs labels with values, truncating to the shorter of the two
// and flooring negatives at zero so the invariant holds for any input.
func NewChart(labels []string, values []float64) Chart {
	n := len(labels)
	if len(values) < n {
		n = len(values)
	}
	c := Chart{Labels: make([]string, n), Values: make([]float64, n)}
	copy(c.Labels, labels[:n])
	for i, v := range values[:n] {
		if v < 0 {
			v = 0
		}
		c.Values[i] = v
	}
	return c
}

type ChartData struct {
	TransactionBreakdown Chart `json:"transaction_breakdown_chart"`
	RiskComposition      Chart `json:"risk_composition_chart"`
	PortfolioComposition Chart `json:"portfolio_composition_chart"`
}

type RecentTransaction struct {
	Hash         string  `json:"hash,omitempty"`
	Type         string  `json:"type"`
	Counterparty string  `json:"counterparty"`
	AmountUSD    float64 `json:"amount_usd"`
	Timestamp    string  `json:"timestamp"`
}

// ReportPayload is the unit returned to the caller and the unit cached.
// Immutable once built.
type ReportPayload struct {
	Address            string              `json:"address"`
	Chain              string              `json:"chain"`
	RiskAssessment     RiskAssessment      `json:"risk_assessment"`
	Metrics            DerivedMetrics      `json:"metrics"`
	ChartData          ChartData           `json:"chart_data"`
	RecentTransactions []RecentTransaction `json:"recent_transactions"`
	Narrative          string              `json:"narrative"`
	DataConfidence     string              `json:"data_confidence"`
	GeneratedAt        time.Time           `json:"generated_at"`
}

// Synthesize assembles the final report. An externally generated narrative
// is embedded verbatim; when absent the templated fallback is used, so the
// narrative is never empty.
func Synthesize(q WalletQuery, ds CombinedDataset, dm DerivedMetrics, risk RiskAssessment, narrative string) ReportPayload {
	if narrative == "" {
		narrative = fallbackNarrative(q, dm, risk)
	}
	return ReportPayload{
		Address:            q.Address,
		Chain:              q.Chain,
		RiskAssessment:     risk,
		Metrics:            dm,
		ChartData:          buildCharts(ds, dm),
		RecentTransactions: recentTransactions(ds),
		Narrative:          narrative,
		DataConfidence:     ds.Confidence(),
		GeneratedAt:        time.Now().UTC(),
	}
}

func buildCharts(ds CombinedDataset, dm DerivedMetrics) ChartData {
	wm := ds.walletMetrics()
	an := ds.walletAnalytics()
	wash := ds.washTrade()
	score, _ := ds.walletScore()

	txBreakdown := NewChart(
		[]string{"NFT Trades", "Token Transfers", "DeFi Interactions", "Other"},
		[]float64{
			float64(an.NFTTransactions),
			float64(wm.TokenTransfers),
			float64(wm.DefiInteractions),
			float64(wm.OtherTransactions),
		},
	)

	riskComposition := NewChart(
		[]string{"Wash Trading", "Suspicious Activity", "Sanctioned Interactions", "Mixer Usage"},
		[]float64{
			wash.WashTradingScore,
			score.SuspiciousActivityScore,
			score.SanctionedScore,
			score.MixerScore,
		},
	)

	cols := append([]provider.Collection(nil), ds.nftBalance().Collections...)
	sort.SliceStable(cols, func(i, j int) bool { return cols[i].ValueUSD > cols[j].ValueUSD })
	if len(cols) > 5 {
		cols = cols[:5]
	}
	labels := make([]string, 0, len(cols))
	values := make([]float64, 0, len(cols))
	for _, c := range cols {
		name := c.Name
		if name == "" {
			name = "Unknown"
		}
		labels = append(labels, name)
		values = append(values, c.ValueUSD)
	}

	return ChartData{
		TransactionBreakdown: txBreakdown,
		RiskComposition:      riskComposition,
		PortfolioComposition: NewChart(labels, values),
	}
}

// recentTransactions returns the wallet's transactions newest first, capped
// at maxRecentTransactions. Entries with unparseable timestamps sort last.
func recentTransactions(ds CombinedDataset) []RecentTransaction {
	raw := ds.walletAnalytics().RecentTransactions

	txs := make([]RecentTransaction, 0, len(raw))
	for _, t := range raw {
		typ := t.Type
		if typ == "" {
			typ = "Transfer"
		}
		counterparty := t.Collection
		if counterparty == "" {
			counterparty = "Unknown"
		}
		txs = append(txs, RecentTransaction{
			Hash:         t.Hash,
			Type:         typ,
			Counterparty: counterparty,
			AmountUSD:    t.ValueUSD,
			Timestamp:    t.Timestamp,
		})
	}

	sort.SliceStable(txs, func(i, j int) bool {
		ti, errI := time.Parse(time.RFC3339, txs[i].Timestamp)
		tj, errJ := time.Parse(time.RFC3339, txs[j].Timestamp)
		if errI != nil {
			return false
		}
		if errJ != nil {
			return true
		}
		return ti.After(tj)
	})

	if len(txs) > maxRecentTransactions {
		txs = txs[:maxRecentTransactions]
	}
	return txs
}

// fallbackNarrative renders a deterministic markdown report from the
// derived metrics when the external generator produced nothing.
func fallbackNarrative(q WalletQuery, dm DerivedMetrics, risk RiskAssessment) string {
	var b strings.Builder

	b.WriteString("# Wallet Risk Report\n\n")
	fmt.Fprintf(&b, "**Wallet Address:** %s\n", q.Address)
	fmt.Fprintf(&b, "**Blockchain:** %s\n\n", strings.ToUpper(q.Chain))

	b.WriteString("## Risk Assessment\n")
	tier := risk.Tier
	if risk.Qualifier != "" {
		tier = fmt.Sprintf("%s (%s)", risk.Tier, risk.Qualifier)
	}
	fmt.Fprintf(&b, "- **Overall Risk Level:** %s\n", tier)
	fmt.Fprintf(&b, "- **Risk Score:** %d/100\n\n", risk.Score)

	b.WriteString("## Top Risk Factors\n")
	factors := risk.ContributingFactors
	if len(factors) > 3 {
		factors = factors[:3]
	}
	for _, f := range factors {
		fmt.Fprintf(&b, "- %s: %.0f/100 (weight %.0f%%)\n", factorLabel(f.Name), f.Value, f.Weight*100)
	}

	b.WriteString("\n## Portfolio\n")
	fmt.Fprintf(&b, "Holds %d unique tokens worth %s across a portfolio with a diversification score of %d/100.\n",
		dm.UniqueTokensHeld, dm.CurrentBalanceUSD, dm.DiversificationScore)

	b.WriteString("\n## Activity\n")
	fmt.Fprintf(&b, "- Wallet age: %s\n", dm.WalletAge)
	fmt.Fprintf(&b, "- Total transactions: %d\n", dm.TotalTransactions)
	fmt.Fprintf(&b, "- Trading frequency: %s\n", dm.TradingFrequency)
	fmt.Fprintf(&b, "- Whale: %s | Shark: %s | Contract: %s\n", dm.IsWhale, dm.IsShark, dm.IsContract)

	return b.String()
}

func factorLabel(name string) string {
	switch name {
	case "wash_trading":
		return "Wash Trading"
	case "suspicious_activity":
		return "Suspicious Activity"
	case "portfolio_risk":
		return "Portfolio Risk"
	default:
		return name
	}
}
