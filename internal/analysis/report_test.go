package analysis

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/web3-frozen/wallet-risk/internal/provider"
)

func testQuery(t *testing.T) WalletQuery {
	t.Helper()
	q, err := NewWalletQuery("0xd8dA6BF26964aF9D7eEd9e03E53415D37aA96045", "ethereum", "all")
	if err != nil {
		t.Fatalf("NewWalletQuery: %v", err)
	}
	return q
}

func assertChartInvariant(t *testing.T, name string, c Chart) {
	t.Helper()
	if len(c.Labels) != len(c.Values) {
		t.Errorf("%s: len(labels)=%d != len(values)=%d", name, len(c.Labels), len(c.Values))
	}
	for i, v := range c.Values {
		if v < 0 {
			t.Errorf("%s: values[%d] = %v, want >= 0", name, i, v)
		}
	}
}

func TestNewChartInvariant(t *testing.T) {
	tests := []struct {
		name   string
		labels []string
		values []float64
	}{
		{"matched", []string{"a", "b"}, []float64{1, 2}},
		{"more labels", []string{"a", "b", "c"}, []float64{1}},
		{"more values", []string{"a"}, []float64{1, 2, 3}},
		{"negative values floored", []string{"a", "b"}, []float64{-5, 3}},
		{"empty", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewChart(tt.labels, tt.values)
			assertChartInvariant(t, tt.name, c)
		})
	}

	c := NewChart([]string{"a", "b"}, []float64{-5, 3})
	if c.Values[0] != 0 {
		t.Errorf("negative value = %v, want 0", c.Values[0])
	}
}

func TestSynthesizeChartsHoldInvariant(t *testing.T) {
	ds := CombinedDataset{Results: map[string]provider.Result{
		provider.NameWalletMetrics: okResult(provider.NameWalletMetrics, provider.WalletMetricsData{
			TokenTransfers:   120,
			DefiInteractions: 30,
		}),
		provider.NameNFTBalance: okResult(provider.NameNFTBalance, provider.NFTBalanceData{
			Collections: []provider.Collection{
				{Name: "Punks", Count: 2, ValueUSD: 90000},
				{Name: "", Count: 1, ValueUSD: 500},
				{Name: "Azuki", Count: 4, ValueUSD: 20000},
				{Name: "Doodles", Count: 1, ValueUSD: 1500},
				{Name: "BAYC", Count: 1, ValueUSD: 250000},
				{Name: "Moonbirds", Count: 3, ValueUSD: 7000},
			},
		}),
		provider.NameWashTrade: okResult(provider.NameWashTrade, provider.WashTradeData{WashTradingScore: 15}),
	}}
	dm := Derive(ds)
	risk := Score(ds, dm)
	payload := Synthesize(testQuery(t), ds, dm, risk, "")

	assertChartInvariant(t, "transaction_breakdown", payload.ChartData.TransactionBreakdown)
	assertChartInvariant(t, "risk_composition", payload.ChartData.RiskComposition)
	assertChartInvariant(t, "portfolio_composition", payload.ChartData.PortfolioComposition)

	// Top-5 collections by value, unnamed ones labeled Unknown
	pc := payload.ChartData.PortfolioComposition
	if len(pc.Labels) != 5 {
		t.Fatalf("portfolio labels = %d, want 5", len(pc.Labels))
	}
	if pc.Labels[0] != "BAYC" || pc.Labels[1] != "Punks" {
		t.Errorf("portfolio order = %v, want BAYC then Punks first", pc.Labels)
	}
	for _, l := range pc.Labels {
		if l == "" {
			t.Error("portfolio contains empty label, want Unknown placeholder")
		}
	}
}

func TestRecentTransactionsSortedAndCapped(t *testing.T) {
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	var raw []provider.Transaction
	for i := 0; i < 15; i++ {
		raw = append(raw, provider.Transaction{
			Hash:      fmt.Sprintf("0x%02d", i),
			Type:      "NFT Sale",
			ValueUSD:  float64(100 * i),
			Timestamp: base.Add(time.Duration(i) * time.Hour).Format(time.RFC3339),
		})
	}
	// Shuffle in a fixed unsorted order plus one bad timestamp
	raw[3], raw[11] = raw[11], raw[3]
	raw = append(raw, provider.Transaction{Hash: "0xbad", Timestamp: "not-a-time"})

	ds := CombinedDataset{Results: map[string]provider.Result{
		provider.NameWalletAnalytics: okResult(provider.NameWalletAnalytics, provider.WalletAnalyticsData{RecentTransactions: raw}),
	}}

	txs := recentTransactions(ds)
	if len(txs) != maxRecentTransactions {
		t.Fatalf("len(txs) = %d, want %d", len(txs), maxRecentTransactions)
	}
	for i := 1; i < len(txs); i++ {
		prev, errP := time.Parse(time.RFC3339, txs[i-1].Timestamp)
		curr, errC := time.Parse(time.RFC3339, txs[i].Timestamp)
		if errP != nil || errC != nil {
			t.Fatalf("parse timestamps: %v %v", errP, errC)
		}
		if curr.After(prev) {
			t.Errorf("txs[%d] newer than txs[%d]", i, i-1)
		}
	}
	if txs[0].Hash != "0x14" {
		t.Errorf("newest tx = %s, want 0x14", txs[0].Hash)
	}
}

func TestRecentTransactionDefaults(t *testing.T) {
	ds := CombinedDataset{Results: map[string]provider.Result{
		provider.NameWalletAnalytics: okResult(provider.NameWalletAnalytics, provider.WalletAnalyticsData{
			RecentTransactions: []provider.Transaction{{ValueUSD: 5}},
		}),
	}}
	txs := recentTransactions(ds)
	if len(txs) != 1 {
		t.Fatalf("len(txs) = %d, want 1", len(txs))
	}
	if txs[0].Type != "Transfer" {
		t.Errorf("Type = %q, want Transfer", txs[0].Type)
	}
	if txs[0].Counterparty != "Unknown" {
		t.Errorf("Counterparty = %q, want Unknown", txs[0].Counterparty)
	}
}

func TestFallbackNarrativeNeverEmpty(t *testing.T) {
	q := testQuery(t)
	ds := allFailedDataset()
	dm := Derive(ds)
	risk := Score(ds, dm)

	payload := Synthesize(q, ds, dm, risk, "")
	if payload.Narrative == "" {
		t.Fatal("fallback narrative is empty")
	}
	if !strings.Contains(payload.Narrative, q.Address) {
		t.Error("fallback narrative missing wallet address")
	}
	if !strings.Contains(payload.Narrative, risk.Tier) {
		t.Error("fallback narrative missing risk tier")
	}
	if !strings.Contains(payload.Narrative, "Wash Trading") {
		t.Error("fallback narrative missing top risk factors")
	}
	if payload.DataConfidence != ConfidenceNone {
		t.Errorf("DataConfidence = %q, want %q", payload.DataConfidence, ConfidenceNone)
	}
}

func TestSynthesizeExternalNarrativeVerbatim(t *testing.T) {
	q := testQuery(t)
	ds := CombinedDataset{Results: map[string]provider.Result{}}
	dm := Derive(ds)
	risk := Score(ds, dm)

	const external = "# External Report\n\nAll clear."
	payload := Synthesize(q, ds, dm, risk, external)
	if payload.Narrative != external {
		t.Errorf("Narrative = %q, want external text verbatim", payload.Narrative)
	}
}
