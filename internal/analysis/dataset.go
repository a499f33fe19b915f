package analysis

import (
	"sort"

	"github.com/web3-frozen/wallet-risk/internal/provider"
)

// Data confidence levels carried on every report.
const (
	ConfidenceFull    = "full"
	ConfidencePartial = "partial"
	ConfidenceNone    = "none"
)

// CombinedDataset holds the settled result of every provider call made for
// one query. Every requested provider has exactly one entry, success or
// failure.
type CombinedDataset struct {
	Results map[string]provider.Result
}

// Available returns the names of the providers that succeeded, sorted.
func (d CombinedDataset) Available() []string {
	var names []string
	for name, r := range d.Results {
		if r.OK() {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Confidence summarizes how much of the upstream data arrived.
func (d CombinedDataset) Confidence() string {
	ok := len(d.Available())
	switch {
	case ok == 0:
		return ConfidenceNone
	case ok == len(d.Results):
		return ConfidenceFull
	default:
		return ConfidencePartial
	}
}

// Typed payload accessors. A missing or failed provider yields the zero
// value, which derivation treats as absent data.

func (d CombinedDataset) walletMetrics() provider.WalletMetricsData {
	if r, ok := d.Results[provider.NameWalletMetrics]; ok && r.OK() {
		if m, ok := r.Payload.(provider.WalletMetricsData); ok {
			return m
		}
	}
	return provider.WalletMetricsData{}
}

func (d CombinedDataset) nftBalance() provider.NFTBalanceData {
	if r, ok := d.Results[provider.NameNFTBalance]; ok && r.OK() {
		if b, ok := r.Payload.(provider.NFTBalanceData); ok {
			return b
		}
	}
	return provider.NFTBalanceData{}
}

func (d CombinedDataset) walletAnalytics() provider.WalletAnalyticsData {
	if r, ok := d.Results[provider.NameWalletAnalytics]; ok && r.OK() {
		if a, ok := r.Payload.(provider.WalletAnalyticsData); ok {
			return a
		}
	}
	return provider.WalletAnalyticsData{}
}

func (d CombinedDataset) washTrade() provider.WashTradeData {
	if r, ok := d.Results[provider.NameWashTrade]; ok && r.OK() {
		if w, ok := r.Payload.(provider.WashTradeData); ok {
			return w
		}
	}
	return provider.WashTradeData{}
}

func (d CombinedDataset) walletScore() (provider.WalletScoreData, bool) {
	if r, ok := d.Results[provider.NameWalletScore]; ok && r.OK() {
		if s, ok := r.Payload.(provider.WalletScoreData); ok {
			return s, true
		}
	}
	return provider.WalletScoreData{}, false
}

func (d CombinedDataset) hasBalance() bool {
	r, ok := d.Results[provider.NameNFTBalance]
	return ok && r.OK()
}
