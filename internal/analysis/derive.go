package analysis

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/web3-frozen/wallet-risk/internal/provider"
)

// DerivedMetrics is the normalized, fully-populated view of a wallet. Every
// field holds a concrete value even when every upstream source failed.
type DerivedMetrics struct {
	WalletAge            string `json:"wallet_age"`
	WalletAgeDays        int    `json:"wallet_age_days"`
	CurrentBalanceUSD    string `json:"current_balance_usd"`
	CurrentBalanceETH    string `json:"current_balance_eth"`
	TotalTransactions    int    `json:"total_transactions"`
	UniqueTokensHeld     int    `json:"unique_tokens_held"`
	InflowAddresses      int    `json:"inflow_addresses"`
	OutflowAddresses     int    `json:"outflow_addresses"`
	SanctionedVolumeUSD  string `json:"sanctioned_volume_usd"`
	MixerVolumeUSD       string `json:"mixer_volume_usd"`
	WashTradedNFTCount   int    `json:"wash_traded_nft_count"`
	IsShark              string `json:"is_shark"`
	IsWhale              string `json:"is_whale"`
	IsContract           string `json:"is_contract"`
	DiversificationScore int    `json:"diversification_score"`
	TradingFrequency     string `json:"trading_frequency"`
	NFTPortfolioValue    string `json:"nft_portfolio_value"`
	AverageHoldingPeriod string `json:"average_holding_period"`
}

// Holder classification thresholds in portfolio USD value.
const (
	whaleThresholdUSD = 1_000_000
	sharkThresholdUSD = 100_000
)

// Derive converts a combined dataset into presentable metrics. Pure
// function: no I/O, deterministic, and defined for any input including the
// all-failed dataset.
func Derive(ds CombinedDataset) DerivedMetrics {
	wm := ds.walletMetrics()
	bal := ds.nftBalance()
	wash := ds.washTrade()

	balanceUSD := bal.TotalValueUSD
	if balanceUSD == 0 {
		balanceUSD = wm.TotalBalanceUSD
	}
	balanceETH := bal.TotalValueETH
	if balanceETH == 0 {
		balanceETH = wm.TotalBalanceETH
	}

	totalTx := wm.TotalTransactions
	if totalTx == 0 {
		totalTx = bal.TransactionCount
	}

	uniqueTokens := bal.UniqueTokens
	if uniqueTokens == 0 {
		uniqueTokens = wm.UniqueNFTCount
	}

	age, ageDays := walletAge(wm.WalletAge, wm.FirstTransactionDate)

	holding := wm.AverageHoldingPeriod
	if holding == "" {
		holding = "Unknown"
	}

	return DerivedMetrics{
		WalletAge:            age,
		WalletAgeDays:        ageDays,
		CurrentBalanceUSD:    FormatCurrency(balanceUSD),
		CurrentBalanceETH:    FormatETH(balanceETH),
		TotalTransactions:    totalTx,
		UniqueTokensHeld:     uniqueTokens,
		InflowAddresses:      wm.InflowAddresses,
		OutflowAddresses:     wm.OutflowAddresses,
		SanctionedVolumeUSD:  FormatCurrency(wm.SanctionedVolume),
		MixerVolumeUSD:       FormatCurrency(wm.MixerVolume),
		WashTradedNFTCount:   wash.WashTradedNFTCount,
		IsShark:              yesNo(wm.IsShark || balanceUSD >= sharkThresholdUSD),
		IsWhale:              yesNo(wm.IsWhale || balanceUSD >= whaleThresholdUSD),
		IsContract:           yesNo(wm.IsContract),
		DiversificationScore: diversificationScore(bal.Collections),
		TradingFrequency:     tradingFrequency(wm.TransactionsPerDay),
		NFTPortfolioValue:    FormatCurrency(bal.TotalValueUSD),
		AverageHoldingPeriod: holding,
	}
}

// FormatCurrency abbreviates USD values: millions as $X.XXM, thousands as
// $X.XK, everything below as $X.XX. The K rule applies up to but excluding
// one million, so 999999 renders as $1000.0K.
func FormatCurrency(amount float64) string {
	switch {
	case amount >= 1_000_000:
		return fmt.Sprintf("$%.2fM", amount/1_000_000)
	case amount >= 1_000:
		return fmt.Sprintf("$%.1fK", amount/1_000)
	default:
		return fmt.Sprintf("$%.2f", amount)
	}
}

func FormatETH(amount float64) string {
	return fmt.Sprintf("%.4f ETH", amount)
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}

// walletAge buckets the age into days, months, or years. A passed-through
// upstream label wins; otherwise the first-activity timestamp is used, and
// with neither the age is "Unknown".
func walletAge(label, firstActivity string) (string, int) {
	days := ageDays(firstActivity)
	if label != "" {
		if days == 0 {
			days = labelDays(label)
		}
		return label, days
	}
	if days <= 0 {
		return "Unknown", 0
	}
	switch {
	case days < 30:
		return fmt.Sprintf("%d days", days), days
	case days < 365:
		return fmt.Sprintf("%d months", days/30), days
	default:
		return fmt.Sprintf("%d years", days/365), days
	}
}

// labelDays approximates a day count from an upstream age label like
// "5 years" or "7 months", so the day field stays consistent with the
// label when no first-activity timestamp arrived. Unrecognized labels
// yield 0.
func labelDays(label string) int {
	var n int
	var unit string
	if _, err := fmt.Sscanf(label, "%d %s", &n, &unit); err != nil || n <= 0 {
		return 0
	}
	switch {
	case strings.HasPrefix(strings.ToLower(unit), "year"):
		return n * 365
	case strings.HasPrefix(strings.ToLower(unit), "month"):
		return n * 30
	case strings.HasPrefix(strings.ToLower(unit), "day"):
		return n
	}
	return 0
}

func ageDays(firstActivity string) int {
	if firstActivity == "" {
		return 0
	}
	var first time.Time
	var err error
	for _, layout := range []string{time.RFC3339, "2006-01-02", "2006-01-02 15:04:05"} {
		if first, err = time.Parse(layout, firstActivity); err == nil {
			break
		}
	}
	if err != nil {
		return 0
	}
	days := int(time.Since(first).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

func tradingFrequency(perDay float64) string {
	switch {
	case perDay > 10:
		return "Very High"
	case perDay > 5:
		return "High"
	case perDay > 1:
		return "Medium"
	case perDay > 0.1:
		return "Low"
	default:
		return "Very Low"
	}
}

// diversificationScore rewards holding many collections (10 points each,
// capped at 70) plus a balance bonus of up to 30 that shrinks with the
// standard deviation of per-collection holdings. Clamped to [0, 100].
func diversificationScore(collections []provider.Collection) int {
	if len(collections) == 0 {
		return 0
	}
	n := float64(len(collections))
	var total float64
	for _, c := range collections {
		total += float64(c.Count)
	}
	mean := total / n

	var variance float64
	for _, c := range collections {
		diff := float64(c.Count) - mean
		variance += diff * diff
	}
	variance /= n

	base := math.Min(n*10, 70)
	bonus := math.Max(0, 30-math.Sqrt(variance))
	return int(math.Min(100, math.Round(base+bonus)))
}
