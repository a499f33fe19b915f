package provider

import (
	"context"
	"net/url"
	"time"
)

// Provider names, also the keys of the combined dataset.
const (
	NameWalletMetrics   = "wallet_metrics"
	NameNFTBalance      = "nft_balance"
	NameWalletAnalytics = "wallet_analytics"
	NameWashTrade       = "washtrade"
	NameWalletScore     = "wallet_score"
)

// WalletMetricsData is the UnleashNFTs /wallet/metrics shape. Missing fields
// decode to zero values; derivation treats zeros as absent data.
type WalletMetricsData struct {
	WalletAge            string  `json:"wallet_age"`
	FirstTransactionDate string  `json:"first_transaction_date"`
	TotalBalanceUSD      float64 `json:"total_balance_usd"`
	TotalBalanceETH      float64 `json:"total_balance_eth"`
	TotalTransactions    int     `json:"total_transactions"`
	TransactionsPerDay   float64 `json:"transactions_per_day"`
	UniqueNFTCount       int     `json:"unique_nft_count"`
	InflowAddresses      int     `json:"inflow_addresses"`
	OutflowAddresses     int     `json:"outflow_addresses"`
	SanctionedVolume     float64 `json:"sanctioned_volume"`
	MixerVolume          float64 `json:"mixer_volume"`
	AverageHoldingPeriod string  `json:"average_holding_period"`
	TokenTransfers       int     `json:"token_transfers"`
	DefiInteractions     int     `json:"defi_interactions"`
	OtherTransactions    int     `json:"other_transactions"`
	IsShark              bool    `json:"is_shark"`
	IsWhale              bool    `json:"is_whale"`
	IsContract           bool    `json:"is_contract"`
}

// NFTBalanceData is the /wallet/balance/nft shape.
type NFTBalanceData struct {
	TotalValueUSD    float64      `json:"total_value_usd"`
	TotalValueETH    float64      `json:"total_value_eth"`
	UniqueTokens     int          `json:"unique_tokens"`
	TransactionCount int          `json:"transaction_count"`
	Collections      []Collection `json:"collections"`
}

type Collection struct {
	Name     string  `json:"name"`
	Count    int     `json:"count"`
	ValueUSD float64 `json:"value_usd"`
}

// WalletAnalyticsData is the /nft/wallet/analytics shape.
type WalletAnalyticsData struct {
	NFTTransactions    int           `json:"nft_transactions"`
	RecentTransactions []Transaction `json:"recent_transactions"`
}

type Transaction struct {
	Hash       string  `json:"hash"`
	Type       string  `json:"type"`
	Collection string  `json:"collection"`
	ValueUSD   float64 `json:"value_usd"`
	Timestamp  string  `json:"timestamp"`
}

// WashTradeData is the /nft/wallet/washtrade shape.
type WashTradeData struct {
	WashTradingScore   float64 `json:"wash_trading_score"`
	WashTradedNFTCount int     `json:"wash_traded_nft_count"`
}

// WalletScoreData is the /wallet/score shape.
type WalletScoreData struct {
	RiskScore               float64 `json:"risk_score"`
	SuspiciousActivityScore float64 `json:"suspicious_activity_score"`
	PortfolioRiskScore      float64 `json:"portfolio_risk_score"`
	SanctionedScore         float64 `json:"sanctioned_score"`
	MixerScore              float64 `json:"mixer_score"`
}

// Unleash exposes the five UnleashNFTs capabilities the analysis pipeline
// fans out to.
type Unleash struct {
	client *Client
}

func NewUnleash(client *Client) *Unleash {
	return &Unleash{client: client}
}

// Adapters returns one adapter per capability, in fan-out order.
func (u *Unleash) Adapters() []Adapter {
	return []Adapter{
		adapter{NameWalletMetrics, u.walletMetrics},
		adapter{NameNFTBalance, u.nftBalance},
		adapter{NameWalletAnalytics, u.walletAnalytics},
		adapter{NameWashTrade, u.washTrade},
		adapter{NameWalletScore, u.walletScore},
	}
}

type fetchFunc func(ctx context.Context, address, chain, timeRange string) Result

type adapter struct {
	name string
	fn   fetchFunc
}

func (a adapter) Name() string { return a.name }

func (a adapter) Fetch(ctx context.Context, address, chain, timeRange string) Result {
	if !ChainSupported(chain) {
		return fail(a.name, KindUnsupportedChain, "unsupported chain: "+chain)
	}
	return a.fn(ctx, address, chain, timeRange)
}

func (u *Unleash) walletMetrics(ctx context.Context, address, chain, timeRange string) Result {
	params := url.Values{}
	params.Set("wallet", address)
	params.Set("blockchain", chain)
	params.Set("time_range", timeRange)
	params.Set("offset", "0")
	params.Set("limit", "30")

	var data WalletMetricsData
	if err := u.client.getJSON(ctx, NameWalletMetrics, "/wallet/metrics", params, &data); err != nil {
		return Result{Provider: NameWalletMetrics, Err: err, FetchedAt: time.Now()}
	}
	return ok(NameWalletMetrics, data)
}

func (u *Unleash) nftBalance(ctx context.Context, address, chain, _ string) Result {
	params := url.Values{}
	params.Set("wallet", address)
	params.Set("blockchain", chain)

	var data NFTBalanceData
	if err := u.client.getJSON(ctx, NameNFTBalance, "/wallet/balance/nft", params, &data); err != nil {
		return Result{Provider: NameNFTBalance, Err: err, FetchedAt: time.Now()}
	}
	return ok(NameNFTBalance, data)
}

func (u *Unleash) walletAnalytics(ctx context.Context, address, chain, _ string) Result {
	params := url.Values{}
	params.Set("wallet", address)
	params.Set("blockchain", chain)

	var data WalletAnalyticsData
	if err := u.client.getJSON(ctx, NameWalletAnalytics, "/nft/wallet/analytics", params, &data); err != nil {
		return Result{Provider: NameWalletAnalytics, Err: err, FetchedAt: time.Now()}
	}
	return ok(NameWalletAnalytics, data)
}

func (u *Unleash) washTrade(ctx context.Context, address, chain, _ string) Result {
	params := url.Values{}
	params.Set("wallet_address", address)
	params.Set("blockchain", chain)

	var data WashTradeData
	if err := u.client.getJSON(ctx, NameWashTrade, "/nft/wallet/washtrade", params, &data); err != nil {
		return Result{Provider: NameWashTrade, Err: err, FetchedAt: time.Now()}
	}
	return ok(NameWashTrade, data)
}

func (u *Unleash) walletScore(ctx context.Context, address, chain, _ string) Result {
	params := url.Values{}
	params.Set("wallet", address)
	params.Set("blockchain", chain)

	var data WalletScoreData
	if err := u.client.getJSON(ctx, NameWalletScore, "/wallet/score", params, &data); err != nil {
		return Result{Provider: NameWalletScore, Err: err, FetchedAt: time.Now()}
	}
	return ok(NameWalletScore, data)
}
