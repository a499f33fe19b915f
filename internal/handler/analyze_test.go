package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/web3-frozen/wallet-risk/internal/analysis"
	"github.com/web3-frozen/wallet-risk/internal/cache"
	"github.com/web3-frozen/wallet-risk/internal/provider"
)

const testAddress = "0xd8dA6BF26964aF9D7eEd9e03E53415D37aA96045"

type stubAdapter struct {
	name    string
	payload any
}

func (s stubAdapter) Name() string { return s.name }

func (s stubAdapter) Fetch(_ context.Context, _, _, _ string) provider.Result {
	return provider.Result{Provider: s.name, Payload: s.payload, FetchedAt: time.Now()}
}

type downAdapter struct{ name string }

func (d downAdapter) Name() string { return d.name }

func (d downAdapter) Fetch(context.Context, string, string, string) provider.Result {
	return provider.Result{
		Provider:  d.name,
		Err:       &provider.CallError{Kind: provider.KindTimeout, Message: "context deadline exceeded"},
		FetchedAt: time.Now(),
	}
}

func newAnalyzeHandler(t *testing.T) http.HandlerFunc {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	mr := miniredis.RunT(t)
	c, err := cache.New("redis://"+mr.Addr(), "", 5*time.Minute, logger)
	if err != nil {
		t.Fatalf("cache.New() error = %v", err)
	}
	t.Cleanup(func() { c.Close() })

	agg := analysis.NewAggregator(time.Second, logger)
	agg.Register(stubAdapter{provider.NameWalletMetrics, provider.WalletMetricsData{
		TotalBalanceUSD:   12000,
		TotalTransactions: 150,
	}})
	agg.Register(stubAdapter{provider.NameWashTrade, provider.WashTradeData{WashTradingScore: 20}})
	agg.Register(stubAdapter{provider.NameWalletScore, provider.WalletScoreData{
		SuspiciousActivityScore: 10,
		PortfolioRiskScore:      10,
	}})
	agg.Register(downAdapter{provider.NameNFTBalance})
	agg.Register(downAdapter{provider.NameWalletAnalytics})

	analyzer := analysis.NewAnalyzer(agg, nil, logger)
	return Analyze(c, analyzer, nil, logger)
}

func postAnalyze(t *testing.T, h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestAnalyzeReturnsReport(t *testing.T) {
	h := newAnalyzeHandler(t)

	rec := postAnalyze(t, h, `{"address":"`+testAddress+`","chain":"ethereum"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}

	var payload analysis.ReportPayload
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("response not JSON: %v", err)
	}
	if payload.Address != testAddress {
		t.Errorf("Address = %q, want %q", payload.Address, testAddress)
	}
	if payload.Chain != "ethereum" {
		t.Errorf("Chain = %q, want ethereum", payload.Chain)
	}
	if payload.Narrative == "" {
		t.Error("Narrative is empty")
	}
	if payload.DataConfidence != analysis.ConfidencePartial {
		t.Errorf("DataConfidence = %q, want %q", payload.DataConfidence, analysis.ConfidencePartial)
	}
}

func TestAnalyzeServedFromCacheOnRepeat(t *testing.T) {
	h := newAnalyzeHandler(t)

	first := postAnalyze(t, h, `{"address":"`+testAddress+`"}`)
	second := postAnalyze(t, h, `{"address":"`+strings.ToLower(testAddress)+`"}`)
	if first.Code != http.StatusOK || second.Code != http.StatusOK {
		t.Fatalf("statuses = %d, %d, want 200, 200", first.Code, second.Code)
	}

	var a, b analysis.ReportPayload
	if err := json.Unmarshal(first.Body.Bytes(), &a); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(second.Body.Bytes(), &b); err != nil {
		t.Fatal(err)
	}
	if !a.GeneratedAt.Equal(b.GeneratedAt) {
		t.Errorf("GeneratedAt differs across cached calls: %v vs %v", a.GeneratedAt, b.GeneratedAt)
	}
}

func TestAnalyzeRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `{"address":`},
		{"missing address", `{"chain":"ethereum"}`},
		{"bad address", `{"address":"not-an-address"}`},
		{"short address", `{"address":"0x1234"}`},
		{"unsupported chain", `{"address":"` + testAddress + `","chain":"solana"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newAnalyzeHandler(t)
			rec := postAnalyze(t, h, tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			var resp errorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("error body not JSON: %v", err)
			}
			if resp.ErrorKind != "invalid_query" {
				t.Errorf("error_kind = %q, want invalid_query", resp.ErrorKind)
			}
		})
	}
}

func TestChains(t *testing.T) {
	rec := httptest.NewRecorder()
	Chains()(rec, httptest.NewRequest(http.MethodGet, "/api/chains", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp map[string][]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	want := []string{"arbitrum", "avalanche", "base", "bsc", "ethereum", "polygon"}
	got := resp["chains"]
	if len(got) != len(want) {
		t.Fatalf("chains = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("chains[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	Health()(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := rec.Body.String(); got != `{"status":"ok"}` {
		t.Errorf("body = %q", got)
	}
}
