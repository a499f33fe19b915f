package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"strings"

	"github.com/web3-frozen/wallet-risk/internal/analysis"
	"github.com/web3-frozen/wallet-risk/internal/cache"
	"github.com/web3-frozen/wallet-risk/internal/provider"
	"github.com/web3-frozen/wallet-risk/internal/store"
)

type analyzeRequest struct {
	Address   string `json:"address"`
	Chain     string `json:"chain"`
	TimeRange string `json:"time_range"`
}

type errorResponse struct {
	ErrorKind string `json:"error_kind"`
	Message   string `json:"message"`
}

// Analyze runs the wallet analysis pipeline behind the report cache. The
// only caller-visible failure is an invalid query; upstream trouble degrades
// to a low-confidence report instead.
func Analyze(c *cache.Cache, analyzer *analysis.Analyzer, db *store.Store, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req analyzeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_query", "request body must be JSON")
			return
		}

		q, err := analysis.NewWalletQuery(req.Address, req.Chain, req.TimeRange)
		if err != nil {
			var iq *analysis.InvalidQueryError
			if errors.As(err, &iq) {
				writeError(w, http.StatusBadRequest, "invalid_query", iq.Reason)
				return
			}
			writeError(w, http.StatusInternalServerError, "internal", "query validation failed")
			return
		}

		payload := c.GetOrCompute(r.Context(), q, func(ctx context.Context) analysis.ReportPayload {
			p := analyzer.Analyze(ctx, q)
			if db != nil {
				raw, err := json.Marshal(p)
				if err == nil {
					err = db.SaveAnalysis(ctx, strings.ToLower(q.Address), q.Chain, p.RiskAssessment.Score, p.RiskAssessment.Tier, p.DataConfidence, raw)
				}
				if err != nil {
					logger.Warn("archive analysis failed", "address", q.Address, "error", err)
				}
			}
			return p
		})

		writeJSON(w, http.StatusOK, payload)
	}
}

// Chains lists the supported blockchains.
func Chains() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		chains := make([]string, 0, len(provider.SupportedChains))
		for c := range provider.SupportedChains {
			chains = append(chains, c)
		}
		sort.Strings(chains)
		writeJSON(w, http.StatusOK, map[string][]string{"chains": chains})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, kind, message string) {
	writeJSON(w, status, errorResponse{ErrorKind: kind, Message: message})
}
