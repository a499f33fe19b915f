package handler

import (
	"net/http"
	"strconv"

	"github.com/web3-frozen/wallet-risk/internal/store"
)

// RecentAnalyses serves the archive of recently completed analyses.
func RecentAnalyses(db *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		analyses, err := db.RecentAnalyses(r.Context(), limit)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal", "failed to list analyses")
			return
		}
		if analyses == nil {
			analyses = []store.Analysis{}
		}
		writeJSON(w, http.StatusOK, analyses)
	}
}
