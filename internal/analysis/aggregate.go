package analysis

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/web3-frozen/wallet-risk/internal/provider"
)

// Aggregator fans a query out to every registered adapter concurrently and
// waits for all of them to settle. A slow or failing provider never delays
// or fails the others, and the aggregate itself never fails: the worst case
// is a dataset where every entry is an error.
type Aggregator struct {
	adapters []provider.Adapter
	timeout  time.Duration
	logger   *slog.Logger
}

func NewAggregator(timeout time.Duration, logger *slog.Logger) *Aggregator {
	return &Aggregator{timeout: timeout, logger: logger}
}

// Register adds an adapter to the fan-out set.
func (a *Aggregator) Register(ad provider.Adapter) {
	a.adapters = append(a.adapters, ad)
	a.logger.Info("registered provider", "provider", ad.Name())
}

// Aggregate issues all adapter calls concurrently, each under its own
// timeout, and joins them once every call has settled.
func (a *Aggregator) Aggregate(ctx context.Context, q WalletQuery) CombinedDataset {
	results := make([]provider.Result, len(a.adapters))

	var wg sync.WaitGroup
	for i, ad := range a.adapters {
		wg.Add(1)
		go func(i int, ad provider.Adapter) {
			defer wg.Done()
			// Twice the per-attempt timeout: the client retries transient
			// failures once, and a retry after a first-attempt timeout
			// needs budget of its own to be more than a formality.
			cctx, cancel := context.WithTimeout(ctx, 2*a.timeout)
			defer cancel()
			results[i] = ad.Fetch(cctx, q.Address, q.Chain, q.TimeRange)
		}(i, ad)
	}
	wg.Wait()

	ds := CombinedDataset{Results: make(map[string]provider.Result, len(results))}
	for _, r := range results {
		if !r.OK() {
			a.logger.Warn("provider fetch failed",
				"provider", r.Provider,
				"kind", r.Err.Kind,
				"error", r.Err.Message,
				"address", q.Address,
			)
		}
		ds.Results[r.Provider] = r
	}
	return ds
}
