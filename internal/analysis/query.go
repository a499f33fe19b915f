package analysis

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/web3-frozen/wallet-risk/internal/provider"
)

// WalletQuery is the validated, immutable input to an analysis.
type WalletQuery struct {
	Address   string
	Chain     string
	TimeRange string
}

// InvalidQueryError is the only analysis failure surfaced to callers.
type InvalidQueryError struct {
	Reason string
}

func (e *InvalidQueryError) Error() string { return "invalid query: " + e.Reason }

var evmAddressRe = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// NewWalletQuery validates the raw request fields. Chain defaults to
// ethereum and time range to "all".
func NewWalletQuery(address, chain, timeRange string) (WalletQuery, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return WalletQuery{}, &InvalidQueryError{Reason: "address is required"}
	}
	if !evmAddressRe.MatchString(address) {
		return WalletQuery{}, &InvalidQueryError{Reason: "malformed wallet address"}
	}
	if chain == "" {
		chain = "ethereum"
	}
	chain = strings.ToLower(strings.TrimSpace(chain))
	if !provider.ChainSupported(chain) {
		return WalletQuery{}, &InvalidQueryError{Reason: fmt.Sprintf("unsupported chain %q", chain)}
	}
	if timeRange == "" {
		timeRange = "all"
	}
	return WalletQuery{Address: address, Chain: chain, TimeRange: timeRange}, nil
}

// Key is the cache key for this query. Addresses are case-insensitive on
// every supported chain.
func (q WalletQuery) Key() string {
	return strings.ToLower(q.Address) + ":" + q.Chain
}
