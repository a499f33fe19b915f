package provider

import (
	"context"
	"fmt"
	"time"
)

// ErrKind classifies an upstream call failure. Adapters never leak raw
// transport errors past this boundary.
type ErrKind string

const (
	KindTimeout          ErrKind = "timeout"
	KindRateLimited      ErrKind = "rate_limited"
	KindNotFound         ErrKind = "not_found"
	KindMalformed        ErrKind = "malformed"
	KindUnsupportedChain ErrKind = "unsupported_chain"
	KindUnknown          ErrKind = "unknown"
)

// transient reports whether a failure kind is worth a single retry.
func (k ErrKind) transient() bool {
	return k == KindTimeout || k == KindRateLimited
}

type CallError struct {
	Kind    ErrKind
	Message string
}

func (e *CallError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Result is the settled outcome of one adapter call: a decoded payload or a
// classified error, never both.
type Result struct {
	Provider  string     `json:"provider"`
	Payload   any        `json:"payload,omitempty"`
	Err       *CallError `json:"-"`
	FetchedAt time.Time  `json:"fetched_at"`
}

func (r Result) OK() bool { return r.Err == nil }

func ok(provider string, payload any) Result {
	return Result{Provider: provider, Payload: payload, FetchedAt: time.Now()}
}

func fail(provider string, kind ErrKind, msg string) Result {
	return Result{Provider: provider, Err: &CallError{Kind: kind, Message: msg}, FetchedAt: time.Now()}
}

// Adapter is a single upstream capability. Implementations are stateless:
// one outbound call per Fetch, all failures captured in the Result.
type Adapter interface {
	Name() string
	Fetch(ctx context.Context, address, chain, timeRange string) Result
}

// SupportedChains are the blockchains the upstream feeds cover.
var SupportedChains = map[string]bool{
	"ethereum":  true,
	"polygon":   true,
	"bsc":       true,
	"arbitrum":  true,
	"avalanche": true,
	"base":      true,
}

func ChainSupported(chain string) bool { return SupportedChains[chain] }
