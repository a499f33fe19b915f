package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ── HTTP request metrics (RED method) ──────────────────────────────────

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wallet_risk",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"method", "path", "status_code"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "wallet_risk",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path"})

	HTTPRequestsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "wallet_risk",
		Subsystem: "http",
		Name:      "requests_in_flight",
		Help:      "Number of HTTP requests currently being processed.",
	})
)

// ── Upstream provider metrics ──────────────────────────────────────────

var (
	ProviderFetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wallet_risk",
		Subsystem: "provider",
		Name:      "fetch_total",
		Help:      "Total number of upstream fetches per provider.",
	}, []string{"provider", "status"})

	ProviderFetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "wallet_risk",
		Subsystem: "provider",
		Name:      "fetch_duration_seconds",
		Help:      "Duration of upstream fetches per provider in seconds.",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	}, []string{"provider"})

	ProviderLastSuccess = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "wallet_risk",
		Subsystem: "provider",
		Name:      "last_success_timestamp",
		Help:      "Unix timestamp of the last successful fetch per provider.",
	}, []string{"provider"})

	ProviderRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wallet_risk",
		Subsystem: "provider",
		Name:      "retries_total",
		Help:      "Total number of retried upstream fetches per provider.",
	}, []string{"provider"})
)

// ── Analysis pipeline metrics ──────────────────────────────────────────

var (
	AnalysesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wallet_risk",
		Subsystem: "analysis",
		Name:      "total",
		Help:      "Total number of completed wallet analyses by tier and data confidence.",
	}, []string{"tier", "confidence"})

	AnalysisDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "wallet_risk",
		Subsystem: "analysis",
		Name:      "duration_seconds",
		Help:      "End-to-end duration of a wallet analysis in seconds.",
		Buckets:   []float64{0.5, 1, 2, 5, 10, 15, 30},
	})

	NarrativeFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "wallet_risk",
		Subsystem: "analysis",
		Name:      "narrative_fallbacks_total",
		Help:      "Number of reports that used the templated narrative fallback.",
	})
)

// ── Cache metrics ──────────────────────────────────────────────────────

var (
	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "wallet_risk",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Number of report cache hits.",
	})

	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "wallet_risk",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Number of report cache misses.",
	})
)
