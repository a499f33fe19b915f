package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/web3-frozen/wallet-risk/internal/metrics"
)

// Client is the shared outbound HTTP client for all adapters. It applies a
// per-call timeout, a single retry on transient failures, a circuit breaker
// per endpoint, and an API-wide rate limit.
type Client struct {
	http    *http.Client
	baseURL string
	apiKey  string
	timeout time.Duration
	limiter *rate.Limiter
	logger  *slog.Logger

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

func NewClient(baseURL, apiKey string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		http:     &http.Client{Timeout: timeout},
		baseURL:  baseURL,
		apiKey:   apiKey,
		timeout:  timeout,
		limiter:  rate.NewLimiter(rate.Limit(10), 20), // UnleashNFTs allows ~10 rps per key
		logger:   logger,
		breakers: make(map[string]*gobreaker.CircuitBreaker),
	}
}

func (c *Client) breaker(endpoint string) *gobreaker.CircuitBreaker {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cb, ok := c.breakers[endpoint]; ok {
		return cb
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    endpoint,
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	c.breakers[endpoint] = cb
	return cb
}

// getJSON fetches path with query params and decodes the body into out.
// Transient failures (timeout, 429) get exactly one retry.
func (c *Client) getJSON(ctx context.Context, endpoint, path string, params url.Values, out any) *CallError {
	callErr := c.attempt(ctx, endpoint, path, params, out)
	if callErr != nil && callErr.Kind.transient() {
		c.logger.Warn("retrying upstream call", "endpoint", endpoint, "kind", callErr.Kind)
		metrics.ProviderRetries.WithLabelValues(endpoint).Inc()
		callErr = c.attempt(ctx, endpoint, path, params, out)
	}
	if callErr != nil {
		metrics.ProviderFetchTotal.WithLabelValues(endpoint, "error").Inc()
		return callErr
	}
	metrics.ProviderFetchTotal.WithLabelValues(endpoint, "ok").Inc()
	metrics.ProviderLastSuccess.WithLabelValues(endpoint).SetToCurrentTime()
	return nil
}

func (c *Client) attempt(ctx context.Context, endpoint, path string, params url.Values, out any) *CallError {
	if err := c.limiter.Wait(ctx); err != nil {
		return classify(err)
	}

	start := time.Now()
	_, err := c.breaker(endpoint).Execute(func() (any, error) {
		return nil, c.do(ctx, path, params, out)
	})
	metrics.ProviderFetchDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())

	if err == nil {
		return nil
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return &CallError{Kind: KindUnknown, Message: "circuit breaker open for " + endpoint}
	}
	return classify(err)
}

func (c *Client) do(ctx context.Context, path string, params url.Values, out any) error {
	u := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("accept", "application/json")
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests:
		return &CallError{Kind: KindRateLimited, Message: "upstream rate limit"}
	case resp.StatusCode == http.StatusNotFound:
		return &CallError{Kind: KindNotFound, Message: "wallet not found upstream"}
	default:
		// Drain a little of the body for the log line, then classify.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return &CallError{Kind: KindUnknown, Message: fmt.Sprintf("status %d: %s", resp.StatusCode, snippet)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &CallError{Kind: KindMalformed, Message: "decode body: " + err.Error()}
	}
	return nil
}

// classify maps a transport-level error to a CallError.
func classify(err error) *CallError {
	var ce *CallError
	if errors.As(err, &ce) {
		return ce
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &CallError{Kind: KindTimeout, Message: err.Error()}
	}
	var ue *url.Error
	if errors.As(err, &ue) && ue.Timeout() {
		return &CallError{Kind: KindTimeout, Message: err.Error()}
	}
	return &CallError{Kind: KindUnknown, Message: err.Error()}
}
