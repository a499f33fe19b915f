// Package narrative calls the external AI report service. The service
// receives the derived metrics and risk assessment as context and returns a
// markdown report; any failure here is recovered by the synthesizer's
// templated fallback.
package narrative

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/web3-frozen/wallet-risk/internal/analysis"
)

const requestTimeout = 20 * time.Second

type Client struct {
	http    *http.Client
	baseURL string
}

func NewClient(baseURL string) *Client {
	return &Client{
		http:    &http.Client{Timeout: requestTimeout},
		baseURL: baseURL,
	}
}

type generateRequest struct {
	Address        string                  `json:"address"`
	Blockchain     string                  `json:"blockchain"`
	Metrics        analysis.DerivedMetrics `json:"metrics"`
	RiskAssessment analysis.RiskAssessment `json:"risk_assessment"`
}

type generateResponse struct {
	Report string `json:"report"`
}

// Generate requests a markdown report for the wallet. An empty report body
// counts as a failure so the caller falls back to the template.
func (c *Client) Generate(ctx context.Context, q analysis.WalletQuery, dm analysis.DerivedMetrics, risk analysis.RiskAssessment) (string, error) {
	body, err := json.Marshal(generateRequest{
		Address:        q.Address,
		Blockchain:     q.Chain,
		Metrics:        dm,
		RiskAssessment: risk,
	})
	if err != nil {
		return "", fmt.Errorf("marshal narrative request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/generate-report", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("narrative service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("narrative service status: %d", resp.StatusCode)
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode narrative response: %w", err)
	}
	if out.Report == "" {
		return "", fmt.Errorf("narrative service returned empty report")
	}
	return out.Report, nil
}
