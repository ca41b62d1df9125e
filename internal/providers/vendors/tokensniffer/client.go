package tokensniffer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/feral-file/ff-token-scanner/internal/adapter"
	"github.com/feral-file/ff-token-scanner/internal/enrich"
)

const PROVIDER_NAME = "tokensniffer"

var ErrNoAPIKey = errors.New("no API key provided")

// TokenResponse represents the response from the TokenSniffer token endpoint
type TokenResponse struct {
	IsScam      bool     `json:"is_scam"`
	ScamDetails string   `json:"scam_details"`
	Score       *float64 `json:"score"`
}

// TokenSnifferClient implements enrich.RiskService
type TokenSnifferClient struct {
	httpClient adapter.HTTPClient
	apiURL     string
	apiKey     string
}

// NewClient creates a new TokenSniffer client
func NewClient(httpClient adapter.HTTPClient, apiURL string, apiKey string) enrich.RiskService {
	return &TokenSnifferClient{
		httpClient: httpClient,
		apiURL:     strings.TrimSuffix(apiURL, "/"),
		apiKey:     apiKey,
	}
}

// Analyze fetches the risk report of a token contract
func (c *TokenSnifferClient) Analyze(ctx context.Context, address string) (*enrich.RiskReport, error) {
	if c.apiKey == "" {
		return nil, ErrNoAPIKey
	}

	url := fmt.Sprintf("%s/tokens/%s", c.apiURL, strings.ToLower(address))
	headers := map[string]string{
		"Authorization": "Bearer " + c.apiKey,
	}

	var response TokenResponse
	if err := c.httpClient.GetJSON(ctx, url, headers, &response); err != nil {
		return nil, fmt.Errorf("failed to call TokenSniffer API: %w", err)
	}

	return &enrich.RiskReport{
		IsScam:      response.IsScam,
		ScamDetails: response.ScamDetails,
		Score:       response.Score,
	}, nil
}
