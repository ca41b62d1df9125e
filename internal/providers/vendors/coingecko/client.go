package coingecko

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/feral-file/ff-token-scanner/internal/adapter"
	"github.com/feral-file/ff-token-scanner/internal/enrich"
)

const PROVIDER_NAME = "coingecko"

// DefaultPlatform is the CoinGecko asset platform id for Base
const DefaultPlatform = "base"

// MarketData is the market_data object of the contract endpoint
type MarketData struct {
	MarketCap         map[string]decimal.Decimal `json:"market_cap"`
	CirculatingSupply *decimal.Decimal           `json:"circulating_supply"`
	TotalSupply       *decimal.Decimal           `json:"total_supply"`
}

// ContractResponse represents the response from the coins/{platform}/contract/{address} endpoint
type ContractResponse struct {
	ID         string      `json:"id"`
	Symbol     string      `json:"symbol"`
	Name       string      `json:"name"`
	MarketData *MarketData `json:"market_data"`
}

// CoinGeckoClient implements enrich.MarketService
type CoinGeckoClient struct {
	httpClient adapter.HTTPClient
	apiURL     string
	apiKey     string
	platform   string
}

// NewClient creates a new CoinGecko client. The api key is optional.
func NewClient(httpClient adapter.HTTPClient, apiURL, apiKey, platform string) enrich.MarketService {
	if platform == "" {
		platform = DefaultPlatform
	}
	return &CoinGeckoClient{
		httpClient: httpClient,
		apiURL:     strings.TrimSuffix(apiURL, "/"),
		apiKey:     apiKey,
		platform:   platform,
	}
}

// Market fetches the market snapshot of a token contract.
// An unlisted contract yields enrich.ErrNoMarketData.
func (c *CoinGeckoClient) Market(ctx context.Context, address string) (*enrich.MarketReport, error) {
	url := fmt.Sprintf("%s/coins/%s/contract/%s", c.apiURL, c.platform, strings.ToLower(address))

	var headers map[string]string
	if c.apiKey != "" {
		headers = map[string]string{"x-cg-demo-api-key": c.apiKey}
	}

	var response ContractResponse
	if err := c.httpClient.GetJSON(ctx, url, headers, &response); err != nil {
		if adapter.IsStatus(err, http.StatusNotFound) {
			return nil, enrich.ErrNoMarketData
		}
		return nil, fmt.Errorf("failed to call CoinGecko API: %w", err)
	}

	if response.MarketData == nil {
		return nil, enrich.ErrNoMarketData
	}

	report := &enrich.MarketReport{
		CirculatingSupply: response.MarketData.CirculatingSupply,
		TotalSupply:       response.MarketData.TotalSupply,
	}
	if usd, ok := response.MarketData.MarketCap["usd"]; ok {
		report.MarketCapUSD = &usd
	}
	return report, nil
}
