package coingecko_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/ff-token-scanner/internal/adapter"
	"github.com/feral-file/ff-token-scanner/internal/enrich"
	"github.com/feral-file/ff-token-scanner/internal/mocks"
	"github.com/feral-file/ff-token-scanner/internal/providers/vendors/coingecko"
)

const contractAddress = "0xAbCdEf0000000000000000000000000000000001"

func newServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/coins/base/contract/0xabcdef0000000000000000000000000000000001", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
}

func TestCoinGeckoClient_Market(t *testing.T) {
	srv := newServer(t, http.StatusOK, `{
		"id": "alpha",
		"symbol": "alp",
		"name": "Alpha",
		"market_data": {
			"market_cap": {"usd": 125000.5, "eur": 110000},
			"circulating_supply": 900.25,
			"total_supply": 1000
		}
	}`)
	defer srv.Close()

	client := coingecko.NewClient(adapter.NewHTTPClient(5*time.Second, adapter.RetryPolicy{}), srv.URL, "", "")

	report, err := client.Market(context.Background(), contractAddress)
	require.NoError(t, err)
	require.NotNil(t, report.MarketCapUSD)
	require.NotNil(t, report.CirculatingSupply)
	require.NotNil(t, report.TotalSupply)
	assert.Equal(t, "125000.5", report.MarketCapUSD.String())
	assert.Equal(t, "900.25", report.CirculatingSupply.String())
	assert.Equal(t, "1000", report.TotalSupply.String())
}

func TestCoinGeckoClient_Market_NullFields(t *testing.T) {
	srv := newServer(t, http.StatusOK, `{"market_data": {"market_cap": {}, "circulating_supply": null, "total_supply": null}}`)
	defer srv.Close()

	client := coingecko.NewClient(adapter.NewHTTPClient(5*time.Second, adapter.RetryPolicy{}), srv.URL, "", "base")

	report, err := client.Market(context.Background(), contractAddress)
	require.NoError(t, err)
	assert.Nil(t, report.MarketCapUSD)
	assert.Nil(t, report.CirculatingSupply)
	assert.Nil(t, report.TotalSupply)
}

func TestCoinGeckoClient_Market_NotListed(t *testing.T) {
	srv := newServer(t, http.StatusNotFound, `{"error": "coin not found"}`)
	defer srv.Close()

	client := coingecko.NewClient(adapter.NewHTTPClient(5*time.Second, adapter.RetryPolicy{}), srv.URL, "", "")

	_, err := client.Market(context.Background(), contractAddress)
	assert.ErrorIs(t, err, enrich.ErrNoMarketData)
}

func TestCoinGeckoClient_Market_NoMarketData(t *testing.T) {
	srv := newServer(t, http.StatusOK, `{"id": "alpha"}`)
	defer srv.Close()

	client := coingecko.NewClient(adapter.NewHTTPClient(5*time.Second, adapter.RetryPolicy{}), srv.URL, "", "")

	_, err := client.Market(context.Background(), contractAddress)
	assert.ErrorIs(t, err, enrich.ErrNoMarketData)
}

func TestCoinGeckoClient_Market_APIKeyHeader(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockHTTPClient := mocks.NewMockHTTPClient(ctrl)
	client := coingecko.NewClient(mockHTTPClient, "https://api.coingecko.com/api/v3", "demo-key", "ethereum")

	mockHTTPClient.EXPECT().
		GetJSON(gomock.Any(),
			"https://api.coingecko.com/api/v3/coins/ethereum/contract/0xabcdef0000000000000000000000000000000001",
			map[string]string{"x-cg-demo-api-key": "demo-key"},
			gomock.Any()).
		Return(errors.New("dial tcp: i/o timeout"))

	_, err := client.Market(context.Background(), contractAddress)
	require.Error(t, err)
	assert.NotErrorIs(t, err, enrich.ErrNoMarketData)
	assert.Contains(t, err.Error(), "failed to call CoinGecko API")
}
