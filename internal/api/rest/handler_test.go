package rest_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/ff-token-scanner/internal/api/rest"
	"github.com/feral-file/ff-token-scanner/internal/metrics"
	"github.com/feral-file/ff-token-scanner/internal/mocks"
	"github.com/feral-file/ff-token-scanner/internal/store"
	"github.com/feral-file/ff-token-scanner/internal/store/schema"
)

const tokenAddress = "0x00000000000000000000000000000000000f0001"

func init() {
	gin.SetMode(gin.TestMode)
}

func sampleToken() *schema.Token {
	score := 85.0
	marketCap := decimal.RequireFromString("1250.5")
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return &schema.Token{
		ID:              1,
		ContractAddress: tokenAddress,
		Name:            "FooToken",
		Symbol:          "FOO",
		TotalSupply:     "1000",
		Status:          schema.TokenStatusGreen,
		Message:         "No issues detected.",
		Score:           &score,
		MarketCap:       &marketCap,
		CreatedAt:       created,
		UpdatedAt:       created,
	}
}

func setupRouter(st store.Store, trigger rest.ScanTrigger) *gin.Engine {
	router := gin.New()
	rest.SetupRoutes(router, rest.NewHandler(st, trigger), metrics.New().Handler())
	return router
}

func serve(router *gin.Engine, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func TestListTokens(t *testing.T) {
	tests := []struct {
		name           string
		target         string
		setupMocks     func(*mocks.MockStore)
		expectedStatus int
		validate       func(t *testing.T, body []byte)
	}{
		{
			name:   "defaults",
			target: "/api/tokens",
			setupMocks: func(st *mocks.MockStore) {
				st.EXPECT().
					ListTokens(gomock.Any(), store.TokenQueryFilter{Offset: 0, Limit: 50}).
					Return([]*schema.Token{sampleToken()}, nil)
			},
			expectedStatus: http.StatusOK,
			validate: func(t *testing.T, body []byte) {
				var tokens []map[string]interface{}
				require.NoError(t, json.Unmarshal(body, &tokens))
				require.Len(t, tokens, 1)
				token := tokens[0]
				assert.Equal(t, tokenAddress, token["contractAddress"])
				assert.Equal(t, "FOO", token["symbol"])
				assert.Equal(t, "1000", token["totalSupply"])
				assert.Equal(t, "Green", token["status"])
				assert.Equal(t, 85.0, token["score"])
				assert.Equal(t, "1250.5", token["marketCap"])
				assert.Nil(t, token["circulatingSupply"])
				assert.Nil(t, token["liquidityPool"])
				assert.Nil(t, token["holdersCount"])
				assert.Contains(t, token, "createdAt")
				assert.Contains(t, token, "updatedAt")
				assert.NotContains(t, token, "id")
			},
		},
		{
			name:   "search and paging",
			target: "/api/tokens?offset=20&limit=10&searchQuery=foo",
			setupMocks: func(st *mocks.MockStore) {
				st.EXPECT().
					ListTokens(gomock.Any(), store.TokenQueryFilter{Offset: 20, Limit: 10, SearchQuery: "foo"}).
					Return([]*schema.Token{}, nil)
			},
			expectedStatus: http.StatusOK,
			validate: func(t *testing.T, body []byte) {
				assert.JSONEq(t, `[]`, string(body))
			},
		},
		{
			name:   "limit is capped",
			target: "/api/tokens?limit=500",
			setupMocks: func(st *mocks.MockStore) {
				st.EXPECT().
					ListTokens(gomock.Any(), store.TokenQueryFilter{Limit: store.MaxPageSize}).
					Return(nil, nil)
			},
			expectedStatus: http.StatusOK,
			validate: func(t *testing.T, body []byte) {
				assert.JSONEq(t, `[]`, string(body))
			},
		},
		{
			name:           "negative offset",
			target:         "/api/tokens?offset=-1",
			setupMocks:     func(*mocks.MockStore) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "non numeric limit",
			target:         "/api/tokens?limit=ten",
			setupMocks:     func(*mocks.MockStore) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "zero limit",
			target:         "/api/tokens?limit=0",
			setupMocks:     func(*mocks.MockStore) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:   "store failure",
			target: "/api/tokens",
			setupMocks: func(st *mocks.MockStore) {
				st.EXPECT().ListTokens(gomock.Any(), gomock.Any()).Return(nil, errors.New("connection refused"))
			},
			expectedStatus: http.StatusInternalServerError,
			validate: func(t *testing.T, body []byte) {
				assert.JSONEq(t, `{"error":"Server Error"}`, string(body))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			st := mocks.NewMockStore(ctrl)
			trigger := mocks.NewMockScanner(ctrl)
			tt.setupMocks(st)
			// every request hints the scanner, whatever its outcome
			trigger.EXPECT().Trigger().Times(1)

			w := serve(setupRouter(st, trigger), tt.target)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.validate != nil {
				tt.validate(t, w.Body.Bytes())
			}
		})
	}
}

func TestListTokens_WithoutScanner(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	st := mocks.NewMockStore(ctrl)
	st.EXPECT().ListTokens(gomock.Any(), gomock.Any()).Return(nil, nil)

	w := serve(setupRouter(st, nil), "/api/tokens")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetToken(t *testing.T) {
	tests := []struct {
		name           string
		target         string
		setupMocks     func(*mocks.MockStore)
		expectedStatus int
	}{
		{
			name:   "found",
			target: "/api/tokens/0x00000000000000000000000000000000000F0001",
			setupMocks: func(st *mocks.MockStore) {
				st.EXPECT().GetToken(gomock.Any(), tokenAddress).Return(sampleToken(), nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:   "not found",
			target: "/api/tokens/" + tokenAddress,
			setupMocks: func(st *mocks.MockStore) {
				st.EXPECT().GetToken(gomock.Any(), tokenAddress).Return(nil, nil)
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "invalid address",
			target:         "/api/tokens/not-an-address",
			setupMocks:     func(*mocks.MockStore) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:   "store failure",
			target: "/api/tokens/" + tokenAddress,
			setupMocks: func(st *mocks.MockStore) {
				st.EXPECT().GetToken(gomock.Any(), gomock.Any()).Return(nil, errors.New("timeout"))
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			st := mocks.NewMockStore(ctrl)
			tt.setupMocks(st)

			w := serve(setupRouter(st, nil), tt.target)
			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestLatestScanRun(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	st := mocks.NewMockStore(ctrl)
	router := setupRouter(st, nil)

	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	st.EXPECT().LatestScanRun(gomock.Any(), "eip155:8453").Return(&schema.ScanRun{
		ID:            "01HZX0000000000000000000AA",
		Chain:         "eip155:8453",
		StartedAt:     started,
		FinishedAt:    started.Add(3 * time.Second),
		FromBlock:     96,
		ToBlock:       100,
		BlocksScanned: 4,
		BlocksSkipped: 1,
		SkippedBlocks: datatypes.JSON(`[98]`),
		GapBlocks:     5,
	}, nil)

	w := serve(router, "/api/scans/latest")
	require.Equal(t, http.StatusOK, w.Code)

	var run map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &run))
	assert.Equal(t, "eip155:8453", run["chain"])
	assert.Equal(t, float64(100), run["toBlock"])
	assert.Equal(t, float64(5), run["gapBlocks"])
	assert.Equal(t, []interface{}{float64(98)}, run["skippedBlocks"])

	st.EXPECT().LatestScanRun(gomock.Any(), "eip155:1").Return(nil, nil)
	w = serve(router, "/api/scans/latest?chain=eip155:1")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = serve(router, "/api/scans/latest?chain=tezos:mainnet")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthCheck(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	st := mocks.NewMockStore(ctrl)
	router := setupRouter(st, nil)

	st.EXPECT().Ping(gomock.Any()).Return(nil)
	w := serve(router, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	st.EXPECT().Ping(gomock.Any()).Return(errors.New("connection refused"))
	w = serve(router, "/health")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestMetricsRoute(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	w := serve(setupRouter(mocks.NewMockStore(ctrl), nil), "/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "token_scanner_scan_head_block")
}
