package tokensniffer_test

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
	"github.com/feral-file/ff-token-scanner/internal/providers/vendors/tokensniffer"
	"github.com/feral-file/ff-token-scanner/internal/store/schema"
)

const contractAddress = "0xAbCdEf0000000000000000000000000000000001"

func TestTokenSnifferClient_Analyze(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockHTTPClient := mocks.NewMockHTTPClient(ctrl)
	client := tokensniffer.NewClient(mockHTTPClient, "https://tokensniffer.com/api/", "test-api-key")

	ctx := context.Background()
	expectedURL := "https://tokensniffer.com/api/tokens/0xabcdef0000000000000000000000000000000001"
	expectedHeaders := map[string]string{
		"Authorization": "Bearer test-api-key",
	}

	mockHTTPClient.EXPECT().
		GetJSON(ctx, expectedURL, expectedHeaders, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, _ map[string]string, v interface{}) error {
			score := 42.0
			resp := v.(*tokensniffer.TokenResponse)
			resp.IsScam = true
			resp.ScamDetails = "honeypot"
			resp.Score = &score
			return nil
		})

	report, err := client.Analyze(ctx, contractAddress)
	require.NoError(t, err)
	assert.True(t, report.IsScam)
	assert.Equal(t, "honeypot", report.ScamDetails)
	require.NotNil(t, report.Score)
	assert.Equal(t, 42.0, *report.Score)
}

func TestTokenSnifferClient_Analyze_NoAPIKey(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client := tokensniffer.NewClient(mocks.NewMockHTTPClient(ctrl), "https://tokensniffer.com/api", "")

	_, err := client.Analyze(context.Background(), contractAddress)
	assert.ErrorIs(t, err, tokensniffer.ErrNoAPIKey)
}

func TestTokenSnifferClient_Analyze_HTTPError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockHTTPClient := mocks.NewMockHTTPClient(ctrl)
	client := tokensniffer.NewClient(mockHTTPClient, "https://tokensniffer.com/api", "test-api-key")

	mockHTTPClient.EXPECT().
		GetJSON(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(errors.New("connection reset"))

	_, err := client.Analyze(context.Background(), contractAddress)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to call TokenSniffer API")
}

func TestTokenSnifferClient_Analyze_MissingScore(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tokens/0xabcdef0000000000000000000000000000000001", r.URL.Path)
		assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"is_scam": false}`))
	}))
	defer srv.Close()

	client := tokensniffer.NewClient(adapter.NewHTTPClient(5*time.Second, adapter.RetryPolicy{}), srv.URL, "k")

	report, err := client.Analyze(context.Background(), contractAddress)
	require.NoError(t, err)
	assert.Nil(t, report.Score)

	assessment := enrich.Classify(report, nil)
	assert.Equal(t, enrich.MessageAnalysisNoResult, assessment.Message)
}

func TestTokenSnifferClient_Analyze_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := tokensniffer.NewClient(adapter.NewHTTPClient(5*time.Second, adapter.RetryPolicy{}), srv.URL, "k")

	_, err := client.Analyze(context.Background(), contractAddress)
	require.Error(t, err)
	assert.True(t, adapter.IsStatus(err, http.StatusInternalServerError))
}

func TestTokenSnifferClient_Assess_NonSuccessResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := tokensniffer.NewClient(adapter.NewHTTPClient(5*time.Second, adapter.RetryPolicy{}), srv.URL, "k")
	e := enrich.NewEnricher(client, nil, nil, 5*time.Second)

	assessment, err := e.Assess(context.Background(), contractAddress)
	require.Error(t, err)
	assert.Equal(t, schema.TokenStatusUnknown, assessment.Status)
	assert.Equal(t, enrich.MessageAnalysisNoResult, assessment.Message)
	assert.Nil(t, assessment.Score)
}

func TestTokenSnifferClient_Assess_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	client := tokensniffer.NewClient(adapter.NewHTTPClient(time.Second, adapter.RetryPolicy{
		InitialInterval: 10 * time.Millisecond,
		MaxInterval:     10 * time.Millisecond,
		MaxElapsedTime:  50 * time.Millisecond,
	}), url, "k")
	e := enrich.NewEnricher(client, nil, nil, 5*time.Second)

	assessment, err := e.Assess(context.Background(), contractAddress)
	require.Error(t, err)
	assert.Equal(t, schema.TokenStatusUnknown, assessment.Status)
	assert.Equal(t, enrich.MessageAnalysisError, assessment.Message)
}
