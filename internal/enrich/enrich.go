// Package enrich turns third-party risk and market answers into the fields stored
// on a token record. Both lookups are best effort: a failed or slow upstream
// degrades the record, it never blocks or aborts it.
package enrich

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/feral-file/ff-token-scanner/internal/adapter"
	"github.com/feral-file/ff-token-scanner/internal/domain"
	"github.com/feral-file/ff-token-scanner/internal/logger"
	"github.com/feral-file/ff-token-scanner/internal/ratelimit"
	"github.com/feral-file/ff-token-scanner/internal/store/schema"
)

const (
	MessagePossibleScam     = "Possible scam."
	MessageScoreBelow       = "Score below 70."
	MessageNoIssues         = "No issues detected."
	MessageAnalysisError    = "Error during analysis."
	MessageAnalysisNoResult = "Unable to fetch analysis."
)

// Provider names used as rate limit buckets
const (
	ProviderRisk   = "risk"
	ProviderMarket = "market"
)

// DefaultTimeout bounds a single risk or market call
const DefaultTimeout = 10 * time.Second

// ErrNoMarketData is returned by MarketService when the service does not list the token
var ErrNoMarketData = errors.New("no market data")

var errRiskNotConfigured = errors.New("risk service not configured")

// RiskReport is the risk service answer
type RiskReport struct {
	IsScam      bool
	ScamDetails string
	// Score is nil when the service answered without scoring the token
	Score *float64
}

// MarketReport is the market service answer. Nil fields were not reported.
type MarketReport struct {
	MarketCapUSD      *decimal.Decimal
	CirculatingSupply *decimal.Decimal
	TotalSupply       *decimal.Decimal
}

// RiskService scores a token contract
//
//go:generate mockgen -source=enrich.go -destination=../mocks/enrich.go -package=mocks -mock_names=RiskService=MockRiskService
type RiskService interface {
	Analyze(ctx context.Context, address string) (*RiskReport, error)
}

// MarketService returns market data for a token contract
//
//go:generate mockgen -source=enrich.go -destination=../mocks/enrich.go -package=mocks -mock_names=MarketService=MockMarketService
type MarketService interface {
	Market(ctx context.Context, address string) (*MarketReport, error)
}

// RiskAssessment is the classification written to the record
type RiskAssessment struct {
	Status  schema.TokenStatus
	Message string
	Score   *float64
}

// MarketFields are the market columns written to the record.
// LiquidityPool and HoldersCount are never computed.
type MarketFields struct {
	MarketCap         *decimal.Decimal
	CirculatingSupply *decimal.Decimal
	TotalSupply       *decimal.Decimal
	LiquidityPool     *decimal.Decimal
	HoldersCount      *int64
}

// Classify maps a risk answer to a status. A scam flag wins over the score.
// A non-success HTTP answer is reported apart from transport, timeout and decode failures.
func Classify(report *RiskReport, err error) RiskAssessment {
	if err != nil {
		var se *adapter.StatusError
		if errors.As(err, &se) {
			return RiskAssessment{Status: schema.TokenStatusUnknown, Message: MessageAnalysisNoResult}
		}
		return RiskAssessment{Status: schema.TokenStatusUnknown, Message: MessageAnalysisError}
	}
	if report == nil {
		return RiskAssessment{Status: schema.TokenStatusUnknown, Message: MessageAnalysisError}
	}

	if report.IsScam {
		msg := report.ScamDetails
		if msg == "" {
			msg = MessagePossibleScam
		}
		return RiskAssessment{Status: schema.TokenStatusRed, Message: msg, Score: report.Score}
	}

	if report.Score == nil {
		return RiskAssessment{Status: schema.TokenStatusUnknown, Message: MessageAnalysisNoResult}
	}

	if *report.Score < domain.RISK_SCORE_THRESHOLD {
		return RiskAssessment{Status: schema.TokenStatusRed, Message: MessageScoreBelow, Score: report.Score}
	}
	return RiskAssessment{Status: schema.TokenStatusGreen, Message: MessageNoIssues, Score: report.Score}
}

// MarketFromReport maps a market answer to record fields; any failure yields empty fields
func MarketFromReport(report *MarketReport, err error) MarketFields {
	if err != nil || report == nil {
		return MarketFields{}
	}
	return MarketFields{
		MarketCap:         report.MarketCapUSD,
		CirculatingSupply: report.CirculatingSupply,
		TotalSupply:       report.TotalSupply,
	}
}

// Enricher runs the risk and market lookups under an optional rate limit. The
// timeout bounds each upstream call, not the wait for a rate limit token.
type Enricher struct {
	risk    RiskService
	market  MarketService
	limiter ratelimit.Proxy
	timeout time.Duration
}

// NewEnricher builds an Enricher. Nil services always yield the failure mapping.
func NewEnricher(risk RiskService, market MarketService, limiter ratelimit.Proxy, timeout time.Duration) *Enricher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Enricher{risk: risk, market: market, limiter: limiter, timeout: timeout}
}

// Assess always returns a usable assessment. The error only reports why it is Unknown.
func (e *Enricher) Assess(ctx context.Context, address string) (RiskAssessment, error) {
	if e.risk == nil {
		return Classify(nil, errRiskNotConfigured), errRiskNotConfigured
	}

	report, err := ratelimit.Request(ctx, e.limiter, ProviderRisk, func(ctx context.Context) (*RiskReport, error) {
		ctx, cancel := context.WithTimeout(ctx, e.timeout)
		defer cancel()
		return e.risk.Analyze(ctx, address)
	})
	if err != nil {
		logger.WarnCtx(ctx, "risk analysis failed", zap.String("address", address), zap.Error(err))
	}
	return Classify(report, err), err
}

// Market always returns usable fields, empty on error. ErrNoMarketData is not logged.
func (e *Enricher) Market(ctx context.Context, address string) (MarketFields, error) {
	if e.market == nil {
		return MarketFields{}, nil
	}

	report, err := ratelimit.Request(ctx, e.limiter, ProviderMarket, func(ctx context.Context) (*MarketReport, error) {
		ctx, cancel := context.WithTimeout(ctx, e.timeout)
		defer cancel()
		return e.market.Market(ctx, address)
	})
	if err != nil && !errors.Is(err, ErrNoMarketData) {
		logger.WarnCtx(ctx, "market lookup failed", zap.String("address", address), zap.Error(err))
	}
	return MarketFromReport(report, err), err
}
