package scanner

import (
	"time"

	"github.com/feral-file/ff-token-scanner/internal/detector"
	"github.com/feral-file/ff-token-scanner/internal/domain"
	"github.com/feral-file/ff-token-scanner/internal/enrich"
	"github.com/feral-file/ff-token-scanner/internal/probe"
	"github.com/feral-file/ff-token-scanner/internal/store"
	"github.com/feral-file/ff-token-scanner/internal/store/schema"
)

// Assemble builds the record written for a probed token.
// A total supply reported by the market service replaces the on-chain value.
func Assemble(token *probe.Token, risk enrich.RiskAssessment, market enrich.MarketFields) store.UpsertTokenInput {
	totalSupply := token.TotalSupply
	if market.TotalSupply != nil {
		totalSupply = market.TotalSupply.String()
	}

	return store.UpsertTokenInput{
		ContractAddress:   domain.NormalizeAddress(token.Address),
		Name:              token.Name,
		Symbol:            token.Symbol,
		TotalSupply:       totalSupply,
		Status:            risk.Status,
		Message:           risk.Message,
		Score:             risk.Score,
		MarketCap:         market.MarketCap,
		CirculatingSupply: market.CirculatingSupply,
		LiquidityPool:     market.LiquidityPool,
		HoldersCount:      market.HoldersCount,
	}
}

// NewDiscoveredEvent describes a stored record for subscribers
func NewDiscoveredEvent(chain domain.Chain, record *schema.Token, candidate detector.Candidate, now time.Time) *domain.TokenDiscoveredEvent {
	event := &domain.TokenDiscoveredEvent{
		Chain:           chain,
		ContractAddress: record.ContractAddress,
		Name:            record.Name,
		Symbol:          record.Symbol,
		TotalSupply:     record.TotalSupply,
		Status:          string(record.Status),
		Message:         record.Message,
		Score:           record.Score,
		BlockNumber:     candidate.BlockNumber,
		TxHash:          candidate.TxHash,
		DiscoveredAt:    now,
	}
	if record.MarketCap != nil {
		v := record.MarketCap.String()
		event.MarketCap = &v
	}
	if record.CirculatingSupply != nil {
		v := record.CirculatingSupply.String()
		event.CirculatingSupply = &v
	}
	return event
}
