package scanner_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/ff-token-scanner/internal/detector"
	"github.com/feral-file/ff-token-scanner/internal/domain"
	"github.com/feral-file/ff-token-scanner/internal/enrich"
	"github.com/feral-file/ff-token-scanner/internal/probe"
	"github.com/feral-file/ff-token-scanner/internal/scanner"
	"github.com/feral-file/ff-token-scanner/internal/store/schema"
)

func TestAssemble_NormalizesAddress(t *testing.T) {
	input := scanner.Assemble(
		&probe.Token{Address: "0x00000000000000000000000000000000000F0001", Name: "Foo", Symbol: "FOO", TotalSupply: "1.5"},
		enrich.RiskAssessment{Status: schema.TokenStatusUnknown, Message: enrich.MessageAnalysisNoResult},
		enrich.MarketFields{},
	)

	assert.Equal(t, addrFoo, input.ContractAddress)
	assert.Equal(t, "1.5", input.TotalSupply)
	assert.Equal(t, schema.TokenStatusUnknown, input.Status)
	assert.Nil(t, input.Score)
}

func TestNewDiscoveredEvent(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	record := &schema.Token{
		ContractAddress:   addrFoo,
		Name:              "Foo",
		Symbol:            "FOO",
		TotalSupply:       "1000",
		Status:            schema.TokenStatusGreen,
		Message:           enrich.MessageNoIssues,
		Score:             score(85),
		MarketCap:         dec("1234.5"),
		CirculatingSupply: nil,
	}

	event := scanner.NewDiscoveredEvent(domain.ChainBaseMainnet, record,
		detector.Candidate{Address: addrFoo, BlockNumber: 42, TxHash: "0xabc"}, now)

	assert.Equal(t, domain.ChainBaseMainnet, event.Chain)
	assert.Equal(t, "Green", event.Status)
	assert.Equal(t, uint64(42), event.BlockNumber)
	assert.Equal(t, "0xabc", event.TxHash)
	assert.Equal(t, now, event.DiscoveredAt)
	require.NotNil(t, event.MarketCap)
	assert.Equal(t, "1234.5", *event.MarketCap)
	assert.Nil(t, event.CirculatingSupply)
}
