package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/feral-file/ff-token-scanner/internal/store/schema"
)

// TokenResponse is a token record as front ends consume it
type TokenResponse struct {
	ContractAddress   string           `json:"contractAddress"`
	Name              string           `json:"name"`
	Symbol            string           `json:"symbol"`
	TotalSupply       string           `json:"totalSupply"`
	Status            string           `json:"status"`
	Message           string           `json:"message"`
	Score             *float64         `json:"score"`
	MarketCap         *decimal.Decimal `json:"marketCap"`
	CirculatingSupply *decimal.Decimal `json:"circulatingSupply"`
	LiquidityPool     *decimal.Decimal `json:"liquidityPool"`
	HoldersCount      *int64           `json:"holdersCount"`
	CreatedAt         time.Time        `json:"createdAt"`
	UpdatedAt         time.Time        `json:"updatedAt"`
}

// MapTokenToDTO converts a schema token to a response
func MapTokenToDTO(token *schema.Token) TokenResponse {
	return TokenResponse{
		ContractAddress:   token.ContractAddress,
		Name:              token.Name,
		Symbol:            token.Symbol,
		TotalSupply:       token.TotalSupply,
		Status:            string(token.Status),
		Message:           token.Message,
		Score:             token.Score,
		MarketCap:         token.MarketCap,
		CirculatingSupply: token.CirculatingSupply,
		LiquidityPool:     token.LiquidityPool,
		HoldersCount:      token.HoldersCount,
		CreatedAt:         token.CreatedAt,
		UpdatedAt:         token.UpdatedAt,
	}
}

// MapTokensToDTO converts a page of tokens; an empty page is an empty array
func MapTokensToDTO(tokens []*schema.Token) []TokenResponse {
	out := make([]TokenResponse, 0, len(tokens))
	for _, token := range tokens {
		out = append(out, MapTokenToDTO(token))
	}
	return out
}
