package schema

import (
	"time"

	"github.com/shopspring/decimal"
)

// TokenStatus is the risk classification of a token
type TokenStatus string

const (
	// TokenStatusGreen means the risk service found no issues
	TokenStatusGreen TokenStatus = "Green"
	// TokenStatusRed means the token was flagged as a scam or scored below the threshold
	TokenStatusRed TokenStatus = "Red"
	// TokenStatusUnknown means the risk service could not produce a verdict
	TokenStatusUnknown TokenStatus = "Unknown"
)

// Valid reports whether s is one of the three statuses
func (s TokenStatus) Valid() bool {
	switch s {
	case TokenStatusGreen, TokenStatusRed, TokenStatusUnknown:
		return true
	}
	return false
}

// Token represents the tokens table - one row per discovered token contract
type Token struct {
	// ID is the internal database primary key
	ID int64 `gorm:"column:id;primaryKey;autoIncrement"`
	// ContractAddress is the lowercase 0x address of the token contract
	ContractAddress string `gorm:"column:contract_address;not null;uniqueIndex;type:text"`
	// Name is the value returned by name()
	Name string `gorm:"column:name;not null;default:'';type:text"`
	// Symbol is the value returned by symbol()
	Symbol string `gorm:"column:symbol;not null;default:'';type:text"`
	// TotalSupply is a decimal string, from the market service when it reports one, else from totalSupply()
	TotalSupply string `gorm:"column:total_supply;not null;default:'0';type:text"`
	// Status is the risk classification
	Status TokenStatus `gorm:"column:status;not null;type:text"`
	// Message explains Status
	Message string `gorm:"column:message;not null;type:text"`
	// Score is the risk service score, nil when unavailable
	Score *float64 `gorm:"column:score;type:double precision"`
	// MarketCap is the market capitalisation in USD
	MarketCap *decimal.Decimal `gorm:"column:market_cap;type:numeric"`
	// CirculatingSupply as reported by the market service
	CirculatingSupply *decimal.Decimal `gorm:"column:circulating_supply;type:numeric"`
	// LiquidityPool is reserved and currently always nil
	LiquidityPool *decimal.Decimal `gorm:"column:liquidity_pool;type:numeric"`
	// HoldersCount is reserved and currently always nil
	HoldersCount *int64 `gorm:"column:holders_count;type:bigint"`
	// CreatedAt is set on first insert and never changed by later upserts
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now()"`
	// UpdatedAt is refreshed on every upsert
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now()"`
}

// TableName specifies the table name for the Token model
func (Token) TableName() string {
	return "tokens"
}
