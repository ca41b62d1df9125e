package store

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/feral-file/ff-token-scanner/internal/store/schema"
)

const (
	// DefaultPageSize is used when a list query does not set a limit
	DefaultPageSize = 50
	// MaxPageSize caps list queries
	MaxPageSize = 100
)

// UpsertTokenInput carries every mutable column of a token record
type UpsertTokenInput struct {
	ContractAddress   string
	Name              string
	Symbol            string
	TotalSupply       string
	Status            schema.TokenStatus
	Message           string
	Score             *float64
	MarketCap         *decimal.Decimal
	CirculatingSupply *decimal.Decimal
	LiquidityPool     *decimal.Decimal
	HoldersCount      *int64
}

// TokenQueryFilter selects a page of tokens ordered by creation time, newest first
type TokenQueryFilter struct {
	Offset int
	Limit  int
	// SearchQuery is a case-insensitive substring matched against the symbol
	SearchQuery string
}

// Store defines the interface for database operations
//
//go:generate mockgen -source=store.go -destination=../mocks/store.go -package=mocks -mock_names=Store=MockStore
type Store interface {
	// Ping checks the database connection
	Ping(ctx context.Context) error

	// Exists reports whether a token record exists for the address
	Exists(ctx context.Context, contractAddress string) (bool, error)
	// UpsertToken inserts or updates the record keyed by contract address; created_at is kept on update
	UpsertToken(ctx context.Context, input UpsertTokenInput) (*schema.Token, error)
	// GetToken retrieves a token by address, nil if absent
	GetToken(ctx context.Context, contractAddress string) (*schema.Token, error)
	// ListTokens returns a page of tokens
	ListTokens(ctx context.Context, filter TokenQueryFilter) ([]*schema.Token, error)

	// CreateScanRun persists the summary of a scan pass
	CreateScanRun(ctx context.Context, run *schema.ScanRun) error
	// LatestScanRun returns the most recent scan run for a chain, nil if none
	LatestScanRun(ctx context.Context, chain string) (*schema.ScanRun, error)

	// GetBlockCursor retrieves the last covered block number for a chain, 0 if none
	GetBlockCursor(ctx context.Context, chain string) (uint64, error)
	// SetBlockCursor stores the last covered block number for a chain
	SetBlockCursor(ctx context.Context, chain string, blockNumber uint64) error
}
