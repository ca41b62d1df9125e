package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/feral-file/ff-token-scanner/internal/domain"
	"github.com/feral-file/ff-token-scanner/internal/store/schema"
)

// tokenMutableColumns are overwritten on conflict; created_at and id are not
var tokenMutableColumns = []string{
	"name",
	"symbol",
	"total_supply",
	"status",
	"message",
	"score",
	"market_cap",
	"circulating_supply",
	"liquidity_pool",
	"holders_count",
	"updated_at",
}

type pgStore struct {
	db *gorm.DB
}

// NewPGStore creates a new PostgreSQL store instance
func NewPGStore(db *gorm.DB) Store {
	return &pgStore{db: db}
}

// ConfigureConnectionPool configures the connection pool settings for a GORM database connection.
// Zero values fall back to the defaults of NormalizeConnectionPoolSettings.
func ConfigureConnectionPool(db *gorm.DB, maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime =
		NormalizeConnectionPoolSettings(maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime)

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	return nil
}

// NormalizeConnectionPoolSettings applies defaults and clamps pool settings into safe values.
//
// Defaults (when zero):
//   - MaxOpenConns: 10
//   - MaxIdleConns: 5
//   - ConnMaxLifetime: 5 minutes
//   - ConnMaxIdleTime: 10 minutes
func NormalizeConnectionPoolSettings(maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) (int, int, time.Duration, time.Duration) {
	if maxOpenConns <= 0 {
		maxOpenConns = 10
	}
	if maxIdleConns <= 0 {
		maxIdleConns = 5
	}
	if connMaxLifetime <= 0 {
		connMaxLifetime = 5 * time.Minute
	}
	if connMaxIdleTime <= 0 {
		connMaxIdleTime = 10 * time.Minute
	}
	if maxIdleConns > maxOpenConns {
		maxIdleConns = maxOpenConns
	}
	return maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime
}

func (s *pgStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	return nil
}

func (s *pgStore) Exists(ctx context.Context, contractAddress string) (bool, error) {
	var exists bool
	err := s.db.WithContext(ctx).
		Raw("SELECT EXISTS (SELECT 1 FROM tokens WHERE contract_address = ?)", domain.NormalizeAddress(contractAddress)).
		Scan(&exists).Error
	if err != nil {
		return false, fmt.Errorf("failed to check token existence: %w", err)
	}
	return exists, nil
}

// UpsertToken writes the record with INSERT ... ON CONFLICT (contract_address) DO UPDATE
// and returns the stored row.
func (s *pgStore) UpsertToken(ctx context.Context, input UpsertTokenInput) (*schema.Token, error) {
	address := domain.NormalizeAddress(input.ContractAddress)
	if address == "" {
		return nil, fmt.Errorf("contract address is required")
	}
	if !input.Status.Valid() {
		return nil, fmt.Errorf("invalid token status %q", input.Status)
	}

	now := time.Now().UTC()
	token := schema.Token{
		ContractAddress:   address,
		Name:              input.Name,
		Symbol:            input.Symbol,
		TotalSupply:       input.TotalSupply,
		Status:            input.Status,
		Message:           input.Message,
		Score:             input.Score,
		MarketCap:         input.MarketCap,
		CirculatingSupply: input.CirculatingSupply,
		LiquidityPool:     input.LiquidityPool,
		HoldersCount:      input.HoldersCount,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	var stored schema.Token
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "contract_address"}},
			DoUpdates: clause.AssignmentColumns(tokenMutableColumns),
		}).Create(&token).Error; err != nil {
			return err
		}
		return tx.Where("contract_address = ?", address).First(&stored).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upsert token: %w", err)
	}

	return &stored, nil
}

func (s *pgStore) GetToken(ctx context.Context, contractAddress string) (*schema.Token, error) {
	var token schema.Token
	err := s.db.WithContext(ctx).
		Where("contract_address = ?", domain.NormalizeAddress(contractAddress)).
		First(&token).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get token: %w", err)
	}
	return &token, nil
}

func (s *pgStore) ListTokens(ctx context.Context, filter TokenQueryFilter) ([]*schema.Token, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	offset := max(filter.Offset, 0)

	query := s.db.WithContext(ctx).Model(&schema.Token{})
	// matched verbatim, so whitespace is part of the pattern
	if filter.SearchQuery != "" {
		query = query.Where("symbol ILIKE ?", "%"+escapeLike(filter.SearchQuery)+"%")
	}

	var tokens []*schema.Token
	err := query.
		Order("created_at DESC").
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&tokens).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list tokens: %w", err)
	}
	return tokens, nil
}

func (s *pgStore) CreateScanRun(ctx context.Context, run *schema.ScanRun) error {
	if err := s.db.WithContext(ctx).Create(run).Error; err != nil {
		return fmt.Errorf("failed to create scan run: %w", err)
	}
	return nil
}

func (s *pgStore) LatestScanRun(ctx context.Context, chain string) (*schema.ScanRun, error) {
	var run schema.ScanRun
	err := s.db.WithContext(ctx).
		Where("chain = ?", chain).
		Order("started_at DESC").
		First(&run).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest scan run: %w", err)
	}
	return &run, nil
}

// escapeLike escapes LIKE wildcards so user input only ever matches literally.
// Postgres uses backslash as the default LIKE escape character.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
