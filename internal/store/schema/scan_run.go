package schema

import (
	"time"

	"gorm.io/datatypes"
)

// ScanRun records the coverage of one completed scan pass
type ScanRun struct {
	// ID is a ULID so runs sort by start time
	ID              string    `gorm:"column:id;primaryKey;type:text"`
	Chain           string    `gorm:"column:chain;not null;type:text;index:idx_scan_runs_chain_started,priority:1"`
	StartedAt       time.Time `gorm:"column:started_at;not null;index:idx_scan_runs_chain_started,priority:2,sort:desc"`
	FinishedAt      time.Time `gorm:"column:finished_at;not null"`
	FromBlock       uint64    `gorm:"column:from_block;not null"`
	ToBlock         uint64    `gorm:"column:to_block;not null"`
	BlocksScanned   int       `gorm:"column:blocks_scanned;not null;default:0"`
	BlocksSkipped   int       `gorm:"column:blocks_skipped;not null;default:0"`
	ReceiptsSkipped int       `gorm:"column:receipts_skipped;not null;default:0"`
	Candidates      int       `gorm:"column:candidates;not null;default:0"`
	KnownSkipped    int       `gorm:"column:known_skipped;not null;default:0"`
	NotTokens       int       `gorm:"column:not_tokens;not null;default:0"`
	TokensStored    int       `gorm:"column:tokens_stored;not null;default:0"`
	StoreFailures   int       `gorm:"column:store_failures;not null;default:0"`
	// GapBlocks counts blocks that fell between the previous pass and this window
	GapBlocks uint64 `gorm:"column:gap_blocks;not null;default:0"`
	// SkippedBlocks is a JSON array of block numbers that could not be fetched
	SkippedBlocks datatypes.JSON `gorm:"column:skipped_blocks;type:jsonb;not null;default:'[]'"`
	// Error is set when the pass aborted early
	Error *string `gorm:"column:error;type:text"`
}

// TableName specifies the table name for the ScanRun model
func (ScanRun) TableName() string {
	return "scan_runs"
}
