package dto

import (
	"encoding/json"
	"time"

	"github.com/feral-file/ff-token-scanner/internal/store/schema"
)

// ScanRunResponse is the coverage record of a scan pass
type ScanRunResponse struct {
	ID              string    `json:"id"`
	Chain           string    `json:"chain"`
	StartedAt       time.Time `json:"startedAt"`
	FinishedAt      time.Time `json:"finishedAt"`
	FromBlock       uint64    `json:"fromBlock"`
	ToBlock         uint64    `json:"toBlock"`
	BlocksScanned   int       `json:"blocksScanned"`
	BlocksSkipped   int       `json:"blocksSkipped"`
	SkippedBlocks   []uint64  `json:"skippedBlocks"`
	ReceiptsSkipped int       `json:"receiptsSkipped"`
	GapBlocks       uint64    `json:"gapBlocks"`
	Candidates      int       `json:"candidates"`
	KnownSkipped    int       `json:"knownSkipped"`
	NotTokens       int       `json:"notTokens"`
	TokensStored    int       `json:"tokensStored"`
	StoreFailures   int       `json:"storeFailures"`
	Error           *string   `json:"error"`
}

// MapScanRunToDTO converts a schema scan run to a response
func MapScanRunToDTO(run *schema.ScanRun) ScanRunResponse {
	skipped := []uint64{}
	if len(run.SkippedBlocks) > 0 {
		// column is written by the scanner, an unreadable value is reported as empty
		_ = json.Unmarshal(run.SkippedBlocks, &skipped)
	}

	return ScanRunResponse{
		ID:              run.ID,
		Chain:           run.Chain,
		StartedAt:       run.StartedAt,
		FinishedAt:      run.FinishedAt,
		FromBlock:       run.FromBlock,
		ToBlock:         run.ToBlock,
		BlocksScanned:   run.BlocksScanned,
		BlocksSkipped:   run.BlocksSkipped,
		SkippedBlocks:   skipped,
		ReceiptsSkipped: run.ReceiptsSkipped,
		GapBlocks:       run.GapBlocks,
		Candidates:      run.Candidates,
		KnownSkipped:    run.KnownSkipped,
		NotTokens:       run.NotTokens,
		TokensStored:    run.TokensStored,
		StoreFailures:   run.StoreFailures,
		Error:           run.Error,
	}
}
