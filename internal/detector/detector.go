// Package detector finds contract-creation transactions in a block and resolves
// the addresses they deployed.
package detector

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/feral-file/ff-token-scanner/internal/domain"
	"github.com/feral-file/ff-token-scanner/internal/logger"
	"github.com/feral-file/ff-token-scanner/internal/providers/ethereum"
)

// Candidate is a contract address created in a scanned block
type Candidate struct {
	Address     string
	BlockNumber uint64
	TxHash      string
}

// Result is the outcome of scanning one block
type Result struct {
	Candidates []Candidate
	// SkippedReceipts counts creation transactions whose receipt could not be fetched
	SkippedReceipts int
}

// Detector extracts candidate contract addresses from a block
type Detector interface {
	Detect(ctx context.Context, block *types.Block) (Result, error)
}

type detector struct {
	chain ethereum.Client
}

func New(chain ethereum.Client) Detector {
	return &detector{chain: chain}
}

// Detect returns the created addresses in transaction order. Duplicates are kept;
// deduplication happens downstream. A failed receipt lookup skips that
// transaction only, unless the context itself is done.
func (d *detector) Detect(ctx context.Context, block *types.Block) (Result, error) {
	var result Result
	if block == nil {
		return result, nil
	}

	for _, tx := range block.Transactions() {
		if tx.To() != nil {
			continue
		}

		if err := ctx.Err(); err != nil {
			return result, err
		}

		receipt, err := d.chain.TransactionReceipt(ctx, tx.Hash())
		if err != nil {
			result.SkippedReceipts++
			logger.WarnCtx(ctx, "skipping creation transaction, receipt unavailable",
				zap.Uint64("block", block.NumberU64()),
				zap.String("tx", tx.Hash().Hex()),
				zap.Error(err))
			continue
		}

		if receipt == nil || domain.IsZeroAddress(receipt.ContractAddress) {
			continue
		}
		// Failed deployments still report a derived address but have no code
		if receipt.Status == types.ReceiptStatusFailed {
			continue
		}

		result.Candidates = append(result.Candidates, Candidate{
			Address:     domain.NormalizeAddress(receipt.ContractAddress.Hex()),
			BlockNumber: block.NumberU64(),
			TxHash:      tx.Hash().Hex(),
		})
	}

	return result, nil
}

func (c Candidate) String() string {
	return fmt.Sprintf("%s@%d", c.Address, c.BlockNumber)
}
