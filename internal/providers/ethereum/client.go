package ethereum

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/feral-file/ff-token-scanner/internal/adapter"
	"github.com/feral-file/ff-token-scanner/internal/domain"
)

// erc20ABI covers the three read-only methods used to recognise a fungible token
const erc20ABI = `[
	{"constant":true,"inputs":[],"name":"name","outputs":[{"name":"","type":"string"}],"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[],"name":"symbol","outputs":[{"name":"","type":"string"}],"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[],"name":"totalSupply","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"}
]`

// DefaultCallTimeout bounds every RPC call when no timeout is configured
const DefaultCallTimeout = 10 * time.Second

// Client reads blocks, receipts and ERC-20 metadata from an EVM chain
//
//go:generate mockgen -source=client.go -destination=../../mocks/ethereum_client.go -package=mocks -mock_names=Client=MockEthereumClient
type Client interface {
	// Chain returns the CAIP-2 identifier of the chain this client reads
	Chain() domain.Chain

	// VerifyChainID fails when the node serves a different chain than configured
	VerifyChainID(ctx context.Context) error

	// LatestBlockNumber returns the current head block number
	LatestBlockNumber(ctx context.Context) (uint64, error)

	// BlockWithTransactions returns the block with full transaction bodies
	// Returns domain.ErrNotFound when the node does not have the block
	BlockWithTransactions(ctx context.Context, number uint64) (*types.Block, error)

	// TransactionReceipt returns the receipt of a transaction
	// Returns domain.ErrNotFound when the node does not have the receipt
	TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error)

	// ERC20Name calls name() on a contract
	ERC20Name(ctx context.Context, contractAddress string) (string, error)

	// ERC20Symbol calls symbol() on a contract
	ERC20Symbol(ctx context.Context, contractAddress string) (string, error)

	// ERC20TotalSupply calls totalSupply() on a contract and returns the raw base-unit amount
	ERC20TotalSupply(ctx context.Context, contractAddress string) (*big.Int, error)

	// Close closes the connection
	Close()
}

type ethereumClient struct {
	chainID     int64
	client      adapter.EthClient
	callTimeout time.Duration
	abi         abi.ABI
}

// NewClient wraps an EthClient; every call is bounded by callTimeout
func NewClient(chainID int64, client adapter.EthClient, callTimeout time.Duration) (Client, error) {
	parsed, err := abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ABI: %w", err)
	}
	if callTimeout <= 0 {
		callTimeout = DefaultCallTimeout
	}

	return &ethereumClient{
		chainID:     chainID,
		client:      client,
		callTimeout: callTimeout,
		abi:         parsed,
	}, nil
}

func (c *ethereumClient) Chain() domain.Chain {
	return domain.ChainFromID(c.chainID)
}

func (c *ethereumClient) VerifyChainID(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	id, err := c.client.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("failed to get chain id: %w", err)
	}
	if id.Int64() != c.chainID {
		return fmt.Errorf("chain id mismatch: configured %d, node reports %s", c.chainID, id.String())
	}
	return nil
}

func (c *ethereumClient) LatestBlockNumber(ctx context.Context) (uint64, error) {
	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	number, err := c.client.BlockNumber(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get latest block number: %w", err)
	}
	return number, nil
}

func (c *ethereumClient) BlockWithTransactions(ctx context.Context, number uint64) (*types.Block, error) {
	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	block, err := c.client.BlockByNumber(ctx, new(big.Int).SetUint64(number))
	if err != nil {
		return nil, fmt.Errorf("failed to get block %d: %w", number, mapNotFound(err))
	}
	return block, nil
}

func (c *ethereumClient) TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	receipt, err := c.client.TransactionReceipt(ctx, hash)
	if err != nil {
		return nil, fmt.Errorf("failed to get receipt %s: %w", hash.Hex(), mapNotFound(err))
	}
	return receipt, nil
}

func (c *ethereumClient) ERC20Name(ctx context.Context, contractAddress string) (string, error) {
	var name string
	if err := c.call(ctx, contractAddress, "name", &name); err != nil {
		return "", err
	}
	return name, nil
}

func (c *ethereumClient) ERC20Symbol(ctx context.Context, contractAddress string) (string, error) {
	var symbol string
	if err := c.call(ctx, contractAddress, "symbol", &symbol); err != nil {
		return "", err
	}
	return symbol, nil
}

func (c *ethereumClient) ERC20TotalSupply(ctx context.Context, contractAddress string) (*big.Int, error) {
	supply := new(big.Int)
	if err := c.call(ctx, contractAddress, "totalSupply", &supply); err != nil {
		return nil, err
	}
	return supply, nil
}

// call performs a no-argument view call against the latest state and decodes the single output
func (c *ethereumClient) call(ctx context.Context, contractAddress, method string, out interface{}) error {
	data, err := c.abi.Pack(method)
	if err != nil {
		return fmt.Errorf("failed to pack data: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	contractAddr := common.HexToAddress(contractAddress)
	result, err := c.client.CallContract(ctx, ethereum.CallMsg{
		To:   &contractAddr,
		Data: data,
	}, nil)
	if err != nil {
		return fmt.Errorf("failed to call %s: %w", method, err)
	}
	if len(result) == 0 {
		return fmt.Errorf("empty result for %s", method)
	}

	if err := c.abi.UnpackIntoInterface(out, method, result); err != nil {
		return fmt.Errorf("failed to unpack %s: %w", method, err)
	}
	return nil
}

func (c *ethereumClient) Close() {
	c.client.Close()
}

func mapNotFound(err error) error {
	if errors.Is(err, ethereum.NotFound) {
		return domain.ErrNotFound
	}
	return err
}
