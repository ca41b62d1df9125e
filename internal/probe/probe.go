package probe

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/feral-file/ff-token-scanner/internal/domain"
	"github.com/feral-file/ff-token-scanner/internal/providers/ethereum"
)

// ErrNotToken is returned when a contract does not answer the ERC-20 metadata calls
var ErrNotToken = errors.New("contract is not an erc-20 token")

// Token holds the on-chain metadata of a probed contract
type Token struct {
	Address        string
	Name           string
	Symbol         string
	TotalSupply    string
	RawTotalSupply *big.Int
}

// Prober classifies contracts as tokens
//
//go:generate mockgen -source=probe.go -destination=../mocks/probe.go -package=mocks -mock_names=Prober=MockProber
type Prober interface {
	Probe(ctx context.Context, address string) (*Token, error)
}

type prober struct {
	chain ethereum.Client
}

func New(chain ethereum.Client) Prober {
	return &prober{chain: chain}
}

// Probe runs name, symbol and totalSupply concurrently. All three must succeed;
// empty strings are accepted as valid answers.
func (p *prober) Probe(ctx context.Context, address string) (*Token, error) {
	address = domain.NormalizeAddress(address)

	var (
		name   string
		symbol string
		supply *big.Int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		name, err = p.chain.ERC20Name(gctx, address)
		return err
	})
	g.Go(func() error {
		var err error
		symbol, err = p.chain.ERC20Symbol(gctx, address)
		return err
	})
	g.Go(func() error {
		var err error
		supply, err = p.chain.ERC20TotalSupply(gctx, address)
		return err
	})

	if err := g.Wait(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrNotToken, address, err)
	}
	if supply == nil {
		return nil, fmt.Errorf("%w: %s: missing total supply", ErrNotToken, address)
	}

	return &Token{
		Address:        address,
		Name:           name,
		Symbol:         symbol,
		TotalSupply:    FormatUnits(supply, domain.DEFAULT_TOKEN_DECIMALS),
		RawTotalSupply: supply,
	}, nil
}

// FormatUnits renders a base-unit amount with the given decimals, trimming trailing zeros
func FormatUnits(amount *big.Int, decimals int32) string {
	if amount == nil {
		return "0"
	}
	return decimal.NewFromBigInt(amount, -decimals).String()
}
