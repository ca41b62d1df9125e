package probe_test

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/ff-token-scanner/internal/mocks"
	"github.com/feral-file/ff-token-scanner/internal/probe"
)

const tokenAddr = "0x00000000000000000000000000000000000000a1"

func mustBig(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic(s)
	}
	return v
}

func TestFormatUnits(t *testing.T) {
	tests := []struct {
		name     string
		amount   *big.Int
		expected string
	}{
		{name: "whole tokens", amount: mustBig("1000000000000000000000"), expected: "1000"},
		{name: "fractional", amount: mustBig("1500000000000000000"), expected: "1.5"},
		{name: "zero", amount: big.NewInt(0), expected: "0"},
		{name: "one wei", amount: big.NewInt(1), expected: "0.000000000000000001"},
		{name: "nil", amount: nil, expected: "0"},
		{name: "large supply", amount: mustBig("1000000000000000000000000000000000"), expected: "1000000000000000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, probe.FormatUnits(tt.amount, 18))
		})
	}
}

func TestProbe_Token(t *testing.T) {
	ctrl := gomock.NewController(t)
	chain := mocks.NewMockEthereumClient(ctrl)
	p := probe.New(chain)

	chain.EXPECT().ERC20Name(gomock.Any(), tokenAddr).Return("Test Token", nil)
	chain.EXPECT().ERC20Symbol(gomock.Any(), tokenAddr).Return("TST", nil)
	chain.EXPECT().ERC20TotalSupply(gomock.Any(), tokenAddr).Return(mustBig("1000000000000000000000"), nil)

	token, err := p.Probe(context.Background(), "0x00000000000000000000000000000000000000A1")
	require.NoError(t, err)
	assert.Equal(t, tokenAddr, token.Address)
	assert.Equal(t, "Test Token", token.Name)
	assert.Equal(t, "TST", token.Symbol)
	assert.Equal(t, "1000", token.TotalSupply)
}

func TestProbe_EmptyStringsAccepted(t *testing.T) {
	ctrl := gomock.NewController(t)
	chain := mocks.NewMockEthereumClient(ctrl)
	p := probe.New(chain)

	chain.EXPECT().ERC20Name(gomock.Any(), tokenAddr).Return("", nil)
	chain.EXPECT().ERC20Symbol(gomock.Any(), tokenAddr).Return("", nil)
	chain.EXPECT().ERC20TotalSupply(gomock.Any(), tokenAddr).Return(big.NewInt(0), nil)

	token, err := p.Probe(context.Background(), tokenAddr)
	require.NoError(t, err)
	assert.Equal(t, "", token.Symbol)
	assert.Equal(t, "0", token.TotalSupply)
}

func TestProbe_NotToken(t *testing.T) {
	failures := []string{"name", "symbol", "totalSupply"}

	for _, failing := range failures {
		t.Run(failing+" reverts", func(t *testing.T) {
			ctrl := gomock.NewController(t)
			chain := mocks.NewMockEthereumClient(ctrl)
			p := probe.New(chain)

			revert := errors.New("execution reverted")

			nameErr, symbolErr, supplyErr := error(nil), error(nil), error(nil)
			switch failing {
			case "name":
				nameErr = revert
			case "symbol":
				symbolErr = revert
			case "totalSupply":
				supplyErr = revert
			}

			// errgroup cancels siblings on the first failure so the other calls may or may not run
			chain.EXPECT().ERC20Name(gomock.Any(), tokenAddr).Return("X", nameErr).AnyTimes()
			chain.EXPECT().ERC20Symbol(gomock.Any(), tokenAddr).Return("X", symbolErr).AnyTimes()
			chain.EXPECT().ERC20TotalSupply(gomock.Any(), tokenAddr).Return(big.NewInt(1), supplyErr).AnyTimes()

			token, err := p.Probe(context.Background(), tokenAddr)
			assert.Nil(t, token)
			assert.ErrorIs(t, err, probe.ErrNotToken)
			assert.Contains(t, err.Error(), "execution reverted")
		})
	}
}

func TestProbe_ContextCancelledIsNotClassified(t *testing.T) {
	ctrl := gomock.NewController(t)
	chain := mocks.NewMockEthereumClient(ctrl)
	p := probe.New(chain)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	chain.EXPECT().ERC20Name(gomock.Any(), tokenAddr).Return("", context.Canceled).AnyTimes()
	chain.EXPECT().ERC20Symbol(gomock.Any(), tokenAddr).Return("", context.Canceled).AnyTimes()
	chain.EXPECT().ERC20TotalSupply(gomock.Any(), tokenAddr).Return(nil, context.Canceled).AnyTimes()

	_, err := p.Probe(ctx, tokenAddr)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, probe.ErrNotToken)
}
