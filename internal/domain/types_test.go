package domain

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidChain(t *testing.T) {
	tests := []struct {
		name     string
		chain    Chain
		expected bool
	}{
		{name: "base mainnet", chain: ChainBaseMainnet, expected: true},
		{name: "ethereum mainnet", chain: ChainEthereumMainnet, expected: true},
		{name: "from id", chain: ChainFromID(10), expected: true},
		{name: "empty", chain: Chain(""), expected: false},
		{name: "missing reference", chain: Chain("eip155:"), expected: false},
		{name: "non numeric reference", chain: Chain("eip155:base"), expected: false},
		{name: "other namespace", chain: Chain("tezos:mainnet"), expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsValidChain(tt.chain))
		})
	}
}

func TestNormalizeAddress(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "checksummed",
			input:    "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48",
			expected: "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48",
		},
		{
			name:     "already lowercase",
			input:    "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48",
			expected: "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48",
		},
		{
			name:     "surrounding whitespace",
			input:    "  0xA0B86991C6218B36C1D19D4A2E9EB0CE3606EB48 ",
			expected: "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48",
		},
		{
			name:     "not an address",
			input:    "HELLO",
			expected: "hello",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeAddress(tt.input))
		})
	}
}

func TestValidateAddress(t *testing.T) {
	addr, err := ValidateAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
	require.NoError(t, err)
	assert.Equal(t, "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48", addr)

	_, err = ValidateAddress("0x1234")
	assert.ErrorIs(t, err, ErrInvalidAddress)
}

func TestIsZeroAddress(t *testing.T) {
	assert.True(t, IsZeroAddress(common.Address{}))
	assert.True(t, IsZeroAddress(common.HexToAddress(ETHEREUM_ZERO_ADDRESS)))
	assert.False(t, IsZeroAddress(common.HexToAddress("0x1")))
}
