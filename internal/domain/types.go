package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Chain represents the blockchain network identifier using CAIP-2 format
type Chain string

const (
	ChainEthereumMainnet Chain = "eip155:1"
	ChainBaseMainnet     Chain = "eip155:8453"
	ChainBaseSepolia     Chain = "eip155:84532"
)

// ChainFromID builds the CAIP-2 identifier of an EVM chain id
func ChainFromID(chainID int64) Chain {
	return Chain(fmt.Sprintf("eip155:%d", chainID))
}

// IsValidChain checks that a chain is an eip155 identifier with a numeric reference
func IsValidChain(chain Chain) bool {
	ref, ok := strings.CutPrefix(string(chain), "eip155:")
	if !ok || ref == "" {
		return false
	}
	for _, r := range ref {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// TokenDiscoveredEvent is published after a token record has been written.
// Numeric amounts are decimal strings to avoid float rounding on the wire.
type TokenDiscoveredEvent struct {
	Chain             Chain     `json:"chain"`
	ContractAddress   string    `json:"contract_address"`
	Name              string    `json:"name"`
	Symbol            string    `json:"symbol"`
	TotalSupply       string    `json:"total_supply"`
	Status            string    `json:"status"`
	Message           string    `json:"message"`
	Score             *float64  `json:"score"`
	MarketCap         *string   `json:"market_cap"`
	CirculatingSupply *string   `json:"circulating_supply"`
	BlockNumber       uint64    `json:"block_number"`
	TxHash            string    `json:"tx_hash"`
	DiscoveredAt      time.Time `json:"discovered_at"`
}

// NormalizeAddress lowercases a 0x address, the canonical form for storage and dedup
func NormalizeAddress(address string) string {
	address = strings.TrimSpace(address)
	if common.IsHexAddress(address) {
		return strings.ToLower(common.HexToAddress(address).Hex())
	}
	return strings.ToLower(address)
}

// NormalizeAddresses normalizes a list of addresses in place
func NormalizeAddresses(addresses []string) []string {
	for i, address := range addresses {
		addresses[i] = NormalizeAddress(address)
	}
	return addresses
}

// ValidateAddress returns the normalized address or ErrInvalidAddress
func ValidateAddress(address string) (string, error) {
	if !common.IsHexAddress(strings.TrimSpace(address)) {
		return "", fmt.Errorf("%w: %q", ErrInvalidAddress, address)
	}
	return NormalizeAddress(address), nil
}

// IsZeroAddress reports whether address is the zero address
func IsZeroAddress(address common.Address) bool {
	return address == common.Address{}
}
