package registry

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/feral-file/ff-token-scanner/internal/adapter"
	"github.com/feral-file/ff-token-scanner/internal/domain"
)

// IgnoreList tells the scanner which contracts are never probed
//
//go:generate mockgen -source=ignore_list.go -destination=../mocks/ignore_list.go -package=mocks -mock_names=IgnoreList=MockIgnoreList
type IgnoreList interface {
	// IsIgnored reports whether a contract address is ignored on a chain
	IsIgnored(chain domain.Chain, contractAddress string) bool

	// Len returns the number of ignored entries across chains
	Len() int
}

// IgnoreListData is the ignore list file format: CAIP-2 chain id -> contract addresses
type IgnoreListData map[string][]string

type ignoreList struct {
	// "chain:address" -> struct{}
	contracts map[string]struct{}
}

// IgnoreListLoader reads ignore lists from disk
type IgnoreListLoader struct {
	fs adapter.FileSystem
}

func NewIgnoreListLoader(fs adapter.FileSystem) *IgnoreListLoader {
	return &IgnoreListLoader{fs: fs}
}

// Load reads and indexes an ignore list file
func (l *IgnoreListLoader) Load(path string) (IgnoreList, error) {
	raw, err := l.fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read ignore list file: %w", err)
	}

	var data IgnoreListData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to parse ignore list JSON: %w", err)
	}

	return NewIgnoreList(data), nil
}

// NewIgnoreList indexes data; chain ids and addresses are matched case-insensitively
func NewIgnoreList(data IgnoreListData) IgnoreList {
	list := &ignoreList{contracts: make(map[string]struct{})}
	for chain, addresses := range data {
		for _, addr := range addresses {
			list.contracts[ignoreKey(domain.Chain(chain), addr)] = struct{}{}
		}
	}
	return list
}

func (l *ignoreList) IsIgnored(chain domain.Chain, contractAddress string) bool {
	if l == nil {
		return false
	}
	_, ok := l.contracts[ignoreKey(chain, contractAddress)]
	return ok
}

func (l *ignoreList) Len() int {
	if l == nil {
		return 0
	}
	return len(l.contracts)
}

func ignoreKey(chain domain.Chain, address string) string {
	return strings.ToLower(string(chain)) + ":" + domain.NormalizeAddress(address)
}
