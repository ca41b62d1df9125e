package ethereum_test

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/ff-token-scanner/internal/domain"
	"github.com/feral-file/ff-token-scanner/internal/mocks"
	ethprovider "github.com/feral-file/ff-token-scanner/internal/providers/ethereum"
)

const testToken = "0x4200000000000000000000000000000000000006"

type testClient struct {
	ctrl   *gomock.Controller
	eth    *mocks.MockEthClient
	client ethprovider.Client
	abi    abi.ABI
}

func setupTestClient(t *testing.T) *testClient {
	ctrl := gomock.NewController(t)
	eth := mocks.NewMockEthClient(ctrl)
	client, err := ethprovider.NewClient(8453, eth, time.Second)
	require.NoError(t, err)

	parsed, err := abi.JSON(strings.NewReader(ethprovider.ERC20ABI))
	require.NoError(t, err)

	return &testClient{ctrl: ctrl, eth: eth, client: client, abi: parsed}
}

func (tc *testClient) packOutput(t *testing.T, method string, value interface{}) []byte {
	out, err := tc.abi.Methods[method].Outputs.Pack(value)
	require.NoError(t, err)
	return out
}

func TestChain(t *testing.T) {
	tc := setupTestClient(t)
	assert.Equal(t, domain.ChainBaseMainnet, tc.client.Chain())
}

func TestVerifyChainID(t *testing.T) {
	tc := setupTestClient(t)
	ctx := context.Background()

	tc.eth.EXPECT().ChainID(gomock.Any()).Return(big.NewInt(8453), nil)
	assert.NoError(t, tc.client.VerifyChainID(ctx))

	tc.eth.EXPECT().ChainID(gomock.Any()).Return(big.NewInt(1), nil)
	err := tc.client.VerifyChainID(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chain id mismatch")
}

func TestLatestBlockNumber(t *testing.T) {
	tc := setupTestClient(t)

	tc.eth.EXPECT().BlockNumber(gomock.Any()).DoAndReturn(func(ctx context.Context) (uint64, error) {
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline, "rpc calls must carry the call timeout")
		return 1234, nil
	})

	n, err := tc.client.LatestBlockNumber(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(1234), n)
}

func TestBlockWithTransactions_NotFound(t *testing.T) {
	tc := setupTestClient(t)

	tc.eth.EXPECT().BlockByNumber(gomock.Any(), big.NewInt(99)).Return(nil, ethereum.NotFound)

	_, err := tc.client.BlockWithTransactions(context.Background(), 99)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestBlockWithTransactions_Success(t *testing.T) {
	tc := setupTestClient(t)
	block := types.NewBlockWithHeader(&types.Header{Number: big.NewInt(100)})

	tc.eth.EXPECT().BlockByNumber(gomock.Any(), big.NewInt(100)).Return(block, nil)

	got, err := tc.client.BlockWithTransactions(context.Background(), 100)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), got.NumberU64())
}

func TestTransactionReceipt(t *testing.T) {
	tc := setupTestClient(t)
	hash := common.HexToHash("0x01")
	receipt := &types.Receipt{ContractAddress: common.HexToAddress(testToken)}

	tc.eth.EXPECT().TransactionReceipt(gomock.Any(), hash).Return(receipt, nil)
	got, err := tc.client.TransactionReceipt(context.Background(), hash)
	require.NoError(t, err)
	assert.Equal(t, receipt, got)

	tc.eth.EXPECT().TransactionReceipt(gomock.Any(), hash).Return(nil, ethereum.NotFound)
	_, err = tc.client.TransactionReceipt(context.Background(), hash)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	tc.eth.EXPECT().TransactionReceipt(gomock.Any(), hash).Return(nil, errors.New("connection reset"))
	_, err = tc.client.TransactionReceipt(context.Background(), hash)
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrNotFound)
}

func TestERC20Calls(t *testing.T) {
	tc := setupTestClient(t)
	ctx := context.Background()
	supply, _ := new(big.Int).SetString("1000000000000000000000", 10)

	expectCall := func(method string, result []byte) {
		selector := tc.abi.Methods[method].ID
		tc.eth.EXPECT().
			CallContract(gomock.Any(), gomock.Any(), nil).
			DoAndReturn(func(ctx context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
				assert.Equal(t, common.HexToAddress(testToken), *msg.To)
				assert.Equal(t, selector, msg.Data[:4])
				return result, nil
			})
	}

	expectCall("name", tc.packOutput(t, "name", "Wrapped Ether"))
	name, err := tc.client.ERC20Name(ctx, testToken)
	require.NoError(t, err)
	assert.Equal(t, "Wrapped Ether", name)

	expectCall("symbol", tc.packOutput(t, "symbol", "WETH"))
	symbol, err := tc.client.ERC20Symbol(ctx, testToken)
	require.NoError(t, err)
	assert.Equal(t, "WETH", symbol)

	expectCall("totalSupply", tc.packOutput(t, "totalSupply", supply))
	got, err := tc.client.ERC20TotalSupply(ctx, testToken)
	require.NoError(t, err)
	assert.Equal(t, 0, supply.Cmp(got))
}

func TestERC20Calls_Failures(t *testing.T) {
	tc := setupTestClient(t)
	ctx := context.Background()

	// reverted call
	tc.eth.EXPECT().CallContract(gomock.Any(), gomock.Any(), nil).Return(nil, errors.New("execution reverted"))
	_, err := tc.client.ERC20Name(ctx, testToken)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to call name")

	// no code at the address
	tc.eth.EXPECT().CallContract(gomock.Any(), gomock.Any(), nil).Return([]byte{}, nil)
	_, err = tc.client.ERC20Symbol(ctx, testToken)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty result")

	// undecodable output
	tc.eth.EXPECT().CallContract(gomock.Any(), gomock.Any(), nil).Return([]byte{0x01, 0x02}, nil)
	_, err = tc.client.ERC20TotalSupply(ctx, testToken)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to unpack totalSupply")
}
