package wallet_test

import (
	"context"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shahnawazkhan83/crypto-vault/internal/test"
	"github.com/Shahnawazkhan83/crypto-vault/internal/wallet"
	"github.com/Shahnawazkhan83/crypto-vault/internal/wallet/errs"
	"github.com/Shahnawazkhan83/crypto-vault/internal/wallet/gas"
	"github.com/Shahnawazkhan83/crypto-vault/internal/wallet/keystore"
	"github.com/Shahnawazkhan83/crypto-vault/internal/wallet/swap"
	"github.com/Shahnawazkhan83/crypto-vault/internal/wallet/token"
	"github.com/Shahnawazkhan83/crypto-vault/internal/wallet/txbuilder"
)

var usdc = common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")

type fakeQuoter struct {
	requests []*swap.QuoteRequest
}

func (q *fakeQuoter) GetQuote(_ context.Context, req *swap.QuoteRequest) (*swap.Quote, error) {
	q.requests = append(q.requests, req)

	return &swap.Quote{
		To:              common.HexToAddress("0x0000000000001fF3684f28c67538d4D072C22734"),
		Data:            []byte{0x01},
		Value:           new(big.Int),
		ValidTo:         time.Date(2024, 1, 1, 0, 5, 0, 0, time.UTC),
		SellToken:       req.SellToken,
		BuyToken:        req.BuyToken,
		SellAmount:      req.SellAmount,
		BuyAmount:       big.NewInt(1),
		Taker:           req.Taker,
		AllowanceTarget: swap.Permit2Address,
		ChainID:         req.ChainID,
	}, nil
}

type fixture struct {
	*test.VaultFixture

	node    *test.FakeNode
	quoter  *fakeQuoter
	service wallet.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{VaultFixture: test.NewTestVault(t), node: test.NewFakeNode(), quoter: &fakeQuoter{}}

	builder, err := txbuilder.NewService(txbuilder.Config{
		Vault:        f.Vault,
		Node:         f.node,
		Clock:        f.Clock,
		PollInterval: time.Millisecond,
	})
	require.NoError(t, err)

	f.service, err = wallet.NewService(wallet.Deps{
		Vault:    f.Vault,
		Keystore: keystore.NewService(keystore.LightScryptParams()),
		Node:     f.node,
		Builder:  builder,
		Gas:      gas.NewService(f.node, nil),
		Quoter:   f.quoter,
		Clock:    f.Clock,
	})
	require.NoError(t, err)

	return f
}

func TestGenerateAndStoreKey(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	w, err := f.service.GenerateAndStoreKey(ctx, "user-1")
	require.NoError(t, err)

	assert.Equal(t, "user-1", w.OwnerID)
	assert.True(t, strings.HasPrefix(w.KeyPath, "wallet/user-1/"))
	assert.NotEqual(t, common.Address{}, w.Address)

	addr, err := f.service.Address(ctx, w.KeyPath)
	require.NoError(t, err)
	assert.Equal(t, w.Address, addr)

	assert.True(t, f.service.Forget(w.KeyPath))
	assert.False(t, f.service.Forget(w.KeyPath))
}

func TestKeystoreImportExport(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	w, err := f.service.GenerateAndStoreKey(ctx, "user-1")
	require.NoError(t, err)

	doc, err := f.service.ExportKeystore(ctx, w.KeyPath, "correct horse")
	require.NoError(t, err)

	imported, err := f.service.ImportKeystore(ctx, "user-2", doc, "correct horse")
	require.NoError(t, err)
	assert.Equal(t, w.Address, imported.Address)
	assert.NotEqual(t, w.KeyPath, imported.KeyPath)

	_, err = f.service.ImportKeystore(ctx, "user-2", doc, "wrong passphrase")
	assert.True(t, errors.Is(err, errs.ErrDecryption))
}

func TestRotateKeyKeepsAddress(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	w, err := f.service.GenerateAndStoreKey(ctx, "user-1")
	require.NoError(t, err)

	rotated, err := f.service.RotateKey(ctx, w.KeyPath)
	require.NoError(t, err)
	assert.NotEqual(t, w.KeyPath, rotated.KeyPath)
	assert.Equal(t, w.Address, rotated.Address)
	assert.Equal(t, "user-1", rotated.OwnerID)

	_, err = f.service.Address(ctx, w.KeyPath)
	assert.True(t, errors.Is(err, errs.ErrNotFound))
}

func TestEstimateTransferGas(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	w, err := f.service.GenerateAndStoreKey(ctx, "user-1")
	require.NoError(t, err)

	est, err := f.service.EstimateTransferGas(ctx, &wallet.EstimateRequest{
		KeyPath: w.KeyPath,
		To:      common.HexToAddress("0xbb"),
		Amount:  "0.5",
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(25_200), est.GasLimit)
	assert.True(t, est.EIP1559)

	require.Len(t, f.node.Estimated, 1)
	assert.Equal(t, w.Address, f.node.Estimated[0].From)
	assert.Equal(t, "500000000000000000", f.node.Estimated[0].Value.String())
	assert.Empty(t, f.node.SentTransactions())
}

func TestQuoteSwapChecksAllowance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.node.CallData[common.Bytes2Hex(token.DecimalsSelector)] = common.LeftPadBytes([]byte{6}, 32)
	f.node.CallData[common.Bytes2Hex(token.AllowanceSelector)] = common.LeftPadBytes(big.NewInt(500).Bytes(), 32)

	w, err := f.service.GenerateAndStoreKey(ctx, "user-1")
	require.NoError(t, err)

	quote, err := f.service.QuoteSwap(ctx, &wallet.QuoteRequest{
		KeyPath:    w.KeyPath,
		SellToken:  usdc,
		BuyToken:   swap.NativeToken,
		SellAmount: "2.5",
	})
	require.NoError(t, err)

	require.Len(t, f.quoter.requests, 1)
	req := f.quoter.requests[0]
	assert.Equal(t, int64(2_500_000), req.SellAmount.Int64())
	assert.Equal(t, w.Address, req.Taker)
	assert.Equal(t, int64(1), req.ChainID)
	assert.True(t, quote.NeedsAllowance)
}

func TestQuoteSwapNativeSkipsAllowance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	w, err := f.service.GenerateAndStoreKey(ctx, "user-1")
	require.NoError(t, err)

	quote, err := f.service.QuoteSwap(ctx, &wallet.QuoteRequest{
		KeyPath:    w.KeyPath,
		SellToken:  swap.NativeToken,
		BuyToken:   usdc,
		SellAmount: "1",
	})
	require.NoError(t, err)

	assert.False(t, quote.NeedsAllowance)
	assert.Empty(t, f.node.Called)
	assert.Equal(t, "1000000000000000000", f.quoter.requests[0].SellAmount.String())
}

func TestChainOperationsRequireNode(t *testing.T) {
	test.WithTestVault(t, func(v *test.VaultFixture) {
		service, err := wallet.NewService(wallet.Deps{Vault: v.Vault})
		require.NoError(t, err)

		_, err = service.Transfer(context.Background(), &txbuilder.TransferRequest{KeyPath: "wallet/a/b"})
		assert.True(t, errors.Is(err, errs.ErrBackendUnavailable))

		_, err = service.QuoteSwap(context.Background(), &wallet.QuoteRequest{})
		assert.True(t, errors.Is(err, errs.ErrBackendUnavailable))
	})
}

func TestBalancesAreCachedUntilExpiry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.node.Balance = big.NewInt(1_500_000_000_000_000_000)
	f.node.CallData[common.Bytes2Hex(token.DecimalsSelector)] = common.LeftPadBytes([]byte{6}, 32)
	f.node.CallData[common.Bytes2Hex(token.BalanceOfSelector)] = common.LeftPadBytes(big.NewInt(2_500_000).Bytes(), 32)

	w, err := f.service.GenerateAndStoreKey(ctx, "user-1")
	require.NoError(t, err)

	balances, err := f.service.Balances(ctx, w.KeyPath, []common.Address{usdc, swap.NativeToken})
	require.NoError(t, err)
	require.Len(t, balances, 2)

	assert.Nil(t, balances[0].Token)
	assert.Equal(t, uint8(18), balances[0].Decimals)
	assert.Equal(t, "1.5", balances[0].Amount)
	require.NotNil(t, balances[1].Token)
	assert.Equal(t, usdc, *balances[1].Token)
	assert.Equal(t, uint8(6), balances[1].Decimals)
	assert.Equal(t, "2.5", balances[1].Amount)
	assert.Empty(t, balances[1].Error)

	calls := f.node.Calls()
	f.node.Balance = big.NewInt(0)

	cached, err := f.service.Balances(ctx, w.KeyPath, []common.Address{usdc})
	require.NoError(t, err)
	assert.Equal(t, balances, cached)
	assert.Equal(t, calls, f.node.Calls())

	f.Clock.Advance(wallet.DefaultBalanceTTL + time.Second)

	fresh, err := f.service.Balances(ctx, w.KeyPath, []common.Address{usdc})
	require.NoError(t, err)
	assert.Equal(t, "0", fresh[0].Amount)
	// Native balance and balanceOf again; token decimals stay cached.
	assert.Equal(t, calls+2, f.node.Calls())
}

func TestBalancesReportFailedTokenWithoutCaching(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	w, err := f.service.GenerateAndStoreKey(ctx, "user-1")
	require.NoError(t, err)

	// No decimals answer scripted, so the token lookup fails.
	balances, err := f.service.Balances(ctx, w.KeyPath, []common.Address{usdc})
	require.NoError(t, err)
	require.Len(t, balances, 2)
	assert.Empty(t, balances[0].Error)
	assert.Equal(t, "0", balances[1].Amount)
	assert.NotEmpty(t, balances[1].Error)

	f.node.CallData[common.Bytes2Hex(token.DecimalsSelector)] = common.LeftPadBytes([]byte{6}, 32)
	f.node.CallData[common.Bytes2Hex(token.BalanceOfSelector)] = common.LeftPadBytes(big.NewInt(7_000_000).Bytes(), 32)

	balances, err = f.service.Balances(ctx, w.KeyPath, []common.Address{usdc})
	require.NoError(t, err)
	assert.Equal(t, "7", balances[1].Amount)
	assert.Empty(t, balances[1].Error)
}

func TestBalancesUnknownPath(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Balances(context.Background(), "wallet/user-1/missing", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrNotFound))
}
