package txbuilder_test

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shahnawazkhan83/crypto-vault/internal/test"
	"github.com/Shahnawazkhan83/crypto-vault/internal/wallet/errs"
	"github.com/Shahnawazkhan83/crypto-vault/internal/wallet/signer"
	"github.com/Shahnawazkhan83/crypto-vault/internal/wallet/swap"
	"github.com/Shahnawazkhan83/crypto-vault/internal/wallet/txbuilder"
)

func newQuote(f *fixture) *swap.Quote {
	return &swap.Quote{
		To:         router,
		Data:       []byte{0xca, 0xfe, 0xba, 0xbe},
		Value:      big.NewInt(0),
		ValidTo:    f.Clock.Now().Add(5 * time.Minute),
		SellToken:  usdc,
		BuyToken:   swap.NativeToken,
		SellAmount: big.NewInt(1_000_000),
		BuyAmount:  big.NewInt(300_000_000_000_000),
		Taker:      f.from,
		ChainID:    1,
	}
}

func TestExecuteSwapExpiredQuoteMakesNoCalls(t *testing.T) {
	node := test.NewFakeNode()
	f := newFixture(t, node)
	quote := newQuote(f)
	encrypts, decrypts := f.KMS.Calls()

	f.Clock.Advance(5*time.Minute + time.Second)
	_, err := f.builder.ExecuteSwap(context.Background(), &txbuilder.SwapRequest{KeyPath: f.keyPath, Quote: quote})

	assert.True(t, errors.Is(err, errs.ErrExpiredQuote))
	assert.Equal(t, 0, node.Calls())
	e, d := f.KMS.Calls()
	assert.Equal(t, encrypts, e)
	assert.Equal(t, decrypts, d)
}

func TestExecuteSwapExpiredQuoteBeforeKeyLookup(t *testing.T) {
	f := newFixture(t, test.NewFakeNode())
	quote := newQuote(f)
	quote.ValidTo = f.Clock.Now()

	_, err := f.builder.ExecuteSwap(context.Background(), &txbuilder.SwapRequest{KeyPath: "wallet/nobody/x", Quote: quote})
	assert.True(t, errors.Is(err, errs.ErrExpiredQuote))
}

func TestExecuteSwapQuoteWithoutDeadlineIsInvalid(t *testing.T) {
	node := test.NewFakeNode()
	f := newFixture(t, node)
	quote := newQuote(f)
	quote.ValidTo = time.Time{}

	_, err := f.builder.ExecuteSwap(context.Background(), &txbuilder.SwapRequest{KeyPath: f.keyPath, Quote: quote})
	assert.True(t, errors.Is(err, errs.ErrInvalidRequest))
	assert.False(t, errors.Is(err, errs.ErrExpiredQuote))
	assert.Equal(t, 0, node.Calls())
}

func TestExecuteSwapWithoutFeeDataIsEstimationError(t *testing.T) {
	node := test.NewFakeNode()
	node.Gas = 200_000
	node.NoFees = true
	f := newFixture(t, node)

	_, err := f.builder.ExecuteSwap(context.Background(), &txbuilder.SwapRequest{KeyPath: f.keyPath, Quote: newQuote(f)})
	assert.True(t, errors.Is(err, errs.ErrEstimation))
	assert.Empty(t, node.SentTransactions())
}

func TestExecuteSwapAppendsPermitSignature(t *testing.T) {
	node := test.NewFakeNode()
	node.Gas = 200_000
	f := newFixture(t, node)
	quote := newQuote(f)
	quote.Permit = test.NewPermit(t)

	res, err := f.builder.ExecuteSwap(context.Background(), &txbuilder.SwapRequest{KeyPath: f.keyPath, Quote: quote})
	require.NoError(t, err)

	assert.Equal(t, txbuilder.StatusPending, res.Status)
	assert.Equal(t, usdc, res.SellToken)
	assert.Equal(t, swap.NativeToken, res.BuyToken)
	assert.Equal(t, uint64(240_000), res.GasLimit)
	assert.Equal(t, gwei(50), res.MaxFeePerGas)
	assert.Equal(t, gwei(2), res.MaxPriorityFeePerGas)

	tx := node.SentTransactions()[0]
	data := tx.Data()
	require.Len(t, data, len(quote.Data)+32+65)
	assert.Equal(t, []byte(quote.Data), data[:len(quote.Data)])
	assert.Equal(t, common.LeftPadBytes([]byte{65}, 32), data[len(quote.Data):len(quote.Data)+32])

	sig := data[len(quote.Data)+32:]
	recovered, err := signer.RecoverTypedDataSigner(quote.Permit, sig)
	require.NoError(t, err)
	assert.Equal(t, f.from, recovered)
	assert.Equal(t, f.from, sender(t, tx))

	require.Len(t, node.Estimated, 1)
	assert.Equal(t, data, node.Estimated[0].Data, "estimate must cover the exact calldata")
	assert.Equal(t, []byte{0xca, 0xfe, 0xba, 0xbe}, []byte(quote.Data), "quote must not be mutated")
}

func TestExecuteSwapWithoutPermitUsesQuoteData(t *testing.T) {
	node := test.NewLegacyFakeNode()
	f := newFixture(t, node)
	quote := newQuote(f)
	quote.Value = big.NewInt(42)

	res, err := f.builder.ExecuteSwap(context.Background(), &txbuilder.SwapRequest{KeyPath: f.keyPath, Quote: quote})
	require.NoError(t, err)

	assert.Equal(t, gwei(30), res.GasPrice)
	assert.Nil(t, res.MaxFeePerGas)

	tx := node.SentTransactions()[0]
	assert.Equal(t, []byte(quote.Data), tx.Data())
	assert.Equal(t, int64(42), tx.Value().Int64())
	assert.Equal(t, router, *tx.To())
}

func TestExecuteSwapRejectsBadQuotes(t *testing.T) {
	tests := map[string]func(q *swap.Quote){
		"foreign taker": func(q *swap.Quote) { q.Taker = common.HexToAddress("0xdd") },
		"no calldata":   func(q *swap.Quote) { q.Data = nil },
		"other chain":   func(q *swap.Quote) { q.ChainID = 137 },
	}

	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			node := test.NewFakeNode()
			f := newFixture(t, node)
			quote := newQuote(f)
			mutate(quote)

			_, err := f.builder.ExecuteSwap(context.Background(), &txbuilder.SwapRequest{KeyPath: f.keyPath, Quote: quote})
			assert.True(t, errors.Is(err, errs.ErrInvalidRequest))
			assert.Empty(t, node.SentTransactions())
		})
	}
}

func TestExecuteSwapEstimationFailure(t *testing.T) {
	node := test.NewFakeNode()
	node.EstimateErr = errors.New("execution reverted")
	f := newFixture(t, node)

	_, err := f.builder.ExecuteSwap(context.Background(), &txbuilder.SwapRequest{KeyPath: f.keyPath, Quote: newQuote(f)})
	assert.True(t, errors.Is(err, errs.ErrEstimation))
	assert.Empty(t, node.SentTransactions())
}
