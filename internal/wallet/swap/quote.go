// Package swap models aggregator quotes and fetches them from the 0x permit2 API.
package swap

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	"github.com/Shahnawazkhan83/crypto-vault/internal/wallet/errs"
)

// NativeToken is the aggregator's placeholder address for the chain's native currency.
var NativeToken = common.HexToAddress("0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE")

// Quote is an executable swap offer. It comes from an untrusted source and is checked
// with Validate before anything is signed.
type Quote struct {
	To              common.Address      `json:"to"`
	Data            hexutil.Bytes       `json:"data"`
	Value           *big.Int            `json:"value"`
	Permit          *apitypes.TypedData `json:"permit,omitempty"`
	ValidTo         time.Time           `json:"validTo"`
	SellToken       common.Address      `json:"sellToken"`
	BuyToken        common.Address      `json:"buyToken"`
	SellAmount      *big.Int            `json:"sellAmount"`
	BuyAmount       *big.Int            `json:"buyAmount"`
	Taker           common.Address      `json:"taker"`
	AllowanceTarget common.Address      `json:"allowanceTarget"`
	ChainID         int64               `json:"chainId,omitempty"`
	// NeedsAllowance is set by the caller after checking the taker's token allowance.
	NeedsAllowance bool `json:"needsAllowance"`
}

// Expired reports whether the quote's deadline has passed at now. A quote without a
// deadline is malformed rather than expired and reports false; Validate rejects it.
func (q *Quote) Expired(now time.Time) bool {
	return !q.ValidTo.IsZero() && !now.Before(q.ValidTo)
}

// Validate checks the deadline and the fields needed to build the swap transaction. An
// expired quote yields ErrExpiredQuote, any other defect ErrInvalidRequest. A non-zero
// taker must match the quote's taker.
func (q *Quote) Validate(now time.Time, taker common.Address) error {
	if q == nil {
		return errs.New(errs.KindInvalidRequest, "quote is required")
	}
	if q.ValidTo.IsZero() {
		return errs.New(errs.KindInvalidRequest, "quote has no deadline")
	}
	if q.Expired(now) {
		return errs.New(errs.KindExpiredQuote, "quote expired at %s", q.ValidTo.UTC().Format(time.RFC3339))
	}
	if q.To == (common.Address{}) {
		return errs.New(errs.KindInvalidRequest, "quote has no target contract")
	}
	if len(q.Data) == 0 {
		return errs.New(errs.KindInvalidRequest, "quote has no calldata")
	}
	if q.Value != nil && q.Value.Sign() < 0 {
		return errs.New(errs.KindInvalidRequest, "quote value is negative")
	}
	if taker != (common.Address{}) && q.Taker != (common.Address{}) && q.Taker != taker {
		return errs.New(errs.KindInvalidRequest, "quote was issued for taker %s", q.Taker.Hex())
	}

	return nil
}

// TxValue returns the native value to send, zero when absent.
func (q *Quote) TxValue() *big.Int {
	if q.Value == nil {
		return new(big.Int)
	}

	return new(big.Int).Set(q.Value)
}
