package txbuilder

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"

	"github.com/Shahnawazkhan83/crypto-vault/internal/wallet/errs"
	"github.com/Shahnawazkhan83/crypto-vault/internal/wallet/gas"
	"github.com/Shahnawazkhan83/crypto-vault/internal/wallet/signer"
)

// swapGasBufferPercent pads the router's gas estimate.
const swapGasBufferPercent = 120

func (s *service) ExecuteSwap(ctx context.Context, req *SwapRequest) (*SwapResult, error) {
	res, err := s.executeSwap(ctx, req)
	s.observe(opSwap, err)

	return res, err
}

func (s *service) executeSwap(ctx context.Context, req *SwapRequest) (*SwapResult, error) {
	if req == nil || req.Quote == nil {
		return nil, errs.New(errs.KindInvalidRequest, "quote is required")
	}
	if req.KeyPath == "" {
		return nil, errs.New(errs.KindInvalidRequest, "key path is required")
	}

	quote := req.Quote
	// Checked before any key access or network call.
	if quote.ValidTo.IsZero() {
		return nil, errs.New(errs.KindInvalidRequest, "quote has no deadline")
	}
	if quote.Expired(s.clock.Now()) {
		return nil, errs.New(errs.KindExpiredQuote, "quote expired")
	}

	key, err := s.loadKey(ctx, req.KeyPath)
	if err != nil {
		return nil, err
	}
	from := signer.Address(key)

	if err := quote.Validate(s.clock.Now(), from); err != nil {
		return nil, err
	}

	data := common.CopyBytes(quote.Data)
	if quote.Permit != nil {
		sig, err := signer.SignTypedData(quote.Permit, key)
		if err != nil {
			return nil, errs.Wrap(errs.KindInvalidRequest, err, "failed to sign permit")
		}
		data = signer.AppendSignature(data, sig)
		clear(sig)
	}

	call := &gas.Call{From: from, To: quote.To, Value: quote.TxValue(), Data: data}

	chainID, err := s.node.ChainID(ctx)
	if err != nil {
		return nil, errs.Wrap(errs.KindEstimation, err, "failed to read chain id")
	}
	if quote.ChainID != 0 && chainID.Cmp(big.NewInt(quote.ChainID)) != 0 {
		return nil, errs.New(errs.KindInvalidRequest, "quote is for chain %d, node is on %s", quote.ChainID, chainID)
	}

	f, err := s.swapFees(ctx, call)
	if err != nil {
		return nil, err
	}

	res, err := s.signAndSend(ctx, key, call, f)
	if err != nil {
		return nil, err
	}

	return &SwapResult{
		Result:     *res,
		SellToken:  quote.SellToken,
		BuyToken:   quote.BuyToken,
		SellAmount: quote.SellAmount,
		BuyAmount:  quote.BuyAmount,
	}, nil
}

// swapFees estimates the exact swap call with a fixed buffer and uses the node's fee data
// as reported.
func (s *service) swapFees(ctx context.Context, call *gas.Call) (*fees, error) {
	to := call.To
	estimate, err := s.node.EstimateGas(ctx, ethereum.CallMsg{
		From:  call.From,
		To:    &to,
		Value: call.Value,
		Data:  call.Data,
	})
	if err != nil {
		return nil, errs.Wrap(errs.KindEstimation, err, "node rejected swap gas estimate")
	}

	feeData, err := s.node.FeeData(ctx)
	if err != nil {
		return nil, errs.Wrap(errs.KindEstimation, err, "failed to read fee data")
	}

	f := &fees{gasLimit: estimate * swapGasBufferPercent / 100}
	switch {
	case feeData.EIP1559():
		f.maxFeePerGas = feeData.MaxFeePerGas
		f.maxPriorityFeePerGas = feeData.MaxPriorityFeePerGas
		f.gasPrice = feeData.GasPrice
	case feeData != nil && feeData.GasPrice != nil:
		f.gasPrice = feeData.GasPrice
	default:
		return nil, errs.New(errs.KindEstimation, "node reported no fee data")
	}

	return f, nil
}
