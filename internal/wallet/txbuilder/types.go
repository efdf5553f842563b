// Package txbuilder assembles, signs and submits transfers, approvals and swaps using
// keys held by the vault.
package txbuilder

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Shahnawazkhan83/crypto-vault/internal/wallet/gas"
	"github.com/Shahnawazkhan83/crypto-vault/internal/wallet/swap"
)

// Status of a submitted transaction.
type Status string

const (
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// Service builds and submits transactions. Each call submits at most one transaction and
// never retries.
type Service interface {
	Transfer(ctx context.Context, req *TransferRequest) (*Result, error)
	ApproveSpender(ctx context.Context, req *ApproveRequest) (*Result, error)
	ExecuteSwap(ctx context.Context, req *SwapRequest) (*SwapResult, error)
	Allowance(ctx context.Context, token common.Address, owner common.Address, spender common.Address) (*big.Int, error)
	// PrepareTransfer builds the call a transfer would make, for estimation.
	PrepareTransfer(ctx context.Context, from common.Address, to common.Address, amount string, token *common.Address) (*gas.Call, error)
	TokenDecimals(ctx context.Context, token common.Address) (uint8, error)
}

// TransferRequest moves Amount, a decimal string in whole units, of the native currency or
// of Token to To.
type TransferRequest struct {
	KeyPath string
	To      common.Address
	Amount  string
	Token   *common.Address
	Gas     GasPolicy // nil estimates at standard speed
}

// ApproveRequest grants Spender an unlimited allowance on Token.
type ApproveRequest struct {
	KeyPath string
	Token   common.Address
	Spender *common.Address // nil means the Permit2 contract
	Gas     GasPolicy
}

// SwapRequest executes a previously fetched quote.
type SwapRequest struct {
	KeyPath string
	Quote   *swap.Quote
}

// Result describes a submitted transaction.
type Result struct {
	Hash                 common.Hash     `json:"transactionHash"`
	From                 common.Address  `json:"from"`
	To                   common.Address  `json:"to"`
	Amount               string          `json:"amount,omitempty"`
	Token                *common.Address `json:"token,omitempty"`
	Spender              *common.Address `json:"spender,omitempty"`
	Status               Status          `json:"status"`
	Nonce                uint64          `json:"nonce"`
	GasLimit             uint64          `json:"gasLimit"`
	GasPrice             *big.Int        `json:"gasPrice,omitempty"`
	MaxFeePerGas         *big.Int        `json:"maxFeePerGas,omitempty"`
	MaxPriorityFeePerGas *big.Int        `json:"maxPriorityFeePerGas,omitempty"`
}

// SwapResult adds both swap legs to Result.
type SwapResult struct {
	Result

	SellToken  common.Address `json:"sellToken"`
	BuyToken   common.Address `json:"buyToken"`
	SellAmount *big.Int       `json:"sellAmount"`
	BuyAmount  *big.Int       `json:"buyAmount"`
}
