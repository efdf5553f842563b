// Package chain is the node access layer used by gas estimation and transaction building.
package chain

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Node is the subset of JSON-RPC the signing pipeline consumes.
type Node interface {
	ChainID(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	FeeData(ctx context.Context) (*FeeData, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	// BalanceAt returns the native balance of account, in wei, at the latest block.
	BalanceAt(ctx context.Context, account common.Address) (*big.Int, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg) ([]byte, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	// TransactionReceipt returns ethereum.NotFound while the transaction is unmined.
	TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error)
}

// FeeData is the node's current fee suggestion. MaxFeePerGas and MaxPriorityFeePerGas are
// both nil on networks without a base fee.
type FeeData struct {
	GasPrice             *big.Int
	MaxFeePerGas         *big.Int
	MaxPriorityFeePerGas *big.Int
}

// EIP1559 reports whether the dynamic fee fields are present.
func (f *FeeData) EIP1559() bool {
	return f != nil && f.MaxFeePerGas != nil && f.MaxPriorityFeePerGas != nil
}
