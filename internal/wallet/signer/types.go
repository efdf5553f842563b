// Package signer produces signed transactions and EIP-712 signatures from a decrypted key.
// Callers own the key and must zero it after use.
package signer

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// TxRequest is a fully assembled transaction. Exactly one fee model is set: GasPrice for
// legacy, or MaxFeePerGas plus MaxPriorityFeePerGas for EIP-1559.
type TxRequest struct {
	ChainID              *big.Int
	Nonce                uint64
	From                 common.Address // optional; checked against the key when set
	To                   common.Address
	Value                *big.Int
	Data                 []byte
	GasLimit             uint64
	GasPrice             *big.Int
	MaxFeePerGas         *big.Int
	MaxPriorityFeePerGas *big.Int
}

// EIP1559 reports whether the request uses dynamic fees.
func (r *TxRequest) EIP1559() bool {
	return r.MaxFeePerGas != nil && r.MaxPriorityFeePerGas != nil
}

// Signed is a signed transaction ready for submission.
type Signed struct {
	Tx   *types.Transaction
	Raw  []byte // binary encoding; never logged
	Hash common.Hash
}
