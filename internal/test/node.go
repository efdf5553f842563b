package test

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/Shahnawazkhan83/crypto-vault/internal/wallet/chain"
)

// FakeNode is a scriptable chain.Node. Every method is counted so tests can assert that
// an operation made no network calls at all.
type FakeNode struct {
	mu sync.Mutex

	ID       *big.Int
	Gas      uint64
	Fees     chain.FeeData
	Nonce    uint64
	Balance  *big.Int
	CallData map[string][]byte // keyed by 4-byte selector hex

	// NoFees makes FeeData answer (nil, nil), as a misbehaving node might.
	NoFees bool

	EstimateErr error
	FeeErr      error
	SendErr     error

	// PendingPolls is the number of receipt polls answered with ethereum.NotFound.
	PendingPolls  int
	ReceiptStatus uint64

	calls     int
	Estimated []ethereum.CallMsg
	Called    []ethereum.CallMsg
	Sent      []*types.Transaction
}

var _ chain.Node = (*FakeNode)(nil)

// NewFakeNode returns an EIP-1559 node on chain id 1 that estimates 21000 gas.
func NewFakeNode() *FakeNode {
	return &FakeNode{
		ID:  big.NewInt(1),
		Gas: 21000,
		Fees: chain.FeeData{
			GasPrice:             big.NewInt(30_000_000_000),
			MaxFeePerGas:         big.NewInt(50_000_000_000),
			MaxPriorityFeePerGas: big.NewInt(2_000_000_000),
		},
		Balance:       big.NewInt(0),
		CallData:      map[string][]byte{},
		ReceiptStatus: types.ReceiptStatusSuccessful,
	}
}

// NewLegacyFakeNode returns a node reporting only a legacy gas price.
func NewLegacyFakeNode() *FakeNode {
	n := NewFakeNode()
	n.Fees = chain.FeeData{GasPrice: big.NewInt(30_000_000_000)}

	return n
}

// Calls returns the total number of Node method invocations.
func (n *FakeNode) Calls() int {
	n.mu.Lock()
	defer n.mu.Unlock()

	return n.calls
}

// SentTransactions returns a copy of the submitted transactions.
func (n *FakeNode) SentTransactions() []*types.Transaction {
	n.mu.Lock()
	defer n.mu.Unlock()

	return append([]*types.Transaction(nil), n.Sent...)
}

func (n *FakeNode) ChainID(context.Context) (*big.Int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.calls++
	return new(big.Int).Set(n.ID), nil
}

func (n *FakeNode) EstimateGas(_ context.Context, msg ethereum.CallMsg) (uint64, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.calls++
	n.Estimated = append(n.Estimated, msg)
	if n.EstimateErr != nil {
		return 0, n.EstimateErr
	}

	return n.Gas, nil
}

func (n *FakeNode) FeeData(context.Context) (*chain.FeeData, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.calls++
	if n.FeeErr != nil {
		return nil, n.FeeErr
	}
	if n.NoFees {
		return nil, nil //nolint:nilnil // scripted misbehaviour
	}

	return &chain.FeeData{
		GasPrice:             copyBig(n.Fees.GasPrice),
		MaxFeePerGas:         copyBig(n.Fees.MaxFeePerGas),
		MaxPriorityFeePerGas: copyBig(n.Fees.MaxPriorityFeePerGas),
	}, nil
}

func (n *FakeNode) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.calls++
	return n.Nonce, nil
}

func (n *FakeNode) BalanceAt(context.Context, common.Address) (*big.Int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.calls++
	return copyBig(n.Balance), nil
}

func (n *FakeNode) CallContract(_ context.Context, msg ethereum.CallMsg) ([]byte, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.calls++
	n.Called = append(n.Called, msg)
	if len(msg.Data) < 4 {
		return nil, nil
	}

	return n.CallData[common.Bytes2Hex(msg.Data[:4])], nil
}

func (n *FakeNode) SendTransaction(_ context.Context, tx *types.Transaction) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.calls++
	if n.SendErr != nil {
		return n.SendErr
	}
	n.Sent = append(n.Sent, tx)
	n.Nonce++

	return nil
}

func (n *FakeNode) TransactionReceipt(_ context.Context, hash common.Hash) (*types.Receipt, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.calls++
	if n.PendingPolls > 0 {
		n.PendingPolls--
		return nil, ethereum.NotFound
	}

	return &types.Receipt{TxHash: hash, Status: n.ReceiptStatus}, nil
}

func copyBig(v *big.Int) *big.Int {
	if v == nil {
		return nil
	}

	return new(big.Int).Set(v)
}
