// Package gas estimates gas limits and fees for a call at one of three speed tiers.
package gas

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Speed selects how aggressively limits and fees are padded.
type Speed string

const (
	SpeedSlow     Speed = "slow"
	SpeedStandard Speed = "standard"
	SpeedFast     Speed = "fast"
)

// Call is the exact transaction to be estimated.
type Call struct {
	From  common.Address
	To    common.Address
	Value *big.Int
	Data  []byte
}

// Estimation is a padded gas limit plus scaled fees for one fee model. On legacy networks
// MaxFeePerGas and MaxPriorityFeePerGas are nil.
type Estimation struct {
	GasLimit             uint64   `json:"gasLimit"`
	GasPrice             *big.Int `json:"gasPrice,omitempty"`
	MaxFeePerGas         *big.Int `json:"maxFeePerGas,omitempty"`
	MaxPriorityFeePerGas *big.Int `json:"maxPriorityFeePerGas,omitempty"`
	EstimatedFee         *big.Int `json:"estimatedFee"`
	EstimatedFeeEther    string   `json:"estimatedFeeEther"`
	EIP1559              bool     `json:"eip1559"`
}

// Service estimates calls against a node.
type Service interface {
	Estimate(ctx context.Context, call *Call, speed Speed) (*Estimation, error)
}
