package txbuilder

import (
	"context"
	"math/big"

	"github.com/Shahnawazkhan83/crypto-vault/internal/wallet/errs"
	"github.com/Shahnawazkhan83/crypto-vault/internal/wallet/gas"
)

// GasPolicy is either EstimatedGas or ManualGas.
type GasPolicy interface {
	gasPolicy()
}

// EstimatedGas asks the estimator for limit and fees at Speed.
type EstimatedGas struct {
	Speed gas.Speed
}

// ManualGas uses caller supplied values. Exactly one fee model must be set.
type ManualGas struct {
	GasLimit             uint64
	GasPrice             *big.Int
	MaxFeePerGas         *big.Int
	MaxPriorityFeePerGas *big.Int
}

func (EstimatedGas) gasPolicy() {}
func (ManualGas) gasPolicy() {}

func (m ManualGas) validate() error {
	if m.GasLimit == 0 {
		return errs.New(errs.KindInvalidRequest, "manual gas limit must be positive")
	}

	dynamic := m.MaxFeePerGas != nil || m.MaxPriorityFeePerGas != nil
	switch {
	case dynamic && m.GasPrice != nil:
		return errs.New(errs.KindInvalidRequest, "set either gas price or dynamic fees, not both")
	case dynamic && (m.MaxFeePerGas == nil || m.MaxPriorityFeePerGas == nil):
		return errs.New(errs.KindInvalidRequest, "dynamic fees need both max fee and priority fee")
	case dynamic && m.MaxPriorityFeePerGas.Cmp(m.MaxFeePerGas) > 0:
		return errs.New(errs.KindInvalidRequest, "priority fee exceeds max fee")
	case !dynamic && m.GasPrice == nil:
		return errs.New(errs.KindInvalidRequest, "manual gas needs a gas price or dynamic fees")
	}

	for _, v := range []*big.Int{m.GasPrice, m.MaxFeePerGas, m.MaxPriorityFeePerGas} {
		if v != nil && v.Sign() < 0 {
			return errs.New(errs.KindInvalidRequest, "fees must not be negative")
		}
	}

	return nil
}

// fees is the resolved gas configuration of one transaction.
type fees struct {
	gasLimit             uint64
	gasPrice             *big.Int
	maxFeePerGas         *big.Int
	maxPriorityFeePerGas *big.Int
}

func (f *fees) eip1559() bool {
	return f.maxFeePerGas != nil && f.maxPriorityFeePerGas != nil
}

func (s *service) resolveGas(ctx context.Context, call *gas.Call, policy GasPolicy) (*fees, error) {
	if policy == nil {
		policy = EstimatedGas{Speed: gas.SpeedStandard}
	}

	switch p := policy.(type) {
	case ManualGas:
		if err := p.validate(); err != nil {
			return nil, err
		}
		return &fees{
			gasLimit:             p.GasLimit,
			gasPrice:             p.GasPrice,
			maxFeePerGas:         p.MaxFeePerGas,
			maxPriorityFeePerGas: p.MaxPriorityFeePerGas,
		}, nil
	case EstimatedGas:
		speed := p.Speed
		if speed == "" {
			speed = gas.SpeedStandard
		}
		est, err := s.gas.Estimate(ctx, call, speed)
		if err != nil {
			return nil, err
		}
		f := &fees{gasLimit: est.GasLimit}
		if est.EIP1559 {
			f.maxFeePerGas = est.MaxFeePerGas
			f.maxPriorityFeePerGas = est.MaxPriorityFeePerGas
		} else {
			f.gasPrice = est.GasPrice
		}
		return f, nil
	default:
		return nil, errs.New(errs.KindInvalidRequest, "unsupported gas policy %T", policy)
	}
}
