package gas

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"

	"github.com/Shahnawazkhan83/crypto-vault/internal/metrics"
	"github.com/Shahnawazkhan83/crypto-vault/internal/util"
	"github.com/Shahnawazkhan83/crypto-vault/internal/wallet/chain"
	"github.com/Shahnawazkhan83/crypto-vault/internal/wallet/errs"
	"github.com/Shahnawazkhan83/crypto-vault/internal/wallet/token"
)

// tier holds percentages applied to the raw gas estimate and to the node's fee data.
type tier struct {
	limitPercent int64
	feePercent   int64
}

var tiers = map[Speed]tier{
	SpeedSlow:     {limitPercent: 110, feePercent: 80},
	SpeedStandard: {limitPercent: 120, feePercent: 100},
	SpeedFast:     {limitPercent: 140, feePercent: 130},
}

// ParseSpeed validates a user supplied tier name. Empty means standard.
func ParseSpeed(s string) (Speed, error) {
	if s == "" {
		return SpeedStandard, nil
	}
	if _, ok := tiers[Speed(s)]; !ok {
		return "", errs.New(errs.KindInvalidRequest, "unknown gas speed %q", s)
	}

	return Speed(s), nil
}

type service struct {
	node    chain.Node
	metrics *metrics.Service
}

// NewService creates a gas estimator reading from node.
//
//nolint:ireturn // Returning interface is intentional for dependency injection
func NewService(node chain.Node, m *metrics.Service) Service {
	return &service{node: node, metrics: m}
}

func (s *service) Estimate(ctx context.Context, call *Call, speed Speed) (*Estimation, error) {
	t, ok := tiers[speed]
	if !ok {
		return nil, errs.New(errs.KindInvalidRequest, "unknown gas speed %q", speed)
	}
	if call == nil {
		return nil, errs.New(errs.KindInvalidRequest, "call is required")
	}

	to := call.To
	raw, err := s.node.EstimateGas(ctx, ethereum.CallMsg{
		From:  call.From,
		To:    &to,
		Value: call.Value,
		Data:  call.Data,
	})
	if err != nil {
		return nil, errs.Wrap(errs.KindEstimation, err, "node rejected gas estimate")
	}

	fees, err := s.node.FeeData(ctx)
	if err != nil {
		return nil, errs.Wrap(errs.KindEstimation, err, "failed to read fee data")
	}
	if fees == nil {
		return nil, errs.New(errs.KindEstimation, "node reported no fee data")
	}

	est := &Estimation{GasLimit: raw * uint64(t.limitPercent) / 100}
	limit := new(big.Int).SetUint64(est.GasLimit)

	switch {
	case fees.EIP1559():
		est.EIP1559 = true
		est.MaxFeePerGas = percent(fees.MaxFeePerGas, t.feePercent)
		est.MaxPriorityFeePerGas = percent(fees.MaxPriorityFeePerGas, t.feePercent)
		if fees.GasPrice != nil {
			est.GasPrice = percent(fees.GasPrice, t.feePercent)
		}
		est.EstimatedFee = new(big.Int).Mul(limit, est.MaxFeePerGas)
	case fees.GasPrice != nil:
		est.GasPrice = percent(fees.GasPrice, t.feePercent)
		est.EstimatedFee = new(big.Int).Mul(limit, est.GasPrice)
	default:
		return nil, errs.New(errs.KindEstimation, "node reported no fee data")
	}
	est.EstimatedFeeEther = token.FormatUnits(est.EstimatedFee, token.NativeDecimals)

	s.metrics.GasEstimated(string(speed), est.EIP1559)
	util.LogFromContext(ctx).Debug().
		Str("speed", string(speed)).
		Uint64("raw_gas", raw).
		Uint64("gas_limit", est.GasLimit).
		Bool("eip1559", est.EIP1559).
		Str("fee", est.EstimatedFeeEther).
		Msg("Estimated gas")

	return est, nil
}

func percent(v *big.Int, p int64) *big.Int {
	out := new(big.Int).Mul(v, big.NewInt(p))
	return out.Div(out, big.NewInt(100))
}
