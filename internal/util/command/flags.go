package command

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/Shahnawazkhan83/crypto-vault/internal/wallet/gas"
	"github.com/Shahnawazkhan83/crypto-vault/internal/wallet/token"
	"github.com/Shahnawazkhan83/crypto-vault/internal/wallet/txbuilder"
)

const (
	SpeedFlag          string = "speed"
	GasLimitFlag       string = "gas-limit"
	GasPriceFlag       string = "gas-price-gwei"
	MaxFeeFlag         string = "max-fee-gwei"
	MaxPriorityFeeFlag string = "max-priority-fee-gwei"

	gweiDecimals = 9
)

// AddressFlag parses a required hex address flag.
func AddressFlag(cmd *cobra.Command, name string) (common.Address, error) {
	raw, _ := cmd.Flags().GetString(name)
	if !common.IsHexAddress(raw) {
		return common.Address{}, errors.Errorf("--%s must be a hex address, got %q", name, raw)
	}

	return common.HexToAddress(raw), nil
}

// OptionalAddressFlag is AddressFlag returning nil when the flag is empty.
func OptionalAddressFlag(cmd *cobra.Command, name string) (*common.Address, error) {
	if raw, _ := cmd.Flags().GetString(name); raw == "" {
		return nil, nil //nolint:nilnil // absent flag
	}

	addr, err := AddressFlag(cmd, name)
	if err != nil {
		return nil, err
	}

	return &addr, nil
}

// AddGasFlags registers the gas policy flags shared by transaction commands.
func AddGasFlags(cmd *cobra.Command) {
	cmd.Flags().String(SpeedFlag, string(gas.SpeedStandard), "Estimation tier: slow, standard or fast")
	cmd.Flags().Uint64(GasLimitFlag, 0, "Manual gas limit, disables estimation")
	cmd.Flags().String(GasPriceFlag, "", "Manual legacy gas price in gwei")
	cmd.Flags().String(MaxFeeFlag, "", "Manual max fee per gas in gwei")
	cmd.Flags().String(MaxPriorityFeeFlag, "", "Manual max priority fee per gas in gwei")
	cmd.MarkFlagsMutuallyExclusive(SpeedFlag, GasLimitFlag)
	cmd.MarkFlagsMutuallyExclusive(GasPriceFlag, MaxFeeFlag)
}

// GasPolicyFromFlags returns ManualGas when --gas-limit is set and EstimatedGas otherwise.
//
//nolint:ireturn // GasPolicy is a closed sum type
func GasPolicyFromFlags(cmd *cobra.Command) (txbuilder.GasPolicy, error) {
	limit, _ := cmd.Flags().GetUint64(GasLimitFlag)
	if limit == 0 {
		raw, _ := cmd.Flags().GetString(SpeedFlag)
		speed, err := gas.ParseSpeed(raw)
		if err != nil {
			return nil, err
		}

		return txbuilder.EstimatedGas{Speed: speed}, nil
	}

	manual := txbuilder.ManualGas{GasLimit: limit}
	for name, dst := range map[string]**big.Int{
		GasPriceFlag:       &manual.GasPrice,
		MaxFeeFlag:         &manual.MaxFeePerGas,
		MaxPriorityFeeFlag: &manual.MaxPriorityFeePerGas,
	} {
		raw, _ := cmd.Flags().GetString(name)
		if raw == "" {
			continue
		}

		wei, err := token.ParseUnits(raw, gweiDecimals)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid --%s", name)
		}
		*dst = wei
	}

	return manual, nil
}
