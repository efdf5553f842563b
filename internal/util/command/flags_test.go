package command_test

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shahnawazkhan83/crypto-vault/internal/util/command"
	"github.com/Shahnawazkhan83/crypto-vault/internal/wallet/gas"
	"github.com/Shahnawazkhan83/crypto-vault/internal/wallet/txbuilder"
)

func newGasCommand(t *testing.T, args ...string) *cobra.Command {
	t.Helper()

	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().String("to", "", "")
	command.AddGasFlags(cmd)
	require.NoError(t, cmd.ParseFlags(args))

	return cmd
}

func TestGasPolicyFromFlagsEstimated(t *testing.T) {
	policy, err := command.GasPolicyFromFlags(newGasCommand(t, "--speed", "fast"))
	require.NoError(t, err)
	assert.Equal(t, txbuilder.EstimatedGas{Speed: gas.SpeedFast}, policy)

	policy, err = command.GasPolicyFromFlags(newGasCommand(t))
	require.NoError(t, err)
	assert.Equal(t, txbuilder.EstimatedGas{Speed: gas.SpeedStandard}, policy)

	_, err = command.GasPolicyFromFlags(newGasCommand(t, "--speed", "ludicrous"))
	assert.Error(t, err)
}

func TestGasPolicyFromFlagsManual(t *testing.T) {
	policy, err := command.GasPolicyFromFlags(newGasCommand(t,
		"--gas-limit", "60000",
		"--max-fee-gwei", "40.5",
		"--max-priority-fee-gwei", "1.5",
	))
	require.NoError(t, err)

	manual, ok := policy.(txbuilder.ManualGas)
	require.True(t, ok)
	assert.Equal(t, uint64(60_000), manual.GasLimit)
	assert.Nil(t, manual.GasPrice)
	assert.Equal(t, "40500000000", manual.MaxFeePerGas.String())
	assert.Equal(t, "1500000000", manual.MaxPriorityFeePerGas.String())

	_, err = command.GasPolicyFromFlags(newGasCommand(t, "--gas-limit", "60000", "--gas-price-gwei", "abc"))
	assert.Error(t, err)
}

func TestAddressFlags(t *testing.T) {
	cmd := newGasCommand(t, "--to", "0x00000000000000000000000000000000000000bb")

	addr, err := command.AddressFlag(cmd, "to")
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress("0xbb"), addr)

	empty := newGasCommand(t)
	_, err = command.AddressFlag(empty, "to")
	assert.Error(t, err)

	opt, err := command.OptionalAddressFlag(empty, "to")
	require.NoError(t, err)
	assert.Nil(t, opt)
}
