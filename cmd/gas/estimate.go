package gas

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/Shahnawazkhan83/crypto-vault/internal/api"
	"github.com/Shahnawazkhan83/crypto-vault/internal/config"
	"github.com/Shahnawazkhan83/crypto-vault/internal/util/command"
	"github.com/Shahnawazkhan83/crypto-vault/internal/wallet"
	"github.com/Shahnawazkhan83/crypto-vault/internal/wallet/gas"
)

func newEstimate() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Estimates gas limit and fees for a transfer without sending it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req := &wallet.EstimateRequest{}
			req.KeyPath, _ = cmd.Flags().GetString("path")
			req.Amount, _ = cmd.Flags().GetString("amount")

			var err error
			if req.To, err = command.AddressFlag(cmd, "to"); err != nil {
				return err
			}
			if req.Token, err = command.OptionalAddressFlag(cmd, "token"); err != nil {
				return err
			}

			rawSpeed, _ := cmd.Flags().GetString(command.SpeedFlag)
			if req.Speed, err = gas.ParseSpeed(rawSpeed); err != nil {
				return err
			}

			return command.WithServer(cmd.Context(), config.DefaultServiceConfigFromEnv(), func(ctx context.Context, s *api.Server) error {
				est, err := s.Wallet.EstimateTransferGas(ctx, req)
				if err != nil {
					return err
				}

				return command.PrintJSON(cmd, est)
			})
		},
	}
	cmd.Flags().String("path", "", "Key path of the sender")
	cmd.Flags().String("to", "", "Recipient address")
	cmd.Flags().String("amount", "", "Decimal amount, e.g. 1.5")
	cmd.Flags().String("token", "", "ERC-20 token address, native currency when omitted")
	cmd.Flags().String(command.SpeedFlag, string(gas.SpeedStandard), "Estimation tier: slow, standard or fast")
	_ = cmd.MarkFlagRequired("path")
	_ = cmd.MarkFlagRequired("to")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}
