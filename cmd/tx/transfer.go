package tx

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/Shahnawazkhan83/crypto-vault/internal/api"
	"github.com/Shahnawazkhan83/crypto-vault/internal/config"
	"github.com/Shahnawazkhan83/crypto-vault/internal/util/command"
	"github.com/Shahnawazkhan83/crypto-vault/internal/wallet/txbuilder"
)

func newTransfer() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transfer",
		Short: "Signs and submits a native or ERC-20 transfer",
		Long: `Signs and submits a transfer exactly once and prints the pending result.
The command does not wait for the transaction to be mined.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req := &txbuilder.TransferRequest{}
			req.KeyPath, _ = cmd.Flags().GetString("path")
			req.Amount, _ = cmd.Flags().GetString("amount")

			var err error
			if req.To, err = command.AddressFlag(cmd, "to"); err != nil {
				return err
			}
			if req.Token, err = command.OptionalAddressFlag(cmd, "token"); err != nil {
				return err
			}
			if req.Gas, err = command.GasPolicyFromFlags(cmd); err != nil {
				return err
			}

			return command.WithServer(cmd.Context(), config.DefaultServiceConfigFromEnv(), func(ctx context.Context, s *api.Server) error {
				res, err := s.Wallet.Transfer(ctx, req)
				if err != nil {
					return err
				}

				return command.PrintJSON(cmd, res)
			})
		},
	}
	cmd.Flags().String("path", "", "Key path of the sender")
	cmd.Flags().String("to", "", "Recipient address")
	cmd.Flags().String("amount", "", "Decimal amount, e.g. 1.5")
	cmd.Flags().String("token", "", "ERC-20 token address, native currency when omitted")
	command.AddGasFlags(cmd)
	_ = cmd.MarkFlagRequired("path")
	_ = cmd.MarkFlagRequired("to")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}
