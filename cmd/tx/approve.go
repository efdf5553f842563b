package tx

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/Shahnawazkhan83/crypto-vault/internal/api"
	"github.com/Shahnawazkhan83/crypto-vault/internal/config"
	"github.com/Shahnawazkhan83/crypto-vault/internal/util/command"
	"github.com/Shahnawazkhan83/crypto-vault/internal/wallet/txbuilder"
)

func newApprove() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "approve",
		Short: "Grants a spender an unlimited ERC-20 allowance and waits for the receipt",
		Long: `Approves the maximum amount of --token for --spender (Permit2 when omitted),
then polls for the receipt. On timeout the pending hash is still printed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req := &txbuilder.ApproveRequest{}
			req.KeyPath, _ = cmd.Flags().GetString("path")

			var err error
			if req.Token, err = command.AddressFlag(cmd, "token"); err != nil {
				return err
			}
			if req.Spender, err = command.OptionalAddressFlag(cmd, "spender"); err != nil {
				return err
			}
			if req.Gas, err = command.GasPolicyFromFlags(cmd); err != nil {
				return err
			}

			return command.WithServer(cmd.Context(), config.DefaultServiceConfigFromEnv(), func(ctx context.Context, s *api.Server) error {
				res, err := s.Wallet.ApproveSpender(ctx, req)
				if res != nil {
					if printErr := command.PrintJSON(cmd, res); printErr != nil && err == nil {
						err = printErr
					}
				}

				return err
			})
		},
	}
	cmd.Flags().String("path", "", "Key path of the token owner")
	cmd.Flags().String("token", "", "ERC-20 token address")
	cmd.Flags().String("spender", "", "Spender address, Permit2 when omitted")
	command.AddGasFlags(cmd)
	_ = cmd.MarkFlagRequired("path")
	_ = cmd.MarkFlagRequired("token")

	return cmd
}
