package keys

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/Shahnawazkhan83/crypto-vault/internal/api"
	"github.com/Shahnawazkhan83/crypto-vault/internal/config"
	"github.com/Shahnawazkhan83/crypto-vault/internal/util/command"
)

const tokenFlag string = "token"

func newBalance() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Prints the native and ERC-20 balances of a stored key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, _ := cmd.Flags().GetString(pathFlag)
			raw, _ := cmd.Flags().GetStringSlice(tokenFlag)

			tokens := make([]common.Address, 0, len(raw))
			for _, t := range raw {
				if !common.IsHexAddress(t) {
					return errors.Errorf("--%s must be a hex address, got %q", tokenFlag, t)
				}
				tokens = append(tokens, common.HexToAddress(t))
			}

			return command.WithServer(cmd.Context(), config.DefaultServiceConfigFromEnv(), func(ctx context.Context, s *api.Server) error {
				balances, err := s.Wallet.Balances(ctx, path, tokens)
				if err != nil {
					return err
				}

				return command.PrintJSON(cmd, balances)
			})
		},
	}
	cmd.Flags().String(pathFlag, "", "Key path returned by generate")
	cmd.Flags().StringSlice(tokenFlag, nil, "ERC-20 token address, repeatable")
	_ = cmd.MarkFlagRequired(pathFlag)

	return cmd
}
