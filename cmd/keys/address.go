package keys

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Shahnawazkhan83/crypto-vault/internal/api"
	"github.com/Shahnawazkhan83/crypto-vault/internal/config"
	"github.com/Shahnawazkhan83/crypto-vault/internal/util/command"
)

func newAddress() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "address",
		Short: "Prints the address of a stored key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, _ := cmd.Flags().GetString(pathFlag)

			return command.WithServer(cmd.Context(), config.DefaultServiceConfigFromEnv(), func(ctx context.Context, s *api.Server) error {
				addr, err := s.Wallet.Address(ctx, path)
				if err != nil {
					return err
				}

				_, err = fmt.Fprintln(cmd.OutOrStdout(), addr.Hex())
				return err
			})
		},
	}
	cmd.Flags().String(pathFlag, "", "Key path returned by generate")
	_ = cmd.MarkFlagRequired(pathFlag)

	return cmd
}
