package keys

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/Shahnawazkhan83/crypto-vault/internal/api"
	"github.com/Shahnawazkhan83/crypto-vault/internal/config"
	"github.com/Shahnawazkhan83/crypto-vault/internal/util/command"
)

func newGenerate() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generates a new key and stores it encrypted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			owner, _ := cmd.Flags().GetString(ownerFlag)

			return command.WithServer(cmd.Context(), config.DefaultServiceConfigFromEnv(), func(ctx context.Context, s *api.Server) error {
				w, err := s.Wallet.GenerateAndStoreKey(ctx, owner)
				if err != nil {
					return err
				}

				return command.PrintJSON(cmd, w)
			})
		},
	}
	cmd.Flags().String(ownerFlag, "", "Owner id the key is stored under")
	_ = cmd.MarkFlagRequired(ownerFlag)

	return cmd
}
