package keys

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/Shahnawazkhan83/crypto-vault/internal/api"
	"github.com/Shahnawazkhan83/crypto-vault/internal/config"
	"github.com/Shahnawazkhan83/crypto-vault/internal/util/command"
)

func newRotate() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rotate",
		Short: "Re-encrypts a key under a new path and deletes the old record",
		Long: `Re-encrypts the key with the currently preferred backend and stores it under a
new path. The old path is unreadable afterwards. Do not rotate the same path concurrently.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, _ := cmd.Flags().GetString(pathFlag)

			return command.WithServer(cmd.Context(), config.DefaultServiceConfigFromEnv(), func(ctx context.Context, s *api.Server) error {
				w, err := s.Wallet.RotateKey(ctx, path)
				if w != nil {
					// Printed even on a failed cleanup so the new path is not lost.
					if printErr := command.PrintJSON(cmd, w); printErr != nil && err == nil {
						err = printErr
					}
				}

				return err
			})
		},
	}
	cmd.Flags().String(pathFlag, "", "Key path to rotate")
	_ = cmd.MarkFlagRequired(pathFlag)

	return cmd
}
