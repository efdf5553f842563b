package keys

import (
	"context"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/Shahnawazkhan83/crypto-vault/internal/api"
	"github.com/Shahnawazkhan83/crypto-vault/internal/config"
	"github.com/Shahnawazkhan83/crypto-vault/internal/util/command"
)

func newImport() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Imports a key from a keystore v3 JSON file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			owner, _ := cmd.Flags().GetString(ownerFlag)
			file, _ := cmd.Flags().GetString(fileFlag)

			keyJSON, err := os.ReadFile(file)
			if err != nil {
				return errors.Wrap(err, "failed to read keystore file")
			}

			passphrase, err := readPassphrase(cmd, false)
			if err != nil {
				return err
			}

			return command.WithServer(cmd.Context(), config.DefaultServiceConfigFromEnv(), func(ctx context.Context, s *api.Server) error {
				w, err := s.Wallet.ImportKeystore(ctx, owner, keyJSON, passphrase)
				if err != nil {
					return err
				}

				return command.PrintJSON(cmd, w)
			})
		},
	}
	cmd.Flags().String(ownerFlag, "", "Owner id the key is stored under")
	cmd.Flags().String(fileFlag, "", "Keystore v3 JSON file")
	cmd.Flags().String(passphraseFlag, "", "Keystore passphrase (prompted when omitted)")
	_ = cmd.MarkFlagRequired(ownerFlag)
	_ = cmd.MarkFlagRequired(fileFlag)

	return cmd
}
