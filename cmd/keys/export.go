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

func newExport() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Exports a stored key as a passphrase protected keystore v3 JSON file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, _ := cmd.Flags().GetString(pathFlag)
			file, _ := cmd.Flags().GetString(fileFlag)

			passphrase, err := readPassphrase(cmd, true)
			if err != nil {
				return err
			}

			return command.WithServer(cmd.Context(), config.DefaultServiceConfigFromEnv(), func(ctx context.Context, s *api.Server) error {
				doc, err := s.Wallet.ExportKeystore(ctx, path, passphrase)
				if err != nil {
					return err
				}

				if file == "" {
					_, err = cmd.OutOrStdout().Write(append(doc, '\n'))
					return err
				}

				if err := os.WriteFile(file, doc, 0o600); err != nil {
					return errors.Wrap(err, "failed to write keystore file")
				}

				return nil
			})
		},
	}
	cmd.Flags().String(pathFlag, "", "Key path to export")
	cmd.Flags().String(fileFlag, "", "Output file, stdout when omitted")
	cmd.Flags().String(passphraseFlag, "", "Keystore passphrase (prompted when omitted)")
	_ = cmd.MarkFlagRequired(pathFlag)

	return cmd
}
