package swap

import (
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/Shahnawazkhan83/crypto-vault/internal/api"
	"github.com/Shahnawazkhan83/crypto-vault/internal/config"
	"github.com/Shahnawazkhan83/crypto-vault/internal/util/command"
	"github.com/Shahnawazkhan83/crypto-vault/internal/wallet/swap"
	"github.com/Shahnawazkhan83/crypto-vault/internal/wallet/txbuilder"
)

func newExecute() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "execute",
		Short: "Signs and submits a previously fetched swap quote",
		Long: `Reads a quote produced by "swap quote" (use "-" for stdin), signs its Permit2 message
if present and submits the swap transaction. Expired quotes are rejected without contacting
the chain node.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, _ := cmd.Flags().GetString("path")
			file, _ := cmd.Flags().GetString("quote")

			quote, err := readQuote(cmd.InOrStdin(), file)
			if err != nil {
				return err
			}

			return command.WithServer(cmd.Context(), config.DefaultServiceConfigFromEnv(), func(ctx context.Context, s *api.Server) error {
				res, err := s.Wallet.ExecuteSwap(ctx, &txbuilder.SwapRequest{KeyPath: path, Quote: quote})
				if err != nil {
					return err
				}

				return command.PrintJSON(cmd, res)
			})
		},
	}
	cmd.Flags().String("path", "", "Key path of the taker")
	cmd.Flags().String("quote", "", "Quote JSON file, - for stdin")
	_ = cmd.MarkFlagRequired("path")
	_ = cmd.MarkFlagRequired("quote")

	return cmd
}

func readQuote(stdin io.Reader, file string) (*swap.Quote, error) {
	var (
		raw []byte
		err error
	)
	if file == "-" {
		raw, err = io.ReadAll(stdin)
	} else {
		raw, err = os.ReadFile(file)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to read quote")
	}

	var quote swap.Quote
	if err := json.Unmarshal(raw, &quote); err != nil {
		return nil, errors.Wrap(err, "failed to decode quote")
	}

	return &quote, nil
}
