package swap

import (
	"context"
	"encoding/json"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/Shahnawazkhan83/crypto-vault/internal/api"
	"github.com/Shahnawazkhan83/crypto-vault/internal/config"
	"github.com/Shahnawazkhan83/crypto-vault/internal/util/command"
	"github.com/Shahnawazkhan83/crypto-vault/internal/wallet"
	"github.com/Shahnawazkhan83/crypto-vault/internal/wallet/swap"
)

func newQuote() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Fetches an executable swap quote for a stored key",
		Long: `Fetches a firm Permit2 quote from the swap aggregator. The quote JSON is printed or
written to --out and can be passed to "swap execute" before it expires.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req := &wallet.QuoteRequest{}
			req.KeyPath, _ = cmd.Flags().GetString("path")
			req.SellAmount, _ = cmd.Flags().GetString("amount")
			req.SlippageBps, _ = cmd.Flags().GetInt("slippage-bps")
			out, _ := cmd.Flags().GetString("out")

			var err error
			if req.SellToken, err = command.AddressFlag(cmd, "sell"); err != nil {
				return err
			}
			if req.BuyToken, err = command.AddressFlag(cmd, "buy"); err != nil {
				return err
			}

			return command.WithServer(cmd.Context(), config.DefaultServiceConfigFromEnv(), func(ctx context.Context, s *api.Server) error {
				quote, err := s.Wallet.QuoteSwap(ctx, req)
				if err != nil {
					return err
				}

				if out == "" {
					return command.PrintJSON(cmd, quote)
				}

				return writeQuote(out, quote)
			})
		},
	}
	cmd.Flags().String("path", "", "Key path of the taker")
	cmd.Flags().String("sell", "", "Token to sell, "+swap.NativeToken.Hex()+" for the native currency")
	cmd.Flags().String("buy", "", "Token to buy")
	cmd.Flags().String("amount", "", "Decimal amount of the sell token")
	cmd.Flags().Int("slippage-bps", 0, "Slippage tolerance in basis points, configured default when 0")
	cmd.Flags().String("out", "", "Write the quote JSON to this file")
	_ = cmd.MarkFlagRequired("path")
	_ = cmd.MarkFlagRequired("sell")
	_ = cmd.MarkFlagRequired("buy")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func writeQuote(path string, quote *swap.Quote) error {
	raw, err := json.MarshalIndent(quote, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to encode quote")
	}

	return errors.Wrap(os.WriteFile(path, raw, 0o600), "failed to write quote")
}
