package probe

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Shahnawazkhan83/crypto-vault/internal/api"
	"github.com/Shahnawazkhan83/crypto-vault/internal/config"
	"github.com/Shahnawazkhan83/crypto-vault/internal/util/command"
)

const timeoutFlag string = "timeout"

func newReadiness() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "readiness",
		Short: "Checks that the record store and the chain node are reachable",
		Long: `Builds the full object graph from ENV, pings the record store and reads the
chain id from the configured node. Exits non-zero when anything is unavailable.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			verbose, _ := cmd.Flags().GetBool(verboseFlag)
			timeout, _ := cmd.Flags().GetDuration(timeoutFlag)

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			return command.WithServer(ctx, config.DefaultServiceConfigFromEnv(), func(ctx context.Context, s *api.Server) error {
				return runReadiness(ctx, cmd, s, verbose)
			})
		},
	}
	cmd.Flags().BoolP(verboseFlag, "v", false, "Print the probe result")
	cmd.Flags().Duration(timeoutFlag, 10*time.Second, "Overall probe timeout")

	return cmd
}

func runReadiness(ctx context.Context, cmd *cobra.Command, s *api.Server, verbose bool) error {
	if err := s.Ready(ctx); err != nil {
		if verbose {
			fmt.Fprintln(cmd.OutOrStdout(), "Not ready.")
		}
		return err
	}

	if verbose {
		fmt.Fprintln(cmd.OutOrStdout(), "Ready.")
	}

	return nil
}
