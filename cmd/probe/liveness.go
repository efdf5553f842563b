package probe

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newLiveness() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "liveness",
		Short: "Checks that the binary starts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			verbose, _ := cmd.Flags().GetBool(verboseFlag)
			if verbose {
				fmt.Fprintln(cmd.OutOrStdout(), "Alive.")
			}

			return nil
		},
	}
	cmd.Flags().BoolP(verboseFlag, "v", false, "Print the probe result")

	return cmd
}
