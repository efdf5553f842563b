package env

import (
	"github.com/spf13/cobra"

	"github.com/Shahnawazkhan83/crypto-vault/internal/config"
	"github.com/Shahnawazkhan83/crypto-vault/internal/util/command"
)

// New prints the effective configuration. Secrets are never printed.
func New() *cobra.Command {
	return &cobra.Command{
		Use:   "env",
		Short: "Prints the env configuration",
		Long:  "Prints the configuration parsed from ENV as JSON. Secrets and DSNs are omitted.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return command.PrintJSON(cmd, config.DefaultServiceConfigFromEnv())
		},
	}
}
