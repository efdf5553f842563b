package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Shahnawazkhan83/crypto-vault/cmd/env"
	gascmd "github.com/Shahnawazkhan83/crypto-vault/cmd/gas"
	"github.com/Shahnawazkhan83/crypto-vault/cmd/keys"
	"github.com/Shahnawazkhan83/crypto-vault/cmd/probe"
	swapcmd "github.com/Shahnawazkhan83/crypto-vault/cmd/swap"
	"github.com/Shahnawazkhan83/crypto-vault/cmd/tx"
	"github.com/Shahnawazkhan83/crypto-vault/internal/config"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Version: config.GetFormattedBuildArgs(),
	Use:     "app",
	Short:   config.ModuleName,
	Long: fmt.Sprintf(`%v

Custodial key vault and EVM transaction signer.
Requires configuration through ENV.`, config.ModuleName),
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	// attach the subcommands
	rootCmd.AddCommand(
		env.New(),
		gascmd.New(),
		keys.New(),
		probe.New(),
		swapcmd.New(),
		tx.New(),
	)

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("Failed to execute root command")
		os.Exit(1)
	}
}
