package tx

import (
	"github.com/spf13/cobra"

	"github.com/Shahnawazkhan83/crypto-vault/internal/util/command"
)

func New() *cobra.Command {
	return command.NewSubcommandGroup("tx",
		newTransfer(),
		newApprove(),
	)
}
