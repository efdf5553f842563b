package keys

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Shahnawazkhan83/crypto-vault/internal/util/command"
)

const (
	ownerFlag      string = "owner"
	pathFlag       string = "path"
	fileFlag       string = "file"
	passphraseFlag string = "passphrase"
)

func New() *cobra.Command {
	return command.NewSubcommandGroup("keys",
		newGenerate(),
		newAddress(),
		newBalance(),
		newRotate(),
		newImport(),
		newExport(),
	)
}

// readPassphrase returns the flag value or prompts on the terminal without echo.
func readPassphrase(cmd *cobra.Command, confirm bool) (string, error) {
	if p, _ := cmd.Flags().GetString(passphraseFlag); p != "" {
		return p, nil
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.Errorf("--%s is required when stdin is not a terminal", passphraseFlag)
	}

	fmt.Fprint(cmd.ErrOrStderr(), "Passphrase: ")
	first, err := term.ReadPassword(fd)
	fmt.Fprintln(cmd.ErrOrStderr())
	if err != nil {
		return "", errors.Wrap(err, "failed to read passphrase")
	}
	if !confirm {
		return string(first), nil
	}

	fmt.Fprint(cmd.ErrOrStderr(), "Repeat passphrase: ")
	second, err := term.ReadPassword(fd)
	fmt.Fprintln(cmd.ErrOrStderr())
	if err != nil {
		return "", errors.Wrap(err, "failed to read passphrase")
	}
	if string(first) != string(second) {
		return "", errors.New("passphrases do not match")
	}

	return string(first), nil
}
