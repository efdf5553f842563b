package main

import "github.com/Shahnawazkhan83/crypto-vault/cmd"

func main() {
	cmd.Execute()
}
