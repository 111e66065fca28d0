package main

import (
	"os"

	"github.com/wonny/magicformula/cmd/magicformula/commands"
)

// main is the entry point for the Magic Formula CLI
// ⭐ single CLI entry point: go run ./cmd/magicformula [command]
func main() {
	if err := commands.Execute(); err != nil {
		commands.PrintError(err.Error())
		os.Exit(1)
	}
}
