package main

import (
	"os"

	"github.com/silentoaq/zuvi-auth/cmd/zuvi/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
