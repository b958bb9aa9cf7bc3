package main

import (
	"os"

	"github.com/kutbudev/planora/internal/commands"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
