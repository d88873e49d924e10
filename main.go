package main

import (
	"os"

	"github.com/insightdelivered/card-statement-categorizer/internal/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
