package main

import (
	"os"

	"github.com/raviprakash-14/scrapify/cmd/scrapify-cli/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
