package main

import (
	"os"

	"github.com/feral-file/metaplex-indexer/internal/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
