package main

import (
	"os"

	"github.com/stxkxs/strata/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
