package main

import (
	"os"

	"github.com/telhawk-systems/mediabridge/core/cmd/mbridge/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
