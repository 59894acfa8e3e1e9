package main

import (
	"os"

	"github.com/spigell/eb1-screener/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
