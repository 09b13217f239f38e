package main

import (
	"os"

	"github.com/bobmcallan/tracket/cmd/tracket/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
