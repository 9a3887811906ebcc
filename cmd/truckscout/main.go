// Package main is the entry point for the truckscout CLI.
package main

import (
	"os"

	"github.com/jmylchreest/truckscout/cmd/truckscout/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
