// Package main is the entry point of the leapline command.
package main

import (
	"os"

	"github.com/leapstack-labs/leapline/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
