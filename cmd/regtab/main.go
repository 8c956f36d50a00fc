// Package main provides the regtab CLI.
package main

import (
	"os"

	"github.com/leapstack-labs/regtab/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
