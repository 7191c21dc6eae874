// Package main provides the entry point for the deacon CLI.
package main

import (
	"os"

	"github.com/deacon-dev/deacon/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
